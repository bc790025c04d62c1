package models

import "time"

// Validate checks if the user meets all validation requirements
func (u *User) Validate() error {
	return validate.Struct(u)
}

// BeforeCreate sets up any necessary fields before creation
func (u *User) BeforeCreate() {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	u.Active = true
}

// CanManage reports whether the user may mutate or delete the given
// post: the author always can, staff can manage any post.
func (u *User) CanManage(post *Post) bool {
	if u == nil || post == nil {
		return false
	}
	return u.Staff || post.AuthorID == u.ID
}
