package models

import "time"

// Status is the lifecycle state of a post.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Post represents a blog article.
type Post struct {
	ID          int       `json:"id" validate:"gte=0"`
	Title       string    `json:"title" validate:"required,max=200"`
	Slug        string    `json:"slug" validate:"-"`
	Content     string    `json:"content" validate:"required"`
	ContentHTML string    `json:"content_html" validate:"-"`
	Status      Status    `json:"status" validate:"required,oneof=draft published"`
	AuthorID    int       `json:"author_id" validate:"required,gt=0"`
	CategoryID  int       `json:"category_id,omitempty" validate:"gte=0"`
	Publish     time.Time `json:"publish,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Comments []*Comment `json:"comments,omitempty" validate:"-"`
}

// Comment represents a visitor comment on a post. Comments are
// append-only; Active hides a comment from listings without deleting it.
type Comment struct {
	ID        int       `json:"id" validate:"gte=0"`
	PostID    int       `json:"post_id" validate:"required,gt=0"`
	Name      string    `json:"name" validate:"required,min=2,max=80"`
	Email     string    `json:"email" validate:"required,email"`
	Body      string    `json:"body" validate:"required,max=2000"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Category groups posts. Deleting a category detaches its posts.
type Category struct {
	ID        int       `json:"id" validate:"gte=0"`
	Name      string    `json:"name" validate:"required,min=1,max=100"`
	Slug      string    `json:"slug" validate:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User is an account that can author posts. Staff users may manage any
// post regardless of authorship.
type User struct {
	ID           int       `json:"id" validate:"gte=0"`
	Username     string    `json:"username" validate:"required,min=3,max=50"`
	Email        string    `json:"email" validate:"required,email"`
	PasswordHash string    `json:"-" validate:"required"`
	Staff        bool      `json:"staff"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}
