package repositories

import (
	"time"

	"inkwell/app/models"
)

// PostFilter narrows post listings.
type PostFilter struct {
	Status     models.Status // empty = any status
	AuthorID   int           // 0 = any author
	CategoryID int           // 0 = any category
}

// PostRepository defines the interface for post data access
type PostRepository interface {
	// Create persists the post and claims its slug atomically; returns
	// ErrSlugTaken when another post already owns the slug.
	Create(post *models.Post) error
	GetByID(id int) (*models.Post, error)
	GetBySlug(slug string) (*models.Post, error)
	// SlugExists reports whether slug is claimed by a post other than
	// excludeID (0 to exclude nothing).
	SlugExists(slug string, excludeID int) (bool, error)
	// List returns posts matching filter, newest first, plus the total
	// match count before limit/offset are applied.
	List(filter PostFilter, limit, offset int) ([]*models.Post, int, error)
	Update(post *models.Post) error
	Delete(id int) error
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	Create(comment *models.Comment) error
	GetByID(id int) (*models.Comment, error)
	// ListByPost returns comments oldest first. When activeOnly is set,
	// comments hidden by moderation are skipped.
	ListByPost(postID int, activeOnly bool) ([]*models.Comment, error)
	Delete(id int) error
}

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	Create(category *models.Category) error
	GetByID(id int) (*models.Category, error)
	GetBySlug(slug string) (*models.Category, error)
	GetByName(name string) (*models.Category, error)
	SlugExists(slug string, excludeID int) (bool, error)
	List() ([]*models.Category, error)
	Update(category *models.Category) error
	Delete(id int) error
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create persists the user, claiming username and email; returns
	// ErrDuplicate when either is already taken.
	Create(user *models.User) error
	GetByID(id int) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
}

// TokenRepository tracks revoked refresh tokens until they expire.
type TokenRepository interface {
	Deny(jti string, ttl time.Duration) error
	IsDenied(jti string) (bool, error)
}
