package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validPost() *Post {
	return &Post{
		Title:     "A Valid Title",
		Slug:      "a-valid-title",
		Content:   "some content",
		Status:    StatusDraft,
		AuthorID:  1,
		CreatedAt: time.Now(),
	}
}

func TestPostValidate(t *testing.T) {
	t.Run("valid post", func(t *testing.T) {
		assert.NoError(t, validPost().Validate())
	})

	t.Run("missing title", func(t *testing.T) {
		post := validPost()
		post.Title = ""
		assert.Error(t, post.Validate())
	})

	t.Run("one character title", func(t *testing.T) {
		post := validPost()
		post.Title = "K"
		post.Slug = "k"
		assert.NoError(t, post.Validate())
	})

	t.Run("overlong title", func(t *testing.T) {
		post := validPost()
		post.Title = strings.Repeat("a", 201)
		assert.Error(t, post.Validate())
	})

	t.Run("missing author", func(t *testing.T) {
		post := validPost()
		post.AuthorID = 0
		assert.Error(t, post.Validate())
	})

	t.Run("unknown status", func(t *testing.T) {
		post := validPost()
		post.Status = Status("archived")
		assert.Error(t, post.Validate())
	})

	t.Run("zero created_at", func(t *testing.T) {
		post := validPost()
		post.CreatedAt = time.Time{}
		assert.Error(t, post.Validate())
	})
}

func TestPostBeforeCreate(t *testing.T) {
	post := &Post{Title: "Fresh", Content: "x", AuthorID: 1}
	post.BeforeCreate()

	assert.False(t, post.CreatedAt.IsZero())
	assert.False(t, post.UpdatedAt.IsZero())
	assert.Equal(t, StatusDraft, post.Status)
	assert.False(t, post.IsPublished())

	// Existing timestamps are kept.
	stamp := post.CreatedAt
	post.BeforeCreate()
	assert.Equal(t, stamp, post.CreatedAt)
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusDraft.Valid())
	assert.True(t, StatusPublished.Valid())
	assert.False(t, Status("").Valid())
	assert.False(t, Status("archived").Valid())
}
