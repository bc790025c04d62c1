package services

import (
	"testing"
	"time"

	"inkwell/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionStatus(t *testing.T) {
	author := &models.User{ID: 1}
	staff := &models.User{ID: 2, Staff: true}
	stranger := &models.User{ID: 3}

	newDraft := func() *models.Post {
		return &models.Post{ID: 10, AuthorID: author.ID, Status: models.StatusDraft}
	}

	t.Run("publish stamps the timestamp", func(t *testing.T) {
		post := newDraft()
		before := time.Now()
		require.NoError(t, TransitionStatus(post, models.StatusPublished, author))
		assert.Equal(t, models.StatusPublished, post.Status)
		assert.False(t, post.Publish.Before(before))
	})

	t.Run("re-publishing keeps the original timestamp", func(t *testing.T) {
		post := newDraft()
		require.NoError(t, TransitionStatus(post, models.StatusPublished, author))
		first := post.Publish
		time.Sleep(5 * time.Millisecond)
		require.NoError(t, TransitionStatus(post, models.StatusPublished, author))
		assert.Equal(t, first, post.Publish)
	})

	t.Run("unpublishing keeps the timestamp", func(t *testing.T) {
		post := newDraft()
		require.NoError(t, TransitionStatus(post, models.StatusPublished, author))
		first := post.Publish
		require.NoError(t, TransitionStatus(post, models.StatusDraft, author))
		assert.Equal(t, models.StatusDraft, post.Status)
		assert.Equal(t, first, post.Publish)
	})

	t.Run("draft to draft is a no-op", func(t *testing.T) {
		post := newDraft()
		require.NoError(t, TransitionStatus(post, models.StatusDraft, author))
		assert.Equal(t, models.StatusDraft, post.Status)
		assert.True(t, post.Publish.IsZero())
	})

	t.Run("staff may manage any post", func(t *testing.T) {
		post := newDraft()
		require.NoError(t, TransitionStatus(post, models.StatusPublished, staff))
		assert.Equal(t, models.StatusPublished, post.Status)
	})

	t.Run("non-author is rejected", func(t *testing.T) {
		post := newDraft()
		err := TransitionStatus(post, models.StatusPublished, stranger)
		assert.ErrorIs(t, err, ErrPermission)
		assert.Equal(t, models.StatusDraft, post.Status)
		assert.True(t, post.Publish.IsZero())
	})

	t.Run("nil actor is rejected", func(t *testing.T) {
		post := newDraft()
		err := TransitionStatus(post, models.StatusPublished, nil)
		assert.ErrorIs(t, err, ErrPermission)
	})

	t.Run("unknown target status is rejected", func(t *testing.T) {
		post := newDraft()
		err := TransitionStatus(post, models.Status("archived"), author)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, models.StatusDraft, post.Status)
	})
}
