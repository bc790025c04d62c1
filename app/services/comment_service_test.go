package services

import (
	"testing"

	"inkwell/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateComment(t *testing.T) {
	env := newTestEnv(t)
	author := env.createUser(t, false)

	published, err := env.posts.CreatePost(author, CreatePostInput{
		Title: "Open For Comments", Content: "x", Status: models.StatusPublished,
	})
	require.NoError(t, err)

	draft, err := env.posts.CreatePost(author, CreatePostInput{
		Title: "Still A Draft", Content: "x",
	})
	require.NoError(t, err)

	t.Run("adds a comment to a published post", func(t *testing.T) {
		comment, err := env.comments.CreateComment(published.Slug, CommentInput{
			Name: "Dave", Email: "dave@example.com", Body: "great read",
		})
		require.NoError(t, err)
		assert.Equal(t, published.ID, comment.PostID)
		assert.True(t, comment.Active)
		assert.Greater(t, comment.ID, 0)
	})

	t.Run("sanitizes visitor fields", func(t *testing.T) {
		comment, err := env.comments.CreateComment(published.Slug, CommentInput{
			Name: "<b>Eve</b>", Email: "eve@example.com", Body: "hi <script>alert(1)</script> there",
		})
		require.NoError(t, err)
		assert.Equal(t, "Eve", comment.Name)
		assert.NotContains(t, comment.Body, "<script")
		assert.NotContains(t, comment.Body, "alert(1)")
	})

	t.Run("rejects comments on drafts", func(t *testing.T) {
		_, err := env.comments.CreateComment(draft.Slug, CommentInput{
			Name: "Dave", Email: "dave@example.com", Body: "sneaky",
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejects comments on missing posts", func(t *testing.T) {
		_, err := env.comments.CreateComment("no-such-post", CommentInput{
			Name: "Dave", Email: "dave@example.com", Body: "hello",
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("rejects incomplete comments", func(t *testing.T) {
		_, err := env.comments.CreateComment(published.Slug, CommentInput{Name: "Dave"})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("lists comments oldest first", func(t *testing.T) {
		comments, err := env.comments.ListComments(published.ID)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(comments), 2)
		for i := 1; i < len(comments); i++ {
			assert.False(t, comments[i].CreatedAt.Before(comments[i-1].CreatedAt))
		}
	})
}
