package repositories

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"inkwell/app/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoredPost(t *testing.T, repo *BadgerPostRepository, title, slug string, status models.Status) *models.Post {
	t.Helper()
	post := &models.Post{
		Title:     title,
		Slug:      slug,
		Content:   "content of " + title,
		Status:    status,
		AuthorID:  1,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, repo.Create(post))
	return post
}

func TestPostRepositoryCreate(t *testing.T) {
	repo := NewBadgerPostRepository(newTestDB(t))

	t.Run("assigns sequential IDs", func(t *testing.T) {
		first := newStoredPost(t, repo, "First", "first", models.StatusDraft)
		second := newStoredPost(t, repo, "Second", "second", models.StatusDraft)
		assert.Equal(t, first.ID+1, second.ID)
	})

	t.Run("duplicate slug is rejected", func(t *testing.T) {
		newStoredPost(t, repo, "Original", "taken-slug", models.StatusDraft)
		err := repo.Create(&models.Post{Title: "Copy", Slug: "taken-slug", AuthorID: 2})
		assert.ErrorIs(t, err, ErrSlugTaken)
	})
}

// Concurrent creates with distinct slugs contend only on the sequence
// counter; none of them may be reported as a slug collision.
func TestPostRepositoryConcurrentCreates(t *testing.T) {
	repo := NewBadgerPostRepository(newTestDB(t))

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			err := repo.Create(&models.Post{
				Title:     fmt.Sprintf("Post %d", n),
				Slug:      fmt.Sprintf("post-%d", n),
				Content:   "body",
				Status:    models.StatusDraft,
				AuthorID:  1,
				CreatedAt: time.Now(),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	posts, total, err := repo.List(PostFilter{}, 0, 0)
	require.NoError(t, err)
	require.Equal(t, writers, total)

	ids := make(map[int]bool)
	for _, post := range posts {
		ids[post.ID] = true
	}
	for id := 1; id <= writers; id++ {
		assert.True(t, ids[id], "ID %d was not allocated", id)
	}
}

func TestPostRepositoryGet(t *testing.T) {
	repo := NewBadgerPostRepository(newTestDB(t))
	post := newStoredPost(t, repo, "Findable", "findable", models.StatusPublished)

	t.Run("by ID", func(t *testing.T) {
		got, err := repo.GetByID(post.ID)
		require.NoError(t, err)
		assert.Equal(t, "Findable", got.Title)
	})

	t.Run("by slug", func(t *testing.T) {
		got, err := repo.GetBySlug("findable")
		require.NoError(t, err)
		assert.Equal(t, post.ID, got.ID)
	})

	t.Run("missing ID", func(t *testing.T) {
		_, err := repo.GetByID(9999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("missing slug", func(t *testing.T) {
		_, err := repo.GetBySlug("missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPostRepositorySlugExists(t *testing.T) {
	repo := NewBadgerPostRepository(newTestDB(t))
	post := newStoredPost(t, repo, "Holder", "held-slug", models.StatusDraft)

	exists, err := repo.SlugExists("held-slug", 0)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.SlugExists("held-slug", post.ID)
	require.NoError(t, err)
	assert.False(t, exists, "a record does not collide with its own slug")

	exists, err = repo.SlugExists("free-slug", 0)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPostRepositoryUpdate(t *testing.T) {
	repo := NewBadgerPostRepository(newTestDB(t))

	t.Run("slug change moves the index", func(t *testing.T) {
		post := newStoredPost(t, repo, "Movable", "old-slug", models.StatusDraft)
		post.Slug = "new-slug"
		require.NoError(t, repo.Update(post))

		got, err := repo.GetBySlug("new-slug")
		require.NoError(t, err)
		assert.Equal(t, post.ID, got.ID)

		_, err = repo.GetBySlug("old-slug")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("slug change into a taken slug is rejected", func(t *testing.T) {
		newStoredPost(t, repo, "Blocker", "blocker", models.StatusDraft)
		post := newStoredPost(t, repo, "Mover", "mover", models.StatusDraft)

		post.Slug = "blocker"
		assert.ErrorIs(t, repo.Update(post), ErrSlugTaken)
	})

	t.Run("missing post", func(t *testing.T) {
		err := repo.Update(&models.Post{ID: 9999, Slug: "ghost"})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPostRepositoryDelete(t *testing.T) {
	repo := NewBadgerPostRepository(newTestDB(t))
	post := newStoredPost(t, repo, "Temporary", "temporary", models.StatusDraft)

	require.NoError(t, repo.Delete(post.ID))

	_, err := repo.GetByID(post.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// The slug is free again.
	fresh := &models.Post{Title: "Reclaimer", Slug: "temporary", AuthorID: 1}
	assert.NoError(t, repo.Create(fresh))
}

func TestPostRepositoryList(t *testing.T) {
	repo := NewBadgerPostRepository(newTestDB(t))

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 10; i++ {
		status := models.StatusPublished
		if i%2 == 0 {
			status = models.StatusDraft
		}
		post := &models.Post{
			Title:      fmt.Sprintf("Post %d", i),
			Slug:       fmt.Sprintf("post-%d", i),
			Status:     status,
			AuthorID:   1 + i%2,
			CategoryID: i % 3,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Create(post))
	}

	t.Run("status filter with total", func(t *testing.T) {
		posts, total, err := repo.List(PostFilter{Status: models.StatusPublished}, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		assert.Len(t, posts, 5)
	})

	t.Run("newest first", func(t *testing.T) {
		posts, _, err := repo.List(PostFilter{}, 0, 0)
		require.NoError(t, err)
		require.Len(t, posts, 10)
		for i := 1; i < len(posts); i++ {
			assert.False(t, posts[i-1].CreatedAt.Before(posts[i].CreatedAt))
		}
	})

	t.Run("limit and offset page through", func(t *testing.T) {
		page1, total, err := repo.List(PostFilter{}, 4, 0)
		require.NoError(t, err)
		assert.Equal(t, 10, total)
		assert.Len(t, page1, 4)

		page3, total, err := repo.List(PostFilter{}, 4, 8)
		require.NoError(t, err)
		assert.Equal(t, 10, total)
		assert.Len(t, page3, 2)

		empty, total, err := repo.List(PostFilter{}, 4, 20)
		require.NoError(t, err)
		assert.Equal(t, 10, total)
		assert.Empty(t, empty)
	})

	t.Run("author and category filters combine", func(t *testing.T) {
		posts, _, err := repo.List(PostFilter{AuthorID: 2, Status: models.StatusPublished}, 0, 0)
		require.NoError(t, err)
		for _, post := range posts {
			assert.Equal(t, 2, post.AuthorID)
			assert.Equal(t, models.StatusPublished, post.Status)
		}

		posts, _, err = repo.List(PostFilter{CategoryID: 1}, 0, 0)
		require.NoError(t, err)
		for _, post := range posts {
			assert.Equal(t, 1, post.CategoryID)
		}
	})
}
