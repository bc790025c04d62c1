package services

import (
	"fmt"
	"testing"
	"time"

	"inkwell/app/models"
	"inkwell/app/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

// testEnv wires the services against a throwaway Badger database.
type testEnv struct {
	posts      *PostService
	comments   *CommentService
	categories *CategoryService
	auth       *AuthService
	userRepo   repositories.UserRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	opts := badger.DefaultOptions(t.TempDir())
	opts.Logger = nil
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	postRepo := repositories.NewBadgerPostRepository(db)
	commentRepo := repositories.NewBadgerCommentRepository(db)
	categoryRepo := repositories.NewBadgerCategoryRepository(db)
	userRepo := repositories.NewBadgerUserRepository(db)
	tokenRepo := repositories.NewBadgerTokenRepository(db)

	env := &testEnv{userRepo: userRepo}
	env.posts = NewPostService(postRepo, commentRepo, categoryRepo, nil)
	env.comments = NewCommentService(commentRepo, postRepo)
	env.categories = NewCategoryService(categoryRepo, env.posts)
	env.auth = NewAuthService(userRepo, tokenRepo, []byte("test-secret"), 15*time.Minute, time.Hour)
	return env
}

var userSeq int

func (e *testEnv) createUser(t *testing.T, staff bool) *models.User {
	t.Helper()
	userSeq++
	name := fmt.Sprintf("user%d", userSeq)
	user, _, err := e.auth.Register(name, name+"@example.com", "s3cretpassword")
	require.NoError(t, err)
	if staff {
		user.Staff = true
		require.NoError(t, e.userRepo.Update(user))
	}
	return user
}
