package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"inkwell/app/controllers"
	"inkwell/app/logger"
	"inkwell/app/repositories"
	"inkwell/app/search"
	"inkwell/app/services"

	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()
	opts := badger.DefaultOptions(t.TempDir())
	opts.Logger = nil
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	index, err := search.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })

	postRepo := repositories.NewBadgerPostRepository(db)
	commentRepo := repositories.NewBadgerCommentRepository(db)
	categoryRepo := repositories.NewBadgerCategoryRepository(db)
	userRepo := repositories.NewBadgerUserRepository(db)
	tokenRepo := repositories.NewBadgerTokenRepository(db)

	postService := services.NewPostService(postRepo, commentRepo, categoryRepo, index)
	commentService := services.NewCommentService(commentRepo, postRepo)
	categoryService := services.NewCategoryService(categoryRepo, postService)
	authService := services.NewAuthService(userRepo, tokenRepo, []byte("test-secret"), 15*time.Minute, time.Hour)

	return SetupRoutes(Controllers{
		Posts:      controllers.NewPostController(postService, categoryService),
		Comments:   controllers.NewCommentController(commentService),
		Categories: controllers.NewCategoryController(categoryService, postService),
		Auth:       controllers.NewAuthController(authService, 15*time.Minute, time.Hour),
		Search:     controllers.NewSearchController(index),
	}, authService, logger.New("dev"), t.TempDir())
}

type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func doJSON(t *testing.T, router *mux.Router, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && strings.Contains(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	}
	return w, env
}

func registerUser(t *testing.T, router *mux.Router, username string) string {
	t.Helper()
	w, env := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "longenough",
	})
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())

	var data struct {
		Tokens struct {
			Access string `json:"access"`
		} `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Tokens.Access)
	return data.Tokens.Access
}

func TestAPIAuthFlow(t *testing.T) {
	router := newTestRouter(t)

	token := registerUser(t, router, "ivy")

	t.Run("me resolves the token", func(t *testing.T) {
		w, env := doJSON(t, router, http.MethodGet, "/api/v1/auth/me", token, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, string(env.Data), `"ivy"`)
	})

	t.Run("me without a token is 401", func(t *testing.T) {
		w, env := doJSON(t, router, http.MethodGet, "/api/v1/auth/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "fail", env.Status)
	})

	t.Run("login returns a fresh pair", func(t *testing.T) {
		w, _ := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"email": "ivy@example.com", "password": "longenough",
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("bad credentials are 401", func(t *testing.T) {
		w, env := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"email": "ivy@example.com", "password": "wrong-password",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "fail", env.Status)
	})
}

func TestAPIPostFlow(t *testing.T) {
	router := newTestRouter(t)
	authorToken := registerUser(t, router, "judy")
	otherToken := registerUser(t, router, "karl")

	var postID int
	var slug string

	t.Run("create requires authentication", func(t *testing.T) {
		w, _ := doJSON(t, router, http.MethodPost, "/api/v1/posts", "", map[string]interface{}{
			"title": "Nope", "content": "x",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("create a draft", func(t *testing.T) {
		w, env := doJSON(t, router, http.MethodPost, "/api/v1/posts", authorToken, map[string]interface{}{
			"title":   "Hello World",
			"content": "Some **markdown**.",
		})
		require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())

		var data struct {
			Post struct {
				ID          int    `json:"id"`
				Slug        string `json:"slug"`
				Status      string `json:"status"`
				ContentHTML string `json:"content_html"`
			} `json:"post"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, "hello-world", data.Post.Slug)
		assert.Equal(t, "draft", data.Post.Status)
		assert.Contains(t, data.Post.ContentHTML, "<strong>markdown</strong>")
		postID = data.Post.ID
		slug = data.Post.Slug
	})

	t.Run("same title gets a suffixed slug", func(t *testing.T) {
		w, env := doJSON(t, router, http.MethodPost, "/api/v1/posts", otherToken, map[string]interface{}{
			"title": "Hello World", "content": "y",
		})
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, string(env.Data), `"hello-world-2"`)
	})

	t.Run("draft is hidden from other users", func(t *testing.T) {
		w, _ := doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", postID), otherToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w, _ = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", postID), "", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("other users may not edit", func(t *testing.T) {
		w, _ := doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/v1/posts/%d", postID), otherToken, map[string]interface{}{
			"title": "Hijacked",
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("publish via the status endpoint", func(t *testing.T) {
		w, env := doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/v1/posts/%d/status", postID), authorToken, map[string]string{
			"status": "published",
		})
		require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())
		assert.Contains(t, string(env.Data), `"published"`)
	})

	t.Run("published post is visible anonymously", func(t *testing.T) {
		w, _ := doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", postID), "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("published post appears in the listing", func(t *testing.T) {
		w, env := doJSON(t, router, http.MethodGet, "/api/v1/posts", "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var data struct {
			Posts      []struct{ Slug string } `json:"posts"`
			Pagination struct{ Count int }     `json:"pagination"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, 1, data.Pagination.Count, "drafts stay out of the public listing")
		require.Len(t, data.Posts, 1)
	})

	t.Run("comment on the published post", func(t *testing.T) {
		w, _ := doJSON(t, router, http.MethodPost, "/api/v1/posts/"+slug+"/comments", "", map[string]string{
			"name": "Visitor", "email": "visitor@example.com", "body": "first!",
		})
		assert.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())

		w, env := doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/posts/%d/comments", postID), "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, string(env.Data), `"first!"`)
	})

	t.Run("published post is searchable", func(t *testing.T) {
		w, env := doJSON(t, router, http.MethodGet, "/api/v1/search?q=hello", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, string(env.Data), `"hello-world"`)
	})

	t.Run("delete", func(t *testing.T) {
		w, _ := doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/v1/posts/%d", postID), authorToken, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w, _ = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", postID), authorToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestWebPages(t *testing.T) {
	router := newTestRouter(t)

	t.Run("home page renders", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "No posts yet")
	})

	t.Run("login page renders", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `name="password"`)
	})

	t.Run("new post redirects anonymous users to login", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/posts/new", nil))
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Contains(t, w.Header().Get("Location"), "/login?next=/posts/new")
	})

	t.Run("register and browse with the session cookie", func(t *testing.T) {
		form := url.Values{"username": {"lena"}, "email": {"lena@example.com"}, "password": {"longenough"}}
		req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusSeeOther, w.Code, "body: %s", w.Body.String())

		var accessCookie *http.Cookie
		for _, c := range w.Result().Cookies() {
			if c.Name == "access_token" {
				accessCookie = c
			}
		}
		require.NotNil(t, accessCookie, "registration must set the session cookie")

		req = httptest.NewRequest(http.MethodGet, "/posts/new", nil)
		req.AddCookie(accessCookie)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "New post")
	})

	t.Run("missing post is 404", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/posts/no-such-post", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("metrics endpoint is exposed", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
