package routes

import (
	"log/slog"
	"net/http"

	"inkwell/app/controllers"
	"inkwell/app/metrics"
	"inkwell/app/middleware"
	"inkwell/app/services"

	"github.com/gorilla/mux"
)

// Controllers bundles everything the router mounts.
type Controllers struct {
	Posts      *controllers.PostController
	Comments   *controllers.CommentController
	Categories *controllers.CategoryController
	Auth       *controllers.AuthController
	Search     *controllers.SearchController
}

// SetupRoutes wires the web pages and the /api/v1 surface onto one router
func SetupRoutes(c Controllers, auth *services.AuthService, log *slog.Logger, staticDir string) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Recoverer(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.Metrics())
	r.Use(middleware.Authenticate(auth))

	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.PathPrefix("/static/").Handler(
		http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))

	// Web pages
	r.HandleFunc("/", c.Posts.Index).Methods(http.MethodGet)
	r.HandleFunc("/posts", c.Posts.Index).Methods(http.MethodGet)
	r.HandleFunc("/search", c.Search.Show).Methods(http.MethodGet)
	r.HandleFunc("/categories/{slug}", c.Categories.Show).Methods(http.MethodGet)

	r.HandleFunc("/login", c.Auth.LoginForm).Methods(http.MethodGet)
	r.HandleFunc("/login", c.Auth.Login).Methods(http.MethodPost)
	r.HandleFunc("/register", c.Auth.RegisterForm).Methods(http.MethodGet)
	r.HandleFunc("/register", c.Auth.Register).Methods(http.MethodPost)
	r.HandleFunc("/logout", c.Auth.Logout).Methods(http.MethodPost)

	r.Handle("/posts/new", middleware.RequireUserWeb(http.HandlerFunc(c.Posts.New))).Methods(http.MethodGet)
	r.Handle("/posts/new", middleware.RequireUserWeb(http.HandlerFunc(c.Posts.Create))).Methods(http.MethodPost)
	r.Handle("/drafts", middleware.RequireUserWeb(http.HandlerFunc(c.Posts.Drafts))).Methods(http.MethodGet)
	r.Handle("/posts/{id:[0-9]+}/edit", middleware.RequireUserWeb(http.HandlerFunc(c.Posts.EditForm))).Methods(http.MethodGet)
	r.Handle("/posts/{id:[0-9]+}/edit", middleware.RequireUserWeb(http.HandlerFunc(c.Posts.Update))).Methods(http.MethodPost)
	r.Handle("/posts/{id:[0-9]+}/delete", middleware.RequireUserWeb(http.HandlerFunc(c.Posts.Delete))).Methods(http.MethodPost)

	r.HandleFunc("/posts/{slug}", c.Posts.Show).Methods(http.MethodGet)
	r.HandleFunc("/posts/{slug}/comments", c.Comments.Create).Methods(http.MethodPost)

	// JSON API
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/register", c.Auth.APIRegister).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", c.Auth.APILogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/refresh", c.Auth.APIRefresh).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", c.Auth.APILogout).Methods(http.MethodPost)
	api.Handle("/auth/me", middleware.RequireUser(http.HandlerFunc(c.Auth.APIMe))).Methods(http.MethodGet)

	api.HandleFunc("/posts", c.Posts.APIList).Methods(http.MethodGet)
	api.Handle("/posts", middleware.RequireUser(http.HandlerFunc(c.Posts.APICreate))).Methods(http.MethodPost)
	api.HandleFunc("/posts/{id:[0-9]+}", c.Posts.APIGet).Methods(http.MethodGet)
	api.Handle("/posts/{id:[0-9]+}", middleware.RequireUser(http.HandlerFunc(c.Posts.APIUpdate))).Methods(http.MethodPut, http.MethodPatch)
	api.Handle("/posts/{id:[0-9]+}/status", middleware.RequireUser(http.HandlerFunc(c.Posts.APITransition))).Methods(http.MethodPut)
	api.Handle("/posts/{id:[0-9]+}", middleware.RequireUser(http.HandlerFunc(c.Posts.APIDelete))).Methods(http.MethodDelete)

	api.HandleFunc("/posts/{id:[0-9]+}/comments", c.Comments.APIList).Methods(http.MethodGet)
	api.HandleFunc("/posts/{slug}/comments", c.Comments.APICreate).Methods(http.MethodPost)

	api.HandleFunc("/categories", c.Categories.APIList).Methods(http.MethodGet)
	api.Handle("/categories", middleware.RequireUser(http.HandlerFunc(c.Categories.APICreate))).Methods(http.MethodPost)
	api.HandleFunc("/categories/{slug}/posts", c.Categories.APIListPosts).Methods(http.MethodGet)
	api.Handle("/categories/{id:[0-9]+}", middleware.RequireUser(http.HandlerFunc(c.Categories.APIRename))).Methods(http.MethodPut)
	api.Handle("/categories/{id:[0-9]+}", middleware.RequireUser(http.HandlerFunc(c.Categories.APIDelete))).Methods(http.MethodDelete)

	api.HandleFunc("/search", c.Search.APISearch).Methods(http.MethodGet)

	return r
}
