package middleware

import (
	"context"
	"net/http"
	"strings"

	"inkwell/app/models"
	"inkwell/app/services"

	"github.com/gorilla/mux"
)

type contextKey string

const userContextKey contextKey = "inkwell.user"

// AccessTokenCookie carries the JWT for the server-rendered pages; API
// clients send it as a Bearer token instead.
const AccessTokenCookie = "access_token"

// CurrentUser returns the authenticated user for the request, or nil.
func CurrentUser(r *http.Request) *models.User {
	user, _ := r.Context().Value(userContextKey).(*models.User)
	return user
}

// WithUser returns a request carrying user in its context; used by
// handler tests.
func WithUser(r *http.Request, user *models.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userContextKey, user))
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie(AccessTokenCookie); err == nil {
		return c.Value
	}
	return ""
}

// Authenticate resolves the request's token to a user when present.
// Requests without a valid token pass through anonymously; handlers
// that need a user combine this with RequireUser or RequireUserWeb.
func Authenticate(auth *services.AuthService) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := tokenFromRequest(r); token != "" {
				if user, err := auth.VerifyAccess(token); err == nil {
					r = WithUser(r, user)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireUser rejects unauthenticated API requests with 401
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CurrentUser(r) == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"status":"fail","data":{"detail":"authentication required"}}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUserWeb redirects unauthenticated page requests to the login
// form, preserving the destination
func RequireUserWeb(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CurrentUser(r) == nil {
			http.Redirect(w, r, "/login?next="+r.URL.Path, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
