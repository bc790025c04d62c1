package controllers

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"inkwell/app/middleware"
	"inkwell/app/models"
	"inkwell/app/services"
)

const refreshTokenCookie = "refresh_token"

// AuthController handles registration, login and token management
type AuthController struct {
	auth       *services.AuthService
	accessTTL  time.Duration
	refreshTTL time.Duration
	templates  map[string]*template.Template
}

// NewAuthController creates a new AuthController. The TTLs bound the
// lifetime of the session cookies.
func NewAuthController(auth *services.AuthService, accessTTL, refreshTTL time.Duration) *AuthController {
	return &AuthController{
		auth:       auth,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		templates:  loadTemplates(),
	}
}

type userJSON struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Staff    bool   `json:"staff"`
}

func newUserJSON(user *models.User) userJSON {
	return userJSON{ID: user.ID, Username: user.Username, Email: user.Email, Staff: user.Staff}
}

// --- Web handlers ---

type authPage struct {
	basePage
	Error string
	Next  string
}

// LoginForm renders the login page
func (ac *AuthController) LoginForm(w http.ResponseWriter, r *http.Request) {
	data := authPage{basePage: newBasePage(w, r), Next: safeNext(r.URL.Query().Get("next"))}
	renderHTML(w, ac.templates, "auth/login", data)
}

// Login handles the login form submission
func (ac *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	next := safeNext(r.FormValue("next"))
	_, pair, err := ac.auth.Login(r.FormValue("email"), r.FormValue("password"))
	if err != nil {
		data := authPage{basePage: newBasePage(w, r), Error: "Invalid email or password.", Next: next}
		w.WriteHeader(http.StatusUnauthorized)
		renderHTML(w, ac.templates, "auth/login", data)
		return
	}

	ac.setSessionCookies(w, pair)
	if next == "" {
		next = "/"
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// RegisterForm renders the registration page
func (ac *AuthController) RegisterForm(w http.ResponseWriter, r *http.Request) {
	data := authPage{basePage: newBasePage(w, r)}
	renderHTML(w, ac.templates, "auth/register", data)
}

// Register handles the registration form submission
func (ac *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	_, pair, err := ac.auth.Register(r.FormValue("username"), r.FormValue("email"), r.FormValue("password"))
	if err != nil {
		data := authPage{basePage: newBasePage(w, r), Error: registerErrorMessage(err)}
		w.WriteHeader(http.StatusBadRequest)
		renderHTML(w, ac.templates, "auth/register", data)
		return
	}

	ac.setSessionCookies(w, pair)
	setFlash(w, "Welcome aboard.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout clears the session and denies the refresh token
func (ac *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		_ = ac.auth.Logout(cookie.Value)
	}
	ac.clearSessionCookies(w)
	setFlash(w, "Signed out.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// --- API handlers ---

type apiRegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// APIRegister handles POST /api/v1/auth/register
func (ac *AuthController) APIRegister(w http.ResponseWriter, r *http.Request) {
	var req apiRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFail(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	user, pair, err := ac.auth.Register(req.Username, req.Email, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusCreated, map[string]interface{}{
		"user":   newUserJSON(user),
		"tokens": pair,
	})
}

type apiLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// APILogin handles POST /api/v1/auth/login
func (ac *AuthController) APILogin(w http.ResponseWriter, r *http.Request) {
	var req apiLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFail(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	user, pair, err := ac.auth.Login(req.Email, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"user":   newUserJSON(user),
		"tokens": pair,
	})
}

type apiRefreshRequest struct {
	Refresh string `json:"refresh"`
}

// APIRefresh handles POST /api/v1/auth/refresh. The presented refresh
// token is denied and a fresh pair issued.
func (ac *AuthController) APIRefresh(w http.ResponseWriter, r *http.Request) {
	var req apiRefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFail(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	pair, err := ac.auth.Refresh(req.Refresh)
	if err != nil {
		respondFail(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"tokens": pair})
}

// APILogout handles POST /api/v1/auth/logout
func (ac *AuthController) APILogout(w http.ResponseWriter, r *http.Request) {
	var req apiRefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFail(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if err := ac.auth.Logout(req.Refresh); err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, nil)
}

// APIMe handles GET /api/v1/auth/me
func (ac *AuthController) APIMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if user == nil {
		respondFail(w, http.StatusUnauthorized, "authentication required")
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"user": newUserJSON(user)})
}

// --- helpers ---

func (ac *AuthController) setSessionCookies(w http.ResponseWriter, pair *services.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    pair.Access,
		Path:     "/",
		MaxAge:   int(ac.accessTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    pair.Refresh,
		Path:     "/",
		MaxAge:   int(ac.refreshTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (ac *AuthController) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// safeNext only allows same-site relative redirect targets.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return ""
	}
	return next
}

func registerErrorMessage(err error) string {
	if errors.Is(err, services.ErrValidation) {
		msg := err.Error()
		if idx := strings.Index(msg, ": "); idx >= 0 {
			msg = msg[idx+2:]
		}
		if msg != "" {
			return strings.ToUpper(msg[:1]) + msg[1:] + "."
		}
	}
	return "Registration failed, please try again."
}
