package controllers

import (
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"inkwell/app/middleware"
	"inkwell/app/models"
	"inkwell/app/repositories"
	"inkwell/app/services"
	"inkwell/app/views"
)

// templatePages lists the server-rendered pages; each is parsed
// together with the shared layout.
var templatePages = []string{
	"posts/index",
	"posts/show",
	"posts/form",
	"posts/drafts",
	"search",
	"auth/login",
	"auth/register",
}

// loadTemplates parses all embedded templates at startup
func loadTemplates() map[string]*template.Template {
	templates := make(map[string]*template.Template)
	for _, page := range templatePages {
		templates[page] = template.Must(
			template.ParseFS(views.FS, "layout.html", page+".html"),
		)
	}
	return templates
}

// basePage carries the fields every page template expects.
type basePage struct {
	CurrentUser *models.User
	Flash       string
}

const flashCookie = "flash"

func newBasePage(w http.ResponseWriter, r *http.Request) basePage {
	page := basePage{CurrentUser: middleware.CurrentUser(r)}
	if c, err := r.Cookie(flashCookie); err == nil {
		page.Flash = c.Value
		http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})
	}
	return page
}

// setFlash queues a one-shot notice shown on the next rendered page.
func setFlash(w http.ResponseWriter, message string) {
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: message, Path: "/", MaxAge: 60})
}

func renderHTML(w http.ResponseWriter, templates map[string]*template.Template, page string, data interface{}) {
	tmpl, ok := templates[page]
	if !ok {
		http.Error(w, "template not found: "+page, http.StatusInternalServerError)
		return
	}
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		http.Error(w, "Template error: "+err.Error(), http.StatusInternalServerError)
	}
}

// JSend-style envelopes for the API: "success" carries data, "fail"
// carries caller errors, "error" carries server faults.

func respondSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "success",
		"data":   data,
	})
}

func respondFail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "fail",
		"data":   map[string]string{"detail": detail},
	})
}

// respondError logs the failure and sends a generic error envelope; the
// underlying detail never reaches the client.
func respondError(w http.ResponseWriter, err error) {
	slog.Error("request failed", "error", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "error",
		"message": "internal server error",
	})
}

// respondServiceError maps service errors onto response codes:
// validation 400, credentials 401, permission 403, not found 404,
// conflict 409.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		respondFail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		respondFail(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrPermission):
		respondFail(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrNotFound):
		respondFail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrConflict), errors.Is(err, repositories.ErrSlugTaken):
		respondFail(w, http.StatusConflict, err.Error())
	default:
		respondError(w, err)
	}
}
