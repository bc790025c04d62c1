package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"inkwell/app/models"
	"inkwell/app/services"

	"github.com/gorilla/mux"
)

// CommentController handles comment submission on published posts
type CommentController struct {
	comments *services.CommentService
}

// NewCommentController creates a new CommentController
func NewCommentController(comments *services.CommentService) *CommentController {
	return &CommentController{comments: comments}
}

type commentJSON struct {
	ID        int       `json:"id"`
	PostID    int       `json:"post_id"`
	Name      string    `json:"name"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func newCommentJSON(comment *models.Comment) commentJSON {
	return commentJSON{
		ID:        comment.ID,
		PostID:    comment.PostID,
		Name:      comment.Name,
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt,
	}
}

// Create handles the comment form on a post page
func (cc *CommentController) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	slug := mux.Vars(r)["slug"]
	_, err := cc.comments.CreateComment(slug, services.CommentInput{
		Name:  r.FormValue("name"),
		Email: r.FormValue("email"),
		Body:  r.FormValue("body"),
	})
	if err != nil {
		http.Error(w, "Failed to add comment: "+err.Error(), http.StatusBadRequest)
		return
	}
	setFlash(w, "Comment added.")
	http.Redirect(w, r, "/posts/"+slug, http.StatusSeeOther)
}

type apiCommentRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Body  string `json:"body"`
}

// APICreate handles POST /api/v1/posts/{slug}/comments
func (cc *CommentController) APICreate(w http.ResponseWriter, r *http.Request) {
	var req apiCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFail(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	comment, err := cc.comments.CreateComment(mux.Vars(r)["slug"], services.CommentInput{
		Name:  req.Name,
		Email: req.Email,
		Body:  req.Body,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusCreated, map[string]interface{}{"comment": newCommentJSON(comment)})
}

// APIList handles GET /api/v1/posts/{id}/comments
func (cc *CommentController) APIList(w http.ResponseWriter, r *http.Request) {
	postID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondFail(w, http.StatusBadRequest, "invalid post ID")
		return
	}

	comments, err := cc.comments.ListComments(postID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := make([]commentJSON, 0, len(comments))
	for _, comment := range comments {
		out = append(out, newCommentJSON(comment))
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"comments": out})
}
