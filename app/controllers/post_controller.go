package controllers

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"inkwell/app/middleware"
	"inkwell/app/models"
	"inkwell/app/services"

	"github.com/gorilla/mux"
)

// PostController handles web and API requests for blog posts
type PostController struct {
	posts      *services.PostService
	categories *services.CategoryService
	templates  map[string]*template.Template
}

// NewPostController creates a new PostController
func NewPostController(posts *services.PostService, categories *services.CategoryService) *PostController {
	return &PostController{
		posts:      posts,
		categories: categories,
		templates:  loadTemplates(),
	}
}

// postJSON is the API representation of a post. The author appears as
// an anonymized label, never as account details.
type postJSON struct {
	ID          int           `json:"id"`
	Title       string        `json:"title"`
	Slug        string        `json:"slug"`
	AuthorName  string        `json:"author_name"`
	CategoryID  int           `json:"category_id,omitempty"`
	Status      models.Status `json:"status"`
	Publish     *time.Time    `json:"publish,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	Content     string        `json:"content,omitempty"`
	ContentHTML string        `json:"content_html,omitempty"`
}

func newPostJSON(post *models.Post, detail bool) postJSON {
	out := postJSON{
		ID:         post.ID,
		Title:      post.Title,
		Slug:       post.Slug,
		AuthorName: services.AuthorLabel(post.AuthorID),
		CategoryID: post.CategoryID,
		Status:     post.Status,
		CreatedAt:  post.CreatedAt,
		UpdatedAt:  post.UpdatedAt,
	}
	if !post.Publish.IsZero() {
		publish := post.Publish
		out.Publish = &publish
	}
	if detail {
		out.Content = post.Content
		out.ContentHTML = post.ContentHTML
	}
	return out
}

func postListJSON(posts []*models.Post) []postJSON {
	out := make([]postJSON, 0, len(posts))
	for _, post := range posts {
		out = append(out, newPostJSON(post, false))
	}
	return out
}

// --- Web handlers ---

type postListItem struct {
	*models.Post
	AuthorName string
}

// Index renders the published post list
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	posts, pagination, err := pc.posts.ListPublished(page, pageSize)
	if err != nil {
		http.Error(w, "Failed to fetch posts: "+err.Error(), http.StatusInternalServerError)
		return
	}

	items := make([]postListItem, 0, len(posts))
	for _, post := range posts {
		items = append(items, postListItem{Post: post, AuthorName: services.AuthorLabel(post.AuthorID)})
	}

	data := struct {
		basePage
		Posts      []postListItem
		Pagination services.Pagination
		PrevPage   int
		NextPage   int
	}{
		basePage:   newBasePage(w, r),
		Posts:      items,
		Pagination: pagination,
		PrevPage:   pagination.Page - 1,
		NextPage:   pagination.Page + 1,
	}
	renderHTML(w, pc.templates, "posts/index", data)
}

// Show renders a single post by slug with its comments
func (pc *PostController) Show(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.CurrentUser(r)
	post, err := pc.posts.GetPostBySlug(mux.Vars(r)["slug"], viewer)
	if err != nil {
		// Hide drafts from outsiders the same way as missing posts.
		http.NotFound(w, r)
		return
	}

	data := struct {
		basePage
		Post        *models.Post
		AuthorName  string
		ContentHTML template.HTML
		Comments    []*models.Comment
		CanManage   bool
	}{
		basePage:    newBasePage(w, r),
		Post:        post,
		AuthorName:  services.AuthorLabel(post.AuthorID),
		ContentHTML: template.HTML(post.ContentHTML),
		Comments:    post.Comments,
		CanManage:   viewer.CanManage(post),
	}
	renderHTML(w, pc.templates, "posts/show", data)
}

// New renders the form for creating a post
func (pc *PostController) New(w http.ResponseWriter, r *http.Request) {
	data := struct {
		basePage
		Heading, Action, Title, Category, Content string
	}{
		basePage: newBasePage(w, r),
		Heading:  "New post",
		Action:   "/posts/new",
	}
	renderHTML(w, pc.templates, "posts/form", data)
}

// Create handles the new-post form submission
func (pc *PostController) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	author := middleware.CurrentUser(r)
	in := services.CreatePostInput{
		Title:   r.FormValue("title"),
		Content: r.FormValue("content"),
		Status:  statusForAction(r.FormValue("action"), models.StatusDraft),
	}

	if name := r.FormValue("category"); name != "" {
		category, err := pc.categories.GetOrCreate(name)
		if err != nil {
			http.Error(w, "Invalid category: "+err.Error(), http.StatusBadRequest)
			return
		}
		in.CategoryID = category.ID
	}

	post, err := pc.posts.CreatePost(author, in)
	if err != nil {
		http.Error(w, "Failed to create post: "+err.Error(), http.StatusBadRequest)
		return
	}

	if post.IsPublished() {
		setFlash(w, "Post published.")
		http.Redirect(w, r, "/posts/"+post.Slug, http.StatusSeeOther)
	} else {
		setFlash(w, "Draft saved.")
		http.Redirect(w, r, "/drafts", http.StatusSeeOther)
	}
}

// EditForm renders the edit form for an existing post
func (pc *PostController) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return
	}

	viewer := middleware.CurrentUser(r)
	post, err := pc.posts.GetPost(id, viewer)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if !viewer.CanManage(post) {
		http.Error(w, "You may not edit this post", http.StatusForbidden)
		return
	}

	var categoryName string
	if post.CategoryID != 0 {
		if categories, err := pc.categories.List(); err == nil {
			for _, c := range categories {
				if c.ID == post.CategoryID {
					categoryName = c.Name
					break
				}
			}
		}
	}

	data := struct {
		basePage
		Heading, Action, Title, Category, Content string
	}{
		basePage: newBasePage(w, r),
		Heading:  "Edit post",
		Action:   fmt.Sprintf("/posts/%d/edit", post.ID),
		Title:    post.Title,
		Category: categoryName,
		Content:  post.Content,
	}
	renderHTML(w, pc.templates, "posts/form", data)
}

// Update handles the edit form submission. The "action" button decides
// the status: publish, draft, or save (keep current status).
func (pc *PostController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	title := r.FormValue("title")
	content := r.FormValue("content")
	in := services.UpdatePostInput{Title: &title, Content: &content}

	if name := r.FormValue("category"); name != "" {
		category, err := pc.categories.GetOrCreate(name)
		if err != nil {
			http.Error(w, "Invalid category: "+err.Error(), http.StatusBadRequest)
			return
		}
		in.CategoryID = &category.ID
	} else {
		none := 0
		in.CategoryID = &none
	}

	switch r.FormValue("action") {
	case "publish":
		status := models.StatusPublished
		in.Status = &status
	case "draft":
		status := models.StatusDraft
		in.Status = &status
	}

	post, err := pc.posts.UpdatePost(middleware.CurrentUser(r), id, in)
	if err != nil {
		http.Error(w, "Failed to update post: "+err.Error(), http.StatusBadRequest)
		return
	}

	if post.IsPublished() {
		setFlash(w, "Post published.")
		http.Redirect(w, r, "/posts/"+post.Slug, http.StatusSeeOther)
	} else {
		setFlash(w, "Draft saved.")
		http.Redirect(w, r, fmt.Sprintf("/posts/%d/edit", post.ID), http.StatusSeeOther)
	}
}

// Delete handles the delete form submission
func (pc *PostController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return
	}

	if err := pc.posts.DeletePost(middleware.CurrentUser(r), id); err != nil {
		http.Error(w, "Failed to delete post: "+err.Error(), http.StatusForbidden)
		return
	}
	setFlash(w, "Post deleted.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Drafts renders the author's draft list
func (pc *PostController) Drafts(w http.ResponseWriter, r *http.Request) {
	posts, err := pc.posts.ListDrafts(middleware.CurrentUser(r))
	if err != nil {
		http.Error(w, "Failed to fetch drafts: "+err.Error(), http.StatusInternalServerError)
		return
	}

	data := struct {
		basePage
		Posts []*models.Post
	}{
		basePage: newBasePage(w, r),
		Posts:    posts,
	}
	renderHTML(w, pc.templates, "posts/drafts", data)
}

// --- API handlers ---

// APIList handles GET /api/v1/posts
func (pc *PostController) APIList(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pageParams(r)
	viewer := middleware.CurrentUser(r)

	var (
		posts      []*models.Post
		pagination services.Pagination
		err        error
	)
	if authorStr := r.URL.Query().Get("author"); authorStr != "" {
		authorID, aerr := strconv.Atoi(authorStr)
		if aerr != nil {
			respondFail(w, http.StatusBadRequest, "invalid author filter")
			return
		}
		status := models.Status(r.URL.Query().Get("status"))
		if status != "" && !status.Valid() {
			respondFail(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		// Drafts are only listable by their owner (or staff).
		if status != models.StatusPublished && (viewer == nil || (!viewer.Staff && viewer.ID != authorID)) {
			status = models.StatusPublished
		}
		posts, pagination, err = pc.posts.ListByAuthor(authorID, status, page, pageSize)
	} else {
		posts, pagination, err = pc.posts.ListForViewer(viewer, page, pageSize)
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"posts":      postListJSON(posts),
		"pagination": pagination,
	})
}

// APIGet handles GET /api/v1/posts/{id}
func (pc *PostController) APIGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondFail(w, http.StatusBadRequest, "invalid post ID")
		return
	}

	post, err := pc.posts.GetPost(id, middleware.CurrentUser(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"post": newPostJSON(post, true)})
}

type apiCreatePostRequest struct {
	Title      string        `json:"title"`
	Content    string        `json:"content"`
	CategoryID int           `json:"category_id"`
	Status     models.Status `json:"status"`
}

// APICreate handles POST /api/v1/posts
func (pc *PostController) APICreate(w http.ResponseWriter, r *http.Request) {
	var req apiCreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFail(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	post, err := pc.posts.CreatePost(middleware.CurrentUser(r), services.CreatePostInput{
		Title:      req.Title,
		Content:    req.Content,
		CategoryID: req.CategoryID,
		Status:     req.Status,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusCreated, map[string]interface{}{"post": newPostJSON(post, true)})
}

type apiUpdatePostRequest struct {
	Title      *string        `json:"title"`
	Content    *string        `json:"content"`
	CategoryID *int           `json:"category_id"`
	Status     *models.Status `json:"status"`
}

// APIUpdate handles PUT/PATCH /api/v1/posts/{id}
func (pc *PostController) APIUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondFail(w, http.StatusBadRequest, "invalid post ID")
		return
	}

	var req apiUpdatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFail(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	post, err := pc.posts.UpdatePost(middleware.CurrentUser(r), id, services.UpdatePostInput{
		Title:      req.Title,
		Content:    req.Content,
		CategoryID: req.CategoryID,
		Status:     req.Status,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"post": newPostJSON(post, true)})
}

type apiStatusRequest struct {
	Status models.Status `json:"status"`
}

// APITransition handles PUT /api/v1/posts/{id}/status
func (pc *PostController) APITransition(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondFail(w, http.StatusBadRequest, "invalid post ID")
		return
	}

	var req apiStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFail(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if !req.Status.Valid() {
		respondFail(w, http.StatusBadRequest, "status must be draft or published")
		return
	}

	post, err := pc.posts.TransitionStatus(middleware.CurrentUser(r), id, req.Status)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"post": newPostJSON(post, true)})
}

// APIDelete handles DELETE /api/v1/posts/{id}
func (pc *PostController) APIDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondFail(w, http.StatusBadRequest, "invalid post ID")
		return
	}

	if err := pc.posts.DeletePost(middleware.CurrentUser(r), id); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- helpers ---

func pageParams(r *http.Request) (page, pageSize int) {
	page = 1
	if s := r.URL.Query().Get("page"); s != "" {
		if p, err := strconv.Atoi(s); err == nil && p > 0 {
			page = p
		}
	}
	pageSize = services.DefaultPageSize
	if s := r.URL.Query().Get("pageSize"); s != "" {
		if ps, err := strconv.Atoi(s); err == nil && ps > 0 {
			pageSize = ps
		}
	}
	return page, pageSize
}

// statusForAction maps a form button to a target status; "save" keeps
// the fallback.
func statusForAction(action string, fallback models.Status) models.Status {
	switch action {
	case "publish":
		return models.StatusPublished
	case "draft":
		return models.StatusDraft
	default:
		return fallback
	}
}
