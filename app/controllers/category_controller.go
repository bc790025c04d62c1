package controllers

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"

	"inkwell/app/middleware"
	"inkwell/app/models"
	"inkwell/app/services"

	"github.com/gorilla/mux"
)

// CategoryController handles category browsing and management
type CategoryController struct {
	categories *services.CategoryService
	posts      *services.PostService
	templates  map[string]*template.Template
}

// NewCategoryController creates a new CategoryController
func NewCategoryController(categories *services.CategoryService, posts *services.PostService) *CategoryController {
	return &CategoryController{
		categories: categories,
		posts:      posts,
		templates:  loadTemplates(),
	}
}

type categoryJSON struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func newCategoryJSON(category *models.Category) categoryJSON {
	return categoryJSON{ID: category.ID, Name: category.Name, Slug: category.Slug}
}

// Show renders the published posts filed under a category
func (cc *CategoryController) Show(w http.ResponseWriter, r *http.Request) {
	category, err := cc.categories.GetBySlug(mux.Vars(r)["slug"])
	if err != nil {
		http.NotFound(w, r)
		return
	}

	page, pageSize := pageParams(r)
	posts, pagination, err := cc.posts.ListByCategory(category.ID, page, pageSize)
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
	renderHTML(w, cc.templates, "posts/index", data)
}

// APIList handles GET /api/v1/categories
func (cc *CategoryController) APIList(w http.ResponseWriter, r *http.Request) {
	categories, err := cc.categories.List()
	if err != nil {
		respondServiceError(w, err)
		return
	}

	out := make([]categoryJSON, 0, len(categories))
	for _, category := range categories {
		out = append(out, newCategoryJSON(category))
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"categories": out})
}

// APIListPosts handles GET /api/v1/categories/{slug}/posts
func (cc *CategoryController) APIListPosts(w http.ResponseWriter, r *http.Request) {
	category, err := cc.categories.GetBySlug(mux.Vars(r)["slug"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	page, pageSize := pageParams(r)
	posts, pagination, err := cc.posts.ListByCategory(category.ID, page, pageSize)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"category":   newCategoryJSON(category),
		"posts":      postListJSON(posts),
		"pagination": pagination,
	})
}

type apiCategoryRequest struct {
	Name string `json:"name"`
}

// APICreate handles POST /api/v1/categories. Creating is idempotent on
// the category name.
func (cc *CategoryController) APICreate(w http.ResponseWriter, r *http.Request) {
	if !requireStaff(w, r) {
		return
	}

	var req apiCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFail(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	category, err := cc.categories.GetOrCreate(req.Name)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusCreated, map[string]interface{}{"category": newCategoryJSON(category)})
}

// APIRename handles PUT /api/v1/categories/{id}. The slug stays stable
// so existing links keep working.
func (cc *CategoryController) APIRename(w http.ResponseWriter, r *http.Request) {
	if !requireStaff(w, r) {
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondFail(w, http.StatusBadRequest, "invalid category ID")
		return
	}

	var req apiCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFail(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	category, err := cc.categories.Rename(id, req.Name)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{"category": newCategoryJSON(category)})
}

// APIDelete handles DELETE /api/v1/categories/{id}. Posts in the
// category are kept and detached, not deleted.
func (cc *CategoryController) APIDelete(w http.ResponseWriter, r *http.Request) {
	if !requireStaff(w, r) {
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondFail(w, http.StatusBadRequest, "invalid category ID")
		return
	}

	if err := cc.categories.Delete(id); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func requireStaff(w http.ResponseWriter, r *http.Request) bool {
	user := middleware.CurrentUser(r)
	if user == nil || !user.Staff {
		respondFail(w, http.StatusForbidden, "staff access required")
		return false
	}
	return true
}
