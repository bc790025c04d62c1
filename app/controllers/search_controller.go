package controllers

import (
	"html/template"
	"net/http"

	"inkwell/app/metrics"
	"inkwell/app/search"
)

// SearchController handles full text search over published posts
type SearchController struct {
	index     *search.Index
	templates map[string]*template.Template
}

// NewSearchController creates a new SearchController
func NewSearchController(index *search.Index) *SearchController {
	return &SearchController{index: index, templates: loadTemplates()}
}

type searchResultItem struct {
	Title    string
	Slug     string
	Author   string
	Snippets []template.HTML
}

// Show renders the search page
func (sc *SearchController) Show(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	var (
		items []searchResultItem
		total int
	)
	if query != "" {
		page, pageSize := pageParams(r)
		results, n, err := sc.index.Search(query, pageSize, (page-1)*pageSize)
		if err != nil {
			http.Error(w, "Search failed: "+err.Error(), http.StatusInternalServerError)
			return
		}
		metrics.SearchQueriesTotal.Inc()
		total = n
		for _, result := range results {
			item := searchResultItem{Title: result.Title, Slug: result.Slug, Author: result.Author}
			// Bleve escapes the fragment text, so the only markup is
			// its own <mark> highlighting.
			for _, snippet := range result.Snippets {
				item.Snippets = append(item.Snippets, template.HTML(snippet))
			}
			items = append(items, item)
		}
	}

	data := struct {
		basePage
		Query   string
		Total   int
		Results []searchResultItem
	}{
		basePage: newBasePage(w, r),
		Query:    query,
		Total:    total,
		Results:  items,
	}
	renderHTML(w, sc.templates, "search", data)
}

// APISearch handles GET /api/v1/search?q=
func (sc *SearchController) APISearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondFail(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	page, pageSize := pageParams(r)
	results, total, err := sc.index.Search(query, pageSize, (page-1)*pageSize)
	if err != nil {
		respondError(w, err)
		return
	}
	metrics.SearchQueriesTotal.Inc()

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"total":   total,
		"results": results,
	})
}
