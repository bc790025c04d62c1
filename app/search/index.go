package search

import (
	"fmt"
	"strconv"
	"time"

	"inkwell/app/models"
	"inkwell/app/repositories"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Index wraps a Bleve full-text index over published posts.
type Index struct {
	index bleve.Index
}

// IndexedPost is the document shape stored in the index.
type IndexedPost struct {
	ID        string
	Title     string
	Content   string
	Slug      string
	Author    string
	Published time.Time
}

// Result is one search hit. Snippets hold highlighted HTML fragments
// from the matched fields, body text first.
type Result struct {
	ID       int      `json:"id"`
	Title    string   `json:"title"`
	Slug     string   `json:"slug"`
	Author   string   `json:"author"`
	Score    float64  `json:"score"`
	Snippets []string `json:"snippets"`
}

// Open opens or creates the index at path. Pass an empty path for an
// in-memory index (tests).
func Open(path string) (*Index, error) {
	if path == "" {
		idx, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		return &Index{index: idx}, nil
	}

	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	return &Index{index: idx}, nil
}

// buildIndexMapping maps post fields; titles use the English analyzer
// for stemming.
func buildIndexMapping() mapping.IndexMapping {
	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = "en"

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("Title", titleFieldMapping)
	docMapping.AddFieldMappingsAt("Content", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("Slug", bleve.NewTextFieldMapping())
	docMapping.AddFieldMappingsAt("Author", bleve.NewTextFieldMapping())

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}

// Close closes the index
func (i *Index) Close() error {
	return i.index.Close()
}

// IndexPost adds or updates a post in the index
func (i *Index) IndexPost(post *models.Post) error {
	doc := &IndexedPost{
		ID:        strconv.Itoa(post.ID),
		Title:     post.Title,
		Content:   post.Content,
		Slug:      post.Slug,
		Author:    fmt.Sprintf("Author%d", post.AuthorID),
		Published: post.Publish,
	}
	return i.index.Index(doc.ID, doc)
}

// RemovePost removes a post from the index
func (i *Index) RemovePost(id int) error {
	return i.index.Delete(strconv.Itoa(id))
}

// Search runs a query string query (quotes, boolean operators and
// fuzzy ~ supported) and returns one page of hits with HTML-highlighted
// fragments, plus the total hit count.
func (i *Index) Search(queryStr string, limit, offset int) ([]*Result, int, error) {
	query := bleve.NewQueryStringQuery(queryStr)

	req := bleve.NewSearchRequestOptions(query, limit, offset, false)
	req.Highlight = bleve.NewHighlightWithStyle("html")
	req.Fields = []string{"Title", "Slug", "Author"}

	res, err := i.index.Search(req)
	if err != nil {
		return nil, 0, fmt.Errorf("search: %w", err)
	}

	var results []*Result
	for _, hit := range res.Hits {
		id, err := strconv.Atoi(hit.ID)
		if err != nil {
			continue
		}
		result := &Result{
			ID:       id,
			Score:    hit.Score,
			Snippets: append(hit.Fragments["Content"], hit.Fragments["Title"]...),
		}
		if title, ok := hit.Fields["Title"].(string); ok {
			result.Title = title
		}
		if slug, ok := hit.Fields["Slug"].(string); ok {
			result.Slug = slug
		}
		if author, ok := hit.Fields["Author"].(string); ok {
			result.Author = author
		}
		results = append(results, result)
	}

	return results, int(res.Total), nil
}

// Rebuild reindexes every published post from storage in one batch.
func (i *Index) Rebuild(postRepo repositories.PostRepository) error {
	posts, _, err := postRepo.List(repositories.PostFilter{Status: models.StatusPublished}, 0, 0)
	if err != nil {
		return fmt.Errorf("list posts: %w", err)
	}

	batch := i.index.NewBatch()
	for _, post := range posts {
		doc := &IndexedPost{
			ID:        strconv.Itoa(post.ID),
			Title:     post.Title,
			Content:   post.Content,
			Slug:      post.Slug,
			Author:    fmt.Sprintf("Author%d", post.AuthorID),
			Published: post.Publish,
		}
		if err := batch.Index(doc.ID, doc); err != nil {
			return fmt.Errorf("batch index %s: %w", doc.ID, err)
		}
	}

	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Count returns the number of indexed posts
func (i *Index) Count() (uint64, error) {
	return i.index.DocCount()
}
