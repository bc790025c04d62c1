package services

import (
	"errors"
	"fmt"
	"time"

	"inkwell/app/metrics"
	"inkwell/app/models"
	"inkwell/app/repositories"
)

// slugRetryLimit caps how many times a create or title change is
// retried after losing a slug race to a concurrent writer.
const slugRetryLimit = 5

// Indexer receives post changes so the search index tracks storage.
// Only published posts are indexed.
type Indexer interface {
	IndexPost(post *models.Post) error
	RemovePost(id int) error
}

// Pagination describes one page of a listing.
type Pagination struct {
	Count      int `json:"count"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

func paginate(page, pageSize, total int) (offset int, p Pagination) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	totalPages := (total + pageSize - 1) / pageSize
	return (page - 1) * pageSize, Pagination{
		Count:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// PostService handles business logic for blog posts
type PostService struct {
	postRepo     repositories.PostRepository
	commentRepo  repositories.CommentRepository
	categoryRepo repositories.CategoryRepository
	index        Indexer
}

// NewPostService creates a new PostService. index may be nil when
// search is disabled.
func NewPostService(postRepo repositories.PostRepository, commentRepo repositories.CommentRepository, categoryRepo repositories.CategoryRepository, index Indexer) *PostService {
	return &PostService{
		postRepo:     postRepo,
		commentRepo:  commentRepo,
		categoryRepo: categoryRepo,
		index:        index,
	}
}

// CreatePostInput carries author-submitted fields for a new post.
type CreatePostInput struct {
	Title      string
	Content    string
	CategoryID int
	Status     models.Status
}

// UpdatePostInput carries the fields of an edit; nil means unchanged.
type UpdatePostInput struct {
	Title      *string
	Content    *string
	CategoryID *int
	Status     *models.Status
}

// CreatePost creates a new post for author, deriving a unique slug and
// applying the requested status transition
func (s *PostService) CreatePost(author *models.User, in CreatePostInput) (*models.Post, error) {
	if author == nil {
		return nil, fmt.Errorf("%w: authentication required", ErrPermission)
	}

	title := SanitizeText(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrValidation)
	}

	status := in.Status
	if status == "" {
		status = models.StatusDraft
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: invalid status %q", ErrValidation, in.Status)
	}

	if in.CategoryID != 0 {
		if _, err := s.categoryRepo.GetByID(in.CategoryID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, fmt.Errorf("%w: category %d not found", ErrValidation, in.CategoryID)
			}
			return nil, err
		}
	}

	post := &models.Post{
		Title:       title,
		Content:     in.Content,
		ContentHTML: RenderContentHTML(in.Content),
		Status:      models.StatusDraft,
		AuthorID:    author.ID,
		CategoryID:  in.CategoryID,
	}
	post.BeforeCreate()

	if err := TransitionStatus(post, status, author); err != nil {
		return nil, err
	}
	if err := post.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	// Slug derivation and insert race against concurrent creates with
	// the same title; the storage constraint is the backstop and we
	// re-derive on collision, up to the retry budget.
	for attempt := 0; attempt < slugRetryLimit; attempt++ {
		slug, err := GenerateUniqueSlug(post.Title, 0, s.postRepo.SlugExists)
		if err != nil {
			return nil, err
		}
		post.Slug = slug

		err = s.postRepo.Create(post)
		if err == nil {
			metrics.PostsCreatedTotal.Inc()
			s.syncIndex(post)
			return post, nil
		}
		if !errors.Is(err, repositories.ErrSlugTaken) {
			return nil, err
		}
		metrics.SlugRetriesTotal.Inc()
	}
	return nil, fmt.Errorf("%w: could not allocate a unique slug for %q", ErrConflict, title)
}

// UpdatePost applies an edit on behalf of actor. The slug is
// regenerated only when the title changed.
func (s *PostService) UpdatePost(actor *models.User, id int, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(post) {
		return nil, fmt.Errorf("%w: only the author or staff may edit this post", ErrPermission)
	}

	titleChanged := false
	if in.Title != nil {
		title := SanitizeText(*in.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title must not be empty", ErrValidation)
		}
		titleChanged = title != post.Title
		post.Title = title
	}
	if in.Content != nil && *in.Content != post.Content {
		post.Content = *in.Content
		post.ContentHTML = RenderContentHTML(post.Content)
	}
	if in.CategoryID != nil {
		if *in.CategoryID != 0 {
			if _, err := s.categoryRepo.GetByID(*in.CategoryID); err != nil {
				if errors.Is(err, ErrNotFound) {
					return nil, fmt.Errorf("%w: category %d not found", ErrValidation, *in.CategoryID)
				}
				return nil, err
			}
		}
		post.CategoryID = *in.CategoryID
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, fmt.Errorf("%w: invalid status %q", ErrValidation, *in.Status)
		}
		if err := TransitionStatus(post, *in.Status, actor); err != nil {
			return nil, err
		}
	}

	post.UpdatedAt = time.Now()
	if err := post.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	for attempt := 0; attempt < slugRetryLimit; attempt++ {
		if titleChanged {
			slug, err := GenerateUniqueSlug(post.Title, post.ID, s.postRepo.SlugExists)
			if err != nil {
				return nil, err
			}
			post.Slug = slug
		}

		err = s.postRepo.Update(post)
		if err == nil {
			s.syncIndex(post)
			return post, nil
		}
		if !titleChanged || !errors.Is(err, repositories.ErrSlugTaken) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: could not allocate a unique slug for %q", ErrConflict, post.Title)
}

// TransitionStatus moves a post between draft and published on behalf
// of actor and persists the result.
func (s *PostService) TransitionStatus(actor *models.User, id int, target models.Status) (*models.Post, error) {
	post, err := s.postRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := TransitionStatus(post, target, actor); err != nil {
		return nil, err
	}
	post.UpdatedAt = time.Now()
	if err := s.postRepo.Update(post); err != nil {
		return nil, err
	}
	s.syncIndex(post)
	return post, nil
}

// DeletePost deletes a post and all its comments
func (s *PostService) DeletePost(actor *models.User, id int) error {
	post, err := s.postRepo.GetByID(id)
	if err != nil {
		return err
	}
	if !actor.CanManage(post) {
		return fmt.Errorf("%w: only the author or staff may delete this post", ErrPermission)
	}

	comments, err := s.commentRepo.ListByPost(id, false)
	if err != nil {
		return fmt.Errorf("failed to get comments: %v", err)
	}
	for _, comment := range comments {
		if err := s.commentRepo.Delete(comment.ID); err != nil {
			return fmt.Errorf("failed to delete comment %d: %v", comment.ID, err)
		}
	}

	if err := s.postRepo.Delete(id); err != nil {
		return err
	}
	if s.index != nil {
		_ = s.index.RemovePost(id)
	}
	return nil
}

// GetPost retrieves a post by ID with its active comments. Drafts are
// visible only to their author and staff.
func (s *PostService) GetPost(id int, viewer *models.User) (*models.Post, error) {
	post, err := s.postRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	return s.withVisibility(post, viewer)
}

// GetPostBySlug retrieves a post by slug with its active comments,
// applying the same draft visibility rules as GetPost.
func (s *PostService) GetPostBySlug(slug string, viewer *models.User) (*models.Post, error) {
	post, err := s.postRepo.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	return s.withVisibility(post, viewer)
}

func (s *PostService) withVisibility(post *models.Post, viewer *models.User) (*models.Post, error) {
	if !post.IsPublished() && !viewer.CanManage(post) {
		return nil, fmt.Errorf("%w: this draft is only visible to its author", ErrPermission)
	}

	comments, err := s.commentRepo.ListByPost(post.ID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %v", err)
	}
	post.Comments = comments
	return post, nil
}

// ListPublished retrieves a page of published posts, newest first
func (s *PostService) ListPublished(page, pageSize int) ([]*models.Post, Pagination, error) {
	return s.list(repositories.PostFilter{Status: models.StatusPublished}, page, pageSize)
}

// ListByCategory retrieves a page of published posts in a category
func (s *PostService) ListByCategory(categoryID, page, pageSize int) ([]*models.Post, Pagination, error) {
	return s.list(repositories.PostFilter{Status: models.StatusPublished, CategoryID: categoryID}, page, pageSize)
}

// ListDrafts retrieves the author's drafts, newest first
func (s *PostService) ListDrafts(author *models.User) ([]*models.Post, error) {
	if author == nil {
		return nil, fmt.Errorf("%w: authentication required", ErrPermission)
	}
	posts, _, err := s.postRepo.List(repositories.PostFilter{
		Status:   models.StatusDraft,
		AuthorID: author.ID,
	}, 0, 0)
	return posts, err
}

// ListByAuthor retrieves an author's posts with an optional status filter
func (s *PostService) ListByAuthor(authorID int, status models.Status, page, pageSize int) ([]*models.Post, Pagination, error) {
	return s.list(repositories.PostFilter{Status: status, AuthorID: authorID}, page, pageSize)
}

// ListForViewer retrieves the posts visible to viewer: published posts
// for everyone, plus the viewer's own drafts when authenticated.
func (s *PostService) ListForViewer(viewer *models.User, page, pageSize int) ([]*models.Post, Pagination, error) {
	if viewer == nil {
		return s.ListPublished(page, pageSize)
	}

	all, _, err := s.postRepo.List(repositories.PostFilter{}, 0, 0)
	if err != nil {
		return nil, Pagination{}, err
	}
	visible := all[:0]
	for _, post := range all {
		if post.IsPublished() || viewer.CanManage(post) {
			visible = append(visible, post)
		}
	}

	offset, p := paginate(page, pageSize, len(visible))
	if offset >= len(visible) {
		return []*models.Post{}, p, nil
	}
	end := offset + p.PageSize
	if end > len(visible) {
		end = len(visible)
	}
	return visible[offset:end], p, nil
}

func (s *PostService) list(filter repositories.PostFilter, page, pageSize int) ([]*models.Post, Pagination, error) {
	offset, p := paginate(page, pageSize, 0)
	posts, total, err := s.postRepo.List(filter, p.PageSize, offset)
	if err != nil {
		return nil, Pagination{}, err
	}
	_, p = paginate(page, pageSize, total)
	return posts, p, nil
}

// DetachCategory clears the category reference on every post in the
// given category; used when a category is deleted.
func (s *PostService) DetachCategory(categoryID int) error {
	posts, _, err := s.postRepo.List(repositories.PostFilter{CategoryID: categoryID}, 0, 0)
	if err != nil {
		return err
	}
	for _, post := range posts {
		post.CategoryID = 0
		if err := s.postRepo.Update(post); err != nil {
			return fmt.Errorf("failed to detach post %d: %v", post.ID, err)
		}
	}
	return nil
}

func (s *PostService) syncIndex(post *models.Post) {
	if s.index == nil {
		return
	}
	if post.IsPublished() {
		_ = s.index.IndexPost(post)
	} else {
		_ = s.index.RemovePost(post.ID)
	}
}

// AuthorLabel anonymizes an author for public listings.
func AuthorLabel(authorID int) string {
	return fmt.Sprintf("Author%d", authorID)
}
