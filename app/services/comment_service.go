package services

import (
	"fmt"

	"inkwell/app/metrics"
	"inkwell/app/models"
	"inkwell/app/repositories"
)

// CommentService handles business logic for comments. Comments are
// append-only: visitors can create them against published posts, and
// nothing in this service mutates or deletes them.
type CommentService struct {
	commentRepo repositories.CommentRepository
	postRepo    repositories.PostRepository
}

// NewCommentService creates a new CommentService
func NewCommentService(commentRepo repositories.CommentRepository, postRepo repositories.PostRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
	}
}

// CommentInput carries visitor-submitted comment fields.
type CommentInput struct {
	Name  string
	Email string
	Body  string
}

// CreateComment adds a comment to the post identified by slug. The
// post must exist and be published.
func (s *CommentService) CreateComment(slug string, in CommentInput) (*models.Comment, error) {
	post, err := s.postRepo.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if !post.IsPublished() {
		return nil, fmt.Errorf("%w: comments are only accepted on published posts", ErrValidation)
	}

	comment := &models.Comment{
		PostID: post.ID,
		Name:   SanitizeText(in.Name),
		Email:  SanitizeText(in.Email),
		Body:   SanitizeText(in.Body),
	}
	comment.BeforeCreate()
	if err := comment.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if err := s.commentRepo.Create(comment); err != nil {
		return nil, err
	}
	metrics.CommentsCreatedTotal.Inc()
	return comment, nil
}

// ListComments retrieves a post's active comments, oldest first
func (s *CommentService) ListComments(postID int) ([]*models.Comment, error) {
	if _, err := s.postRepo.GetByID(postID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByPost(postID, true)
}
