package services

import (
	"errors"
	"fmt"

	"inkwell/app/models"
	"inkwell/app/repositories"
)

// CategoryService handles business logic for categories
type CategoryService struct {
	categoryRepo repositories.CategoryRepository
	posts        *PostService
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo repositories.CategoryRepository, posts *PostService) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		posts:        posts,
	}
}

// GetOrCreate returns the category with the given name, creating it if
// missing. New categories get a slug derived from the name, with the
// same collision handling as posts.
func (s *CategoryService) GetOrCreate(name string) (*models.Category, error) {
	name = SanitizeText(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name must not be empty", ErrValidation)
	}

	category, err := s.categoryRepo.GetByName(name)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	category = &models.Category{Name: name}
	category.BeforeCreate()
	if err := category.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	for attempt := 0; attempt < slugRetryLimit; attempt++ {
		slug, err := generateUniqueSlug(name, "category", 0, s.categoryRepo.SlugExists)
		if err != nil {
			return nil, err
		}
		category.Slug = slug

		err = s.categoryRepo.Create(category)
		if err == nil {
			return category, nil
		}
		if !errors.Is(err, repositories.ErrSlugTaken) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: could not allocate a unique slug for category %q", ErrConflict, name)
}

// List retrieves all categories ordered by name
func (s *CategoryService) List() ([]*models.Category, error) {
	return s.categoryRepo.List()
}

// GetBySlug retrieves a category by slug
func (s *CategoryService) GetBySlug(slug string) (*models.Category, error) {
	return s.categoryRepo.GetBySlug(slug)
}

// Rename changes a category's name. The slug is left untouched so
// existing URLs keep working.
func (s *CategoryService) Rename(id int, name string) (*models.Category, error) {
	name = SanitizeText(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name must not be empty", ErrValidation)
	}

	category, err := s.categoryRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	category.Name = name
	category.BeforeCreate() // refresh UpdatedAt
	if err := s.categoryRepo.Update(category); err != nil {
		return nil, err
	}
	return category, nil
}

// Delete removes a category; posts referencing it are detached, not
// deleted.
func (s *CategoryService) Delete(id int) error {
	if err := s.posts.DetachCategory(id); err != nil {
		return err
	}
	err := s.categoryRepo.Delete(id)
	if errors.Is(err, ErrNotFound) {
		// Already gone; deletion is idempotent.
		return nil
	}
	return err
}
