package service

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shurale/expense-backend/internal/domain"
)

// CategoryService handles category business logic
type CategoryService struct {
	categoryRepo domain.CategoryRepository
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo domain.CategoryRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo}
}

// ListCategories returns categories ordered root-first, then by name.
// activeOnly filters out archived categories.
func (s *CategoryService) ListCategories(activeOnly bool) ([]*domain.Category, error) {
	return s.categoryRepo.List(activeOnly)
}

// CreateCategoryInput holds the input for creating a category
type CreateCategoryInput struct {
	Name     string
	ParentID *uuid.UUID
}

// CreateCategory creates a new active category. Admin only.
func (s *CategoryService) CreateCategory(actor domain.Actor, input CreateCategoryInput) (*domain.Category, error) {
	if !actor.Role.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	name, err := validateCategoryName(input.Name)
	if err != nil {
		return nil, err
	}

	if input.ParentID != nil {
		parent, err := s.categoryRepo.GetByID(*input.ParentID)
		if err != nil {
			if errors.Is(err, domain.ErrCategoryNotFound) {
				return nil, domain.ErrParentCategoryNotFound
			}
			return nil, err
		}
		if !parent.IsActive {
			return nil, domain.ErrCategoryArchived
		}
	}

	if _, err := s.categoryRepo.GetByName(name); err == nil {
		return nil, domain.ErrCategoryNameTaken
	} else if !errors.Is(err, domain.ErrCategoryNotFound) {
		return nil, err
	}

	return s.categoryRepo.Create(&domain.Category{
		ID:       uuid.New(),
		Name:     name,
		ParentID: input.ParentID,
		IsActive: true,
	})
}

// UpdateCategoryInput holds a partial category update; nil fields are unchanged
type UpdateCategoryInput struct {
	Name     *string
	ParentID *uuid.UUID
}

// UpdateCategory applies a partial update to a category. Admin only.
func (s *CategoryService) UpdateCategory(actor domain.Actor, id uuid.UUID, input UpdateCategoryInput) (*domain.Category, error) {
	if !actor.Role.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	category, err := s.categoryRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name, err := validateCategoryName(*input.Name)
		if err != nil {
			return nil, err
		}
		existing, err := s.categoryRepo.GetByName(name)
		if err == nil && existing.ID != id {
			return nil, domain.ErrCategoryNameTaken
		}
		if err != nil && !errors.Is(err, domain.ErrCategoryNotFound) {
			return nil, err
		}
		category.Name = name
	}

	if input.ParentID != nil {
		if *input.ParentID == id {
			return nil, domain.ErrSelfParent
		}
		parent, err := s.categoryRepo.GetByID(*input.ParentID)
		if err != nil {
			if errors.Is(err, domain.ErrCategoryNotFound) {
				return nil, domain.ErrParentCategoryNotFound
			}
			return nil, err
		}
		if !parent.IsActive {
			return nil, domain.ErrCategoryArchived
		}
		category.ParentID = input.ParentID
	}

	return s.categoryRepo.Update(category)
}

// ArchiveCategory hides a category from default listings and blocks new
// references to it. Always writes, even if already archived. Admin only.
func (s *CategoryService) ArchiveCategory(actor domain.Actor, id uuid.UUID) (*domain.Category, error) {
	if !actor.Role.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return s.categoryRepo.SetActive(id, false)
}

// RestoreCategory returns an archived category to active. Admin only.
func (s *CategoryService) RestoreCategory(actor domain.Actor, id uuid.UUID) (*domain.Category, error) {
	if !actor.Role.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return s.categoryRepo.SetActive(id, true)
}

func validateCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ErrNameRequired
	}
	if utf8.RuneCountInString(name) > domain.MaxCategoryNameLength {
		return "", domain.ErrNameTooLong
	}
	return name, nil
}
