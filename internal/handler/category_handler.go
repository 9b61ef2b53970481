package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shurale/expense-backend/internal/domain"
	"github.com/shurale/expense-backend/internal/middleware"
	"github.com/shurale/expense-backend/internal/service"
)

// CategoryHandler handles category HTTP requests
type CategoryHandler struct {
	categoryService *service.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// CreateCategoryRequest represents the create category request body
type CreateCategoryRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"`
}

// UpdateCategoryRequest represents the update category request body
type UpdateCategoryRequest struct {
	Name     *string `json:"name,omitempty"`
	ParentID *string `json:"parent_id,omitempty"`
}

// ListCategories returns categories, roots before children. Archived
// categories are hidden unless active_only=false is passed.
func (h *CategoryHandler) ListCategories(c echo.Context) error {
	activeOnly := c.QueryParam("active_only") != "false"

	categories, err := h.categoryService.ListCategories(activeOnly)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list categories")
		return NewInternalError(c, "Failed to list categories")
	}

	return c.JSON(http.StatusOK, categories)
}

// CreateCategory creates a new category. Admin only.
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	var req CreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	parentID, err := parseOptionalUUID(req.ParentID)
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "parent_id", Message: "Must be a valid UUID"},
		})
	}

	category, err := h.categoryService.CreateCategory(middleware.GetActor(c), service.CreateCategoryInput{
		Name:     req.Name,
		ParentID: parentID,
	})
	if err != nil {
		return categoryErrorResponse(c, err, "Failed to create category")
	}

	log.Info().Str("category_id", category.ID.String()).Str("name", category.Name).Msg("Category created")

	return c.JSON(http.StatusCreated, category)
}

// UpdateCategory applies a partial update to a category. Admin only.
func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	var req UpdateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	parentID, err := parseOptionalUUID(req.ParentID)
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "parent_id", Message: "Must be a valid UUID"},
		})
	}

	category, err := h.categoryService.UpdateCategory(middleware.GetActor(c), id, service.UpdateCategoryInput{
		Name:     req.Name,
		ParentID: parentID,
	})
	if err != nil {
		return categoryErrorResponse(c, err, "Failed to update category")
	}

	return c.JSON(http.StatusOK, category)
}

// ArchiveCategory hides a category from default listings. Admin only.
func (h *CategoryHandler) ArchiveCategory(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	category, err := h.categoryService.ArchiveCategory(middleware.GetActor(c), id)
	if err != nil {
		return categoryErrorResponse(c, err, "Failed to archive category")
	}

	log.Info().Str("category_id", id.String()).Msg("Category archived")

	return c.JSON(http.StatusOK, category)
}

// RestoreCategory returns an archived category to active. Admin only.
func (h *CategoryHandler) RestoreCategory(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	category, err := h.categoryService.RestoreCategory(middleware.GetActor(c), id)
	if err != nil {
		return categoryErrorResponse(c, err, "Failed to restore category")
	}

	log.Info().Str("category_id", id.String()).Msg("Category restored")

	return c.JSON(http.StatusOK, category)
}

func categoryErrorResponse(c echo.Context, err error, internalDetail string) error {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		return NewForbiddenError(c, "Admin role required")
	case errors.Is(err, domain.ErrNameRequired):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name is required"},
		})
	case errors.Is(err, domain.ErrNameTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "name", Message: "Name must be 120 characters or less"},
		})
	case errors.Is(err, domain.ErrCategoryNameTaken):
		return NewConflictError(c, "A category with this name already exists")
	case errors.Is(err, domain.ErrParentCategoryNotFound):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "parent_id", Message: "Parent category not found"},
		})
	case errors.Is(err, domain.ErrCategoryArchived):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "parent_id", Message: "Parent category is archived"},
		})
	case errors.Is(err, domain.ErrSelfParent):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "parent_id", Message: "A category cannot be its own parent"},
		})
	case errors.Is(err, domain.ErrCategoryNotFound):
		return NewNotFoundError(c, "Category not found")
	}
	log.Error().Err(err).Msg(internalDetail)
	return NewInternalError(c, internalDetail)
}

func parseOptionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
