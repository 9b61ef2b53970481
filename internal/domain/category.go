package domain

import "github.com/google/uuid"

// Category is a node in the expense category tree. Archived categories
// (is_active=false) are hidden from default listings and cannot be used as a
// parent or on new expense writes, but existing references stay valid.
type Category struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
	IsActive bool       `json:"is_active"`
}

// CategoryRepository defines the interface for category persistence operations
type CategoryRepository interface {
	Create(category *Category) (*Category, error)
	GetByID(id uuid.UUID) (*Category, error)
	GetByName(name string) (*Category, error)
	List(activeOnly bool) ([]*Category, error)
	Update(category *Category) (*Category, error)
	SetActive(id uuid.UUID, active bool) (*Category, error)
}
