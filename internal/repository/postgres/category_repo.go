package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shurale/expense-backend/internal/domain"
)

// CategoryRepository implements domain.CategoryRepository using PostgreSQL
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// Create inserts a new category
func (r *CategoryRepository) Create(category *domain.Category) (*domain.Category, error) {
	ctx := context.Background()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO categories (id, name, parent_id, is_active) VALUES ($1, $2, $3, $4)`,
		category.ID, category.Name, category.ParentID, category.IsActive,
	)
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, domain.ErrCategoryNameTaken
		}
		return nil, err
	}
	return category, nil
}

// GetByID retrieves a category by its ID
func (r *CategoryRepository) GetByID(id uuid.UUID) (*domain.Category, error) {
	ctx := context.Background()
	var c domain.Category
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, parent_id, is_active FROM categories WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.ParentID, &c.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return &c, nil
}

// GetByName retrieves a category by its exact name
func (r *CategoryRepository) GetByName(name string) (*domain.Category, error) {
	ctx := context.Background()
	var c domain.Category
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, parent_id, is_active FROM categories WHERE name = $1`, name,
	).Scan(&c.ID, &c.Name, &c.ParentID, &c.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return &c, nil
}

// List retrieves categories, root categories first, then by name ascending
func (r *CategoryRepository) List(activeOnly bool) ([]*domain.Category, error) {
	ctx := context.Background()
	query := `SELECT id, name, parent_id, is_active FROM categories`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY (parent_id IS NOT NULL), name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.ParentID, &c.IsActive); err != nil {
			return nil, err
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

// Update persists a category's name and parent
func (r *CategoryRepository) Update(category *domain.Category) (*domain.Category, error) {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx,
		`UPDATE categories SET name = $2, parent_id = $3 WHERE id = $1`,
		category.ID, category.Name, category.ParentID,
	)
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, domain.ErrCategoryNameTaken
		}
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrCategoryNotFound
	}
	return category, nil
}

// SetActive flips the archived flag
func (r *CategoryRepository) SetActive(id uuid.UUID, active bool) (*domain.Category, error) {
	ctx := context.Background()
	var c domain.Category
	err := r.pool.QueryRow(ctx,
		`UPDATE categories SET is_active = $2 WHERE id = $1 RETURNING id, name, parent_id, is_active`,
		id, active,
	).Scan(&c.ID, &c.Name, &c.ParentID, &c.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return &c, nil
}

// isPgUniqueViolation checks if an error is a PostgreSQL unique constraint violation
func isPgUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	// PostgreSQL unique violation error code is 23505
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
