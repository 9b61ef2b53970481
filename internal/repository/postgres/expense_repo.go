package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shurale/expense-backend/internal/domain"
)

const expenseColumns = `id, amount_cents, payment_source, category_id, comment, spent_at,
	receipt_path, is_deleted, deleted_at, deleted_by, created_by, created_at, updated_at`

// ExpenseRepository implements domain.ExpenseRepository using PostgreSQL.
// Entity writes and their audit-history rows commit in a single transaction.
type ExpenseRepository struct {
	pool *pgxpool.Pool
}

// NewExpenseRepository creates a new ExpenseRepository
func NewExpenseRepository(pool *pgxpool.Pool) *ExpenseRepository {
	return &ExpenseRepository{pool: pool}
}

// Create inserts a new expense and its CREATE history row atomically
func (r *ExpenseRepository) Create(expense *domain.Expense, history *domain.ExpenseHistory) (*domain.Expense, error) {
	ctx := context.Background()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO expenses (id, amount_cents, payment_source, category_id, comment, spent_at, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at, updated_at`,
		expense.ID, expense.AmountCents, string(expense.PaymentSource), expense.CategoryID,
		expense.Comment, expense.SpentAt, expense.CreatedBy,
	).Scan(&expense.CreatedAt, &expense.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if history != nil {
		if err := insertHistory(ctx, tx, history); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return expense, nil
}

// GetByID retrieves an expense by its ID, deleted or not
func (r *ExpenseRepository) GetByID(id uuid.UUID) (*domain.Expense, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, id)
	return scanExpense(row)
}

// List retrieves expenses matching the filters, newest spend first
func (r *ExpenseRepository) List(filters *domain.ExpenseFilters) ([]*domain.Expense, error) {
	ctx := context.Background()

	var conds []string
	var args []any
	if filters == nil || !filters.IncludeDeleted {
		conds = append(conds, "is_deleted = FALSE")
	}
	if filters != nil {
		if filters.SpentFrom != nil {
			args = append(args, *filters.SpentFrom)
			conds = append(conds, fmt.Sprintf("spent_at >= $%d", len(args)))
		}
		if filters.SpentTo != nil {
			args = append(args, *filters.SpentTo)
			conds = append(conds, fmt.Sprintf("spent_at <= $%d", len(args)))
		}
		if len(filters.CategoryIDs) > 0 {
			args = append(args, filters.CategoryIDs)
			conds = append(conds, fmt.Sprintf("category_id = ANY($%d)", len(args)))
		}
		if filters.PaymentSource != nil {
			args = append(args, string(*filters.PaymentSource))
			conds = append(conds, fmt.Sprintf("payment_source = $%d", len(args)))
		}
	}

	query := `SELECT ` + expenseColumns + ` FROM expenses`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY spent_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []*domain.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// Update applies a partial update and, when history is non-nil, writes the
// UPDATE audit row in the same transaction. The row is locked while the
// partial update is applied.
func (r *ExpenseRepository) Update(id uuid.UUID, data *domain.UpdateExpenseData, history *domain.ExpenseHistory) (*domain.Expense, error) {
	ctx := context.Background()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = $1 FOR UPDATE`, id)
	expense, err := scanExpense(row)
	if err != nil {
		return nil, err
	}

	if data.AmountCents != nil {
		expense.AmountCents = *data.AmountCents
	}
	if data.PaymentSource != nil {
		expense.PaymentSource = *data.PaymentSource
	}
	if data.CategoryID != nil {
		expense.CategoryID = *data.CategoryID
	}
	if data.Comment != nil {
		expense.Comment = data.Comment
	}
	if data.SpentAt != nil {
		expense.SpentAt = *data.SpentAt
	}

	err = tx.QueryRow(ctx,
		`UPDATE expenses
		 SET amount_cents = $2, payment_source = $3, category_id = $4, comment = $5, spent_at = $6, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`,
		id, expense.AmountCents, string(expense.PaymentSource), expense.CategoryID,
		expense.Comment, expense.SpentAt,
	).Scan(&expense.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if history != nil {
		if err := insertHistory(ctx, tx, history); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return expense, nil
}

// MarkDeleted sets the soft-delete fields and writes the DELETE audit row atomically
func (r *ExpenseRepository) MarkDeleted(id uuid.UUID, deletedAt time.Time, deletedBy uuid.UUID, history *domain.ExpenseHistory) (*domain.Expense, error) {
	ctx := context.Background()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`UPDATE expenses
		 SET is_deleted = TRUE, deleted_at = $2, deleted_by = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING `+expenseColumns,
		id, deletedAt, deletedBy)
	expense, err := scanExpense(row)
	if err != nil {
		return nil, err
	}

	if history != nil {
		if err := insertHistory(ctx, tx, history); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return expense, nil
}

// Restore clears the soft-delete fields and writes the RESTORE audit row atomically
func (r *ExpenseRepository) Restore(id uuid.UUID, history *domain.ExpenseHistory) (*domain.Expense, error) {
	ctx := context.Background()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`UPDATE expenses
		 SET is_deleted = FALSE, deleted_at = NULL, deleted_by = NULL, updated_at = now()
		 WHERE id = $1
		 RETURNING `+expenseColumns,
		id)
	expense, err := scanExpense(row)
	if err != nil {
		return nil, err
	}

	if history != nil {
		if err := insertHistory(ctx, tx, history); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return expense, nil
}

// SetReceiptPath persists the generated receipt file name on the expense
func (r *ExpenseRepository) SetReceiptPath(id uuid.UUID, name string) (*domain.Expense, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		`UPDATE expenses SET receipt_path = $2, updated_at = now() WHERE id = $1 RETURNING `+expenseColumns,
		id, name)
	return scanExpense(row)
}

// ListHistory retrieves the audit trail of an expense, newest first
func (r *ExpenseRepository) ListHistory(expenseID uuid.UUID) ([]*domain.ExpenseHistory, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx,
		`SELECT id, expense_id, action, diff, actor_id, created_at
		 FROM expense_history
		 WHERE expense_id = $1
		 ORDER BY created_at DESC`,
		expenseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.ExpenseHistory
	for rows.Next() {
		var h domain.ExpenseHistory
		var action string
		var diffRaw []byte
		if err := rows.Scan(&h.ID, &h.ExpenseID, &action, &diffRaw, &h.ActorID, &h.CreatedAt); err != nil {
			return nil, err
		}
		h.Action = domain.HistoryAction(action)
		if err := json.Unmarshal(diffRaw, &h.Diff); err != nil {
			return nil, fmt.Errorf("decode history diff: %w", err)
		}
		records = append(records, &h)
	}
	return records, rows.Err()
}

func insertHistory(ctx context.Context, tx pgx.Tx, history *domain.ExpenseHistory) error {
	diffRaw, err := json.Marshal(history.Diff)
	if err != nil {
		return fmt.Errorf("encode history diff: %w", err)
	}
	return tx.QueryRow(ctx,
		`INSERT INTO expense_history (id, expense_id, action, diff, actor_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		history.ID, history.ExpenseID, string(history.Action), diffRaw, history.ActorID,
	).Scan(&history.CreatedAt)
}

func scanExpense(row pgx.Row) (*domain.Expense, error) {
	var e domain.Expense
	var ps string
	err := row.Scan(
		&e.ID, &e.AmountCents, &ps, &e.CategoryID, &e.Comment, &e.SpentAt,
		&e.ReceiptPath, &e.IsDeleted, &e.DeletedAt, &e.DeletedBy,
		&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrExpenseNotFound
		}
		return nil, err
	}
	e.PaymentSource = domain.PaymentSource(ps)
	return &e, nil
}
