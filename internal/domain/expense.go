package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PaymentSource is how an expense was paid
type PaymentSource string

const (
	PaymentSourceCash PaymentSource = "CASH"
	PaymentSourceCard PaymentSource = "CARD"
	PaymentSourceBank PaymentSource = "BANK"
)

// ParsePaymentSource normalizes s to upper case and validates it against the
// fixed CASH|CARD|BANK set.
func ParsePaymentSource(s string) (PaymentSource, error) {
	ps := PaymentSource(strings.ToUpper(s))
	switch ps {
	case PaymentSourceCash, PaymentSourceCard, PaymentSourceBank:
		return ps, nil
	}
	return "", ErrInvalidPaymentSource
}

// Expense is a single spend record. Amounts are integer minor currency units.
// Deletion is a soft flag; deleted rows stay in storage with their audit trail.
type Expense struct {
	ID            uuid.UUID     `json:"id"`
	AmountCents   int64         `json:"amount_cents"`
	PaymentSource PaymentSource `json:"payment_source"`
	CategoryID    uuid.UUID     `json:"category_id"`
	Comment       *string       `json:"comment,omitempty"`
	SpentAt       time.Time     `json:"spent_at"`
	ReceiptPath   *string       `json:"receipt_path,omitempty"`
	IsDeleted     bool          `json:"is_deleted"`
	DeletedAt     *time.Time    `json:"deleted_at,omitempty"`
	DeletedBy     *uuid.UUID    `json:"deleted_by,omitempty"`
	CreatedBy     uuid.UUID     `json:"created_by"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// ExpenseFilters narrows expense listings. Spent bounds are absolute
// timestamps, already expanded to full calendar days by the service.
type ExpenseFilters struct {
	SpentFrom      *time.Time
	SpentTo        *time.Time
	CategoryIDs    []uuid.UUID
	PaymentSource  *PaymentSource
	IncludeDeleted bool
}

// UpdateExpenseData carries a partial update; nil fields are left untouched.
type UpdateExpenseData struct {
	AmountCents   *int64
	PaymentSource *PaymentSource
	CategoryID    *uuid.UUID
	Comment       *string
	SpentAt       *time.Time
}

// ExpenseRepository defines the interface for expense persistence operations.
// Mutating methods take an optional history record which is committed in the
// same transaction as the entity write.
type ExpenseRepository interface {
	Create(expense *Expense, history *ExpenseHistory) (*Expense, error)
	GetByID(id uuid.UUID) (*Expense, error)
	List(filters *ExpenseFilters) ([]*Expense, error)
	Update(id uuid.UUID, data *UpdateExpenseData, history *ExpenseHistory) (*Expense, error)
	MarkDeleted(id uuid.UUID, deletedAt time.Time, deletedBy uuid.UUID, history *ExpenseHistory) (*Expense, error)
	Restore(id uuid.UUID, history *ExpenseHistory) (*Expense, error)
	SetReceiptPath(id uuid.UUID, name string) (*Expense, error)
	ListHistory(expenseID uuid.UUID) ([]*ExpenseHistory, error)
}
