package service

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shurale/expense-backend/internal/domain"
)

// ExpenseService handles expense business logic, including the audit trail
// written alongside every mutation.
type ExpenseService struct {
	expenseRepo  domain.ExpenseRepository
	categoryRepo domain.CategoryRepository
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(expenseRepo domain.ExpenseRepository, categoryRepo domain.CategoryRepository) *ExpenseService {
	return &ExpenseService{
		expenseRepo:  expenseRepo,
		categoryRepo: categoryRepo,
	}
}

// ListExpensesInput holds listing filters. Date bounds are calendar days;
// the service expands them to full-day timestamp ranges in UTC.
type ListExpensesInput struct {
	DateFrom       *time.Time
	DateTo         *time.Time
	CategoryIDs    []uuid.UUID
	PaymentSource  *string
	IncludeDeleted bool
}

// ListExpenses returns expenses ordered by spend timestamp descending.
// include_deleted is admin only; everyone else gets active rows.
func (s *ExpenseService) ListExpenses(actor domain.Actor, input ListExpensesInput) ([]*domain.Expense, error) {
	if input.IncludeDeleted && !actor.Role.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	filters := &domain.ExpenseFilters{
		CategoryIDs:    input.CategoryIDs,
		IncludeDeleted: input.IncludeDeleted,
	}
	if input.DateFrom != nil {
		from := startOfDay(*input.DateFrom)
		filters.SpentFrom = &from
	}
	if input.DateTo != nil {
		to := endOfDay(*input.DateTo)
		filters.SpentTo = &to
	}
	if input.PaymentSource != nil && *input.PaymentSource != "" {
		ps, err := domain.ParsePaymentSource(*input.PaymentSource)
		if err != nil {
			return nil, err
		}
		filters.PaymentSource = &ps
	}

	return s.expenseRepo.List(filters)
}

// CreateExpenseInput holds the input for creating an expense
type CreateExpenseInput struct {
	AmountCents   int64
	PaymentSource string
	CategoryID    uuid.UUID
	Comment       *string
	SpentAt       *time.Time
}

// CreateExpense validates and creates an expense, writing a CREATE audit
// record in the same transaction. Any authenticated actor may create.
func (s *ExpenseService) CreateExpense(actor domain.Actor, input CreateExpenseInput) (*domain.Expense, error) {
	if input.AmountCents <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	ps, err := domain.ParsePaymentSource(input.PaymentSource)
	if err != nil {
		return nil, err
	}
	if err := s.checkCategory(input.CategoryID); err != nil {
		return nil, err
	}
	if err := validateComment(input.Comment); err != nil {
		return nil, err
	}

	spentAt := time.Now().UTC()
	if input.SpentAt != nil {
		spentAt = *input.SpentAt
	}

	expense := &domain.Expense{
		ID:            uuid.New(),
		AmountCents:   input.AmountCents,
		PaymentSource: ps,
		CategoryID:    input.CategoryID,
		Comment:       input.Comment,
		SpentAt:       spentAt,
		CreatedBy:     actor.ID,
	}

	history := domain.NewHistory(expense.ID, domain.ActionCreate, domain.CreateDiff(expense), actor.ID)
	return s.expenseRepo.Create(expense, history)
}

// GetExpense retrieves a single expense by ID
func (s *ExpenseService) GetExpense(id uuid.UUID) (*domain.Expense, error) {
	return s.expenseRepo.GetByID(id)
}

// UpdateExpenseInput holds a partial expense update; nil fields are unchanged
type UpdateExpenseInput struct {
	AmountCents   *int64
	PaymentSource *string
	CategoryID    *uuid.UUID
	Comment       *string
	SpentAt       *time.Time
}

// UpdateExpense applies all provided fields and writes an UPDATE audit record
// only when at least one field actually changed. Editing a soft-deleted
// expense is admin only.
func (s *ExpenseService) UpdateExpense(actor domain.Actor, id uuid.UUID, input UpdateExpenseInput) (*domain.Expense, error) {
	expense, err := s.expenseRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if expense.IsDeleted && !actor.Role.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	data := &domain.UpdateExpenseData{}
	if input.AmountCents != nil {
		if *input.AmountCents <= 0 {
			return nil, domain.ErrInvalidAmount
		}
		data.AmountCents = input.AmountCents
	}
	if input.PaymentSource != nil {
		ps, err := domain.ParsePaymentSource(*input.PaymentSource)
		if err != nil {
			return nil, err
		}
		data.PaymentSource = &ps
	}
	if input.CategoryID != nil {
		if err := s.checkCategory(*input.CategoryID); err != nil {
			return nil, err
		}
		data.CategoryID = input.CategoryID
	}
	if input.Comment != nil {
		if err := validateComment(input.Comment); err != nil {
			return nil, err
		}
		data.Comment = input.Comment
	}
	if input.SpentAt != nil {
		data.SpentAt = input.SpentAt
	}

	var history *domain.ExpenseHistory
	if diff := domain.UpdateDiff(expense, data); len(diff) > 0 {
		history = domain.NewHistory(id, domain.ActionUpdate, diff, actor.ID)
	}

	return s.expenseRepo.Update(id, data, history)
}

// DeleteExpense soft-deletes an expense and writes a DELETE audit record.
// A second delete is a no-op: no field mutation, no audit entry.
func (s *ExpenseService) DeleteExpense(actor domain.Actor, id uuid.UUID) (*domain.Expense, error) {
	expense, err := s.expenseRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if expense.IsDeleted {
		return expense, nil
	}

	history := domain.NewHistory(id, domain.ActionDelete, domain.DeleteDiff(), actor.ID)
	return s.expenseRepo.MarkDeleted(id, time.Now().UTC(), actor.ID, history)
}

// RestoreExpense clears the soft-delete flag and writes a RESTORE audit
// record. Admin only; restoring a non-deleted expense is a no-op.
func (s *ExpenseService) RestoreExpense(actor domain.Actor, id uuid.UUID) (*domain.Expense, error) {
	if !actor.Role.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	expense, err := s.expenseRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !expense.IsDeleted {
		return expense, nil
	}

	history := domain.NewHistory(id, domain.ActionRestore, domain.RestoreDiff(), actor.ID)
	return s.expenseRepo.Restore(id, history)
}

// GetHistory returns the audit trail for an expense, newest first. Admin only.
func (s *ExpenseService) GetHistory(actor domain.Actor, id uuid.UUID) ([]*domain.ExpenseHistory, error) {
	if !actor.Role.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if _, err := s.expenseRepo.GetByID(id); err != nil {
		return nil, err
	}
	return s.expenseRepo.ListHistory(id)
}

func (s *ExpenseService) checkCategory(id uuid.UUID) error {
	category, err := s.categoryRepo.GetByID(id)
	if err != nil {
		return err
	}
	if !category.IsActive {
		return domain.ErrCategoryArchived
	}
	return nil
}

func validateComment(comment *string) error {
	if comment != nil && utf8.RuneCountInString(*comment) > domain.MaxCommentLength {
		return domain.ErrCommentTooLong
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 23, 59, 59, 999999000, time.UTC)
}
