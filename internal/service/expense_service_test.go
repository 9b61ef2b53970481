package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shurale/expense-backend/internal/domain"
	"github.com/shurale/expense-backend/internal/testutil"
)

func newExpenseFixture(t *testing.T) (*ExpenseService, *testutil.MockExpenseRepository, *testutil.MockCategoryRepository, uuid.UUID) {
	t.Helper()
	expenseRepo := testutil.NewMockExpenseRepository()
	categoryRepo := testutil.NewMockCategoryRepository()
	category := &domain.Category{ID: uuid.New(), Name: "Groceries", IsActive: true}
	categoryRepo.AddCategory(category)
	return NewExpenseService(expenseRepo, categoryRepo), expenseRepo, categoryRepo, category.ID
}

func TestCreateExpense_Success(t *testing.T) {
	expenseService, expenseRepo, _, categoryID := newExpenseFixture(t)

	comment := "weekly shop"
	expense, err := expenseService.CreateExpense(managerActor, CreateExpenseInput{
		AmountCents:   4599,
		PaymentSource: "CARD",
		CategoryID:    categoryID,
		Comment:       &comment,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if expense.ID == uuid.Nil {
		t.Error("Expected generated ID")
	}
	if expense.AmountCents != 4599 {
		t.Errorf("Expected amount 4599, got %d", expense.AmountCents)
	}
	if expense.PaymentSource != domain.PaymentSourceCard {
		t.Errorf("Expected CARD, got %s", expense.PaymentSource)
	}
	if expense.CreatedBy != managerActor.ID {
		t.Error("Expected created_by to be the actor")
	}
	if expense.SpentAt.IsZero() {
		t.Error("Expected spent_at to default to now")
	}

	history := expenseRepo.HistoryFor(expense.ID)
	if len(history) != 1 {
		t.Fatalf("Expected exactly 1 audit record, got %d", len(history))
	}
	if history[0].Action != domain.ActionCreate {
		t.Errorf("Expected CREATE action, got %s", history[0].Action)
	}
	if history[0].ActorID != managerActor.ID {
		t.Error("Expected audit actor to be the creator")
	}
	if len(history[0].Diff) != 5 {
		t.Errorf("Expected all 5 tracked fields in the create diff, got %d", len(history[0].Diff))
	}
	if history[0].Diff["amount_cents"].Old != nil {
		t.Error("Expected nil old value in create diff")
	}
}

func TestCreateExpense_NormalizesPaymentSource(t *testing.T) {
	expenseService, _, _, categoryID := newExpenseFixture(t)

	expense, err := expenseService.CreateExpense(managerActor, CreateExpenseInput{
		AmountCents:   100,
		PaymentSource: "cash",
		CategoryID:    categoryID,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if expense.PaymentSource != domain.PaymentSourceCash {
		t.Errorf("Expected CASH, got %s", expense.PaymentSource)
	}
}

func TestCreateExpense_Validation(t *testing.T) {
	expenseService, _, _, categoryID := newExpenseFixture(t)

	if _, err := expenseService.CreateExpense(managerActor, CreateExpenseInput{
		AmountCents: 0, PaymentSource: "CASH", CategoryID: categoryID,
	}); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("Expected ErrInvalidAmount for zero, got %v", err)
	}

	if _, err := expenseService.CreateExpense(managerActor, CreateExpenseInput{
		AmountCents: -5, PaymentSource: "CASH", CategoryID: categoryID,
	}); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("Expected ErrInvalidAmount for negative, got %v", err)
	}

	if _, err := expenseService.CreateExpense(managerActor, CreateExpenseInput{
		AmountCents: 100, PaymentSource: "CHECK", CategoryID: categoryID,
	}); !errors.Is(err, domain.ErrInvalidPaymentSource) {
		t.Errorf("Expected ErrInvalidPaymentSource, got %v", err)
	}

	long := strings.Repeat("x", domain.MaxCommentLength+1)
	if _, err := expenseService.CreateExpense(managerActor, CreateExpenseInput{
		AmountCents: 100, PaymentSource: "CASH", CategoryID: categoryID, Comment: &long,
	}); !errors.Is(err, domain.ErrCommentTooLong) {
		t.Errorf("Expected ErrCommentTooLong, got %v", err)
	}
}

func TestCreateExpense_CommentLengthCountsRunes(t *testing.T) {
	expenseService, _, _, categoryID := newExpenseFixture(t)

	// 500 multibyte characters, well past the limit in bytes
	comment := strings.Repeat("я", domain.MaxCommentLength)
	if _, err := expenseService.CreateExpense(managerActor, CreateExpenseInput{
		AmountCents: 100, PaymentSource: "CASH", CategoryID: categoryID, Comment: &comment,
	}); err != nil {
		t.Fatalf("Expected a 500-character multibyte comment to be accepted, got %v", err)
	}

	tooLong := strings.Repeat("я", domain.MaxCommentLength+1)
	if _, err := expenseService.CreateExpense(managerActor, CreateExpenseInput{
		AmountCents: 100, PaymentSource: "CASH", CategoryID: categoryID, Comment: &tooLong,
	}); !errors.Is(err, domain.ErrCommentTooLong) {
		t.Errorf("Expected ErrCommentTooLong for 501 characters, got %v", err)
	}
}

func TestCreateExpense_CategoryChecks(t *testing.T) {
	expenseService, _, categoryRepo, _ := newExpenseFixture(t)

	if _, err := expenseService.CreateExpense(managerActor, CreateExpenseInput{
		AmountCents: 100, PaymentSource: "CASH", CategoryID: uuid.New(),
	}); !errors.Is(err, domain.ErrCategoryNotFound) {
		t.Errorf("Expected ErrCategoryNotFound, got %v", err)
	}

	archived := &domain.Category{ID: uuid.New(), Name: "Old", IsActive: false}
	categoryRepo.AddCategory(archived)
	if _, err := expenseService.CreateExpense(managerActor, CreateExpenseInput{
		AmountCents: 100, PaymentSource: "CASH", CategoryID: archived.ID,
	}); !errors.Is(err, domain.ErrCategoryArchived) {
		t.Errorf("Expected ErrCategoryArchived, got %v", err)
	}
}

func TestUpdateExpense_WritesDiffOnlyForChanges(t *testing.T) {
	expenseService, expenseRepo, _, categoryID := newExpenseFixture(t)

	expense, err := expenseService.CreateExpense(managerActor, CreateExpenseInput{
		AmountCents: 500, PaymentSource: "CASH", CategoryID: categoryID,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	newAmount := int64(750)
	updated, err := expenseService.UpdateExpense(managerActor, expense.ID, UpdateExpenseInput{AmountCents: &newAmount})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if updated.AmountCents != 750 {
		t.Errorf("Expected amount 750, got %d", updated.AmountCents)
	}

	history := expenseRepo.HistoryFor(expense.ID)
	if len(history) != 2 {
		t.Fatalf("Expected 2 audit records, got %d", len(history))
	}
	last := history[len(history)-1]
	if last.Action != domain.ActionUpdate {
		t.Errorf("Expected UPDATE action, got %s", last.Action)
	}
	if len(last.Diff) != 1 {
		t.Errorf("Expected only the changed field in the diff, got %d entries", len(last.Diff))
	}
}

func TestUpdateExpense_NoChangeWritesNoHistory(t *testing.T) {
	expenseService, expenseRepo, _, categoryID := newExpenseFixture(t)

	expense, err := expenseService.CreateExpense(managerActor, CreateExpenseInput{
		AmountCents: 500, PaymentSource: "CASH", CategoryID: categoryID,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	sameAmount := int64(500)
	samePS := "CASH"
	if _, err := expenseService.UpdateExpense(managerActor, expense.ID, UpdateExpenseInput{
		AmountCents:   &sameAmount,
		PaymentSource: &samePS,
	}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if history := expenseRepo.HistoryFor(expense.ID); len(history) != 1 {
		t.Errorf("Expected no new audit record for a no-op update, got %d total", len(history))
	}
}

func TestUpdateExpense_DeletedRequiresAdmin(t *testing.T) {
	expenseService, expenseRepo, _, categoryID := newExpenseFixture(t)

	now := time.Now().UTC()
	deleted := &domain.Expense{
		ID:            uuid.New(),
		AmountCents:   100,
		PaymentSource: domain.PaymentSourceCash,
		CategoryID:    categoryID,
		SpentAt:       now,
		IsDeleted:     true,
		DeletedAt:     &now,
		CreatedBy:     managerActor.ID,
	}
	expenseRepo.AddExpense(deleted)

	newAmount := int64(200)
	if _, err := expenseService.UpdateExpense(managerActor, deleted.ID, UpdateExpenseInput{AmountCents: &newAmount}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("Expected ErrForbidden for manager, got %v", err)
	}

	if _, err := expenseService.UpdateExpense(adminActor, deleted.ID, UpdateExpenseInput{AmountCents: &newAmount}); err != nil {
		t.Fatalf("Expected admin to edit a deleted expense, got %v", err)
	}
}

func TestDeleteExpense_SetsFlagsAndAudits(t *testing.T) {
	expenseService, expenseRepo, _, categoryID := newExpenseFixture(t)

	expense, err := expenseService.CreateExpense(managerActor, CreateExpenseInput{
		AmountCents: 500, PaymentSource: "CASH", CategoryID: categoryID,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	deleted, err := expenseService.DeleteExpense(managerActor, expense.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !deleted.IsDeleted {
		t.Error("Expected is_deleted to be set")
	}
	if deleted.DeletedAt == nil || deleted.DeletedBy == nil {
		t.Fatal("Expected deleted_at and deleted_by to be set")
	}
	if *deleted.DeletedBy != managerActor.ID {
		t.Error("Expected deleted_by to be the actor")
	}

	history := expenseRepo.HistoryFor(expense.ID)
	last := history[len(history)-1]
	if last.Action != domain.ActionDelete {
		t.Errorf("Expected DELETE action, got %s", last.Action)
	}
	if last.Diff["is_deleted"].New != true {
		t.Error("Expected is_deleted true in delete diff")
	}
}

func TestDeleteExpense_SecondDeleteIsNoOp(t *testing.T) {
	expenseService, expenseRepo, _, categoryID := newExpenseFixture(t)

	expense, err := expenseService.CreateExpense(managerActor, CreateExpenseInput{
		AmountCents: 500, PaymentSource: "CASH", CategoryID: categoryID,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if _, err := expenseService.DeleteExpense(managerActor, expense.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	firstDeletedAt := *expense.DeletedAt

	again, err := expenseService.DeleteExpense(adminActor, expense.ID)
	if err != nil {
		t.Fatalf("Expected no error on repeated delete, got %v", err)
	}
	if !again.IsDeleted {
		t.Error("Expected expense to stay deleted")
	}
	if !again.DeletedAt.Equal(firstDeletedAt) {
		t.Error("Expected deleted_at to be unchanged on repeated delete")
	}

	// CREATE + one DELETE only
	if history := expenseRepo.HistoryFor(expense.ID); len(history) != 2 {
		t.Errorf("Expected 2 audit records, got %d", len(history))
	}
}

func TestRestoreExpense_AdminOnly(t *testing.T) {
	expenseService, expenseRepo, _, categoryID := newExpenseFixture(t)

	expense, err := expenseService.CreateExpense(managerActor, CreateExpenseInput{
		AmountCents: 500, PaymentSource: "CASH", CategoryID: categoryID,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := expenseService.DeleteExpense(managerActor, expense.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if _, err := expenseService.RestoreExpense(managerActor, expense.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("Expected ErrForbidden for manager, got %v", err)
	}

	restored, err := expenseService.RestoreExpense(adminActor, expense.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if restored.IsDeleted {
		t.Error("Expected is_deleted to be cleared")
	}
	if restored.DeletedAt != nil || restored.DeletedBy != nil {
		t.Error("Expected deleted_at and deleted_by to be cleared")
	}

	history := expenseRepo.HistoryFor(expense.ID)
	if history[len(history)-1].Action != domain.ActionRestore {
		t.Errorf("Expected RESTORE action, got %s", history[len(history)-1].Action)
	}
}

func TestRestoreExpense_NotDeletedIsNoOp(t *testing.T) {
	expenseService, expenseRepo, _, categoryID := newExpenseFixture(t)

	expense, err := expenseService.CreateExpense(managerActor, CreateExpenseInput{
		AmountCents: 500, PaymentSource: "CASH", CategoryID: categoryID,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if _, err := expenseService.RestoreExpense(adminActor, expense.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if history := expenseRepo.HistoryFor(expense.ID); len(history) != 1 {
		t.Errorf("Expected no RESTORE record for a non-deleted expense, got %d total", len(history))
	}
}

func TestListExpenses_IncludeDeletedIsAdminOnly(t *testing.T) {
	expenseService, _, _, _ := newExpenseFixture(t)

	if _, err := expenseService.ListExpenses(managerActor, ListExpensesInput{IncludeDeleted: true}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("Expected ErrForbidden, got %v", err)
	}
	if _, err := expenseService.ListExpenses(adminActor, ListExpensesInput{IncludeDeleted: true}); err != nil {
		t.Fatalf("Expected no error for admin, got %v", err)
	}
}

func TestListExpenses_ExpandsDateBoundsToFullDays(t *testing.T) {
	expenseService, expenseRepo, _, _ := newExpenseFixture(t)

	var captured *domain.ExpenseFilters
	expenseRepo.ListFn = func(filters *domain.ExpenseFilters) ([]*domain.Expense, error) {
		captured = filters
		return nil, nil
	}

	day := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	if _, err := expenseService.ListExpenses(managerActor, ListExpensesInput{
		DateFrom: &day,
		DateTo:   &day,
	}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	wantFrom := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	wantTo := time.Date(2025, 6, 15, 23, 59, 59, 999999000, time.UTC)
	if !captured.SpentFrom.Equal(wantFrom) {
		t.Errorf("Expected from %v, got %v", wantFrom, captured.SpentFrom)
	}
	if !captured.SpentTo.Equal(wantTo) {
		t.Errorf("Expected to %v, got %v", wantTo, captured.SpentTo)
	}
}

func TestListExpenses_InvalidPaymentSource(t *testing.T) {
	expenseService, _, _, _ := newExpenseFixture(t)

	bad := "WIRE"
	if _, err := expenseService.ListExpenses(managerActor, ListExpensesInput{PaymentSource: &bad}); !errors.Is(err, domain.ErrInvalidPaymentSource) {
		t.Fatalf("Expected ErrInvalidPaymentSource, got %v", err)
	}
}

func TestGetHistory_AdminOnly(t *testing.T) {
	expenseService, _, _, categoryID := newExpenseFixture(t)

	expense, err := expenseService.CreateExpense(managerActor, CreateExpenseInput{
		AmountCents: 500, PaymentSource: "CASH", CategoryID: categoryID,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if _, err := expenseService.GetHistory(managerActor, expense.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("Expected ErrForbidden, got %v", err)
	}

	history, err := expenseService.GetHistory(adminActor, expense.ID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(history) != 1 {
		t.Errorf("Expected 1 audit record, got %d", len(history))
	}
}

func TestGetHistory_ExpenseNotFound(t *testing.T) {
	expenseService, _, _, _ := newExpenseFixture(t)

	if _, err := expenseService.GetHistory(adminActor, uuid.New()); !errors.Is(err, domain.ErrExpenseNotFound) {
		t.Fatalf("Expected ErrExpenseNotFound, got %v", err)
	}
}
