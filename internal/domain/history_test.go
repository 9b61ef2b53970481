package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDiff_TracksAllFields(t *testing.T) {
	comment := "lunch"
	expense := &Expense{
		ID:            uuid.New(),
		AmountCents:   1250,
		PaymentSource: PaymentSourceCard,
		CategoryID:    uuid.New(),
		Comment:       &comment,
		SpentAt:       time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC),
	}

	diff := CreateDiff(expense)

	require.Len(t, diff, 5)
	assert.Nil(t, diff["amount_cents"].Old)
	assert.Equal(t, int64(1250), diff["amount_cents"].New)
	assert.Equal(t, "CARD", diff["payment_source"].New)
	assert.Equal(t, expense.CategoryID.String(), diff["category_id"].New)
	assert.Equal(t, "lunch", diff["comment"].New)
	assert.Equal(t, "2025-03-10T14:30:00Z", diff["spent_at"].New)
}

func TestCreateDiff_NilComment(t *testing.T) {
	expense := &Expense{
		AmountCents:   100,
		PaymentSource: PaymentSourceCash,
		CategoryID:    uuid.New(),
		SpentAt:       time.Now().UTC(),
	}

	diff := CreateDiff(expense)

	change, ok := diff["comment"]
	require.True(t, ok)
	assert.Nil(t, change.Old)
	assert.Nil(t, change.New)
}

func TestUpdateDiff_OnlyChangedFields(t *testing.T) {
	comment := "old comment"
	current := &Expense{
		AmountCents:   500,
		PaymentSource: PaymentSourceCash,
		CategoryID:    uuid.New(),
		Comment:       &comment,
		SpentAt:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	newAmount := int64(750)
	samePS := PaymentSourceCash
	data := &UpdateExpenseData{
		AmountCents:   &newAmount,
		PaymentSource: &samePS,
	}

	diff := UpdateDiff(current, data)

	require.Len(t, diff, 1)
	assert.Equal(t, int64(500), diff["amount_cents"].Old)
	assert.Equal(t, int64(750), diff["amount_cents"].New)
}

func TestUpdateDiff_NoChanges(t *testing.T) {
	current := &Expense{
		AmountCents:   500,
		PaymentSource: PaymentSourceBank,
		CategoryID:    uuid.New(),
		SpentAt:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	sameAmount := current.AmountCents
	samePS := current.PaymentSource
	sameCategory := current.CategoryID
	sameSpentAt := current.SpentAt
	data := &UpdateExpenseData{
		AmountCents:   &sameAmount,
		PaymentSource: &samePS,
		CategoryID:    &sameCategory,
		SpentAt:       &sameSpentAt,
	}

	assert.Empty(t, UpdateDiff(current, data))
}

func TestUpdateDiff_CommentFromNil(t *testing.T) {
	current := &Expense{
		AmountCents:   500,
		PaymentSource: PaymentSourceCash,
		CategoryID:    uuid.New(),
		SpentAt:       time.Now().UTC(),
	}

	newComment := "added later"
	diff := UpdateDiff(current, &UpdateExpenseData{Comment: &newComment})

	require.Len(t, diff, 1)
	assert.Nil(t, diff["comment"].Old)
	assert.Equal(t, "added later", diff["comment"].New)
}

func TestDeleteAndRestoreDiffs(t *testing.T) {
	del := DeleteDiff()
	require.Len(t, del, 1)
	assert.Equal(t, false, del["is_deleted"].Old)
	assert.Equal(t, true, del["is_deleted"].New)

	restore := RestoreDiff()
	require.Len(t, restore, 1)
	assert.Equal(t, true, restore["is_deleted"].Old)
	assert.Equal(t, false, restore["is_deleted"].New)
}

func TestNewHistory_DefaultsEmptyDiff(t *testing.T) {
	expenseID := uuid.New()
	actorID := uuid.New()

	h := NewHistory(expenseID, ActionUpdate, nil, actorID)

	assert.NotEqual(t, uuid.Nil, h.ID)
	assert.Equal(t, expenseID, h.ExpenseID)
	assert.Equal(t, ActionUpdate, h.Action)
	assert.Equal(t, actorID, h.ActorID)
	assert.NotNil(t, h.Diff)
	assert.Empty(t, h.Diff)
}
