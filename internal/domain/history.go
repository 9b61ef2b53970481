package domain

import (
	"time"

	"github.com/google/uuid"
)

// HistoryAction tags an audit record with the mutation that produced it
type HistoryAction string

const (
	ActionCreate  HistoryAction = "CREATE"
	ActionUpdate  HistoryAction = "UPDATE"
	ActionDelete  HistoryAction = "DELETE"
	ActionRestore HistoryAction = "RESTORE"
)

// FieldChange holds the old and new value of a single changed field
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// Diff maps changed field names to their old/new value pairs
type Diff map[string]FieldChange

// ExpenseHistory is an append-only audit record. Rows are never mutated or
// deleted after creation, and never cascade-deleted with their expense.
type ExpenseHistory struct {
	ID        uuid.UUID     `json:"id"`
	ExpenseID uuid.UUID     `json:"expense_id"`
	Action    HistoryAction `json:"action"`
	Diff      Diff          `json:"diff"`
	ActorID   uuid.UUID     `json:"actor_id"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewHistory builds an audit record for a mutation on expenseID
func NewHistory(expenseID uuid.UUID, action HistoryAction, diff Diff, actorID uuid.UUID) *ExpenseHistory {
	if diff == nil {
		diff = Diff{}
	}
	return &ExpenseHistory{
		ID:        uuid.New(),
		ExpenseID: expenseID,
		Action:    action,
		Diff:      diff,
		ActorID:   actorID,
	}
}

// CreateDiff records every tracked field of a freshly created expense with a
// null old value.
func CreateDiff(e *Expense) Diff {
	return Diff{
		"amount_cents":   {Old: nil, New: e.AmountCents},
		"payment_source": {Old: nil, New: string(e.PaymentSource)},
		"category_id":    {Old: nil, New: e.CategoryID.String()},
		"comment":        {Old: nil, New: commentValue(e.Comment)},
		"spent_at":       {Old: nil, New: spentAtValue(e.SpentAt)},
	}
}

// UpdateDiff compares only the fields present in data against the current
// stored values; unchanged fields are excluded.
func UpdateDiff(current *Expense, data *UpdateExpenseData) Diff {
	diff := Diff{}
	if data.AmountCents != nil && *data.AmountCents != current.AmountCents {
		diff["amount_cents"] = FieldChange{Old: current.AmountCents, New: *data.AmountCents}
	}
	if data.PaymentSource != nil && *data.PaymentSource != current.PaymentSource {
		diff["payment_source"] = FieldChange{Old: string(current.PaymentSource), New: string(*data.PaymentSource)}
	}
	if data.CategoryID != nil && *data.CategoryID != current.CategoryID {
		diff["category_id"] = FieldChange{Old: current.CategoryID.String(), New: data.CategoryID.String()}
	}
	if data.Comment != nil && (current.Comment == nil || *current.Comment != *data.Comment) {
		diff["comment"] = FieldChange{Old: commentValue(current.Comment), New: *data.Comment}
	}
	if data.SpentAt != nil && !data.SpentAt.Equal(current.SpentAt) {
		diff["spent_at"] = FieldChange{Old: spentAtValue(current.SpentAt), New: spentAtValue(*data.SpentAt)}
	}
	return diff
}

// DeleteDiff records the soft-delete flag transition
func DeleteDiff() Diff {
	return Diff{"is_deleted": {Old: false, New: true}}
}

// RestoreDiff records the soft-delete flag being cleared
func RestoreDiff() Diff {
	return Diff{"is_deleted": {Old: true, New: false}}
}

func commentValue(c *string) any {
	if c == nil {
		return nil
	}
	return *c
}

func spentAtValue(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
