package testutil

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shurale/expense-backend/internal/domain"
)

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	ByID    map[uuid.UUID]*domain.User
	ByEmail map[string]*domain.User
}

// NewMockUserRepository creates a new MockUserRepository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		ByID:    make(map[uuid.UUID]*domain.User),
		ByEmail: make(map[string]*domain.User),
	}
}

// GetByID retrieves a user by ID
func (m *MockUserRepository) GetByID(id uuid.UUID) (*domain.User, error) {
	if user, ok := m.ByID[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// GetByEmail retrieves a user by email
func (m *MockUserRepository) GetByEmail(email string) (*domain.User, error) {
	if user, ok := m.ByEmail[email]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// Create creates a new user
func (m *MockUserRepository) Create(user *domain.User) (*domain.User, error) {
	user.CreatedAt = time.Now().UTC()
	m.AddUser(user)
	return user, nil
}

// AddUser adds a user to the mock repository (helper for tests)
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.ByID[user.ID] = user
	m.ByEmail[user.Email] = user
}

// MockSessionRepository is a mock implementation of domain.SessionRepository
type MockSessionRepository struct {
	ByID        map[uuid.UUID]*domain.Session
	ByTokenHash map[string]*domain.Session
}

// NewMockSessionRepository creates a new MockSessionRepository
func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{
		ByID:        make(map[uuid.UUID]*domain.Session),
		ByTokenHash: make(map[string]*domain.Session),
	}
}

// Create creates a new session
func (m *MockSessionRepository) Create(session *domain.Session) (*domain.Session, error) {
	session.CreatedAt = time.Now().UTC()
	m.ByID[session.ID] = session
	m.ByTokenHash[session.TokenHash] = session
	return session, nil
}

// GetByTokenHash retrieves a session by its token hash
func (m *MockSessionRepository) GetByTokenHash(hash string) (*domain.Session, error) {
	if session, ok := m.ByTokenHash[hash]; ok {
		return session, nil
	}
	return nil, domain.ErrSessionNotFound
}

// Delete removes a session
func (m *MockSessionRepository) Delete(id uuid.UUID) error {
	session, ok := m.ByID[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	delete(m.ByID, id)
	delete(m.ByTokenHash, session.TokenHash)
	return nil
}

// MockCategoryRepository is a mock implementation of domain.CategoryRepository
type MockCategoryRepository struct {
	Categories map[uuid.UUID]*domain.Category
}

// NewMockCategoryRepository creates a new MockCategoryRepository
func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{
		Categories: make(map[uuid.UUID]*domain.Category),
	}
}

// Create creates a new category
func (m *MockCategoryRepository) Create(category *domain.Category) (*domain.Category, error) {
	for _, c := range m.Categories {
		if c.Name == category.Name {
			return nil, domain.ErrCategoryNameTaken
		}
	}
	m.Categories[category.ID] = category
	return category, nil
}

// GetByID retrieves a category by ID
func (m *MockCategoryRepository) GetByID(id uuid.UUID) (*domain.Category, error) {
	if category, ok := m.Categories[id]; ok {
		return category, nil
	}
	return nil, domain.ErrCategoryNotFound
}

// GetByName retrieves a category by name
func (m *MockCategoryRepository) GetByName(name string) (*domain.Category, error) {
	for _, c := range m.Categories {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, domain.ErrCategoryNotFound
}

// List returns categories roots-first, then sorted by name
func (m *MockCategoryRepository) List(activeOnly bool) ([]*domain.Category, error) {
	var out []*domain.Category
	for _, c := range m.Categories {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if (out[i].ParentID == nil) != (out[j].ParentID == nil) {
			return out[i].ParentID == nil
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Update updates an existing category
func (m *MockCategoryRepository) Update(category *domain.Category) (*domain.Category, error) {
	if _, ok := m.Categories[category.ID]; !ok {
		return nil, domain.ErrCategoryNotFound
	}
	m.Categories[category.ID] = category
	return category, nil
}

// SetActive flips the archive flag on a category
func (m *MockCategoryRepository) SetActive(id uuid.UUID, active bool) (*domain.Category, error) {
	category, ok := m.Categories[id]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	category.IsActive = active
	return category, nil
}

// AddCategory adds a category to the mock repository (helper for tests)
func (m *MockCategoryRepository) AddCategory(category *domain.Category) {
	m.Categories[category.ID] = category
}

// MockExpenseRepository is a mock implementation of domain.ExpenseRepository.
// History records passed to mutating methods are captured in History, in call
// order, mirroring the same-transaction audit writes of the real store.
type MockExpenseRepository struct {
	Expenses map[uuid.UUID]*domain.Expense
	History  []*domain.ExpenseHistory
	ListFn   func(filters *domain.ExpenseFilters) ([]*domain.Expense, error)
}

// NewMockExpenseRepository creates a new MockExpenseRepository
func NewMockExpenseRepository() *MockExpenseRepository {
	return &MockExpenseRepository{
		Expenses: make(map[uuid.UUID]*domain.Expense),
	}
}

// Create creates a new expense together with its audit record
func (m *MockExpenseRepository) Create(expense *domain.Expense, history *domain.ExpenseHistory) (*domain.Expense, error) {
	now := time.Now().UTC()
	expense.CreatedAt = now
	expense.UpdatedAt = now
	m.Expenses[expense.ID] = expense
	m.appendHistory(history)
	return expense, nil
}

// GetByID retrieves an expense by ID
func (m *MockExpenseRepository) GetByID(id uuid.UUID) (*domain.Expense, error) {
	if expense, ok := m.Expenses[id]; ok {
		return expense, nil
	}
	return nil, domain.ErrExpenseNotFound
}

// List returns expenses matching the filters, newest spend first
func (m *MockExpenseRepository) List(filters *domain.ExpenseFilters) ([]*domain.Expense, error) {
	if m.ListFn != nil {
		return m.ListFn(filters)
	}
	var out []*domain.Expense
	for _, e := range m.Expenses {
		if e.IsDeleted && !filters.IncludeDeleted {
			continue
		}
		if filters.SpentFrom != nil && e.SpentAt.Before(*filters.SpentFrom) {
			continue
		}
		if filters.SpentTo != nil && e.SpentAt.After(*filters.SpentTo) {
			continue
		}
		if filters.PaymentSource != nil && e.PaymentSource != *filters.PaymentSource {
			continue
		}
		if len(filters.CategoryIDs) > 0 && !containsUUID(filters.CategoryIDs, e.CategoryID) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SpentAt.After(out[j].SpentAt)
	})
	return out, nil
}

// Update applies a partial update and captures the audit record, if any
func (m *MockExpenseRepository) Update(id uuid.UUID, data *domain.UpdateExpenseData, history *domain.ExpenseHistory) (*domain.Expense, error) {
	expense, ok := m.Expenses[id]
	if !ok {
		return nil, domain.ErrExpenseNotFound
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
	expense.UpdatedAt = time.Now().UTC()
	m.appendHistory(history)
	return expense, nil
}

// MarkDeleted soft-deletes an expense and captures the audit record
func (m *MockExpenseRepository) MarkDeleted(id uuid.UUID, deletedAt time.Time, deletedBy uuid.UUID, history *domain.ExpenseHistory) (*domain.Expense, error) {
	expense, ok := m.Expenses[id]
	if !ok {
		return nil, domain.ErrExpenseNotFound
	}
	expense.IsDeleted = true
	expense.DeletedAt = &deletedAt
	expense.DeletedBy = &deletedBy
	expense.UpdatedAt = time.Now().UTC()
	m.appendHistory(history)
	return expense, nil
}

// Restore clears the soft-delete flag and captures the audit record
func (m *MockExpenseRepository) Restore(id uuid.UUID, history *domain.ExpenseHistory) (*domain.Expense, error) {
	expense, ok := m.Expenses[id]
	if !ok {
		return nil, domain.ErrExpenseNotFound
	}
	expense.IsDeleted = false
	expense.DeletedAt = nil
	expense.DeletedBy = nil
	expense.UpdatedAt = time.Now().UTC()
	m.appendHistory(history)
	return expense, nil
}

// SetReceiptPath stores the receipt file name on an expense
func (m *MockExpenseRepository) SetReceiptPath(id uuid.UUID, name string) (*domain.Expense, error) {
	expense, ok := m.Expenses[id]
	if !ok {
		return nil, domain.ErrExpenseNotFound
	}
	expense.ReceiptPath = &name
	expense.UpdatedAt = time.Now().UTC()
	return expense, nil
}

// ListHistory returns captured audit records for an expense, newest first
func (m *MockExpenseRepository) ListHistory(expenseID uuid.UUID) ([]*domain.ExpenseHistory, error) {
	var out []*domain.ExpenseHistory
	for i := len(m.History) - 1; i >= 0; i-- {
		if m.History[i].ExpenseID == expenseID {
			out = append(out, m.History[i])
		}
	}
	return out, nil
}

// HistoryFor filters captured audit records by expense, oldest first
// (helper for tests)
func (m *MockExpenseRepository) HistoryFor(expenseID uuid.UUID) []*domain.ExpenseHistory {
	var out []*domain.ExpenseHistory
	for _, h := range m.History {
		if h.ExpenseID == expenseID {
			out = append(out, h)
		}
	}
	return out
}

// AddExpense adds an expense to the mock repository (helper for tests)
func (m *MockExpenseRepository) AddExpense(expense *domain.Expense) {
	m.Expenses[expense.ID] = expense
}

func (m *MockExpenseRepository) appendHistory(history *domain.ExpenseHistory) {
	if history == nil {
		return
	}
	history.CreatedAt = time.Now().UTC()
	m.History = append(m.History, history)
}

func containsUUID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
