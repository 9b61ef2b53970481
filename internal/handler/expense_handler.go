package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shurale/expense-backend/internal/domain"
	"github.com/shurale/expense-backend/internal/middleware"
	"github.com/shurale/expense-backend/internal/service"
)

// ExpenseHandler handles expense HTTP requests
type ExpenseHandler struct {
	expenseService *service.ExpenseService
	receiptService *service.ReceiptService
}

// NewExpenseHandler creates a new ExpenseHandler
func NewExpenseHandler(expenseService *service.ExpenseService, receiptService *service.ReceiptService) *ExpenseHandler {
	return &ExpenseHandler{
		expenseService: expenseService,
		receiptService: receiptService,
	}
}

// CreateExpenseRequest represents the create expense request body
type CreateExpenseRequest struct {
	AmountCents   int64   `json:"amount_cents"`
	PaymentSource string  `json:"payment_source"`
	CategoryID    string  `json:"category_id"`
	Comment       *string `json:"comment,omitempty"`
	SpentAt       *string `json:"spent_at,omitempty"`
}

// UpdateExpenseRequest represents the update expense request body
type UpdateExpenseRequest struct {
	AmountCents   *int64  `json:"amount_cents,omitempty"`
	PaymentSource *string `json:"payment_source,omitempty"`
	CategoryID    *string `json:"category_id,omitempty"`
	Comment       *string `json:"comment,omitempty"`
	SpentAt       *string `json:"spent_at,omitempty"`
}

// ReceiptResponse represents the receipt upload response
type ReceiptResponse struct {
	ExpenseID   string `json:"expense_id"`
	ReceiptPath string `json:"receipt_path"`
	URL         string `json:"url"`
}

// ListExpenses returns expenses newest-spend-first, filtered by the query
// parameters date_from, date_to, category_ids, payment_source and
// include_deleted.
func (h *ExpenseHandler) ListExpenses(c echo.Context) error {
	input := service.ListExpensesInput{
		IncludeDeleted: c.QueryParam("include_deleted") == "true",
	}

	if v := c.QueryParam("date_from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "date_from", Message: "Must be in YYYY-MM-DD format"},
			})
		}
		input.DateFrom = &parsed
	}
	if v := c.QueryParam("date_to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "date_to", Message: "Must be in YYYY-MM-DD format"},
			})
		}
		input.DateTo = &parsed
	}
	for _, raw := range c.QueryParams()["category_ids"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := uuid.Parse(part)
			if err != nil {
				return NewValidationError(c, "Validation failed", []ValidationError{
					{Field: "category_ids", Message: "Must be a valid UUID"},
				})
			}
			input.CategoryIDs = append(input.CategoryIDs, id)
		}
	}
	if v := c.QueryParam("payment_source"); v != "" {
		input.PaymentSource = &v
	}

	expenses, err := h.expenseService.ListExpenses(middleware.GetActor(c), input)
	if err != nil {
		return expenseErrorResponse(c, err, "Failed to list expenses")
	}

	return c.JSON(http.StatusOK, expenses)
}

// GetExpense returns a single expense by ID
func (h *ExpenseHandler) GetExpense(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid expense ID", nil)
	}

	expense, err := h.expenseService.GetExpense(id)
	if err != nil {
		return expenseErrorResponse(c, err, "Failed to load expense")
	}

	return c.JSON(http.StatusOK, expense)
}

// CreateExpense creates a new expense
func (h *ExpenseHandler) CreateExpense(c echo.Context) error {
	var req CreateExpenseRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "category_id", Message: "Must be a valid UUID"},
		})
	}
	spentAt, err := parseOptionalTime(req.SpentAt)
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "spent_at", Message: "Must be an RFC 3339 timestamp"},
		})
	}

	expense, err := h.expenseService.CreateExpense(middleware.GetActor(c), service.CreateExpenseInput{
		AmountCents:   req.AmountCents,
		PaymentSource: req.PaymentSource,
		CategoryID:    categoryID,
		Comment:       req.Comment,
		SpentAt:       spentAt,
	})
	if err != nil {
		return expenseErrorResponse(c, err, "Failed to create expense")
	}

	log.Info().Str("expense_id", expense.ID.String()).Int64("amount_cents", expense.AmountCents).Msg("Expense created")

	return c.JSON(http.StatusCreated, expense)
}

// UpdateExpense applies a partial update to an expense
func (h *ExpenseHandler) UpdateExpense(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid expense ID", nil)
	}

	var req UpdateExpenseRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	categoryID, err := parseOptionalUUID(req.CategoryID)
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "category_id", Message: "Must be a valid UUID"},
		})
	}
	spentAt, err := parseOptionalTime(req.SpentAt)
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "spent_at", Message: "Must be an RFC 3339 timestamp"},
		})
	}

	expense, err := h.expenseService.UpdateExpense(middleware.GetActor(c), id, service.UpdateExpenseInput{
		AmountCents:   req.AmountCents,
		PaymentSource: req.PaymentSource,
		CategoryID:    categoryID,
		Comment:       req.Comment,
		SpentAt:       spentAt,
	})
	if err != nil {
		return expenseErrorResponse(c, err, "Failed to update expense")
	}

	return c.JSON(http.StatusOK, expense)
}

// DeleteExpense soft-deletes an expense. Repeated deletes are no-ops.
func (h *ExpenseHandler) DeleteExpense(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid expense ID", nil)
	}

	expense, err := h.expenseService.DeleteExpense(middleware.GetActor(c), id)
	if err != nil {
		return expenseErrorResponse(c, err, "Failed to delete expense")
	}

	log.Info().Str("expense_id", id.String()).Msg("Expense deleted")

	return c.JSON(http.StatusOK, expense)
}

// RestoreExpense clears the soft-delete flag. Admin only.
func (h *ExpenseHandler) RestoreExpense(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid expense ID", nil)
	}

	expense, err := h.expenseService.RestoreExpense(middleware.GetActor(c), id)
	if err != nil {
		return expenseErrorResponse(c, err, "Failed to restore expense")
	}

	log.Info().Str("expense_id", id.String()).Msg("Expense restored")

	return c.JSON(http.StatusOK, expense)
}

// GetHistory returns the audit trail for an expense, newest first. Admin only.
func (h *ExpenseHandler) GetHistory(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid expense ID", nil)
	}

	history, err := h.expenseService.GetHistory(middleware.GetActor(c), id)
	if err != nil {
		return expenseErrorResponse(c, err, "Failed to load expense history")
	}

	return c.JSON(http.StatusOK, history)
}

// UploadReceipt attaches a receipt file to an expense. The file is sent as
// multipart form data under the "file" field.
func (h *ExpenseHandler) UploadReceipt(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "Invalid expense ID", nil)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "file", Message: "A receipt file is required"},
		})
	}

	src, err := fileHeader.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded file")
		return NewInternalError(c, "Failed to read uploaded file")
	}
	defer src.Close()

	expense, err := h.receiptService.AttachReceipt(middleware.GetActor(c), id, service.ReceiptUpload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Reader:      src,
	})
	if err != nil {
		return expenseErrorResponse(c, err, "Failed to store receipt")
	}

	return c.JSON(http.StatusOK, ReceiptResponse{
		ExpenseID:   expense.ID.String(),
		ReceiptPath: *expense.ReceiptPath,
		URL:         "/receipts/" + *expense.ReceiptPath,
	})
}

func expenseErrorResponse(c echo.Context, err error, internalDetail string) error {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		return NewForbiddenError(c, "Not permitted for this role")
	case errors.Is(err, domain.ErrExpenseNotFound):
		return NewNotFoundError(c, "Expense not found")
	case errors.Is(err, domain.ErrInvalidAmount):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "amount_cents", Message: "Amount must be a positive integer"},
		})
	case errors.Is(err, domain.ErrInvalidPaymentSource):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "payment_source", Message: "Must be one of: CASH, CARD, BANK"},
		})
	case errors.Is(err, domain.ErrCategoryNotFound):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "category_id", Message: "Category not found"},
		})
	case errors.Is(err, domain.ErrCategoryArchived):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "category_id", Message: "Category is archived"},
		})
	case errors.Is(err, domain.ErrCommentTooLong):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "comment", Message: "Comment must be 500 characters or less"},
		})
	case errors.Is(err, domain.ErrUnsupportedReceiptType):
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "file", Message: "Only image and PDF receipts are supported"},
		})
	}
	log.Error().Err(err).Msg(internalDetail)
	return NewInternalError(c, internalDetail)
}

func parseOptionalTime(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
