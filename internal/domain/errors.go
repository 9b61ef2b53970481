package domain

import "errors"

// Domain errors
var (
	ErrForbidden      = errors.New("forbidden")
	ErrNameRequired   = errors.New("name is required")
	ErrNameTooLong    = errors.New("name exceeds maximum length")
	ErrUserNotFound   = errors.New("user not found")
	ErrCommentTooLong = errors.New("comment exceeds maximum length")

	ErrCategoryNotFound       = errors.New("category not found")
	ErrParentCategoryNotFound = errors.New("parent category not found")
	ErrCategoryNameTaken      = errors.New("category name already exists")
	ErrCategoryArchived       = errors.New("category is archived")
	ErrSelfParent             = errors.New("category cannot be parent of itself")

	ErrExpenseNotFound      = errors.New("expense not found")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrInvalidPaymentSource = errors.New("payment_source must be CASH, CARD or BANK")

	ErrUnsupportedReceiptType = errors.New("only images or PDF allowed")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
)

// Validation constants
const (
	MaxCategoryNameLength = 120
	MaxCommentLength      = 500
)
