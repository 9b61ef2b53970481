package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shurale/expense-backend/internal/domain"
	"github.com/shurale/expense-backend/internal/middleware"
	"github.com/shurale/expense-backend/internal/service"
)

// AuthHandler handles authentication HTTP requests
type AuthHandler struct {
	authService *service.AuthService
	userService *service.UserService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *service.AuthService, userService *service.UserService) *AuthHandler {
	return &AuthHandler{authService: authService, userService: userService}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Login verifies credentials and issues a session token
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if req.Email == "" || req.Password == "" {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "email", Message: "Email and password are required"},
		})
	}

	result, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return NewUnauthorizedError(c, "Invalid email or password")
		}
		log.Error().Err(err).Msg("Failed to log in")
		return NewInternalError(c, "Failed to log in")
	}

	return c.JSON(http.StatusOK, LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt.UTC().Format(time.RFC3339),
		User:      toUserResponse(result.User),
	})
}

// Me returns the authenticated user
func (h *AuthHandler) Me(c echo.Context) error {
	actor := middleware.GetActor(c)
	user, err := h.userService.GetUser(actor.ID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return NewUnauthorizedError(c, "User no longer exists")
		}
		log.Error().Err(err).Msg("Failed to load user")
		return NewInternalError(c, "Failed to load user")
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Logout revokes the current session
func (h *AuthHandler) Logout(c echo.Context) error {
	sessionID, ok := c.Get(middleware.SessionIDKey).(uuid.UUID)
	if !ok {
		return NewUnauthorizedError(c, "No active session")
	}

	if err := h.authService.Logout(sessionID); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return c.NoContent(http.StatusNoContent)
		}
		log.Error().Err(err).Msg("Failed to log out")
		return NewInternalError(c, "Failed to log out")
	}

	return c.NoContent(http.StatusNoContent)
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:    u.ID.String(),
		Email: u.Email,
		Role:  string(u.Role),
	}
}
