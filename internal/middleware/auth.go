package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shurale/expense-backend/internal/domain"
)

const (
	// ActorKey is the echo context key for the authenticated actor
	ActorKey = "actor"
	// SessionIDKey is the echo context key for the session ID
	SessionIDKey = "session_id"
)

// ActorResolver resolves a bearer token to an authenticated user and session
type ActorResolver interface {
	Authenticate(token string) (*domain.User, *domain.Session, error)
}

// AuthMiddleware provides session token authentication
type AuthMiddleware struct {
	resolver ActorResolver
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(resolver ActorResolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver}
}

// Authenticate returns an Echo middleware that validates session tokens
func (m *AuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header format")
			}

			user, session, err := m.resolver.Authenticate(parts[1])
			if err != nil {
				log.Debug().Err(err).Msg("Token validation failed")
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			c.Set(ActorKey, domain.Actor{ID: user.ID, Role: user.Role})
			c.Set(SessionIDKey, session.ID)

			return next(c)
		}
	}
}

// GetActor extracts the authenticated actor from the context
func GetActor(c echo.Context) domain.Actor {
	if actor, ok := c.Get(ActorKey).(domain.Actor); ok {
		return actor
	}
	return domain.Actor{}
}

// RequireAdmin returns an Echo middleware that rejects non-admin actors
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !GetActor(c).Role.IsAdmin() {
				return echo.NewHTTPError(http.StatusForbidden, "admin role required")
			}
			return next(c)
		}
	}
}
