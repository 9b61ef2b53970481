package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is a server-side login session. Only a SHA-256 hash of the bearer
// token is stored; the raw token is returned once at login.
type Session struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	TokenHash string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionRepository defines the interface for session persistence operations
type SessionRepository interface {
	Create(session *Session) (*Session, error)
	GetByTokenHash(hash string) (*Session, error)
	Delete(id uuid.UUID) error
}
