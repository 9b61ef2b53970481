package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shurale/expense-backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

const (
	// sessionTokenPrefix is the prefix for all session tokens
	sessionTokenPrefix = "exp_"
	// sessionTokenRandomBytes is the number of random bytes per token (256 bits)
	sessionTokenRandomBytes = 32
)

// AuthService handles login, logout and session resolution
type AuthService struct {
	userRepo    domain.UserRepository
	sessionRepo domain.SessionRepository
	ttl         time.Duration
}

// NewAuthService creates a new AuthService with the given session lifetime
func NewAuthService(userRepo domain.UserRepository, sessionRepo domain.SessionRepository, ttl time.Duration) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		ttl:         ttl,
	}
}

// LoginResult carries the raw session token, returned only once
type LoginResult struct {
	Token     string
	User      *domain.User
	ExpiresAt time.Time
}

// Login verifies credentials and issues a new session token
func (s *AuthService) Login(email, password string) (*LoginResult, error) {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	raw, err := generateSessionToken()
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate session token")
		return nil, fmt.Errorf("generate session token: %w", err)
	}
	token := sessionTokenPrefix + raw

	session, err := s.sessionRepo.Create(&domain.Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: hashToken(token),
		ExpiresAt: time.Now().UTC().Add(s.ttl),
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", user.ID.String()).Str("role", string(user.Role)).Msg("User logged in")

	return &LoginResult{
		Token:     token,
		User:      user,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// Authenticate resolves a bearer token to its user and session
func (s *AuthService) Authenticate(token string) (*domain.User, *domain.Session, error) {
	if len(token) <= len(sessionTokenPrefix) || token[:len(sessionTokenPrefix)] != sessionTokenPrefix {
		return nil, nil, domain.ErrSessionNotFound
	}

	session, err := s.sessionRepo.GetByTokenHash(hashToken(token))
	if err != nil {
		return nil, nil, err
	}
	if time.Now().After(session.ExpiresAt) {
		return nil, nil, domain.ErrSessionExpired
	}

	user, err := s.userRepo.GetByID(session.UserID)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// Logout revokes a session
func (s *AuthService) Logout(sessionID uuid.UUID) error {
	return s.sessionRepo.Delete(sessionID)
}

// generateSessionToken generates a cryptographically secure random token
func generateSessionToken() (string, error) {
	bytes := make([]byte, sessionTokenRandomBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// hashToken creates a SHA-256 hash of the token
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", hash)
}
