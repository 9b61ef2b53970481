package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shurale/expense-backend/internal/domain"
)

type stubResolver struct {
	user    *domain.User
	session *domain.Session
	err     error
	token   string
}

func (s *stubResolver) Authenticate(token string) (*domain.User, *domain.Session, error) {
	s.token = token
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.user, s.session, nil
}

func newAuthTestContext(authHeader string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/expenses", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthenticate_SetsActorAndSession(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Email: "admin@local", Role: domain.RoleAdmin}
	session := &domain.Session{ID: uuid.New(), UserID: user.ID}
	resolver := &stubResolver{user: user, session: session}
	m := NewAuthMiddleware(resolver)

	c, _ := newAuthTestContext("Bearer exp_sometoken")

	called := false
	err := m.Authenticate()(func(c echo.Context) error {
		called = true
		return nil
	})(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !called {
		t.Fatal("Expected next handler to run")
	}
	if resolver.token != "exp_sometoken" {
		t.Errorf("Expected raw token to reach the resolver, got %q", resolver.token)
	}

	actor := GetActor(c)
	if actor.ID != user.ID || actor.Role != domain.RoleAdmin {
		t.Errorf("Expected actor from session, got %+v", actor)
	}
	if got, ok := c.Get(SessionIDKey).(uuid.UUID); !ok || got != session.ID {
		t.Error("Expected session id in context")
	}
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	m := NewAuthMiddleware(&stubResolver{})
	c, _ := newAuthTestContext("")

	err := m.Authenticate()(func(c echo.Context) error { return nil })(c)

	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 HTTPError, got %v", err)
	}
}

func TestAuthenticate_BadScheme(t *testing.T) {
	m := NewAuthMiddleware(&stubResolver{})
	c, _ := newAuthTestContext("Basic dXNlcjpwYXNz")

	err := m.Authenticate()(func(c echo.Context) error { return nil })(c)

	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 HTTPError, got %v", err)
	}
}

func TestAuthenticate_ResolverError(t *testing.T) {
	m := NewAuthMiddleware(&stubResolver{err: domain.ErrSessionExpired})
	c, _ := newAuthTestContext("Bearer exp_expired")

	err := m.Authenticate()(func(c echo.Context) error { return nil })(c)

	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 HTTPError, got %v", err)
	}
}

func TestRequireAdmin(t *testing.T) {
	e := echo.New()

	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	req := httptest.NewRequest(http.MethodPost, "/categories", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.Set(ActorKey, domain.Actor{ID: uuid.New(), Role: domain.RoleManager})
	err := RequireAdmin()(next)(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 HTTPError for manager, got %v", err)
	}

	c = e.NewContext(req, httptest.NewRecorder())
	c.Set(ActorKey, domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin})
	if err := RequireAdmin()(next)(c); err != nil {
		t.Fatalf("Expected admin to pass, got %v", err)
	}
}

func TestGetActor_Unset(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	actor := GetActor(c)
	if actor.ID != uuid.Nil || actor.Role.IsAdmin() {
		t.Errorf("Expected zero actor, got %+v", actor)
	}
}
