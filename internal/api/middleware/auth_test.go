package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/taskhub/task-api/internal/core/domain"
)

type stubAuthenticator struct {
	users map[string]*domain.User // token -> user
	err   error
	calls int
}

func (s *stubAuthenticator) Authenticate(_ context.Context, token string) (*domain.User, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	u, ok := s.users[token]
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return u, nil
}

func newAuthContext(header string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	alice := &domain.User{ID: "u1", Name: "alice"}
	auth := &stubAuthenticator{users: map[string]*domain.User{"tok-1": alice}}
	c, rec := newAuthContext("Bearer tok-1")

	called := false
	handler := Auth(auth)(func(c echo.Context) error {
		called = true
		if c.Get(ContextUser) != alice {
			t.Fatalf("user not set")
		}
		if c.Get(ContextToken) != "tok-1" {
			t.Fatalf("token not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_SchemeIsCaseInsensitive(t *testing.T) {
	auth := &stubAuthenticator{users: map[string]*domain.User{"tok-1": {ID: "u1"}}}
	c, _ := newAuthContext("bearer tok-1")

	handler := Auth(auth)(func(c echo.Context) error { return nil })
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Token tok-1",
		"empty token":    "Bearer ",
		"unknown token":  "Bearer revoked",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			auth := &stubAuthenticator{users: map[string]*domain.User{"tok-1": {ID: "u1"}}}
			c, _ := newAuthContext(header)

			handler := Auth(auth)(func(c echo.Context) error {
				t.Fatalf("should not reach next")
				return nil
			})

			if err := handler(c); !errors.Is(err, domain.ErrUnauthenticated) {
				t.Fatalf("expected ErrUnauthenticated, got %v", err)
			}
		})
	}
}

func TestAuthMiddleware_MalformedHeaderSkipsLookup(t *testing.T) {
	auth := &stubAuthenticator{}
	c, _ := newAuthContext("Basic abc")

	_ = Auth(auth)(func(c echo.Context) error { return nil })(c)
	if auth.calls != 0 {
		t.Fatalf("authenticator must not be called for a malformed header")
	}
}

func TestAuthMiddleware_StoreFailurePassesThrough(t *testing.T) {
	storeErr := errors.Join(domain.ErrPersistence, errors.New("connection reset"))
	auth := &stubAuthenticator{err: storeErr}
	c, _ := newAuthContext("Bearer tok-1")

	err := Auth(auth)(func(c echo.Context) error { return nil })(c)
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}
