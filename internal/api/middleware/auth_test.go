package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/sweetshop/sweetshop-api/internal/api/handler"
	"github.com/sweetshop/sweetshop-api/internal/core/domain"
)

type stubVerifier struct {
	principal *domain.Principal
	err       error
	header    string
}

func (s *stubVerifier) Verify(_ context.Context, authorization string) (*domain.Principal, error) {
	s.header = authorization
	return s.principal, s.err
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
	p := &domain.Principal{ID: 7, Email: "a@b.com", Role: domain.RoleAdmin}
	v := &stubVerifier{principal: p}
	c, rec := newAuthContext("Bearer abc")

	called := false
	h := Auth(v)(func(c echo.Context) error {
		called = true
		if c.Get(handler.PrincipalKey) != p {
			t.Fatalf("principal not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if v.header != "Bearer abc" {
		t.Fatalf("verifier got %q", v.header)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	for _, header := range []string{"", "Bearer bad"} {
		v := &stubVerifier{err: domain.ErrUnauthorized}
		c, _ := newAuthContext(header)

		h := Auth(v)(func(c echo.Context) error {
			t.Fatalf("next should not be called")
			return nil
		})
		if err := h(c); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("header %q: expected ErrUnauthorized, got %v", header, err)
		}
	}
}

func TestAuthMiddleware_StoreFailureIsUnauthorized(t *testing.T) {
	v := &stubVerifier{err: errors.New("db down")}
	c, _ := newAuthContext("Bearer abc")

	h := Auth(v)(func(c echo.Context) error { return nil })
	if err := h(c); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestOptionalAuth_Anonymous(t *testing.T) {
	v := &stubVerifier{err: errors.New("must not be called")}
	c, _ := newAuthContext("")

	called := false
	h := OptionalAuth(v)(func(c echo.Context) error {
		called = true
		if c.Get(handler.PrincipalKey) != nil {
			t.Fatalf("anonymous request must not carry a principal")
		}
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
}

func TestOptionalAuth_WithHeader(t *testing.T) {
	p := &domain.Principal{ID: 2, Role: domain.RoleUser}
	c, _ := newAuthContext("Bearer ok")

	h := OptionalAuth(&stubVerifier{principal: p})(func(c echo.Context) error {
		if c.Get(handler.PrincipalKey) != p {
			t.Fatalf("principal not set")
		}
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	c, _ = newAuthContext("Token nope")
	h = OptionalAuth(&stubVerifier{err: domain.ErrUnauthorized})(func(c echo.Context) error { return nil })
	if err := h(c); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for a bad header, got %v", err)
	}
}
