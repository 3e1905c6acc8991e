package middleware

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/sweetshop/sweetshop-api/internal/api/handler"
	"github.com/sweetshop/sweetshop-api/internal/core/domain"
)

// Verifier resolves a raw Authorization header to the live caller.
type Verifier interface {
	Verify(ctx context.Context, authorization string) (*domain.Principal, error)
}

// Auth requires a valid "Bearer <token>" header and stores the resolved
// principal in the context. Role checks are left to the service layer.
func Auth(v Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, err := v.Verify(c.Request().Context(), c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return domain.ErrUnauthorized
			}
			c.Set(handler.PrincipalKey, p)
			return next(c)
		}
	}
}

// OptionalAuth resolves the caller when an Authorization header is present
// and lets anonymous requests through. A header that fails verification is
// still rejected.
func OptionalAuth(v Verifier) echo.MiddlewareFunc {
	required := Auth(v)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		withAuth := required(next)
		return func(c echo.Context) error {
			if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
				return next(c)
			}
			return withAuth(c)
		}
	}
}
