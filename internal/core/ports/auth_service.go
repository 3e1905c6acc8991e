package ports

import (
	"context"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
)

// RegisterInput is the registration payload after transport decoding.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	// Login returns a signed session token. Unknown email and wrong password
	// both yield domain.ErrInvalidCredentials.
	Login(ctx context.Context, email, password string) (string, error)
	// EnsureAdmin creates an ADMIN account for email unless one already exists.
	EnsureAdmin(ctx context.Context, name, email, password string) (*domain.User, error)
}

// SessionService issues and verifies stateless bearer tokens.
type SessionService interface {
	Issue(user *domain.User) (string, error)
	// Verify accepts a raw Authorization header value of the exact form
	// "Bearer <token>" and resolves it against the live identity store.
	Verify(ctx context.Context, authorization string) (*domain.Principal, error)
}
