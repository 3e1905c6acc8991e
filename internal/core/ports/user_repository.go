package ports

import (
	"context"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
)

// UserRepository is the identity store.
type UserRepository interface {
	// Create inserts a user and returns it with its assigned id. A violated
	// email uniqueness constraint is reported as domain.ErrUserExists.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// FindByEmail matches the email exactly (case-sensitive).
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
}
