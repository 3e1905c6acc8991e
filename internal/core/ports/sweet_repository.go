package ports

import (
	"context"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
)

// SweetFilter carries the search predicates. Empty strings and nil bounds
// are ignored; Query matches name OR category, all others are ANDed.
type SweetFilter struct {
	Query    string
	Name     string
	Category string
	MinPrice *domain.Price
	MaxPrice *domain.Price
}

// SweetPatch lists the fields to overwrite; nil fields are left untouched.
type SweetPatch struct {
	Name     *string
	Category *string
	Price    *domain.Price
	Quantity *int64
}

// Empty reports whether the patch changes nothing.
func (p SweetPatch) Empty() bool {
	return p.Name == nil && p.Category == nil && p.Price == nil && p.Quantity == nil
}

// SweetRepository is the inventory store. Every mutation targets exactly one
// row by primary key.
type SweetRepository interface {
	Create(ctx context.Context, sweet *domain.Sweet) (*domain.Sweet, error)
	FindByID(ctx context.Context, id int64) (*domain.Sweet, error)
	// List returns one page ordered by id ascending plus the total match count.
	List(ctx context.Context, filter SweetFilter, page domain.Page) ([]*domain.Sweet, int64, error)
	Update(ctx context.Context, id int64, patch SweetPatch) (*domain.Sweet, error)
	Delete(ctx context.Context, id int64) error
	// AdjustQuantity adds delta to the stored quantity in one conditional
	// write guarded by quantity+delta >= 0. It returns domain.ErrSweetNotFound
	// when the row is absent and domain.ErrInsufficientStock when the guard
	// rejects the write; in both cases nothing is modified.
	AdjustQuantity(ctx context.Context, id int64, delta int64) (*domain.Sweet, error)
}

// MovementRepository is the append-only stock ledger.
type MovementRepository interface {
	Append(ctx context.Context, m *domain.StockMovement) error
	// ListBySweet returns one page of movements for a sweet, newest first.
	ListBySweet(ctx context.Context, sweetID int64, page domain.Page) ([]*domain.StockMovement, int64, error)
}
