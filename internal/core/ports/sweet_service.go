package ports

import (
	"context"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
)

// CreateSweetInput carries a new sweet. Price and Quantity are required;
// nil means the field was absent from the request.
type CreateSweetInput struct {
	Name     string
	Category string
	Price    *domain.Price
	Quantity *int64
}

// UpdateSweetInput carries a partial update; nil fields are not changed.
type UpdateSweetInput struct {
	Name     *string
	Category *string
	Price    *domain.Price
	Quantity *int64
}

// SearchSweetsInput holds raw query values. Price bounds that do not parse
// are ignored.
type SearchSweetsInput struct {
	Query    string
	Name     string
	Category string
	MinPrice string
	MaxPrice string
	Page     int
}

// PurchaseInput identifies a purchase. Quantity must be positive.
// IdempotencyKey is optional.
type PurchaseInput struct {
	SweetID        int64
	Quantity       int64
	IdempotencyKey string
}

// SweetPage is the paginated envelope returned by list and search.
type SweetPage struct {
	Data       []*domain.Sweet
	Page       int
	PerPage    int
	Total      int64
	TotalPages int
}

// MovementPage is the paginated envelope for ledger queries.
type MovementPage struct {
	Data       []*domain.StockMovement
	Page       int
	PerPage    int
	Total      int64
	TotalPages int
}

// SweetService is the inventory use-case boundary. Mutating operations take
// the caller principal and check the ADMIN capability themselves.
type SweetService interface {
	Create(ctx context.Context, actor *domain.Principal, input CreateSweetInput) (*domain.Sweet, error)
	Get(ctx context.Context, id int64) (*domain.Sweet, error)
	List(ctx context.Context, page int) (*SweetPage, error)
	Search(ctx context.Context, input SearchSweetsInput) (*SweetPage, error)
	Update(ctx context.Context, actor *domain.Principal, id int64, input UpdateSweetInput) (*domain.Sweet, error)
	Delete(ctx context.Context, actor *domain.Principal, id int64) error
	// Purchase is public; actor may be nil. replayed reports that the sweet
	// was served from an earlier purchase with the same idempotency key and
	// stock was left untouched.
	Purchase(ctx context.Context, actor *domain.Principal, input PurchaseInput) (sweet *domain.Sweet, replayed bool, err error)
	Restock(ctx context.Context, actor *domain.Principal, id int64, quantity int64) (*domain.Sweet, error)
	Movements(ctx context.Context, actor *domain.Principal, id int64, page int) (*MovementPage, error)
}
