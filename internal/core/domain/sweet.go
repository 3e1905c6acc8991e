package domain

import "time"

const (
	// PerPage is the fixed page size for sweet listings and searches.
	PerPage = 10
	// MaxQuantity bounds any single stock figure or adjustment.
	MaxQuantity = 1_000_000_000
)

// Sweet is a stocked item. Quantity is the authoritative stock count and
// never drops below zero.
type Sweet struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Price     Price     `json:"price" swaggertype:"number"`
	Quantity  int64     `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MovementKind labels a stock ledger entry.
type MovementKind string

const (
	MovementPurchase MovementKind = "PURCHASE"
	MovementRestock  MovementKind = "RESTOCK"
)

// StockMovement records one applied purchase or restock.
type StockMovement struct {
	ID                int64        `json:"id"`
	SweetID           int64        `json:"sweetId"`
	Kind              MovementKind `json:"kind"`
	Quantity          int64        `json:"quantity"`
	ResultingQuantity int64        `json:"resultingQuantity"`
	ActorID           *int64       `json:"actorId,omitempty"`
	CreatedAt         time.Time    `json:"createdAt"`
}

// Page describes a 1-based window over an ordered result set.
type Page struct {
	Number  int
	PerPage int
}

// NewPage normalises a requested page number; anything below 1 becomes 1.
func NewPage(number int) Page {
	if number < 1 {
		number = 1
	}
	return Page{Number: number, PerPage: PerPage}
}

// Offset returns how many rows precede this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// TotalPages returns ceil(total / perPage).
func (p Page) TotalPages(total int64) int {
	if p.PerPage <= 0 {
		return 0
	}
	return int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
}
