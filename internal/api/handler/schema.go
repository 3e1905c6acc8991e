package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"    validate:"required,notblank"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,notblank"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type meResponse struct {
	User *domain.Principal `json:"user"`
}

type healthResponse struct {
	OK bool `json:"ok"`
}

// numberField accepts a JSON number or a numeric string. Parsing is deferred
// so that a bad value becomes a validation error instead of a bind error.
type numberField struct {
	raw string
	set bool
}

func (n *numberField) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		return nil
	}
	if unq, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unq)
	}
	n.raw, n.set = raw, true
	return nil
}

// Int returns nil when the field was absent. Integral decimals such as "5.0"
// are accepted; fractional quantities are not.
func (n *numberField) Int(field string) (*int64, error) {
	if n == nil || !n.set {
		return nil, nil
	}
	if v, err := strconv.ParseInt(n.raw, 10, 64); err == nil {
		return &v, nil
	}
	f, err := strconv.ParseFloat(n.raw, 64)
	if err != nil || f != float64(int64(f)) || f > float64(domain.MaxQuantity) || f < -float64(domain.MaxQuantity) {
		return nil, domain.Invalid("%s must be an integer", field)
	}
	v := int64(f)
	return &v, nil
}

// Price returns nil when the field was absent.
func (n *numberField) Price() (*domain.Price, error) {
	if n == nil || !n.set {
		return nil, nil
	}
	p, err := domain.ParsePrice(n.raw)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type createSweetRequest struct {
	Name     string       `json:"name"`
	Category string       `json:"category"`
	Price    *numberField `json:"price"    swaggertype:"number"`
	Quantity *numberField `json:"quantity" swaggertype:"integer"`
}

type updateSweetRequest struct {
	Name     *string      `json:"name"`
	Category *string      `json:"category"`
	Price    *numberField `json:"price"    swaggertype:"number"`
	Quantity *numberField `json:"quantity" swaggertype:"integer"`
}

type quantityRequest struct {
	Quantity *numberField `json:"quantity" swaggertype:"integer"`
}

type sweetPageResponse struct {
	Data       []*domain.Sweet `json:"data"`
	Page       int             `json:"page"`
	PerPage    int             `json:"perPage"`
	Total      int64           `json:"total"`
	TotalPages int             `json:"totalPages"`
}

type movementPageResponse struct {
	Data       []*domain.StockMovement `json:"data"`
	Page       int                     `json:"page"`
	PerPage    int                     `json:"perPage"`
	Total      int64                   `json:"total"`
	TotalPages int                     `json:"totalPages"`
}
