package handler

import (
	"github.com/sweetshop/sweetshop-api/internal/core/domain"
	"github.com/sweetshop/sweetshop-api/internal/core/ports"
)

// --- Request → Service input ---

func toCreateInput(req createSweetRequest) (ports.CreateSweetInput, error) {
	price, err := req.Price.Price()
	if err != nil {
		return ports.CreateSweetInput{}, err
	}
	qty, err := req.Quantity.Int("quantity")
	if err != nil {
		return ports.CreateSweetInput{}, err
	}
	return ports.CreateSweetInput{
		Name:     req.Name,
		Category: req.Category,
		Price:    price,
		Quantity: qty,
	}, nil
}

func toUpdateInput(req updateSweetRequest) (ports.UpdateSweetInput, error) {
	price, err := req.Price.Price()
	if err != nil {
		return ports.UpdateSweetInput{}, err
	}
	qty, err := req.Quantity.Int("quantity")
	if err != nil {
		return ports.UpdateSweetInput{}, err
	}
	return ports.UpdateSweetInput{
		Name:     req.Name,
		Category: req.Category,
		Price:    price,
		Quantity: qty,
	}, nil
}

// adjustmentQuantity resolves a purchase or restock body. def applies when
// the field is absent; zero means the field is required.
func adjustmentQuantity(req quantityRequest, def int64) (int64, error) {
	qty, err := req.Quantity.Int("quantity")
	if err != nil {
		return 0, err
	}
	if qty == nil {
		if def == 0 {
			return 0, domain.Invalid("quantity is required")
		}
		return def, nil
	}
	return *qty, nil
}

// --- Service result → HTTP response ---

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt.UTC(),
	}
}

func toSweetPageResponse(p *ports.SweetPage) sweetPageResponse {
	return sweetPageResponse{
		Data:       p.Data,
		Page:       p.Page,
		PerPage:    p.PerPage,
		Total:      p.Total,
		TotalPages: p.TotalPages,
	}
}

func toMovementPageResponse(p *ports.MovementPage) movementPageResponse {
	return movementPageResponse{
		Data:       p.Data,
		Page:       p.Page,
		PerPage:    p.PerPage,
		Total:      p.Total,
		TotalPages: p.TotalPages,
	}
}
