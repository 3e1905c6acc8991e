package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
)

type MeHandler struct{}

func NewMeHandler() *MeHandler {
	return &MeHandler{}
}

// Get returns the caller as resolved from the bearer token.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  meResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/me [get]
func (h *MeHandler) Get(c echo.Context) error {
	p := principal(c)
	if p == nil {
		return domain.ErrUnauthorized
	}
	return c.JSON(http.StatusOK, meResponse{User: p})
}
