package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sweetshop/sweetshop-api/internal/api/metrics"
	"github.com/sweetshop/sweetshop-api/internal/core/domain"
	"github.com/sweetshop/sweetshop-api/internal/core/ports"
)

// HeaderIdempotencyKey lets clients retry a purchase safely.
const HeaderIdempotencyKey = "Idempotency-Key"

const maxIdempotencyKeyLen = 128

// SweetHandler handles HTTP requests for the sweets inventory.
type SweetHandler struct {
	service ports.SweetService
}

func NewSweetHandler(service ports.SweetService) *SweetHandler {
	return &SweetHandler{service: service}
}

// List handles GET /api/sweets.
//
// @Summary      List sweets
// @Tags         sweets
// @Produce      json
// @Param        page  query     int  false  "1-based page number"
// @Success      200   {object}  sweetPageResponse
// @Router       /api/sweets [get]
func (h *SweetHandler) List(c echo.Context) error {
	page, err := h.service.List(c.Request().Context(), pageParam(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSweetPageResponse(page))
}

// Search handles GET /api/sweets/search.
//
// @Summary      Search sweets
// @Description  q matches name or category; the remaining filters are ANDed. Unparseable price bounds are ignored.
// @Tags         sweets
// @Produce      json
// @Param        q         query     string  false  "Free text over name or category"
// @Param        name      query     string  false  "Name substring"
// @Param        category  query     string  false  "Category substring"
// @Param        minPrice  query     number  false  "Inclusive lower price bound"
// @Param        maxPrice  query     number  false  "Inclusive upper price bound"
// @Param        page      query     int     false  "1-based page number"
// @Success      200       {object}  sweetPageResponse
// @Router       /api/sweets/search [get]
func (h *SweetHandler) Search(c echo.Context) error {
	page, err := h.service.Search(c.Request().Context(), ports.SearchSweetsInput{
		Query:    c.QueryParam("q"),
		Name:     c.QueryParam("name"),
		Category: c.QueryParam("category"),
		MinPrice: c.QueryParam("minPrice"),
		MaxPrice: c.QueryParam("maxPrice"),
		Page:     pageParam(c),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSweetPageResponse(page))
}

// Get handles GET /api/sweets/:id.
//
// @Summary      Get a sweet
// @Tags         sweets
// @Produce      json
// @Param        id   path      int  true  "Sweet id"
// @Success      200  {object}  domain.Sweet
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/sweets/{id} [get]
func (h *SweetHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	sweet, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sweet)
}

// Create handles POST /api/sweets.
//
// @Summary      Create a sweet
// @Tags         sweets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createSweetRequest  true  "Sweet"
// @Success      201   {object}  domain.Sweet
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /api/sweets [post]
func (h *SweetHandler) Create(c echo.Context) error {
	var req createSweetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload").SetInternal(err)
	}
	in, err := toCreateInput(req)
	if err != nil {
		return err
	}

	sweet, err := h.service.Create(c.Request().Context(), principal(c), in)
	if err != nil {
		return err
	}
	metrics.SweetsChangedTotal.WithLabelValues("create").Inc()
	return c.JSON(http.StatusCreated, sweet)
}

// Update handles PUT /api/sweets/:id. Only supplied fields change.
//
// @Summary      Update a sweet
// @Tags         sweets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                 true  "Sweet id"
// @Param        body  body      updateSweetRequest  true  "Fields to change"
// @Success      200   {object}  domain.Sweet
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/sweets/{id} [put]
func (h *SweetHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req updateSweetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload").SetInternal(err)
	}
	in, err := toUpdateInput(req)
	if err != nil {
		return err
	}

	sweet, err := h.service.Update(c.Request().Context(), principal(c), id, in)
	if err != nil {
		return err
	}
	metrics.SweetsChangedTotal.WithLabelValues("update").Inc()
	return c.JSON(http.StatusOK, sweet)
}

// Delete handles DELETE /api/sweets/:id.
//
// @Summary      Delete a sweet
// @Tags         sweets
// @Security     BearerAuth
// @Param        id  path  int  true  "Sweet id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/sweets/{id} [delete]
func (h *SweetHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), principal(c), id); err != nil {
		return err
	}
	metrics.SweetsChangedTotal.WithLabelValues("delete").Inc()
	return c.NoContent(http.StatusNoContent)
}

// Purchase handles POST /api/sweets/:id/purchase. The body is optional and
// quantity defaults to 1.
//
// @Summary      Purchase a sweet
// @Tags         sweets
// @Accept       json
// @Produce      json
// @Param        id               path      int              true   "Sweet id"
// @Param        Idempotency-Key  header    string           false  "Replays the first result for retries with the same key"
// @Param        body             body      quantityRequest  false  "Units to buy"
// @Success      200              {object}  domain.Sweet
// @Failure      400              {object}  errorResponse
// @Failure      404              {object}  errorResponse
// @Failure      409              {object}  errorResponse
// @Router       /api/sweets/{id}/purchase [post]
func (h *SweetHandler) Purchase(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req quantityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload").SetInternal(err)
	}
	qty, err := adjustmentQuantity(req, 1)
	if err != nil {
		metrics.PurchaseRejectionsTotal.WithLabelValues("invalid").Inc()
		return err
	}
	key := strings.TrimSpace(c.Request().Header.Get(HeaderIdempotencyKey))
	if len(key) > maxIdempotencyKeyLen {
		return domain.Invalid("idempotency key is too long")
	}

	sweet, replayed, err := h.service.Purchase(c.Request().Context(), principal(c), ports.PurchaseInput{
		SweetID:        id,
		Quantity:       qty,
		IdempotencyKey: key,
	})
	if err != nil {
		metrics.PurchaseRejectionsTotal.WithLabelValues(rejectionReason(err)).Inc()
		return err
	}

	if !replayed {
		metrics.StockAdjustmentsTotal.WithLabelValues("purchase").Inc()
		metrics.UnitsSoldTotal.Add(float64(qty))
	}
	return c.JSON(http.StatusOK, sweet)
}

// Restock handles POST /api/sweets/:id/restock.
//
// @Summary      Restock a sweet
// @Tags         sweets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int              true  "Sweet id"
// @Param        body  body      quantityRequest  true  "Units to add"
// @Success      200   {object}  domain.Sweet
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/sweets/{id}/restock [post]
func (h *SweetHandler) Restock(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req quantityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload").SetInternal(err)
	}
	qty, err := adjustmentQuantity(req, 0)
	if err != nil {
		return err
	}

	sweet, err := h.service.Restock(c.Request().Context(), principal(c), id, qty)
	if err != nil {
		return err
	}
	metrics.StockAdjustmentsTotal.WithLabelValues("restock").Inc()
	return c.JSON(http.StatusOK, sweet)
}

// Movements handles GET /api/sweets/:id/movements, newest first.
//
// @Summary      Stock ledger for a sweet
// @Tags         sweets
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int  true   "Sweet id"
// @Param        page  query     int  false  "1-based page number"
// @Success      200   {object}  movementPageResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/sweets/{id}/movements [get]
func (h *SweetHandler) Movements(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	page, err := h.service.Movements(c.Request().Context(), principal(c), id, pageParam(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toMovementPageResponse(page))
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrSweetNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrDuplicateRequest):
		return "duplicate"
	default:
		return "error"
	}
}
