package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
)

// PrincipalKey is the echo.Context key under which the auth middleware stores
// the resolved *domain.Principal.
const PrincipalKey = "principal"

// principal returns the caller resolved by the auth middleware, or nil for
// anonymous requests. Capability checks are left to the service.
func principal(c echo.Context) *domain.Principal {
	p, _ := c.Get(PrincipalKey).(*domain.Principal)
	return p
}

// pathID parses the :id route parameter. Only positive integers are valid.
func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Invalid("invalid id")
	}
	return id, nil
}

// pageParam reads ?page=; anything missing or non-numeric yields 1.
func pageParam(c echo.Context) int {
	n, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
