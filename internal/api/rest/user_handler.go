package rest

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Leganyst/easycars/internal/service"
)

type setRoleReq struct {
	Role string `json:"role" validate:"required,oneof=user dealership_manager admin"`
}

func (h *handlers) listUsers(c echo.Context) error {
	page, err := h.Identity.ListUsers(c.Request().Context(), actorOf(c), pageParams(c))
	if err != nil {
		return err
	}
	return okPage(c, page)
}

func (h *handlers) getUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	u, err := h.Identity.GetUser(c.Request().Context(), actorOf(c), id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, u)
}

func (h *handlers) setRole(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req setRoleReq
	if err := bind(c, &req); err != nil {
		return err
	}
	u, err := h.Identity.SetRole(c.Request().Context(), actorOf(c), id, req.Role)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, u)
}

func (h *handlers) deleteUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.Identity.DeleteUser(c.Request().Context(), actorOf(c), id); err != nil {
		return err
	}
	return okMessage(c, "user deleted")
}

// GET /api/users/me/rentals
func (h *handlers) myRentals(c echo.Context) error {
	page, err := h.Rentals.ListRentals(c.Request().Context(), actorOf(c), service.RentalQuery{Mine: true}, pageParams(c))
	if err != nil {
		return err
	}
	return okPage(c, page)
}

// GET /api/users/me/sales
func (h *handlers) mySales(c echo.Context) error {
	page, err := h.Sales.ListSales(c.Request().Context(), actorOf(c), service.SaleQuery{Mine: true}, pageParams(c))
	if err != nil {
		return err
	}
	return okPage(c, page)
}
