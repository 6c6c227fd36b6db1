package rest

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Leganyst/easycars/internal/service"
)

type createSaleReq struct {
	CarID         uuid.UUID `json:"carId" validate:"required"`
	PaymentMethod string    `json:"paymentMethod" validate:"required,oneof=cash bank_transfer financing"`
	Notes         string    `json:"notes" validate:"max=1000"`
}

// POST /api/sales
func (h *handlers) createSale(c echo.Context) error {
	var req createSaleReq
	if err := bind(c, &req); err != nil {
		return err
	}
	sale, err := h.Sales.CreateSale(c.Request().Context(), actorOf(c), service.CreateSaleInput{
		CarID:         req.CarID,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, sale)
}

func (h *handlers) listSales(c echo.Context) error {
	carID, err := queryUUID(c, "carId")
	if err != nil {
		return err
	}
	page, err := h.Sales.ListSales(c.Request().Context(), actorOf(c), service.SaleQuery{CarID: carID}, pageParams(c))
	if err != nil {
		return err
	}
	return okPage(c, page)
}

func (h *handlers) getSale(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	sale, err := h.Sales.GetSale(c.Request().Context(), actorOf(c), id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, sale)
}

// DELETE /api/sales/:id
func (h *handlers) deleteSale(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.Sales.DeleteSale(c.Request().Context(), actorOf(c), id); err != nil {
		return err
	}
	return okMessage(c, "sale deleted")
}
