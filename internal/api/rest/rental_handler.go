package rest

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Leganyst/easycars/internal/access"
	"github.com/Leganyst/easycars/internal/model"
	"github.com/Leganyst/easycars/internal/service"
)

type createRentalReq struct {
	CarID         uuid.UUID `json:"carId" validate:"required"`
	StartDate     string    `json:"startDate" validate:"required"`
	EndDate       string    `json:"endDate" validate:"required"`
	PaymentMethod string    `json:"paymentMethod" validate:"omitempty,oneof=cash credit_card debit_card paypal"`
}

// POST /api/rentals
func (h *handlers) createRental(c echo.Context) error {
	var req createRentalReq
	if err := bind(c, &req); err != nil {
		return err
	}
	start, err := parseDate("startDate", req.StartDate)
	if err != nil {
		return err
	}
	end, err := parseDate("endDate", req.EndDate)
	if err != nil {
		return err
	}

	r, err := h.Rentals.CreateRental(c.Request().Context(), actorOf(c), service.CreateRentalInput{
		CarID:         req.CarID,
		StartDate:     start,
		EndDate:       end,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, r)
}

// GET /api/rentals?carId=&status=
func (h *handlers) listRentals(c echo.Context) error {
	carID, err := queryUUID(c, "carId")
	if err != nil {
		return err
	}
	q := service.RentalQuery{CarID: carID, Status: model.RentalStatus(c.QueryParam("status"))}
	page, err := h.Rentals.ListRentals(c.Request().Context(), actorOf(c), q, pageParams(c))
	if err != nil {
		return err
	}
	return okPage(c, page)
}

func (h *handlers) getRental(c echo.Context) error {
	return h.rentalAction(c, h.Rentals.GetRental)
}

// PUT /api/rentals/:id/cancel
func (h *handlers) cancelRental(c echo.Context) error {
	return h.rentalAction(c, h.Rentals.CancelRental)
}

func (h *handlers) activateRental(c echo.Context) error {
	return h.rentalAction(c, h.Rentals.ActivateRental)
}

func (h *handlers) completeRental(c echo.Context) error {
	return h.rentalAction(c, h.Rentals.CompleteRental)
}

// DELETE /api/rentals/:id
func (h *handlers) deleteRental(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.Rentals.DeleteRental(c.Request().Context(), actorOf(c), id); err != nil {
		return err
	}
	return okMessage(c, "rental deleted")
}

type rentalOp func(ctx context.Context, actor access.Actor, id uuid.UUID) (*model.Rental, error)

func (h *handlers) rentalAction(c echo.Context, op rentalOp) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	r, err := op(c.Request().Context(), actorOf(c), id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, r)
}
