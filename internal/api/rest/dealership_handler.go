package rest

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Leganyst/easycars/internal/model"
	"github.com/Leganyst/easycars/internal/service"
)

type dealershipReq struct {
	Name        string        `json:"name" validate:"required"`
	Address     model.Address `json:"address"`
	Phone       string        `json:"phone" validate:"required"`
	Email       string        `json:"email" validate:"required,email"`
	Website     string        `json:"website"`
	Description string        `json:"description"`
	Images      []string      `json:"images"`
	Rating      float64       `json:"rating" validate:"gte=0,lte=5"`
}

type dealershipPatchReq struct {
	Name        *string        `json:"name"`
	Address     *model.Address `json:"address"`
	Phone       *string        `json:"phone"`
	Email       *string        `json:"email" validate:"omitempty,email"`
	Website     *string        `json:"website"`
	Description *string        `json:"description"`
	Images      *[]string      `json:"images"`
	Rating      *float64       `json:"rating" validate:"omitempty,gte=0,lte=5"`
}

// GET /api/dealerships?city=
func (h *handlers) listDealerships(c echo.Context) error {
	page, err := h.Dealerships.List(c.Request().Context(), c.QueryParam("city"), pageParams(c))
	if err != nil {
		return err
	}
	return okPage(c, page)
}

func (h *handlers) getDealership(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	d, err := h.Dealerships.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, d)
}

func (h *handlers) createDealership(c echo.Context) error {
	var req dealershipReq
	if err := bind(c, &req); err != nil {
		return err
	}
	d, err := h.Dealerships.Create(c.Request().Context(), actorOf(c), service.DealershipInput{
		Name:        req.Name,
		Address:     req.Address,
		Phone:       req.Phone,
		Email:       req.Email,
		Website:     req.Website,
		Description: req.Description,
		Images:      req.Images,
		Rating:      req.Rating,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, d)
}

func (h *handlers) updateDealership(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dealershipPatchReq
	if err := bind(c, &req); err != nil {
		return err
	}
	d, err := h.Dealerships.Update(c.Request().Context(), actorOf(c), id, service.DealershipPatch{
		Name:        req.Name,
		Address:     req.Address,
		Phone:       req.Phone,
		Email:       req.Email,
		Website:     req.Website,
		Description: req.Description,
		Images:      req.Images,
		Rating:      req.Rating,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, d)
}

func (h *handlers) deleteDealership(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.Dealerships.Delete(c.Request().Context(), actorOf(c), id); err != nil {
		return err
	}
	return okMessage(c, "dealership deleted")
}
