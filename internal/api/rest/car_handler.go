package rest

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/Leganyst/easycars/internal/model"
	"github.com/Leganyst/easycars/internal/repository"
	"github.com/Leganyst/easycars/internal/service"
)

type carReq struct {
	Make         string            `json:"make" validate:"required"`
	Model        string            `json:"model" validate:"required"`
	Year         int               `json:"year" validate:"required,gte=1900"`
	Color        string            `json:"color" validate:"required"`
	Mileage      int               `json:"mileage" validate:"gte=0"`
	Price        decimal.Decimal   `json:"price"`
	Description  string            `json:"description"`
	Images       []string          `json:"images"`
	Features     []string          `json:"features"`
	ForSale      bool              `json:"forSale"`
	ForRent      bool              `json:"forRent"`
	RentalPrice  model.RentalPrice `json:"rentalPrice"`
	Location     model.Address     `json:"location"`
	DealershipID *uuid.UUID        `json:"dealershipId"`
}

// carPatchReq: absent fields stay as they are. An empty dealershipId
// unlinks the car.
type carPatchReq struct {
	Make         *string            `json:"make"`
	Model        *string            `json:"model"`
	Year         *int               `json:"year"`
	Color        *string            `json:"color"`
	Mileage      *int               `json:"mileage"`
	Price        *decimal.Decimal   `json:"price"`
	Description  *string            `json:"description"`
	Images       *[]string          `json:"images"`
	Features     *[]string          `json:"features"`
	ForSale      *bool              `json:"forSale"`
	ForRent      *bool              `json:"forRent"`
	RentalPrice  *model.RentalPrice `json:"rentalPrice"`
	Location     *model.Address     `json:"location"`
	DealershipID *string            `json:"dealershipId"`
}

func (h *handlers) listCars(c echo.Context) error {
	f, err := carFilter(c)
	if err != nil {
		return err
	}
	page, err := h.Cars.ListCars(c.Request().Context(), f, pageParams(c))
	if err != nil {
		return err
	}
	return okPage(c, page)
}

func carFilter(c echo.Context) (repository.CarFilter, error) {
	f := repository.CarFilter{
		Make:  c.QueryParam("make"),
		Model: c.QueryParam("model"),
	}
	var err error
	if f.Year, err = queryInt(c, "year"); err != nil {
		return f, err
	}
	if f.MinPrice, err = queryDecimal(c, "minPrice"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = queryDecimal(c, "maxPrice"); err != nil {
		return f, err
	}
	if f.ForRent, err = queryBool(c, "forRent"); err != nil {
		return f, err
	}
	if f.ForSale, err = queryBool(c, "forSale"); err != nil {
		return f, err
	}
	if f.Available, err = queryBool(c, "available"); err != nil {
		return f, err
	}
	return f, nil
}

func (h *handlers) featuredCars(c echo.Context) error {
	cars, err := h.Cars.Featured(c.Request().Context())
	if err != nil {
		return err
	}
	return okList(c, cars)
}

func (h *handlers) myCars(c echo.Context) error {
	page, err := h.Cars.MyCars(c.Request().Context(), actorOf(c), pageParams(c))
	if err != nil {
		return err
	}
	return okPage(c, page)
}

func (h *handlers) getCar(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	car, err := h.Cars.GetCar(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, car)
}

func (h *handlers) createCar(c echo.Context) error {
	var req carReq
	if err := bind(c, &req); err != nil {
		return err
	}
	car, err := h.Cars.CreateCar(c.Request().Context(), actorOf(c), service.CarInput{
		Make:         req.Make,
		Model:        req.Model,
		Year:         req.Year,
		Color:        req.Color,
		Mileage:      req.Mileage,
		Price:        req.Price,
		Description:  req.Description,
		Images:       req.Images,
		Features:     req.Features,
		ForSale:      req.ForSale,
		ForRent:      req.ForRent,
		RentalPrice:  req.RentalPrice,
		Location:     req.Location,
		DealershipID: req.DealershipID,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, car)
}

func (h *handlers) updateCar(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req carPatchReq
	if err := bind(c, &req); err != nil {
		return err
	}
	patch := service.CarPatch{
		Make:        req.Make,
		Model:       req.Model,
		Year:        req.Year,
		Color:       req.Color,
		Mileage:     req.Mileage,
		Price:       req.Price,
		Description: req.Description,
		Images:      req.Images,
		Features:    req.Features,
		ForSale:     req.ForSale,
		ForRent:     req.ForRent,
		RentalPrice: req.RentalPrice,
		Location:    req.Location,
	}
	if req.DealershipID != nil {
		dealer := uuid.Nil
		if *req.DealershipID != "" {
			if dealer, err = uuid.Parse(*req.DealershipID); err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid dealershipId")
			}
		}
		patch.DealershipID = &dealer
	}

	car, err := h.Cars.UpdateCar(c.Request().Context(), actorOf(c), id, patch)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, car)
}

func (h *handlers) deleteCar(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.Cars.DeleteCar(c.Request().Context(), actorOf(c), id); err != nil {
		return err
	}
	return okMessage(c, "car deleted")
}
