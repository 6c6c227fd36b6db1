package rest

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/Leganyst/easycars/internal/pagination"
)

// pageParams reads ?page=&limit=; bad values fall back to defaults.
func pageParams(c echo.Context) pagination.Params {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	return pagination.New(page, limit)
}

func badQuery(name string) error {
	return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameter "+name)
}

func queryBool(c echo.Context, name string) (*bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, badQuery(name)
	}
	return &v, nil
}

func queryInt(c echo.Context, name string) (*int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, badQuery(name)
	}
	return &v, nil
}

func queryDecimal(c echo.Context, name string) (*decimal.Decimal, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, badQuery(name)
	}
	return &v, nil
}

func queryUUID(c echo.Context, name string) (*uuid.UUID, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := uuid.Parse(raw)
	if err != nil {
		return nil, badQuery(name)
	}
	return &v, nil
}
