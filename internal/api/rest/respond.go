package rest

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Leganyst/easycars/internal/pagination"
	"github.com/Leganyst/easycars/internal/service"
)

type envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Message string    `json:"message,omitempty"`
	Count   *int      `json:"count,omitempty"`
	Page    *pageInfo `json:"page,omitempty"`
}

type pageInfo struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
	HasNext  bool  `json:"hasNext"`
	HasPrev  bool  `json:"hasPrev"`
}

func ok(c echo.Context, status int, data any) error {
	return c.JSON(status, envelope{Success: true, Data: data})
}

func okMessage(c echo.Context, message string) error {
	return c.JSON(http.StatusOK, envelope{Success: true, Data: struct{}{}, Message: message})
}

func okList[T any](c echo.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	n := len(items)
	return c.JSON(http.StatusOK, envelope{Success: true, Data: items, Count: &n})
}

func okPage[T any](c echo.Context, p pagination.Page[T]) error {
	n := len(p.Items)
	return c.JSON(http.StatusOK, envelope{
		Success: true,
		Data:    p.Items,
		Count:   &n,
		Page: &pageInfo{
			Page:     p.Page,
			PageSize: p.PageSize,
			Total:    p.Total,
			HasNext:  p.HasNext,
			HasPrev:  p.HasPrev,
		},
	})
}

// statusOf maps a service error kind to its HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidState), errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// errorHandler renders every failure in the response envelope. Unknown
// errors are logged and hidden behind a generic message.
func errorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "internal server error"

		var he *echo.HTTPError
		var se *service.Error
		switch {
		case errors.As(err, &he):
			status = he.Code
			if m, isStr := he.Message.(string); isStr {
				message = m
			} else {
				message = http.StatusText(he.Code)
			}
		case errors.As(err, &se):
			status = statusOf(se)
			message = se.Msg
		default:
			if s := statusOf(err); s != http.StatusInternalServerError {
				status, message = s, err.Error()
			}
		}

		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.Error(err),
				zap.String("req_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
			)
		}

		body := envelope{Success: false, Message: message}
		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			log.Warn("write error response", zap.Error(werr))
		}
	}
}
