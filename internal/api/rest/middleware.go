package rest

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Leganyst/easycars/internal/access"
	"github.com/Leganyst/easycars/internal/activity"
	"github.com/Leganyst/easycars/internal/auth"
)

const actorKey = "actor"

// accessLog writes one line per request.
func accessLog(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// let the error handler set the final status first
				c.Error(err)
			}

			log.Info("http",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Int("status", c.Response().Status),
				zap.Int64("latency_ms", time.Since(start).Milliseconds()),
				zap.String("req_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.String("ip", c.RealIP()),
				zap.String("ua", c.Request().UserAgent()),
			)
			return nil
		}
	}
}

// requestMeta carries caller IP and user agent to the activity sink.
func requestMeta() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := activity.WithMeta(req.Context(), activity.Meta{
				IP:        c.RealIP(),
				UserAgent: req.UserAgent(),
			})
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}

// withActor turns the verified token into an access.Actor.
func withActor() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tok, ok := c.Get("user").(*jwt.Token)
			if !ok || tok == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			claims, ok := tok.Claims.(*auth.Claims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			id, err := claims.UserID()
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			role, err := access.ParseRole(claims.Role)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			c.Set(actorKey, access.Actor{UserID: id, Role: role})
			return next(c)
		}
	}
}

// RequireRole rejects actors whose role is not listed.
func RequireRole(roles ...access.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			a := actorOf(c)
			for _, r := range roles {
				if a.Role == r {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
		}
	}
}

// actorOf returns the zero Actor on public routes; services reject it
// where a caller is required.
func actorOf(c echo.Context) access.Actor {
	a, _ := c.Get(actorKey).(access.Actor)
	return a
}
