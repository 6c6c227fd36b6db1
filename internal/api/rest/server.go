// Package rest exposes the marketplace over HTTP with echo.
package rest

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/Leganyst/easycars/internal/access"
	"github.com/Leganyst/easycars/internal/activity"
	"github.com/Leganyst/easycars/internal/auth"
	"github.com/Leganyst/easycars/internal/service"
)

// Deps is everything the HTTP layer talks to.
type Deps struct {
	DB     *gorm.DB
	Log    *zap.Logger
	Tokens *auth.Issuer
	Hub    *activity.Hub

	Identity    *service.IdentityService
	Cars        *service.CarService
	Rentals     *service.RentalService
	Sales       *service.SaleService
	Dealerships *service.DealershipService
	Forum       *service.ForumService
	Activity    *service.ActivityService

	CORSOrigins []string
	// Requests per second per client on /api/auth; 0 disables the limit.
	AuthRateLimit int
}

// NewServer builds the echo instance with middleware and routes.
func NewServer(d Deps) *echo.Echo {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = errorHandler(d.Log)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(accessLog(d.Log))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: d.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(middleware.Secure())
	e.Use(requestMeta())

	h := &handlers{Deps: d}

	e.GET("/health", h.health)

	api := e.Group("/api")

	authGroup := api.Group("/auth")
	if d.AuthRateLimit > 0 {
		authGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(d.AuthRateLimit))))
	}
	authGroup.POST("/register", h.register)
	authGroup.POST("/login", h.login)

	jwtAuth := jwtMiddleware(d.Tokens, "header:Authorization:Bearer ")
	// browsers cannot set headers on a websocket upgrade
	streamAuth := jwtMiddleware(d.Tokens, "header:Authorization:Bearer ,query:token")
	secured := []echo.MiddlewareFunc{jwtAuth, withActor()}
	admin := []echo.MiddlewareFunc{jwtAuth, withActor(), RequireRole(access.RoleAdmin)}

	authGroup.GET("/me", h.me, secured...)

	// public catalogue
	api.GET("/cars", h.listCars)
	api.GET("/cars/featured", h.featuredCars)
	api.GET("/cars/mine", h.myCars, secured...)
	api.GET("/cars/:id", h.getCar)
	api.POST("/cars", h.createCar, secured...)
	api.PUT("/cars/:id", h.updateCar, secured...)
	api.DELETE("/cars/:id", h.deleteCar, secured...)

	rentals := api.Group("/rentals", secured...)
	rentals.GET("", h.listRentals)
	rentals.POST("", h.createRental)
	rentals.GET("/:id", h.getRental)
	rentals.PUT("/:id/cancel", h.cancelRental)
	rentals.PUT("/:id/activate", h.activateRental)
	rentals.PUT("/:id/complete", h.completeRental)
	rentals.DELETE("/:id", h.deleteRental)

	sales := api.Group("/sales", secured...)
	sales.GET("", h.listSales)
	sales.POST("", h.createSale)
	sales.GET("/:id", h.getSale)
	sales.DELETE("/:id", h.deleteSale)

	users := api.Group("/users", secured...)
	users.GET("/me", h.me)
	users.PUT("/me", h.updateMe)
	users.GET("/me/rentals", h.myRentals)
	users.GET("/me/sales", h.mySales)
	users.GET("", h.listUsers)
	users.GET("/:id", h.getUser)
	users.PUT("/:id/role", h.setRole)
	users.DELETE("/:id", h.deleteUser)

	api.GET("/dealerships", h.listDealerships)
	api.GET("/dealerships/:id", h.getDealership)
	api.POST("/dealerships", h.createDealership, admin...)
	api.PUT("/dealerships/:id", h.updateDealership, admin...)
	api.DELETE("/dealerships/:id", h.deleteDealership, admin...)

	api.GET("/forum", h.listPosts)
	api.GET("/forum/:id", h.getPost)
	api.POST("/forum", h.createPost, secured...)
	api.POST("/forum/:id/comments", h.addComment, secured...)
	api.POST("/forum/:id/like", h.toggleLike, secured...)
	api.DELETE("/forum/:id", h.deletePost, secured...)

	api.GET("/logs", h.listLogs, secured...)
	api.GET("/logs/stream", h.streamLogs, streamAuth, withActor())

	return e
}

func jwtMiddleware(tokens *auth.Issuer, lookup string) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:    tokens.Secret(),
		SigningMethod: jwt.SigningMethodHS256.Alg(),
		NewClaimsFunc: func(echo.Context) jwt.Claims { return &auth.Claims{} },
		TokenLookup:   lookup,
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		},
	})
}

type handlers struct {
	Deps
}

func (h *handlers) health(c echo.Context) error {
	sqlDB, err := h.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request().Context())
	}
	if err != nil {
		h.Log.Warn("health check failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, envelope{Success: false, Message: "database unavailable"})
	}
	return c.JSON(http.StatusOK, envelope{Success: true, Message: "ok"})
}
