package rest

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Leganyst/easycars/internal/model"
	"github.com/Leganyst/easycars/internal/service"
)

type registerReq struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	Phone     string `json:"phone"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type updateMeReq struct {
	FirstName      *string        `json:"firstName"`
	LastName       *string        `json:"lastName"`
	Phone          *string        `json:"phone"`
	ProfilePicture *string        `json:"profilePicture"`
	Address        *model.Address `json:"address"`
	Password       *string        `json:"password" validate:"omitempty,min=6"`
}

// POST /api/auth/register
func (h *handlers) register(c echo.Context) error {
	var req registerReq
	if err := bind(c, &req); err != nil {
		return err
	}
	sess, err := h.Identity.Register(c.Request().Context(), service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, sess)
}

// POST /api/auth/login
func (h *handlers) login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return err
	}
	sess, err := h.Identity.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, sess)
}

// GET /api/auth/me, GET /api/users/me
func (h *handlers) me(c echo.Context) error {
	u, err := h.Identity.Profile(c.Request().Context(), actorOf(c))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, u)
}

// PUT /api/users/me
func (h *handlers) updateMe(c echo.Context) error {
	var req updateMeReq
	if err := bind(c, &req); err != nil {
		return err
	}
	u, err := h.Identity.UpdateProfile(c.Request().Context(), actorOf(c), service.ProfilePatch{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Phone:          req.Phone,
		ProfilePicture: req.ProfilePicture,
		Address:        req.Address,
		Password:       req.Password,
	})
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, u)
}
