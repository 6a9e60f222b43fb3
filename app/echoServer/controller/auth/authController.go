package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/hotrolaptrinh/QLThuVien/model"
	authsvc "github.com/hotrolaptrinh/QLThuVien/service/auth"
	jwtutil "github.com/hotrolaptrinh/QLThuVien/util/jwt"
)

type Controller struct {
	Svc       authsvc.Service
	V         *validator.Validate
	Log       *slog.Logger
	JWTSecret string
}

// POST /v1/auth/register
func (h *Controller) Register(c echo.Context) error {
	var req model.RegisterReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	u, token, err := h.Svc.Register(c.Request().Context(), req, h.optionalRequester(c))
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrEmailTaken):
			return c.JSON(http.StatusConflict, echo.Map{"message": "email already registered"})
		case errors.Is(err, authsvc.ErrNeedAdmin):
			return c.JSON(http.StatusForbidden, echo.Map{"message": "only admins may create admin accounts"})
		case errors.Is(err, authsvc.ErrBadInput):
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "bad input"})
		default:
			h.Log.Error("register", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{"token": token, "user": u})
}

// POST /v1/auth/login
func (h *Controller) Login(c echo.Context) error {
	var req model.LoginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	u, token, err := h.Svc.Login(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, authsvc.ErrInvalidCreds) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid email or password"})
		}
		h.Log.Error("login", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"token": token, "user": u})
}

// optionalRequester resolves the caller from a bearer token when one is sent
// with the (public) register request. Creating an admin account requires it.
func (h *Controller) optionalRequester(c echo.Context) *model.User {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return nil
	}
	claims, err := jwtutil.ParseAuth(header, h.JWTSecret)
	if err != nil {
		return nil
	}
	role, _ := claims["role"].(string)
	return &model.User{Role: model.Role(role)}
}
