package category

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hotrolaptrinh/QLThuVien/model"
	categorysvc "github.com/hotrolaptrinh/QLThuVien/service/category"
)

type CategoryReq struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

type ListQuery struct {
	Search   string `query:"search"`
	Page     int    `query:"page"`
	PageSize int    `query:"pageSize"`
}

type Controller struct {
	Svc categorysvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// GET /v1/categories
func (h *Controller) List(c echo.Context) error {
	var q ListQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid query"})
	}
	items, total, err := h.Svc.List(c.Request().Context(), q.Search, q.Page, q.PageSize)
	if err != nil {
		h.Log.Error("category list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"page":     pageOrDefault(q.Page),
		"pageSize": sizeOrDefault(q.PageSize),
		"total":    total,
		"items":    items,
	})
}

func pageOrDefault(p int) int {
	if p < 1 {
		return 1
	}
	return p
}

func sizeOrDefault(s int) int {
	if s < 1 {
		return 20
	}
	if s > 50 {
		return 50
	}
	return s
}

// POST /v1/categories (admin)
func (h *Controller) Create(c echo.Context) error {
	var req CategoryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	cat := &model.Category{Name: req.Name, Description: req.Description}
	if err := h.Svc.Create(c.Request().Context(), cat); err != nil {
		if errors.Is(err, categorysvc.ErrBadInput) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid payload"})
		}
		h.Log.Error("category create", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusCreated, cat)
}

// PUT /v1/categories/:id (admin)
func (h *Controller) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req CategoryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	cat := &model.Category{ID: id, Name: req.Name, Description: req.Description}
	if err := h.Svc.Update(c.Request().Context(), cat); err != nil {
		switch {
		case errors.Is(err, categorysvc.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"message": "category not found"})
		case errors.Is(err, categorysvc.ErrBadInput):
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid payload"})
		default:
			h.Log.Error("category update", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, cat)
}

// DELETE /v1/categories/:id (admin)
func (h *Controller) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, categorysvc.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "category not found"})
		}
		h.Log.Error("category delete", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.NoContent(http.StatusNoContent)
}
