package borrow

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hotrolaptrinh/QLThuVien/app/echoServer/jwtx"
	"github.com/hotrolaptrinh/QLThuVien/model"
	borrowsvc "github.com/hotrolaptrinh/QLThuVien/service/borrow"
)

type Controller struct {
	Svc borrowsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/borrowings
func (h *Controller) Create(c echo.Context) error {
	var req CreateBorrowReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	items := make([]borrowsvc.Item, len(req.Items))
	for i, it := range req.Items {
		id, err := uuid.Parse(it.BookID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid book id", "book_id": it.BookID})
		}
		items[i] = borrowsvc.Item{BookID: id, Quantity: it.Quantity}
	}

	out, err := h.Svc.Create(c.Request().Context(), h.caller(c), items, req.Notes, req.ExpectedReturnDate)
	if err != nil {
		return h.writeErr(c, "borrow create", err)
	}
	return c.JSON(http.StatusCreated, out)
}

// GET /v1/borrowings
func (h *Controller) List(c echo.Context) error {
	out, err := h.Svc.List(c.Request().Context(), h.caller(c))
	if err != nil {
		return h.writeErr(c, "borrow list", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// PATCH /v1/borrowings/:id (admin)
func (h *Controller) Transition(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req TransitionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	out, err := h.Svc.Transition(c.Request().Context(), h.caller(c), id, model.BorrowStatus(req.Status), req.Notes)
	if err != nil {
		return h.writeErr(c, "borrow transition", err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Controller) caller(c echo.Context) borrowsvc.Caller {
	uid, _ := jwtx.UserIDFromContext(c)
	return borrowsvc.Caller{ID: uid, Role: model.Role(jwtx.RoleFromContext(c))}
}

func (h *Controller) writeErr(c echo.Context, op string, err error) error {
	switch borrowsvc.Code(err) {
	case borrowsvc.ErrNoItems:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "at least one item is required"})
	case borrowsvc.ErrBadQuantity:
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "quantity must be positive",
			"book_id": borrowsvc.OffendingBook(err),
		})
	case borrowsvc.ErrBookNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{
			"message": "book not found",
			"book_id": borrowsvc.OffendingBook(err),
		})
	case borrowsvc.ErrNoStock:
		return c.JSON(http.StatusConflict, echo.Map{
			"message": "insufficient stock",
			"book_id": borrowsvc.OffendingBook(err),
		})
	case borrowsvc.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": "borrowing not found"})
	case borrowsvc.ErrBadTransition:
		return c.JSON(http.StatusConflict, echo.Map{"message": "transition not valid from current status"})
	case borrowsvc.ErrForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	case borrowsvc.ErrNoCaller:
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	default:
		h.Log.Error(op, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}
