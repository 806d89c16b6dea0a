package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kersko/storefront/internal/logging"
	mwauth "github.com/kersko/storefront/internal/middleware/auth"
	"github.com/kersko/storefront/internal/service"
	"github.com/kersko/storefront/internal/util"
)

type InvoiceHTTP struct {
	Svc *service.InvoiceService
}

// Overview lists the caller's invoices, newest first, without items.
func (h *InvoiceHTTP) Overview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "invoice.overview")

	userID, err := mwauth.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	invoices, err := h.Svc.Overview(ctx, userID, limit, offset)
	if err != nil {
		l.Error("invoice_overview_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, invoices)
}

func (h *InvoiceHTTP) Detail(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "invoice.detail")

	userID, err := mwauth.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	id := util.ParseIntDefault(c.Param("id"), 0)
	if id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid invoice id")
	}

	invoice, items, err := h.Svc.Detail(ctx, userID, mwauth.Role(c), uint(id))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "invoice not found")
		case errors.Is(err, service.ErrForbidden):
			l.Warn("invoice_detail_error", "status", 403, "invoice_id", id)
			return echo.NewHTTPError(http.StatusForbidden, "not your invoice")
		default:
			l.Error("invoice_detail_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"invoice": invoice,
		"items":   items,
	})
}

// All is the admin view over every invoice.
func (h *InvoiceHTTP) All(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "invoice.all")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	invoices, err := h.Svc.All(ctx, limit, offset)
	if err != nil {
		l.Error("invoice_all_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, invoices)
}
