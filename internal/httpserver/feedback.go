package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kersko/storefront/internal/logging"
	mwauth "github.com/kersko/storefront/internal/middleware/auth"
	"github.com/kersko/storefront/internal/service"
	"github.com/kersko/storefront/internal/transport"
	"github.com/kersko/storefront/internal/util"
)

type FeedbackHTTP struct {
	Svc *service.FeedbackService
}

func (h *FeedbackHTTP) ListByProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "feedback.list")

	productID := util.ParseIntDefault(c.Param("id"), 0)
	if productID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	feedback, err := h.Svc.ListByProduct(ctx, uint(productID))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		l.Error("feedback_list_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, feedback)
}

func (h *FeedbackHTTP) Submit(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "feedback.submit")

	userID, err := mwauth.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	productID := util.ParseIntDefault(c.Param("id"), 0)
	if productID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	var req transport.FeedbackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	fb, err := h.Svc.Submit(ctx, userID, uint(productID), req.Rating, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, "rating must be between 1 and 5")
		case errors.Is(err, service.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		case errors.Is(err, service.ErrConflict):
			return echo.NewHTTPError(http.StatusConflict, "feedback already submitted for this product")
		default:
			l.Error("feedback_submit_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	l.Info("feedback_submitted", "product_id", productID, "rating", req.Rating)
	return c.JSON(http.StatusCreated, fb)
}

func (h *FeedbackHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "feedback.update")

	userID, err := mwauth.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	feedbackID := util.ParseIntDefault(c.Param("id"), 0)
	if feedbackID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid feedback id")
	}

	var req transport.FeedbackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	fb, err := h.Svc.Update(ctx, userID, uint(feedbackID), req.Rating, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, "rating must be between 1 and 5")
		case errors.Is(err, service.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "feedback not found")
		case errors.Is(err, service.ErrForbidden):
			return echo.NewHTTPError(http.StatusForbidden, "not your feedback")
		default:
			l.Error("feedback_update_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}
	return c.JSON(http.StatusOK, fb)
}

func (h *FeedbackHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "feedback.delete")

	userID, err := mwauth.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	feedbackID := util.ParseIntDefault(c.Param("id"), 0)
	if feedbackID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid feedback id")
	}

	if err := h.Svc.Delete(ctx, userID, mwauth.Role(c), uint(feedbackID)); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "feedback not found")
		case errors.Is(err, service.ErrForbidden):
			return echo.NewHTTPError(http.StatusForbidden, "not your feedback")
		default:
			l.Error("feedback_delete_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}
	return c.JSON(http.StatusOK, "feedback deleted")
}
