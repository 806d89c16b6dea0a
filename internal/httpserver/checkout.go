package httpserver

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kersko/storefront/internal/logging"
	mwauth "github.com/kersko/storefront/internal/middleware/auth"
	"github.com/kersko/storefront/internal/payment"
	"github.com/kersko/storefront/internal/service"
	"github.com/kersko/storefront/internal/transport"
)

type CheckoutHTTP struct {
	Svc *service.CheckoutService
}

// BeginCheckout starts a payment for the caller's cart. The response carries
// a provider redirect URL (PayPal) or an inline QR payload (NETS).
func (h *CheckoutHTTP) BeginCheckout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.begin")

	userID, err := mwauth.UserID(c)
	if err != nil {
		l.Error("begin_checkout_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("begin_checkout_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	resp, err := h.Svc.BeginCheckout(ctx, userID, mwauth.Role(c), req.Method)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrForbiddenRole):
			l.Warn("begin_checkout_error", "status", 403, "error", err)
			return echo.NewHTTPError(http.StatusForbidden, "administrators cannot make purchases")
		case errors.Is(err, service.ErrEmptyCart):
			l.Warn("begin_checkout_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "your cart is empty, add items before checking out")
		case errors.Is(err, service.ErrInvalidPaymentMethod):
			l.Warn("begin_checkout_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "invalid payment method selected")
		case errors.Is(err, service.ErrCheckoutInFlight):
			l.Warn("begin_checkout_error", "status", 409, "error", err)
			return echo.NewHTTPError(http.StatusConflict, "a checkout is already in progress")
		case errors.Is(err, service.ErrNotFound):
			l.Warn("begin_checkout_error", "status", 404, "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "a product in your cart is no longer available")
		case errors.Is(err, payment.ErrProviderAuth), errors.Is(err, payment.ErrProviderRequest):
			l.Error("begin_checkout_error", "status", 502, "error", err)
			return echo.NewHTTPError(http.StatusBadGateway, "payment provider unavailable, please try again")
		default:
			l.Error("begin_checkout_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	l.Info("checkout_started", "intent_id", resp.IntentID, "method", resp.Method)
	return c.JSON(http.StatusOK, resp)
}

// PayPalSuccess is the provider return URL: capture, then settle.
func (h *CheckoutHTTP) PayPalSuccess(c echo.Context) error {
	return h.settle(c, "checkout.paypal.success")
}

// PayPalCancel is the provider cancel URL; the intent is closed so a stale
// total cannot resurrect on a later retry.
func (h *CheckoutHTTP) PayPalCancel(c echo.Context) error {
	return h.fail(c, "checkout.paypal.cancel", "payment cancelled")
}

// NETSQRSuccess settles on bare navigation: the QR provider issues no
// verification token on its terminal routes, so there is nothing further to
// check with the provider. Ownership, intent state and the payment-ref
// uniqueness guard are the only protections on this path.
func (h *CheckoutHTTP) NETSQRSuccess(c echo.Context) error {
	return h.settle(c, "checkout.nets.success")
}

func (h *CheckoutHTTP) NETSQRFail(c echo.Context) error {
	return h.fail(c, "checkout.nets.fail", "transaction failed, please try again")
}

func (h *CheckoutHTTP) settle(c echo.Context, handler string) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", handler)

	userID, err := mwauth.UserID(c)
	if err != nil {
		l.Error("settle_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	intentID, err := uuid.Parse(c.QueryParam("intent_id"))
	if err != nil {
		l.Warn("settle_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid intent id")
	}

	invoice, warning, err := h.Svc.CompleteCheckout(ctx, userID, intentID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCheckoutExpired):
			l.Warn("settle_error", "status", 410, "intent_id", intentID, "error", err)
			return echo.NewHTTPError(http.StatusGone, "checkout session expired, please start again")
		case errors.Is(err, service.ErrPaymentDeclined):
			l.Warn("settle_error", "status", 402, "intent_id", intentID, "error", err)
			return echo.NewHTTPError(http.StatusPaymentRequired, "payment was not completed, please try again")
		case errors.Is(err, payment.ErrProviderAuth), errors.Is(err, payment.ErrProviderRequest):
			l.Error("settle_error", "status", 502, "intent_id", intentID, "error", err)
			return echo.NewHTTPError(http.StatusBadGateway, "payment provider unavailable, please try again")
		case errors.Is(err, service.ErrSettlementFailed):
			// The payment went through; the intent stays live so the
			// callback can be retried.
			l.Error("settle_error", "status", 500, "intent_id", intentID, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "payment received but order finalization failed, please retry")
		default:
			l.Error("settle_error", "status", 500, "intent_id", intentID, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	l.Info("checkout_settled", "intent_id", intentID, "invoice_id", invoice.ID, "warning", warning)
	return c.JSON(http.StatusOK, transport.SettlementResponse{
		InvoiceID:   invoice.ID,
		TotalAmount: invoice.TotalAmount,
		Warning:     warning,
	})
}

func (h *CheckoutHTTP) fail(c echo.Context, handler, message string) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", handler)

	userID, err := mwauth.UserID(c)
	if err != nil {
		l.Error("cancel_error", "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	intentID, err := uuid.Parse(c.QueryParam("intent_id"))
	if err != nil {
		l.Warn("cancel_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid intent id")
	}

	if err := h.Svc.CancelCheckout(ctx, userID, intentID); err != nil {
		if errors.Is(err, service.ErrCheckoutExpired) {
			l.Warn("cancel_error", "status", 410, "intent_id", intentID, "error", err)
			return echo.NewHTTPError(http.StatusGone, "checkout session expired")
		}
		l.Error("cancel_error", "status", 500, "intent_id", intentID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("checkout_cancelled", "intent_id", intentID)
	return c.JSON(http.StatusOK, map[string]string{"message": message})
}
