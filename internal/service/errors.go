package service

import "errors"

// Sentinel errors; handlers map these to HTTP statuses and user-readable
// messages.
var (
	ErrValidation   = errors.New("validation")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Checkout taxonomy.
	ErrEmptyCart            = errors.New("cart is empty")
	ErrForbiddenRole        = errors.New("administrators cannot purchase")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrCheckoutInFlight     = errors.New("another checkout is already in progress")
	ErrCheckoutExpired      = errors.New("checkout expired or not found")
	ErrPaymentDeclined      = errors.New("payment was not completed")
	ErrSettlementFailed     = errors.New("settlement failed")
)
