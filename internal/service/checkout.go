package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kersko/storefront/internal/events"
	"github.com/kersko/storefront/internal/logging"
	"github.com/kersko/storefront/internal/models"
	"github.com/kersko/storefront/internal/payment"
	"github.com/kersko/storefront/internal/repo"
	"github.com/kersko/storefront/internal/transport"
)

const defaultIntentTTL = 30 * time.Minute

// CheckoutService orchestrates the cart → payment → settlement workflow.
// Provider calls always happen outside database transactions.
type CheckoutService struct {
	Repo     *repo.GormRepo
	Gateways payment.Registry
	Producer events.Publisher

	// IntentTTL bounds how long a payment may stay in flight; zero means
	// the default.
	IntentTTL time.Duration
}

func (s *CheckoutService) intentTTL() time.Duration {
	if s.IntentTTL > 0 {
		return s.IntentTTL
	}
	return defaultIntentTTL
}

// BeginCheckout snapshots the cart into a durable payment intent and starts
// the provider flow. Nothing is mutated when validation fails.
func (s *CheckoutService) BeginCheckout(ctx context.Context, userID uint, role, method string) (*transport.BeginCheckoutResponse, error) {
	if role == "admin" {
		return nil, fmt.Errorf("%w", ErrForbiddenRole)
	}

	gw, ok := s.Gateways.Lookup(method)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, method)
	}

	lines, err := s.Repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w", ErrEmptyCart)
	}

	if err := s.Repo.ExpireStaleIntents(ctx, userID); err != nil {
		return nil, err
	}
	if _, err := s.Repo.GetLiveIntent(ctx, userID); err == nil {
		return nil, fmt.Errorf("%w", ErrCheckoutInFlight)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Quote from live catalog prices; the snapshot keeps product and
	// quantity only.
	var total float64
	items := make([]models.PaymentIntentItem, 0, len(lines))
	for _, line := range lines {
		product, err := s.Repo.GetProduct(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: product %d", ErrNotFound, line.ProductID)
			}
			return nil, err
		}
		total += product.Price * float64(line.Quantity)
		items = append(items, models.PaymentIntentItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}

	now := time.Now().UTC()
	intent := &models.PaymentIntent{
		UserID:    userID,
		Method:    method,
		Status:    models.IntentStatusCreated,
		CartTotal: total,
		CreatedAt: now,
		ExpiresAt: now.Add(s.intentTTL()),
	}
	if err := s.Repo.CreateIntent(ctx, intent, items); err != nil {
		// A concurrent BeginCheckout won the live-intent slot between the
		// probe and the insert.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w", ErrCheckoutInFlight)
		}
		return nil, err
	}

	begin, err := gw.Begin(ctx, total, intent.ID)
	if err != nil {
		// Provider never saw a usable order; fail the intent so the user
		// can retry cleanly.
		if updErr := s.Repo.UpdateIntentStatus(ctx, intent.ID, models.IntentStatusFailed); updErr != nil {
			logging.FromContext(ctx).Error("intent_fail_update_error", "intent_id", intent.ID, "error", updErr)
		}
		return nil, err
	}

	if err := s.Repo.UpdateIntentProviderOrder(ctx, intent.ID, begin.ProviderOrderID, models.IntentStatusAwaiting); err != nil {
		return nil, err
	}

	s.publish(ctx, intent.UserID, map[string]any{
		"type":      "checkout_started",
		"intentID":  intent.ID.String(),
		"userID":    userID,
		"method":    method,
		"cartTotal": total,
	})

	return &transport.BeginCheckoutResponse{
		IntentID:    intent.ID,
		Method:      method,
		Total:       total,
		RedirectURL: begin.RedirectURL,
		QRCode:      begin.QRCode,
	}, nil
}

// CompleteCheckout is the success callback path: capture with the provider,
// then commit the settlement. A duplicate callback for an already-settled
// intent returns the existing invoice.
func (s *CheckoutService) CompleteCheckout(ctx context.Context, userID uint, intentID uuid.UUID) (*models.Invoice, string, error) {
	intent, items, err := s.Repo.GetIntent(ctx, intentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", fmt.Errorf("%w", ErrCheckoutExpired)
		}
		return nil, "", err
	}
	if intent.UserID != userID {
		return nil, "", fmt.Errorf("%w", ErrCheckoutExpired)
	}

	if intent.Status == models.IntentStatusSettled {
		if intent.ProviderOrderID != "" {
			if invoice, err := s.Repo.GetInvoiceByRef(ctx, intent.ProviderOrderID); err == nil {
				return invoice, "", nil
			}
		}
		return nil, "", fmt.Errorf("%w", ErrCheckoutExpired)
	}
	if intent.Status != models.IntentStatusAwaiting {
		return nil, "", fmt.Errorf("%w", ErrCheckoutExpired)
	}
	if time.Now().UTC().After(intent.ExpiresAt) {
		if err := s.Repo.UpdateIntentStatus(ctx, intent.ID, models.IntentStatusExpired); err != nil {
			logging.FromContext(ctx).Error("intent_expire_update_error", "intent_id", intent.ID, "error", err)
		}
		return nil, "", fmt.Errorf("%w", ErrCheckoutExpired)
	}

	gw, ok := s.Gateways.Lookup(intent.Method)
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, intent.Method)
	}

	// Capture before any transaction begins; a blocked provider call must
	// never hold a database transaction open.
	capture, err := gw.Capture(ctx, intent.ProviderOrderID)
	if err != nil {
		s.failIntent(ctx, intent)
		return nil, "", err
	}
	if capture.Status != payment.StatusCompleted {
		s.failIntent(ctx, intent)
		return nil, "", fmt.Errorf("%w: capture status %s", ErrPaymentDeclined, capture.Status)
	}

	// Idempotency backstop ahead of the unique index: the same payment
	// reference settles at most once.
	var ref *string
	if capture.Ref != "" {
		r := capture.Ref
		ref = &r
		if invoice, err := s.Repo.GetInvoiceByRef(ctx, r); err == nil {
			return invoice, "", nil
		}
	}

	return s.commitSettlement(ctx, intent, items, capture.Status, ref)
}

// commitSettlement converts a captured payment into the durable invoice.
// Steps after the invoice transaction commits are best-effort: the sale is
// recorded even when inventory or cart cleanup lags.
func (s *CheckoutService) commitSettlement(ctx context.Context, intent *models.PaymentIntent, items []models.PaymentIntentItem, status string, ref *string) (*models.Invoice, string, error) {
	l := logging.FromContext(ctx).With("intent_id", intent.ID)

	// Price-at-sale comes from the live catalog, never from the snapshot
	// or the client.
	var total float64
	invoiceItems := make([]models.InvoiceItem, 0, len(items))
	for _, item := range items {
		product, err := s.Repo.GetProduct(ctx, item.ProductID)
		if err != nil {
			return nil, "", fmt.Errorf("%w: load product %d: %v", ErrSettlementFailed, item.ProductID, err)
		}
		total += product.Price * float64(item.Quantity)
		invoiceItems = append(invoiceItems, models.InvoiceItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
		})
	}

	now := time.Now().UTC()
	invoice := &models.Invoice{
		UserID:        intent.UserID,
		TotalAmount:   total,
		PaymentMethod: intent.Method,
		PaymentStatus: status,
		PaymentRef:    ref,
		CreatedAt:     now,
		PaidAt:        now,
	}
	if err := s.Repo.CreateInvoice(ctx, invoice, invoiceItems); err != nil {
		// Intent and cart stay untouched so the callback can be retried.
		return nil, "", fmt.Errorf("%w: %v", ErrSettlementFailed, err)
	}

	// Inventory decrement is deliberately outside the invoice transaction:
	// recording the sale wins over keeping stock exact.
	var shortfalls int
	productIDs := make([]uint, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
		if err := s.Repo.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			shortfalls++
			l.Warn("inventory_reconciliation_needed",
				"invoice_id", invoice.ID, "product_id", item.ProductID, "quantity", item.Quantity, "error", err)
			s.publish(ctx, intent.UserID, map[string]any{
				"type":      "inventory_reconciliation",
				"invoiceID": invoice.ID,
				"productID": item.ProductID,
				"quantity":  item.Quantity,
			})
		}
	}

	if err := s.Repo.ClearCartProducts(ctx, intent.UserID, productIDs); err != nil {
		l.Error("cart_clear_error", "invoice_id", invoice.ID, "error", err)
	}
	if err := s.Repo.UpdateIntentStatus(ctx, intent.ID, models.IntentStatusSettled); err != nil {
		l.Error("intent_settle_update_error", "invoice_id", invoice.ID, "error", err)
	}

	s.publish(ctx, intent.UserID, map[string]any{
		"type":      "checkout_settled",
		"intentID":  intent.ID.String(),
		"userID":    intent.UserID,
		"invoiceID": invoice.ID,
		"total":     invoice.TotalAmount,
		"method":    intent.Method,
	})

	var warning string
	if shortfalls > 0 {
		warning = fmt.Sprintf("inventory reconciliation pending for %d item(s)", shortfalls)
	}
	return invoice, warning, nil
}

// CancelCheckout is the terminal fail/cancel path: the intent is closed so a
// stale total can never resurrect, the cart and catalog stay untouched.
// Idempotent: cancelling a terminal intent is a no-op.
func (s *CheckoutService) CancelCheckout(ctx context.Context, userID uint, intentID uuid.UUID) error {
	intent, _, err := s.Repo.GetIntent(ctx, intentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w", ErrCheckoutExpired)
		}
		return err
	}
	if intent.UserID != userID {
		return fmt.Errorf("%w", ErrCheckoutExpired)
	}

	switch intent.Status {
	case models.IntentStatusSettled, models.IntentStatusFailed, models.IntentStatusExpired:
		return nil
	}

	if err := s.Repo.UpdateIntentStatus(ctx, intent.ID, models.IntentStatusFailed); err != nil {
		return err
	}

	s.publish(ctx, intent.UserID, map[string]any{
		"type":     "checkout_failed",
		"intentID": intent.ID.String(),
		"userID":   intent.UserID,
		"method":   intent.Method,
	})
	return nil
}

func (s *CheckoutService) failIntent(ctx context.Context, intent *models.PaymentIntent) {
	if err := s.Repo.UpdateIntentStatus(ctx, intent.ID, models.IntentStatusFailed); err != nil {
		logging.FromContext(ctx).Error("intent_fail_update_error", "intent_id", intent.ID, "error", err)
	}
	s.publish(ctx, intent.UserID, map[string]any{
		"type":     "checkout_failed",
		"intentID": intent.ID.String(),
		"userID":   intent.UserID,
		"method":   intent.Method,
	})
}

func (s *CheckoutService) publish(ctx context.Context, userID uint, event map[string]any) {
	if s.Producer == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.Producer.PublishEvent(pubCtx, events.TopicCheckoutEvents, fmt.Sprint(userID), event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_error", "error", err)
	}
}
