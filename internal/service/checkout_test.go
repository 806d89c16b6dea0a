package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kersko/storefront/internal/models"
	"github.com/kersko/storefront/internal/payment"
)

type checkoutEnv struct {
	gateway   *fakeGateway
	publisher *capturePublisher
}

func newCheckoutEnv(t *testing.T) (*CheckoutService, *checkoutEnv) {
	t.Helper()
	env := &checkoutEnv{
		gateway:   &fakeGateway{method: payment.MethodPayPal},
		publisher: &capturePublisher{},
	}
	svc := &CheckoutService{
		Repo:     newTestRepo(t),
		Gateways: payment.NewRegistry(env.gateway),
		Producer: env.publisher,
	}
	return svc, env
}

// seedCheckout puts two products in user 1's cart: 2x10.00 + 1x5.00 = 25.00.
func seedCheckout(t *testing.T, svc *CheckoutService) (a, b *models.Product) {
	t.Helper()
	a = seedProduct(t, svc.Repo, "keyboard", 10.00, 5)
	b = seedProduct(t, svc.Repo, "mousepad", 5.00, 3)
	seedCartItem(t, svc.Repo, 1, a.ID, 2)
	seedCartItem(t, svc.Repo, 1, b.ID, 1)
	return a, b
}

func TestBeginCheckoutQuotesLivePrices(t *testing.T) {
	t.Parallel()
	svc, env := newCheckoutEnv(t)
	seedCheckout(t, svc)

	resp, err := svc.BeginCheckout(context.Background(), 1, "user", payment.MethodPayPal)
	require.NoError(t, err)

	assert.Equal(t, payment.MethodPayPal, resp.Method)
	assert.InDelta(t, 25.00, resp.Total, 0.001)
	assert.NotEmpty(t, resp.RedirectURL)
	assert.Equal(t, 1, env.gateway.beginCalls)

	intent, items, err := svc.Repo.GetIntent(context.Background(), resp.IntentID)
	require.NoError(t, err)
	assert.Equal(t, models.IntentStatusAwaiting, intent.Status)
	assert.NotEmpty(t, intent.ProviderOrderID)
	assert.Len(t, items, 2)
}

func TestBeginCheckoutRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		seed    func(t *testing.T, svc *CheckoutService)
		userID  uint
		role    string
		method  string
		wantErr error
	}{
		{
			name:    "admin cannot purchase",
			seed:    seedCheckoutSeed,
			userID:  1,
			role:    "admin",
			method:  payment.MethodPayPal,
			wantErr: ErrForbiddenRole,
		},
		{
			name:    "unknown method",
			seed:    seedCheckoutSeed,
			userID:  1,
			role:    "user",
			method:  "cheque",
			wantErr: ErrInvalidPaymentMethod,
		},
		{
			name:    "empty cart",
			seed:    func(t *testing.T, svc *CheckoutService) {},
			userID:  1,
			role:    "user",
			method:  payment.MethodPayPal,
			wantErr: ErrEmptyCart,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, env := newCheckoutEnv(t)
			tt.seed(t, svc)

			_, err := svc.BeginCheckout(context.Background(), tt.userID, tt.role, tt.method)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, env.gateway.beginCalls)
		})
	}
}

func seedCheckoutSeed(t *testing.T, svc *CheckoutService) {
	seedCheckout(t, svc)
}

func TestBeginCheckoutInFlightGuard(t *testing.T) {
	t.Parallel()
	svc, _ := newCheckoutEnv(t)
	seedCheckout(t, svc)

	_, err := svc.BeginCheckout(context.Background(), 1, "user", payment.MethodPayPal)
	require.NoError(t, err)

	_, err = svc.BeginCheckout(context.Background(), 1, "user", payment.MethodPayPal)
	require.ErrorIs(t, err, ErrCheckoutInFlight)
}

// The live-intent slot is held by a partial unique index, not just the
// read-then-insert probe, so two concurrent begins cannot both create one.
func TestLiveIntentUniquePerUser(t *testing.T) {
	t.Parallel()
	svc, _ := newCheckoutEnv(t)
	r := svc.Repo
	now := time.Now().UTC()

	first := &models.PaymentIntent{
		UserID:    1,
		Method:    payment.MethodPayPal,
		Status:    models.IntentStatusAwaiting,
		CartTotal: 25.00,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, r.CreateIntent(context.Background(), first,
		[]models.PaymentIntentItem{{ProductID: 1, Quantity: 1}}))

	second := &models.PaymentIntent{
		UserID:    1,
		Method:    payment.MethodPayPal,
		Status:    models.IntentStatusCreated,
		CartTotal: 10.00,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	err := r.CreateIntent(context.Background(), second,
		[]models.PaymentIntentItem{{ProductID: 1, Quantity: 1}})
	require.Error(t, err)
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// A terminal intent releases the slot.
	require.NoError(t, r.UpdateIntentStatus(context.Background(), first.ID, models.IntentStatusFailed))
	second.ID = uuid.Nil
	require.NoError(t, r.CreateIntent(context.Background(), second,
		[]models.PaymentIntentItem{{ProductID: 1, Quantity: 1}}))
}

func TestBeginCheckoutInsertRaceMapsToInFlight(t *testing.T) {
	t.Parallel()
	svc, _ := newCheckoutEnv(t)
	seedCheckout(t, svc)
	ctx := context.Background()

	// The rival's intent lands after the probe would have run; inserting
	// against the occupied slot must surface as the in-flight error, not a
	// bare constraint violation.
	now := time.Now().UTC()
	rival := &models.PaymentIntent{
		UserID:    1,
		Method:    payment.MethodPayPal,
		Status:    models.IntentStatusAwaiting,
		CartTotal: 25.00,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, svc.Repo.CreateIntent(ctx, rival,
		[]models.PaymentIntentItem{{ProductID: 1, Quantity: 1}}))

	_, err := svc.BeginCheckout(ctx, 1, "user", payment.MethodPayPal)
	require.ErrorIs(t, err, ErrCheckoutInFlight)
}

func TestBeginCheckoutAfterIntentTimeout(t *testing.T) {
	t.Parallel()
	svc, _ := newCheckoutEnv(t)
	seedCheckout(t, svc)
	ctx := context.Background()

	resp, err := svc.BeginCheckout(ctx, 1, "user", payment.MethodPayPal)
	require.NoError(t, err)

	// The provider flow stalls past the deadline; the stale intent must not
	// hold the live slot against a fresh checkout.
	require.NoError(t, svc.Repo.DB.Model(&models.PaymentIntent{}).
		Where("id = ?", resp.IntentID).
		Update("expires_at", time.Now().UTC().Add(-time.Minute)).Error)

	_, err = svc.BeginCheckout(ctx, 1, "user", payment.MethodPayPal)
	require.NoError(t, err)

	stale, _, err := svc.Repo.GetIntent(ctx, resp.IntentID)
	require.NoError(t, err)
	assert.Equal(t, models.IntentStatusExpired, stale.Status)
}

func TestBeginCheckoutProviderFailureFreesUser(t *testing.T) {
	t.Parallel()
	svc, env := newCheckoutEnv(t)
	seedCheckout(t, svc)
	env.gateway.beginErr = payment.ErrProviderRequest

	_, err := svc.BeginCheckout(context.Background(), 1, "user", payment.MethodPayPal)
	require.ErrorIs(t, err, payment.ErrProviderRequest)

	// The failed intent is terminal, so a retry is not blocked.
	env.gateway.beginErr = nil
	_, err = svc.BeginCheckout(context.Background(), 1, "user", payment.MethodPayPal)
	require.NoError(t, err)
}

func TestCompleteCheckoutSettles(t *testing.T) {
	t.Parallel()
	svc, env := newCheckoutEnv(t)
	a, b := seedCheckout(t, svc)
	ctx := context.Background()

	resp, err := svc.BeginCheckout(ctx, 1, "user", payment.MethodPayPal)
	require.NoError(t, err)

	invoice, warning, err := svc.CompleteCheckout(ctx, 1, resp.IntentID)
	require.NoError(t, err)
	assert.Empty(t, warning)
	assert.InDelta(t, 25.00, invoice.TotalAmount, 0.001)
	assert.Equal(t, payment.MethodPayPal, invoice.PaymentMethod)
	require.NotNil(t, invoice.PaymentRef)

	_, items, err := svc.Repo.GetInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// Stock decremented per line.
	gotA, err := svc.Repo.GetProduct(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(3), gotA.Count)
	gotB, err := svc.Repo.GetProduct(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(2), gotB.Count)

	// Cart cleared, intent terminal.
	cart, err := svc.Repo.GetCart(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, cart)

	intent, _, err := svc.Repo.GetIntent(ctx, resp.IntentID)
	require.NoError(t, err)
	assert.Equal(t, models.IntentStatusSettled, intent.Status)

	assert.Contains(t, env.publisher.types(), "checkout_settled")
}

func TestCompleteCheckoutIdempotent(t *testing.T) {
	t.Parallel()
	svc, env := newCheckoutEnv(t)
	a, _ := seedCheckout(t, svc)
	ctx := context.Background()

	resp, err := svc.BeginCheckout(ctx, 1, "user", payment.MethodPayPal)
	require.NoError(t, err)

	first, _, err := svc.CompleteCheckout(ctx, 1, resp.IntentID)
	require.NoError(t, err)

	second, _, err := svc.CompleteCheckout(ctx, 1, resp.IntentID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var invoiceCount int64
	require.NoError(t, svc.Repo.DB.Model(&models.Invoice{}).Count(&invoiceCount).Error)
	assert.EqualValues(t, 1, invoiceCount)

	// Stock was decremented exactly once.
	gotA, err := svc.Repo.GetProduct(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(3), gotA.Count)

	// The duplicate callback replays the invoice without re-announcing it.
	var settled int
	for _, typ := range env.publisher.types() {
		if typ == "checkout_settled" {
			settled++
		}
	}
	assert.Equal(t, 1, settled)
}

func TestCompleteCheckoutDeclinedLeavesStateIntact(t *testing.T) {
	t.Parallel()
	svc, env := newCheckoutEnv(t)
	a, _ := seedCheckout(t, svc)
	ctx := context.Background()

	resp, err := svc.BeginCheckout(ctx, 1, "user", payment.MethodPayPal)
	require.NoError(t, err)

	env.gateway.captureStatus = "PENDING"
	_, _, err = svc.CompleteCheckout(ctx, 1, resp.IntentID)
	require.ErrorIs(t, err, ErrPaymentDeclined)

	var invoiceCount int64
	require.NoError(t, svc.Repo.DB.Model(&models.Invoice{}).Count(&invoiceCount).Error)
	assert.Zero(t, invoiceCount)

	gotA, err := svc.Repo.GetProduct(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(5), gotA.Count)

	cart, err := svc.Repo.GetCart(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, cart, 2)

	intent, _, err := svc.Repo.GetIntent(ctx, resp.IntentID)
	require.NoError(t, err)
	assert.Equal(t, models.IntentStatusFailed, intent.Status)
}

func TestCompleteCheckoutCaptureError(t *testing.T) {
	t.Parallel()
	svc, env := newCheckoutEnv(t)
	seedCheckout(t, svc)
	ctx := context.Background()

	resp, err := svc.BeginCheckout(ctx, 1, "user", payment.MethodPayPal)
	require.NoError(t, err)

	env.gateway.captureErr = payment.ErrProviderRequest
	_, _, err = svc.CompleteCheckout(ctx, 1, resp.IntentID)
	require.ErrorIs(t, err, payment.ErrProviderRequest)

	intent, _, err := svc.Repo.GetIntent(ctx, resp.IntentID)
	require.NoError(t, err)
	assert.Equal(t, models.IntentStatusFailed, intent.Status)
}

func TestCompleteCheckoutForeignIntent(t *testing.T) {
	t.Parallel()
	svc, env := newCheckoutEnv(t)
	seedCheckout(t, svc)
	ctx := context.Background()

	resp, err := svc.BeginCheckout(ctx, 1, "user", payment.MethodPayPal)
	require.NoError(t, err)

	_, _, err = svc.CompleteCheckout(ctx, 2, resp.IntentID)
	require.ErrorIs(t, err, ErrCheckoutExpired)
	assert.Zero(t, env.gateway.captureCalls)
}

func TestCompleteCheckoutExpiredIntent(t *testing.T) {
	t.Parallel()
	svc, env := newCheckoutEnv(t)
	seedCheckout(t, svc)
	ctx := context.Background()

	resp, err := svc.BeginCheckout(ctx, 1, "user", payment.MethodPayPal)
	require.NoError(t, err)

	require.NoError(t, svc.Repo.DB.Model(&models.PaymentIntent{}).
		Where("id = ?", resp.IntentID).
		Update("expires_at", time.Now().UTC().Add(-time.Minute)).Error)

	_, _, err = svc.CompleteCheckout(ctx, 1, resp.IntentID)
	require.ErrorIs(t, err, ErrCheckoutExpired)

	intent, _, err := svc.Repo.GetIntent(ctx, resp.IntentID)
	require.NoError(t, err)
	assert.Equal(t, models.IntentStatusExpired, intent.Status)
	assert.Zero(t, env.gateway.captureCalls)
}

// Oversell between begin and settle: the sale is still recorded, the shortfall
// is reported as a warning and stock never goes negative.
func TestCompleteCheckoutStockShortfall(t *testing.T) {
	t.Parallel()
	svc, env := newCheckoutEnv(t)
	r := svc.Repo
	p := seedProduct(t, r, "limited", 10.00, 2)
	seedCartItem(t, r, 1, p.ID, 2)
	ctx := context.Background()

	resp, err := svc.BeginCheckout(ctx, 1, "user", payment.MethodPayPal)
	require.NoError(t, err)

	// A concurrent sale drains the stock before the callback lands.
	require.NoError(t, r.DB.Model(&models.Product{}).
		Where("id = ?", p.ID).Update("count", 1).Error)

	invoice, warning, err := svc.CompleteCheckout(ctx, 1, resp.IntentID)
	require.NoError(t, err)
	assert.NotEmpty(t, warning)
	assert.InDelta(t, 20.00, invoice.TotalAmount, 0.001)

	got, err := svc.Repo.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(1), got.Count)

	assert.Contains(t, env.publisher.types(), "inventory_reconciliation")
}

func TestCancelCheckout(t *testing.T) {
	t.Parallel()
	svc, _ := newCheckoutEnv(t)
	seedCheckout(t, svc)
	ctx := context.Background()

	resp, err := svc.BeginCheckout(ctx, 1, "user", payment.MethodPayPal)
	require.NoError(t, err)

	require.NoError(t, svc.CancelCheckout(ctx, 1, resp.IntentID))

	intent, _, err := svc.Repo.GetIntent(ctx, resp.IntentID)
	require.NoError(t, err)
	assert.Equal(t, models.IntentStatusFailed, intent.Status)

	// Cancelling a terminal intent is a no-op.
	require.NoError(t, svc.CancelCheckout(ctx, 1, resp.IntentID))

	// Cart and catalog untouched.
	cart, err := svc.Repo.GetCart(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, cart, 2)

	// The closed intent can no longer settle.
	_, _, err = svc.CompleteCheckout(ctx, 1, resp.IntentID)
	require.ErrorIs(t, err, ErrCheckoutExpired)
}

func TestCancelCheckoutUnknownIntent(t *testing.T) {
	t.Parallel()
	svc, _ := newCheckoutEnv(t)
	seedCheckout(t, svc)

	resp, err := svc.BeginCheckout(context.Background(), 1, "user", payment.MethodPayPal)
	require.NoError(t, err)

	err = svc.CancelCheckout(context.Background(), 2, resp.IntentID)
	require.True(t, errors.Is(err, ErrCheckoutExpired))
}
