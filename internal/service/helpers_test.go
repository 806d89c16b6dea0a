package service

import (
	"context"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kersko/storefront/internal/models"
	"github.com/kersko/storefront/internal/payment"
	"github.com/kersko/storefront/internal/repo"
)

func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Product{},
		&models.User{},
		&models.RefreshToken{},
		&models.CartItem{},
		&models.PaymentIntent{},
		&models.PaymentIntentItem{},
		&models.Invoice{},
		&models.InvoiceItem{},
		&models.Feedback{},
	))

	return &repo.GormRepo{DB: db}
}

type fakeGateway struct {
	method        string
	beginErr      error
	captureErr    error
	captureStatus string
	orderID       string

	beginCalls   int
	captureCalls int
}

func (g *fakeGateway) Method() string { return g.method }

func (g *fakeGateway) Begin(ctx context.Context, amount float64, intentID uuid.UUID) (*payment.BeginResult, error) {
	g.beginCalls++
	if g.beginErr != nil {
		return nil, g.beginErr
	}
	orderID := g.orderID
	if orderID == "" {
		orderID = "ORDER-" + intentID.String()
	}
	return &payment.BeginResult{
		ProviderOrderID: orderID,
		RedirectURL:     "https://provider.test/approve/" + orderID,
	}, nil
}

func (g *fakeGateway) Capture(ctx context.Context, providerOrderID string) (*payment.CaptureResult, error) {
	g.captureCalls++
	if g.captureErr != nil {
		return nil, g.captureErr
	}
	status := g.captureStatus
	if status == "" {
		status = payment.StatusCompleted
	}
	return &payment.CaptureResult{Status: status, Ref: providerOrderID}, nil
}

type publishedEvent struct {
	Topic string
	Key   string
	Event any
}

type capturePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *capturePublisher) PublishEvent(ctx context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Topic: topic, Key: key, Event: event})
	return nil
}

func (p *capturePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		if m, ok := e.Event.(map[string]any); ok {
			if typ, ok := m["type"].(string); ok {
				out = append(out, typ)
			}
		}
	}
	return out
}

func seedProduct(t *testing.T, r *repo.GormRepo, name string, price float64, count uint) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: price, Count: count}
	require.NoError(t, r.DB.Create(p).Error)
	return p
}

func seedCartItem(t *testing.T, r *repo.GormRepo, userID, productID, quantity uint) {
	t.Helper()
	require.NoError(t, r.DB.Create(&models.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}).Error)
}
