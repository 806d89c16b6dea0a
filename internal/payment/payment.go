package payment

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Supported payment methods. The orchestrator dispatches on these names.
const (
	MethodPayPal = "paypal"
	MethodNETSQR = "nets"
)

// StatusCompleted is the only capture status that settles a checkout.
const StatusCompleted = "COMPLETED"

var (
	// ErrProviderAuth covers client-credential/token failures.
	ErrProviderAuth = errors.New("provider auth failed")
	// ErrProviderRequest covers transport errors and non-2xx provider replies.
	ErrProviderRequest = errors.New("provider request failed")
)

// BeginResult carries either a redirect URL (provider-hosted approval flow)
// or an inline QR payload, depending on the gateway.
type BeginResult struct {
	ProviderOrderID string
	RedirectURL     string
	QRCode          string
}

type CaptureResult struct {
	Status string
	Amount float64
	Ref    string
}

// Gateway adapts one provider's asynchronous flow into a uniform
// begin/capture pair. Begin and Capture are blocking network calls and must
// never run inside a database transaction.
type Gateway interface {
	Method() string
	Begin(ctx context.Context, amount float64, intentID uuid.UUID) (*BeginResult, error)
	Capture(ctx context.Context, providerOrderID string) (*CaptureResult, error)
}

type Registry map[string]Gateway

func NewRegistry(gateways ...Gateway) Registry {
	r := make(Registry, len(gateways))
	for _, g := range gateways {
		r[g.Method()] = g
	}
	return r
}

func (r Registry) Lookup(method string) (Gateway, bool) {
	g, ok := r[method]
	return g, ok
}
