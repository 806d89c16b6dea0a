package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NETSQR implements the QR/direct flow: Begin requests a displayable QR
// payload and the buyer's device completes payment out of band. The provider
// issues no verification token on the terminal routes, so Capture cannot
// confirm anything with the provider side and trusts the success navigation.
// That gap is inherited from the provider integration; the orchestrator
// compensates only with intent ownership, state and idempotency checks.
type NETSQR struct {
	APIBase string
	APIKey  string

	httpClient *http.Client
}

func NewNETSQR(apiBase, apiKey string) *NETSQR {
	return &NETSQR{
		APIBase: strings.TrimRight(apiBase, "/"),
		APIKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (n *NETSQR) Method() string { return MethodNETSQR }

func (n *NETSQR) Begin(ctx context.Context, amount float64, intentID uuid.UUID) (*BeginResult, error) {
	reqBody := map[string]any{
		"amount":        amount,
		"txn_reference": intentID.String(),
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrProviderRequest, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.APIBase+"/generate-qr", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrProviderRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", n.APIKey)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: generate-qr: %v", ErrProviderRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: generate-qr returned %d", ErrProviderAuth, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: generate-qr returned %d", ErrProviderRequest, resp.StatusCode)
	}

	var body struct {
		QRCode string `json:"qr_code"`
		TxnRef string `json:"txn_retrieval_ref"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode generate-qr response: %v", ErrProviderRequest, err)
	}
	if body.QRCode == "" {
		return nil, fmt.Errorf("%w: empty qr payload", ErrProviderRequest)
	}

	ref := body.TxnRef
	if ref == "" {
		ref = intentID.String()
	}
	return &BeginResult{ProviderOrderID: ref, QRCode: body.QRCode}, nil
}

// Capture has no provider call to make: the NETS terminal routes carry no
// verification token, so the reported outcome is taken at face value.
func (n *NETSQR) Capture(ctx context.Context, providerOrderID string) (*CaptureResult, error) {
	return &CaptureResult{Status: StatusCompleted, Ref: providerOrderID}, nil
}
