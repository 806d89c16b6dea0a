package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const payPalCurrency = "SGD"

// PayPal implements the redirect/capture flow against the Checkout Orders v2
// API. A client-credentials token is fetched for every call; the provider
// tokens are short-lived and the call volume here does not justify a cache.
type PayPal struct {
	APIBase   string
	ClientID  string
	Secret    string
	ReturnURL string
	CancelURL string

	httpClient *http.Client
}

func NewPayPal(apiBase, clientID, secret, returnURL, cancelURL string) *PayPal {
	return &PayPal{
		APIBase:   strings.TrimRight(apiBase, "/"),
		ClientID:  clientID,
		Secret:    secret,
		ReturnURL: returnURL,
		CancelURL: cancelURL,
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

func (p *PayPal) Method() string { return MethodPayPal }

func (p *PayPal) accessToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		p.APIBase+"/v1/oauth2/token",
		strings.NewReader("grant_type=client_credentials"),
	)
	if err != nil {
		return "", fmt.Errorf("%w: create token request: %v", ErrProviderAuth, err)
	}
	req.SetBasicAuth(p.ClientID, p.Secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: token request: %v", ErrProviderAuth, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token request returned %d", ErrProviderAuth, resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: decode token response: %v", ErrProviderAuth, err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrProviderAuth)
	}
	return body.AccessToken, nil
}

func (p *PayPal) Begin(ctx context.Context, amount float64, intentID uuid.UUID) (*BeginResult, error) {
	token, err := p.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	orderReq := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{
			{
				"amount": map[string]any{
					"currency_code": payPalCurrency,
					"value":         strconv.FormatFloat(amount, 'f', 2, 64),
				},
			},
		},
		"application_context": map[string]any{
			"return_url": fmt.Sprintf("%s?intent_id=%s", p.ReturnURL, intentID),
			"cancel_url": fmt.Sprintf("%s?intent_id=%s", p.CancelURL, intentID),
		},
	}

	var orderResp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Links  []struct {
			Href string `json:"href"`
			Rel  string `json:"rel"`
		} `json:"links"`
	}
	if err := p.postJSON(ctx, "/v2/checkout/orders", token, orderReq, &orderResp); err != nil {
		return nil, err
	}
	if orderResp.ID == "" {
		return nil, fmt.Errorf("%w: order create returned no id", ErrProviderRequest)
	}

	var approvalURL string
	for _, link := range orderResp.Links {
		if link.Rel == "approve" {
			approvalURL = link.Href
			break
		}
	}
	if approvalURL == "" {
		return nil, fmt.Errorf("%w: order %s has no approval link", ErrProviderRequest, orderResp.ID)
	}

	return &BeginResult{ProviderOrderID: orderResp.ID, RedirectURL: approvalURL}, nil
}

func (p *PayPal) Capture(ctx context.Context, providerOrderID string) (*CaptureResult, error) {
	token, err := p.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	var captureResp struct {
		ID            string `json:"id"`
		Status        string `json:"status"`
		PurchaseUnits []struct {
			Payments struct {
				Captures []struct {
					ID     string `json:"id"`
					Amount struct {
						Value string `json:"value"`
					} `json:"amount"`
				} `json:"captures"`
			} `json:"payments"`
		} `json:"purchase_units"`
	}
	path := fmt.Sprintf("/v2/checkout/orders/%s/capture", providerOrderID)
	if err := p.postJSON(ctx, path, token, map[string]any{}, &captureResp); err != nil {
		return nil, err
	}

	result := &CaptureResult{Status: captureResp.Status, Ref: providerOrderID}
	if len(captureResp.PurchaseUnits) > 0 && len(captureResp.PurchaseUnits[0].Payments.Captures) > 0 {
		capture := captureResp.PurchaseUnits[0].Payments.Captures[0]
		if amt, err := strconv.ParseFloat(capture.Amount.Value, 64); err == nil {
			result.Amount = amt
		}
	}
	return result, nil
}

func (p *PayPal) postJSON(ctx context.Context, path, token string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: marshal request: %v", ErrProviderRequest, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.APIBase+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: create request: %v", ErrProviderRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrProviderRequest, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s returned %d", ErrProviderRequest, path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
