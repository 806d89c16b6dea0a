package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePayPal mimics the token, order create and capture endpoints.
func fakePayPal(t *testing.T, tokenStatus, captureStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "client-id", user)
		require.Equal(t, "client-secret", pass)

		if tokenStatus != http.StatusOK {
			w.WriteHeader(tokenStatus)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"access_token": "test-token"})
	})

	mux.HandleFunc("/v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "CAPTURE", body["intent"])

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "ORDER-123",
			"status": "CREATED",
			"links": []map[string]string{
				{"rel": "self", "href": "https://provider.test/orders/ORDER-123"},
				{"rel": "approve", "href": "https://provider.test/approve/ORDER-123"},
			},
		})
	})

	mux.HandleFunc("/v2/checkout/orders/ORDER-123/capture", func(w http.ResponseWriter, r *http.Request) {
		if captureStatus != http.StatusCreated {
			w.WriteHeader(captureStatus)
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "ORDER-123",
			"status": "COMPLETED",
			"purchase_units": []map[string]any{
				{
					"payments": map[string]any{
						"captures": []map[string]any{
							{"id": "CAP-1", "amount": map[string]string{"value": "25.00"}},
						},
					},
				},
			},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestPayPalBegin(t *testing.T) {
	t.Parallel()
	srv := fakePayPal(t, http.StatusOK, http.StatusCreated)
	gw := NewPayPal(srv.URL, "client-id", "client-secret",
		"https://shop.test/success", "https://shop.test/cancel")

	res, err := gw.Begin(context.Background(), 25.00, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "ORDER-123", res.ProviderOrderID)
	assert.Equal(t, "https://provider.test/approve/ORDER-123", res.RedirectURL)
	assert.Empty(t, res.QRCode)
}

func TestPayPalBeginAuthFailure(t *testing.T) {
	t.Parallel()
	srv := fakePayPal(t, http.StatusUnauthorized, http.StatusCreated)
	gw := NewPayPal(srv.URL, "client-id", "client-secret",
		"https://shop.test/success", "https://shop.test/cancel")

	_, err := gw.Begin(context.Background(), 25.00, uuid.New())
	require.ErrorIs(t, err, ErrProviderAuth)
}

func TestPayPalCapture(t *testing.T) {
	t.Parallel()
	srv := fakePayPal(t, http.StatusOK, http.StatusCreated)
	gw := NewPayPal(srv.URL, "client-id", "client-secret",
		"https://shop.test/success", "https://shop.test/cancel")

	res, err := gw.Capture(context.Background(), "ORDER-123")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, "ORDER-123", res.Ref)
	assert.InDelta(t, 25.00, res.Amount, 0.001)
}

func TestPayPalCaptureProviderError(t *testing.T) {
	t.Parallel()
	srv := fakePayPal(t, http.StatusOK, http.StatusUnprocessableEntity)
	gw := NewPayPal(srv.URL, "client-id", "client-secret",
		"https://shop.test/success", "https://shop.test/cancel")

	_, err := gw.Capture(context.Background(), "ORDER-123")
	require.ErrorIs(t, err, ErrProviderRequest)
}
