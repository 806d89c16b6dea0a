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

func fakeNETS(t *testing.T, status int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/generate-qr", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-key", r.Header.Get("api-key"))

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.NotEmpty(t, body["txn_reference"])

		json.NewEncoder(w).Encode(map[string]string{
			"qr_code":           "base64-qr-payload",
			"txn_retrieval_ref": "NETS-REF-1",
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNETSQRBegin(t *testing.T) {
	t.Parallel()
	srv := fakeNETS(t, http.StatusOK)
	gw := NewNETSQR(srv.URL, "test-key")

	res, err := gw.Begin(context.Background(), 12.50, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "NETS-REF-1", res.ProviderOrderID)
	assert.Equal(t, "base64-qr-payload", res.QRCode)
	assert.Empty(t, res.RedirectURL)
}

func TestNETSQRBeginAuthFailure(t *testing.T) {
	t.Parallel()
	srv := fakeNETS(t, http.StatusUnauthorized)
	gw := NewNETSQR(srv.URL, "test-key")

	_, err := gw.Begin(context.Background(), 12.50, uuid.New())
	require.ErrorIs(t, err, ErrProviderAuth)
}

func TestNETSQRBeginProviderError(t *testing.T) {
	t.Parallel()
	srv := fakeNETS(t, http.StatusInternalServerError)
	gw := NewNETSQR(srv.URL, "test-key")

	_, err := gw.Begin(context.Background(), 12.50, uuid.New())
	require.ErrorIs(t, err, ErrProviderRequest)
}

// Capture never contacts the provider; the reported outcome stands as-is.
func TestNETSQRCaptureTrustsCaller(t *testing.T) {
	t.Parallel()
	gw := NewNETSQR("http://unreachable.test", "test-key")

	res, err := gw.Capture(context.Background(), "NETS-REF-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, "NETS-REF-1", res.Ref)
}
