package payments

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appconfig "payment_binder/internal/config"
	"payment_binder/internal/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestPaddle(t *testing.T, handler http.HandlerFunc) *PaddleGateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	g, err := NewPaddleGateway(appconfig.ProviderConfig{
		APIKey:  "pdl_key",
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	return g
}

func TestNewPaddleGateway(t *testing.T) {
	_, err := NewPaddleGateway(appconfig.ProviderConfig{}, nil)
	assert.ErrorIs(t, err, ErrMissingPaddleAPIKey)

	sandbox, err := NewPaddleGateway(appconfig.ProviderConfig{APIKey: "k", Environment: appconfig.EnvironmentSandbox}, nil)
	require.NoError(t, err)
	assert.Equal(t, paddleSandboxBaseURL, sandbox.client.baseURL)

	live, err := NewPaddleGateway(appconfig.ProviderConfig{APIKey: "k", Environment: appconfig.EnvironmentLive}, nil)
	require.NoError(t, err)
	assert.Equal(t, paddleLiveBaseURL, live.client.baseURL)
}

func TestPaddleGateway_Charge_Success(t *testing.T) {
	g := newTestPaddle(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions", r.URL.Path)
		assert.Equal(t, "Bearer pdl_key", r.Header.Get("Authorization"))

		var body paddleTransactionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Items, 1)
		assert.Equal(t, "USD", body.CurrencyCode)
		assert.Equal(t, "1999", body.Items[0].Price.UnitPrice.Amount)
		assert.Equal(t, "USD", body.Items[0].Price.UnitPrice.CurrencyCode)
		assert.Equal(t, "Payment", body.Items[0].Price.Product.Name)
		assert.Equal(t, "key-p", body.CustomData["idempotency_key"])
		assert.Equal(t, "42", body.CustomData["order_id"])

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"data":{"id":"txn_01","status":"ready"},"meta":{"request_id":"r1"}}`)
	})

	req := testRequest("key-p")
	req.Currency = "usd"
	res, err := g.Charge(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, entities.ProviderPaddle, res.Provider)
	assert.Equal(t, "txn_01", res.ProviderTransactionID)
	assert.Equal(t, entities.PaymentStatusPending, res.Status)
}

func TestPaddleGateway_Charge_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind entities.ErrorKind
		wantCode string
	}{
		{"authentication", 401, `{"error":{"type":"request_error","code":"authentication_failed","detail":"bad key"}}`, entities.ErrorKindAuth, "authentication_failed"},
		{"forbidden", 403, `{"error":{"type":"request_error","code":"forbidden","detail":"no permission"}}`, entities.ErrorKindAuth, "forbidden"},
		{"rate limited", 429, `{"error":{"type":"request_error","code":"too_many_requests","detail":"slow down"}}`, entities.ErrorKindNetwork, "too_many_requests"},
		{"validation", 400, `{"error":{"type":"request_error","code":"bad_request","detail":"invalid currency"}}`, entities.ErrorKindValidation, "bad_request"},
		{"internal", 500, `{"error":{"type":"api_error","code":"internal_error","detail":"oops"}}`, entities.ErrorKindNetwork, "internal_error"},
		{"non json", 503, `Service Unavailable`, entities.ErrorKindNetwork, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestPaddle(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := g.Charge(context.Background(), testRequest("key-e"))
			nErr := entities.AsNormalizedError(err)
			require.NotNil(t, nErr)
			assert.Equal(t, tt.wantKind, nErr.Kind)
			assert.Equal(t, tt.wantCode, nErr.ProviderCode)
			assert.Equal(t, entities.ProviderPaddle, nErr.Provider)
		})
	}
}

func TestMapPaddleStatus(t *testing.T) {
	assert.Equal(t, entities.PaymentStatusSucceeded, mapPaddleStatus("completed"))
	assert.Equal(t, entities.PaymentStatusSucceeded, mapPaddleStatus("paid"))
	assert.Equal(t, entities.PaymentStatusFailed, mapPaddleStatus("canceled"))
	assert.Equal(t, entities.PaymentStatusPending, mapPaddleStatus("draft"))
	assert.Equal(t, entities.PaymentStatusPending, mapPaddleStatus("billed"))
}

func TestPaddleGateway_Fetch(t *testing.T) {
	const body = `{"data":{"id":"txn_01h","status":"completed"}}`
	g := newTestPaddle(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/transactions/txn_01h", r.URL.Path)
		assert.Equal(t, "Bearer pdl_key", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, body)
	})

	res, err := g.Fetch(context.Background(), "txn_01h")
	require.NoError(t, err)
	assert.Equal(t, "txn_01h", res.ProviderTransactionID)
	assert.Equal(t, entities.PaymentStatusSucceeded, res.Status)
	assert.JSONEq(t, body, string(res.RawProviderPayload))
}

func TestPaddleGateway_Fetch_NotFound(t *testing.T) {
	g := newTestPaddle(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"type":"request_error","code":"not_found","detail":"Entity txn_x not found"}}`)
	})

	_, err := g.Fetch(context.Background(), "txn_x")
	nErr := entities.AsNormalizedError(err)
	require.NotNil(t, nErr)
	assert.Equal(t, entities.ErrorKindValidation, nErr.Kind)
	assert.Equal(t, "not_found", nErr.ProviderCode)
}
