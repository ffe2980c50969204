package payments

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	appconfig "payment_binder/internal/config"
	"payment_binder/internal/domain/entities"
	"payment_binder/internal/usecase/interfaces"

	razorpay "github.com/razorpay/razorpay-go"
	rzperrors "github.com/razorpay/razorpay-go/errors"
	"go.uber.org/zap"
)

const razorpayMaxReceiptLen = 40

// Razorpay error codes, reported as the provider code of normalized errors.
const (
	razorpayBadRequest   = "BAD_REQUEST_ERROR"
	razorpayGatewayError = "GATEWAY_ERROR"
	razorpayServerError  = "SERVER_ERROR"
)

var ErrMissingRazorpayCredentials = errors.New("missing razorpay key id or key secret")

// razorpayOrders is the part of the SDK's order resource used here.
type razorpayOrders interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
	Fetch(orderID string, queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// RazorpayGateway creates and reads Razorpay orders through razorpay-go.
type RazorpayGateway struct {
	orders razorpayOrders
	logger *zap.Logger
}

var _ interfaces.IPaymentProvider = (*RazorpayGateway)(nil)

func NewRazorpayGateway(cfg appconfig.ProviderConfig, logger *zap.Logger) (*RazorpayGateway, error) {
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, ErrMissingRazorpayCredentials
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := razorpay.NewClient(cfg.APIKey, cfg.APISecret)
	if cfg.BaseURL != "" {
		client.Request.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Timeout > 0 {
		client.Request.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &RazorpayGateway{orders: client.Order, logger: logger.Named("razorpay")}, nil
}

func (g *RazorpayGateway) Name() entities.ProviderName {
	return entities.ProviderRazorpay
}

// Charge creates an order. Razorpay has no idempotency header for orders, so the key travels as the receipt
// and in the notes.
func (g *RazorpayGateway) Charge(ctx context.Context, req entities.PaymentRequest) (entities.PaymentResult, error) {
	notes := make(map[string]interface{}, len(req.Metadata)+1)
	for k, v := range req.Metadata {
		notes[k] = v
	}
	notes["idempotency_key"] = req.IdempotencyKey

	data := map[string]interface{}{
		"amount":   req.Amount,
		"currency": strings.ToUpper(req.Currency),
		"receipt":  razorpayReceipt(req.IdempotencyKey),
		"notes":    notes,
	}

	order, err := withContext(ctx, func() (map[string]interface{}, error) {
		return g.orders.Create(data, nil)
	})
	if err != nil {
		nErr := classifyRazorpayError(err)
		g.logger.Info("order create failed", zap.String("kind", string(nErr.Kind)), zap.String("code", nErr.ProviderCode), zap.Error(err))
		return entities.PaymentResult{}, nErr
	}
	return razorpayResult(order)
}

// Fetch reads an order by its order_ id.
func (g *RazorpayGateway) Fetch(ctx context.Context, providerTransactionID string) (entities.PaymentResult, error) {
	order, err := withContext(ctx, func() (map[string]interface{}, error) {
		return g.orders.Fetch(providerTransactionID, nil, nil)
	})
	if err != nil {
		nErr := classifyRazorpayError(err)
		g.logger.Info("order fetch failed", zap.String("order_id", providerTransactionID), zap.String("kind", string(nErr.Kind)), zap.Error(err))
		return entities.PaymentResult{}, nErr
	}
	return razorpayResult(order)
}

// withContext bounds an SDK call that takes no context. An abandoned call finishes in the background
// and is cut off by the HTTP client timeout.
func withContext(ctx context.Context, call func() (map[string]interface{}, error)) (map[string]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	type outcome struct {
		body map[string]interface{}
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		body, err := call()
		done <- outcome{body, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case o := <-done:
		return o.body, o.err
	}
}

func razorpayResult(order map[string]interface{}) (entities.PaymentResult, error) {
	raw, err := json.Marshal(order)
	if err != nil {
		return entities.PaymentResult{}, entities.NewNormalizedError(entities.ErrorKindUnknown, "failed to encode razorpay order", err).WithProvider(entities.ProviderRazorpay, "")
	}
	id, _ := order["id"].(string)
	statusText, _ := order["status"].(string)
	status, ok := mapRazorpayOrderStatus(statusText)
	if !ok {
		return entities.PaymentResult{}, entities.NewNormalizedError(entities.ErrorKindUnknown, fmt.Sprintf("unexpected razorpay order status %q", statusText), nil).WithProvider(entities.ProviderRazorpay, "")
	}

	return entities.PaymentResult{
		Provider:              entities.ProviderRazorpay,
		ProviderTransactionID: id,
		Status:                status,
		RawProviderPayload:    raw,
	}, nil
}

func mapRazorpayOrderStatus(s string) (entities.PaymentStatus, bool) {
	switch s {
	case "paid":
		return entities.PaymentStatusSucceeded, true
	case "created", "attempted":
		return entities.PaymentStatusPending, true
	}
	return "", false
}

// mapRazorpayPaymentStatus maps the payment entity carried by webhooks.
func mapRazorpayPaymentStatus(s string) entities.PaymentStatus {
	switch s {
	case "captured":
		return entities.PaymentStatusSucceeded
	case "failed", "refunded":
		return entities.PaymentStatusFailed
	}
	return entities.PaymentStatusPending
}

// classifyRazorpayError maps the SDK's typed errors. Anything else failed before Razorpay answered.
// Razorpay reports bad credentials as BAD_REQUEST_ERROR "Authentication failed".
func classifyRazorpayError(err error) *entities.NormalizedError {
	var (
		badRequest *rzperrors.BadRequestError
		gateway    *rzperrors.GatewayError
		server     *rzperrors.ServerError
	)
	switch {
	case errors.As(err, &badRequest):
		if strings.Contains(strings.ToLower(badRequest.Message), "authentication failed") {
			return entities.NewNormalizedError(entities.ErrorKindAuth, badRequest.Message, err).WithProvider(entities.ProviderRazorpay, razorpayBadRequest)
		}
		return entities.NewNormalizedError(entities.ErrorKindValidation, nonEmpty(badRequest.Message, "razorpay rejected the request"), err).
			WithProvider(entities.ProviderRazorpay, razorpayBadRequest)
	case errors.As(err, &gateway):
		return entities.NewNormalizedError(entities.ErrorKindProviderRejected, nonEmpty(gateway.Message, "payment declined by gateway"), err).
			WithProvider(entities.ProviderRazorpay, razorpayGatewayError)
	case errors.As(err, &server):
		return entities.NewNormalizedError(entities.ErrorKindNetwork, nonEmpty(server.Message, "razorpay server error"), err).
			WithProvider(entities.ProviderRazorpay, razorpayServerError)
	}
	return transportError(entities.ProviderRazorpay, err)
}

// razorpayReceipt keeps keys that fit Razorpay's receipt limit and hashes the rest.
func razorpayReceipt(key string) string {
	if len(key) <= razorpayMaxReceiptLen {
		return key
	}
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:razorpayMaxReceiptLen]
}

func nonEmpty(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
