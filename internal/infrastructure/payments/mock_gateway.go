package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"payment_binder/internal/domain/entities"
	"payment_binder/internal/usecase/interfaces"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MockGateway approves every charge locally. It stands in for a provider when PAYMENT_GATEWAY_MOCK is set.
type MockGateway struct {
	provider entities.ProviderName
	logger   *zap.Logger
	calls    atomic.Int64
	issued   sync.Map
	now      func() time.Time
}

var _ interfaces.IPaymentProvider = (*MockGateway)(nil)

func NewMockGateway(provider entities.ProviderName, logger *zap.Logger) *MockGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MockGateway{
		provider: provider,
		logger:   logger.Named("mock").With(zap.String("provider", string(provider))),
		now:      time.Now,
	}
}

func (g *MockGateway) Name() entities.ProviderName {
	return g.provider
}

func (g *MockGateway) Charge(ctx context.Context, req entities.PaymentRequest) (entities.PaymentResult, error) {
	if err := ctx.Err(); err != nil {
		return entities.PaymentResult{}, transportError(g.provider, err)
	}
	g.calls.Add(1)

	id := "mock_" + uuid.NewString()
	now := g.now().UTC().Format(time.RFC3339Nano)
	resp := map[string]any{
		"id":              id,
		"status":          "approved",
		"status_detail":   "accredited",
		"amount":          req.Amount,
		"currency":        req.Currency,
		"idempotency_key": req.IdempotencyKey,
		"metadata":        req.Metadata,
		"date_created":    now,
		"date_approved":   now,
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return entities.PaymentResult{}, entities.NewNormalizedError(entities.ErrorKindUnknown, "mock response marshal failed", err).WithProvider(g.provider, "")
	}

	g.logger.Info("mock charge approved", zap.String("provider_transaction_id", id))
	result := entities.PaymentResult{
		Provider:              g.provider,
		ProviderTransactionID: id,
		Status:                entities.PaymentStatusSucceeded,
		RawProviderPayload:    b,
	}
	g.issued.Store(id, result)
	return result, nil
}

// Fetch returns a charge this mock approved earlier.
func (g *MockGateway) Fetch(ctx context.Context, providerTransactionID string) (entities.PaymentResult, error) {
	if err := ctx.Err(); err != nil {
		return entities.PaymentResult{}, transportError(g.provider, err)
	}
	v, ok := g.issued.Load(providerTransactionID)
	if !ok {
		return entities.PaymentResult{}, entities.NewNormalizedError(entities.ErrorKindValidation,
			fmt.Sprintf("no mock transaction %q", providerTransactionID), nil).WithProvider(g.provider, "not_found")
	}
	return v.(entities.PaymentResult).Clone(), nil
}

// Calls returns how many charges reached the mock.
func (g *MockGateway) Calls() int64 {
	return g.calls.Load()
}
