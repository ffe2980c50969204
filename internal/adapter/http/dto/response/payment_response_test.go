package response

import (
	"encoding/json"
	"testing"
	"time"

	"payment_binder/internal/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromPaymentResult(t *testing.T) {
	res := FromPaymentResult(entities.PaymentResult{
		Provider:              entities.ProviderStripe,
		ProviderTransactionID: "pi_1",
		Status:                entities.PaymentStatusSucceeded,
		RawProviderPayload:    json.RawMessage(`{"id":"pi_1"}`),
	}, "key-1")

	assert.Equal(t, "stripe", res.Provider)
	assert.Equal(t, "pi_1", res.ProviderTransactionID)
	assert.Equal(t, "succeeded", res.Status)
	assert.Equal(t, "key-1", res.IdempotencyKey)

	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"raw_provider_payload":{"id":"pi_1"}`)
}

func TestFromIdempotencyRecord(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("result", func(t *testing.T) {
		out := FromIdempotencyRecord(entities.IdempotencyRecord{
			Key:       "k",
			Provider:  entities.ProviderPaddle,
			Result:    &entities.PaymentResult{Provider: entities.ProviderPaddle, ProviderTransactionID: "txn_1", Status: entities.PaymentStatusPending},
			CreatedAt: now,
			ExpiresAt: now.Add(time.Hour),
		})
		require.NotNil(t, out.Result)
		assert.Nil(t, out.Failure)
		assert.Equal(t, "txn_1", out.Result.ProviderTransactionID)
		assert.Equal(t, "k", out.Result.IdempotencyKey)
		assert.True(t, out.ExpiresAt.Equal(now.Add(time.Hour)))
	})

	t.Run("failure", func(t *testing.T) {
		out := FromIdempotencyRecord(entities.IdempotencyRecord{
			Key:      "k",
			Provider: entities.ProviderRazorpay,
			Failure: &entities.NormalizedError{
				Kind:         entities.ErrorKindProviderRejected,
				Provider:     entities.ProviderRazorpay,
				ProviderCode: "GATEWAY_ERROR",
				Message:      "declined",
			},
		})
		assert.Nil(t, out.Result)
		require.NotNil(t, out.Failure)
		assert.Equal(t, "provider_rejected", out.Failure.Kind)
		assert.Equal(t, "GATEWAY_ERROR", out.Failure.ProviderCode)
		assert.False(t, out.Failure.Retriable)
	})
}

func TestFromWebhookEvent(t *testing.T) {
	now := time.Now().UTC()
	out := FromWebhookEvent(entities.WebhookEvent{
		Provider:              entities.ProviderRazorpay,
		EventID:               "evt_1",
		EventType:             "order.paid",
		ProviderTransactionID: "order_1",
		Status:                entities.PaymentStatusSucceeded,
		ReceivedAt:            now,
	})
	assert.Equal(t, "razorpay", out.Provider)
	assert.Equal(t, "order.paid", out.EventType)
	assert.Equal(t, "succeeded", out.Status)
	assert.True(t, out.ReceivedAt.Equal(now))
}
