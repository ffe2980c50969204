package response

import (
	"encoding/json"
	"time"

	"payment_binder/internal/domain/entities"
)

type PaymentResponse struct {
	Provider              string          `json:"provider" example:"stripe"`
	ProviderTransactionID string          `json:"provider_transaction_id" example:"pi_3Nk"`
	Status                string          `json:"status" example:"succeeded"`
	IdempotencyKey        string          `json:"idempotency_key,omitempty"`
	RawProviderPayload    json.RawMessage `json:"raw_provider_payload,omitempty" swaggertype:"object"`
}

func FromPaymentResult(res entities.PaymentResult, key string) PaymentResponse {
	return PaymentResponse{
		Provider:              string(res.Provider),
		ProviderTransactionID: res.ProviderTransactionID,
		Status:                string(res.Status),
		IdempotencyKey:        key,
		RawProviderPayload:    res.RawProviderPayload,
	}
}

type FailureResponse struct {
	Kind         string `json:"kind"`
	Provider     string `json:"provider,omitempty"`
	ProviderCode string `json:"provider_code,omitempty"`
	Retriable    bool   `json:"retriable"`
	Message      string `json:"message"`
}

// IdempotencyRecordResponse exposes a stored outcome. Exactly one of Result and Failure is set.
type IdempotencyRecordResponse struct {
	Key       string           `json:"key"`
	Provider  string           `json:"provider"`
	Result    *PaymentResponse `json:"result,omitempty"`
	Failure   *FailureResponse `json:"failure,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}

func FromIdempotencyRecord(rec entities.IdempotencyRecord) IdempotencyRecordResponse {
	out := IdempotencyRecordResponse{
		Key:       rec.Key,
		Provider:  string(rec.Provider),
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
	}
	if rec.Result != nil {
		res := FromPaymentResult(*rec.Result, rec.Key)
		out.Result = &res
	}
	if rec.Failure != nil {
		out.Failure = &FailureResponse{
			Kind:         string(rec.Failure.Kind),
			Provider:     string(rec.Failure.Provider),
			ProviderCode: rec.Failure.ProviderCode,
			Retriable:    rec.Failure.Retriable,
			Message:      rec.Failure.Message,
		}
	}
	return out
}

type WebhookEventResponse struct {
	Provider              string    `json:"provider"`
	EventID               string    `json:"event_id"`
	EventType             string    `json:"event_type"`
	ProviderTransactionID string    `json:"provider_transaction_id,omitempty"`
	Status                string    `json:"status,omitempty"`
	ReceivedAt            time.Time `json:"received_at"`
}

func FromWebhookEvent(evt entities.WebhookEvent) WebhookEventResponse {
	return WebhookEventResponse{
		Provider:              string(evt.Provider),
		EventID:               evt.EventID,
		EventType:             evt.EventType,
		ProviderTransactionID: evt.ProviderTransactionID,
		Status:                string(evt.Status),
		ReceivedAt:            evt.ReceivedAt,
	}
}

type ProvidersResponse struct {
	Providers []string `json:"providers"`
}
