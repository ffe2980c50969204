package entities

import (
	"encoding/json"
	"time"
)

// WebhookEvent is a verified provider notification in normalized form.
type WebhookEvent struct {
	Provider              ProviderName    `json:"provider"`
	EventID               string          `json:"event_id"`
	EventType             string          `json:"event_type"`
	ProviderTransactionID string          `json:"provider_transaction_id,omitempty"`
	Status                PaymentStatus   `json:"status,omitempty"`
	RawPayload            json.RawMessage `json:"raw_payload,omitempty"`
	ReceivedAt            time.Time       `json:"received_at"`
}
