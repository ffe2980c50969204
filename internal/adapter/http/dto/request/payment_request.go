package request

import (
	"strings"

	"payment_binder/internal/domain/entities"
)

// PaymentCreateRequest is the body of POST /v1/payments/:provider.
//
// Amount is in minor units. IdempotencyKey may be omitted when the Idempotency-Key header is sent.
type PaymentCreateRequest struct {
	Amount         int64             `json:"amount" example:"1999"`
	Currency       string            `json:"currency" example:"usd"`
	IdempotencyKey string            `json:"idempotency_key" example:"order-42-attempt-1"`
	Metadata       map[string]string `json:"metadata"`
}

// ToEntity builds the domain request. A key in the body wins over headerKey.
func (r PaymentCreateRequest) ToEntity(headerKey string) entities.PaymentRequest {
	key := strings.TrimSpace(r.IdempotencyKey)
	if key == "" {
		key = strings.TrimSpace(headerKey)
	}
	return entities.PaymentRequest{
		Amount:         r.Amount,
		Currency:       strings.ToUpper(strings.TrimSpace(r.Currency)),
		IdempotencyKey: key,
		Metadata:       r.Metadata,
	}
}
