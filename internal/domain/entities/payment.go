package entities

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ProviderName identifies one of the supported payment providers.
//
// The set is closed: adding a provider means adding a constant here, an adapter under
// infrastructure/payments and a case in the registry.
type ProviderName string

const (
	ProviderPaddle      ProviderName = "paddle"
	ProviderRazorpay    ProviderName = "razorpay"
	ProviderStripe      ProviderName = "stripe"
	ProviderMercadoPago ProviderName = "mercadopago"
)

// AllProviders lists every supported provider in a stable order.
func AllProviders() []ProviderName {
	return []ProviderName{ProviderPaddle, ProviderRazorpay, ProviderStripe, ProviderMercadoPago}
}

// ParseProviderName normalizes s and returns the matching provider.
func ParseProviderName(s string) (ProviderName, error) {
	p := ProviderName(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllProviders() {
		if p == known {
			return p, nil
		}
	}
	return "", NewValidationError(fmt.Sprintf("unsupported provider %q", s))
}

// PaymentStatus represents the normalized outcome of a charge.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// PaymentRequest is the provider-independent charge request.
//
// Amount is expressed in minor units of Currency (cents for USD, paise for INR, yen for JPY).
type PaymentRequest struct {
	Amount         int64             `json:"amount" validate:"gt=0"`
	Currency       string            `json:"currency" validate:"required,len=3,iso4217"`
	IdempotencyKey string            `json:"idempotency_key" validate:"required,max=255"`
	Metadata       map[string]string `json:"metadata,omitempty" validate:"omitempty,dive,keys,required,max=40,endkeys,max=500"`
}

// PaymentResult is the normalized result of a charge. Only provider adapters build it.
type PaymentResult struct {
	Provider              ProviderName    `json:"provider"`
	ProviderTransactionID string          `json:"provider_transaction_id"`
	Status                PaymentStatus   `json:"status"`
	RawProviderPayload    json.RawMessage `json:"raw_provider_payload,omitempty"`
}

// Clone returns a deep copy so that stored results cannot be altered through returned values.
func (r PaymentResult) Clone() PaymentResult {
	out := r
	if r.RawProviderPayload != nil {
		out.RawProviderPayload = append(json.RawMessage(nil), r.RawProviderPayload...)
	}
	return out
}
