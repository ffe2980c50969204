package interfaces

import (
	"context"
	"net/http"

	"payment_binder/internal/domain/entities"
)

//go:generate mockgen -source=payment_provider_interface.go -destination=mocks/mock_payment_provider_interface.go -package=mock_interfaces

// IPaymentProvider abstracts one external payment provider (Stripe, Razorpay, Paddle, Mercado Pago).
//
// Implementations translate the normalized request into the provider call and map the
// provider response back. Every failure they return is an *entities.NormalizedError.
//
// Fetch reads the current state of a transaction created by Charge, so pending results can be refreshed.
type IPaymentProvider interface {
	Name() entities.ProviderName
	Charge(ctx context.Context, req entities.PaymentRequest) (entities.PaymentResult, error)
	Fetch(ctx context.Context, providerTransactionID string) (entities.PaymentResult, error)
}

// IWebhookVerifier checks a provider's webhook signature and parses the body into a normalized event.
type IWebhookVerifier interface {
	Name() entities.ProviderName
	VerifyAndParse(ctx context.Context, payload []byte, headers http.Header) (entities.WebhookEvent, error)
}

// IWebhookEventPublisher forwards verified events to the rest of the system.
type IWebhookEventPublisher interface {
	Publish(ctx context.Context, evt entities.WebhookEvent) error
}
