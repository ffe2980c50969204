package payments

import (
	"fmt"

	appconfig "payment_binder/internal/config"
	"payment_binder/internal/domain/entities"
	"payment_binder/internal/usecase/interfaces"

	"go.uber.org/zap"
)

// Registry holds the adapters and webhook verifiers built from configuration.
type Registry struct {
	providers []interfaces.IPaymentProvider
	verifiers []interfaces.IWebhookVerifier
}

// NewRegistry builds one adapter per provider with credentials and one verifier per provider with a
// webhook secret. With cfg.Mock set every provider is served by a MockGateway.
func NewRegistry(cfg appconfig.PaymentsConfig, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("payments")
	r := &Registry{}

	var mercadoPago *MercadoPagoGateway
	if cfg.Mock {
		log.Warn("payment gateway mock enabled; no provider will be called")
		for _, name := range entities.AllProviders() {
			r.providers = append(r.providers, NewMockGateway(name, logger))
		}
	} else {
		if cfg.Paddle.Enabled() {
			g, err := NewPaddleGateway(cfg.Paddle, logger)
			if err != nil {
				return nil, fmt.Errorf("paddle: %w", err)
			}
			r.providers = append(r.providers, g)
		}
		if cfg.Razorpay.Enabled() {
			g, err := NewRazorpayGateway(cfg.Razorpay, logger)
			if err != nil {
				return nil, fmt.Errorf("razorpay: %w", err)
			}
			r.providers = append(r.providers, g)
		}
		if cfg.Stripe.Enabled() {
			g, err := NewStripeGateway(cfg.Stripe, logger)
			if err != nil {
				return nil, fmt.Errorf("stripe: %w", err)
			}
			r.providers = append(r.providers, g)
		}
		if cfg.MercadoPago.Enabled() {
			g, err := NewMercadoPagoGateway(cfg.MercadoPago, logger)
			if err != nil {
				return nil, fmt.Errorf("mercadopago: %w", err)
			}
			mercadoPago = g
			r.providers = append(r.providers, g)
		}
	}

	if s := cfg.Paddle.WebhookSecret; s != "" {
		v, _ := NewPaddleWebhookVerifier(s)
		r.verifiers = append(r.verifiers, v)
	}
	if s := cfg.Razorpay.WebhookSecret; s != "" {
		v, _ := NewRazorpayWebhookVerifier(s)
		r.verifiers = append(r.verifiers, v)
	}
	if s := cfg.Stripe.WebhookSecret; s != "" {
		v, _ := NewStripeWebhookVerifier(s)
		r.verifiers = append(r.verifiers, v)
	}
	if s := cfg.MercadoPago.WebhookSecret; s != "" {
		v, _ := NewMercadoPagoWebhookVerifier(s, mercadoPago)
		r.verifiers = append(r.verifiers, v)
	}

	names := make([]string, 0, len(r.providers))
	for _, p := range r.providers {
		names = append(names, string(p.Name()))
	}
	log.Info("payment providers registered", zap.Strings("providers", names), zap.Int("webhook_verifiers", len(r.verifiers)))
	return r, nil
}

func (r *Registry) Providers() []interfaces.IPaymentProvider {
	return r.providers
}

func (r *Registry) WebhookVerifiers() []interfaces.IWebhookVerifier {
	return r.verifiers
}
