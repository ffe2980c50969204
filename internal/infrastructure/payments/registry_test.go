package payments

import (
	"testing"

	appconfig "payment_binder/internal/config"
	"payment_binder/internal/domain/entities"
	"payment_binder/internal/usecase/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func providerNames(ps []interfaces.IPaymentProvider) []entities.ProviderName {
	out := make([]entities.ProviderName, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name())
	}
	return out
}

func verifierNames(vs []interfaces.IWebhookVerifier) []entities.ProviderName {
	out := make([]entities.ProviderName, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Name())
	}
	return out
}

func TestNewRegistry(t *testing.T) {
	t.Run("only providers with credentials", func(t *testing.T) {
		r, err := NewRegistry(appconfig.PaymentsConfig{
			Stripe:   appconfig.ProviderConfig{APIKey: "sk_test", WebhookSecret: "whsec"},
			Razorpay: appconfig.ProviderConfig{APIKey: "rzp_key", APISecret: "rzp_secret"},
		}, zap.NewNop())
		require.NoError(t, err)

		assert.Equal(t, []entities.ProviderName{entities.ProviderRazorpay, entities.ProviderStripe}, providerNames(r.Providers()))
		assert.Equal(t, []entities.ProviderName{entities.ProviderStripe}, verifierNames(r.WebhookVerifiers()))
	})

	t.Run("nothing configured", func(t *testing.T) {
		r, err := NewRegistry(appconfig.PaymentsConfig{}, nil)
		require.NoError(t, err)
		assert.Empty(t, r.Providers())
		assert.Empty(t, r.WebhookVerifiers())
	})

	t.Run("invalid credentials fail", func(t *testing.T) {
		_, err := NewRegistry(appconfig.PaymentsConfig{
			Razorpay: appconfig.ProviderConfig{APIKey: "rzp_key"},
		}, nil)
		assert.ErrorIs(t, err, ErrMissingRazorpayCredentials)
	})

	t.Run("mock serves every provider", func(t *testing.T) {
		r, err := NewRegistry(appconfig.PaymentsConfig{
			Mock:        true,
			Paddle:      appconfig.ProviderConfig{WebhookSecret: "pdl"},
			MercadoPago: appconfig.ProviderConfig{WebhookSecret: "mp"},
		}, nil)
		require.NoError(t, err)

		assert.Equal(t, entities.AllProviders(), providerNames(r.Providers()))
		for _, p := range r.Providers() {
			assert.IsType(t, &MockGateway{}, p)
		}
		assert.Equal(t, []entities.ProviderName{entities.ProviderPaddle, entities.ProviderMercadoPago}, verifierNames(r.WebhookVerifiers()))
	})

	t.Run("mercado pago verifier resolves status through the gateway", func(t *testing.T) {
		r, err := NewRegistry(appconfig.PaymentsConfig{
			MercadoPago: appconfig.ProviderConfig{APIKey: "TEST-token", WebhookSecret: "mp"},
		}, nil)
		require.NoError(t, err)
		require.Len(t, r.WebhookVerifiers(), 1)
		v, ok := r.WebhookVerifiers()[0].(*MercadoPagoWebhookVerifier)
		require.True(t, ok)
		assert.NotNil(t, v.payments)
	})
}
