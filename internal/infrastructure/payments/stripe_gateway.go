package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	appconfig "payment_binder/internal/config"
	"payment_binder/internal/domain/entities"
	"payment_binder/internal/usecase/interfaces"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"go.uber.org/zap"
)

// Metadata key whose value is sent as the PaymentIntent payment method instead of as metadata.
// When present the intent is confirmed immediately.
const stripePaymentMethodKey = "payment_method"

var ErrMissingStripeAPIKey = errors.New("missing stripe api key")

// StripeGateway creates PaymentIntents with stripe-go. SDK retries are disabled; the dispatch core owns retries.
type StripeGateway struct {
	client paymentintent.Client
	logger *zap.Logger
}

var _ interfaces.IPaymentProvider = (*StripeGateway)(nil)

func NewStripeGateway(cfg appconfig.ProviderConfig, logger *zap.Logger) (*StripeGateway, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingStripeAPIKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("stripe")

	backendCfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: cfg.Timeout},
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripeLogger{s: log.Sugar()},
	}
	if cfg.BaseURL != "" {
		backendCfg.URL = stripe.String(strings.TrimRight(cfg.BaseURL, "/"))
	}

	return &StripeGateway{
		client: paymentintent.Client{
			B:   stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
			Key: cfg.APIKey,
		},
		logger: log,
	}, nil
}

func (g *StripeGateway) Name() entities.ProviderName {
	return entities.ProviderStripe
}

func (g *StripeGateway) Charge(ctx context.Context, req entities.PaymentRequest) (entities.PaymentResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(strings.ToLower(req.Currency)),
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.IdempotencyKey)
	for k, v := range req.Metadata {
		if k == stripePaymentMethodKey {
			continue
		}
		params.AddMetadata(k, v)
	}
	if pm := req.Metadata[stripePaymentMethodKey]; pm != "" {
		params.PaymentMethod = stripe.String(pm)
		params.Confirm = stripe.Bool(true)
		params.AutomaticPaymentMethods = &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String(string(stripe.PaymentIntentAutomaticPaymentMethodsAllowRedirectsNever)),
		}
	}

	pi, err := g.client.New(params)
	if err != nil {
		nErr := classifyStripeError(err)
		g.logger.Info("payment intent failed", zap.String("kind", string(nErr.Kind)), zap.String("code", nErr.ProviderCode), zap.Error(err))
		return entities.PaymentResult{}, nErr
	}
	return stripeResult(pi)
}

// Fetch retrieves a PaymentIntent by id.
func (g *StripeGateway) Fetch(ctx context.Context, providerTransactionID string) (entities.PaymentResult, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.client.Get(providerTransactionID, params)
	if err != nil {
		nErr := classifyStripeError(err)
		g.logger.Info("payment intent lookup failed", zap.String("kind", string(nErr.Kind)), zap.String("code", nErr.ProviderCode), zap.Error(err))
		return entities.PaymentResult{}, nErr
	}
	return stripeResult(pi)
}

func stripeResult(pi *stripe.PaymentIntent) (entities.PaymentResult, error) {
	raw, err := stripeRawPayload(pi)
	if err != nil {
		return entities.PaymentResult{}, entities.NewNormalizedError(entities.ErrorKindUnknown, "failed to encode stripe payment intent", err).WithProvider(entities.ProviderStripe, "")
	}
	status, ok := mapStripeStatus(pi.Status)
	if !ok {
		return entities.PaymentResult{}, entities.NewNormalizedError(entities.ErrorKindUnknown, fmt.Sprintf("unexpected stripe payment intent status %q", pi.Status), nil).WithProvider(entities.ProviderStripe, "")
	}

	return entities.PaymentResult{
		Provider:              entities.ProviderStripe,
		ProviderTransactionID: pi.ID,
		Status:                status,
		RawProviderPayload:    raw,
	}, nil
}

func stripeRawPayload(pi *stripe.PaymentIntent) (json.RawMessage, error) {
	if pi.LastResponse != nil && len(pi.LastResponse.RawJSON) > 0 {
		return append(json.RawMessage(nil), pi.LastResponse.RawJSON...), nil
	}
	return json.Marshal(pi)
}

func mapStripeStatus(s stripe.PaymentIntentStatus) (entities.PaymentStatus, bool) {
	switch s {
	case stripe.PaymentIntentStatusSucceeded:
		return entities.PaymentStatusSucceeded, true
	case stripe.PaymentIntentStatusProcessing,
		stripe.PaymentIntentStatusRequiresAction,
		stripe.PaymentIntentStatusRequiresCapture,
		stripe.PaymentIntentStatusRequiresConfirmation,
		stripe.PaymentIntentStatusRequiresPaymentMethod:
		return entities.PaymentStatusPending, true
	case stripe.PaymentIntentStatusCanceled:
		return entities.PaymentStatusFailed, true
	}
	return "", false
}

func classifyStripeError(err error) *entities.NormalizedError {
	var se *stripe.Error
	if !errors.As(err, &se) {
		return transportError(entities.ProviderStripe, err)
	}

	code := string(se.Code)
	if se.DeclineCode != "" {
		code = string(se.DeclineCode)
	}
	msg := nonEmpty(se.Msg, "stripe request failed")
	status := se.HTTPStatusCode

	var kind entities.ErrorKind
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = entities.ErrorKindAuth
	case status == http.StatusTooManyRequests || status >= 500 || se.Type == stripe.ErrorTypeAPI:
		kind = entities.ErrorKindNetwork
	case se.Type == stripe.ErrorTypeCard:
		kind = entities.ErrorKindProviderRejected
	case status >= 400 || se.Type == stripe.ErrorTypeInvalidRequest || se.Type == stripe.ErrorTypeIdempotency:
		kind = entities.ErrorKindValidation
	default:
		kind = entities.ErrorKindUnknown
	}
	return entities.NewNormalizedError(kind, msg, err).WithProvider(entities.ProviderStripe, code)
}

// stripeLogger routes stripe-go's leveled logging into zap.
type stripeLogger struct {
	s *zap.SugaredLogger
}

func (l *stripeLogger) Debugf(format string, v ...interface{}) { l.s.Debugf(format, v...) }
func (l *stripeLogger) Infof(format string, v ...interface{})  { l.s.Debugf(format, v...) }
func (l *stripeLogger) Warnf(format string, v ...interface{})  { l.s.Warnf(format, v...) }
func (l *stripeLogger) Errorf(format string, v ...interface{}) { l.s.Warnf(format, v...) }
