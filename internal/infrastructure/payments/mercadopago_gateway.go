package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	appconfig "payment_binder/internal/config"
	"payment_binder/internal/domain/entities"
	"payment_binder/internal/usecase/interfaces"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Metadata keys consumed by the Mercado Pago adapter instead of being forwarded as metadata.
const (
	mercadoPagoMethodKey      = "payment_method_id"
	mercadoPagoTokenKey       = "token"
	mercadoPagoPayerEmailKey  = "payer_email"
	mercadoPagoDescriptionKey = "description"

	defaultMercadoPagoMethod   = "pix"
	defaultMercadoPagoCurrency = "BRL"
	sandboxPayerEmail          = "test_user_br@testuser.com"
)

var ErrMissingMercadoPagoAccessToken = errors.New("missing MERCADOPAGO_ACCESS_TOKEN")

// mercadoPagoPayments is the part of payment.Client used here.
type mercadoPagoPayments interface {
	Create(ctx context.Context, request payment.Request) (*payment.Response, error)
	Get(ctx context.Context, id int) (*payment.Response, error)
}

// MercadoPagoGateway charges through the official Mercado Pago SDK. Amounts are sent in major units.
// The payments API takes no currency: every charge is made in the account's currency, so requests in
// any other currency are refused before they reach the API.
type MercadoPagoGateway struct {
	client      mercadoPagoPayments
	logger      *zap.Logger
	accessToken string
	currency    string
	testPayer   string
}

var _ interfaces.IPaymentProvider = (*MercadoPagoGateway)(nil)

func NewMercadoPagoGateway(cfg appconfig.ProviderConfig, logger *zap.Logger) (*MercadoPagoGateway, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("mercadopago")

	if cfg.APIKey == "" {
		log.Warn("missing access token")
		return nil, ErrMissingMercadoPagoAccessToken
	}

	sdkCfg, err := config.New(cfg.APIKey)
	if err != nil {
		log.Error("failed creating sdk config", zap.Error(err))
		return nil, err
	}
	currency := strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = defaultMercadoPagoCurrency
	}
	log.Info("mercado pago client initialized", zap.Bool("sandbox", isSandboxToken(cfg.APIKey)), zap.String("currency", currency))

	return &MercadoPagoGateway{
		client:      payment.NewClient(sdkCfg),
		logger:      log,
		accessToken: cfg.APIKey,
		currency:    currency,
		testPayer:   strings.TrimSpace(cfg.PayerEmail),
	}, nil
}

func (g *MercadoPagoGateway) Name() entities.ProviderName {
	return entities.ProviderMercadoPago
}

func (g *MercadoPagoGateway) Charge(ctx context.Context, req entities.PaymentRequest) (entities.PaymentResult, error) {
	if currency := strings.ToUpper(req.Currency); currency != g.currency {
		return entities.PaymentResult{}, entities.NewNormalizedError(entities.ErrorKindValidation,
			fmt.Sprintf("mercado pago account charges in %s; got %s", g.currency, currency), nil).
			WithProvider(entities.ProviderMercadoPago, "currency_mismatch")
	}

	request := g.buildRequest(req)
	g.logger.Debug("create start", zap.Float64("transaction_amount", request.TransactionAmount), zap.String("payment_method_id", request.PaymentMethodID))

	resp, err := g.client.Create(ctx, request)
	if err != nil {
		nErr := classifyMercadoPagoError(err)
		g.logger.Info("sdk create failed", zap.String("kind", string(nErr.Kind)), zap.Error(err))
		return entities.PaymentResult{}, nErr
	}
	g.logger.Info("create success", zap.Int("provider_payment_id", resp.ID), zap.String("provider_status", resp.Status))

	if resp.Status == "rejected" {
		return entities.PaymentResult{}, entities.NewNormalizedError(entities.ErrorKindProviderRejected, "payment rejected by mercado pago", nil).
			WithProvider(entities.ProviderMercadoPago, resp.StatusDetail)
	}
	return mercadoPagoResult(resp)
}

// Fetch reads a payment by its numeric id. A rejected payment is reported as failed, not as an error.
func (g *MercadoPagoGateway) Fetch(ctx context.Context, providerTransactionID string) (entities.PaymentResult, error) {
	id, err := strconv.Atoi(strings.TrimSpace(providerTransactionID))
	if err != nil || id <= 0 {
		return entities.PaymentResult{}, entities.NewNormalizedError(entities.ErrorKindValidation,
			fmt.Sprintf("mercado pago payment id must be numeric, got %q", providerTransactionID), err).WithProvider(entities.ProviderMercadoPago, "")
	}

	resp, err := g.client.Get(ctx, id)
	if err != nil {
		nErr := classifyMercadoPagoError(err)
		g.logger.Info("sdk get failed", zap.Int("provider_payment_id", id), zap.String("kind", string(nErr.Kind)), zap.Error(err))
		return entities.PaymentResult{}, nErr
	}
	return mercadoPagoResult(resp)
}

func mercadoPagoResult(resp *payment.Response) (entities.PaymentResult, error) {
	raw, err := json.Marshal(resp)
	if err != nil {
		return entities.PaymentResult{}, entities.NewNormalizedError(entities.ErrorKindUnknown, "failed to encode mercado pago response", err).WithProvider(entities.ProviderMercadoPago, "")
	}
	status, ok := mapMercadoPagoStatus(resp.Status)
	if !ok {
		return entities.PaymentResult{}, entities.NewNormalizedError(entities.ErrorKindUnknown, fmt.Sprintf("unexpected mercado pago status %q", resp.Status), nil).WithProvider(entities.ProviderMercadoPago, "")
	}

	return entities.PaymentResult{
		Provider:              entities.ProviderMercadoPago,
		ProviderTransactionID: strconv.Itoa(resp.ID),
		Status:                status,
		RawProviderPayload:    raw,
	}, nil
}

func (g *MercadoPagoGateway) buildRequest(req entities.PaymentRequest) payment.Request {
	metadata := map[string]any{
		"idempotency_key": req.IdempotencyKey,
		"currency":        strings.ToUpper(req.Currency),
	}
	for k, v := range req.Metadata {
		switch k {
		case mercadoPagoMethodKey, mercadoPagoTokenKey, mercadoPagoPayerEmailKey:
			continue
		}
		metadata[k] = v
	}

	method := req.Metadata[mercadoPagoMethodKey]
	if method == "" {
		method = defaultMercadoPagoMethod
	}
	description := req.Metadata[mercadoPagoDescriptionKey]
	if description == "" {
		description = "Payment " + req.IdempotencyKey
	}

	request := payment.Request{
		TransactionAmount: MinorToMajor(req.Amount, req.Currency).InexactFloat64(),
		Description:       description,
		PaymentMethodID:   method,
		ExternalReference: req.IdempotencyKey,
		Token:             req.Metadata[mercadoPagoTokenKey],
		Installments:      1,
		Metadata:          metadata,
	}
	if email := g.payerEmail(req.Metadata[mercadoPagoPayerEmailKey]); email != "" {
		request.Payer = &payment.PayerRequest{Email: email}
	}
	return request
}

// payerEmail falls back to the sandbox test payer when running with a TEST- token.
func (g *MercadoPagoGateway) payerEmail(explicit string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit
	}
	if g.testPayer != "" {
		return g.testPayer
	}
	if isSandboxToken(g.accessToken) {
		return sandboxPayerEmail
	}
	return ""
}

// MinorToMajor converts an amount in minor units to major units using the currency exponent.
func MinorToMajor(amount int64, currency string) decimal.Decimal {
	return decimal.New(amount, -entities.CurrencyExponent(currency))
}

func mapMercadoPagoStatus(s string) (entities.PaymentStatus, bool) {
	switch s {
	case "approved":
		return entities.PaymentStatusSucceeded, true
	case "pending", "in_process", "authorized", "in_mediation":
		return entities.PaymentStatusPending, true
	case "cancelled", "refunded", "charged_back", "rejected":
		return entities.PaymentStatusFailed, true
	}
	return "", false
}

// classifyMercadoPagoError inspects the SDK error text; the SDK embeds the API error body in it.
func classifyMercadoPagoError(err error) *entities.NormalizedError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return transportError(entities.ProviderMercadoPago, err)
	}
	msg := strings.ToLower(err.Error())
	kind, code := entities.ErrorKindUnknown, ""
	switch {
	case strings.Contains(msg, `"error":"unauthorized"`) || strings.Contains(msg, `"status":401`) || strings.Contains(msg, `"status":403`):
		kind = entities.ErrorKindAuth
	case strings.Contains(msg, "invalid users involved") || strings.Contains(msg, `"code":2034`):
		kind, code = entities.ErrorKindProviderRejected, "2034"
	case strings.Contains(msg, "customer not found") || strings.Contains(msg, `"code":2002`):
		kind, code = entities.ErrorKindProviderRejected, "2002"
	case strings.Contains(msg, `"error":"bad_request"`) || strings.Contains(msg, `"status":400`):
		kind = entities.ErrorKindValidation
	case strings.Contains(msg, `"status":429`) || strings.Contains(msg, `"status":5`):
		kind = entities.ErrorKindNetwork
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "timeout") || strings.Contains(msg, "no such host") || strings.Contains(msg, "eof"):
		kind = entities.ErrorKindNetwork
	}
	return entities.NewNormalizedError(kind, "mercado pago request failed", err).WithProvider(entities.ProviderMercadoPago, code)
}

func isSandboxToken(token string) bool {
	return strings.HasPrefix(strings.TrimSpace(token), "TEST-")
}
