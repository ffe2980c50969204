package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"payment_binder/internal/domain/entities"
	"payment_binder/internal/usecase/interfaces"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
	"github.com/razorpay/razorpay-go/utils"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

const (
	HeaderStripeSignature      = "Stripe-Signature"
	HeaderRazorpaySignature    = "X-Razorpay-Signature"
	HeaderRazorpayEventID      = "X-Razorpay-Event-Id"
	HeaderPaddleSignature      = "Paddle-Signature"
	HeaderMercadoPagoSignature = "X-Signature"
	HeaderMercadoPagoRequestID = "X-Request-Id"

	defaultSignatureTolerance = 5 * time.Minute
)

var ErrMissingWebhookSecret = errors.New("missing webhook secret")

func signatureError(provider entities.ProviderName, msg string, err error) *entities.NormalizedError {
	return entities.NewNormalizedError(entities.ErrorKindAuth, msg, err).WithProvider(provider, "invalid_signature")
}

func payloadError(provider entities.ProviderName, err error) *entities.NormalizedError {
	return entities.NewNormalizedError(entities.ErrorKindValidation, "malformed webhook payload", err).WithProvider(provider, "")
}

func hmacSHA256(secret string, parts ...[]byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	for _, p := range parts {
		mac.Write(p)
	}
	return mac.Sum(nil)
}

// hexSignatureMatches compares a hex signature against the expected MAC in constant time.
func hexSignatureMatches(signature string, expected []byte) bool {
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	return hmac.Equal(got, expected)
}

// StripeWebhookVerifier checks Stripe-Signature with stripe-go's webhook package.
type StripeWebhookVerifier struct {
	secret    string
	tolerance time.Duration
}

var _ interfaces.IWebhookVerifier = (*StripeWebhookVerifier)(nil)

func NewStripeWebhookVerifier(secret string) (*StripeWebhookVerifier, error) {
	if secret == "" {
		return nil, ErrMissingWebhookSecret
	}
	return &StripeWebhookVerifier{secret: secret, tolerance: defaultSignatureTolerance}, nil
}

func (v *StripeWebhookVerifier) Name() entities.ProviderName {
	return entities.ProviderStripe
}

func (v *StripeWebhookVerifier) VerifyAndParse(_ context.Context, payload []byte, headers http.Header) (entities.WebhookEvent, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, headers.Get(HeaderStripeSignature), v.secret, webhook.ConstructEventOptions{
		Tolerance:                v.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		switch {
		case errors.Is(err, webhook.ErrNotSigned), errors.Is(err, webhook.ErrInvalidHeader),
			errors.Is(err, webhook.ErrNoValidSignature), errors.Is(err, webhook.ErrTooOld):
			return entities.WebhookEvent{}, signatureError(entities.ProviderStripe, "stripe signature verification failed", err)
		}
		return entities.WebhookEvent{}, payloadError(entities.ProviderStripe, err)
	}

	out := entities.WebhookEvent{
		Provider:   entities.ProviderStripe,
		EventID:    evt.ID,
		EventType:  string(evt.Type),
		RawPayload: append(json.RawMessage(nil), payload...),
	}
	if evt.Data == nil {
		return out, nil
	}
	if strings.HasPrefix(string(evt.Type), "payment_intent.") {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(evt.Data.Raw, &pi); err != nil {
			return entities.WebhookEvent{}, payloadError(entities.ProviderStripe, err)
		}
		out.ProviderTransactionID = pi.ID
		if status, ok := mapStripeStatus(pi.Status); ok {
			out.Status = status
		}
		return out, nil
	}
	if id, ok := evt.Data.Object["id"].(string); ok {
		out.ProviderTransactionID = id
	}
	return out, nil
}

// RazorpayWebhookVerifier checks X-Razorpay-Signature, a hex HMAC-SHA256 of the raw body, with razorpay-go.
type RazorpayWebhookVerifier struct {
	secret string
}

var _ interfaces.IWebhookVerifier = (*RazorpayWebhookVerifier)(nil)

type razorpayWebhookBody struct {
	Event     string `json:"event"`
	CreatedAt int64  `json:"created_at"`
	Payload   struct {
		Payment *struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Status  string `json:"status"`
			} `json:"entity"`
		} `json:"payment"`
		Order *struct {
			Entity struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"entity"`
		} `json:"order"`
	} `json:"payload"`
}

func NewRazorpayWebhookVerifier(secret string) (*RazorpayWebhookVerifier, error) {
	if secret == "" {
		return nil, ErrMissingWebhookSecret
	}
	return &RazorpayWebhookVerifier{secret: secret}, nil
}

func (v *RazorpayWebhookVerifier) Name() entities.ProviderName {
	return entities.ProviderRazorpay
}

func (v *RazorpayWebhookVerifier) VerifyAndParse(_ context.Context, payload []byte, headers http.Header) (entities.WebhookEvent, error) {
	sig := headers.Get(HeaderRazorpaySignature)
	if sig == "" {
		return entities.WebhookEvent{}, signatureError(entities.ProviderRazorpay, "missing razorpay signature", nil)
	}
	if !utils.VerifyWebhookSignature(string(payload), strings.TrimSpace(sig), v.secret) {
		return entities.WebhookEvent{}, signatureError(entities.ProviderRazorpay, "razorpay signature mismatch", nil)
	}

	var body razorpayWebhookBody
	if err := json.Unmarshal(payload, &body); err != nil {
		return entities.WebhookEvent{}, payloadError(entities.ProviderRazorpay, err)
	}

	out := entities.WebhookEvent{
		Provider:   entities.ProviderRazorpay,
		EventID:    headers.Get(HeaderRazorpayEventID),
		EventType:  body.Event,
		RawPayload: append(json.RawMessage(nil), payload...),
	}
	// Charge returns the order id, so events are keyed by order.
	switch {
	case body.Payload.Order != nil:
		out.ProviderTransactionID = body.Payload.Order.Entity.ID
		if st, ok := mapRazorpayOrderStatus(body.Payload.Order.Entity.Status); ok {
			out.Status = st
		}
		if body.Payload.Payment != nil && body.Payload.Payment.Entity.Status == "failed" {
			out.Status = entities.PaymentStatusFailed
		}
	case body.Payload.Payment != nil:
		out.ProviderTransactionID = body.Payload.Payment.Entity.OrderID
		if out.ProviderTransactionID == "" {
			out.ProviderTransactionID = body.Payload.Payment.Entity.ID
		}
		out.Status = mapRazorpayPaymentStatus(body.Payload.Payment.Entity.Status)
	}
	if body.CreatedAt > 0 {
		out.ReceivedAt = time.Unix(body.CreatedAt, 0).UTC()
	}
	return out, nil
}

// PaddleWebhookVerifier checks Paddle-Signature ("ts=...;h1=...") with the Paddle SDK verifier.
// The SDK does not bound the signature age, so ts is checked against tolerance first.
type PaddleWebhookVerifier struct {
	verifier  *paddle.WebhookVerifier
	tolerance time.Duration
	now       func() time.Time
}

var _ interfaces.IWebhookVerifier = (*PaddleWebhookVerifier)(nil)

type paddleWebhookBody struct {
	EventID    string `json:"event_id"`
	EventType  string `json:"event_type"`
	OccurredAt string `json:"occurred_at"`
	Data       struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"data"`
}

func NewPaddleWebhookVerifier(secret string) (*PaddleWebhookVerifier, error) {
	if secret == "" {
		return nil, ErrMissingWebhookSecret
	}
	return &PaddleWebhookVerifier{verifier: paddle.NewWebhookVerifier(secret), tolerance: defaultSignatureTolerance, now: time.Now}, nil
}

func (v *PaddleWebhookVerifier) Name() entities.ProviderName {
	return entities.ProviderPaddle
}

func (v *PaddleWebhookVerifier) VerifyAndParse(ctx context.Context, payload []byte, headers http.Header) (entities.WebhookEvent, error) {
	ts, sigs := parseSignatureHeader(headers.Get(HeaderPaddleSignature), ";", "h1")
	if ts == "" || len(sigs) == 0 {
		return entities.WebhookEvent{}, signatureError(entities.ProviderPaddle, "missing or malformed paddle signature", nil)
	}
	if err := checkTimestamp(ts, v.now(), v.tolerance); err != nil {
		return entities.WebhookEvent{}, signatureError(entities.ProviderPaddle, "paddle signature timestamp outside tolerance", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/", bytes.NewReader(payload))
	if err != nil {
		return entities.WebhookEvent{}, payloadError(entities.ProviderPaddle, err)
	}
	req.Header = headers.Clone()
	ok, err := v.verifier.Verify(req)
	if err != nil {
		return entities.WebhookEvent{}, signatureError(entities.ProviderPaddle, "paddle signature verification failed", err)
	}
	if !ok {
		return entities.WebhookEvent{}, signatureError(entities.ProviderPaddle, "paddle signature mismatch", nil)
	}

	var body paddleWebhookBody
	if err := json.Unmarshal(payload, &body); err != nil {
		return entities.WebhookEvent{}, payloadError(entities.ProviderPaddle, err)
	}
	out := entities.WebhookEvent{
		Provider:              entities.ProviderPaddle,
		EventID:               body.EventID,
		EventType:             body.EventType,
		ProviderTransactionID: body.Data.ID,
		RawPayload:            append(json.RawMessage(nil), payload...),
	}
	if strings.HasPrefix(body.EventType, "transaction.") && body.Data.Status != "" {
		out.Status = mapPaddleStatus(body.Data.Status)
	}
	if t, err := time.Parse(time.RFC3339Nano, body.OccurredAt); err == nil {
		out.ReceivedAt = t.UTC()
	}
	return out, nil
}

// MercadoPagoWebhookVerifier checks x-signature ("ts=...,v1=...") over the manifest
// "id:<data.id>;request-id:<x-request-id>;ts:<ts>;" and fetches the payment status through the SDK.
type MercadoPagoWebhookVerifier struct {
	secret   string
	payments mercadoPagoPayments
}

var _ interfaces.IWebhookVerifier = (*MercadoPagoWebhookVerifier)(nil)

type mercadoPagoWebhookBody struct {
	ID     json.Number `json:"id"`
	Type   string      `json:"type"`
	Action string      `json:"action"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

// NewMercadoPagoWebhookVerifier builds the verifier. gateway may be nil, in which case the event carries no status.
func NewMercadoPagoWebhookVerifier(secret string, gateway *MercadoPagoGateway) (*MercadoPagoWebhookVerifier, error) {
	if secret == "" {
		return nil, ErrMissingWebhookSecret
	}
	v := &MercadoPagoWebhookVerifier{secret: secret}
	if gateway != nil {
		v.payments = gateway.client
	}
	return v, nil
}

func (v *MercadoPagoWebhookVerifier) Name() entities.ProviderName {
	return entities.ProviderMercadoPago
}

func (v *MercadoPagoWebhookVerifier) VerifyAndParse(ctx context.Context, payload []byte, headers http.Header) (entities.WebhookEvent, error) {
	var body mercadoPagoWebhookBody
	if err := json.Unmarshal(payload, &body); err != nil {
		return entities.WebhookEvent{}, payloadError(entities.ProviderMercadoPago, err)
	}

	ts, sigs := parseSignatureHeader(headers.Get(HeaderMercadoPagoSignature), ",", "v1")
	if ts == "" || len(sigs) == 0 {
		return entities.WebhookEvent{}, signatureError(entities.ProviderMercadoPago, "missing or malformed mercado pago signature", nil)
	}

	dataID := strings.ToLower(body.Data.ID)
	var manifest strings.Builder
	if dataID != "" {
		fmt.Fprintf(&manifest, "id:%s;", dataID)
	}
	if rid := headers.Get(HeaderMercadoPagoRequestID); rid != "" {
		fmt.Fprintf(&manifest, "request-id:%s;", rid)
	}
	fmt.Fprintf(&manifest, "ts:%s;", ts)
	if !anySignatureMatches(sigs, hmacSHA256(v.secret, []byte(manifest.String()))) {
		return entities.WebhookEvent{}, signatureError(entities.ProviderMercadoPago, "mercado pago signature mismatch", nil)
	}

	out := entities.WebhookEvent{
		Provider:              entities.ProviderMercadoPago,
		EventID:               body.ID.String(),
		EventType:             nonEmpty(body.Action, body.Type),
		ProviderTransactionID: body.Data.ID,
		RawPayload:            append(json.RawMessage(nil), payload...),
	}
	if body.Type != "payment" || v.payments == nil || body.Data.ID == "" {
		return out, nil
	}

	id, err := strconv.Atoi(body.Data.ID)
	if err != nil {
		return entities.WebhookEvent{}, payloadError(entities.ProviderMercadoPago, err)
	}
	resp, err := v.payments.Get(ctx, id)
	if err != nil {
		return entities.WebhookEvent{}, classifyMercadoPagoError(err)
	}
	if status, ok := mapMercadoPagoStatus(resp.Status); ok {
		out.Status = status
	}
	return out, nil
}

// parseSignatureHeader splits "ts=1,h1=a,h1=b" style headers and returns the timestamp and every
// signature under sigKey.
func parseSignatureHeader(header, sep, sigKey string) (string, []string) {
	var ts string
	var sigs []string
	for _, part := range strings.Split(header, sep) {
		k, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "ts":
			ts = val
		case sigKey:
			sigs = append(sigs, val)
		}
	}
	return ts, sigs
}

func anySignatureMatches(sigs []string, expected []byte) bool {
	for _, s := range sigs {
		if hexSignatureMatches(s, expected) {
			return true
		}
	}
	return false
}

func checkTimestamp(ts string, now time.Time, tolerance time.Duration) error {
	sec, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", ts, err)
	}
	age := now.Sub(time.Unix(sec, 0))
	if age > tolerance || age < -tolerance {
		return fmt.Errorf("timestamp %s is %s away from now", ts, age)
	}
	return nil
}
