package entities

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyRecord_Expired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.False(t, IdempotencyRecord{}.Expired(now))
	assert.False(t, IdempotencyRecord{ExpiresAt: now.Add(time.Second)}.Expired(now))
	assert.True(t, IdempotencyRecord{ExpiresAt: now}.Expired(now))
	assert.True(t, IdempotencyRecord{ExpiresAt: now.Add(-time.Second)}.Expired(now))
}

func TestIdempotencyRecord_Outcome(t *testing.T) {
	res := PaymentResult{Provider: ProviderRazorpay, ProviderTransactionID: "order_1", Status: PaymentStatusPending, RawProviderPayload: json.RawMessage(`{"id":"order_1"}`)}
	rec := IdempotencyRecord{Key: "k", Result: &res}

	got, err := rec.Outcome()
	require.NoError(t, err)
	assert.Equal(t, res, got)
	got.RawProviderPayload[0] = 'X'
	assert.Equal(t, byte('{'), res.RawProviderPayload[0])

	failed := IdempotencyRecord{Key: "k", Failure: NewNormalizedError(ErrorKindProviderRejected, "declined", nil)}
	_, err = failed.Outcome()
	assert.Equal(t, ErrorKindProviderRejected, KindOf(err))
	assert.NotSame(t, failed.Failure, AsNormalizedError(err))

	_, err = IdempotencyRecord{Key: "k"}.Outcome()
	assert.Equal(t, ErrorKindUnknown, KindOf(err))
}

func TestIdempotencyRecord_Clone(t *testing.T) {
	res := PaymentResult{ProviderTransactionID: "pi_1", RawProviderPayload: json.RawMessage(`{}`)}
	rec := IdempotencyRecord{Key: "k", Result: &res}
	c := rec.Clone()
	c.Result.ProviderTransactionID = "pi_2"
	assert.Equal(t, "pi_1", rec.Result.ProviderTransactionID)
}

func TestFingerprint(t *testing.T) {
	a := PaymentRequest{Amount: 100, Currency: "USD", IdempotencyKey: "a", Metadata: map[string]string{"x": "1", "y": "2"}}
	b := PaymentRequest{Amount: 100, Currency: "USD", IdempotencyKey: "b", Metadata: map[string]string{"y": "2", "x": "1"}}

	assert.Equal(t, Fingerprint(ProviderStripe, a), Fingerprint(ProviderStripe, b), "key and map order are ignored")
	assert.NotEqual(t, Fingerprint(ProviderStripe, a), Fingerprint(ProviderPaddle, a))

	c := a
	c.Amount = 101
	assert.NotEqual(t, Fingerprint(ProviderStripe, a), Fingerprint(ProviderStripe, c))

	d := a
	d.Metadata = map[string]string{"x": "1", "y": "3"}
	assert.NotEqual(t, Fingerprint(ProviderStripe, a), Fingerprint(ProviderStripe, d))

	e := a
	e.Metadata = map[string]string{"a": "b=c"}
	f := a
	f.Metadata = map[string]string{"a=b": "c"}
	assert.NotEqual(t, Fingerprint(ProviderStripe, e), Fingerprint(ProviderStripe, f), "separator inside key or value")

	g := a
	g.Metadata = map[string]string{"a": "b\x00c=d"}
	h := a
	h.Metadata = map[string]string{"a": "b", "c": "d"}
	assert.NotEqual(t, Fingerprint(ProviderStripe, g), Fingerprint(ProviderStripe, h), "one pair spelling two")
}
