package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentCreateRequest_ToEntity(t *testing.T) {
	t.Run("body key wins", func(t *testing.T) {
		r := PaymentCreateRequest{Amount: 100, Currency: " usd ", IdempotencyKey: "body-key", Metadata: map[string]string{"a": "b"}}
		got := r.ToEntity("header-key")
		assert.Equal(t, int64(100), got.Amount)
		assert.Equal(t, "USD", got.Currency)
		assert.Equal(t, "body-key", got.IdempotencyKey)
		assert.Equal(t, "b", got.Metadata["a"])
	})

	t.Run("header fills missing key", func(t *testing.T) {
		got := PaymentCreateRequest{Amount: 1, Currency: "inr"}.ToEntity(" header-key ")
		assert.Equal(t, "header-key", got.IdempotencyKey)
	})

	t.Run("no key anywhere", func(t *testing.T) {
		got := PaymentCreateRequest{Amount: 1, Currency: "inr"}.ToEntity("")
		assert.Empty(t, got.IdempotencyKey)
	})
}
