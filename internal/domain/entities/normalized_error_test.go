package entities

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizedError_Error(t *testing.T) {
	err := NewNormalizedError(ErrorKindProviderRejected, "card declined", errors.New("402")).WithProvider(ProviderStripe, "card_declined")
	assert.Equal(t, "stripe: provider_rejected [card_declined]: card declined (402)", err.Error())
	assert.Equal(t, "validation: bad", NewValidationError("bad").Error())
}

func TestNormalizedError_Is(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewNormalizedError(ErrorKindNetwork, "timeout", nil))
	assert.True(t, errors.Is(err, ErrNetwork))
	assert.False(t, errors.Is(err, ErrAuth))
}

func TestNormalizedError_DefaultRetriable(t *testing.T) {
	assert.True(t, NewNormalizedError(ErrorKindNetwork, "x", nil).Retriable)
	assert.True(t, NewNormalizedError(ErrorKindUnknown, "x", nil).Retriable)
	assert.False(t, NewNormalizedError(ErrorKindAuth, "x", nil).Retriable)
	assert.False(t, NewNormalizedError(ErrorKindProviderRejected, "x", nil).Retriable)
	assert.False(t, NewValidationError("x").Retriable)
}

func TestAsNormalizedError(t *testing.T) {
	assert.Nil(t, AsNormalizedError(nil))
	assert.Equal(t, ErrorKind(""), KindOf(nil))

	raw := errors.New("boom")
	nErr := AsNormalizedError(raw)
	assert.Equal(t, ErrorKindUnknown, nErr.Kind)
	assert.ErrorIs(t, nErr, raw)

	orig := NewValidationError("bad")
	assert.Same(t, orig, AsNormalizedError(fmt.Errorf("ctx: %w", orig)))
}

func TestNormalizedError_Clone(t *testing.T) {
	var nilErr *NormalizedError
	assert.Nil(t, nilErr.Clone())

	orig := NewValidationError("bad")
	c := orig.Clone()
	c.Message = "changed"
	assert.Equal(t, "bad", orig.Message)
}
