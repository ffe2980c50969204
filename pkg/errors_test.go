package pkg

import (
	"errors"
	"net/http"
	"testing"

	"payment_binder/internal/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError(t *testing.T) {
	cause := errors.New("boom")
	e := NewDomainError("INTERNAL_ERROR", "An internal error occurred", cause, http.StatusInternalServerError)
	assert.Equal(t, "INTERNAL_ERROR: An internal error occurred: boom", e.Error())
	assert.ErrorIs(t, e, cause)

	simple := NewDomainErrorSimple("NOT_FOUND", "missing", http.StatusNotFound)
	assert.Equal(t, "NOT_FOUND: missing", simple.Error())
	assert.Equal(t, HTTPError{Code: "NOT_FOUND", Message: "missing"}, simple.ToHTTPError())
}

func TestFromNormalizedError(t *testing.T) {
	tests := []struct {
		kind   entities.ErrorKind
		status int
		code   string
	}{
		{entities.ErrorKindValidation, http.StatusBadRequest, "INVALID_REQUEST"},
		{entities.ErrorKindAuth, http.StatusBadGateway, "PAYMENT_PROVIDER_UNAUTHORIZED"},
		{entities.ErrorKindNetwork, http.StatusServiceUnavailable, "PAYMENT_PROVIDER_UNAVAILABLE"},
		{entities.ErrorKindProviderRejected, http.StatusPaymentRequired, "PAYMENT_REJECTED"},
		{entities.ErrorKindUnknown, http.StatusBadGateway, "PAYMENT_PROVIDER_ERROR"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			nErr := entities.NewNormalizedError(tt.kind, "msg", nil).WithProvider(entities.ProviderStripe, "card_declined")
			appErr := FromNormalizedError(nErr)
			assert.Equal(t, tt.status, appErr.HTTPStatus)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, "msg", appErr.Message)

			body := appErr.ToHTTPError()
			assert.Equal(t, "stripe", body.Details["provider"])
			assert.Equal(t, "card_declined", body.Details["provider_code"])
			assert.Equal(t, string(tt.kind), body.Details["kind"])
		})
	}

	t.Run("plain error is unknown", func(t *testing.T) {
		appErr := FromNormalizedError(errors.New("x"))
		assert.Equal(t, http.StatusBadGateway, appErr.HTTPStatus)
	})

	t.Run("app error passes through", func(t *testing.T) {
		in := NewDomainErrorSimple("NOT_FOUND", "missing", http.StatusNotFound)
		require.Same(t, in, FromNormalizedError(in))
	})
}
