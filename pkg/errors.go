package pkg

import (
	"errors"
	"fmt"
	"net/http"

	"payment_binder/internal/domain/entities"
)

// AppError is the error shape returned by the HTTP layer.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    map[string]any
}

// HTTPError is the JSON body written for an AppError.
type HTTPError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewDomainError(code, message string, err error, status int) *AppError {
	return &AppError{Code: code, Message: message, Err: err, HTTPStatus: status}
}

func NewDomainErrorSimple(code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// WithDetails attaches extra fields to the response body.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func (e *AppError) ToHTTPError() HTTPError {
	return HTTPError{Code: e.Code, Message: e.Message, Details: e.Details}
}

// FromNormalizedError maps a dispatch or webhook failure to its HTTP representation.
//
// validation → 400, auth → 502, network → 503, provider_rejected → 402, unknown → 502.
// Auth is a gateway error because it is our credentials that the provider refused.
func FromNormalizedError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	nErr := entities.AsNormalizedError(err)
	if nErr == nil {
		return NewDomainErrorSimple("INTERNAL_ERROR", "An internal error occurred", http.StatusInternalServerError)
	}

	var code string
	var status int
	switch nErr.Kind {
	case entities.ErrorKindValidation:
		code, status = "INVALID_REQUEST", http.StatusBadRequest
	case entities.ErrorKindAuth:
		code, status = "PAYMENT_PROVIDER_UNAUTHORIZED", http.StatusBadGateway
	case entities.ErrorKindNetwork:
		code, status = "PAYMENT_PROVIDER_UNAVAILABLE", http.StatusServiceUnavailable
	case entities.ErrorKindProviderRejected:
		code, status = "PAYMENT_REJECTED", http.StatusPaymentRequired
	default:
		code, status = "PAYMENT_PROVIDER_ERROR", http.StatusBadGateway
	}

	details := map[string]any{
		"kind":      string(nErr.Kind),
		"retriable": nErr.Retriable,
	}
	if nErr.Provider != "" {
		details["provider"] = string(nErr.Provider)
	}
	if nErr.ProviderCode != "" {
		details["provider_code"] = nErr.ProviderCode
	}
	return NewDomainError(code, nErr.Message, nErr, status).WithDetails(details)
}
