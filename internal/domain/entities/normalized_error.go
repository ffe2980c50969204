package entities

import (
	"errors"
	"fmt"
)

// ErrorKind is the provider-independent failure taxonomy.
type ErrorKind string

const (
	// ErrorKindValidation means the caller input is malformed. Never retried.
	ErrorKindValidation ErrorKind = "validation"
	// ErrorKindAuth means the provider rejected our credentials. Never retried.
	ErrorKindAuth ErrorKind = "auth"
	// ErrorKindNetwork covers transport failures, timeouts and provider overload. Retried.
	ErrorKindNetwork ErrorKind = "network"
	// ErrorKindProviderRejected is a business rejection such as insufficient funds. Never retried.
	ErrorKindProviderRejected ErrorKind = "provider_rejected"
	// ErrorKindUnknown is the catch-all. Retried once.
	ErrorKindUnknown ErrorKind = "unknown"
)

// DefaultRetriable reports whether failures of this kind are retriable unless an adapter says otherwise.
func (k ErrorKind) DefaultRetriable() bool {
	return k == ErrorKindNetwork || k == ErrorKindUnknown
}

// NormalizedError is the only error shape that leaves the dispatch core and the provider adapters.
type NormalizedError struct {
	Kind         ErrorKind    `json:"kind"`
	Provider     ProviderName `json:"provider,omitempty"`
	ProviderCode string       `json:"provider_code,omitempty"`
	Retriable    bool         `json:"retriable"`
	Message      string       `json:"message"`
	Err          error        `json:"-"`
}

// Error implements the error interface
func (e *NormalizedError) Error() string {
	prefix := string(e.Kind)
	if e.Provider != "" {
		prefix = fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	}
	if e.ProviderCode != "" {
		prefix = fmt.Sprintf("%s [%s]", prefix, e.ProviderCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *NormalizedError) Unwrap() error {
	return e.Err
}

// Is matches any NormalizedError of the same kind, so errors.Is(err, ErrNetwork) works.
func (e *NormalizedError) Is(target error) bool {
	t, ok := target.(*NormalizedError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Clone returns a copy that is safe to hand to another caller. The cause is kept as is.
func (e *NormalizedError) Clone() *NormalizedError {
	if e == nil {
		return nil
	}
	out := *e
	return &out
}

// NewNormalizedError creates an error whose retriable flag follows the kind default.
func NewNormalizedError(kind ErrorKind, message string, err error) *NormalizedError {
	return &NormalizedError{
		Kind:      kind,
		Retriable: kind.DefaultRetriable(),
		Message:   message,
		Err:       err,
	}
}

// NewValidationError creates a validation error with no cause.
func NewValidationError(message string) *NormalizedError {
	return NewNormalizedError(ErrorKindValidation, message, nil)
}

// WithProvider sets the provider name and code on the error and returns it.
func (e *NormalizedError) WithProvider(provider ProviderName, code string) *NormalizedError {
	e.Provider = provider
	e.ProviderCode = code
	return e
}

// Kind sentinels, matched by kind only.
var (
	ErrValidation       = &NormalizedError{Kind: ErrorKindValidation, Message: "validation failed"}
	ErrAuth             = &NormalizedError{Kind: ErrorKindAuth, Message: "authentication failed"}
	ErrNetwork          = &NormalizedError{Kind: ErrorKindNetwork, Message: "network failure", Retriable: true}
	ErrProviderRejected = &NormalizedError{Kind: ErrorKindProviderRejected, Message: "rejected by provider"}
	ErrUnknown          = &NormalizedError{Kind: ErrorKindUnknown, Message: "unknown failure", Retriable: true}
)

// AsNormalizedError extracts a NormalizedError from err. Anything else is reported as unknown.
func AsNormalizedError(err error) *NormalizedError {
	if err == nil {
		return nil
	}
	var nErr *NormalizedError
	if errors.As(err, &nErr) {
		return nErr
	}
	return NewNormalizedError(ErrorKindUnknown, "unclassified failure", err)
}

// KindOf returns the kind of err, or an empty kind when err is nil.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	return AsNormalizedError(err).Kind
}
