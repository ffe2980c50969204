package entities

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidatePaymentRequest checks the request invariants before anything is sent to a provider.
func ValidatePaymentRequest(req PaymentRequest) error {
	if strings.TrimSpace(req.IdempotencyKey) == "" {
		return NewValidationError("idempotency_key is required")
	}
	if err := requestValidator().Struct(req); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) && len(vErrs) > 0 {
			return NewNormalizedError(ErrorKindValidation, describeFieldError(vErrs[0]), err)
		}
		return NewNormalizedError(ErrorKindValidation, "invalid payment request", err)
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.StructField()
	// dive errors are reported as Metadata[key]
	if i := strings.IndexByte(field, '['); i > 0 {
		field = field[:i]
	}
	switch field {
	case "Amount":
		return "amount must be a positive integer in minor units"
	case "Currency":
		return fmt.Sprintf("currency %q is not a recognized ISO-4217 code", fe.Value())
	case "IdempotencyKey":
		return "idempotency_key must be between 1 and 255 characters"
	case "Metadata":
		return "metadata keys must be 1-40 characters and values at most 500 characters"
	}
	return fmt.Sprintf("field %s failed %s", fe.Field(), fe.Tag())
}

// zero-decimal and three-decimal currencies; everything else has two minor digits.
var currencyExponents = map[string]int32{
	"BIF": 0, "CLP": 0, "DJF": 0, "GNF": 0, "ISK": 0, "JPY": 0, "KMF": 0, "KRW": 0,
	"PYG": 0, "RWF": 0, "UGX": 0, "UYI": 0, "VND": 0, "VUV": 0, "XAF": 0, "XOF": 0, "XPF": 0,
	"BHD": 3, "IQD": 3, "JOD": 3, "KWD": 3, "LYD": 3, "OMR": 3, "TND": 3,
}

// CurrencyExponent returns the number of minor-unit digits for an ISO-4217 code.
func CurrencyExponent(currency string) int32 {
	if exp, ok := currencyExponents[strings.ToUpper(currency)]; ok {
		return exp
	}
	return 2
}
