package service

import (
	"errors"
	"fmt"

	"github.com/slicehouse/api/internal/gateway"
)

// Errors returned by the order service. Handlers classify them with errors.Is.
var (
	ErrEmptyOrder            = errors.New("order must contain at least one item")
	ErrValidation            = errors.New("validation failed")
	ErrInvalidSize           = errors.New("size is not offered for this item")
	ErrIncompleteComposition = errors.New("custom pizza requires a base, sauce and cheese")
	ErrNotFound              = errors.New("not found")
	ErrInvalidSignature      = errors.New("invalid payment signature")
	ErrInvalidStatus         = errors.New("invalid status")
	ErrInvalidTransition     = errors.New("status transition not allowed")
	ErrConflict              = errors.New("conflict")

	ErrConfiguration         = errors.New("payment gateway misconfigured")
	ErrInvalidPaymentRequest = errors.New("payment request rejected")
	ErrPaymentGateway        = errors.New("payment system unavailable")
)

// validationf wraps ErrValidation with a caller-facing message.
func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// mapGatewayError folds gateway failures into service sentinels while keeping
// the original error in the chain for logging.
func mapGatewayError(err error) error {
	kind, ok := gateway.KindOf(err)
	if !ok {
		return fmt.Errorf("%w: %w", ErrPaymentGateway, err)
	}
	switch kind {
	case gateway.KindConfiguration:
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	case gateway.KindInvalidRequest:
		return fmt.Errorf("%w: %w", ErrInvalidPaymentRequest, err)
	default:
		return fmt.Errorf("%w: %w", ErrPaymentGateway, err)
	}
}
