package gateway

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	// KindUnavailable covers transport failures, timeouts, 5xx and malformed
	// responses. Safe to retry from the client side.
	KindUnavailable ErrorKind = iota
	// KindConfiguration means our credentials are missing or rejected.
	KindConfiguration
	// KindInvalidRequest means the gateway (or local pre-checks) rejected
	// the amount, currency or receipt.
	KindInvalidRequest
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindInvalidRequest:
		return "invalid_request"
	default:
		return "unavailable"
	}
}

// Error is returned by Client for every failed intent creation.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("payment gateway %s", e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the kind of a gateway error, or false if err is not one.
func KindOf(err error) (ErrorKind, bool) {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind, true
	}
	return 0, false
}
