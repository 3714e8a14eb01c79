package eventcontract

import (
	"errors"
	"fmt"
	"strings"
)

// FieldError names one failing field of a validated envelope.
type FieldError struct {
	Field   string
	Problem string
}

// WorldEventValidationError is a structured, per-field validation
// failure (spec §4.1). It is never retryable — the processor
// dead-letters it with errorCode=schema-validation.
type WorldEventValidationError struct {
	Fields []FieldError
}

func (e *WorldEventValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Problem))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *WorldEventValidationError) Retryable() bool { return false }

func (e *WorldEventValidationError) Code() string { return "schema-validation" }

// ServiceBusUnavailableError models a transient transport failure
// (spec §4.1). Its retryability is recognized structurally by Code()
// even when the concrete type identity is lost across a boundary
// (e.g. wrapped, or reconstructed from a different package) — see
// IsRetryableError.
type ServiceBusUnavailableError struct {
	Cause error
}

func (e *ServiceBusUnavailableError) Error() string {
	if e.Cause != nil {
		return "servicebus unavailable: " + e.Cause.Error()
	}
	return "servicebus unavailable"
}

func (e *ServiceBusUnavailableError) Unwrap() error { return e.Cause }

func (e *ServiceBusUnavailableError) Retryable() bool { return true }

func (e *ServiceBusUnavailableError) Code() string { return "SERVICEBUS_UNAVAILABLE" }

// retryableCoded is the duck-typed shape spec §9 requires:
// "Duck-typed retryability becomes a small variant with a boolean
// retryable and a code string; isRetryableError matches structurally
// by code." Any error exposing this shape is recognized, regardless
// of its concrete Go type.
type retryableCoded interface {
	Retryable() bool
	Code() string
}

// codes recognized as retryable regardless of which concrete type
// reports them — this is what lets retryability survive a boundary
// crossing that loses type identity (e.g. JSON round-trip, a mock in
// a test) per spec §4.1.
var retryableCodes = map[string]struct{}{
	"SERVICEBUS_UNAVAILABLE": {},
}

// IsRetryableError reports whether err should be surfaced to the
// queue transport for redelivery rather than dead-lettered (spec §7).
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	var rc retryableCoded
	if errors.As(err, &rc) {
		if _, known := retryableCodes[rc.Code()]; known {
			return true
		}
		return rc.Retryable()
	}
	return false
}
