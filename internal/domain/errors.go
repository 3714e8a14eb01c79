package domain

import "fmt"

// ErrCode is the closed taxonomy of domain-level failures. Grounded on
// event-service's domain.AppError — kept flat rather than typed errors
// per handler so the queue processor can classify failures by code
// alone (see eventcontract.IsRetryableError).
type ErrCode string

const (
	CodeValidation       ErrCode = "validation_error"
	CodeNotFound         ErrCode = "not_found"
	CodeConflict         ErrCode = "conflict"
	CodeHandlerPermanent ErrCode = "handler_permanent"
	CodeUnauthorized     ErrCode = "unauthorized"
)

type AppError struct {
	Code    ErrCode
	Message string
	Meta    map[string]string
}

func (e *AppError) Error() string {
	if len(e.Meta) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Meta)
}

func ErrValidation(msg string) error { return &AppError{Code: CodeValidation, Message: msg} }

func ErrValidationMeta(msg string, meta map[string]string) error {
	return &AppError{Code: CodeValidation, Message: msg, Meta: meta}
}

// ErrNotFound wraps a missing-entity failure. LocationNotFoundError
// (below) does not use this code: it is CodeHandlerPermanent with the
// missing id in Meta["id"].
func ErrNotFound(msg string) error { return &AppError{Code: CodeNotFound, Message: msg} }

func ErrNotFoundMeta(msg string, meta map[string]string) error {
	return &AppError{Code: CodeNotFound, Message: msg, Meta: meta}
}

func ErrConflict(msg string) error { return &AppError{Code: CodeConflict, Message: msg} }

// ErrHandlerPermanent marks a handler-raised failure as permanent at
// the handler boundary (spec §7): the processor dead-letters it with
// errorCode=handler-permanent instead of surfacing it for redelivery.
func ErrHandlerPermanent(msg string) error {
	return &AppError{Code: CodeHandlerPermanent, Message: msg}
}

// ErrUnauthorized marks a failed or missing credential at the HTTP edge
// (spec §11 transport). It never reaches the queue processor.
func ErrUnauthorized(msg string) error { return &AppError{Code: CodeUnauthorized, Message: msg} }

// LocationNotFoundError is the specific handler-permanent error raised
// by the area generation orchestrator (spec §4.3) when an explicitly
// addressed anchor does not exist.
func LocationNotFoundError(id string) error {
	return &AppError{
		Code:    CodeHandlerPermanent,
		Message: "location not found",
		Meta:    map[string]string{"id": id},
	}
}
