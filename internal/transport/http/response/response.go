// Package response provides the JSON envelope helpers shared by every
// handler, grounded on auth-service's internal/transport/http/response
// (success.go + error.go): a {"data": ...} envelope on success, and a
// {"error": {code, message, meta, request_id}} envelope mapped from
// domain.AppError on failure.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/piquet-h/the-shifting-atlas-sub001/internal/domain"
)

type Envelope struct {
	Data any `json:"data"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func OK(w http.ResponseWriter, data any) { WriteJSON(w, http.StatusOK, Envelope{Data: data}) }

func Created(w http.ResponseWriter, data any) { WriteJSON(w, http.StatusCreated, Envelope{Data: data}) }

func Accepted(w http.ResponseWriter, data any) { WriteJSON(w, http.StatusAccepted, Envelope{Data: data}) }

func NoContent(w http.ResponseWriter) { w.WriteHeader(http.StatusNoContent) }

type ErrorBody struct {
	Error ErrorPayload `json:"error"`
}

type ErrorPayload struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Meta      map[string]string `json:"meta,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteError converts a domain.AppError into a consistent JSON error
// response. Non-domain errors are treated as internal (500) without
// leaking details.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"
	message := "internal error"
	var meta map[string]string

	var ae *domain.AppError
	if errors.As(err, &ae) {
		status = statusFromCode(ae.Code)
		code = string(ae.Code)
		message = ae.Message
		meta = ae.Meta
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorBody{
		Error: ErrorPayload{Code: code, Message: message, Meta: meta, RequestID: RequestIDFromContext(r)},
	})
}

func statusFromCode(code domain.ErrCode) int {
	switch code {
	case domain.CodeValidation:
		return http.StatusBadRequest
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeConflict:
		return http.StatusConflict
	case domain.CodeHandlerPermanent:
		return http.StatusUnprocessableEntity
	case domain.CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
