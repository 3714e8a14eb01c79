package response

import (
	"context"
	"net/http"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

// WithRequestID stores id in ctx under the key RequestIDFromContext
// reads back — used by the request-id middleware.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestIDFromContext(r *http.Request) string {
	if v, ok := r.Context().Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}
