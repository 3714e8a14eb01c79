package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/transport/http/response"
)

const HeaderXRequestID = "X-Request-Id"

// RequestID is grounded on event-service's middleware.RequestID —
// accepts an inbound request id or mints one, echoes it back, and
// stashes it in context for response.WriteError/handlers to read.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(HeaderXRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(HeaderXRequestID, reqID)
		next.ServeHTTP(w, r.WithContext(response.WithRequestID(r.Context(), reqID)))
	})
}
