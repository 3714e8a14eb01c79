package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/domain"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/ports"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/transport/http/response"
)

// DeadLettersHandler exposes the append-only dead-letter store (spec
// §3, §6) for operator inspection, grounded on event-service's
// EventsHandler query-param parsing shape.
type DeadLettersHandler struct {
	Repo ports.DeadLetterRepository
}

func NewDeadLettersHandler(repo ports.DeadLetterRepository) *DeadLettersHandler {
	return &DeadLettersHandler{Repo: repo}
}

// List handles GET /dead-letters?from=RFC3339&to=RFC3339.
func (h *DeadLettersHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, err := parseTimeParam(q.Get("from"), time.Now().Add(-24*time.Hour))
	if err != nil {
		response.WriteError(w, r, domain.ErrValidationMeta("invalid query param", map[string]string{"from": "must be RFC3339 timestamp"}))
		return
	}
	to, err := parseTimeParam(q.Get("to"), time.Now())
	if err != nil {
		response.WriteError(w, r, domain.ErrValidationMeta("invalid query param", map[string]string{"to": "must be RFC3339 timestamp"}))
		return
	}

	records, err := h.Repo.QueryByTimeRange(r.Context(), from, to)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, records)
}

// Get handles GET /dead-letters/{record_id}.
func (h *DeadLettersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "record_id")
	record, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	if record == nil {
		response.WriteError(w, r, domain.ErrNotFoundMeta("dead letter not found", map[string]string{"id": id}))
		return
	}
	response.OK(w, record)
}

func parseTimeParam(v string, def time.Time) (time.Time, error) {
	if v == "" {
		return def, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, v)
}
