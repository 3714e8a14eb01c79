package handlers

import (
	"net/http"

	"github.com/piquet-h/the-shifting-atlas-sub001/internal/transport/http/response"
)

// Health is grounded on event-service's health handler: a liveness
// probe with no dependency checks, since readiness is the orchestrator's
// concern (k8s startupProbe/livenessProbe split).
func Health(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{"status": "ok"})
}
