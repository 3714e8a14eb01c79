package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/piquet-h/the-shifting-atlas-sub001/internal/areagen"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/domain"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/transport/http/response"
)

// AreaGenRequest is the manual trigger's request body (spec §11
// supplemented feature: an operator-facing entry point for the
// otherwise event-driven area generation orchestrator).
type AreaGenRequest struct {
	AnchorLocationID *string  `json:"anchorLocationId,omitempty"`
	Mode             string   `json:"mode,omitempty"`
	BudgetLocations  int      `json:"budgetLocations,omitempty"`
	IdempotencyKey   *string  `json:"idempotencyKey,omitempty"`
	RealmHints       []string `json:"realmHints,omitempty"`
	CorrelationID    string   `json:"correlationId,omitempty"`
}

type AreaGenHandler struct {
	Orchestrator *areagen.Orchestrator
}

func NewAreaGenHandler(o *areagen.Orchestrator) *AreaGenHandler {
	return &AreaGenHandler{Orchestrator: o}
}

// Trigger handles POST /area-generation.
func (h *AreaGenHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req AreaGenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteError(w, r, domain.ErrValidationMeta("invalid json body", map[string]string{"body": "malformed JSON"}))
		return
	}

	mode := areagen.ModeAuto
	if req.Mode != "" {
		mode = areagen.Mode(req.Mode)
	}

	result, err := h.Orchestrator.Generate(r.Context(), areagen.Request{
		AnchorLocationID: req.AnchorLocationID,
		Mode:             mode,
		BudgetLocations:  req.BudgetLocations,
		IdempotencyKey:   req.IdempotencyKey,
		RealmHints:       req.RealmHints,
		CorrelationID:    req.CorrelationID,
	})
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	response.Accepted(w, map[string]any{
		"correlationId":   result.Properties.CorrelationID,
		"eventId":         result.Envelope.EventID,
		"resolvedTerrain": result.ResolvedTerrain,
		"budgetClamped":   result.BudgetClamped,
	})
}
