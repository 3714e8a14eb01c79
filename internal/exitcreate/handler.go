// Package exitcreate implements the exit-create handler (spec §4.5):
// apply one World.Exit.Create event by ensuring the bidirectional exit
// pair and its travel duration. Grounded on join-service's
// transactional repository-call handlers — a thin decode-then-delegate
// shape, since the invariant-enforcing work lives in the repository.
package exitcreate

import (
	"context"
	"encoding/json"

	"github.com/piquet-h/the-shifting-atlas-sub001/internal/domain"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/eventcontract"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/ports"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/queueprocessor"
)

// Payload is the World.Exit.Create event payload (spec §6).
type Payload struct {
	FromLocationID string `json:"fromLocationId"`
	ToLocationID   string `json:"toLocationId"`
	Direction      string `json:"direction"`
	Reciprocal     bool   `json:"reciprocal"`
	TravelDurationMs *int64 `json:"travelDurationMs,omitempty"`
}

// Handler's Handle method matches queueprocessor.HandlerFunc.
type Handler struct {
	Locations ports.LocationRepository
}

func NewHandler(locations ports.LocationRepository) *Handler {
	return &Handler{Locations: locations}
}

func (h *Handler) Handle(ctx context.Context, env eventcontract.Envelope, ictx queueprocessor.InvocationContext) error {
	payload, err := decodePayload(env.Payload)
	if err != nil {
		return domain.ErrHandlerPermanent("invalid World.Exit.Create payload: " + err.Error())
	}

	direction := domain.Direction(payload.Direction)
	if !direction.Valid() {
		return domain.ErrHandlerPermanent("invalid direction: " + payload.Direction)
	}
	if payload.FromLocationID == "" || payload.ToLocationID == "" {
		return domain.ErrHandlerPermanent("fromLocationId and toLocationId are required")
	}

	if err := h.Locations.EnsureExitBidirectional(ctx, payload.FromLocationID, direction, payload.ToLocationID, payload.Reciprocal); err != nil {
		return err
	}

	if payload.TravelDurationMs != nil {
		if err := h.Locations.SetExitTravelDuration(ctx, payload.FromLocationID, direction, *payload.TravelDurationMs); err != nil {
			return err
		}
	}

	return nil
}

func decodePayload(raw map[string]any) (Payload, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return Payload{}, err
	}
	var p Payload
	if err := json.Unmarshal(b, &p); err != nil {
		return Payload{}, err
	}
	return p, nil
}
