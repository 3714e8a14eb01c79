package eventcontract

import "time"

// Envelope is the canonical wire-level event shape (spec §6). Payload
// is kept as raw JSON-compatible `any` here; handlers re-marshal into
// their typed payload (e.g. batchgen.Payload) after dispatch.
type Envelope struct {
	EventID        string         `json:"eventId"`
	Type           EventType      `json:"type"`
	OccurredUtc    time.Time      `json:"occurredUtc"`
	IngestedUtc    *time.Time     `json:"ingestedUtc,omitempty"`
	Actor          Actor          `json:"actor"`
	CorrelationID  string         `json:"correlationId"`
	CausationID    string         `json:"causationId,omitempty"`
	IdempotencyKey string         `json:"idempotencyKey"`
	Version        int            `json:"version"`
	Payload        map[string]any `json:"payload"`
}

// Validate runs envelope schema validation (spec §4.2 step 2),
// returning a structured per-field WorldEventValidationError on
// failure.
func (e *Envelope) Validate() error {
	var fields []FieldError

	if e.EventID == "" {
		fields = append(fields, FieldError{"eventId", "required"})
	}
	if !e.Type.Valid() {
		fields = append(fields, FieldError{"type", "must be a known event type"})
	}
	if e.OccurredUtc.IsZero() {
		fields = append(fields, FieldError{"occurredUtc", "required"})
	}
	if !e.Actor.Kind.Valid() {
		fields = append(fields, FieldError{"actor.kind", "must be one of player, npc, system, ai"})
	}
	if e.CorrelationID == "" {
		fields = append(fields, FieldError{"correlationId", "required"})
	}
	if e.IdempotencyKey == "" {
		fields = append(fields, FieldError{"idempotencyKey", "required"})
	}
	if e.Version != 1 {
		fields = append(fields, FieldError{"version", "must be 1"})
	}

	if len(fields) > 0 {
		return &WorldEventValidationError{Fields: fields}
	}
	return nil
}

// PopulateIngestedUtc sets IngestedUtc to now if it is absent, per
// spec §4.2 step 2: "Populate ingestedUtc if absent."
func (e *Envelope) PopulateIngestedUtc(now time.Time) {
	if e.IngestedUtc == nil {
		u := now.UTC()
		e.IngestedUtc = &u
	}
}
