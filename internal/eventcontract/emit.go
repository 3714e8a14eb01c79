package eventcontract

import (
	"time"

	"github.com/google/uuid"
)

// MessageProperties are the routing hints handed to the publisher
// alongside the envelope (spec §4.1).
type MessageProperties struct {
	CorrelationID string
	EventType     EventType
	ScopeKey      string
}

// EmitInput are the inputs to the Emit operation (spec §4.1).
type EmitInput struct {
	EventType      EventType
	ScopeKey       string
	Payload        map[string]any
	Actor          Actor
	CorrelationID  string
	CausationID    string
	IdempotencyKey string
}

// EmitResult is the Emit operation's output.
type EmitResult struct {
	Envelope          Envelope
	MessageProperties MessageProperties
	Warnings          []string
}

// Emit builds and validates a canonical envelope from in.
//
// Behavior (spec §4.1):
//   - generates eventId, sets occurredUtc=now, version=1
//   - passes the caller's idempotencyKey through unchanged, or
//     generates one if absent
//   - auto-generates correlationId and appends a warning if missing
//   - rejects with a WorldEventValidationError if eventType or
//     actor.kind is not in the enum
func Emit(in EmitInput, now time.Time) (EmitResult, error) {
	var warnings []string

	correlationID := in.CorrelationID
	if correlationID == "" {
		correlationID = uuid.NewString()
		warnings = append(warnings, "correlationId missing; generated "+correlationID)
	}

	idempotencyKey := in.IdempotencyKey
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}

	env := Envelope{
		EventID:        uuid.NewString(),
		Type:           in.EventType,
		OccurredUtc:    now.UTC(),
		Actor:          in.Actor,
		CorrelationID:  correlationID,
		CausationID:    in.CausationID,
		IdempotencyKey: idempotencyKey,
		Version:        1,
		Payload:        in.Payload,
	}

	if err := env.Validate(); err != nil {
		return EmitResult{}, err
	}

	return EmitResult{
		Envelope: env,
		MessageProperties: MessageProperties{
			CorrelationID: correlationID,
			EventType:     in.EventType,
			ScopeKey:      in.ScopeKey,
		},
		Warnings: warnings,
	}, nil
}
