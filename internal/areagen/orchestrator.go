// Package areagen implements the area generation orchestrator (spec
// §4.3): resolve an anchor and a terrain, clamp a budget, derive an
// idempotency key, and emit exactly one World.Location.BatchGenerate
// event. Grounded on event-service's service.go orchestration layer
// (resolve -> validate -> emit -> telemetry) and join-service's
// publish.go for the emit-then-publish sequencing.
package areagen

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/config"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/domain"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/eventcontract"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/ports"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/telemetry"
	"github.com/rs/zerolog"
)

// Mode is the closed set of area-generation strategies (spec §4.3,
// §9: "Dynamic configuration becomes explicit configuration").
type Mode string

const (
	ModeAuto       Mode = "auto"
	ModeUrban      Mode = "urban"
	ModeWilderness Mode = "wilderness"
)

// Request is the orchestrator's input (spec §4.3).
type Request struct {
	AnchorLocationID *string
	Mode             Mode
	BudgetLocations  int
	IdempotencyKey   *string
	RealmHints       []string
	ArrivalDirection string
	ExpansionDepth   int
	TravelDurationMs *int64
	CorrelationID    string
}

// Result reports what the orchestrator decided, for callers and
// tests that need more than the emitted envelope.
type Result struct {
	Envelope        eventcontract.Envelope
	Properties      eventcontract.MessageProperties
	BudgetClamped   bool
	ResolvedTerrain string
}

type Clock interface{ Now() time.Time }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Orchestrator wires the repositories and publisher behind the single
// `generate` operation.
type Orchestrator struct {
	Locations         ports.LocationRepository
	Realms            ports.RealmRepository
	Publisher         eventcontract.Publisher
	Telemetry         telemetry.Sink
	RealmTable        RealmInferenceTable
	StarterLocationID string
	Clock             Clock
	Logger            zerolog.Logger
}

func New(locations ports.LocationRepository, realms ports.RealmRepository, publisher eventcontract.Publisher, sink telemetry.Sink, starterLocationID string, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		Locations:         locations,
		Realms:            realms,
		Publisher:         publisher,
		Telemetry:         sink,
		RealmTable:        DefaultRealmInferenceTable(),
		StarterLocationID: starterLocationID,
		Clock:             systemClock{},
		Logger:            logger,
	}
}

// Generate resolves anchor/terrain/budget, emits one
// World.Location.BatchGenerate event through the publisher, and
// returns the decision for telemetry/tests.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (Result, error) {
	o.Telemetry.Emit(ctx, telemetry.AreaGenerationStarted, map[string]any{
		"correlationId": req.CorrelationID, "mode": string(req.Mode),
	})

	anchorID := o.StarterLocationID
	var anchor *domain.Location
	if req.AnchorLocationID != nil && *req.AnchorLocationID != "" {
		anchorID = *req.AnchorLocationID
		loc, err := o.Locations.Get(ctx, anchorID)
		if err != nil || loc == nil {
			reason := "anchor location not found: " + anchorID
			o.Telemetry.Emit(ctx, telemetry.AreaGenerationFailed, map[string]any{
				"correlationId": req.CorrelationID, "reason": reason,
			})
			return Result{}, domain.LocationNotFoundError(anchorID)
		}
		anchor = loc
	} else {
		loc, err := o.Locations.Get(ctx, anchorID)
		if err == nil {
			anchor = loc
		}
	}

	budget := req.BudgetLocations
	clamped := false
	if budget <= 0 {
		budget = 1
	}
	if budget > config.MaxBudgetLocations {
		budget = config.MaxBudgetLocations
		clamped = true
	}

	terrain := o.resolveTerrain(ctx, req.Mode, anchor)

	idempotencyKey := ""
	if req.IdempotencyKey != nil && *req.IdempotencyKey != "" {
		idempotencyKey = *req.IdempotencyKey
	} else {
		idempotencyKey = uuid.NewString()
	}

	payload := map[string]any{
		"rootLocationId":   anchorID,
		"terrain":          terrain,
		"arrivalDirection": req.ArrivalDirection,
		"expansionDepth":   req.ExpansionDepth,
		"batchSize":        budget,
	}
	if req.TravelDurationMs != nil {
		payload["travelDurationMs"] = *req.TravelDurationMs
	}
	if len(req.RealmHints) > 0 {
		payload["realmHints"] = req.RealmHints
		payload["realmKey"] = req.RealmHints[0]
	}

	emitted, err := eventcontract.Emit(eventcontract.EmitInput{
		EventType:      eventcontract.WorldLocationBatchGenerate,
		ScopeKey:       "loc:" + anchorID,
		Payload:        payload,
		Actor:          eventcontract.Actor{Kind: eventcontract.ActorSystem},
		CorrelationID:  req.CorrelationID,
		IdempotencyKey: idempotencyKey,
	}, o.Clock.Now())
	if err != nil {
		o.Telemetry.Emit(ctx, telemetry.AreaGenerationFailed, map[string]any{
			"correlationId": req.CorrelationID, "reason": err.Error(),
		})
		return Result{}, err
	}

	if err := o.Publisher.Publish(ctx, emitted.Envelope, emitted.MessageProperties); err != nil {
		o.Telemetry.Emit(ctx, telemetry.AreaGenerationFailed, map[string]any{
			"correlationId": req.CorrelationID, "reason": err.Error(),
		})
		return Result{}, err
	}

	o.Telemetry.Emit(ctx, telemetry.AreaGenerationCompleted, map[string]any{
		"correlationId": emitted.MessageProperties.CorrelationID,
		"rootLocationId": anchorID,
		"terrain":        terrain,
		"budgetClamped":  clamped,
	})

	return Result{
		Envelope:        emitted.Envelope,
		Properties:      emitted.MessageProperties,
		BudgetClamped:   clamped,
		ResolvedTerrain: terrain,
	}, nil
}

func (o *Orchestrator) resolveTerrain(ctx context.Context, mode Mode, anchor *domain.Location) string {
	if anchor != nil && anchor.Terrain != "" {
		return anchor.Terrain
	}
	switch mode {
	case ModeUrban:
		return domain.TerrainNarrowCorridor
	case ModeWilderness:
		return domain.TerrainOpenPlain
	default: // ModeAuto
		if anchor == nil || o.Realms == nil {
			return ""
		}
		realms, err := o.Realms.ListRealmsFor(ctx, anchor.ID)
		if err != nil {
			return ""
		}
		names := make([]string, 0, len(realms))
		for _, r := range realms {
			names = append(names, r.Name)
		}
		return o.RealmTable.Infer(names)
	}
}
