package batchgen

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/config"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/domain"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/eventcontract"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/ports"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/queueprocessor"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/telemetry"
	"github.com/rs/zerolog"
)

type Clock interface{ Now() time.Time }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Handler implements the batch-generate algorithm (spec §4.4): Phase 1
// direct reconnection, Phase 2 budgeted fuzzy stitching, then stub
// creation for whatever directions remain unresolved.
type Handler struct {
	Locations    ports.LocationRepository
	Layers       ports.LayerRepository
	Publisher    eventcontract.Publisher
	Telemetry    telemetry.Sink
	TerrainTable domain.TerrainTable
	AI           DescriptionGenerator
	Clock        Clock
	Logger       zerolog.Logger
}

func NewHandler(locations ports.LocationRepository, layers ports.LayerRepository, publisher eventcontract.Publisher, sink telemetry.Sink, logger zerolog.Logger) *Handler {
	return &Handler{
		Locations:    locations,
		Layers:       layers,
		Publisher:    publisher,
		Telemetry:    sink,
		TerrainTable: domain.DefaultTerrainTable(),
		Clock:        systemClock{},
		Logger:       logger,
	}
}

// Handle matches queueprocessor.HandlerFunc and is registered against
// eventcontract.WorldLocationBatchGenerate.
func (h *Handler) Handle(ctx context.Context, env eventcontract.Envelope, ictx queueprocessor.InvocationContext) error {
	start := h.Clock.Now()

	payload, err := decodePayload(env.Payload)
	if err != nil {
		return domain.ErrHandlerPermanent("invalid World.Location.BatchGenerate payload: " + err.Error())
	}

	root, err := h.Locations.Get(ctx, payload.RootLocationID)
	if err != nil {
		if eventcontract.IsRetryableError(err) {
			return err
		}
		return domain.LocationNotFoundError(payload.RootLocationID)
	}
	if root == nil {
		return domain.LocationNotFoundError(payload.RootLocationID)
	}

	h.Telemetry.Emit(ctx, telemetry.BatchGenerationStarted, map[string]any{
		"correlationId":  env.CorrelationID,
		"rootLocationId": root.ID,
		"terrain":        payload.Terrain,
	})

	arrival, _ := parseDirection(payload.ArrivalDirection)
	candidates := CandidateDirections(h.TerrainTable, payload.Terrain, arrival, payload.BatchSize)

	travelDurationMs := config.DefaultTravelDurationMs
	if payload.TravelDurationMs != nil {
		travelDurationMs = *payload.TravelDurationMs
	}

	reconnectionsCreated := 0
	var unresolved []domain.Direction

	// Phase 1 — direct reconnection (spec §4.4.2).
	for _, d := range candidates {
		if _, ok := root.ExitTo(d); ok {
			reconnectionsCreated++
			continue
		}
		unresolved = append(unresolved, d)
	}

	// Phase 2 — budgeted fuzzy stitching (spec §4.4.3).
	if len(unresolved) > 0 && !root.IsFrontierBoundary() {
		assigned, err := h.phase2Resolve(ctx, root, unresolved, payload.Terrain, payload.RealmKey, travelDurationMs)
		if err != nil {
			return err
		}
		for d, to := range assigned {
			if err := h.Locations.EnsureExitBidirectional(ctx, root.ID, d, to, true); err != nil {
				return err
			}
			if payload.TravelDurationMs != nil {
				if err := h.Locations.SetExitTravelDuration(ctx, root.ID, d, *payload.TravelDurationMs); err != nil {
					return err
				}
			}
			reconnectionsCreated++
		}
		unresolved = remaining(unresolved, assigned)
	}

	// Stub creation (spec §4.4.4).
	locationsGenerated := 0
	aiCost := 0.0
	for _, d := range unresolved {
		cost, err := h.createStub(ctx, env, root, d, payload.Terrain)
		if err != nil {
			return err
		}
		locationsGenerated++
		aiCost += cost
	}

	exitsCreated := 2 * (locationsGenerated + reconnectionsCreated)
	h.Telemetry.Emit(ctx, telemetry.BatchGenerationCompleted, map[string]any{
		"correlationId":        env.CorrelationID,
		"locationsGenerated":   locationsGenerated,
		"exitsCreated":         exitsCreated,
		"reconnectionsCreated": reconnectionsCreated,
		"durationMs":           h.Clock.Now().Sub(start).Milliseconds(),
		"aiCost":               aiCost,
	})

	return nil
}

// phase2Resolve runs the budgeted BFS, applies the realm filter, and
// greedily assigns the best candidate to each unresolved direction in
// candidate order (spec §4.4.3's "Assignment" rule).
func (h *Handler) phase2Resolve(ctx context.Context, root *domain.Location, unresolved []domain.Direction, terrain string, realmKey *string, travelDurationMs int64) (map[domain.Direction]string, error) {
	budget := 2 * travelDurationMs

	exclude := map[string]struct{}{root.ID: {}}
	for _, e := range root.Exits {
		exclude[e.To] = struct{}{}
	}

	raw, err := Phase2Search(ctx, h.Locations, root, budget, exclude)
	if err != nil {
		return nil, err
	}

	if realmKey != nil && *realmKey != "" {
		filtered := raw[:0]
		for _, c := range raw {
			loc, err := h.Locations.Get(ctx, c.LocationID)
			if err != nil || loc == nil {
				continue
			}
			if loc.HasTag(*realmKey) {
				filtered = append(filtered, c)
			}
		}
		raw = filtered
	}

	// The alignment gate must judge each candidate against the full
	// terrain compass, not just this invocation's unresolved subset —
	// otherwise a candidate whose true best-aligned direction is
	// already resolved (or outside the batch) gets stitched to
	// whichever unresolved direction happens to score highest among a
	// truncated set, which can be an orthogonal or even diagonal
	// mismatch for a cardinal expansion (spec §4.4.3: "Cardinal
	// expansions must never stitch to primarily-diagonal candidates").
	terrainDirs := h.TerrainTable.DefaultDirections(terrain)

	type grouped struct {
		cand Candidate
		dir  domain.Direction
	}
	var pool []grouped
	for _, c := range raw {
		d, ok := BestAlignedDirectionAmong(c.Displacement, terrainDirs, unresolved)
		if !ok {
			continue
		}
		pool = append(pool, grouped{c, d})
	}

	used := map[string]struct{}{}
	assigned := map[domain.Direction]string{}
	for _, d := range unresolved {
		var matches []Candidate
		for _, g := range pool {
			if g.dir != d {
				continue
			}
			if _, taken := used[g.cand.LocationID]; taken {
				continue
			}
			matches = append(matches, g.cand)
		}
		if len(matches) == 0 {
			continue
		}
		sort.Slice(matches, func(i, j int) bool {
			if matches[i].Hops != matches[j].Hops {
				return matches[i].Hops < matches[j].Hops
			}
			if matches[i].CumulativeTravelMs != matches[j].CumulativeTravelMs {
				return matches[i].CumulativeTravelMs < matches[j].CumulativeTravelMs
			}
			return matches[i].LocationID < matches[j].LocationID
		})
		chosen := matches[0]
		used[chosen.LocationID] = struct{}{}
		assigned[d] = chosen.LocationID
	}

	return assigned, nil
}

func remaining(unresolved []domain.Direction, assigned map[domain.Direction]string) []domain.Direction {
	out := make([]domain.Direction, 0, len(unresolved))
	for _, d := range unresolved {
		if _, ok := assigned[d]; ok {
			continue
		}
		out = append(out, d)
	}
	return out
}

// createStub allocates the stub location, its base description layer,
// and enqueues the reciprocal World.Exit.Create event (spec §4.4.4).
// It returns the AI cost spent, if any.
func (h *Handler) createStub(ctx context.Context, env eventcontract.Envelope, root *domain.Location, d domain.Direction, terrain string) (float64, error) {
	opposite := domain.OppositeOf(d)

	var name, description string
	var cost float64
	if h.AI != nil {
		result, err := h.AI.Generate(ctx, DescriptionRequest{Terrain: terrain, ArrivalDirection: string(opposite), Budget: 0.05})
		if err != nil {
			ph := placeholderDescription(terrain, string(opposite))
			name, description = ph.Name, ph.Description
		} else {
			name, description, cost = result.Name, result.Description, result.Cost
		}
	} else {
		ph := placeholderDescription(terrain, string(opposite))
		name, description = ph.Name, ph.Description
	}

	defaultDirs := h.TerrainTable.DefaultDirections(terrain)
	pending := map[domain.Direction]string{}
	for _, pd := range defaultDirs {
		if pd == opposite {
			continue
		}
		pending[pd] = "unexplored"
	}

	stubID := uuid.NewString()
	stub := &domain.Location{
		ID:               stubID,
		Name:             name,
		Description:      description,
		Terrain:          terrain,
		Tags:             []string{},
		Version:          1,
		ExitAvailability: domain.ExitAvailability{Pending: pending},
	}
	if err := h.Locations.Upsert(ctx, stub); err != nil {
		return 0, err
	}

	layer := &domain.DescriptionLayer{
		ID:         uuid.NewString(),
		LocationID: stubID,
		LayerType:  domain.LayerBase,
		Content:    description,
		Priority:   0,
		AuthoredAt: h.Clock.Now(),
	}
	if err := h.Layers.AddLayer(ctx, layer); err != nil {
		return 0, err
	}

	emitted, err := eventcontract.Emit(eventcontract.EmitInput{
		EventType: eventcontract.WorldExitCreate,
		ScopeKey:  "loc:" + root.ID,
		Payload: map[string]any{
			"fromLocationId": root.ID,
			"toLocationId":   stubID,
			"direction":      string(d),
			"reciprocal":     true,
		},
		Actor:         eventcontract.Actor{Kind: eventcontract.ActorSystem},
		CorrelationID: env.CorrelationID,
		CausationID:   env.EventID,
	}, h.Clock.Now())
	if err != nil {
		return 0, err
	}
	if err := h.Publisher.Publish(ctx, emitted.Envelope, emitted.MessageProperties); err != nil {
		return 0, err
	}

	return cost, nil
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
