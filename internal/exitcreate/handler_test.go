package exitcreate

import (
	"context"
	"testing"

	"github.com/piquet-h/the-shifting-atlas-sub001/internal/domain"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/eventcontract"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/infrastructure/inmemory"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/queueprocessor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exitCreateEnvelope(payload map[string]any) eventcontract.Envelope {
	return eventcontract.Envelope{
		EventID:        "evt-exit-1",
		Type:           eventcontract.WorldExitCreate,
		Actor:          eventcontract.Actor{Kind: eventcontract.ActorSystem},
		CorrelationID:  "corr-exit-1",
		IdempotencyKey: "idem-exit-1",
		Version:        1,
		Payload:        payload,
	}
}

func TestHandle_CreatesBidirectionalExit(t *testing.T) {
	locations := inmemory.NewLocationRepository()
	ctx := context.Background()
	require.NoError(t, locations.Upsert(ctx, &domain.Location{ID: "a"}))
	require.NoError(t, locations.Upsert(ctx, &domain.Location{ID: "b"}))

	h := NewHandler(locations)
	env := exitCreateEnvelope(map[string]any{
		"fromLocationId": "a", "toLocationId": "b", "direction": "north", "reciprocal": true,
	})

	require.NoError(t, h.Handle(ctx, env, queueprocessor.InvocationContext{}))

	a, err := locations.Get(ctx, "a")
	require.NoError(t, err)
	to, ok := a.ExitTo(domain.North)
	require.True(t, ok)
	assert.Equal(t, "b", to)

	b, err := locations.Get(ctx, "b")
	require.NoError(t, err)
	back, ok := b.ExitTo(domain.South)
	require.True(t, ok)
	assert.Equal(t, "a", back)
}

func TestHandle_SetsTravelDurationOnBothSides(t *testing.T) {
	locations := inmemory.NewLocationRepository()
	ctx := context.Background()
	require.NoError(t, locations.Upsert(ctx, &domain.Location{ID: "a"}))
	require.NoError(t, locations.Upsert(ctx, &domain.Location{ID: "b"}))

	h := NewHandler(locations)
	env := exitCreateEnvelope(map[string]any{
		"fromLocationId": "a", "toLocationId": "b", "direction": "east", "reciprocal": true, "travelDurationMs": float64(300_000),
	})
	require.NoError(t, h.Handle(ctx, env, queueprocessor.InvocationContext{}))

	a, err := locations.Get(ctx, "a")
	require.NoError(t, err)
	exit, _ := domain.HasDirection(a.Exits, domain.East)
	require.NotNil(t, exit.TravelDurationMs)
	assert.EqualValues(t, 300_000, *exit.TravelDurationMs)

	b, err := locations.Get(ctx, "b")
	require.NoError(t, err)
	back, _ := domain.HasDirection(b.Exits, domain.West)
	require.NotNil(t, back.TravelDurationMs)
	assert.EqualValues(t, 300_000, *back.TravelDurationMs)
}

func TestHandle_NoOpsWhenBothSidesAlreadyExist(t *testing.T) {
	locations := inmemory.NewLocationRepository()
	ctx := context.Background()
	require.NoError(t, locations.Upsert(ctx, &domain.Location{ID: "a"}))
	require.NoError(t, locations.Upsert(ctx, &domain.Location{ID: "b"}))
	require.NoError(t, locations.EnsureExitBidirectional(ctx, "a", domain.North, "b", true))

	h := NewHandler(locations)
	env := exitCreateEnvelope(map[string]any{
		"fromLocationId": "a", "toLocationId": "b", "direction": "north", "reciprocal": true,
	})
	require.NoError(t, h.Handle(ctx, env, queueprocessor.InvocationContext{}))

	a, err := locations.Get(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, a.Exits, 1, "re-delivery must not duplicate the exit")
}

func TestHandle_InvalidDirection_IsHandlerPermanent(t *testing.T) {
	locations := inmemory.NewLocationRepository()
	h := NewHandler(locations)
	env := exitCreateEnvelope(map[string]any{
		"fromLocationId": "a", "toLocationId": "b", "direction": "sideways", "reciprocal": true,
	})

	err := h.Handle(context.Background(), env, queueprocessor.InvocationContext{})
	require.Error(t, err)
	appErr, ok := err.(*domain.AppError)
	require.True(t, ok)
	assert.Equal(t, domain.CodeHandlerPermanent, appErr.Code)
}
