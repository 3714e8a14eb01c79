package eventcontract

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmit_GeneratesCorrelationIDAndWarns(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	res, err := Emit(EmitInput{
		EventType: WorldExitCreate,
		Actor:     Actor{Kind: ActorSystem},
		Payload:   map[string]any{"direction": "north"},
	}, now)

	require.NoError(t, err)
	assert.NotEmpty(t, res.Envelope.CorrelationID)
	assert.NotEmpty(t, res.Envelope.IdempotencyKey)
	assert.Equal(t, 1, res.Envelope.Version)
	assert.Equal(t, now, res.Envelope.OccurredUtc)
	assert.Len(t, res.Warnings, 1)
}

func TestEmit_PassesThroughSuppliedIdempotencyKey(t *testing.T) {
	res, err := Emit(EmitInput{
		EventType:      PlayerMove,
		Actor:          Actor{Kind: ActorPlayer, ID: "p1"},
		CorrelationID:  "corr-1",
		IdempotencyKey: "caller-supplied-key",
		Payload:        map[string]any{},
	}, time.Now())

	require.NoError(t, err)
	assert.Equal(t, "caller-supplied-key", res.Envelope.IdempotencyKey)
	assert.Empty(t, res.Warnings)
}

func TestEmit_RejectsUnknownEventType(t *testing.T) {
	_, err := Emit(EmitInput{
		EventType: EventType("Bogus.Event"),
		Actor:     Actor{Kind: ActorSystem},
	}, time.Now())

	var verr *WorldEventValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "type")
}

func TestEmit_RejectsUnknownActorKind(t *testing.T) {
	_, err := Emit(EmitInput{
		EventType: PlayerLook,
		Actor:     Actor{Kind: ActorKind("ghost")},
	}, time.Now())

	var verr *WorldEventValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "actor.kind")
}

func TestIsRetryableError_DuckTypedAcrossBoundary(t *testing.T) {
	wrapped := errors.New("wrapped: " + (&ServiceBusUnavailableError{}).Error())
	assert.False(t, IsRetryableError(wrapped), "plain errors.New loses the shape and must not be retryable")

	assert.True(t, IsRetryableError(&ServiceBusUnavailableError{}))
	assert.False(t, IsRetryableError(&WorldEventValidationError{}))
	assert.False(t, IsRetryableError(nil))
}
