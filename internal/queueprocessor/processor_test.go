package queueprocessor

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/piquet-h/the-shifting-atlas-sub001/internal/eventcontract"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/infrastructure/inmemory"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/telemetry"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProcessor(t *testing.T) (*Processor, *Registry, *inmemory.DeadLetterRepository, *telemetry.RecordingSink) {
	t.Helper()
	registry := NewRegistry()
	processedRepo := inmemory.NewProcessedEventRepository()
	deadLetters := inmemory.NewDeadLetterRepository()
	sink := &telemetry.RecordingSink{}
	cache := NewIdempotencyCache(128)

	p := NewProcessor(registry, processedRepo, deadLetters, sink, cache, zerolog.Nop())
	return p, registry, deadLetters, sink
}

func validEnvelopeJSON(t *testing.T, idempotencyKey string) []byte {
	t.Helper()
	env := eventcontract.Envelope{
		EventID:        "evt-1",
		Type:           eventcontract.WorldExitCreate,
		OccurredUtc:    time.Now().UTC(),
		Actor:          eventcontract.Actor{Kind: eventcontract.ActorSystem},
		CorrelationID:  "corr-1",
		IdempotencyKey: idempotencyKey,
		Version:        1,
		Payload:        map[string]any{},
	}
	b, err := json.Marshal(env)
	require.NoError(t, err)
	return b
}

func TestProcess_MalformedJSON_DeadLetters(t *testing.T) {
	p, _, deadLetters, _ := newTestProcessor(t)

	outcome, err := p.Process(context.Background(), []byte("{not json"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDeadLettered, outcome)

	records := deadLetters.All()
	require.Len(t, records, 1)
	assert.Equal(t, "json-parse", records[0].ErrorCode)
	assert.Equal(t, 0, records[0].RetryCount)
	assert.False(t, records[0].FirstAttemptTimestamp.IsZero())
}

func TestProcess_SchemaInvalid_PreservesCorrelationID(t *testing.T) {
	p, _, deadLetters, _ := newTestProcessor(t)

	// Missing "type" — schema-invalid envelope per spec §8 scenario 9.
	raw := []byte(`{"eventId":"e1","occurredUtc":"2026-01-01T00:00:00Z","actor":{"kind":"system"},"correlationId":"corr-42","idempotencyKey":"k1","version":1,"payload":{}}`)

	outcome, err := p.Process(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDeadLettered, outcome)

	records := deadLetters.All()
	require.Len(t, records, 1)
	assert.Equal(t, "schema-validation", records[0].ErrorCode)
	assert.Equal(t, "corr-42", records[0].OriginalCorrelationID)
}

func TestProcess_DuplicateIdempotencyKey(t *testing.T) {
	p, registry, _, sink := newTestProcessor(t)

	calls := 0
	registry.Register(eventcontract.WorldExitCreate, func(ctx context.Context, env eventcontract.Envelope, ictx InvocationContext) error {
		calls++
		return nil
	})

	raw := validEnvelopeJSON(t, "dedupe-key-1")

	outcome1, err := p.Process(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, outcome1)

	outcome2, err := p.Process(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome2)

	assert.Equal(t, 1, calls, "handler must dispatch exactly once for a given idempotencyKey")

	var duplicateEvents int
	for _, e := range sink.Events {
		if e.Name == telemetry.EventDuplicate {
			duplicateEvents++
			assert.Equal(t, "corr-1", e.Attrs["correlationId"])
		}
	}
	assert.Equal(t, 1, duplicateEvents)
}

func TestProcess_DuplicateSurvivesMemoryCacheEviction(t *testing.T) {
	p, registry, _, _ := newTestProcessor(t)

	calls := 0
	registry.Register(eventcontract.WorldExitCreate, func(ctx context.Context, env eventcontract.Envelope, ictx InvocationContext) error {
		calls++
		return nil
	})

	raw := validEnvelopeJSON(t, "dedupe-key-2")
	_, err := p.Process(context.Background(), raw)
	require.NoError(t, err)

	// Simulate the in-memory cache being cleared (process restart);
	// the durable registry must still catch the duplicate.
	p.Cache = NewIdempotencyCache(128)

	outcome, err := p.Process(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)
	assert.Equal(t, 1, calls)
}

func TestProcess_HandlerPermanentError_DeadLetters(t *testing.T) {
	p, registry, deadLetters, _ := newTestProcessor(t)

	registry.Register(eventcontract.WorldExitCreate, func(ctx context.Context, env eventcontract.Envelope, ictx InvocationContext) error {
		return &eventcontract.WorldEventValidationError{} // any non-retryable error
	})

	raw := validEnvelopeJSON(t, "perm-fail-key")
	outcome, err := p.Process(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDeadLettered, outcome)
	assert.Len(t, deadLetters.All(), 1)
	assert.Equal(t, "handler-permanent", deadLetters.All()[0].ErrorCode)
}

func TestProcess_RetryableHandlerError_NotDeadLettered(t *testing.T) {
	p, registry, deadLetters, _ := newTestProcessor(t)

	registry.Register(eventcontract.WorldExitCreate, func(ctx context.Context, env eventcontract.Envelope, ictx InvocationContext) error {
		return &eventcontract.ServiceBusUnavailableError{}
	})

	raw := validEnvelopeJSON(t, "retryable-key")
	outcome, err := p.Process(context.Background(), raw)
	require.Error(t, err)
	assert.Equal(t, OutcomeRetryable, outcome)
	assert.Empty(t, deadLetters.All())
}

func TestProcess_RegistryWriteFailure_DoesNotFailInvocation(t *testing.T) {
	registry := NewRegistry()
	processedRepo := inmemory.NewFailingProcessedEventRepository()
	processedRepo.FailNext = true
	deadLetters := inmemory.NewDeadLetterRepository()
	sink := &telemetry.RecordingSink{}
	p := NewProcessor(registry, processedRepo, deadLetters, sink, NewIdempotencyCache(8), zerolog.Nop())

	registry.Register(eventcontract.WorldExitCreate, func(ctx context.Context, env eventcontract.Envelope, ictx InvocationContext) error {
		return nil
	})

	raw := validEnvelopeJSON(t, "registry-fail-key")
	outcome, err := p.Process(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, OutcomeProcessed, outcome)

	var sawFailure bool
	for _, e := range sink.Events {
		if e.Name == telemetry.EventRegistryWriteFailed {
			sawFailure = true
		}
	}
	assert.True(t, sawFailure)
}

func TestProcess_Throughput100MessagesInMemory(t *testing.T) {
	p, registry, _, _ := newTestProcessor(t)
	registry.Register(eventcontract.WorldExitCreate, func(ctx context.Context, env eventcontract.Envelope, ictx InvocationContext) error {
		return nil
	})

	start := time.Now()
	for i := 0; i < 100; i++ {
		raw := validEnvelopeJSON(t, "throughput-key-"+time.Duration(i).String())
		outcome, err := p.Process(context.Background(), raw)
		require.NoError(t, err)
		assert.Equal(t, OutcomeProcessed, outcome)
	}
	assert.Less(t, time.Since(start), time.Second)
}
