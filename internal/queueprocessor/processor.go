// Package queueprocessor implements the queue-processing handler
// (spec §4.2): parse, validate, dedupe, dispatch, mark-processed, with
// dead-lettering on permanent failure. Grounded on event-service's
// rabbitmq consumer.go error-classification branches and join-service's
// ProcessOnce idempotency-fence pattern, generalized from a single
// hard-coded routing-key switch into a type-keyed handler registry.
package queueprocessor

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/domain"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/eventcontract"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/ports"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/telemetry"
	"github.com/rs/zerolog"
)

// Clock is injected for deterministic tests, matching event-service's
// Clock port.
type Clock interface{ Now() time.Time }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Outcome classifies how Process disposed of one message — used by
// tests and by the transport adapter to decide whether to ack, nack,
// or requeue.
type Outcome string

const (
	OutcomeProcessed    Outcome = "processed"
	OutcomeDuplicate    Outcome = "duplicate"
	OutcomeDeadLettered Outcome = "dead_lettered"
	OutcomeRetryable    Outcome = "retryable"
)

// Processor is the queue-processing handler. It has no knowledge of
// the underlying transport (RabbitMQ, in-memory, etc.) — that lives in
// internal/infrastructure/messaging.
type Processor struct {
	Registry     *Registry
	ProcessedRepo ports.ProcessedEventRepository
	DeadLetters  ports.DeadLetterRepository
	Telemetry    telemetry.Sink
	Cache        *IdempotencyCache
	Clock        Clock
	Logger       zerolog.Logger
}

func NewProcessor(
	registry *Registry,
	processedRepo ports.ProcessedEventRepository,
	deadLetters ports.DeadLetterRepository,
	sink telemetry.Sink,
	cache *IdempotencyCache,
	logger zerolog.Logger,
) *Processor {
	return &Processor{
		Registry:      registry,
		ProcessedRepo: processedRepo,
		DeadLetters:   deadLetters,
		Telemetry:     sink,
		Cache:         cache,
		Clock:         systemClock{},
		Logger:        logger,
	}
}

// Process runs one message through the full lifecycle (spec §4.2):
// Received -> Parsed -> Validated -> {Duplicate | Dispatched} ->
// Processed | DeadLettered.
func (p *Processor) Process(ctx context.Context, raw []byte) (Outcome, error) {
	start := p.Clock.Now()

	var env eventcontract.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		p.deadLetter(ctx, "json-parse", 0, start, "", "malformed JSON body", err.Error(), raw)
		return OutcomeDeadLettered, nil
	}

	if err := env.Validate(); err != nil {
		var verr *eventcontract.WorldEventValidationError
		reason := err.Error()
		_ = errors.As(err, &verr)
		p.deadLetter(ctx, "schema-validation", 0, start, env.CorrelationID, reason, err.Error(), raw)
		return OutcomeDeadLettered, nil
	}
	env.PopulateIngestedUtc(p.Clock.Now())

	// Tier 1: in-memory, process-local.
	if p.Cache != nil && p.Cache.Contains(env.IdempotencyKey) {
		p.Telemetry.Emit(ctx, telemetry.EventDuplicate, map[string]any{
			"correlationId": env.CorrelationID, "tier": "memory",
		})
		return OutcomeDuplicate, nil
	}

	// Tier 2: durable registry.
	if rec, err := p.ProcessedRepo.CheckProcessed(ctx, env.IdempotencyKey); err == nil && rec != nil {
		if p.Cache != nil {
			p.Cache.Add(env.IdempotencyKey)
		}
		p.Telemetry.Emit(ctx, telemetry.EventDuplicate, map[string]any{
			"correlationId": env.CorrelationID, "tier": "durable",
		})
		return OutcomeDuplicate, nil
	}

	handler, ok := p.Registry.Lookup(env.Type)
	if !ok {
		p.deadLetter(ctx, "handler-permanent", 0, start, env.CorrelationID,
			"no handler registered for type "+string(env.Type), "unregistered handler", raw)
		return OutcomeDeadLettered, nil
	}

	ictx := InvocationContext{
		Logger:        p.Logger.With().Str("correlation_id", env.CorrelationID).Str("event_type", string(env.Type)).Logger(),
		CorrelationID: env.CorrelationID,
	}

	if err := handler(ctx, env, ictx); err != nil {
		if eventcontract.IsRetryableError(err) {
			// Surface unchanged for the transport's own backoff/redelivery.
			return OutcomeRetryable, err
		}
		var appErr *domain.AppError
		reason := err.Error()
		if errors.As(err, &appErr) {
			reason = appErr.Message
		}
		p.deadLetter(ctx, "handler-permanent", 0, start, env.CorrelationID, reason, err.Error(), raw)
		return OutcomeDeadLettered, nil
	}

	// Mark processed: availability over consistency (spec §4.2 step 5).
	if err := p.ProcessedRepo.MarkProcessed(ctx, env.IdempotencyKey, env.EventID); err != nil {
		p.Telemetry.Emit(ctx, telemetry.EventRegistryWriteFailed, map[string]any{
			"correlationId": env.CorrelationID, "eventId": env.EventID, "error": err.Error(),
		})
	}
	if p.Cache != nil {
		p.Cache.Add(env.IdempotencyKey)
	}

	latencyMs := p.Clock.Now().Sub(start).Milliseconds()
	p.Telemetry.Emit(ctx, telemetry.EventProcessed, map[string]any{
		"correlationId": env.CorrelationID,
		"type":          string(env.Type),
		"eventId":       env.EventID,
		"latencyMs":     latencyMs,
	})

	return OutcomeProcessed, nil
}

func (p *Processor) deadLetter(ctx context.Context, errorCode string, retryCount int, firstAttempt time.Time, correlationID, failureReason, finalError string, payload []byte) {
	rec := &ports.DeadLetterRecord{
		RecordID:              uuid.NewString(),
		ErrorCode:              errorCode,
		RetryCount:             retryCount,
		FirstAttemptTimestamp:  firstAttempt,
		OriginalCorrelationID:  correlationID,
		FailureReason:          failureReason,
		FinalError:             finalError,
		OriginalPayload:        payload,
	}
	if err := p.DeadLetters.Store(ctx, rec); err != nil {
		p.Logger.Error().Err(err).Str("error_code", errorCode).Msg("failed to persist dead letter record")
	}
}
