package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/ports"
)

// ProcessedEventRepository is the durable tier-2 idempotency registry
// (spec §4.2). Grounded on join-service's processed_messages.go.
// CheckProcessed reads back the full ProcessedEventRecord the queue
// processor reports on a duplicate delivery; MarkProcessed is a plain
// INSERT ... ON CONFLICT DO NOTHING that returns only an error.
type ProcessedEventRepository struct {
	pool *pgxpool.Pool
}

func NewProcessedEventRepository(pool *pgxpool.Pool) *ProcessedEventRepository {
	return &ProcessedEventRepository{pool: pool}
}

func (r *ProcessedEventRepository) CheckProcessed(ctx context.Context, idempotencyKey string) (*ports.ProcessedEventRecord, error) {
	var rec ports.ProcessedEventRecord
	err := r.pool.QueryRow(ctx, `
		SELECT idempotency_key, event_id, processed_at FROM processed_events WHERE idempotency_key = $1
	`, idempotencyKey).Scan(&rec.IdempotencyKey, &rec.EventID, &rec.ProcessedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// MarkProcessed is an idempotency fence: ON CONFLICT DO NOTHING means
// a racing duplicate insert is silently absorbed rather than erroring,
// matching join-service's TryMarkProcessed.
func (r *ProcessedEventRepository) MarkProcessed(ctx context.Context, idempotencyKey, eventID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO processed_events (idempotency_key, event_id, processed_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (idempotency_key) DO NOTHING
	`, idempotencyKey, eventID)
	return err
}

func (r *ProcessedEventRepository) GetByID(ctx context.Context, eventID string) (*ports.ProcessedEventRecord, error) {
	var rec ports.ProcessedEventRecord
	err := r.pool.QueryRow(ctx, `
		SELECT idempotency_key, event_id, processed_at FROM processed_events WHERE event_id = $1
	`, eventID).Scan(&rec.IdempotencyKey, &rec.EventID, &rec.ProcessedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}
