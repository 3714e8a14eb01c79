package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/ports"
)

// DeadLetterRepository is the append-only dead-letter store (spec §3,
// §6). Append-only, so Store is a plain INSERT rather than the
// upsert-with-conflict shapes used elsewhere in this package.
type DeadLetterRepository struct {
	pool *pgxpool.Pool
}

func NewDeadLetterRepository(pool *pgxpool.Pool) *DeadLetterRepository {
	return &DeadLetterRepository{pool: pool}
}

func (r *DeadLetterRepository) Store(ctx context.Context, record *ports.DeadLetterRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO dead_letters (
			record_id, error_code, retry_count, first_attempt_timestamp,
			original_correlation_id, failure_reason, final_error, original_payload
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		record.RecordID, record.ErrorCode, record.RetryCount, record.FirstAttemptTimestamp,
		record.OriginalCorrelationID, record.FailureReason, record.FinalError, record.OriginalPayload,
	)
	return err
}

func (r *DeadLetterRepository) QueryByTimeRange(ctx context.Context, from, to time.Time) ([]*ports.DeadLetterRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT record_id, error_code, retry_count, first_attempt_timestamp,
		       original_correlation_id, failure_reason, final_error, original_payload
		FROM dead_letters
		WHERE first_attempt_timestamp >= $1 AND first_attempt_timestamp <= $2
		ORDER BY first_attempt_timestamp
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ports.DeadLetterRecord
	for rows.Next() {
		var rec ports.DeadLetterRecord
		if err := rows.Scan(
			&rec.RecordID, &rec.ErrorCode, &rec.RetryCount, &rec.FirstAttemptTimestamp,
			&rec.OriginalCorrelationID, &rec.FailureReason, &rec.FinalError, &rec.OriginalPayload,
		); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (r *DeadLetterRepository) GetByID(ctx context.Context, recordID string) (*ports.DeadLetterRecord, error) {
	var rec ports.DeadLetterRecord
	err := r.pool.QueryRow(ctx, `
		SELECT record_id, error_code, retry_count, first_attempt_timestamp,
		       original_correlation_id, failure_reason, final_error, original_payload
		FROM dead_letters WHERE record_id = $1
	`, recordID).Scan(
		&rec.RecordID, &rec.ErrorCode, &rec.RetryCount, &rec.FirstAttemptTimestamp,
		&rec.OriginalCorrelationID, &rec.FailureReason, &rec.FinalError, &rec.OriginalPayload,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}
