// Package ports defines the data-access contracts consumed by the
// world-core (spec §4.6). These are pure interfaces — the core only
// depends on them, never on a concrete storage technology.
package ports

import (
	"context"
	"time"

	"github.com/piquet-h/the-shifting-atlas-sub001/internal/domain"
)

// LocationRepository owns the world graph's location nodes and the
// direction-uniqueness / bidirectional-equality invariants (spec §3,
// §4.6). ensureExitBidirectional must be transactional.
type LocationRepository interface {
	Upsert(ctx context.Context, loc *domain.Location) error
	Get(ctx context.Context, id string) (*domain.Location, error)
	ListAll(ctx context.Context) ([]*domain.Location, error)

	// EnsureExitBidirectional adds an exit from -> direction -> to,
	// and (when reciprocal is true) the reverse exit on to, as a
	// single atomic operation. No-ops the side(s) that already exist.
	EnsureExitBidirectional(ctx context.Context, from string, direction domain.Direction, to string, reciprocal bool) error

	// SetExitTravelDuration sets the travel duration on both sides of
	// an existing bidirectional exit pair.
	SetExitTravelDuration(ctx context.Context, from string, direction domain.Direction, durationMs int64) error
}

// LayerRepository owns description layers.
type LayerRepository interface {
	AddLayer(ctx context.Context, layer *domain.DescriptionLayer) error
	GetActiveLayerForLocation(ctx context.Context, locationID string, layerType domain.LayerType, expansionDepth int) (*domain.DescriptionLayer, error)
}

// RealmRepository owns realms and their `within` edges.
type RealmRepository interface {
	Upsert(ctx context.Context, realm *domain.Realm) error
	AddWithinEdge(ctx context.Context, locationID, realmID string) error
	ListRealmsFor(ctx context.Context, locationID string) ([]*domain.Realm, error)
}

// ProcessedEventRecord is the durable idempotency-registry record
// (spec §3).
type ProcessedEventRecord struct {
	IdempotencyKey string
	EventID        string
	ProcessedAt    time.Time
}

// ProcessedEventRepository is the durable tier-2 idempotency check
// (spec §4.2). At most one record exists per idempotencyKey.
type ProcessedEventRepository interface {
	CheckProcessed(ctx context.Context, idempotencyKey string) (*ProcessedEventRecord, error)
	MarkProcessed(ctx context.Context, idempotencyKey, eventID string) error
	GetByID(ctx context.Context, eventID string) (*ProcessedEventRecord, error)
}

// DeadLetterRecord is the append-only record of a permanently
// unprocessable message (spec §3, §6).
type DeadLetterRecord struct {
	RecordID               string
	ErrorCode               string
	RetryCount              int
	FirstAttemptTimestamp   time.Time
	OriginalCorrelationID   string
	FailureReason           string
	FinalError              string
	OriginalPayload         []byte
}

// DeadLetterRepository is the append-only dead-letter store.
type DeadLetterRepository interface {
	Store(ctx context.Context, record *DeadLetterRecord) error
	QueryByTimeRange(ctx context.Context, from, to time.Time) ([]*DeadLetterRecord, error)
	GetByID(ctx context.Context, recordID string) (*DeadLetterRecord, error)
}
