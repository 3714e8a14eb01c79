package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/piquet-h/the-shifting-atlas-sub001/internal/ports"
)

// ProcessedEventRepository is a thread-safe in-memory fake of the
// durable tier-2 idempotency registry (spec §4.2, §4.6).
type ProcessedEventRepository struct {
	mu      sync.Mutex
	byKey   map[string]*ports.ProcessedEventRecord
	byEvent map[string]*ports.ProcessedEventRecord
}

func NewProcessedEventRepository() *ProcessedEventRepository {
	return &ProcessedEventRepository{
		byKey:   map[string]*ports.ProcessedEventRecord{},
		byEvent: map[string]*ports.ProcessedEventRecord{},
	}
}

func (r *ProcessedEventRepository) CheckProcessed(_ context.Context, idempotencyKey string) (*ports.ProcessedEventRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byKey[idempotencyKey]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r *ProcessedEventRepository) MarkProcessed(_ context.Context, idempotencyKey, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := &ports.ProcessedEventRecord{IdempotencyKey: idempotencyKey, EventID: eventID, ProcessedAt: time.Now().UTC()}
	r.byKey[idempotencyKey] = rec
	r.byEvent[eventID] = rec
	return nil
}

func (r *ProcessedEventRepository) GetByID(_ context.Context, eventID string) (*ports.ProcessedEventRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byEvent[eventID]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

// FailingProcessedEventRepository (via FailNext) lets a test simulate a registry write failure
// (spec §4.2 step 5: "Registry write failure must NOT fail the
// invocation") without needing a real, breakable database.
type FailingProcessedEventRepository struct {
	*ProcessedEventRepository
	FailNext bool
}

func NewFailingProcessedEventRepository() *FailingProcessedEventRepository {
	return &FailingProcessedEventRepository{ProcessedEventRepository: NewProcessedEventRepository()}
}

func (r *FailingProcessedEventRepository) MarkProcessed(ctx context.Context, idempotencyKey, eventID string) error {
	if r.FailNext {
		r.FailNext = false
		return context.DeadlineExceeded
	}
	return r.ProcessedEventRepository.MarkProcessed(ctx, idempotencyKey, eventID)
}
