package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/piquet-h/the-shifting-atlas-sub001/internal/ports"
)

// DeadLetterRepository is a thread-safe in-memory fake of the
// append-only dead-letter store.
type DeadLetterRepository struct {
	mu      sync.Mutex
	records []*ports.DeadLetterRecord
}

func NewDeadLetterRepository() *DeadLetterRepository {
	return &DeadLetterRepository{}
}

func (r *DeadLetterRepository) Store(_ context.Context, record *ports.DeadLetterRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *record
	r.records = append(r.records, &cp)
	return nil
}

func (r *DeadLetterRepository) QueryByTimeRange(_ context.Context, from, to time.Time) ([]*ports.DeadLetterRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*ports.DeadLetterRecord
	for _, rec := range r.records {
		if rec.FirstAttemptTimestamp.Before(from) || rec.FirstAttemptTimestamp.After(to) {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	return out, nil
}

func (r *DeadLetterRepository) GetByID(_ context.Context, recordID string) (*ports.DeadLetterRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.RecordID == recordID {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, nil
}

// All returns every stored record in insertion order — used by tests.
func (r *DeadLetterRepository) All() []*ports.DeadLetterRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*ports.DeadLetterRecord, len(r.records))
	copy(out, r.records)
	return out
}
