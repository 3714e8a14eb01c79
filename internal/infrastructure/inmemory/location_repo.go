// Package inmemory provides process-local fakes of the repository and
// publisher ports, used by unit tests for the algorithmic packages
// (queueprocessor, areagen, batchgen, exitcreate) and by the test
// in-memory publisher named in spec §4.1. Grounded on the teacher's
// NoopPublisher pattern (event-service/internal/application/event)
// generalized into stateful fakes that still satisfy the invariants
// the real postgres adapters must uphold.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/piquet-h/the-shifting-atlas-sub001/internal/domain"
)

// LocationRepository is a thread-safe, in-memory implementation of
// ports.LocationRepository. Mutations are guarded by a single mutex —
// acceptable for a test/dev fake; the postgres adapter is where the
// real atomicity and concurrency discipline (spec §5) live.
type LocationRepository struct {
	mu        sync.Mutex
	locations map[string]*domain.Location
}

func NewLocationRepository() *LocationRepository {
	return &LocationRepository{locations: map[string]*domain.Location{}}
}

func (r *LocationRepository) Upsert(_ context.Context, loc *domain.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.locations[loc.ID]
	if ok {
		loc.Version = existing.Version + 1
	} else if loc.Version == 0 {
		loc.Version = 1
	}
	cp := cloneLocation(loc)
	r.locations[loc.ID] = cp
	return nil
}

func (r *LocationRepository) Get(_ context.Context, id string) (*domain.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	loc, ok := r.locations[id]
	if !ok {
		return nil, domain.ErrNotFoundMeta("location not found", map[string]string{"id": id})
	}
	return cloneLocation(loc), nil
}

func (r *LocationRepository) ListAll(_ context.Context) ([]*domain.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*domain.Location, 0, len(r.locations))
	for _, loc := range r.locations {
		out = append(out, cloneLocation(loc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *LocationRepository) EnsureExitBidirectional(_ context.Context, from string, direction domain.Direction, to string, reciprocal bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	fromLoc, ok := r.locations[from]
	if !ok {
		return domain.ErrNotFoundMeta("location not found", map[string]string{"id": from})
	}
	toLoc, ok := r.locations[to]
	if !ok {
		return domain.ErrNotFoundMeta("location not found", map[string]string{"id": to})
	}

	if err := addExitIfAbsent(fromLoc, direction, to); err != nil {
		return err
	}
	if reciprocal {
		if err := addExitIfAbsent(toLoc, domain.OppositeOf(direction), from); err != nil {
			return err
		}
	}
	fromLoc.Version++
	toLoc.Version++
	return nil
}

func (r *LocationRepository) SetExitTravelDuration(_ context.Context, from string, direction domain.Direction, durationMs int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	fromLoc, ok := r.locations[from]
	if !ok {
		return domain.ErrNotFoundMeta("location not found", map[string]string{"id": from})
	}
	to, found := setTravelDuration(fromLoc, direction, durationMs)
	if !found {
		return domain.ErrNotFound(fmt.Sprintf("no exit %s on %s", direction, from))
	}
	if toLoc, ok := r.locations[to]; ok {
		setTravelDuration(toLoc, domain.OppositeOf(direction), durationMs)
	}
	return nil
}

func addExitIfAbsent(loc *domain.Location, direction domain.Direction, to string) error {
	if existing, ok := domain.HasDirection(loc.Exits, direction); ok {
		if existing.To != to {
			return domain.ErrConflict(fmt.Sprintf("location %s already has a %s exit to a different target", loc.ID, direction))
		}
		return nil
	}
	loc.Exits = append(loc.Exits, domain.Exit{Direction: direction, To: to})
	return nil
}

func setTravelDuration(loc *domain.Location, direction domain.Direction, durationMs int64) (string, bool) {
	for i := range loc.Exits {
		if loc.Exits[i].Direction == direction {
			d := durationMs
			loc.Exits[i].TravelDurationMs = &d
			return loc.Exits[i].To, true
		}
	}
	return "", false
}

func cloneLocation(loc *domain.Location) *domain.Location {
	cp := *loc
	cp.Tags = append([]string(nil), loc.Tags...)
	cp.Exits = append([]domain.Exit(nil), loc.Exits...)
	if loc.ExitAvailability.Pending != nil {
		cp.ExitAvailability.Pending = make(map[domain.Direction]string, len(loc.ExitAvailability.Pending))
		for k, v := range loc.ExitAvailability.Pending {
			cp.ExitAvailability.Pending[k] = v
		}
	}
	return &cp
}
