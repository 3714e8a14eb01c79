package inmemory

import (
	"context"
	"sync"

	"github.com/piquet-h/the-shifting-atlas-sub001/internal/domain"
)

// RealmRepository is a thread-safe in-memory fake of
// ports.RealmRepository, including the cycle check spec §3 requires
// of `within` edges. `within` holds one edge per subject (a location
// or a realm nested in another realm) pointing at its containing
// realm, so both location membership and realm-in-realm nesting share
// the same upward walk.
type RealmRepository struct {
	mu     sync.Mutex
	realms map[string]*domain.Realm
	within map[string]string // subjectID -> realmID it lies within
}

func NewRealmRepository() *RealmRepository {
	return &RealmRepository{
		realms: map[string]*domain.Realm{},
		within: map[string]string{},
	}
}

func (r *RealmRepository) Upsert(_ context.Context, realm *domain.Realm) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.realms[realm.ID] = realm
	return nil
}

// AddWithinEdge records that locationID lies within realmID. Walking
// up from realmID through existing edges and finding locationID means
// this edge would close a loop (spec §3: "Realms and `within` edges
// may not cycle").
func (r *RealmRepository) AddWithinEdge(_ context.Context, locationID, realmID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for cur := realmID; cur != ""; cur = r.within[cur] {
		if cur == locationID {
			return domain.ErrConflict("within edge would create a realm cycle")
		}
	}

	r.within[locationID] = realmID
	return nil
}

func (r *RealmRepository) ListRealmsFor(_ context.Context, locationID string) ([]*domain.Realm, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.Realm
	seen := map[string]bool{}
	cur := locationID
	for {
		realmID, ok := r.within[cur]
		if !ok || seen[realmID] {
			break
		}
		seen[realmID] = true
		if realm, ok := r.realms[realmID]; ok {
			out = append(out, realm)
		}
		cur = realmID
	}
	return out, nil
}
