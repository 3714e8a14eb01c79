package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/domain"
)

// RealmRepository follows event-service's database/sql + lib/pq shape
// (internal/infrastructure/db/postgres/repo.go) rather than pgx:
// realms and within-edges are read far more often than written, and
// none of the reads need pgx's pooled-transaction machinery. The
// lib/pq driver is registered via a blank import in the process
// entrypoint; this type only depends on *sql.DB.
type RealmRepository struct {
	db *sql.DB
}

func NewRealmRepository(db *sql.DB) *RealmRepository {
	return &RealmRepository{db: db}
}

func (r *RealmRepository) Upsert(ctx context.Context, realm *domain.Realm) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO realms (id, name, realm_type, scope, narrative_tags)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			realm_type = EXCLUDED.realm_type,
			scope = EXCLUDED.scope,
			narrative_tags = EXCLUDED.narrative_tags
	`, realm.ID, realm.Name, string(realm.RealmType), string(realm.Scope), pq.Array(realm.NarrativeTags))
	return err
}

// AddWithinEdge records that locationID lies within realmID. Spec §3:
// "Realms and `within` edges may not cycle" — walking up from realmID
// through realm_within_edges and finding locationID means this edge
// would close a loop, same walk as the in-memory fake.
func (r *RealmRepository) AddWithinEdge(ctx context.Context, locationID, realmID string) error {
	cur := realmID
	for cur != "" {
		if cur == locationID {
			return domain.ErrConflict("within edge would create a realm cycle")
		}
		var next sql.NullString
		if err := r.db.QueryRowContext(ctx, `SELECT realm_id FROM realm_within_edges WHERE location_id = $1`, cur).Scan(&next); err != nil {
			if err == sql.ErrNoRows {
				break
			}
			return err
		}
		cur = next.String
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO realm_within_edges (location_id, realm_id)
		VALUES ($1, $2)
		ON CONFLICT (location_id, realm_id) DO NOTHING
	`, locationID, realmID)
	return err
}

// ListRealmsFor walks the within chain starting at locationID, same
// as the in-memory fake, so a location nested through realm-in-realm
// edges returns every ancestor realm, not just the immediate one.
func (r *RealmRepository) ListRealmsFor(ctx context.Context, locationID string) ([]*domain.Realm, error) {
	var out []*domain.Realm
	seen := map[string]bool{}
	cur := locationID
	for {
		var realmID sql.NullString
		err := r.db.QueryRowContext(ctx, `SELECT realm_id FROM realm_within_edges WHERE location_id = $1`, cur).Scan(&realmID)
		if err == sql.ErrNoRows || !realmID.Valid || seen[realmID.String] {
			break
		}
		if err != nil {
			return nil, err
		}
		seen[realmID.String] = true

		var realm domain.Realm
		var realmType, scope string
		err = r.db.QueryRowContext(ctx, `
			SELECT id, name, realm_type, scope, narrative_tags FROM realms WHERE id = $1
		`, realmID.String).Scan(&realm.ID, &realm.Name, &realmType, &scope, pq.Array(&realm.NarrativeTags))
		if err == sql.ErrNoRows {
			break
		}
		if err != nil {
			return nil, err
		}
		realm.RealmType = domain.RealmType(realmType)
		realm.Scope = domain.RealmScope(scope)
		out = append(out, &realm)
		cur = realmID.String
	}
	return out, nil
}
