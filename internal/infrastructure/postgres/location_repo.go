package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/domain"
)

// LocationRepository is the pgx-backed implementation of
// ports.LocationRepository. EnsureExitBidirectional is the one
// operation that must be transactional (spec §4.6): both sides of an
// exit pair are written, or neither is.
type LocationRepository struct {
	pool *pgxpool.Pool
}

func NewLocationRepository(pool *pgxpool.Pool) *LocationRepository {
	return &LocationRepository{pool: pool}
}

func (r *LocationRepository) Upsert(ctx context.Context, loc *domain.Location) error {
	pending, err := json.Marshal(pendingToMap(loc.ExitAvailability.Pending))
	if err != nil {
		return err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO locations (id, name, description, terrain, tags, exit_pending, version, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 1, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			terrain = EXCLUDED.terrain,
			tags = EXCLUDED.tags,
			exit_pending = EXCLUDED.exit_pending,
			version = locations.version + 1,
			updated_at = NOW()
		RETURNING version
	`, loc.ID, loc.Name, loc.Description, loc.Terrain, loc.Tags, pending)

	var version int64
	if err := row.Scan(&version); err != nil {
		return err
	}
	loc.Version = version
	return nil
}

func (r *LocationRepository) Get(ctx context.Context, id string) (*domain.Location, error) {
	return getLocation(ctx, r.pool, id)
}

// queryRower abstracts over *pgxpool.Pool and pgx.Tx so Get can be
// called both standalone and from inside EnsureExitBidirectional's
// transaction.
type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func getLocation(ctx context.Context, q queryRower, id string) (*domain.Location, error) {
	var loc domain.Location
	var pendingRaw []byte
	row := q.QueryRow(ctx, `
		SELECT id, name, description, terrain, tags, exit_pending, version
		FROM locations WHERE id = $1
	`, id)
	if err := row.Scan(&loc.ID, &loc.Name, &loc.Description, &loc.Terrain, &loc.Tags, &pendingRaw, &loc.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFoundMeta("location not found", map[string]string{"id": id})
		}
		return nil, err
	}

	var pendingMap map[string]string
	if err := json.Unmarshal(pendingRaw, &pendingMap); err != nil {
		return nil, err
	}
	loc.ExitAvailability.Pending = mapToPending(pendingMap)

	exits, err := listExits(ctx, q, id)
	if err != nil {
		return nil, err
	}
	loc.Exits = exits

	return &loc, nil
}

func listExits(ctx context.Context, q queryRower, fromID string) ([]domain.Exit, error) {
	rows, err := q.Query(ctx, `
		SELECT direction, to_id, travel_duration_ms FROM exits WHERE from_id = $1 ORDER BY direction
	`, fromID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Exit
	for rows.Next() {
		var direction string
		var toID string
		var durationMs *int64
		if err := rows.Scan(&direction, &toID, &durationMs); err != nil {
			return nil, err
		}
		out = append(out, domain.Exit{Direction: domain.Direction(direction), To: toID, TravelDurationMs: durationMs})
	}
	return out, rows.Err()
}

func (r *LocationRepository) ListAll(ctx context.Context) ([]*domain.Location, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM locations ORDER BY id`)
	if err != nil {
		return nil, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*domain.Location, 0, len(ids))
	for _, id := range ids {
		loc, err := getLocation(ctx, r.pool, id)
		if err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, nil
}

// EnsureExitBidirectional adds an exit pair as a single transaction.
// Deadlock policy mirrors join-service's repository.go comment: always
// lock the two location rows in a fixed order (lexicographic by id)
// regardless of which side is "from" so two concurrent calls over the
// same pair can never cross-lock.
func (r *LocationRepository) EnsureExitBidirectional(ctx context.Context, from string, direction domain.Direction, to string, reciprocal bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	first, second := from, to
	if second < first {
		first, second = second, first
	}
	if err := lockLocationTx(ctx, tx, first); err != nil {
		return err
	}
	if second != first {
		if err := lockLocationTx(ctx, tx, second); err != nil {
			return err
		}
	}

	if err := addExitIfAbsentTx(ctx, tx, from, direction, to); err != nil {
		return err
	}
	if reciprocal {
		if err := addExitIfAbsentTx(ctx, tx, to, domain.OppositeOf(direction), from); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, `UPDATE locations SET version = version + 1, updated_at = NOW() WHERE id = $1`, from); err != nil {
		return err
	}
	if reciprocal && to != from {
		if _, err := tx.Exec(ctx, `UPDATE locations SET version = version + 1, updated_at = NOW() WHERE id = $1`, to); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func lockLocationTx(ctx context.Context, tx pgx.Tx, id string) error {
	var exists bool
	err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM locations WHERE id = $1 FOR UPDATE)`, id).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFoundMeta("location not found", map[string]string{"id": id})
	}
	return nil
}

// addExitIfAbsentTx inserts the exit row via ON CONFLICT DO NOTHING,
// then confirms the resulting row points at `to` — matching the
// in-memory fake's conflict-on-mismatch behavior.
func addExitIfAbsentTx(ctx context.Context, tx pgx.Tx, from string, direction domain.Direction, to string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO exits (from_id, direction, to_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (from_id, direction) DO NOTHING
	`, from, string(direction), to)
	if err != nil {
		return err
	}

	var existingTo string
	if err := tx.QueryRow(ctx, `SELECT to_id FROM exits WHERE from_id = $1 AND direction = $2`, from, string(direction)).Scan(&existingTo); err != nil {
		return err
	}
	if existingTo != to {
		return domain.ErrConflict(fmt.Sprintf("location %s already has a %s exit to a different target", from, direction))
	}
	return nil
}

func (r *LocationRepository) SetExitTravelDuration(ctx context.Context, from string, direction domain.Direction, durationMs int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var to string
	err = tx.QueryRow(ctx, `
		UPDATE exits SET travel_duration_ms = $3
		WHERE from_id = $1 AND direction = $2
		RETURNING to_id
	`, from, string(direction), durationMs).Scan(&to)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound(fmt.Sprintf("no exit %s on %s", direction, from))
		}
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE exits SET travel_duration_ms = $3
		WHERE from_id = $1 AND direction = $2
	`, to, string(domain.OppositeOf(direction)), durationMs); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func pendingToMap(pending map[domain.Direction]string) map[string]string {
	out := make(map[string]string, len(pending))
	for d, hint := range pending {
		out[string(d)] = hint
	}
	return out
}

func mapToPending(raw map[string]string) map[domain.Direction]string {
	out := make(map[domain.Direction]string, len(raw))
	for d, hint := range raw {
		out[domain.Direction(d)] = hint
	}
	return out
}
