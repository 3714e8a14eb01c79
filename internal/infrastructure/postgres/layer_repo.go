package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/piquet-h/the-shifting-atlas-sub001/internal/domain"
)

// LayerRepository is grounded on location_repo.go's queryRower/JSONB
// attribute-column pattern, applied to description_layers. The active
// layer for a type is its highest-priority row — expansionDepth is
// accepted to satisfy ports.LayerRepository but not yet used to
// filter, matching the in-memory fake's same simplification.
type LayerRepository struct {
	pool *pgxpool.Pool
}

func NewLayerRepository(pool *pgxpool.Pool) *LayerRepository {
	return &LayerRepository{pool: pool}
}

func (r *LayerRepository) AddLayer(ctx context.Context, layer *domain.DescriptionLayer) error {
	attrs, err := json.Marshal(layer.Attributes)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO description_layers (id, location_id, layer_type, content, priority, attributes, authored_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			priority = EXCLUDED.priority,
			attributes = EXCLUDED.attributes,
			authored_at = EXCLUDED.authored_at
	`, layer.ID, layer.LocationID, string(layer.LayerType), layer.Content, layer.Priority, attrs, layer.AuthoredAt)
	return err
}

func (r *LayerRepository) GetActiveLayerForLocation(ctx context.Context, locationID string, layerType domain.LayerType, _ int) (*domain.DescriptionLayer, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, location_id, layer_type, content, priority, attributes, authored_at
		FROM description_layers
		WHERE location_id = $1 AND layer_type = $2
		ORDER BY priority DESC, authored_at DESC
		LIMIT 1
	`, locationID, string(layerType))

	var (
		l         domain.DescriptionLayer
		layerStr  string
		attrsRaw  []byte
	)
	if err := row.Scan(&l.ID, &l.LocationID, &layerStr, &l.Content, &l.Priority, &attrsRaw, &l.AuthoredAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound("no active layer")
		}
		return nil, err
	}
	l.LayerType = domain.LayerType(layerStr)
	if len(attrsRaw) > 0 {
		if err := json.Unmarshal(attrsRaw, &l.Attributes); err != nil {
			return nil, err
		}
	}
	return &l, nil
}
