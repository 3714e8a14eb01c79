package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/piquet-h/the-shifting-atlas-sub001/internal/domain"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/ports"
)

// LayerCache wraps a ports.LayerRepository with a read-through cache
// over GetActiveLayerForLocation — the hot path the composer hits on
// every render (spec §3: "the active layer is selected by the
// composer at render time"). AddLayer invalidates rather than
// populates the cache, since the newly written layer may or may not
// become the active one once priority/expansionDepth are reapplied.
type LayerCache struct {
	inner  ports.LayerRepository
	client *Client
	ttl    time.Duration
}

func NewLayerCache(inner ports.LayerRepository, client *Client, ttl time.Duration) *LayerCache {
	return &LayerCache{inner: inner, client: client, ttl: ttl}
}

func (c *LayerCache) AddLayer(ctx context.Context, layer *domain.DescriptionLayer) error {
	if err := c.inner.AddLayer(ctx, layer); err != nil {
		return err
	}
	_ = c.client.Delete(ctx, cacheKey(layer.LocationID, layer.LayerType))
	return nil
}

func (c *LayerCache) GetActiveLayerForLocation(ctx context.Context, locationID string, layerType domain.LayerType, expansionDepth int) (*domain.DescriptionLayer, error) {
	key := cacheKey(locationID, layerType)

	var cached domain.DescriptionLayer
	if hit, err := c.client.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	layer, err := c.inner.GetActiveLayerForLocation(ctx, locationID, layerType, expansionDepth)
	if err != nil {
		return nil, err
	}

	_ = c.client.Set(ctx, key, layer, c.ttl)
	return layer, nil
}

func cacheKey(locationID string, layerType domain.LayerType) string {
	return fmt.Sprintf("layer:%s:%s", locationID, layerType)
}
