package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/domain"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/infrastructure/inmemory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*LayerCache, *inmemory.LayerRepository) {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	client, err := New("redis://" + s.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	inner := inmemory.NewLayerRepository()
	return NewLayerCache(inner, client, 30*time.Second), inner
}

func TestLayerCache_MissThenHit(t *testing.T) {
	cache, inner := newTestCache(t)
	ctx := context.Background()

	layer := &domain.DescriptionLayer{ID: "l1", LocationID: "loc-1", LayerType: domain.LayerBase, Content: "a misty clearing", Priority: 0}
	require.NoError(t, inner.AddLayer(ctx, layer))

	got, err := cache.GetActiveLayerForLocation(ctx, "loc-1", domain.LayerBase, 0)
	require.NoError(t, err)
	assert.Equal(t, "a misty clearing", got.Content)

	// Second call must be served from cache; a second cache over an
	// empty repo, sharing the same redis client, must still return the
	// cached copy.
	inner2 := inmemory.NewLayerRepository()
	cache2 := NewLayerCache(inner2, cache.client, 30*time.Second)
	got2, err := cache2.GetActiveLayerForLocation(ctx, "loc-1", domain.LayerBase, 0)
	require.NoError(t, err)
	assert.Equal(t, "a misty clearing", got2.Content, "second repo has no data; a cache hit must still serve the cached layer")
}

func TestLayerCache_AddLayerInvalidatesCache(t *testing.T) {
	cache, inner := newTestCache(t)
	ctx := context.Background()

	first := &domain.DescriptionLayer{ID: "l1", LocationID: "loc-1", LayerType: domain.LayerBase, Content: "first", Priority: 0}
	require.NoError(t, cache.AddLayer(ctx, first))

	got, err := cache.GetActiveLayerForLocation(ctx, "loc-1", domain.LayerBase, 0)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Content)

	second := &domain.DescriptionLayer{ID: "l2", LocationID: "loc-1", LayerType: domain.LayerBase, Content: "second", Priority: 1}
	require.NoError(t, cache.AddLayer(ctx, second))

	got2, err := cache.GetActiveLayerForLocation(ctx, "loc-1", domain.LayerBase, 0)
	require.NoError(t, err)
	assert.Equal(t, "second", got2.Content)

	_ = inner
}
