package inmemory

import (
	"context"
	"sync"

	"github.com/piquet-h/the-shifting-atlas-sub001/internal/domain"
)

// LayerRepository is a thread-safe in-memory fake of
// ports.LayerRepository. GetActiveLayerForLocation returns the
// highest-priority layer of the requested type, ties going to the most
// recently added one; expansionDepth is ignored. That is sufficient
// for exercising BatchGenerate's base-layer write contract.
type LayerRepository struct {
	mu     sync.Mutex
	layers map[string][]*domain.DescriptionLayer
}

func NewLayerRepository() *LayerRepository {
	return &LayerRepository{layers: map[string][]*domain.DescriptionLayer{}}
}

func (r *LayerRepository) AddLayer(_ context.Context, layer *domain.DescriptionLayer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.layers[layer.LocationID] = append(r.layers[layer.LocationID], layer)
	return nil
}

func (r *LayerRepository) GetActiveLayerForLocation(_ context.Context, locationID string, layerType domain.LayerType, _ int) (*domain.DescriptionLayer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var best *domain.DescriptionLayer
	for _, l := range r.layers[locationID] {
		if l.LayerType != layerType {
			continue
		}
		if best == nil || l.Priority >= best.Priority {
			best = l
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound("no active layer")
	}
	return best, nil
}
