package domain

import "time"

// LayerType distinguishes the composer's layering scheme. Only the
// base layer is written by the core (spec §3); dynamic/ambient layers
// belong to out-of-scope subsystems.
type LayerType string

const (
	LayerBase    LayerType = "base"
	LayerDynamic LayerType = "dynamic"
	LayerAmbient LayerType = "ambient"
)

// DescriptionLayer is one prose layer attached to a location. For a
// given (LocationID, LayerType, Priority) the active layer is uniquely
// selected by the composer at render time — the core never resolves
// that selection itself, only writes new layers.
type DescriptionLayer struct {
	ID         string
	LocationID string
	LayerType  LayerType
	Content    string
	Priority   int
	AuthoredAt time.Time
	Attributes map[string]string
}
