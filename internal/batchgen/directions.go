package batchgen

import "github.com/piquet-h/the-shifting-atlas-sub001/internal/domain"

// CandidateDirections implements spec §4.4.1: take terrain's ordered
// defaultDirections, remove arrivalDirection, truncate to batchSize,
// preserving order.
func CandidateDirections(table domain.TerrainTable, terrain string, arrival domain.Direction, batchSize int) []domain.Direction {
	dirs := table.DefaultDirections(terrain)

	out := make([]domain.Direction, 0, len(dirs))
	for _, d := range dirs {
		if d == arrival {
			continue
		}
		out = append(out, d)
	}

	if batchSize >= 0 && batchSize < len(out) {
		out = out[:batchSize]
	}
	return out
}
