package batchgen

import (
	"context"

	"github.com/piquet-h/the-shifting-atlas-sub001/internal/config"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/domain"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/ports"
)

// Candidate is one node reached during Phase 2's budgeted BFS (spec
// §4.4.3), carrying everything the assignment step needs: the path
// cost for ordering, and the accumulated displacement for the
// direction-alignment gate.
type Candidate struct {
	LocationID         string
	Hops               int
	CumulativeTravelMs int64
	Displacement       domain.Vector
}

type bfsNode struct {
	id         string
	hops       int
	cumulative int64
	disp       domain.Vector
}

// Phase2Search runs a budgeted breadth-first search outward from root,
// returning every reachable location within budgetMs whose id is not
// in exclude. BFS visits each node at most once, at its first
// (shortest-hop) discovery, which is what makes the hop-ascending
// assignment ordering in §4.4.3 meaningful.
func Phase2Search(ctx context.Context, repo ports.LocationRepository, root *domain.Location, budgetMs int64, exclude map[string]struct{}) ([]Candidate, error) {
	visited := map[string]struct{}{root.ID: {}}
	queue := []bfsNode{{id: root.ID}}
	var results []Candidate

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		var loc *domain.Location
		if cur.id == root.ID {
			loc = root
		} else {
			l, err := repo.Get(ctx, cur.id)
			if err != nil || l == nil {
				continue
			}
			loc = l
		}

		for _, exit := range loc.Exits {
			if _, seen := visited[exit.To]; seen {
				continue
			}
			weight := config.DefaultTravelDurationMs
			if exit.TravelDurationMs != nil {
				weight = *exit.TravelDurationMs
			}
			cumulative := cur.cumulative + weight
			if cumulative > budgetMs {
				continue
			}
			visited[exit.To] = struct{}{}

			scale := float64(weight) / float64(config.DefaultTravelDurationMs)
			disp := cur.disp.Add(domain.Vectors[exit.Direction].Scale(scale))
			node := bfsNode{id: exit.To, hops: cur.hops + 1, cumulative: cumulative, disp: disp}
			queue = append(queue, node)

			if _, excluded := exclude[exit.To]; !excluded {
				results = append(results, Candidate{
					LocationID:         exit.To,
					Hops:               node.hops,
					CumulativeTravelMs: node.cumulative,
					Displacement:       node.disp,
				})
			}
		}
	}

	return results, nil
}

// BestAlignedDirection returns the direction in candidates maximizing
// the dot product with disp, per spec §9: "'Best-aligned' = argmax of
// dot product with the requested direction's vector." Ties are broken
// by the order of candidates.
func BestAlignedDirection(disp domain.Vector, candidates []domain.Direction) (domain.Direction, bool) {
	var best domain.Direction
	var bestScore float64
	found := false
	for _, d := range candidates {
		if !d.Planar() {
			continue
		}
		score := disp.Dot(domain.Vectors[d])
		if !found || score > bestScore {
			best, bestScore, found = d, score, true
		}
	}
	return best, found
}

// alignmentEpsilon absorbs floating rounding from the BFS's scale
// factor (weight/config.DefaultTravelDurationMs) when comparing dot
// products for an exact tie.
const alignmentEpsilon = 1e-9

// BestAlignedDirectionAmong judges a candidate's displacement against
// the terrain's full direction set (terrainDirs) — its true argmax —
// and only yields an unresolved direction when that direction ties
// for the true argmax. A direction that merely scores highest among
// the narrower unresolved set is not enough: per spec §4.4.3,
// "cardinal expansions must never stitch to primarily-diagonal
// candidates", so a candidate whose true best alignment is some other,
// already-resolved or out-of-batch direction is rejected outright
// rather than falling back to the next-best unresolved slot.
func BestAlignedDirectionAmong(disp domain.Vector, terrainDirs, unresolved []domain.Direction) (domain.Direction, bool) {
	best, ok := BestAlignedDirection(disp, terrainDirs)
	if !ok {
		return "", false
	}
	bestScore := disp.Dot(domain.Vectors[best])

	for _, d := range unresolved {
		if !d.Planar() {
			continue
		}
		if disp.Dot(domain.Vectors[d]) >= bestScore-alignmentEpsilon {
			return d, true
		}
	}
	return "", false
}
