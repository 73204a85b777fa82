package main

import (
	"github.com/emilyyejia/Pattern-and-Algebra/game/engine"
	"github.com/emilyyejia/Pattern-and-Algebra/game/grid"
	"github.com/emilyyejia/Pattern-and-Algebra/game/reach"
)

// SafeStrategy never hops onto a cell from which the worm is unreachable.
// Among safe hops it heads for the fly when ChaseFlies is set and one is on
// the board, otherwise for the worm.
type SafeStrategy struct {
	ChaseFlies bool
}

type candidate struct {
	dir  grid.Direction
	cell grid.Cell
}

// safeHops lists the hops that keep the worm reachable, in N, E, S, W order.
func safeHops(st *engine.FrogState, g grid.Spec) ([]candidate, reach.Barriers) {
	barriers := reach.NewBarriers(st.LilyPads...)
	barriers.Put(st.Frog)

	var hops []candidate
	for _, d := range grid.Directions {
		next := st.Frog.Neighbor(d)
		if !g.InCellBounds(next) || barriers.Has(next) {
			continue
		}
		if next != st.Worm && reach.IsTrapped(next, st.Worm, barriers, g) {
			continue
		}
		hops = append(hops, candidate{dir: d, cell: next})
	}
	return hops, barriers
}

// NextMove picks the next hop. It returns false when no hop is safe.
func (s SafeStrategy) NextMove(st *engine.FrogState) (grid.Direction, bool) {
	g := grid.Spec{Rows: st.Rows, Cols: st.Cols}
	hops, barriers := safeHops(st, g)
	if len(hops) == 0 {
		return "", false
	}

	target := st.Worm
	chasing := s.ChaseFlies && st.Fly != nil && st.Fly.Cell != st.Worm
	if chasing {
		target = st.Fly.Cell
	}

	best, bestDist := -1, 0
	for i, h := range hops {
		// Eating the worm ends the level, so leave it for last while chasing.
		if chasing && h.cell == st.Worm {
			continue
		}
		d, ok := reach.Distance(h.cell, target, barriers, g)
		if !ok {
			continue
		}
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}

	if best < 0 {
		// The fly is cut off; fall back to the worm.
		if chasing {
			return SafeStrategy{}.NextMove(st)
		}
		return hops[0].dir, true
	}
	return hops[best].dir, true
}
