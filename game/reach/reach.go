// Package reach answers whether a goal cell can still be reached on a
// 4-connected grid whose cells may be blocked.
package reach

import (
	"github.com/zyedidia/generic/mapset"

	"github.com/emilyyejia/Pattern-and-Algebra/game/grid"
)

// Barriers is a set of impassable cells.
type Barriers = mapset.Set[grid.Cell]

// NewBarriers builds a barrier set from cells.
func NewBarriers(cells ...grid.Cell) Barriers {
	b := mapset.New[grid.Cell]()
	for _, c := range cells {
		b.Put(c)
	}
	return b
}

// IsTrapped reports whether goal cannot be reached from `from`. Barrier
// cells and cells outside the grid are impassable; a start outside the grid
// is always trapped.
func IsTrapped(from, goal grid.Cell, barriers Barriers, g grid.Spec) bool {
	_, ok := Distance(from, goal, barriers, g)
	return !ok
}

// Distance returns the length of the shortest path from `from` to goal.
func Distance(from, goal grid.Cell, barriers Barriers, g grid.Spec) (int, bool) {
	if !g.InCellBounds(from) {
		return 0, false
	}

	type node struct {
		cell grid.Cell
		dist int
	}
	visited := mapset.New[grid.Cell]()
	visited.Put(from)
	queue := []node{{from, 0}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.cell == goal {
			return current.dist, true
		}
		for _, d := range grid.Directions {
			next := current.cell.Neighbor(d)
			if !g.InCellBounds(next) || visited.Has(next) || barriers.Has(next) {
				continue
			}
			visited.Put(next)
			queue = append(queue, node{next, current.dist + 1})
		}
	}
	return 0, false
}

// Reachable returns every cell reachable from `from`, including it.
func Reachable(from grid.Cell, barriers Barriers, g grid.Spec) []grid.Cell {
	if !g.InCellBounds(from) {
		return nil
	}
	visited := mapset.New[grid.Cell]()
	visited.Put(from)
	out := []grid.Cell{from}
	queue := []grid.Cell{from}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, d := range grid.Directions {
			next := current.Neighbor(d)
			if !g.InCellBounds(next) || visited.Has(next) || barriers.Has(next) {
				continue
			}
			visited.Put(next)
			out = append(out, next)
			queue = append(queue, next)
		}
	}
	return out
}
