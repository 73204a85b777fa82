package placement

import (
	"math/rand"

	"github.com/emilyyejia/Pattern-and-Algebra/game/grid"
)

// Box is an inclusive range of rows and columns.
type Box struct {
	Name   string
	MinCol float64
	MaxCol float64
	MinRow float64
	MaxRow float64
}

// Contains reports whether c lies inside the box.
func (b Box) Contains(c grid.Coordinate) bool {
	return c.Col >= b.MinCol-grid.Epsilon && c.Col <= b.MaxCol+grid.Epsilon &&
		c.Row >= b.MinRow-grid.Epsilon && c.Row <= b.MaxRow+grid.Epsilon
}

// InnerCornerQuadrants returns the four 2x2 blocks of lattice points in the
// corners of the grid's interior, keeping entities spread apart.
func InnerCornerQuadrants(g grid.Spec) []Box {
	rows, cols := float64(g.Rows), float64(g.Cols)
	return []Box{
		{Name: "bottom-left", MinCol: 1, MaxCol: 2, MinRow: 1, MaxRow: 2},
		{Name: "bottom-right", MinCol: cols - 2, MaxCol: cols - 1, MinRow: 1, MaxRow: 2},
		{Name: "top-left", MinCol: 1, MaxCol: 2, MinRow: rows - 2, MaxRow: rows - 1},
		{Name: "top-right", MinCol: cols - 2, MaxCol: cols - 1, MinRow: rows - 2, MaxRow: rows - 1},
	}
}

// SpreadRegion assigns the first len(boxes) templates to the boxes in a
// random order. Later templates are unrestricted.
func SpreadRegion(rng *rand.Rand, boxes []Box) RegionFunc {
	order := Shuffle(rng, boxes)
	return func(i int, c grid.Coordinate) bool {
		if i >= len(order) {
			return true
		}
		return order[i].Contains(c)
	}
}
