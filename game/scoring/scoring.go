// Package scoring turns end-of-level counters into a 1 to 3 star rating.
package scoring

import (
	"math"

	"github.com/emilyyejia/Pattern-and-Algebra/game/grid"
)

// Thresholds map a "lower is better" value to stars: at most Three gives
// three stars, at most Two gives two, anything else one.
type Thresholds struct {
	Three float64 `json:"three"`
	Two   float64 `json:"two"`
}

// Stars rates value.
func (t Thresholds) Stars(value float64) int {
	switch {
	case value <= t.Three:
		return 3
	case value <= t.Two:
		return 2
	default:
		return 1
	}
}

// Presets used by the games.
var (
	ScaleBlocks        = Thresholds{Three: 1, Two: 4}
	ScaleBlocksWithSum = Thresholds{Three: 2, Two: 5}
	ScaleRoute         = Thresholds{Three: 1, Two: 3}
	LandmarkNav        = Thresholds{Three: 40, Two: 60}
	MysteryPoints      = Thresholds{Three: 1, Two: 3}
	Treasure           = Thresholds{Three: 10, Two: 12}
)

// Collected maps a "higher is better" count to stars.
type Collected struct {
	Three int `json:"three"`
	Two   int `json:"two"`
}

// FrogFlies is the fly-eating preset.
var FrogFlies = Collected{Three: 5, Two: 2}

// StarsFromErrors rates an error count.
func StarsFromErrors(errors int, t Thresholds) int {
	return t.Stars(float64(errors))
}

// StarsFromTime rates elapsed seconds, penalties included.
func StarsFromTime(seconds float64, t Thresholds) int {
	return t.Stars(seconds)
}

// StarsFromMoveEfficiency rates wasted moves.
func StarsFromMoveEfficiency(wasted int, t Thresholds) int {
	return t.Stars(float64(wasted))
}

// StarsFromCollected rates a collected count; more is better.
func StarsFromCollected(n int, c Collected) int {
	switch {
	case n >= c.Three:
		return 3
	case n >= c.Two:
		return 2
	default:
		return 1
	}
}

// OptimalMoves is the fewest straight moves between two points: one per
// axis that differs.
func OptimalMoves(from, to grid.Coordinate) int {
	n := 0
	if math.Abs(from.Row-to.Row) >= grid.Epsilon {
		n++
	}
	if math.Abs(from.Col-to.Col) >= grid.Epsilon {
		n++
	}
	return n
}

// WastedMoves is how many moves beyond the optimum a leg took.
func WastedMoves(taken int, from, to grid.Coordinate) int {
	if w := taken - OptimalMoves(from, to); w > 0 {
		return w
	}
	return 0
}
