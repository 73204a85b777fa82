package placement

import (
	"math/rand"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/emilyyejia/Pattern-and-Algebra/game/grid"
)

var log = logrus.WithField("component", "placement")

// DefaultMaxAttempts caps the random draws made for a single template.
const DefaultMaxAttempts = 100

// Template describes an entity before it has a position.
type Template struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Label  string `json:"label"`
	Color  string `json:"color,omitempty"`
}

// Landmark is a placed template.
type Landmark struct {
	ID       string          `json:"id"`
	Symbol   string          `json:"symbol"`
	Label    string          `json:"label"`
	Color    string          `json:"color,omitempty"`
	Position grid.Coordinate `json:"position"`
}

// Template returns the template the landmark was built from.
func (l Landmark) Template() Template {
	return Template{ID: l.ID, Symbol: l.Symbol, Label: l.Label, Color: l.Color}
}

// CandidateFunc lists the coordinates a generator may draw from, in
// row-major order (rows ascending, then columns ascending).
type CandidateFunc func(g grid.Spec) []grid.Coordinate

// InnerIntersections yields the half-integer points strictly inside the
// grid: row and col in 1..N-1, offset by 0.5.
func InnerIntersections(g grid.Spec) []grid.Coordinate {
	var out []grid.Coordinate
	for r := 1; r < g.Rows; r++ {
		for c := 1; c < g.Cols; c++ {
			out = append(out, grid.Coordinate{Row: float64(r) + 0.5, Col: float64(c) + 0.5})
		}
	}
	return out
}

// LatticePoints yields every integer point from 0 to N on both axes.
func LatticePoints(g grid.Spec) []grid.Coordinate {
	var out []grid.Coordinate
	for r := 0; r <= g.Rows; r++ {
		for c := 0; c <= g.Cols; c++ {
			out = append(out, grid.Coordinate{Row: float64(r), Col: float64(c)})
		}
	}
	return out
}

// InteriorPoints yields integer points from 1 to N-1 on both axes.
func InteriorPoints(g grid.Spec) []grid.Coordinate {
	var out []grid.Coordinate
	for r := 1; r < g.Rows; r++ {
		for c := 1; c < g.Cols; c++ {
			out = append(out, grid.Coordinate{Row: float64(r), Col: float64(c)})
		}
	}
	return out
}

// CellPoints yields 1-based integer cells, rows 1..N and cols 1..N.
func CellPoints(g grid.Spec) []grid.Coordinate {
	var out []grid.Coordinate
	for r := 1; r <= g.Rows; r++ {
		for c := 1; c <= g.Cols; c++ {
			out = append(out, grid.Coordinate{Row: float64(r), Col: float64(c)})
		}
	}
	return out
}

// RegionFunc restricts where the template at index i may be placed.
type RegionFunc func(i int, c grid.Coordinate) bool

// Constraints control a generation pass.
type Constraints struct {
	Candidates  CandidateFunc
	Buffer      grid.BufferFunc
	Exclude     []grid.Key
	Region      RegionFunc
	MaxAttempts int
	Fallback    grid.Coordinate
}

// DefaultConstraints places on inner intersections with the 2x2 corner
// buffer and falls back to (1.5, 1.5).
func DefaultConstraints() Constraints {
	return Constraints{
		Candidates:  InnerIntersections,
		Buffer:      grid.CornerBuffer,
		MaxAttempts: DefaultMaxAttempts,
		Fallback:    grid.Coordinate{Row: 1.5, Col: 1.5},
	}
}

func (c Constraints) withDefaults() Constraints {
	if c.Candidates == nil {
		c.Candidates = InnerIntersections
	}
	if c.Buffer == nil {
		c.Buffer = grid.PointBuffer
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	return c
}

// Generator places templates one at a time. All placements made through
// the same Generator share one occupancy, so mystery points, the player and
// landmarks laid out in separate calls still never overlap.
type Generator struct {
	rng         *rand.Rand
	grid        grid.Spec
	constraints Constraints
	occupancy   *grid.Occupancy
	candidates  []grid.Coordinate
	index       int
}

// NewGenerator prepares a generation pass over g.
func NewGenerator(rng *rand.Rand, g grid.Spec, c Constraints) *Generator {
	c = c.withDefaults()
	return &Generator{
		rng:         rng,
		grid:        g,
		constraints: c,
		occupancy:   grid.NewOccupancy(c.Exclude...),
		candidates:  c.Candidates(g),
	}
}

// Occupancy exposes the keys reserved so far.
func (gen *Generator) Occupancy() *grid.Occupancy {
	return gen.occupancy
}

// Reserve marks a coordinate and its buffer as taken without emitting a
// placement, for entities whose position is fixed by the level.
func (gen *Generator) Reserve(c grid.Coordinate) {
	gen.occupancy.Reserve(gen.constraints.Buffer(c)...)
}

// Place finds a position for t.
func (gen *Generator) Place(t Template) Landmark {
	i := gen.index
	gen.index++
	pos := gen.position(i, t.ID)
	return Landmark{ID: t.ID, Symbol: t.Symbol, Label: t.Label, Color: t.Color, Position: pos}
}

// PlaceAll places every template in pool order.
func (gen *Generator) PlaceAll(pool []Template) []Landmark {
	out := make([]Landmark, 0, len(pool))
	for _, t := range pool {
		out = append(out, gen.Place(t))
	}
	return out
}

// PlacePoint finds a position without a template.
func (gen *Generator) PlacePoint(id string) grid.Coordinate {
	i := gen.index
	gen.index++
	return gen.position(i, id)
}

// TryPlace makes up to attempts random draws that also satisfy accept. It
// reports false without reserving anything when every draw is rejected, so
// callers can relax their own criteria and try again.
func (gen *Generator) TryPlace(attempts int, accept func(grid.Coordinate) bool) (grid.Coordinate, bool) {
	n := len(gen.candidates)
	if n == 0 {
		return grid.Coordinate{}, false
	}
	for attempt := 0; attempt < attempts; attempt++ {
		candidate := gen.candidates[gen.rng.Intn(n)]
		if accept != nil && !accept(candidate) {
			continue
		}
		if gen.occupancy.Free(gen.constraints.Buffer(candidate)...) {
			gen.index++
			return gen.take(candidate), true
		}
	}
	return grid.Coordinate{}, false
}

func (gen *Generator) position(i int, id string) grid.Coordinate {
	c := gen.constraints
	n := len(gen.candidates)

	if n > 0 {
		for attempt := 0; attempt < c.MaxAttempts; attempt++ {
			candidate := gen.candidates[gen.rng.Intn(n)]
			if gen.accept(i, candidate, true) {
				return gen.take(candidate)
			}
		}

		log.WithFields(logrus.Fields{
			"entity":   id,
			"attempts": c.MaxAttempts,
		}).Debug("random placement exhausted, scanning candidates")

		for _, candidate := range gen.candidates {
			if gen.accept(i, candidate, true) {
				return gen.take(candidate)
			}
		}
		if c.Region != nil {
			for _, candidate := range gen.candidates {
				if gen.accept(i, candidate, false) {
					log.WithFields(logrus.Fields{
						"entity": id,
						"at":     candidate.String(),
					}).Warn("region full, placed outside it")
					return gen.take(candidate)
				}
			}
		}
	}

	log.WithFields(logrus.Fields{
		"entity":   id,
		"fallback": c.Fallback.String(),
		"reserved": gen.occupancy.Size(),
	}).Warn("grid saturated, using fallback position")
	gen.occupancy.Reserve(c.Buffer(c.Fallback)...)
	return c.Fallback
}

func (gen *Generator) accept(i int, candidate grid.Coordinate, useRegion bool) bool {
	if useRegion && gen.constraints.Region != nil && !gen.constraints.Region(i, candidate) {
		return false
	}
	return gen.occupancy.Free(gen.constraints.Buffer(candidate)...)
}

func (gen *Generator) take(candidate grid.Coordinate) grid.Coordinate {
	gen.occupancy.Reserve(gen.constraints.Buffer(candidate)...)
	return candidate
}

// PlaceEntities runs a full generation pass over pool.
func PlaceEntities(rng *rand.Rand, pool []Template, g grid.Spec, c Constraints) []Landmark {
	return NewGenerator(rng, g, c).PlaceAll(pool)
}

// Shuffle returns a shuffled copy of items.
func Shuffle[T any](rng *rand.Rand, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// SortByLabel orders landmarks for display.
func SortByLabel(landmarks []Landmark) {
	sort.SliceStable(landmarks, func(i, j int) bool {
		return strings.ToLower(landmarks[i].Label) < strings.ToLower(landmarks[j].Label)
	})
}

// Find returns the landmark with the given id.
func Find(landmarks []Landmark, id string) (Landmark, bool) {
	for _, l := range landmarks {
		if l.ID == id {
			return l, true
		}
	}
	return Landmark{}, false
}
