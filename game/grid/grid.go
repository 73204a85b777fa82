package grid

import (
	"fmt"
	"math"
)

// Epsilon is the tolerance used when comparing fractional coordinates.
const Epsilon = 0.01

// Spec describes the dimensions of a level's grid.
type Spec struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Validate reports whether the grid has at least one row and one column.
func (s Spec) Validate() error {
	if s.Rows < 1 || s.Cols < 1 {
		return fmt.Errorf("grid must be at least 1x1, got %dx%d", s.Rows, s.Cols)
	}
	return nil
}

// InIntersectionBounds reports whether c lies inside [0.5, rows+0.5] x [0.5, cols+0.5].
func (s Spec) InIntersectionBounds(c Coordinate) bool {
	return c.Row >= 0.5-Epsilon && c.Row <= float64(s.Rows)+0.5+Epsilon &&
		c.Col >= 0.5-Epsilon && c.Col <= float64(s.Cols)+0.5+Epsilon
}

// ClampToIntersections pulls c back onto the intersection bounds.
func (s Spec) ClampToIntersections(c Coordinate) Coordinate {
	return Coordinate{
		Row: math.Max(0.5, math.Min(float64(s.Rows)+0.5, c.Row)),
		Col: math.Max(0.5, math.Min(float64(s.Cols)+0.5, c.Col)),
	}
}

// InCellBounds reports whether c addresses a cell inside [0, rows) x [0, cols).
func (s Spec) InCellBounds(c Cell) bool {
	return c.Row >= 0 && c.Row < s.Rows && c.Col >= 0 && c.Col < s.Cols
}

// Coordinate is a 1-based grid position. Points between cells use half
// integers (n + 0.5). North increases Row, east increases Col.
type Coordinate struct {
	Row float64 `json:"row"`
	Col float64 `json:"col"`
}

// Equal compares two coordinates within Epsilon.
func (c Coordinate) Equal(o Coordinate) bool {
	return math.Abs(c.Row-o.Row) < Epsilon && math.Abs(c.Col-o.Col) < Epsilon
}

// Step returns the coordinate reached by moving units grid units in d.
func (c Coordinate) Step(d Direction, units float64) Coordinate {
	dr, dc := d.Delta()
	return Coordinate{Row: c.Row + float64(dr)*units, Col: c.Col + float64(dc)*units}
}

// Apply moves c by m, converting metres to grid units with scale.
func (c Coordinate) Apply(m Move, scale float64) Coordinate {
	if scale <= 0 {
		return c
	}
	return c.Step(m.Direction, m.Distance/scale)
}

// Manhattan returns |dRow| + |dCol|.
func (c Coordinate) Manhattan(o Coordinate) float64 {
	return math.Abs(c.Row-o.Row) + math.Abs(c.Col-o.Col)
}

// Key returns the occupancy key of the coordinate.
func (c Coordinate) Key() Key {
	return Key(fmt.Sprintf("%s,%s", formatNumber(c.Col), formatNumber(c.Row)))
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%s, %s)", formatNumber(c.Row), formatNumber(c.Col))
}

// Cell is a 0-based integer cell used by games that move between cells.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Neighbor returns the adjacent cell in d. Cell games use screen
// orientation, so north decreases Row.
func (c Cell) Neighbor(d Direction) Cell {
	dr, dc := d.Delta()
	return Cell{Row: c.Row - dr, Col: c.Col + dc}
}

// Manhattan returns the taxicab distance between two cells.
func (c Cell) Manhattan(o Cell) int {
	return abs(c.Row-o.Row) + abs(c.Col-o.Col)
}

// Key returns the occupancy key of the cell.
func (c Cell) Key() Key {
	return CellKey(c.Col, c.Row)
}

// Direction is a compass direction.
type Direction string

const (
	North Direction = "north"
	South Direction = "south"
	East  Direction = "east"
	West  Direction = "west"
)

// Directions lists the compass directions in N, E, S, W order.
var Directions = []Direction{North, East, South, West}

// Delta returns the row and column change of one unit step in the model
// coordinate system.
func (d Direction) Delta() (int, int) {
	switch d {
	case North:
		return 1, 0
	case South:
		return -1, 0
	case East:
		return 0, 1
	case West:
		return 0, -1
	}
	return 0, 0
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	}
	return d
}

// Vertical reports whether d moves along rows.
func (d Direction) Vertical() bool {
	return d == North || d == South
}

// Valid reports whether d is one of the four compass directions.
func (d Direction) Valid() bool {
	switch d {
	case North, South, East, West:
		return true
	}
	return false
}

// ParseDirection accepts full names and single-letter abbreviations.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "north", "North", "N", "n", "up":
		return North, nil
	case "south", "South", "S", "s", "down":
		return South, nil
	case "east", "East", "E", "e", "right":
		return East, nil
	case "west", "West", "W", "w", "left":
		return West, nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

// Move is a single straight movement measured in metres.
type Move struct {
	Distance  float64   `json:"distance"`
	Direction Direction `json:"direction"`
}

func formatNumber(f float64) string {
	return fmt.Sprintf("%g", math.Round(f*100)/100)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
