package drop

import (
	"fmt"
	"math"

	"github.com/emilyyejia/Pattern-and-Algebra/game/grid"
)

// DefaultTolerance is the share of a cell a drop may miss a grid line by.
const DefaultTolerance = 0.3

// Orientation of a measuring block.
type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
)

// Valid reports whether o is a known orientation.
func (o Orientation) Valid() bool {
	return o == Horizontal || o == Vertical
}

// ParseOrientation accepts the full names and h/v.
func ParseOrientation(s string) (Orientation, error) {
	switch s {
	case "horizontal", "h", "H":
		return Horizontal, nil
	case "vertical", "v", "V":
		return Vertical, nil
	}
	return "", fmt.Errorf("unknown orientation %q", s)
}

// Reason explains a rejected drop.
type Reason string

const (
	ReasonNone     Reason = ""
	ReasonScale    Reason = "scale"
	ReasonLocation Reason = "location"
)

// Item is the block being dragged. Size is the distance in metres the
// block stands for.
type Item struct {
	Size        float64     `json:"size"`
	Orientation Orientation `json:"orientation"`
}

// Verdict is the outcome of validating one drop. Rejected drops carry a
// reason; accepted drops carry the snapped grid position and whether it
// lies on the solution.
type Verdict struct {
	Accepted bool            `json:"accepted"`
	Reason   Reason          `json:"reason,omitempty"`
	Snapped  grid.Coordinate `json:"snapped"`
	Correct  bool            `json:"correct"`
}

func reject(r Reason) Verdict {
	return Verdict{Reason: r}
}

// Solution is the segment between two landmarks that blocks must cover.
// Line is the half-integer row (horizontal) or column (vertical) the
// landmarks sit on; Start and End bound the other axis.
type Solution struct {
	Orientation Orientation `json:"orientation"`
	Line        float64     `json:"line"`
	Start       float64     `json:"start"`
	End         float64     `json:"end"`
	Distance    int         `json:"distance"`
}

// Check reports whether a block of orientation o snapped at c lies on the
// solution segment.
func (s Solution) Check(o Orientation, c grid.Coordinate) bool {
	if o != s.Orientation {
		return false
	}
	if o == Horizontal {
		return math.Abs(c.Row-(s.Line+0.5)) < grid.Epsilon &&
			c.Col >= s.Start-grid.Epsilon && c.Col < s.End-grid.Epsilon
	}
	return math.Abs(c.Col-(s.Line-0.5)) < grid.Epsilon &&
		c.Row >= s.Start-grid.Epsilon && c.Row < s.End-grid.Epsilon
}

// BlockValidator snaps block drops onto grid lines and checks them against
// a solution. It holds no state; the same input always yields the same
// verdict.
type BlockValidator struct {
	Grid      grid.Spec
	Scale     float64
	Tolerance float64
	Solution  Solution
}

func (v BlockValidator) tolerance() float64 {
	if v.Tolerance <= 0 {
		return DefaultTolerance
	}
	return v.Tolerance
}

// Validate checks a drop at a screen pointer. The scale is checked before
// anything about the location.
func (v BlockValidator) Validate(item Item, pointer Point, geo Geometry) Verdict {
	if !v.scaleMatches(item) {
		return reject(ReasonScale)
	}
	if !item.Orientation.Valid() || !geo.usable() {
		return reject(ReasonLocation)
	}

	x, y := geo.Local(pointer)
	cellW, cellH := geo.CellSize()
	rows := geo.Rows

	var snapped grid.Coordinate
	if item.Orientation == Horizontal {
		idx := round(y / cellH)
		if math.Abs(y-float64(idx)*cellH) > v.tolerance()*cellH {
			return reject(ReasonLocation)
		}
		snapped = grid.Coordinate{
			Row: float64(rows - idx + 1),
			Col: math.Floor(x/cellW) + 1,
		}
	} else {
		idx := round(x / cellW)
		if math.Abs(x-float64(idx)*cellW) > v.tolerance()*cellW {
			return reject(ReasonLocation)
		}
		snapped = grid.Coordinate{
			Row: float64(rows) - math.Floor(y/cellH),
			Col: float64(idx),
		}
	}
	return v.ValidateAt(item, snapped)
}

// ValidateAt checks a drop that is already expressed in grid coordinates.
func (v BlockValidator) ValidateAt(item Item, snapped grid.Coordinate) Verdict {
	if !v.scaleMatches(item) {
		return reject(ReasonScale)
	}
	if !item.Orientation.Valid() {
		return reject(ReasonLocation)
	}
	if snapped.Col < 1 || snapped.Col > float64(v.Grid.Cols+1) ||
		snapped.Row < 1 || snapped.Row > float64(v.Grid.Rows+1) {
		return reject(ReasonLocation)
	}
	return Verdict{
		Accepted: true,
		Snapped:  snapped,
		Correct:  v.Solution.Check(item.Orientation, snapped),
	}
}

func (v BlockValidator) scaleMatches(item Item) bool {
	return math.Abs(item.Size-v.Scale) < grid.Epsilon
}
