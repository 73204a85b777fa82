package drop

import "math"

// Point is a pointer position in screen pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Geometry is the on-screen box of a grid: its bounding rectangle, border
// widths and the number of rows and columns drawn inside it.
type Geometry struct {
	Left         float64 `json:"left"`
	Top          float64 `json:"top"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	BorderLeft   float64 `json:"borderLeft,omitempty"`
	BorderTop    float64 `json:"borderTop,omitempty"`
	BorderRight  float64 `json:"borderRight,omitempty"`
	BorderBottom float64 `json:"borderBottom,omitempty"`
	Rows         int     `json:"rows"`
	Cols         int     `json:"cols"`
}

// Local converts p into content-relative coordinates, origin top-left.
func (g Geometry) Local(p Point) (x, y float64) {
	return p.X - g.Left - g.BorderLeft, p.Y - g.Top - g.BorderTop
}

// CellSize returns the width and height of one cell.
func (g Geometry) CellSize() (w, h float64) {
	if g.Cols <= 0 || g.Rows <= 0 {
		return 0, 0
	}
	contentW := g.Width - g.BorderLeft - g.BorderRight
	contentH := g.Height - g.BorderTop - g.BorderBottom
	return contentW / float64(g.Cols), contentH / float64(g.Rows)
}

func (g Geometry) usable() bool {
	w, h := g.CellSize()
	return w > 0 && h > 0
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// round rounds halves towards positive infinity.
func round(f float64) int {
	return int(math.Floor(f + 0.5))
}
