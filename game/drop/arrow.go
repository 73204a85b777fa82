package drop

import (
	"fmt"
	"math"
	"time"

	"github.com/emilyyejia/Pattern-and-Algebra/game/grid"
	"github.com/emilyyejia/Pattern-and-Algebra/game/placement"
)

// SnapArrow maps an arrow dropped at pointer to the lattice point it
// starts from. Lattice points run from 0 to rows and 0 to cols with row 0
// at the bottom. Drops outside the grid are clamped onto it.
func SnapArrow(d grid.Direction, pointer Point, geo Geometry) (grid.Coordinate, bool) {
	if !d.Valid() || !geo.usable() {
		return grid.Coordinate{}, false
	}
	x, y := geo.Local(pointer)
	cellW, cellH := geo.CellSize()
	rows, cols := geo.Rows, geo.Cols

	if d.Vertical() {
		col := clampInt(round(x/cellW), 0, cols)
		visRow := clampInt(int(math.Floor(y/cellH)), 0, rows-1)
		row := rows - visRow
		if d == grid.North {
			row = rows - 1 - visRow
		}
		return grid.Coordinate{Row: float64(row), Col: float64(col)}, true
	}

	row := rows - clampInt(round(y/cellH), 0, rows)
	visCol := clampInt(int(math.Floor(x/cellW)), 0, cols-1)
	col := visCol
	if d == grid.West {
		col = visCol + 1
	}
	return grid.Coordinate{Row: float64(row), Col: float64(col)}, true
}

// Trip is one leg of the daily schedule.
type Trip struct {
	Time   string `json:"time"`
	FromID string `json:"fromId"`
	ToID   string `json:"toId"`
}

// Arrow is a placed one-unit route segment.
type Arrow struct {
	ID        string          `json:"id"`
	From      grid.Coordinate `json:"from"`
	Direction grid.Direction  `json:"direction"`
	Correct   bool            `json:"correct"`
	Trip      int             `json:"trip"`
}

// To returns the lattice point the arrow ends on.
func (a Arrow) To() grid.Coordinate {
	return a.From.Step(a.Direction, 1)
}

// ArrowPlacement reports what an arrow drop did.
type ArrowPlacement struct {
	Arrow *Arrow `json:"arrow,omitempty"`
	// Ignored drops are off the current path or repeat an arrow.
	Ignored      bool          `json:"ignored,omitempty"`
	Expires      time.Duration `json:"expires,omitempty"`
	TripComplete bool          `json:"tripComplete,omitempty"`
}

// Route validates arrows drawn along a schedule of trips between
// landmarks. Each trip must be drawn one arrow at a time, every arrow
// starting where the last correct one ended and moving closer to the
// destination.
type Route struct {
	Landmarks      []placement.Landmark
	Schedule       []Trip
	TransientDelay time.Duration

	arrows    []Arrow
	trip      int
	tripDone  bool
	incorrect int
}

// NewRoute prepares a route over the schedule.
func NewRoute(landmarks []placement.Landmark, schedule []Trip) *Route {
	return &Route{Landmarks: landmarks, Schedule: schedule, TransientDelay: DefaultTransientDelay}
}

// Trip returns the index of the trip being drawn.
func (r *Route) Trip() int {
	return r.trip
}

// TripComplete reports whether the current trip reached its destination.
func (r *Route) TripComplete() bool {
	return r.tripDone
}

// Finished reports whether every trip has been drawn and advanced past.
func (r *Route) Finished() bool {
	return r.trip >= len(r.Schedule)
}

func (r *Route) endpoints(trip int) (from, to grid.Coordinate, err error) {
	if trip < 0 || trip >= len(r.Schedule) {
		return from, to, fmt.Errorf("trip %d out of range", trip)
	}
	t := r.Schedule[trip]
	a, ok := placement.Find(r.Landmarks, t.FromID)
	if !ok {
		return from, to, fmt.Errorf("landmark %q not placed", t.FromID)
	}
	b, ok := placement.Find(r.Landmarks, t.ToID)
	if !ok {
		return from, to, fmt.Errorf("landmark %q not placed", t.ToID)
	}
	return a.Position, b.Position, nil
}

// Expected returns where the next arrow of the current trip must start.
func (r *Route) Expected() (grid.Coordinate, error) {
	from, _, err := r.endpoints(r.trip)
	if err != nil {
		return grid.Coordinate{}, err
	}
	for _, a := range r.arrows {
		if a.Correct && a.Trip == r.trip {
			from = a.To()
		}
	}
	return from, nil
}

// ShortestPath returns the Manhattan length of trip.
func (r *Route) ShortestPath(trip int) (int, error) {
	from, to, err := r.endpoints(trip)
	if err != nil {
		return 0, err
	}
	return int(math.Round(from.Manhattan(to))), nil
}

// Place validates an arrow in direction d starting at from.
func (r *Route) Place(d grid.Direction, from grid.Coordinate) (ArrowPlacement, error) {
	if r.Finished() || r.tripDone {
		return ArrowPlacement{Ignored: true}, nil
	}
	expected, err := r.Expected()
	if err != nil {
		return ArrowPlacement{}, err
	}
	if !from.Equal(expected) {
		return ArrowPlacement{Ignored: true}, nil
	}

	id := fmt.Sprintf("%s-%s-%d", from.Key(), letter(d), r.trip)
	for _, a := range r.arrows {
		if a.ID == id {
			return ArrowPlacement{Ignored: true}, nil
		}
	}

	_, dest, _ := r.endpoints(r.trip)
	arrow := Arrow{ID: id, From: from, Direction: d, Trip: r.trip}
	arrow.Correct = arrow.To().Manhattan(dest) < from.Manhattan(dest)
	r.arrows = append(r.arrows, arrow)

	if !arrow.Correct {
		r.incorrect++
		delay := r.TransientDelay
		if delay <= 0 {
			delay = DefaultTransientDelay
		}
		return ArrowPlacement{Arrow: &arrow, Expires: delay}, nil
	}

	if arrow.To().Equal(dest) {
		shortest, _ := r.ShortestPath(r.trip)
		if r.CorrectArrows(r.trip) == shortest {
			r.tripDone = true
		}
	}
	return ArrowPlacement{Arrow: &arrow, TripComplete: r.tripDone}, nil
}

// Expire removes a transient arrow.
func (r *Route) Expire(id string) bool {
	for i, a := range r.arrows {
		if a.ID == id && !a.Correct {
			r.arrows = append(r.arrows[:i], r.arrows[i+1:]...)
			return true
		}
	}
	return false
}

// Advance moves on to the next trip once the current one is complete.
func (r *Route) Advance() bool {
	if !r.tripDone {
		return false
	}
	r.trip++
	r.tripDone = false
	return true
}

// CorrectArrows counts the correct arrows of trip.
func (r *Route) CorrectArrows(trip int) int {
	n := 0
	for _, a := range r.arrows {
		if a.Correct && a.Trip == trip {
			n++
		}
	}
	return n
}

// TotalCorrectArrows counts correct arrows across all trips.
func (r *Route) TotalCorrectArrows() int {
	n := 0
	for _, a := range r.arrows {
		if a.Correct {
			n++
		}
	}
	return n
}

// IncorrectArrows returns how many wrong arrows were dropped.
func (r *Route) IncorrectArrows() int {
	return r.incorrect
}

// Arrows returns a copy of the arrows on the map.
func (r *Route) Arrows() []Arrow {
	out := make([]Arrow, len(r.arrows))
	copy(out, r.arrows)
	return out
}

// RouteState is the serialisable progress of a Route.
type RouteState struct {
	Arrows    []Arrow `json:"arrows"`
	Trip      int     `json:"trip"`
	TripDone  bool    `json:"tripDone"`
	Incorrect int     `json:"incorrect"`
}

// State captures the route progress.
func (r *Route) State() RouteState {
	return RouteState{Arrows: r.Arrows(), Trip: r.trip, TripDone: r.tripDone, Incorrect: r.incorrect}
}

// Restore resumes from a captured state.
func (r *Route) Restore(s RouteState) {
	r.arrows = append([]Arrow(nil), s.Arrows...)
	r.trip = s.Trip
	r.tripDone = s.TripDone
	r.incorrect = s.Incorrect
}

func letter(d grid.Direction) string {
	switch d {
	case grid.North:
		return "N"
	case grid.South:
		return "S"
	case grid.East:
		return "E"
	case grid.West:
		return "W"
	}
	return string(d)
}
