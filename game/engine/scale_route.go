package engine

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/emilyyejia/Pattern-and-Algebra/game/drop"
	"github.com/emilyyejia/Pattern-and-Algebra/game/grid"
	"github.com/emilyyejia/Pattern-and-Algebra/game/placement"
	"github.com/emilyyejia/Pattern-and-Algebra/game/scoring"
)

// ScaleRouteState is the progress of a scale-route level.
type ScaleRouteState struct {
	Rows          int                  `json:"rows"`
	Cols          int                  `json:"cols"`
	Scale         float64              `json:"scale"`
	Schedule      []drop.Trip          `json:"schedule"`
	Landmarks     []placement.Landmark `json:"landmarks"`
	Route         drop.RouteState      `json:"route"`
	TripDistances []float64            `json:"trip_distances"`
	AwaitingTotal bool                 `json:"awaiting_total"`
	InputErrors   int                  `json:"input_errors"`
	Completed     bool                 `json:"completed"`
	Stars         int                  `json:"stars,omitempty"`
}

// scaleRoute has the player draw each scheduled trip with one-square arrows
// along grid lines, then convert the arrows to metres.
type scaleRoute struct {
	config *GameConfig
	route  *drop.Route
	st     ScaleRouteState
}

// routeExcluded are lattice points under the scale bar, relative to the
// top row.
var routeExcluded = []int{0, 1}

func newScaleRoute(config *GameConfig) *scaleRoute {
	return &scaleRoute{config: config}
}

func (l *scaleRoute) Kind() Kind {
	return KindScaleRoute
}

func (l *scaleRoute) Reset(rng *rand.Rand, now time.Time) *Outcome {
	g := l.config.Grid()
	scale := l.config.Scales[rng.Intn(len(l.config.Scales))]

	required := map[string]bool{}
	for _, trip := range l.config.Schedule {
		required[trip.FromID] = true
		required[trip.ToID] = true
	}
	var mustPlace, extras []placement.Template
	for _, t := range l.config.Landmarks {
		if required[t.ID] {
			mustPlace = append(mustPlace, t)
		} else {
			extras = append(extras, t)
		}
	}

	exclude := make([]grid.Key, 0, len(routeExcluded))
	for _, col := range routeExcluded {
		exclude = append(exclude, grid.CellKey(col, g.Rows))
	}
	gen := placement.NewGenerator(rng, g, placement.Constraints{
		Candidates: placement.LatticePoints,
		Buffer:     grid.PointBuffer,
		Exclude:    exclude,
		Region:     placement.SpreadRegion(rng, placement.InnerCornerQuadrants(g)),
		Fallback:   grid.Coordinate{Row: 1, Col: 1},
	})
	pool := append(placement.Shuffle(rng, mustPlace), placement.Shuffle(rng, extras)...)
	landmarks := placement.Shuffle(rng, gen.PlaceAll(pool))

	l.route = drop.NewRoute(landmarks, l.config.Schedule)
	if d := ms(l.config.Timings.TransientMS); d > 0 {
		l.route.TransientDelay = d
	}
	l.st = ScaleRouteState{
		Rows:      g.Rows,
		Cols:      g.Cols,
		Scale:     scale,
		Schedule:  append([]drop.Trip(nil), l.config.Schedule...),
		Landmarks: landmarks,
	}
	return &Outcome{Accepted: true, Message: l.config.Messages.Welcome}
}

func (l *scaleRoute) Act(a Action, now time.Time) (*Outcome, error) {
	if l.st.Completed {
		return nil, ErrLevelComplete
	}
	switch a.Type {
	case ActionArrow:
		return l.arrow(a)
	case ActionAnswer:
		return l.answer(a)
	}
	return nil, fmt.Errorf("%w: %s is not a scale-route action", ErrInvalidAction, a.Type)
}

func (l *scaleRoute) arrow(a Action) (*Outcome, error) {
	if l.route.TripComplete() || l.route.Finished() {
		return nil, fmt.Errorf("%w: enter the distance before drawing on", ErrInvalidAction)
	}
	if !a.Direction.Valid() {
		return nil, fmt.Errorf("%w: arrow needs a direction", ErrInvalidAction)
	}

	var from grid.Coordinate
	switch {
	case a.At != nil:
		from = *a.At
	case a.Pointer != nil && a.Geometry != nil:
		snapped, ok := drop.SnapArrow(a.Direction, *a.Pointer, *a.Geometry)
		if !ok {
			return &Outcome{}, nil
		}
		from = snapped
	default:
		return nil, fmt.Errorf("%w: arrow needs a grid position or a pointer with geometry", ErrInvalidAction)
	}

	p, err := l.route.Place(a.Direction, from)
	if err != nil {
		return nil, fmt.Errorf("placing arrow: %w", err)
	}
	out := &Outcome{Accepted: p.Arrow != nil && p.Arrow.Correct}
	if p.Ignored {
		return out, nil
	}
	out.emit(EventArrowPlaced, *p.Arrow)
	if !p.Arrow.Correct {
		out.Message = "That arrow doesn't get Lina closer."
		out.schedule(EffectExpire, "arrow:"+p.Arrow.ID, p.Arrow.ID, p.Expires)
		return out, nil
	}
	if p.TripComplete {
		out.emit(EventTripComplete, l.route.Trip())
		out.Message = "How far did Lina travel?"
	}
	return out, nil
}

func (l *scaleRoute) answer(a Action) (*Outcome, error) {
	if a.Answer == nil {
		return nil, fmt.Errorf("%w: answer is required", ErrInvalidAction)
	}

	var want float64
	switch {
	case l.st.AwaitingTotal:
		want = float64(l.route.TotalCorrectArrows()) * l.st.Scale
	case l.route.TripComplete():
		want = float64(l.route.CorrectArrows(l.route.Trip())) * l.st.Scale
	default:
		return nil, fmt.Errorf("%w: finish the trip first", ErrInvalidAction)
	}

	correct := same(a.Answer.Total, want)
	out := &Outcome{Accepted: correct}
	out.emit(EventAnswerChecked, map[string]any{"correct": correct})
	if !correct {
		l.st.InputErrors++
		out.Message = "Not quite. Count the arrows and use the scale."
		return out, nil
	}

	if l.st.AwaitingTotal {
		l.st.Completed = true
		l.st.Stars = l.Stars()
		out.Message = l.config.Messages.Complete
		out.emit(EventLevelComplete, l.st.Stars)
		return out, nil
	}

	l.st.TripDistances = append(l.st.TripDistances, want)
	l.route.Advance()
	if l.route.Finished() {
		l.st.AwaitingTotal = true
		out.Message = "What was the total distance for the day?"
	} else {
		out.emit(EventStageStarted, l.route.Trip())
	}
	return out, nil
}

func (l *scaleRoute) Expire(e Effect, now time.Time) (*Outcome, error) {
	if e.Kind != EffectExpire {
		return nil, fmt.Errorf("%w: unexpected effect %s", ErrInvalidAction, e.Kind)
	}
	out := &Outcome{}
	if l.route.Expire(e.Target) {
		out.Accepted = true
		out.emit(EventPieceExpired, e.Target)
	}
	return out, nil
}

func (l *scaleRoute) Resume(now time.Time) []Effect {
	var effects []Effect
	for _, a := range l.route.Arrows() {
		if !a.Correct {
			effects = append(effects, Effect{Kind: EffectExpire, Key: "arrow:" + a.ID, Target: a.ID})
		}
	}
	return effects
}

func (l *scaleRoute) State() any {
	s := l.st
	s.Route = l.route.State()
	s.TripDistances = append([]float64(nil), l.st.TripDistances...)
	return s
}

func (l *scaleRoute) Stars() int {
	if !l.st.Completed {
		return 0
	}
	return scoring.StarsFromErrors(l.st.InputErrors, l.config.Thresholds)
}

func (l *scaleRoute) Completed() bool {
	return l.st.Completed
}

func (l *scaleRoute) Over() bool {
	return l.st.Completed
}

func (l *scaleRoute) save() (json.RawMessage, error) {
	return json.Marshal(l.State())
}

func (l *scaleRoute) load(data json.RawMessage, rng *rand.Rand) error {
	var s ScaleRouteState
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	l.st = s
	l.route = drop.NewRoute(s.Landmarks, s.Schedule)
	if d := ms(l.config.Timings.TransientMS); d > 0 {
		l.route.TransientDelay = d
	}
	l.route.Restore(s.Route)
	return nil
}
