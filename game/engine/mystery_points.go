package engine

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/emilyyejia/Pattern-and-Algebra/game/grid"
	"github.com/emilyyejia/Pattern-and-Algebra/game/placement"
	"github.com/emilyyejia/Pattern-and-Algebra/game/scoring"
	"github.com/emilyyejia/Pattern-and-Algebra/game/timer"
)

const settleKey = "settle"

// MysteryPoint is an unlabelled intersection the player walks to.
type MysteryPoint struct {
	ID       string              `json:"id"`
	Position grid.Coordinate     `json:"position"`
	Revealed bool                `json:"revealed"`
	Content  *placement.Template `json:"content,omitempty"`
}

// MysteryPointsState is the progress of a mystery-points level.
type MysteryPointsState struct {
	Rows      int                  `json:"rows"`
	Cols      int                  `json:"cols"`
	Scale     float64              `json:"scale"`
	Player    placement.Landmark   `json:"player"`
	Landmarks []placement.Landmark `json:"landmarks"`
	Points    []MysteryPoint       `json:"points"`
	Selected  string               `json:"selected,omitempty"`
	LegStart  grid.Coordinate      `json:"leg_start"`
	LegMoves  int                  `json:"leg_moves"`
	Moves     int                  `json:"moves"`
	Wasted    int                  `json:"wasted_moves"`
	Phase     timer.Phase          `json:"phase"`
	// ReturnTo is set while the player is shown at the map edge after an
	// off-map move.
	ReturnTo  *grid.Coordinate `json:"return_to,omitempty"`
	Completed bool             `json:"completed"`
	Stars     int              `json:"stars,omitempty"`
}

// mysteryPoints has the player pick a hidden point and walk to it with
// straight moves. Each leg is scored against the fewest moves needed.
type mysteryPoints struct {
	config *GameConfig
	anim   timer.Animation
	st     MysteryPointsState
}

func newMysteryPoints(config *GameConfig) *mysteryPoints {
	return &mysteryPoints{config: config}
}

func (l *mysteryPoints) Kind() Kind {
	return KindMysteryPoints
}

func (l *mysteryPoints) Reset(rng *rand.Rand, now time.Time) *Outcome {
	g := l.config.Grid()
	gen := placement.NewGenerator(rng, g, placement.Constraints{
		Candidates: placement.InnerIntersections,
		Buffer:     grid.PointBuffer,
	})

	contents := placement.Shuffle(rng, l.config.MysteryPoints)
	points := make([]MysteryPoint, len(contents))
	for i := range contents {
		id := fmt.Sprintf("mystery-point-%d", i+1)
		content := contents[i]
		points[i] = MysteryPoint{ID: id, Position: gen.PlacePoint(id), Content: &content}
	}

	player := gen.Place(*l.config.Player)
	landmarks := gen.PlaceAll(l.config.Landmarks)

	l.anim.Reset()
	l.st = MysteryPointsState{
		Rows:      g.Rows,
		Cols:      g.Cols,
		Scale:     l.config.Scale,
		Player:    player,
		Landmarks: landmarks,
		Points:    points,
		LegStart:  player.Position,
		Phase:     timer.Idle,
	}
	return &Outcome{Accepted: true, Message: l.config.Messages.Welcome}
}

func (l *mysteryPoints) point(id string) (*MysteryPoint, bool) {
	for i := range l.st.Points {
		if l.st.Points[i].ID == id {
			return &l.st.Points[i], true
		}
	}
	return nil, false
}

func (l *mysteryPoints) Act(a Action, now time.Time) (*Outcome, error) {
	if l.st.Completed {
		return nil, ErrLevelComplete
	}
	if l.anim.Busy() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAction, timer.ErrBusy)
	}
	switch a.Type {
	case ActionSelect:
		return l.selectPoint(a)
	case ActionMove:
		return l.move(a)
	}
	return nil, fmt.Errorf("%w: %s is not a mystery-points action", ErrInvalidAction, a.Type)
}

func (l *mysteryPoints) selectPoint(a Action) (*Outcome, error) {
	if l.st.Selected != "" {
		return nil, fmt.Errorf("%w: %s is already selected", ErrInvalidAction, l.st.Selected)
	}
	p, ok := l.point(a.TargetID)
	if !ok {
		return nil, fmt.Errorf("%w: no mystery point %q", ErrInvalidAction, a.TargetID)
	}
	if p.Revealed {
		return nil, fmt.Errorf("%w: %s is already revealed", ErrInvalidAction, p.ID)
	}

	l.st.Selected = p.ID
	l.st.LegStart = l.st.Player.Position
	l.st.LegMoves = 0

	out := &Outcome{Accepted: true, Message: fmt.Sprintf("Move %s to the mystery point.", l.st.Player.Label)}
	out.emit(EventSelected, p.ID)
	return out, nil
}

func (l *mysteryPoints) move(a Action) (*Outcome, error) {
	if l.st.Selected == "" {
		return nil, fmt.Errorf("%w: select a mystery point first", ErrInvalidAction)
	}
	if !a.Direction.Valid() || a.Distance <= 0 {
		return nil, fmt.Errorf("%w: move needs a direction and a positive distance", ErrInvalidAction)
	}
	if err := l.anim.Begin(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}
	l.st.Phase = l.anim.Phase()

	g := l.config.Grid()
	from := l.st.Player.Position
	target := from.Apply(grid.Move{Distance: a.Distance, Direction: a.Direction}, l.st.Scale)
	l.st.LegMoves++
	l.st.Moves++

	out := &Outcome{Accepted: true}
	if !g.InIntersectionBounds(target) {
		edge := g.ClampToIntersections(target)
		back := from
		l.st.ReturnTo = &back
		l.st.Player.Position = edge
		out.Accepted = false
		out.Message = "Oops! That's off the map."
		out.emit(EventMoved, edge)
		out.schedule(EffectSnapBack, settleKey, "", ms(l.config.Timings.SnapBackMS))
		return out, nil
	}

	l.st.Player.Position = target
	out.emit(EventMoved, target)
	out.schedule(EffectSettle, settleKey, "", ms(l.config.Timings.AnimationMS))
	return out, nil
}

func (l *mysteryPoints) Expire(e Effect, now time.Time) (*Outcome, error) {
	if e.Kind != EffectSettle && e.Kind != EffectSnapBack {
		return nil, fmt.Errorf("%w: unexpected effect %s", ErrInvalidAction, e.Kind)
	}
	out := &Outcome{}
	if !l.anim.Settle() {
		return out, nil
	}
	l.st.Phase = l.anim.Phase()
	out.Accepted = true

	if l.st.ReturnTo != nil {
		l.st.Player.Position = *l.st.ReturnTo
		l.st.ReturnTo = nil
		out.emit(EventSnappedBack, l.st.Player.Position)
		return out, nil
	}
	out.emit(EventSettled, l.st.Player.Position)
	l.arrive(out)
	return out, nil
}

// arrive reveals the selected point once the player stands on it.
func (l *mysteryPoints) arrive(out *Outcome) {
	p, ok := l.point(l.st.Selected)
	if !ok || !p.Position.Equal(l.st.Player.Position) {
		return
	}
	l.st.Wasted += scoring.WastedMoves(l.st.LegMoves, l.st.LegStart, p.Position)
	p.Revealed = true
	l.st.Selected = ""
	out.emit(EventRevealed, *p)
	out.Message = fmt.Sprintf("It's the %s!", p.Content.Label)

	for _, pt := range l.st.Points {
		if !pt.Revealed {
			return
		}
	}
	l.st.Completed = true
	l.st.Stars = l.Stars()
	out.Message = l.config.Messages.Complete
	out.emit(EventLevelComplete, l.st.Stars)
}

func (l *mysteryPoints) Resume(now time.Time) []Effect {
	if !l.anim.Busy() {
		return nil
	}
	kind := EffectSettle
	if l.st.ReturnTo != nil {
		kind = EffectSnapBack
	}
	return []Effect{{Kind: kind, Key: settleKey}}
}

// State hides the content of points not yet revealed.
func (l *mysteryPoints) State() any {
	s := l.st
	s.Landmarks = append([]placement.Landmark(nil), l.st.Landmarks...)
	s.Points = make([]MysteryPoint, len(l.st.Points))
	for i, p := range l.st.Points {
		if !p.Revealed {
			p.Content = nil
		}
		s.Points[i] = p
	}
	return s
}

func (l *mysteryPoints) Stars() int {
	if !l.st.Completed {
		return 0
	}
	return scoring.StarsFromMoveEfficiency(l.st.Wasted, l.config.Thresholds)
}

func (l *mysteryPoints) Completed() bool {
	return l.st.Completed
}

func (l *mysteryPoints) Over() bool {
	return l.st.Completed
}

func (l *mysteryPoints) save() (json.RawMessage, error) {
	return json.Marshal(l.st)
}

// load keeps an interrupted animation running so Resume can settle it.
func (l *mysteryPoints) load(data json.RawMessage, rng *rand.Rand) error {
	if err := json.Unmarshal(data, &l.st); err != nil {
		return err
	}
	l.anim.Reset()
	if l.st.Phase == timer.Animating {
		_ = l.anim.Begin()
	} else {
		l.anim.Restore(l.st.Phase)
	}
	return nil
}
