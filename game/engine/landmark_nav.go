package engine

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/emilyyejia/Pattern-and-Algebra/game/grid"
	"github.com/emilyyejia/Pattern-and-Algebra/game/path"
	"github.com/emilyyejia/Pattern-and-Algebra/game/placement"
	"github.com/emilyyejia/Pattern-and-Algebra/game/scoring"
)

// playerStart is the bottom-left intersection.
var playerStart = grid.Coordinate{Row: 0.5, Col: 0.5}

// LandmarkNavState is the progress of a landmark-navigation level.
type LandmarkNavState struct {
	Rows         int                  `json:"rows"`
	Cols         int                  `json:"cols"`
	Scale        float64              `json:"scale"`
	Player       placement.Landmark   `json:"player"`
	Landmarks    []placement.Landmark `json:"landmarks"`
	Instructions []path.Instruction   `json:"instructions"`
	Current      int                  `json:"current"`
	Position     grid.Coordinate      `json:"position"`
	WrongClicks  int                  `json:"wrong_clicks"`
	Penalty      float64              `json:"penalty_seconds"`
	StartedAt    time.Time            `json:"started_at"`
	FinishedAt   *time.Time           `json:"finished_at,omitempty"`
	Elapsed      float64              `json:"elapsed_seconds,omitempty"`
	Completed    bool                 `json:"completed"`
	Stars        int                  `json:"stars,omitempty"`
}

// landmarkNav reads out a generated path one instruction at a time; the
// player clicks the intersection each instruction leads to.
type landmarkNav struct {
	config *GameConfig
	st     LandmarkNavState
}

func newLandmarkNav(config *GameConfig) *landmarkNav {
	return &landmarkNav{config: config}
}

func (l *landmarkNav) Kind() Kind {
	return KindLandmarkNav
}

func (l *landmarkNav) Reset(rng *rand.Rand, now time.Time) *Outcome {
	g := l.config.Grid()
	p := l.config.Player
	player := placement.Landmark{ID: p.ID, Symbol: p.Symbol, Label: p.Label, Color: p.Color, Position: playerStart}

	gen := placement.NewGenerator(rng, g, placement.Constraints{
		Candidates: placement.InnerIntersections,
		Buffer:     grid.PointBuffer,
	})
	gen.Reserve(player.Position)
	landmarks := gen.PlaceAll(placement.Shuffle(rng, l.config.Landmarks))

	instructions := path.GeneratePath(rng, player.Position, landmarks, l.config.Scale, g, l.config.StepCount)
	placement.SortByLabel(landmarks)

	l.st = LandmarkNavState{
		Rows:         g.Rows,
		Cols:         g.Cols,
		Scale:        l.config.Scale,
		Player:       player,
		Landmarks:    landmarks,
		Instructions: instructions,
		Position:     player.Position,
		StartedAt:    now,
	}
	return &Outcome{Accepted: true, Message: l.config.Messages.Welcome}
}

func (l *landmarkNav) path() path.Path {
	return path.Path{
		Start:        l.st.Player.Position,
		Landmarks:    l.st.Landmarks,
		Scale:        l.st.Scale,
		Instructions: l.st.Instructions,
	}
}

func (l *landmarkNav) Act(a Action, now time.Time) (*Outcome, error) {
	if l.st.Completed {
		return nil, ErrLevelComplete
	}
	if a.Type != ActionClick {
		return nil, fmt.Errorf("%w: %s is not a landmark-nav action", ErrInvalidAction, a.Type)
	}
	if a.At == nil {
		return nil, fmt.Errorf("%w: click needs a position", ErrInvalidAction)
	}

	p := l.path()
	target, ok := p.Target(l.st.Current)
	if !ok {
		return nil, fmt.Errorf("%w: no instruction left", ErrInvalidAction)
	}

	out := &Outcome{}
	if !a.At.Equal(target) {
		l.st.WrongClicks++
		l.st.Penalty += l.config.PenaltySeconds
		out.Message = fmt.Sprintf("%s went wrong. %g-second penalty.", l.st.Player.Label, l.config.PenaltySeconds)
		out.emit(EventPenalty, l.config.PenaltySeconds)
		return out, nil
	}

	out.Accepted = true
	l.st.Current++
	l.st.Position = target
	out.emit(EventMoved, target)
	if l.st.Current < p.Len() {
		out.Message = l.st.Instructions[l.st.Current].Text
		return out, nil
	}

	finished := now
	l.st.FinishedAt = &finished
	l.st.Elapsed = l.elapsed()
	l.st.Completed = true
	l.st.Stars = l.Stars()
	out.Message = l.config.Messages.Complete
	out.emit(EventLevelComplete, l.st.Stars)
	return out, nil
}

// elapsed is the finishing time in seconds, penalties included.
func (l *landmarkNav) elapsed() float64 {
	if l.st.FinishedAt == nil {
		return 0
	}
	return l.st.FinishedAt.Sub(l.st.StartedAt).Seconds() + l.st.Penalty
}

func (l *landmarkNav) Expire(e Effect, now time.Time) (*Outcome, error) {
	return nil, fmt.Errorf("%w: unexpected effect %s", ErrInvalidAction, e.Kind)
}

func (l *landmarkNav) Resume(now time.Time) []Effect {
	return nil
}

func (l *landmarkNav) State() any {
	s := l.st
	s.Landmarks = append([]placement.Landmark(nil), l.st.Landmarks...)
	s.Instructions = append([]path.Instruction(nil), l.st.Instructions...)
	return s
}

func (l *landmarkNav) Stars() int {
	if !l.st.Completed {
		return 0
	}
	return scoring.StarsFromTime(l.elapsed(), l.config.Thresholds)
}

func (l *landmarkNav) Completed() bool {
	return l.st.Completed
}

func (l *landmarkNav) Over() bool {
	return l.st.Completed
}

func (l *landmarkNav) save() (json.RawMessage, error) {
	return json.Marshal(l.st)
}

func (l *landmarkNav) load(data json.RawMessage, rng *rand.Rand) error {
	return json.Unmarshal(data, &l.st)
}
