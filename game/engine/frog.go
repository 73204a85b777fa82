package engine

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/emilyyejia/Pattern-and-Algebra/game/grid"
	"github.com/emilyyejia/Pattern-and-Algebra/game/reach"
	"github.com/emilyyejia/Pattern-and-Algebra/game/scoring"
)

const (
	trapKey = "trap"
	flyKey  = "fly"
)

// Fly is a bonus the frog can eat while it is on the board.
type Fly struct {
	ID        string    `json:"id"`
	Cell      grid.Cell `json:"cell"`
	SpawnedAt time.Time `json:"spawned_at"`
}

// FrogState is the progress of a frog level.
type FrogState struct {
	Rows        int         `json:"rows"`
	Cols        int         `json:"cols"`
	Frog        grid.Cell   `json:"frog"`
	Worm        grid.Cell   `json:"worm"`
	LilyPads    []grid.Cell `json:"lily_pads"`
	Fly         *Fly        `json:"fly,omitempty"`
	FliesEaten  int         `json:"flies_eaten"`
	Hops        int         `json:"hops"`
	TrapPending bool        `json:"trap_pending"`
	Trapped     bool        `json:"trapped"`
	Won         bool        `json:"won"`
	Stars       int         `json:"stars,omitempty"`
}

// frog hops one cell at a time towards the worm. Every cell it leaves turns
// into a lily pad it cannot land on again, so it can wall itself in.
type frog struct {
	config *GameConfig
	rng    *rand.Rand
	pads   reach.Barriers
	st     FrogState
}

func newFrog(config *GameConfig) *frog {
	return &frog{config: config}
}

func (l *frog) Kind() Kind {
	return KindFrog
}

func (l *frog) Reset(rng *rand.Rand, now time.Time) *Outcome {
	l.rng = rng
	l.pads = reach.NewBarriers()
	l.st = FrogState{
		Rows:     l.config.Rows,
		Cols:     l.config.Cols,
		Frog:     grid.Cell{},
		Worm:     grid.Cell{Row: l.config.Rows - 1, Col: l.config.Cols - 1},
		LilyPads: []grid.Cell{},
	}
	out := &Outcome{Accepted: true, Message: l.config.Messages.Welcome}
	l.scheduleSpawn(out)
	return out
}

func (l *frog) fliesActive() bool {
	return !l.Over() && l.st.FliesEaten < l.config.MaxFlies
}

func (l *frog) scheduleSpawn(out *Outcome) {
	if l.fliesActive() && l.st.Fly == nil {
		out.schedule(EffectFlySpawn, flyKey, "", ms(l.config.Timings.FlySpawnMS))
	}
}

func (l *frog) Act(a Action, now time.Time) (*Outcome, error) {
	if l.Over() {
		return nil, ErrLevelComplete
	}
	if a.Type != ActionMove {
		return nil, fmt.Errorf("%w: %s is not a frog action", ErrInvalidAction, a.Type)
	}
	if !a.Direction.Valid() {
		return nil, fmt.Errorf("%w: hop needs a direction", ErrInvalidAction)
	}
	if l.st.TrapPending {
		return nil, fmt.Errorf("%w: the frog is stuck", ErrInvalidAction)
	}

	g := l.config.Grid()
	next := l.st.Frog.Neighbor(a.Direction)
	out := &Outcome{}
	if !g.InCellBounds(next) || l.pads.Has(next) {
		out.emit(EventBlocked, next)
		return out, nil
	}

	out.Accepted = true
	l.pads.Put(l.st.Frog)
	l.st.LilyPads = append(l.st.LilyPads, l.st.Frog)
	l.st.Frog = next
	l.st.Hops++
	out.emit(EventMoved, next)

	if l.st.Fly != nil && l.st.Fly.Cell == next {
		l.st.FliesEaten++
		out.emit(EventFlyEaten, l.st.FliesEaten)
		l.st.Fly = nil
		l.scheduleSpawn(out)
	}

	if next == l.st.Worm {
		l.st.Won = true
		l.st.Fly = nil
		l.st.Stars = l.Stars()
		out.Message = l.config.Messages.Complete
		out.emit(EventLevelComplete, l.st.Stars)
		return out, nil
	}

	if reach.IsTrapped(next, l.st.Worm, l.pads, g) {
		l.st.TrapPending = true
		out.emit(EventTrapWarning, next)
		out.schedule(EffectTrap, trapKey, "", ms(l.config.Timings.TrapGraceMS))
	}
	return out, nil
}

func (l *frog) Expire(e Effect, now time.Time) (*Outcome, error) {
	out := &Outcome{}
	switch e.Kind {
	case EffectTrap:
		if !l.st.TrapPending || l.Over() {
			return out, nil
		}
		l.st.TrapPending = false
		l.st.Trapped = true
		l.st.Fly = nil
		out.Accepted = true
		out.Message = l.config.Messages.Trapped
		out.emit(EventTrapped, l.st.Frog)

	case EffectFlySpawn:
		if !l.fliesActive() || l.st.Fly != nil {
			return out, nil
		}
		free := l.freeCells()
		if len(free) == 0 {
			return out, nil
		}
		fly := &Fly{ID: uuid.NewString(), Cell: free[l.rng.Intn(len(free))], SpawnedAt: now}
		l.st.Fly = fly
		out.Accepted = true
		out.emit(EventFlySpawned, *fly)
		out.schedule(EffectFlyExpire, flyKey, fly.ID, ms(l.config.Timings.FlyLifetimeMS))

	case EffectFlyExpire:
		if l.st.Fly == nil || l.st.Fly.ID != e.Target {
			return out, nil
		}
		l.st.Fly = nil
		out.Accepted = true
		out.emit(EventFlyGone, e.Target)
		l.scheduleSpawn(out)

	default:
		return nil, fmt.Errorf("%w: unexpected effect %s", ErrInvalidAction, e.Kind)
	}
	return out, nil
}

// freeCells lists cells a fly may appear on, in row-major order.
func (l *frog) freeCells() []grid.Cell {
	var free []grid.Cell
	for r := 0; r < l.config.Rows; r++ {
		for c := 0; c < l.config.Cols; c++ {
			cell := grid.Cell{Row: r, Col: c}
			if cell == l.st.Frog || cell == l.st.Worm || l.pads.Has(cell) {
				continue
			}
			free = append(free, cell)
		}
	}
	return free
}

func (l *frog) Resume(now time.Time) []Effect {
	if l.Over() {
		return nil
	}
	var effects []Effect
	if l.st.TrapPending {
		effects = append(effects, Effect{Kind: EffectTrap, Key: trapKey, Delay: ms(l.config.Timings.TrapGraceMS)})
	}
	switch {
	case l.st.Fly != nil:
		left := ms(l.config.Timings.FlyLifetimeMS) - now.Sub(l.st.Fly.SpawnedAt)
		if left < 0 {
			left = 0
		}
		effects = append(effects, Effect{Kind: EffectFlyExpire, Key: flyKey, Target: l.st.Fly.ID, Delay: left})
	case l.fliesActive():
		effects = append(effects, Effect{Kind: EffectFlySpawn, Key: flyKey, Delay: ms(l.config.Timings.FlySpawnMS)})
	}
	return effects
}

func (l *frog) State() any {
	s := l.st
	s.LilyPads = append([]grid.Cell{}, l.st.LilyPads...)
	if l.st.Fly != nil {
		fly := *l.st.Fly
		s.Fly = &fly
	}
	return s
}

// Stars is zero unless the frog reached the worm; a trapped frog has to
// try again.
func (l *frog) Stars() int {
	if !l.st.Won {
		return 0
	}
	c := scoring.Collected{Three: int(l.config.Thresholds.Three), Two: int(l.config.Thresholds.Two)}
	return scoring.StarsFromCollected(l.st.FliesEaten, c)
}

func (l *frog) Completed() bool {
	return l.st.Won
}

func (l *frog) Over() bool {
	return l.st.Won || l.st.Trapped
}

func (l *frog) save() (json.RawMessage, error) {
	return json.Marshal(l.st)
}

func (l *frog) load(data json.RawMessage, rng *rand.Rand) error {
	if err := json.Unmarshal(data, &l.st); err != nil {
		return err
	}
	l.rng = rng
	l.pads = reach.NewBarriers(l.st.LilyPads...)
	return nil
}
