package engine

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/emilyyejia/Pattern-and-Algebra/game/grid"
	"github.com/emilyyejia/Pattern-and-Algebra/game/reach"
)

const (
	treasureMinDistance      = 9
	treasureDrawsPerDistance = 50
)

var mapRotations = []int{90, 180, 270}

// TreasureState is the progress of a treasure level.
type TreasureState struct {
	Rows      int         `json:"rows"`
	Cols      int         `json:"cols"`
	Explorer  grid.Cell   `json:"explorer"`
	Treasure  grid.Cell   `json:"treasure"`
	Obstacles []grid.Cell `json:"obstacles"`
	Moves     int         `json:"moves"`
	Stage     int         `json:"stage"`
	Rotation  int         `json:"rotation"`
	Found     bool        `json:"found"`
	Stars     int         `json:"stars,omitempty"`
}

// treasure walks an explorer around trees with compass buttons. Every
// press costs a move, even one into a tree.
type treasure struct {
	config    *GameConfig
	rng       *rand.Rand
	obstacles reach.Barriers
	st        TreasureState
}

func newTreasure(config *GameConfig) *treasure {
	return &treasure{config: config}
}

func (l *treasure) Kind() Kind {
	return KindTreasure
}

func (l *treasure) Reset(rng *rand.Rand, now time.Time) *Outcome {
	l.rng = rng
	l.obstacles = reach.NewBarriers(l.config.Obstacles...)
	start := grid.Cell{}
	l.st = TreasureState{
		Rows:      l.config.Rows,
		Cols:      l.config.Cols,
		Explorer:  start,
		Treasure:  l.placeTreasure(start),
		Obstacles: append([]grid.Cell(nil), l.config.Obstacles...),
		Stage:     1,
	}
	return &Outcome{Accepted: true, Message: l.config.Messages.Welcome}
}

// placeTreasure draws a far, reachable cell, lowering the required
// distance when draws keep failing. A row-major scan and then the far
// corner are the fallbacks.
func (l *treasure) placeTreasure(start grid.Cell) grid.Cell {
	g := l.config.Grid()
	ok := func(c grid.Cell) bool {
		if c == start || l.obstacles.Has(c) {
			return false
		}
		_, reachable := reach.Distance(start, c, l.obstacles, g)
		return reachable
	}

	for minDistance := treasureMinDistance; minDistance >= 0; minDistance-- {
		for i := 0; i < treasureDrawsPerDistance; i++ {
			c := grid.Cell{Row: l.rng.Intn(g.Rows), Col: l.rng.Intn(g.Cols)}
			if start.Manhattan(c) >= minDistance && ok(c) {
				return c
			}
		}
	}

	log.WithField("min_distance", treasureMinDistance).Warn("random treasure placement failed, scanning")
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			if cell := (grid.Cell{Row: r, Col: c}); ok(cell) {
				return cell
			}
		}
	}

	corner := grid.Cell{Row: g.Rows - 1, Col: g.Cols - 1}
	log.WithFields(logrus.Fields{"rows": g.Rows, "cols": g.Cols}).Error("no reachable cell for the treasure, using far corner")
	return corner
}

func (l *treasure) Act(a Action, now time.Time) (*Outcome, error) {
	if l.st.Found {
		return nil, ErrLevelComplete
	}
	if a.Type != ActionMove {
		return nil, fmt.Errorf("%w: %s is not a treasure action", ErrInvalidAction, a.Type)
	}
	if !a.Direction.Valid() {
		return nil, fmt.Errorf("%w: move needs a direction", ErrInvalidAction)
	}

	l.st.Moves++
	out := &Outcome{}
	next := l.st.Explorer.Neighbor(a.Direction)
	if l.config.Grid().InCellBounds(next) && !l.obstacles.Has(next) {
		l.st.Explorer = next
		out.Accepted = true
		out.emit(EventMoved, next)
	} else {
		out.emit(EventBlocked, next)
	}

	if l.st.Explorer == l.st.Treasure {
		l.st.Found = true
		l.st.Stars = l.Stars()
		out.Message = l.config.Messages.Complete
		out.emit(EventLevelComplete, l.st.Stars)
		return out, nil
	}

	if l.config.RotateAfter > 0 && l.st.Moves == l.config.RotateAfter && l.st.Stage == 1 {
		l.st.Stage = 2
		l.st.Rotation = mapRotations[l.rng.Intn(len(mapRotations))]
		out.Message = "Whoosh! A gust of wind has spun the map. Can your explorer still make it to the treasure?"
		out.emit(EventMapRotated, l.st.Rotation)
	}
	return out, nil
}

func (l *treasure) Expire(e Effect, now time.Time) (*Outcome, error) {
	return nil, fmt.Errorf("%w: unexpected effect %s", ErrInvalidAction, e.Kind)
}

func (l *treasure) Resume(now time.Time) []Effect {
	return nil
}

func (l *treasure) State() any {
	s := l.st
	s.Obstacles = append([]grid.Cell(nil), l.st.Obstacles...)
	return s
}

func (l *treasure) Stars() int {
	if !l.st.Found {
		return 0
	}
	return l.config.Thresholds.Stars(float64(l.st.Moves))
}

func (l *treasure) Completed() bool {
	return l.st.Found
}

func (l *treasure) Over() bool {
	return l.st.Found
}

func (l *treasure) save() (json.RawMessage, error) {
	return json.Marshal(l.st)
}

func (l *treasure) load(data json.RawMessage, rng *rand.Rand) error {
	if err := json.Unmarshal(data, &l.st); err != nil {
		return err
	}
	l.rng = rng
	l.obstacles = reach.NewBarriers(l.st.Obstacles...)
	return nil
}
