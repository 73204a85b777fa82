package engine

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "engine")

// Level is one playable game. Levels are not safe for concurrent use; the
// caller serializes actions and effects.
type Level interface {
	Kind() Kind
	// Reset lays out a fresh puzzle.
	Reset(rng *rand.Rand, now time.Time) *Outcome
	// Act applies a player action. Invalid actions return ErrInvalidAction
	// or ErrLevelComplete; wrong answers are reported in the Outcome.
	Act(a Action, now time.Time) (*Outcome, error)
	// Expire runs a delayed effect the level asked for. Stale effects are
	// ignored.
	Expire(e Effect, now time.Time) (*Outcome, error)
	// Resume returns the effects to re-arm after a restore.
	Resume(now time.Time) []Effect
	State() any
	Stars() int
	Completed() bool
	// Over reports whether the level accepts no more actions, either
	// because it was completed or because it was lost.
	Over() bool

	save() (json.RawMessage, error)
	load(data json.RawMessage, rng *rand.Rand) error
}

func newLevel(config *GameConfig) (Level, error) {
	switch config.Kind {
	case KindScaleBlocks:
		return newScaleBlocks(config), nil
	case KindScaleRoute:
		return newScaleRoute(config), nil
	case KindLandmarkNav:
		return newLandmarkNav(config), nil
	case KindMysteryPoints:
		return newMysteryPoints(config), nil
	case KindFrog:
		return newFrog(config), nil
	case KindTreasure:
		return newTreasure(config), nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownKind, config.Kind)
}

// Engine provides the main interface for game operations.
type Engine interface {
	// Game state
	GetState() *GameState
	Reset(now time.Time) *Outcome
	IsCompleted() bool
	IsGameOver() bool
	GetStars() int

	// Play
	Act(action Action, now time.Time) (*Outcome, error)
	Expire(effect Effect, now time.Time) (*Outcome, error)
	PendingEffects(now time.Time) []Effect

	// Configuration
	GetConfig() *GameConfig
	Seed() int64

	// History
	GetHistory() []HistoryEntry
	GetLastAction() *HistoryEntry

	Snapshot() (*Snapshot, error)
}

// GameEngine implements Engine around a single Level.
type GameEngine struct {
	config  *GameConfig
	level   Level
	seed    int64
	rng     *rand.Rand
	message string
	attempt int
	history []HistoryEntry
	initial []Effect
}

// NewEngine validates config and lays out the first puzzle. A zero seed
// picks a time-based one.
func NewEngine(config *GameConfig, seed int64) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}
	level, err := newLevel(config)
	if err != nil {
		return nil, err
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	e := &GameEngine{
		config:  config,
		level:   level,
		seed:    seed,
		rng:     rand.New(rand.NewSource(seed)),
		history: []HistoryEntry{},
	}
	e.initial = e.Reset(time.Now()).Effects
	return e, nil
}

// Reset lays out a new puzzle for another attempt. History is cumulative
// across attempts.
func (e *GameEngine) Reset(now time.Time) *Outcome {
	e.attempt++
	out := e.level.Reset(e.rng, now)
	e.message = out.Message
	log.WithFields(logrus.Fields{
		"kind":    e.config.Kind,
		"config":  e.config.Name,
		"attempt": e.attempt,
	}).Debug("level reset")
	return out
}

// PendingEffects returns the effects the level currently waits on. Callers
// arm them after creating or restoring an engine.
func (e *GameEngine) PendingEffects(now time.Time) []Effect {
	if e.initial != nil {
		effects := e.initial
		e.initial = nil
		return effects
	}
	return e.level.Resume(now)
}

// Act applies a player action and records it in the history.
func (e *GameEngine) Act(action Action, now time.Time) (*Outcome, error) {
	e.initial = nil
	entry := HistoryEntry{
		Action:     action,
		Timestamp:  now.Unix(),
		MoveNumber: len(e.history) + 1,
		Attempt:    e.attempt,
	}

	if e.level.Over() {
		entry.Error = ErrLevelComplete.Error()
		e.history = append(e.history, entry)
		return nil, ErrLevelComplete
	}
	out, err := e.level.Act(action, now)
	if err != nil {
		entry.Error = err.Error()
		e.history = append(e.history, entry)
		return nil, err
	}
	entry.Accepted = out.Accepted
	e.history = append(e.history, entry)
	if out.Message != "" {
		e.message = out.Message
	}
	return out, nil
}

// Expire runs a delayed effect.
func (e *GameEngine) Expire(effect Effect, now time.Time) (*Outcome, error) {
	out, err := e.level.Expire(effect, now)
	if err != nil {
		return nil, err
	}
	if out.Message != "" {
		e.message = out.Message
	}
	return out, nil
}

// GetState returns the client view of the engine.
func (e *GameEngine) GetState() *GameState {
	return &GameState{
		Kind:         e.config.Kind,
		ConfigName:   e.config.Name,
		Seed:         e.seed,
		Level:        e.level.State(),
		Completed:    e.level.Completed(),
		GameOver:     e.level.Over(),
		Stars:        e.level.Stars(),
		Message:      e.message,
		TotalActions: len(e.history),
		Attempt:      e.attempt,
	}
}

// IsCompleted reports whether the level was won.
func (e *GameEngine) IsCompleted() bool {
	return e.level.Completed()
}

// IsGameOver reports whether the level accepts no more actions.
func (e *GameEngine) IsGameOver() bool {
	return e.level.Over()
}

// GetStars returns the star rating, zero until the level is won.
func (e *GameEngine) GetStars() int {
	return e.level.Stars()
}

// GetConfig returns the level configuration.
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// Seed returns the seed the engine was created with.
func (e *GameEngine) Seed() int64 {
	return e.seed
}

// GetHistory returns every action sent to the engine.
func (e *GameEngine) GetHistory() []HistoryEntry {
	out := make([]HistoryEntry, len(e.history))
	copy(out, e.history)
	return out
}

// GetLastAction returns the last action, or nil if none.
func (e *GameEngine) GetLastAction() *HistoryEntry {
	if len(e.history) == 0 {
		return nil
	}
	last := e.history[len(e.history)-1]
	return &last
}
