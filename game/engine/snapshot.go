package engine

import (
	"encoding/json"
	"fmt"
	"math/rand"
)

// Snapshot is everything needed to resume an engine: the config it was
// built from and the level's own state. Pending effects are not stored;
// PendingEffects re-derives them after Restore.
type Snapshot struct {
	Kind    Kind            `json:"kind"`
	Config  *GameConfig     `json:"config"`
	Seed    int64           `json:"seed"`
	Attempt int             `json:"attempt"`
	Message string          `json:"message"`
	History []HistoryEntry  `json:"history"`
	State   json.RawMessage `json:"state"`
}

// Snapshot captures the engine.
func (e *GameEngine) Snapshot() (*Snapshot, error) {
	state, err := e.level.save()
	if err != nil {
		return nil, fmt.Errorf("saving %s level: %w", e.config.Kind, err)
	}
	return &Snapshot{
		Kind:    e.config.Kind,
		Config:  e.config,
		Seed:    e.seed,
		Attempt: e.attempt,
		Message: e.message,
		History: e.GetHistory(),
		State:   state,
	}, nil
}

// Restore rebuilds an engine from a snapshot. Randomness after a restore
// is seeded from the snapshot seed and the history length, so it differs
// from the run that was saved.
func Restore(s *Snapshot) (*GameEngine, error) {
	if s == nil {
		return nil, fmt.Errorf("restore: snapshot is nil")
	}
	if err := ValidateGameConfig(s.Config); err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	if s.Kind != s.Config.Kind {
		return nil, fmt.Errorf("restore: snapshot kind %q does not match config kind %q", s.Kind, s.Config.Kind)
	}
	level, err := newLevel(s.Config)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(s.Seed + int64(len(s.History))))
	if err := level.load(s.State, rng); err != nil {
		return nil, fmt.Errorf("restore: loading %s level: %w", s.Kind, err)
	}

	history := append([]HistoryEntry{}, s.History...)
	return &GameEngine{
		config:  s.Config,
		level:   level,
		seed:    s.Seed,
		rng:     rng,
		message: s.Message,
		attempt: s.Attempt,
		history: history,
	}, nil
}
