package engine

import (
	"errors"
	"time"

	"github.com/emilyyejia/Pattern-and-Algebra/game/drop"
	"github.com/emilyyejia/Pattern-and-Algebra/game/grid"
	"github.com/emilyyejia/Pattern-and-Algebra/game/placement"
	"github.com/emilyyejia/Pattern-and-Algebra/game/scoring"
)

var (
	// ErrInvalidAction is returned for actions a level cannot take right now.
	ErrInvalidAction = errors.New("invalid action")
	// ErrLevelComplete is returned for actions sent after the level ended.
	ErrLevelComplete = errors.New("level already complete")
	// ErrUnknownKind is returned for configs naming no known game.
	ErrUnknownKind = errors.New("unknown game kind")
)

// Kind names a game.
type Kind string

const (
	KindScaleBlocks   Kind = "scale-blocks"
	KindScaleRoute    Kind = "scale-route"
	KindLandmarkNav   Kind = "landmark-nav"
	KindMysteryPoints Kind = "mystery-points"
	KindFrog          Kind = "frog"
	KindTreasure      Kind = "treasure"
)

// Kinds lists every game kind.
var Kinds = []Kind{KindScaleBlocks, KindScaleRoute, KindLandmarkNav, KindMysteryPoints, KindFrog, KindTreasure}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

const (
	MinGridSize = 2
	MaxGridSize = 20
)

// GameConfig is a level definition loaded from JSON.
type GameConfig struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Kind        Kind   `json:"kind"`
	Rows        int    `json:"rows"`
	Cols        int    `json:"cols"`

	// Scale is metres per grid unit. Scale blocks and the route game pick
	// from Scales instead.
	Scale  float64   `json:"scale,omitempty"`
	Scales []float64 `json:"scales,omitempty"`

	// Variant 2 of scale blocks asks for the distance equation.
	Variant   int     `json:"variant,omitempty"`
	SubLevels int     `json:"sub_levels,omitempty"`
	StepCount int     `json:"step_count,omitempty"`
	Tolerance float64 `json:"tolerance,omitempty"`

	PenaltySeconds float64 `json:"penalty_seconds,omitempty"`
	MaxFlies       int     `json:"max_flies,omitempty"`
	RotateAfter    int     `json:"rotate_after,omitempty"`

	Player        *placement.Template  `json:"player,omitempty"`
	Landmarks     []placement.Template `json:"landmarks,omitempty"`
	MysteryPoints []placement.Template `json:"mystery_points,omitempty"`
	Schedule      []drop.Trip          `json:"schedule,omitempty"`
	Obstacles     []grid.Cell          `json:"obstacles,omitempty"`

	// Thresholds rate the level. For the frog game they are the minimum
	// number of flies eaten.
	Thresholds scoring.Thresholds `json:"thresholds"`
	Timings    Timings            `json:"timings"`
	Messages   Messages           `json:"messages"`
}

// Grid returns the config's grid spec.
func (c *GameConfig) Grid() grid.Spec {
	return grid.Spec{Rows: c.Rows, Cols: c.Cols}
}

// Timings are the delays of a level's effects in milliseconds.
type Timings struct {
	TransientMS   int `json:"transient_ms,omitempty"`
	AdvanceMS     int `json:"advance_ms,omitempty"`
	AnimationMS   int `json:"animation_ms,omitempty"`
	SnapBackMS    int `json:"snap_back_ms,omitempty"`
	TrapGraceMS   int `json:"trap_grace_ms,omitempty"`
	FlySpawnMS    int `json:"fly_spawn_ms,omitempty"`
	FlyLifetimeMS int `json:"fly_lifetime_ms,omitempty"`
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// Messages shown to the player.
type Messages struct {
	Welcome  string `json:"welcome"`
	Complete string `json:"complete"`
	Trapped  string `json:"trapped,omitempty"`
}

// ActionType names what the player did.
type ActionType string

const (
	ActionDrop   ActionType = "drop"
	ActionArrow  ActionType = "arrow"
	ActionAnswer ActionType = "answer"
	ActionClick  ActionType = "click"
	ActionSelect ActionType = "select"
	ActionMove   ActionType = "move"
)

// Action is a single player input. Only the fields the action type needs
// are read.
type Action struct {
	Type      ActionType     `json:"type"`
	Direction grid.Direction `json:"direction,omitempty"`
	// Distance in metres, for mystery-point moves.
	Distance float64 `json:"distance,omitempty"`
	TargetID string  `json:"target_id,omitempty"`

	// Drops give either a screen pointer with the board geometry or a
	// position already in grid coordinates.
	At       *grid.Coordinate `json:"at,omitempty"`
	Pointer  *drop.Point      `json:"pointer,omitempty"`
	Geometry *drop.Geometry   `json:"geometry,omitempty"`
	Item     *drop.Item       `json:"item,omitempty"`

	Answer *Answer `json:"answer,omitempty"`
}

// Answer is a submitted distance calculation.
type Answer struct {
	Count float64 `json:"count,omitempty"`
	Scale float64 `json:"scale,omitempty"`
	Total float64 `json:"total"`
}

// Outcome is what an action or effect did. Verdicts are reported here,
// never as errors.
type Outcome struct {
	Accepted bool     `json:"accepted"`
	Message  string   `json:"message,omitempty"`
	Events   []Event  `json:"events,omitempty"`
	Effects  []Effect `json:"effects,omitempty"`
}

func (o *Outcome) emit(t EventType, data any) {
	o.Events = append(o.Events, Event{Type: t, Data: data})
}

func (o *Outcome) schedule(kind EffectKind, key, target string, delay time.Duration) {
	o.Effects = append(o.Effects, Effect{Kind: kind, Key: key, Target: target, Delay: delay})
}

// EventType names a change clients should render.
type EventType string

const (
	EventBlockPlaced   EventType = "block_placed"
	EventDropRejected  EventType = "drop_rejected"
	EventArrowPlaced   EventType = "arrow_placed"
	EventPieceExpired  EventType = "piece_expired"
	EventTripComplete  EventType = "trip_complete"
	EventAnswerChecked EventType = "answer_checked"
	EventStageComplete EventType = "stage_complete"
	EventStageStarted  EventType = "stage_started"
	EventLevelComplete EventType = "level_complete"
	EventMoved         EventType = "moved"
	EventBlocked       EventType = "blocked"
	EventPenalty       EventType = "penalty"
	EventSelected      EventType = "selected"
	EventRevealed      EventType = "revealed"
	EventSnappedBack   EventType = "snapped_back"
	EventSettled       EventType = "settled"
	EventTrapWarning   EventType = "trap_warning"
	EventTrapped       EventType = "trapped"
	EventFlySpawned    EventType = "fly_spawned"
	EventFlyEaten      EventType = "fly_eaten"
	EventFlyGone       EventType = "fly_gone"
	EventMapRotated    EventType = "map_rotated"
)

// Event is one change caused by an action or effect.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data,omitempty"`
}

// EffectKind names a delayed effect.
type EffectKind string

const (
	EffectExpire    EffectKind = "expire"
	EffectAdvance   EffectKind = "advance"
	EffectSettle    EffectKind = "settle"
	EffectSnapBack  EffectKind = "snap_back"
	EffectTrap      EffectKind = "trap"
	EffectFlySpawn  EffectKind = "fly_spawn"
	EffectFlyExpire EffectKind = "fly_expire"
)

// Effect asks the caller to call Expire with it after Delay. Scheduling an
// effect replaces any pending effect with the same Key.
type Effect struct {
	Kind   EffectKind    `json:"kind"`
	Key    string        `json:"key"`
	Target string        `json:"target,omitempty"`
	Delay  time.Duration `json:"delay"`
}

// GameState is the client view of an engine.
type GameState struct {
	Kind         Kind   `json:"kind"`
	ConfigName   string `json:"config_name"`
	Seed         int64  `json:"seed"`
	Level        any    `json:"level"`
	Completed    bool   `json:"completed"`
	GameOver     bool   `json:"game_over"`
	Stars        int    `json:"stars"`
	Message      string `json:"message"`
	TotalActions int    `json:"total_actions"`
	Attempt      int    `json:"attempt"`
}

// HistoryEntry records one action sent to the engine.
type HistoryEntry struct {
	Action     Action `json:"action"`
	Accepted   bool   `json:"accepted"`
	Error      string `json:"error,omitempty"`
	Timestamp  int64  `json:"timestamp"`
	MoveNumber int    `json:"move_number"`
	Attempt    int    `json:"attempt"`
}
