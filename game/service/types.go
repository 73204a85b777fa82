package service

import (
	"time"

	"github.com/emilyyejia/Pattern-and-Algebra/game/engine"
	"github.com/emilyyejia/Pattern-and-Algebra/game/grid"
	"github.com/emilyyejia/Pattern-and-Algebra/game/path"
	"github.com/emilyyejia/Pattern-and-Algebra/game/placement"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigID       string             `json:"config_id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
	PendingTimers  []string           `json:"pending_timers,omitempty"`
}

// ActionResult is what a player action or reset did and the state after it.
type ActionResult struct {
	Outcome   *engine.Outcome   `json:"outcome"`
	GameState *engine.GameState `json:"game_state"`
}

// EffectEvent is pushed to clients when a delayed effect fires.
type EffectEvent struct {
	Effect  engine.Effect     `json:"effect"`
	Outcome *engine.Outcome   `json:"outcome"`
	State   *engine.GameState `json:"game_state"`
}

// HistoryOptions configures action history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated action history
type HistoryResponse struct {
	Actions      []engine.HistoryEntry `json:"actions"`
	TotalActions int                   `json:"total_actions"`
	Page         int                   `json:"page"`
	PageSize     int                   `json:"page_size"`
	TotalPages   int                   `json:"total_pages"`
	HasNext      bool                  `json:"has_next"`
	HasPrevious  bool                  `json:"has_previous"`
}

// ConfigInfo provides information about a level configuration
type ConfigInfo struct {
	Filename    string      `json:"filename,omitempty"`
	ConfigID    string      `json:"config_id"` // The identifier to use for session creation
	Name        string      `json:"name"`      // Display name
	Description string      `json:"description"`
	Kind        engine.Kind `json:"kind"`
	Rows        int         `json:"rows"`
	Cols        int         `json:"cols"`
	Builtin     bool        `json:"builtin"`
}

// PlacementRequest asks for a one-off placement pass.
type PlacementRequest struct {
	Rows int   `json:"rows"`
	Cols int   `json:"cols"`
	Seed int64 `json:"seed,omitempty"`
	// Templates to place. When empty, Count anonymous points are placed.
	Templates []placement.Template `json:"templates,omitempty"`
	Count     int                  `json:"count,omitempty"`
	// Candidates is one of inner, lattice, interior or cells.
	Candidates string `json:"candidates,omitempty"`
	// Buffer is one of point, corner or neighbor.
	Buffer  string            `json:"buffer,omitempty"`
	Exclude []grid.Coordinate `json:"exclude,omitempty"`
}

// PlacementResult lists the placed entities.
type PlacementResult struct {
	Seed      int64                `json:"seed"`
	Landmarks []placement.Landmark `json:"landmarks"`
}

// PathRequest asks for a one-off instruction path.
type PathRequest struct {
	Rows      int              `json:"rows"`
	Cols      int              `json:"cols"`
	Seed      int64            `json:"seed,omitempty"`
	Scale     float64          `json:"scale"`
	StepCount int              `json:"step_count"`
	Start     *grid.Coordinate `json:"start,omitempty"`
	// Landmarks are used as given. When empty, LandmarkCount landmarks are
	// placed on inner intersections first.
	Landmarks     []placement.Landmark `json:"landmarks,omitempty"`
	LandmarkCount int                  `json:"landmark_count,omitempty"`
}

// PathResult is a generated path with each instruction's target.
type PathResult struct {
	Seed         int64                `json:"seed"`
	Start        grid.Coordinate      `json:"start"`
	Scale        float64              `json:"scale"`
	Landmarks    []placement.Landmark `json:"landmarks"`
	Instructions []path.Instruction   `json:"instructions"`
	Targets      []grid.Coordinate    `json:"targets"`
}

// TrapRequest asks whether goal is still reachable.
type TrapRequest struct {
	Rows     int         `json:"rows"`
	Cols     int         `json:"cols"`
	From     grid.Cell   `json:"from"`
	Goal     grid.Cell   `json:"goal"`
	Barriers []grid.Cell `json:"barriers,omitempty"`
}

// TrapResult reports reachability of the goal.
type TrapResult struct {
	Trapped   bool `json:"trapped"`
	Distance  int  `json:"distance,omitempty"`
	Reachable int  `json:"reachable"`
}
