package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/emilyyejia/Pattern-and-Algebra/game/engine"
	"github.com/emilyyejia/Pattern-and-Algebra/game/timer"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configID string, seed int64) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Act(ctx context.Context, sessionID string, action engine.Action) (*ActionResult, error)
	Reset(ctx context.Context, sessionID string) (*ActionResult, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)
	Snapshot(ctx context.Context, sessionID string) (*engine.Snapshot, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configID string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configID string, config *engine.GameConfig) error

	// Stateless generators
	GeneratePlacement(ctx context.Context, req PlacementRequest) (*PlacementResult, error)
	GeneratePath(ctx context.Context, req PathRequest) (*PathResult, error)
	CheckTrap(ctx context.Context, req TrapRequest) (*TrapResult, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, configID string, config *engine.GameConfig, seed int64) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles game configuration loading
type ConfigManager interface {
	LoadConfig(id string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	DefaultID() string
	SaveConfig(id string, config *engine.GameConfig) error
}

// Notifier receives state changes that happen outside a request, such as
// delayed effects firing.
type Notifier interface {
	BroadcastToSession(sessionID string, state *engine.GameState)
	BroadcastEvent(sessionID, event string, data any)
}

// Session represents an active game session. Callers hold the session lock
// while touching Engine; timer callbacks take the same lock.
type Session struct {
	ID             string
	ConfigID       string
	Engine         *engine.GameEngine
	Config         *engine.GameConfig
	Timers         *timer.Scheduler
	CreatedAt      time.Time

	// lastAccess is unix nanoseconds; it is touched without the session
	// lock.
	lastAccess atomic.Int64
	mu         sync.Mutex
	// armed is set once the engine's pending effects have been scheduled.
	armed bool
}

// NewSession wraps an engine in a session with its own timer scheduler.
func NewSession(id, configID string, eng *engine.GameEngine, now time.Time) *Session {
	s := &Session{
		ID:        id,
		ConfigID:  configID,
		Engine:    eng,
		Config:    eng.GetConfig(),
		Timers:    timer.NewScheduler(),
		CreatedAt: now,
	}
	s.Touch(now)
	return s
}

// Touch records an access.
func (s *Session) Touch(now time.Time) {
	s.lastAccess.Store(now.UnixNano())
}

// LastAccessedAt returns the time of the last access.
func (s *Session) LastAccessedAt() time.Time {
	return time.Unix(0, s.lastAccess.Load())
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// Close stops the session's timers. A closed session schedules nothing.
func (s *Session) Close() {
	s.Timers.Stop()
}
