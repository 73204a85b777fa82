package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/emilyyejia/Pattern-and-Algebra/game/engine"
)

var log = logrus.WithField("component", "service")

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	notifier Notifier
	now      func() time.Time
}

// Option configures the game service.
type Option func(*gameServiceImpl)

// WithNotifier pushes timer-driven changes to n.
func WithNotifier(n Notifier) Option {
	return func(s *gameServiceImpl) { s.notifier = n }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *gameServiceImpl) { s.now = now }
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configID string, seed int64) (*SessionInfo, error) {
	var config *engine.GameConfig
	var err error
	if configID != "" {
		config, err = s.configs.LoadConfig(configID)
		if err != nil {
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("%w: '%s'. Available configs: %v", ErrConfigNotFound, configID, configIDs)
				}
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configID, err)
		}
	} else {
		configID = s.configs.DefaultID()
		config = s.configs.GetDefault()
	}

	// Let the session manager generate the ID
	sess, err := s.sessions.Create("", configID, config, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	sess.Lock()
	defer sess.Unlock()
	s.ensureArmed(sess)

	log.WithFields(logrus.Fields{
		"session": sess.ID,
		"config":  configID,
		"seed":    sess.Engine.Seed(),
	}).Info("session created")
	return s.info(sess), nil
}

// session loads a session and arms its timers on first use, which covers
// sessions restored from disk.
func (s *gameServiceImpl) session(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.UpdateLastAccessed(sess.ID); err != nil {
		log.WithError(err).WithField("session", sess.ID).Debug("failed to touch session")
	}
	return sess, nil
}

func (s *gameServiceImpl) ensureArmed(sess *Session) {
	if sess.armed {
		return
	}
	sess.armed = true
	s.arm(sess, sess.Engine.PendingEffects(s.now()))
}

func (s *gameServiceImpl) info(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigID:       sess.ConfigID,
		ConfigName:     sess.Config.Name,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt(),
		GameState:      sess.Engine.GetState(),
		GameConfig:     sess.Config,
		PendingTimers:  sess.Timers.Pending(),
	}
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	sess.Lock()
	defer sess.Unlock()
	s.ensureArmed(sess)
	return s.info(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		sess.Lock()
		result = append(result, s.info(sess))
		sess.Unlock()
	}
	return result, nil
}

// DeleteSession removes a session and stops its timers
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	sess.Lock()
	sess.Close()
	sess.Unlock()
	return s.sessions.Delete(sess.ID)
}

// Act applies a player action
func (s *gameServiceImpl) Act(ctx context.Context, sessionID string, action engine.Action) (*ActionResult, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	sess.Lock()
	defer sess.Unlock()
	s.ensureArmed(sess)

	out, err := sess.Engine.Act(action, s.now())
	// Rejected actions are still recorded in the history.
	s.persist(sess)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action.Type, err)
	}

	s.arm(sess, out.Effects)
	return &ActionResult{Outcome: out, GameState: sess.Engine.GetState()}, nil
}

// Reset lays out a fresh puzzle, dropping every pending timer
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*ActionResult, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	sess.Lock()
	defer sess.Unlock()

	dropped := sess.Timers.CancelAll()
	out := sess.Engine.Reset(s.now())
	sess.armed = true
	s.arm(sess, out.Effects)
	s.persist(sess)

	log.WithFields(logrus.Fields{
		"session":        sess.ID,
		"timers_dropped": dropped,
	}).Debug("session reset")
	return &ActionResult{Outcome: out, GameState: sess.Engine.GetState()}, nil
}

// GetGameState returns the current state of a session
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	sess.Lock()
	defer sess.Unlock()
	s.ensureArmed(sess)
	return sess.Engine.GetState(), nil
}

// Snapshot captures a session's engine
func (s *gameServiceImpl) Snapshot(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	sess.Lock()
	defer sess.Unlock()
	return sess.Engine.Snapshot()
}

// GetHistory returns paginated action history
func (s *gameServiceImpl) GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	sess.Lock()
	history := sess.Engine.GetHistory()
	sess.Unlock()

	return paginate(history, opts), nil
}

func paginate(history []engine.HistoryEntry, opts HistoryOptions) *HistoryResponse {
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	actions := []engine.HistoryEntry{}
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			actions = append(actions, history[i])
		}
	} else if start < total {
		actions = append(actions, history[start:end]...)
	}

	return &HistoryResponse{
		Actions:      actions,
		TotalActions: total,
		Page:         opts.Page,
		PageSize:     opts.Limit,
		TotalPages:   totalPages,
		HasNext:      opts.Page < totalPages,
		HasPrevious:  opts.Page > 1,
	}
}

// ListConfigs returns available level configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific level configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configID string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configID)
}

// SaveConfig saves a level configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configID string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configID, config)
}

// persist must be called with the session locked.
func (s *gameServiceImpl) persist(sess *Session) {
	if err := s.sessions.Save(sess.ID); err != nil {
		log.WithError(err).WithField("session", sess.ID).Warn("failed to persist session")
	}
}
