package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilyyejia/Pattern-and-Algebra/game/engine"
	"github.com/emilyyejia/Pattern-and-Algebra/game/grid"
	"github.com/emilyyejia/Pattern-and-Algebra/game/service"
)

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	mu       sync.Mutex
	sessions map[string]*service.Session
	saves    int
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{sessions: make(map[string]*service.Session)}
}

func (m *MockSessionManager) Create(id, configID string, config *engine.GameConfig, seed int64) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}
	if _, exists := m.sessions[id]; exists {
		return nil, service.ErrSessionAlreadyExists
	}
	eng, err := engine.NewEngine(config, seed)
	if err != nil {
		return nil, err
	}
	sess := service.NewSession(id, configID, eng, time.Now())
	m.sessions[id] = sess
	return sess, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, exists := m.sessions[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", service.ErrSessionNotFound, id)
	}
	return sess, nil
}

func (m *MockSessionManager) List() []*service.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*service.Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		result = append(result, sess)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[id]; !exists {
		return service.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	sess, err := m.Get(id)
	if err != nil {
		return err
	}
	sess.Touch(time.Now())
	return nil
}

func (m *MockSessionManager) Save(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	return nil
}

func (m *MockSessionManager) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// MockConfigManager serves the built-in levels plus overrides.
type MockConfigManager struct {
	configs map[string]*engine.GameConfig
}

func NewMockConfigManager() *MockConfigManager {
	configs := engine.BuiltinConfigs()
	fast := engine.DefaultConfig(engine.KindFrog)
	fast.Timings.FlySpawnMS = 10
	fast.Timings.FlyLifetimeMS = 60_000
	configs["fast-frog"] = fast
	return &MockConfigManager{configs: configs}
}

func (m *MockConfigManager) LoadConfig(id string) (*engine.GameConfig, error) {
	config, ok := m.configs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", service.ErrConfigNotFound, id)
	}
	return config, nil
}

func (m *MockConfigManager) ListConfigs() ([]*service.ConfigInfo, error) {
	var out []*service.ConfigInfo
	for id, config := range m.configs {
		out = append(out, &service.ConfigInfo{ConfigID: id, Name: config.Name, Kind: config.Kind})
	}
	return out, nil
}

func (m *MockConfigManager) GetDefault() *engine.GameConfig {
	return m.configs["scale-blocks"]
}

func (m *MockConfigManager) DefaultID() string {
	return "scale-blocks"
}

func (m *MockConfigManager) SaveConfig(id string, config *engine.GameConfig) error {
	if err := engine.ValidateGameConfig(config); err != nil {
		return fmt.Errorf("%w: %v", service.ErrInvalidConfig, err)
	}
	m.configs[id] = config
	return nil
}

type recordedEvent struct {
	session string
	event   string
	data    any
}

// recordingNotifier collects pushes from timer callbacks.
type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
	states int
}

func (n *recordingNotifier) BroadcastToSession(sessionID string, state *engine.GameState) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.states++
}

func (n *recordingNotifier) BroadcastEvent(sessionID, event string, data any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{sessionID, event, data})
}

func (n *recordingNotifier) Events() []recordedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]recordedEvent(nil), n.events...)
}

func newTestService(opts ...service.Option) (service.GameService, *MockSessionManager) {
	sessions := NewMockSessionManager()
	return service.NewGameService(sessions, NewMockConfigManager(), opts...), sessions
}

func TestGameService_CreateSession(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	t.Run("default config", func(t *testing.T) {
		info, err := svc.CreateSession(ctx, "", 5)
		require.NoError(t, err)
		assert.Equal(t, "scale-blocks", info.ConfigID)
		assert.Equal(t, engine.KindScaleBlocks, info.GameState.Kind)
		assert.Equal(t, int64(5), info.GameState.Seed)
		assert.NotNil(t, info.GameConfig)
	})

	t.Run("named config", func(t *testing.T) {
		info, err := svc.CreateSession(ctx, "treasure", 1)
		require.NoError(t, err)
		assert.Equal(t, "treasure", info.ConfigID)
		assert.Equal(t, engine.KindTreasure, info.GameState.Kind)
	})

	t.Run("unknown config lists the alternatives", func(t *testing.T) {
		_, err := svc.CreateSession(ctx, "chess", 1)
		require.ErrorIs(t, err, service.ErrConfigNotFound)
		assert.Contains(t, err.Error(), "Available configs")
		assert.Contains(t, err.Error(), "frog")
	})

	t.Run("arms initial timers", func(t *testing.T) {
		info, err := svc.CreateSession(ctx, "frog", 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"fly"}, info.PendingTimers)
	})
}

func TestGameService_GetAndListSessions(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.CreateSession(ctx, "treasure", 1)
	require.NoError(t, err)
	_, err = svc.CreateSession(ctx, "frog", 1)
	require.NoError(t, err)

	got, err := svc.GetSession(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.GameState.Level, got.GameState.Level)

	_, err = svc.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, service.ErrSessionNotFound)

	list, err := svc.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestGameService_Act(t *testing.T) {
	svc, sessions := newTestService()
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "treasure", 3)
	require.NoError(t, err)

	result, err := svc.Act(ctx, info.ID, engine.Action{Type: engine.ActionMove, Direction: grid.North})
	require.NoError(t, err)
	assert.Equal(t, 1, result.GameState.TotalActions)
	assert.NotNil(t, result.Outcome)

	_, err = svc.Act(ctx, info.ID, engine.Action{Type: engine.ActionClick})
	assert.ErrorIs(t, err, engine.ErrInvalidAction)

	state, err := svc.GetGameState(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, state.TotalActions, "rejected actions are recorded")
	assert.GreaterOrEqual(t, sessions.Saves(), 2)

	_, err = svc.Act(ctx, "missing", engine.Action{Type: engine.ActionMove})
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
}

func TestGameService_TimersFireAndNotify(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, _ := newTestService(service.WithNotifier(notifier))
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "fast-frog", 1)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		for _, ev := range notifier.Events() {
			if ev.session == info.ID && ev.event == "effect" {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)

	ev := notifier.Events()[0]
	effect, ok := ev.data.(*service.EffectEvent)
	require.True(t, ok)
	assert.Equal(t, engine.EffectFlySpawn, effect.Effect.Kind)
	assert.True(t, effect.Outcome.Accepted)

	got, err := svc.GetSession(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"fly"}, got.PendingTimers, "fly lifetime should be armed")
}

func TestGameService_ResetCancelsTimers(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, sessions := newTestService(service.WithNotifier(notifier))
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "scale-route", 1)
	require.NoError(t, err)
	sess, err := sessions.Get(info.ID)
	require.NoError(t, err)

	sess.Lock()
	sess.Timers.Schedule("arrow:stale", time.Hour, nil)
	sess.Unlock()

	result, err := svc.Reset(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.GameState.Attempt)
	assert.Empty(t, sess.Timers.Pending())
	assert.Empty(t, notifier.Events())
}

func TestGameService_DeleteSession(t *testing.T) {
	svc, sessions := newTestService()
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "frog", 1)
	require.NoError(t, err)
	sess, err := sessions.Get(info.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSession(ctx, info.ID))
	assert.Empty(t, sess.Timers.Pending())
	assert.False(t, sess.Timers.Schedule("fly", time.Millisecond, nil))

	assert.ErrorIs(t, svc.DeleteSession(ctx, info.ID), service.ErrSessionNotFound)
}

func TestGameService_Snapshot(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "mystery-points", 11)
	require.NoError(t, err)

	snap, err := svc.Snapshot(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, engine.KindMysteryPoints, snap.Kind)
	assert.Equal(t, int64(11), snap.Seed)

	restored, err := engine.Restore(snap)
	require.NoError(t, err)
	want, err := json.Marshal(info.GameState.Level)
	require.NoError(t, err)
	got, err := json.Marshal(restored.GetState().Level)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))
}

func TestGameService_GetHistory(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "treasure", 3)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		// Alternate so the explorer never walks far.
		dir := grid.North
		if i%2 == 1 {
			dir = grid.South
		}
		_, err := svc.Act(ctx, info.ID, engine.Action{Type: engine.ActionMove, Direction: dir})
		require.NoError(t, err)
	}

	tests := []struct {
		name      string
		opts      service.HistoryOptions
		wantMoves []int
		hasNext   bool
		hasPrev   bool
		pages     int
	}{
		{"defaults are newest first", service.HistoryOptions{}, []int{5, 4, 3, 2, 1}, false, false, 1},
		{"ascending page 1", service.HistoryOptions{Limit: 2, Order: "asc"}, []int{1, 2}, true, false, 3},
		{"ascending page 3", service.HistoryOptions{Page: 3, Limit: 2, Order: "asc"}, []int{5}, false, true, 3},
		{"descending page 2", service.HistoryOptions{Page: 2, Limit: 2}, []int{3, 2}, true, true, 3},
		{"past the end", service.HistoryOptions{Page: 9, Limit: 2, Order: "asc"}, []int{}, false, true, 3},
		{"limit is capped", service.HistoryOptions{Limit: 1000}, []int{5, 4, 3, 2, 1}, false, false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history, err := svc.GetHistory(ctx, info.ID, tt.opts)
			require.NoError(t, err)

			moves := []int{}
			for _, entry := range history.Actions {
				moves = append(moves, entry.MoveNumber)
			}
			assert.Equal(t, tt.wantMoves, moves)
			assert.Equal(t, 5, history.TotalActions)
			assert.Equal(t, tt.hasNext, history.HasNext)
			assert.Equal(t, tt.hasPrev, history.HasPrevious)
			assert.Equal(t, tt.pages, history.TotalPages)
			assert.LessOrEqual(t, history.PageSize, 100)
		})
	}
}

func TestGameService_Configs(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	configs, err := svc.ListConfigs(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, configs)

	config, err := svc.LoadConfig(ctx, "frog")
	require.NoError(t, err)
	assert.Equal(t, engine.KindFrog, config.Kind)

	bad := engine.DefaultConfig(engine.KindFrog)
	bad.Rows = 100
	assert.ErrorIs(t, svc.SaveConfig(ctx, "bad", bad), service.ErrInvalidConfig)
}

func TestGameService_ConcurrentActions(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "fast-frog", 1)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			dirs := []grid.Direction{grid.East, grid.South, grid.West, grid.North}
			svc.Act(ctx, info.ID, engine.Action{Type: engine.ActionMove, Direction: dirs[n%4]})
			svc.GetGameState(ctx, info.ID)
		}(i)
	}
	wg.Wait()

	state, err := svc.GetGameState(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, state.TotalActions)
}
