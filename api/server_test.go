package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilyyejia/Pattern-and-Algebra/game/engine"
	"github.com/emilyyejia/Pattern-and-Algebra/game/grid"
	"github.com/emilyyejia/Pattern-and-Algebra/game/service"
	"github.com/emilyyejia/Pattern-and-Algebra/game/session"
	"github.com/emilyyejia/Pattern-and-Algebra/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	// Session Management
	CreateSessionFunc func(ctx context.Context, configID string, seed int64) (*service.SessionInfo, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, sessionID string) error

	// Game Operations
	ActFunc   func(ctx context.Context, sessionID string, action engine.Action) (*service.ActionResult, error)
	ResetFunc func(ctx context.Context, sessionID string) (*service.ActionResult, error)

	// Game State
	GetGameStateFunc func(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetHistoryFunc   func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error)
	SnapshotFunc     func(ctx context.Context, sessionID string) (*engine.Snapshot, error)

	// Configuration
	ListConfigsFunc func(ctx context.Context) ([]*service.ConfigInfo, error)
	LoadConfigFunc  func(ctx context.Context, configID string) (*engine.GameConfig, error)
	SaveConfigFunc  func(ctx context.Context, configID string, config *engine.GameConfig) error

	// Generators
	GeneratePlacementFunc func(ctx context.Context, req service.PlacementRequest) (*service.PlacementResult, error)
	GeneratePathFunc      func(ctx context.Context, req service.PathRequest) (*service.PathResult, error)
	CheckTrapFunc         func(ctx context.Context, req service.TrapRequest) (*service.TrapResult, error)
}

func (m *MockGameService) CreateSession(ctx context.Context, configID string, seed int64) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, configID, seed)
	}
	return &service.SessionInfo{ID: "test-session", ConfigID: configID, CreatedAt: time.Now()}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID, ConfigID: "test-config", CreatedAt: time.Now()}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockGameService) Act(ctx context.Context, sessionID string, action engine.Action) (*service.ActionResult, error) {
	if m.ActFunc != nil {
		return m.ActFunc(ctx, sessionID, action)
	}
	return &service.ActionResult{Outcome: &engine.Outcome{Accepted: true}, GameState: &engine.GameState{}}, nil
}

func (m *MockGameService) Reset(ctx context.Context, sessionID string) (*service.ActionResult, error) {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, sessionID)
	}
	return &service.ActionResult{Outcome: &engine.Outcome{Accepted: true}, GameState: &engine.GameState{}}, nil
}

func (m *MockGameService) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

func (m *MockGameService) GetHistory(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	if m.GetHistoryFunc != nil {
		return m.GetHistoryFunc(ctx, sessionID, opts)
	}
	return &service.HistoryResponse{
		Actions:    []engine.HistoryEntry{},
		Page:       opts.Page,
		PageSize:   opts.Limit,
		TotalPages: 1,
	}, nil
}

func (m *MockGameService) Snapshot(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	if m.SnapshotFunc != nil {
		return m.SnapshotFunc(ctx, sessionID)
	}
	return &engine.Snapshot{Kind: engine.KindTreasure}, nil
}

func (m *MockGameService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	if m.ListConfigsFunc != nil {
		return m.ListConfigsFunc(ctx)
	}
	return []*service.ConfigInfo{}, nil
}

func (m *MockGameService) LoadConfig(ctx context.Context, configID string) (*engine.GameConfig, error) {
	if m.LoadConfigFunc != nil {
		return m.LoadConfigFunc(ctx, configID)
	}
	return &engine.GameConfig{Name: configID, Description: "Test config"}, nil
}

func (m *MockGameService) SaveConfig(ctx context.Context, configID string, config *engine.GameConfig) error {
	if m.SaveConfigFunc != nil {
		return m.SaveConfigFunc(ctx, configID, config)
	}
	return nil
}

func (m *MockGameService) GeneratePlacement(ctx context.Context, req service.PlacementRequest) (*service.PlacementResult, error) {
	if m.GeneratePlacementFunc != nil {
		return m.GeneratePlacementFunc(ctx, req)
	}
	return &service.PlacementResult{Seed: req.Seed}, nil
}

func (m *MockGameService) GeneratePath(ctx context.Context, req service.PathRequest) (*service.PathResult, error) {
	if m.GeneratePathFunc != nil {
		return m.GeneratePathFunc(ctx, req)
	}
	return &service.PathResult{Seed: req.Seed, Scale: req.Scale}, nil
}

func (m *MockGameService) CheckTrap(ctx context.Context, req service.TrapRequest) (*service.TrapResult, error) {
	if m.CheckTrapFunc != nil {
		return m.CheckTrapFunc(ctx, req)
	}
	return &service.TrapResult{}, nil
}

// Test helpers
func setupTestServer(t *testing.T, mockService *MockGameService) *Server {
	t.Helper()
	hub := websocket.NewHub()
	go hub.Run()
	t.Cleanup(hub.Close)
	return NewServer(mockService, hub)
}

func makeRequest(method, path string, body any) *http.Request {
	var bodyBytes []byte
	switch b := body.(type) {
	case nil:
	case string:
		bodyBytes = []byte(b)
	default:
		bodyBytes, _ = json.Marshal(b)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(t *testing.T, server *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), target), "body: %s", w.Body.String())
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]any
	parseResponse(t, w, &resp)
	msg, _ := resp["error"].(string)
	return msg
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrSessionNotFound, http.StatusNotFound},
		{fmt.Errorf("loading: %w", service.ErrConfigNotFound), http.StatusNotFound},
		{fmt.Errorf("drop: %w", engine.ErrInvalidAction), http.StatusBadRequest},
		{service.ErrInvalidConfig, http.StatusBadRequest},
		{service.ErrInvalidRequest, http.StatusBadRequest},
		{engine.ErrUnknownKind, http.StatusBadRequest},
		{session.ErrInvalidSessionID, http.StatusBadRequest},
		{engine.ErrLevelComplete, http.StatusConflict},
		{service.ErrSessionAlreadyExists, http.StatusConflict},
		{fmt.Errorf("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

// Session Management Tests

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name         string
		body         any
		wantConfig   string
		wantSeed     int64
		serviceErr   error
		expectedCode int
	}{
		{"default config", nil, "", 0, nil, http.StatusCreated},
		{"config id and seed", map[string]any{"config_id": "frog", "seed": 42}, "frog", 42, nil, http.StatusCreated},
		{"legacy config name", map[string]any{"config_name": "treasure"}, "treasure", 0, nil, http.StatusCreated},
		{"unknown config", map[string]any{"config_id": "nope"}, "nope", 0, service.ErrConfigNotFound, http.StatusNotFound},
		{"broken body", "{", "", 0, nil, http.StatusBadRequest},
		{"service failure", nil, "", 0, fmt.Errorf("service error"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			mock := &MockGameService{
				CreateSessionFunc: func(ctx context.Context, configID string, seed int64) (*service.SessionInfo, error) {
					called = true
					assert.Equal(t, tt.wantConfig, configID)
					assert.Equal(t, tt.wantSeed, seed)
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					return &service.SessionInfo{ID: "sess-123", ConfigID: configID}, nil
				},
			}

			w := serve(t, setupTestServer(t, mock), makeRequest("POST", "/api/sessions", tt.body))
			assert.Equal(t, tt.expectedCode, w.Code)

			if tt.expectedCode == http.StatusCreated {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				assert.Equal(t, "sess-123", resp.ID)
			}
			if tt.expectedCode == http.StatusBadRequest {
				assert.False(t, called)
			}
		})
	}
}

func TestListSessions(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	sessions := func() []*service.SessionInfo {
		return []*service.SessionInfo{
			{ID: "a", CreatedAt: base, LastAccessedAt: base.Add(3 * time.Minute)},
			{ID: "b", CreatedAt: base.Add(time.Minute), LastAccessedAt: base.Add(time.Minute)},
			{ID: "c", CreatedAt: base.Add(2 * time.Minute), LastAccessedAt: base.Add(2 * time.Minute)},
		}
	}

	tests := []struct {
		name  string
		query string
		want  []string
		total int
	}{
		{"defaults to recently accessed first", "", []string{"a", "c", "b"}, 3},
		{"created ascending", "?sort=created&order=asc", []string{"a", "b", "c"}, 3},
		{"created descending", "?sort=created", []string{"c", "b", "a"}, 3},
		{"limit", "?limit=2", []string{"a", "c"}, 3},
		{"limit larger than list", "?limit=10", []string{"a", "c", "b"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockGameService{
				ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
					return sessions(), nil
				},
			}

			w := serve(t, setupTestServer(t, mock), makeRequest("GET", "/api/sessions"+tt.query, nil))
			require.Equal(t, http.StatusOK, w.Code)

			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			parseResponse(t, w, &resp)

			var ids []string
			for _, s := range resp.Sessions {
				ids = append(ids, s.ID)
			}
			assert.Equal(t, tt.want, ids)
			assert.Equal(t, len(tt.want), resp.Count)
			assert.Equal(t, tt.total, resp.Total)
		})
	}

	t.Run("service error", func(t *testing.T) {
		mock := &MockGameService{
			ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
				return nil, fmt.Errorf("database error")
			},
		}
		w := serve(t, setupTestServer(t, mock), makeRequest("GET", "/api/sessions", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "database error", errorMessage(t, w))
	})
}

func TestGetSession(t *testing.T) {
	mock := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			if sessionID != "sess-1" {
				return nil, fmt.Errorf("%w: %s", service.ErrSessionNotFound, sessionID)
			}
			return &service.SessionInfo{ID: sessionID, ConfigID: "frog"}, nil
		},
	}
	server := setupTestServer(t, mock)

	w := serve(t, server, makeRequest("GET", "/api/sessions/sess-1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var info service.SessionInfo
	parseResponse(t, w, &info)
	assert.Equal(t, "frog", info.ConfigID)

	w = serve(t, server, makeRequest("GET", "/api/sessions/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, errorMessage(t, w), "missing")
}

func TestDeleteSession(t *testing.T) {
	var deleted string
	mock := &MockGameService{
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			if sessionID == "missing" {
				return service.ErrSessionNotFound
			}
			deleted = sessionID
			return nil
		},
	}
	server := setupTestServer(t, mock)

	w := serve(t, server, makeRequest("DELETE", "/api/sessions/sess-1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sess-1", deleted)

	w = serve(t, server, makeRequest("DELETE", "/api/sessions/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// Game Operation Tests

func TestAct(t *testing.T) {
	tests := []struct {
		name         string
		body         any
		serviceErr   error
		expectedCode int
		check        func(*testing.T, engine.Action)
	}{
		{
			name: "drop with pointer and geometry",
			body: map[string]any{
				"type":     "drop",
				"pointer":  map[string]any{"x": 120, "y": 80},
				"geometry": map[string]any{"left": 10, "top": 10, "width": 500, "height": 500, "rows": 5, "cols": 5},
				"item":     map[string]any{"orientation": "horizontal", "size": 200},
			},
			expectedCode: http.StatusOK,
			check: func(t *testing.T, a engine.Action) {
				assert.Equal(t, engine.ActionDrop, a.Type)
				require.NotNil(t, a.Pointer)
				require.NotNil(t, a.Geometry)
				require.NotNil(t, a.Item)
			},
		},
		{
			name:         "answer",
			body:         map[string]any{"type": "answer", "answer": map[string]any{"total": 400}},
			expectedCode: http.StatusOK,
			check: func(t *testing.T, a engine.Action) {
				require.NotNil(t, a.Answer)
				assert.Equal(t, 400.0, a.Answer.Total)
			},
		},
		{
			name:         "rejected action",
			body:         map[string]any{"type": "click", "at": map[string]any{"row": 1.5, "col": 1.5}},
			serviceErr:   fmt.Errorf("click: %w", engine.ErrInvalidAction),
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "level already complete",
			body:         map[string]any{"type": "move", "direction": "north"},
			serviceErr:   engine.ErrLevelComplete,
			expectedCode: http.StatusConflict,
		},
		{
			name:         "unknown field",
			body:         map[string]any{"type": "move", "dir": "north"},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "missing session",
			body:         map[string]any{"type": "move", "direction": "north"},
			serviceErr:   service.ErrSessionNotFound,
			expectedCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *engine.Action
			mock := &MockGameService{
				ActFunc: func(ctx context.Context, sessionID string, action engine.Action) (*service.ActionResult, error) {
					got = &action
					assert.Equal(t, "sess-1", sessionID)
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					return &service.ActionResult{
						Outcome:   &engine.Outcome{Accepted: true, Message: "ok"},
						GameState: &engine.GameState{TotalActions: 1},
					}, nil
				},
			}

			w := serve(t, setupTestServer(t, mock), makeRequest("POST", "/api/sessions/sess-1/actions", tt.body))
			assert.Equal(t, tt.expectedCode, w.Code, w.Body.String())

			if tt.expectedCode != http.StatusOK {
				return
			}
			require.NotNil(t, got)
			tt.check(t, *got)

			var resp service.ActionResult
			parseResponse(t, w, &resp)
			assert.True(t, resp.Outcome.Accepted)
			assert.Equal(t, 1, resp.GameState.TotalActions)
		})
	}
}

func TestMove(t *testing.T) {
	var got engine.Action
	mock := &MockGameService{
		ActFunc: func(ctx context.Context, sessionID string, action engine.Action) (*service.ActionResult, error) {
			got = action
			return &service.ActionResult{Outcome: &engine.Outcome{Accepted: true}, GameState: &engine.GameState{}}, nil
		},
	}
	server := setupTestServer(t, mock)

	w := serve(t, server, makeRequest("POST", "/api/sessions/sess-1/move", map[string]any{"direction": "up"}))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, engine.ActionMove, got.Type)
	assert.Equal(t, grid.North, got.Direction)

	w = serve(t, server, makeRequest("POST", "/api/sessions/sess-1/move", map[string]any{"direction": "W", "distance": 100}))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, grid.West, got.Direction)
	assert.Equal(t, 100.0, got.Distance)

	w = serve(t, server, makeRequest("POST", "/api/sessions/sess-1/move", map[string]any{"direction": "sideways"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReset(t *testing.T) {
	mock := &MockGameService{
		ResetFunc: func(ctx context.Context, sessionID string) (*service.ActionResult, error) {
			if sessionID == "missing" {
				return nil, service.ErrSessionNotFound
			}
			return &service.ActionResult{
				Outcome:   &engine.Outcome{Accepted: true, Message: "welcome"},
				GameState: &engine.GameState{Attempt: 2},
			}, nil
		},
	}
	server := setupTestServer(t, mock)

	w := serve(t, server, makeRequest("POST", "/api/sessions/sess-1/reset", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var resp service.ActionResult
	parseResponse(t, w, &resp)
	assert.Equal(t, 2, resp.GameState.Attempt)
	assert.Equal(t, "welcome", resp.Outcome.Message)

	w = serve(t, server, makeRequest("POST", "/api/sessions/missing/reset", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetHistory(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  service.HistoryOptions
	}{
		{"defaults", "", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
		{"explicit", "?page=3&limit=5&order=asc", service.HistoryOptions{Page: 3, Limit: 5, Order: "asc"}},
		{"garbage falls back", "?page=-1&limit=x&order=sideways", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got service.HistoryOptions
			mock := &MockGameService{
				GetHistoryFunc: func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
					got = opts
					return &service.HistoryResponse{Page: opts.Page, PageSize: opts.Limit}, nil
				},
			}

			w := serve(t, setupTestServer(t, mock), makeRequest("GET", "/api/sessions/sess-1/history"+tt.query, nil))
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetGameState(t *testing.T) {
	mock := &MockGameService{
		GetGameStateFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
			if sessionID == "missing" {
				return nil, service.ErrSessionNotFound
			}
			return &engine.GameState{Kind: engine.KindFrog, Stars: 2}, nil
		},
	}
	server := setupTestServer(t, mock)

	w := serve(t, server, makeRequest("GET", "/api/sessions/sess-1/state", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var state engine.GameState
	parseResponse(t, w, &state)
	assert.Equal(t, engine.KindFrog, state.Kind)
	assert.Equal(t, 2, state.Stars)

	w = serve(t, server, makeRequest("GET", "/api/sessions/missing/state", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSnapshot(t *testing.T) {
	mock := &MockGameService{
		SnapshotFunc: func(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
			return &engine.Snapshot{
				Kind:  engine.KindTreasure,
				Seed:  7,
				State: json.RawMessage(`{"moves":3}`),
			}, nil
		},
	}

	w := serve(t, setupTestServer(t, mock), makeRequest("GET", "/api/sessions/sess-1/snapshot", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var snap engine.Snapshot
	parseResponse(t, w, &snap)
	assert.Equal(t, int64(7), snap.Seed)
	assert.JSONEq(t, `{"moves":3}`, string(snap.State))
}

// Configuration Tests

func TestListConfigs(t *testing.T) {
	mock := &MockGameService{
		ListConfigsFunc: func(ctx context.Context) ([]*service.ConfigInfo, error) {
			return []*service.ConfigInfo{
				{ConfigID: "frog", Kind: engine.KindFrog, Builtin: true},
				{ConfigID: "custom", Filename: "custom.json", Kind: engine.KindTreasure},
			}, nil
		},
	}

	w := serve(t, setupTestServer(t, mock), makeRequest("GET", "/api/configs", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var configs []service.ConfigInfo
	parseResponse(t, w, &configs)
	require.Len(t, configs, 2)
	assert.True(t, configs[0].Builtin)
	assert.Equal(t, "custom.json", configs[1].Filename)
}

func TestGetConfig(t *testing.T) {
	var asked string
	mock := &MockGameService{
		LoadConfigFunc: func(ctx context.Context, configID string) (*engine.GameConfig, error) {
			asked = configID
			if configID == "missing" {
				return nil, fmt.Errorf("%w: %s", service.ErrConfigNotFound, configID)
			}
			return engine.DefaultConfig(engine.KindFrog), nil
		},
	}
	server := setupTestServer(t, mock)

	w := serve(t, server, makeRequest("GET", "/api/configs/frog.json", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "frog", asked)
	var config engine.GameConfig
	parseResponse(t, w, &config)
	assert.Equal(t, engine.KindFrog, config.Kind)

	w = serve(t, server, makeRequest("GET", "/api/configs/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateConfig(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		body         any
		saveErr      error
		wantID       string
		expectedCode int
	}{
		{
			name:         "id from name",
			path:         "/api/configs",
			body:         &engine.GameConfig{Name: "Frog Pond: Hard!", Kind: engine.KindFrog},
			wantID:       "frog-pond-hard",
			expectedCode: http.StatusCreated,
		},
		{
			name:         "explicit id",
			path:         "/api/configs?id=pond-2",
			body:         &engine.GameConfig{Name: "Frog Pond", Kind: engine.KindFrog},
			wantID:       "pond-2",
			expectedCode: http.StatusCreated,
		},
		{
			name:         "missing name",
			path:         "/api/configs",
			body:         &engine.GameConfig{Kind: engine.KindFrog},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "fails validation",
			path:         "/api/configs",
			body:         &engine.GameConfig{Name: "Broken"},
			saveErr:      fmt.Errorf("%w: kind is required", service.ErrInvalidConfig),
			wantID:       "broken",
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "bad json",
			path:         "/api/configs",
			body:         "not json",
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var savedID string
			mock := &MockGameService{
				SaveConfigFunc: func(ctx context.Context, configID string, config *engine.GameConfig) error {
					savedID = configID
					return tt.saveErr
				},
			}

			w := serve(t, setupTestServer(t, mock), makeRequest("POST", tt.path, tt.body))
			assert.Equal(t, tt.expectedCode, w.Code, w.Body.String())
			assert.Equal(t, tt.wantID, savedID)

			if tt.expectedCode == http.StatusCreated {
				var resp map[string]any
				parseResponse(t, w, &resp)
				assert.Equal(t, tt.wantID, resp["config_id"])
			}
		})
	}
}

func TestUnifiedSessions(t *testing.T) {
	all := []*service.SessionInfo{
		{ID: "a", ConfigID: "frog", GameState: &engine.GameState{Completed: true, Stars: 3}},
		{ID: "b", ConfigID: "frog", GameState: &engine.GameState{}},
		{ID: "c", ConfigID: "treasure", GameState: &engine.GameState{Completed: true, Stars: 1}},
	}
	byID := map[string]*service.SessionInfo{}
	for _, s := range all {
		byID[s.ID] = s
	}

	mock := &MockGameService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return all, nil
		},
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			if s, ok := byID[sessionID]; ok {
				return s, nil
			}
			return nil, service.ErrSessionNotFound
		},
	}
	server := setupTestServer(t, mock)

	type response struct {
		Count     int `json:"count"`
		Completed int `json:"completed"`
		Sessions  []struct {
			SessionID string `json:"session_id"`
			Stars     int    `json:"stars"`
		} `json:"sessions"`
	}

	tests := []struct {
		name      string
		query     string
		count     int
		completed int
	}{
		{"all sessions", "", 3, 2},
		{"by config", "?configId=frog", 2, 1},
		{"by ids skipping unknown", "?sessionIds=a,%20c,zzz", 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, server, makeRequest("GET", "/api/sessions/unified"+tt.query, nil))
			require.Equal(t, http.StatusOK, w.Code)
			var resp response
			parseResponse(t, w, &resp)
			assert.Equal(t, tt.count, resp.Count)
			assert.Equal(t, tt.completed, resp.Completed)
			assert.Len(t, resp.Sessions, tt.count)
		})
	}
}

// Generator Tests

func TestGenerators(t *testing.T) {
	mock := &MockGameService{
		GeneratePlacementFunc: func(ctx context.Context, req service.PlacementRequest) (*service.PlacementResult, error) {
			if req.Rows > engine.MaxGridSize {
				return nil, fmt.Errorf("%w: grid too large", service.ErrInvalidRequest)
			}
			assert.Equal(t, "corner", req.Buffer)
			return &service.PlacementResult{Seed: req.Seed}, nil
		},
		GeneratePathFunc: func(ctx context.Context, req service.PathRequest) (*service.PathResult, error) {
			assert.Equal(t, 10, req.StepCount)
			return &service.PathResult{Seed: req.Seed, Scale: req.Scale}, nil
		},
		CheckTrapFunc: func(ctx context.Context, req service.TrapRequest) (*service.TrapResult, error) {
			assert.Equal(t, grid.Cell{Row: 5, Col: 5}, req.Goal)
			return &service.TrapResult{Trapped: len(req.Barriers) > 0, Reachable: 1}, nil
		},
	}
	server := setupTestServer(t, mock)

	t.Run("placement", func(t *testing.T) {
		w := serve(t, server, makeRequest("POST", "/api/generate/placement",
			map[string]any{"rows": 6, "cols": 6, "seed": 9, "count": 4, "buffer": "corner"}))
		require.Equal(t, http.StatusOK, w.Code)
		var resp service.PlacementResult
		parseResponse(t, w, &resp)
		assert.Equal(t, int64(9), resp.Seed)

		w = serve(t, server, makeRequest("POST", "/api/generate/placement",
			map[string]any{"rows": 99, "cols": 6, "buffer": "corner"}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("path", func(t *testing.T) {
		w := serve(t, server, makeRequest("POST", "/api/generate/path",
			map[string]any{"rows": 7, "cols": 7, "scale": 50, "step_count": 10}))
		require.Equal(t, http.StatusOK, w.Code)
		var resp service.PathResult
		parseResponse(t, w, &resp)
		assert.Equal(t, 50.0, resp.Scale)
	})

	t.Run("trap", func(t *testing.T) {
		w := serve(t, server, makeRequest("POST", "/api/check/trap", map[string]any{
			"rows": 6, "cols": 6,
			"from":     map[string]int{"row": 0, "col": 0},
			"goal":     map[string]int{"row": 5, "col": 5},
			"barriers": []map[string]int{{"row": 0, "col": 1}, {"row": 1, "col": 0}},
		}))
		require.Equal(t, http.StatusOK, w.Code)
		var resp service.TrapResult
		parseResponse(t, w, &resp)
		assert.True(t, resp.Trapped)
	})

	t.Run("unknown field", func(t *testing.T) {
		w := serve(t, server, makeRequest("POST", "/api/check/trap", map[string]any{"walls": 3}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSchema(t *testing.T) {
	server := setupTestServer(t, &MockGameService{})

	tests := []struct {
		name     string
		property string
	}{
		{"config", "kind"},
		{"action", "direction"},
		{"snapshot", "seed"},
		{"trap", "barriers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, server, makeRequest("GET", "/api/schema/"+tt.name, nil))
			require.Equal(t, http.StatusOK, w.Code)
			var schema struct {
				Properties map[string]any `json:"properties"`
			}
			parseResponse(t, w, &schema)
			assert.Contains(t, schema.Properties, tt.property)
		})
	}

	w := serve(t, server, makeRequest("GET", "/api/schema/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "config")
}

func TestHealth(t *testing.T) {
	server := setupTestServer(t, &MockGameService{})
	for _, path := range []string{"/health", "/api/health"} {
		w := serve(t, server, makeRequest("GET", path, nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "healthy")
	}
}

// WebSocket Tests

func TestWebSocket(t *testing.T) {
	mock := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			if sessionID != "sess-123" {
				return nil, service.ErrSessionNotFound
			}
			return &service.SessionInfo{ID: sessionID}, nil
		},
		ActFunc: func(ctx context.Context, sessionID string, action engine.Action) (*service.ActionResult, error) {
			return &service.ActionResult{
				Outcome:   &engine.Outcome{Accepted: true},
				GameState: &engine.GameState{Kind: engine.KindTreasure, TotalActions: 1},
			}, nil
		},
	}
	ts := httptest.NewServer(setupTestServer(t, mock))
	defer ts.Close()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	t.Run("missing session parameter", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/ws")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown session", func(t *testing.T) {
		_, resp, err := gorillaws.DefaultDialer.Dial(wsURL+"?session=invalid", nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("actions are pushed to subscribers", func(t *testing.T) {
		conn, _, err := gorillaws.DefaultDialer.Dial(wsURL+"?session=sess-123", nil)
		require.NoError(t, err)
		defer conn.Close()

		// Registration goes through the hub loop; keep acting until the
		// subscriber sees a push.
		received := make(chan websocket.Message, 1)
		go func() {
			var msg websocket.Message
			if err := conn.ReadJSON(&msg); err == nil {
				received <- msg
			}
		}()

		require.Eventually(t, func() bool {
			body, _ := json.Marshal(map[string]any{"type": "move", "direction": "north"})
			resp, err := http.Post(ts.URL+"/api/sessions/sess-123/actions", "application/json", bytes.NewReader(body))
			if err == nil {
				resp.Body.Close()
			}
			select {
			case msg := <-received:
				return msg.SessionID == "sess-123" && msg.GameState != nil && msg.GameState.TotalActions == 1
			default:
				return false
			}
		}, 2*time.Second, 20*time.Millisecond)
	})
}
