package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilyyejia/Pattern-and-Algebra/game/engine"
	"github.com/emilyyejia/Pattern-and-Algebra/game/session"
	"github.com/emilyyejia/Pattern-and-Algebra/transport/mcp"
)

func TestConstants(t *testing.T) {
	assert.Equal(t, "1.0.0", Version)
	assert.Equal(t, "Grid Puzzle Server", AppName)
}

func TestFlagDefaults(t *testing.T) {
	assert.Greater(t, *port, 0)
	assert.LessOrEqual(t, *port, 65535)
	assert.NotEmpty(t, *host)
	assert.NotEmpty(t, *configDir)
	assert.NotEmpty(t, *sessionsDir)
}

func TestEnvDefault(t *testing.T) {
	t.Setenv("PUZZLE_TEST_DIR", "elsewhere")
	assert.Equal(t, "elsewhere", envDefault("PUZZLE_TEST_DIR", "configs"))

	t.Setenv("PUZZLE_TEST_DIR", "")
	assert.Equal(t, "configs", envDefault("PUZZLE_TEST_DIR", "configs"))
}

func TestIsStdioMode(t *testing.T) {
	for _, mode := range []string{"stdio-mcp", "mcp-stdio", "mcp"} {
		assert.True(t, isStdioMode(mode), mode)
	}
	for _, mode := range []string{"server", "http", ""} {
		assert.False(t, isStdioMode(mode), mode)
	}
}

func TestInitializeServices(t *testing.T) {
	svcs, err := initializeServices(t.TempDir(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(svcs.hub.Close)

	require.NotNil(t, svcs.game)
	require.NotNil(t, svcs.sessions)

	info, err := svcs.game.CreateSession(context.Background(), "frog", 5)
	require.NoError(t, err)
	assert.Equal(t, "frog", info.ConfigID)
	assert.Equal(t, 1, svcs.sessions.Count())
}

func TestInitializeServices_InvalidConfigDir(t *testing.T) {
	_, err := initializeServices("/non/existent/path", t.TempDir())
	assert.Error(t, err)
}

func TestInitializeServices_ReloadsSessions(t *testing.T) {
	configs, sessions := t.TempDir(), t.TempDir()

	first, err := initializeServices(configs, sessions)
	require.NoError(t, err)
	t.Cleanup(first.hub.Close)
	info, err := first.game.CreateSession(context.Background(), "treasure", 9)
	require.NoError(t, err)
	require.NoError(t, first.sessions.SaveAllSessions())

	second, err := initializeServices(configs, sessions)
	require.NoError(t, err)
	t.Cleanup(second.hub.Close)

	restored, err := second.game.GetSession(context.Background(), info.ID)
	require.NoError(t, err)
	assert.Equal(t, "treasure", restored.ConfigID)
}

func TestSyncWithFilesystem(t *testing.T) {
	persistence, err := session.NewFilePersistence(t.TempDir())
	require.NoError(t, err)
	manager := session.NewManagerWithPersistence(persistence)

	_, err = manager.Create("keep", "frog", engine.DefaultConfig(engine.KindFrog), 1)
	require.NoError(t, err)
	_, err = manager.Create("gone", "frog", engine.DefaultConfig(engine.KindFrog), 1)
	require.NoError(t, err)

	assert.Equal(t, 0, syncWithFilesystem(manager, persistence))

	require.NoError(t, persistence.Delete("gone"))
	assert.Equal(t, 1, syncWithFilesystem(manager, persistence))
	assert.Equal(t, 1, manager.Count())

	assert.Equal(t, 0, syncWithFilesystem(manager, nil))
}

func TestMCPHandler(t *testing.T) {
	handler := mcpHandler(mcp.NewClient("http://localhost:0"))

	t.Run("rejects GET", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler(rr, httptest.NewRequest(http.MethodGet, "/mcp", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	})

	t.Run("answers ping", func(t *testing.T) {
		rr := httptest.NewRecorder()
		body := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`)
		handler(rr, httptest.NewRequest(http.MethodPost, "/mcp", body))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "2.0", resp["jsonrpc"])
		assert.Contains(t, resp, "result")
	})
}

func TestNewRouter(t *testing.T) {
	svcs, err := initializeServices(t.TempDir(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(svcs.hub.Close)

	rr := httptest.NewRecorder()
	newRouter(svcs, "http://localhost:0").ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
