package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/emilyyejia/Pattern-and-Algebra/game/engine"
	"github.com/emilyyejia/Pattern-and-Algebra/game/service"
)

var log = logrus.WithField("component", "mcp")

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Grid Puzzle Server",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Grid Puzzle Server - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Each session plays one level of a grid geography game: scale blocks, scale
routes, landmark navigation, mystery points, the frog game or the treasure
compass. Call game_instructions with the session's kind to learn its actions.

AVAILABLE TOOLS:
- create_session: Start a level from a config (list_configs shows them)
- list_sessions / get_session: Inspect sessions
- level_state: Current level state
- act: Send one action (drop, arrow, answer, click, select, move)
- reset_level: Replay the level from the start
- action_history: Past actions with verdicts
- list_configs: Available level configurations
- generate_path: Generate a stand-alone instruction path
- check_trap: Check whether a goal cell is still reachable
- game_instructions: Rules and action formats per game kind

NOTE: The 'intent' parameter on act serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

func sessionIDProperty() map[string]any {
	return map[string]any{
		"type":        "string",
		"description": "Session ID",
	}
}

func cellProperty(description string) map[string]any {
	return map[string]any{
		"type":        "object",
		"description": description,
		"properties": map[string]any{
			"row": map[string]any{"type": "integer"},
			"col": map[string]any{"type": "integer"},
		},
		"required": []string{"row", "col"},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session from a level configuration",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"config_id": map[string]any{
					"type":        "string",
					"description": "Config to play (optional, see list_configs)",
				},
				"seed": map[string]any{
					"type":        "integer",
					"description": "Random seed for a reproducible layout (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"session_id": sessionIDProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "level_state",
		Description: "Get the current level state",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"session_id": sessionIDProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleLevelState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "act",
		Description: "Send one player action to the level",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": sessionIDProperty(),
				"action": map[string]any{
					"type":        "object",
					"description": `The action, e.g. {"type":"move","direction":"north"} or {"type":"answer","answer":{"total":400}}. See game_instructions for each game's actions.`,
					"properties": map[string]any{
						"type": map[string]any{
							"type": "string",
							"enum": []string{"drop", "arrow", "answer", "click", "select", "move"},
						},
					},
					"required": []string{"type"},
				},
				"intent": map[string]any{
					"type":        "string",
					"description": "Brief explanation of the intent behind this action (serves as a rubber duck to help explain your reasoning)",
				},
			},
			Required: []string{"session_id", "action"},
		},
	}, c.handleAct)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_level",
		Description: "Replay the level from the start",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"session_id": sessionIDProperty()},
			Required:   []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "action_history",
		Description: "Get the action history for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": sessionIDProperty(),
				"page": map[string]any{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Items per page",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleActionHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available level configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, c.handleListConfigs)

	// Generators
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "generate_path",
		Description: "Generate a closed instruction path on an empty grid",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"rows":           map[string]any{"type": "integer", "description": "Grid rows"},
				"cols":           map[string]any{"type": "integer", "description": "Grid columns"},
				"scale":          map[string]any{"type": "number", "description": "Metres per grid unit"},
				"step_count":     map[string]any{"type": "integer", "description": "Number of instructions"},
				"landmark_count": map[string]any{"type": "integer", "description": "Landmarks to place first (optional)"},
				"seed":           map[string]any{"type": "integer", "description": "Random seed (optional)"},
			},
			Required: []string{"rows", "cols", "scale", "step_count"},
		},
	}, c.handleGeneratePath)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "check_trap",
		Description: "Check whether a goal cell can still be reached through 4-connected free cells",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"rows": map[string]any{"type": "integer", "description": "Grid rows"},
				"cols": map[string]any{"type": "integer", "description": "Grid columns"},
				"from": cellProperty("Start cell (0-based)"),
				"goal": cellProperty("Goal cell (0-based)"),
				"barriers": map[string]any{
					"type":        "array",
					"description": "Blocked cells",
					"items":       cellProperty("Blocked cell"),
				},
			},
			Required: []string{"rows", "cols", "from", "goal"},
		},
	}, c.handleCheckTrap)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get game rules and action formats, for one game kind or all of them",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"kind": map[string]any{
					"type":        "string",
					"description": "Game kind (optional)",
					"enum":        kindNames(),
				},
			},
		},
	}, c.handleGameInstructions)
}

func kindNames() []string {
	names := make([]string, len(engine.Kinds))
	for i, k := range engine.Kinds {
		names[i] = string(k)
	}
	return names
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func sessionPath(id string, parts ...string) string {
	return "/api/sessions/" + url.PathEscape(id) + strings.Join(parts, "")
}

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body := map[string]any{}
	if configID := request.GetString("config_id", ""); configID != "" {
		body["config_id"] = configID
	}
	if seed := request.GetInt("seed", 0); seed != 0 {
		body["seed"] = seed
	}

	var info service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &info); err != nil {
		return toolError(err)
	}

	result := fmt.Sprintf("Created session: %s\n\n%s", info.ID, formatSessionInfo(&info))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return toolError(err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		status := "in progress"
		if s.GameState != nil {
			status = stateStatus(s.GameState)
		}
		fmt.Fprintf(&b, "- %s (Config: %s, %s, Last used: %s)\n",
			s.ID, s.ConfigID, status, s.LastAccessedAt.Format("15:04:05"))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return toolError(err)
	}

	var info service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID), nil, &info); err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(formatSessionInfo(&info)), nil
}

func (c *Client) handleLevelState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return toolError(err)
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleAct(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return toolError(err)
	}
	action, ok := request.GetArguments()["action"].(map[string]any)
	if !ok {
		return mcp.NewToolResultError("action must be an object with a type"), nil
	}

	// Intent is only for the caller's own reasoning.
	if intent := request.GetString("intent", ""); intent != "" {
		log.WithFields(logrus.Fields{"session": sessionID, "intent": intent}).Debug("act")
	}

	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/actions"), action, &result); err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return toolError(err)
	}

	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &result); err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText("Level reset.\n\n" + formatActionResult(&result)), nil
}

func (c *Client) handleActionHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return toolError(err)
	}

	params := url.Values{}
	if page := request.GetInt("page", 0); page > 0 {
		params.Set("page", fmt.Sprint(page))
	}
	if limit := request.GetInt("limit", 0); limit > 0 {
		params.Set("limit", fmt.Sprint(limit))
	}
	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return toolError(err)
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		source := config.Filename
		if config.Builtin {
			source = "built-in"
		}
		fmt.Fprintf(&b, "• %s (%s, %s)\n  %s\n  %s, Grid: %dx%d\n\n",
			config.ConfigID, config.Name, source, config.Description, config.Kind, config.Rows, config.Cols)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGeneratePath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := service.PathRequest{
		Rows:          request.GetInt("rows", 0),
		Cols:          request.GetInt("cols", 0),
		Scale:         request.GetFloat("scale", 0),
		StepCount:     request.GetInt("step_count", 0),
		LandmarkCount: request.GetInt("landmark_count", 0),
		Seed:          int64(request.GetInt("seed", 0)),
	}

	var result service.PathResult
	if err := c.apiCall(ctx, "POST", "/api/generate/path", req, &result); err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(formatPath(&result)), nil
}

func (c *Client) handleCheckTrap(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// The arguments already have the request's shape.
	data, err := json.Marshal(request.GetArguments())
	if err != nil {
		return toolError(err)
	}
	var req service.TrapRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	var result service.TrapResult
	if err := c.apiCall(ctx, "POST", "/api/check/trap", req, &result); err != nil {
		return toolError(err)
	}

	if result.Trapped {
		return mcp.NewToolResultText(fmt.Sprintf(
			"TRAPPED: the goal cannot be reached. %d cells are still reachable from the start.",
			result.Reachable)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Reachable: the goal is %d steps away. %d cells are reachable from the start.",
		result.Distance, result.Reachable)), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind := engine.Kind(request.GetString("kind", ""))
	if kind != "" {
		text, ok := instructions[kind]
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown game kind %q", kind)), nil
		}
		return mcp.NewToolResultText(commonInstructions + "\n" + text), nil
	}

	var b strings.Builder
	b.WriteString(commonInstructions)
	for _, k := range engine.Kinds {
		b.WriteString("\n")
		b.WriteString(instructions[k])
	}
	return mcp.NewToolResultText(b.String()), nil
}
