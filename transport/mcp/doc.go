// Package mcp exposes the puzzle server to AI agents over the Model Context
// Protocol.
//
// The Client holds no game state. Every tool proxies to the REST API, so an
// agent sees exactly what a browser client sees and actions from both are
// serialized by the same session lock.
//
// Tools:
//   - create_session, list_sessions, get_session: session management
//   - level_state: current level state
//   - act: one engine action, with an optional intent for the agent's notes
//   - reset_level: replay the level
//   - action_history: paginated action history
//   - list_configs: level configurations
//   - generate_path: stand-alone instruction path
//   - check_trap: reachability of a goal cell
//   - game_instructions: rules and action formats per game kind
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
