// Package api provides the HTTP REST API for the grid puzzle server.
//
// Endpoints (all under /api):
//
// Sessions:
//   - POST /sessions - Create a session: {"config_id": "frog", "seed": 42}
//   - GET /sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /sessions/unified - Several sessions side by side (?sessionIds=a,b or ?configId=frog)
//   - GET /sessions/{id} - Session info with state and config
//   - DELETE /sessions/{id} - Delete a session and stop its timers
//
// Play:
//   - GET /sessions/{id}/state - Current game state
//   - POST /sessions/{id}/actions - Apply an engine.Action
//   - POST /sessions/{id}/move - Shorthand for a move: {"direction": "north"}
//   - POST /sessions/{id}/reset - Replay the level
//   - GET /sessions/{id}/history - Paginated action history (?page=&limit=&order=)
//   - GET /sessions/{id}/snapshot - Resumable engine snapshot
//
// Configuration:
//   - GET /configs - List level configurations
//   - GET /configs/{name} - Fetch one configuration
//   - POST /configs - Save a configuration (?id= or derived from its name)
//
// Generators:
//   - POST /generate/placement - One-off landmark placement
//   - POST /generate/path - One-off instruction path
//   - POST /check/trap - Reachability of a goal cell
//
// Other:
//   - GET /schema/{type} - JSON schema for config, action, snapshot, state,
//     placement, path or trap bodies
//   - GET /health - Liveness
//   - GET /ws?session={id} - WebSocket stream of state_update and effect events
//
// Actions are sent as JSON and only the fields the action type needs are
// read:
//
//	{"type": "drop", "pointer": {"x": 120, "y": 80},
//	 "geometry": {"left": 10, "top": 10, "width": 500, "height": 500, "rows": 5, "cols": 5},
//	 "item": {"orientation": "horizontal", "size": 200}}
//	{"type": "answer", "answer": {"total": 400}}
//	{"type": "move", "direction": "east", "distance": 100}
//
// Error Handling:
//
// Errors are returned as JSON with the HTTP status code repeated in the body:
//
//	{"error": "click: invalid action: ...", "code": 400}
//
// Unknown sessions and configs map to 404, rejected actions and bad bodies
// to 400, and actions on a finished level to 409.
package api
