// Package websocket pushes level changes to browser clients.
//
// A central Hub owns every connection. Clients connect to /ws with
// ?session=<id> and receive JSON messages for that session only:
//
//	{"session_id": "ab12", "event": "state_update", "game_state": {...}}
//	{"session_id": "ab12", "event": "effect", "data": {"effect": {...}, "outcome": {...}}}
//
// state_update follows every change; effect is sent when a delayed effect
// fires (a wrong arrow fading, a fly appearing, a trap being confirmed).
// Clients only listen; anything they send is ignored.
//
// The hub implements service.Notifier. Broadcasts never block: the service
// calls them while holding a session lock, so a full queue drops the
// message and logs a warning.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	defer hub.Close()
//
//	svc := service.NewGameService(sessions, configs, service.WithNotifier(hub))
package websocket
