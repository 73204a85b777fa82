// Package service provides the business logic layer for the grid games.
//
// The service package implements:
//   - Multi-session level management
//   - Configuration lookup
//   - Action processing and delayed effects
//   - One-off placement, path and trap generation
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages level configuration loading and validation.
// Notifier receives changes made by timers outside any request.
//
// Architecture:
//
// The service layer sits between the transports (HTTP, WebSocket, MCP) and
// the engine. Each session owns one engine and one timer scheduler. Every
// engine call happens under the session lock, including timer callbacks,
// which claim their ticket under that lock so a reset always wins over a
// timer that fired just before it.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr, service.WithNotifier(hub))
//
//	info, err := gameService.CreateSession(ctx, "frog", 0)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Act(ctx, info.ID, engine.Action{Type: engine.ActionMove, Direction: grid.East})
//
// Engines report verdicts in the returned Outcome. Errors are reserved for
// actions the level cannot take (engine.ErrInvalidAction,
// engine.ErrLevelComplete) and for missing sessions or configs.
package service
