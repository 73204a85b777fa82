// Package session provides session management for the level server.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Snapshot persistence to disk
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the session manager that handles all session operations. A
// session (service.Session) holds one engine, its timer scheduler and the
// config id it was created from.
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs for easy reference, generated with
// crypto/rand. Lookups are case-insensitive.
//
// Persistence:
//
// FilePersistence stores one JSON file per session containing an
// engine.Snapshot. The snapshot embeds the level config, so restored
// sessions do not depend on the config directory. Pending timers are not
// stored; the service re-arms them from the restored engine.
//
// Usage:
//
//	persistence, err := session.NewFilePersistence("sessions")
//	manager := session.NewManagerWithPersistence(persistence)
//	if err := manager.LoadPersistedSessions(); err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err := manager.Create("", "frog", config, 0)
package session
