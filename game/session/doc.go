// Package session provides session management for the Sokoban push server.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Pluggable persistence (JSON files or PostgreSQL)
//   - Idle eviction with restore on next use
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// SessionPersistence is implemented by FilePersistence and PostgresPersistence.
//
// Session Identifiers:
//
// Generated ids are 4 hex characters. Client ids are trimmed and lowercased;
// ids containing path separators or dots are rejected.
//
// Persistence:
//
// A stored session carries its entity positions, move history and the level
// it was started on. Restoring prefers the stored level and only falls back
// to the config manager for records written without one. A stored board that
// does not fit its level, such as two boxes on one cell, fails with
// ErrCorruptSession and is skipped by LoadAll.
//
// Usage:
//
//	persistence, err := session.NewFilePersistence("sessions", configMgr)
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(persistence)
//	if _, err := manager.LoadAll(); err != nil {
//		log.Printf("Warning: %v", err)
//	}
//
//	sess, err := manager.Create("", "classic", configMgr.GetDefault())
package session
