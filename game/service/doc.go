// Package service provides the business logic layer for the Sokoban push server.
//
// The service package implements:
//   - Multi-session game management
//   - Level configuration lookup
//   - Move processing with step and blocked-cell diagnostics
//   - Paginated move history
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and persistence.
// ConfigManager loads and validates level files.
//
// Architecture:
//
// The service layer sits between the transports (HTTP, WebSocket, MCP) and
// the engine. Each session owns its own engine, so sessions never share a
// world. Every mutating call saves the session afterwards; save failures are
// logged and do not fail the call.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	info, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.BulkMove(ctx, info.ID, []string{"up", "up", "right"}, false)
//
// Bulk moves stop at the first move that does not commit, or as soon as the
// level is solved, and report why through StopReasonCode.
package service
