// Package mcp exposes the Sokoban REST API as Model Context Protocol tools.
//
// The Client holds no game state. Every tool call is translated into an
// HTTP request against a running API server and the JSON reply is rendered
// as text for the agent.
//
// Tools:
//   - create_session, list_sessions, get_session
//   - game_state: grid, spot progress, local 3x3 view and possible moves
//   - move, bulk_move: movement with push and blocked diagnostics
//   - reset_game, move_history
//   - list_configs, game_instructions
//   - describe_cell: glyph and entities at one (x, y)
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	client.ServeStdio()
//
//	// or over HTTP
//	resp := client.GetMCPServer().HandleMessage(ctx, body)
package mcp
