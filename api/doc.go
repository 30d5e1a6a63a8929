// Package api provides the HTTP REST API of the Sokoban push server.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session ({"config_id": "classic"})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/unified - Sessions for a multi-board view (?sessionIds=a,b or ?configName=x)
//   - GET /api/sessions/{id} - Get one session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current game state
//   - POST /api/sessions/{id}/move - {"direction": "up", "reset": false}
//   - POST /api/sessions/{id}/bulk-move - {"moves": ["up", "left"], "reset": false}
//   - POST /api/sessions/{id}/reset - Back to the initial layout
//   - GET /api/sessions/{id}/history - Paginated history (?page=1&limit=20&order=desc)
//   - GET /api/sessions/{id}/render - Render items ordered by z
//
// Configuration:
//   - GET /api/configs - List levels
//   - GET /api/configs/{name} - Get one level
//   - POST /api/configs - Validate and save a level
//
// Other:
//   - GET /health
//   - GET /ws?session={id} - WebSocket state stream
//
// Errors are returned as {"error": "message"} with a status derived from the
// underlying sentinel error: 404 for unknown sessions and levels, 400 for
// invalid levels, 409 for duplicate session ids.
//
// Move (POST /api/sessions/{id}/move)
//
//	step: {idx, dir, from, to, pushed, moves_count, success, victory}
//	attempted_to: {x, y, reason, glyph, cell_type, pushing} // present when blocked
//	events: [{type: move|push|blocked|victory|unsolved|reset, message}]
//
// Bulk Move (POST /api/sessions/{id}/bulk-move)
//
//	requested_moves, moves_executed, boxes_pushed
//	stop_reason_code: blocked_immovable|blocked_boundary|invalid_direction|victory
//	stopped_on_move (1-based), truncated, limit
//	steps, attempted_to, start_pos, end_pos, possible_moves, local_view_3x3
package api
