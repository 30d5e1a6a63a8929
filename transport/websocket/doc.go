// Package websocket pushes Sokoban session state to browser clients.
//
// A central Hub owns every connection. Clients attach to one session with
// the session query parameter and receive a JSON frame per change:
//
//	{"session_id": "ab12", "event": "state_update", "game_state": {...}}
//	{"session_id": "ab12", "event": "game_events", "data": [...]}
//
// The socket is push-only; moves go through the REST API, which broadcasts
// after each state change.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//
// Slow clients whose buffer fills up are dropped. Cancelling the context
// passed to Run closes every connection.
package websocket
