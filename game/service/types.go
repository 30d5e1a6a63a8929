package service

import (
	"time"

	"github.com/wricardo/sokoban/game/engine"
)

// Event types
const (
	EventMove     = "move"
	EventPush     = "push"
	EventBlocked  = "blocked"
	EventVictory  = "victory"
	EventUnsolved = "unsolved"
	EventReset    = "reset"
)

// Bulk stop codes
const (
	StopBlockedImmovable = "blocked_immovable"
	StopBlockedBoundary  = "blocked_boundary"
	StopInvalidDirection = "invalid_direction"
	StopVictory          = "victory"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string              `json:"id"`
	ConfigName     string              `json:"config_name"`
	CreatedAt      time.Time           `json:"created_at"`
	LastAccessedAt time.Time           `json:"last_accessed_at"`
	GameState      *engine.GameState   `json:"game_state"`
	GameConfig     *engine.LevelConfig `json:"game_config"`
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	Success     bool              `json:"success"`
	GameState   *engine.GameState `json:"game_state"`
	Message     string            `json:"message"`
	Events      []GameEvent       `json:"events,omitempty"`
	Step        *StepInfo         `json:"step,omitempty"`
	AttemptedTo *AttemptInfo      `json:"attempted_to,omitempty"`
}

// BulkMoveResult contains the result of multiple moves
type BulkMoveResult struct {
	// Summary
	MovesExecuted  int               `json:"moves_executed"`
	RequestedMoves int               `json:"requested_moves"`
	Success        bool              `json:"success"`
	GameState      *engine.GameState `json:"game_state"`
	Events         []GameEvent       `json:"events"`
	StoppedReason  string            `json:"stopped_reason,omitempty"`   // Human-readable reason
	StopReasonCode string            `json:"stop_reason_code,omitempty"` // blocked_immovable|blocked_boundary|invalid_direction|victory
	StoppedOnMove  int               `json:"stopped_on_move,omitempty"`  // 1-based index of the move that caused stop
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`

	// Start/end snapshot
	StartPos        engine.Position `json:"start_pos"`
	EndPos          engine.Position `json:"end_pos"`
	StartMovesCount uint            `json:"start_moves_count"`
	EndMovesCount   uint            `json:"end_moves_count"`
	BoxesPushed     int             `json:"boxes_pushed"`

	// Per-step compact trace (only for this call)
	Steps []StepInfo `json:"steps,omitempty"`

	// Failure diagnostics
	AttemptedTo *AttemptInfo `json:"attempted_to,omitempty"`

	// Final status aids
	Won           bool     `json:"won"`
	Message       string   `json:"message,omitempty"`
	PossibleMoves []string `json:"possible_moves,omitempty"`
	LocalView3x3  []string `json:"local_view_3x3,omitempty"`
}

// StepInfo is a compact record for each executed move
type StepInfo struct {
	Idx        int             `json:"idx"`
	Dir        string          `json:"dir"`
	From       engine.Position `json:"from"`
	To         engine.Position `json:"to"`
	Pushed     int             `json:"pushed"`
	MovesCount uint            `json:"moves_count"`
	Success    bool            `json:"success"`
	Victory    bool            `json:"victory,omitempty"`
}

// AttemptInfo details the cell that stopped a blocked move
type AttemptInfo struct {
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Reason   string `json:"reason"`
	Glyph    string `json:"glyph"`
	CellType string `json:"cell_type"`
	Pushing  int    `json:"pushing"` // boxes between the player and the blocking cell
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string          `json:"type"` // "move", "push", "blocked", "victory", "unsolved", "reset"
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Position  engine.Position `json:"position,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a level configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Boxes       int    `json:"boxes"`
	Spots       int    `json:"spots"`
	WinPolicy   string `json:"win_policy"`
}
