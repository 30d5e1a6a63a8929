package service

import (
	"context"
	"time"

	"github.com/wricardo/sokoban/game/engine"
)

// GameService is what the REST and MCP transports drive: puzzle sessions,
// pushes on their boards and the level catalogue they are started from.
type GameService interface {
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Move and BulkMove tick the board once per direction. With reset the
	// level is restarted first. BulkMove stops on the first input that does
	// not move the player and on a solved board.
	Move(ctx context.Context, sessionID, direction string, reset bool) (*MoveResult, error)
	BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*BulkMoveResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.GameState, error)

	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)
	GetRenderables(ctx context.Context, sessionID string) ([]engine.RenderItem, error)

	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.LevelConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.LevelConfig) error
}

// SessionManager keeps live sessions. Get may restore a session from storage;
// Checkpoint writes a board back after it changed.
type SessionManager interface {
	Create(id, configID string, level *engine.LevelConfig) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	Touch(id string) error
	Checkpoint(id string) error
}

// ConfigManager resolves level ids to validated levels.
type ConfigManager interface {
	LoadConfig(name string) (*engine.LevelConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.LevelConfig
	SaveConfig(name string, config *engine.LevelConfig) error
}

// Session is one board being played. ConfigID names the level file it was
// started from; Config is the level itself and outlives edits to that file.
type Session struct {
	ID             string
	ConfigID       string
	Engine         *engine.GameEngine
	Config         *engine.LevelConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time
}

// Solved reports whether every spot on the session's board is covered.
func (s *Session) Solved() bool {
	return s.Engine.IsWon()
}
