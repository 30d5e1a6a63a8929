package session

import (
	"fmt"
	"time"

	"github.com/wricardo/sokoban/game/engine"
	"github.com/wricardo/sokoban/game/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData is the stored form of a session. Level carries the
// level the session was started on, so a session survives its level file
// being edited or removed.
type PersistedSessionData struct {
	ID             string              `json:"id"`
	ConfigName     string              `json:"config_name"`
	CreatedAt      time.Time           `json:"created_at"`
	LastAccessedAt time.Time           `json:"last_accessed_at"`
	GameState      *engine.GameState   `json:"game_state"`
	Level          *engine.LevelConfig `json:"level,omitempty"`
}

// newPersistedSessionData captures session for storage.
func newPersistedSessionData(session *service.Session, configID string) PersistedSessionData {
	return PersistedSessionData{
		ID:             session.ID,
		ConfigName:     configID,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		GameState:      session.Engine.GetState(),
		Level:          session.Config,
	}
}

// restoreSession rebuilds a live session from stored data. The stored level
// wins; configs is only consulted for records written without one. A board
// that does not fit its level is rejected with ErrCorruptSession.
func restoreSession(data PersistedSessionData, configs service.ConfigManager) (*service.Session, error) {
	level := data.Level
	if level == nil {
		if configs == nil {
			return nil, fmt.Errorf("%w: session %s has no stored level", ErrCorruptSession, data.ID)
		}
		var err error
		level, err = configs.LoadConfig(data.ConfigName)
		if err != nil {
			return nil, fmt.Errorf("failed to load config '%s': %w", data.ConfigName, err)
		}
	}

	gameEngine, err := engine.NewEngine(level)
	if err != nil {
		return nil, fmt.Errorf("%w: stored level: %w", ErrCorruptSession, err)
	}

	if data.GameState != nil {
		if err := gameEngine.SetState(data.GameState); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptSession, err)
		}
	}

	return &service.Session{
		ID:             data.ID,
		ConfigID:       data.ConfigName,
		Engine:         gameEngine,
		Config:         level,
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
	}, nil
}

// configIDFor returns the id a session should be stored under, resolving a
// level display name through configs when the session has none.
func configIDFor(session *service.Session, configs service.ConfigManager) string {
	if session.ConfigID != "" {
		return session.ConfigID
	}
	if configs != nil {
		if list, err := configs.ListConfigs(); err == nil {
			for _, info := range list {
				if info.Name == session.Config.Name {
					return info.ConfigID
				}
			}
		}
	}
	// If not found, assume the display name is already the config ID
	return session.Config.Name
}
