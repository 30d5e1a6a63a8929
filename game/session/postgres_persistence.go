package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/wricardo/sokoban/game/service"
)

// PostgresPersistence implements SessionPersistence on a PostgreSQL table
type PostgresPersistence struct {
	db            *sql.DB
	configManager service.ConfigManager
}

// NewPostgresPersistence connects to connectionString and makes sure the
// sessions table exists
func NewPostgresPersistence(connectionString string, configManager service.ConfigManager) (*PostgresPersistence, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pp := &PostgresPersistence{db: db, configManager: configManager}
	if err := pp.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return pp, nil
}

// initSchema initializes the database schema
func (pp *PostgresPersistence) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		config_name TEXT NOT NULL,
		game_state JSONB NOT NULL,
		level JSONB,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL,
		last_accessed_at TIMESTAMP WITH TIME ZONE NOT NULL,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);
	`

	_, err := pp.db.Exec(schema)
	return err
}

// Save upserts a session row
func (pp *PostgresPersistence) Save(session *service.Session) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}

	data := newPersistedSessionData(session, configIDFor(session, pp.configManager))
	stateJSON, err := json.Marshal(data.GameState)
	if err != nil {
		return fmt.Errorf("failed to marshal game state: %w", err)
	}
	levelJSON, err := json.Marshal(data.Level)
	if err != nil {
		return fmt.Errorf("failed to marshal level: %w", err)
	}

	query := `
	INSERT INTO sessions (id, config_name, game_state, level, created_at, last_accessed_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id)
	DO UPDATE SET
		config_name = $2, game_state = $3, level = $4, last_accessed_at = $6,
		updated_at = NOW()
	`

	_, err = pp.db.Exec(query,
		strings.ToLower(data.ID), data.ConfigName, string(stateJSON), string(levelJSON),
		data.CreatedAt, data.LastAccessedAt)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// Load reads a session row and rebuilds its engine
func (pp *PostgresPersistence) Load(id string) (*service.Session, error) {
	query := `SELECT id, config_name, game_state, level, created_at, last_accessed_at FROM sessions WHERE id = $1`

	var data PersistedSessionData
	var stateJSON string
	var levelJSON sql.NullString

	err := pp.db.QueryRow(query, strings.ToLower(id)).Scan(
		&data.ID, &data.ConfigName, &stateJSON, &levelJSON,
		&data.CreatedAt, &data.LastAccessedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if err := json.Unmarshal([]byte(stateJSON), &data.GameState); err != nil {
		return nil, fmt.Errorf("%w: game state: %w", ErrCorruptSession, err)
	}
	if levelJSON.Valid && levelJSON.String != "null" {
		if err := json.Unmarshal([]byte(levelJSON.String), &data.Level); err != nil {
			return nil, fmt.Errorf("%w: level: %w", ErrCorruptSession, err)
		}
	}

	return restoreSession(data, pp.configManager)
}

// Delete removes a session row
func (pp *PostgresPersistence) Delete(id string) error {
	res, err := pp.db.Exec(`DELETE FROM sessions WHERE id = $1`, strings.ToLower(id))
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListAll returns all stored session IDs
func (pp *PostgresPersistence) ListAll() ([]string, error) {
	rows, err := pp.db.Query(`SELECT id FROM sessions ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessionIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		sessionIDs = append(sessionIDs, id)
	}
	return sessionIDs, rows.Err()
}

// Exists checks if a session row exists
func (pp *PostgresPersistence) Exists(id string) bool {
	var exists bool
	err := pp.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM sessions WHERE id = $1)`, strings.ToLower(id)).Scan(&exists)
	return err == nil && exists
}

// Close closes the database connection
func (pp *PostgresPersistence) Close() error {
	return pp.db.Close()
}
