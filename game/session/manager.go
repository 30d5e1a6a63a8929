package session

import (
	"cmp"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/sokoban/game/engine"
	"github.com/wricardo/sokoban/game/service"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
	// ErrCorruptSession marks a stored session whose board cannot be
	// restored onto its level.
	ErrCorruptSession = errors.New("stored session is corrupt")
)

// Manager keeps live boards in memory under lowercase ids and mirrors them to
// an optional store. A session missing from memory is restored from the store
// on first use.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*service.Session
	store    SessionPersistence
}

// NewManager creates a manager that keeps sessions in memory only.
func NewManager() *Manager {
	return NewManagerWithPersistence(nil)
}

// NewManagerWithPersistence creates a manager backed by store.
func NewManagerWithPersistence(store SessionPersistence) *Manager {
	return &Manager{
		sessions: make(map[string]*service.Session),
		store:    store,
	}
}

// sessionKey normalizes a client-supplied id. Ids double as file names, so
// path separators and dots are rejected.
func sessionKey(id string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(id))
	if key == "" || strings.ContainsAny(key, `/\.`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	return key, nil
}

// Create starts level in a new session and checkpoints it. An empty id gets
// a generated 4-character one.
func (m *Manager) Create(id, configID string, level *engine.LevelConfig) (*service.Session, error) {
	eng, err := engine.NewEngine(level)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var key string
	if id == "" {
		key = m.freshKey()
	} else {
		if key, err = sessionKey(id); err != nil {
			return nil, err
		}
		if m.taken(key) {
			return nil, ErrSessionAlreadyExists
		}
	}

	now := time.Now()
	sess := &service.Session{
		ID:             key,
		ConfigID:       configID,
		Engine:         eng,
		Config:         level,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	m.sessions[key] = sess
	m.checkpoint(sess)
	return sess, nil
}

// Get returns a live session, restoring it from the store when it is not in
// memory. Stored boards that fail validation return ErrCorruptSession.
func (m *Manager) Get(id string) (*service.Session, error) {
	key, err := sessionKey(id)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	sess, ok := m.sessions[key]
	m.mu.RUnlock()
	if ok {
		return sess, nil
	}

	if m.store == nil || !m.store.Exists(key) {
		return nil, ErrSessionNotFound
	}
	restored, err := m.store.Load(key)
	if err != nil {
		return nil, fmt.Errorf("restore session %s: %w", key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another caller may have restored it first; keep the live copy.
	if live, ok := m.sessions[key]; ok {
		return live, nil
	}
	m.sessions[key] = restored
	return restored, nil
}

// List returns the live sessions, oldest first.
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	result := make([]*service.Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		result = append(result, sess)
	}
	m.mu.RUnlock()

	slices.SortFunc(result, func(a, b *service.Session) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return result
}

// Delete removes a session from memory and from the store.
func (m *Manager) Delete(id string) error {
	key, err := sessionKey(id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	_, live := m.sessions[key]
	delete(m.sessions, key)

	if m.store != nil && m.store.Exists(key) {
		if err := m.store.Delete(key); err != nil {
			return fmt.Errorf("failed to delete persisted session: %w", err)
		}
		return nil
	}
	if !live {
		return ErrSessionNotFound
	}
	return nil
}

// Evict drops a session from memory and leaves the store alone.
func (m *Manager) Evict(id string) error {
	key, err := sessionKey(id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[key]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, key)
	return nil
}

// Touch marks a session as used now. The new time reaches the store with the
// next checkpoint.
func (m *Manager) Touch(id string) error {
	sess, err := m.live(id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	sess.LastAccessedAt = time.Now()
	m.mu.Unlock()
	return nil
}

// Checkpoint writes a live session's board, queue and history to the store.
func (m *Manager) Checkpoint(id string) error {
	sess, err := m.live(id)
	if err != nil {
		return err
	}
	if m.store == nil {
		return nil
	}
	return m.store.Save(sess)
}

// EvictIdle drops sessions not used within maxAge from memory and returns
// them. Each one is checkpointed first so it can be restored later.
func (m *Manager) EvictIdle(maxAge time.Duration) []*service.Session {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	var evicted []*service.Session
	for key, sess := range m.sessions {
		if !sess.LastAccessedAt.Before(cutoff) {
			continue
		}
		m.checkpoint(sess)
		delete(m.sessions, key)
		evicted = append(evicted, sess)
	}
	return evicted
}

// LoadAll restores every stored session that is not live yet and returns how
// many were restored. Corrupt sessions are logged and skipped.
func (m *Manager) LoadAll() (int, error) {
	if m.store == nil {
		return 0, nil
	}

	ids, err := m.store.ListAll()
	if err != nil {
		return 0, fmt.Errorf("failed to list persisted sessions: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	loaded := 0
	for _, id := range ids {
		key, err := sessionKey(id)
		if err != nil {
			log.Printf("Warning: Skipping stored session with bad id %q", id)
			continue
		}
		if _, ok := m.sessions[key]; ok {
			continue
		}
		sess, err := m.store.Load(key)
		if err != nil {
			log.Printf("Warning: Failed to restore session %s: %v", key, err)
			continue
		}
		m.sessions[key] = sess
		loaded++
	}
	return loaded, nil
}

// CheckpointAll writes every live session to the store.
func (m *Manager) CheckpointAll() error {
	if m.store == nil {
		return nil
	}

	var errs []error
	for _, sess := range m.List() {
		if err := m.store.Save(sess); err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", sess.ID, err))
		}
	}
	return errors.Join(errs...)
}

// live returns an in-memory session without consulting the store.
func (m *Manager) live(id string) (*service.Session, error) {
	key, err := sessionKey(id)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[key]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// checkpoint saves sess and only logs failures. Callers hold the lock.
func (m *Manager) checkpoint(sess *service.Session) {
	if m.store == nil {
		return
	}
	if err := m.store.Save(sess); err != nil {
		log.Printf("Warning: Failed to persist session %s: %v", sess.ID, err)
	}
}

// taken reports whether key is live or stored. Callers hold the lock.
func (m *Manager) taken(key string) bool {
	if _, ok := m.sessions[key]; ok {
		return true
	}
	return m.store != nil && m.store.Exists(key)
}

// freshKey returns an unused 4-hex-digit id. Callers hold the write lock.
func (m *Manager) freshKey() string {
	b := make([]byte, 2)
	for {
		_, _ = rand.Read(b)
		if key := hex.EncodeToString(b); !m.taken(key) {
			return key
		}
	}
}
