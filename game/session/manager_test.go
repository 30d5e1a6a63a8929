package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/sokoban/game/engine"
)

// createTestConfig is a 6x5 room: player at (2,2), box at (3,2), spot at (4,2).
// One push right solves it.
func createTestConfig() *engine.LevelConfig {
	return &engine.LevelConfig{
		Name:        "Test Config",
		Description: "Test configuration",
		Map: []string{
			"W W W W W W",
			"W . . . . W",
			"W . P B S W",
			"W . . . . W",
			"W W W W W W",
		},
		Messages: engine.DefaultMessages(),
	}
}

func TestManager_Create(t *testing.T) {
	manager := NewManager()
	if _, err := manager.Create("room-a", "test", createTestConfig()); err != nil {
		t.Fatalf("Failed to seed session: %v", err)
	}

	tests := []struct {
		name    string
		id      string
		wantID  string
		wantErr error
	}{
		{"custom id", "room-b", "room-b", nil},
		{"id is lowercased and trimmed", "  Room-C ", "room-c", nil},
		{"duplicate id", "room-a", "", ErrSessionAlreadyExists},
		{"duplicate in another case", "ROOM-A", "", ErrSessionAlreadyExists},
		{"path separator", "../escape", "", ErrInvalidSessionID},
		{"blank id", "   ", "", ErrInvalidSessionID},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			sess, err := manager.Create(test.id, "test", createTestConfig())
			if test.wantErr != nil {
				if !errors.Is(err, test.wantErr) {
					t.Fatalf("Expected %v, got %v", test.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Failed to create session: %v", err)
			}
			if sess.ID != test.wantID {
				t.Errorf("Expected ID %q, got %q", test.wantID, sess.ID)
			}
			if sess.ConfigID != "test" {
				t.Errorf("Expected config ID 'test', got %q", sess.ConfigID)
			}
			if sess.Solved() {
				t.Error("New session should not start solved")
			}
		})
	}

	t.Run("level without a box", func(t *testing.T) {
		level := createTestConfig()
		level.Map[2] = "W . P . S W"
		if _, err := manager.Create("no-box", "test", level); err == nil {
			t.Fatal("Expected an error for a level without boxes")
		}
		if _, err := manager.Get("no-box"); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Rejected level should not leave a session behind, got %v", err)
		}
	})
}

func TestManager_GetReturnsLiveBoard(t *testing.T) {
	manager := NewManager()
	sess, _ := manager.Create("board", "test", createTestConfig())
	if !sess.Engine.Move("right") {
		t.Fatal("Expected the push to commit")
	}

	got, err := manager.Get("BOARD")
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if got != sess {
		t.Fatal("Expected the same live session")
	}
	if !got.Solved() || got.Engine.GetMovesCount() != 1 {
		t.Errorf("Expected solved board after one move, got won=%v moves=%d", got.Solved(), got.Engine.GetMovesCount())
	}

	if _, err := manager.Get("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
	if _, err := manager.Get("a.b"); !errors.Is(err, ErrInvalidSessionID) {
		t.Errorf("Expected ErrInvalidSessionID, got %v", err)
	}
}

func TestManager_List(t *testing.T) {
	manager := NewManager()
	for _, id := range []string{"first", "second", "third"} {
		if _, err := manager.Create(id, "test", createTestConfig()); err != nil {
			t.Fatalf("Failed to create %s: %v", id, err)
		}
	}
	// Same creation time falls back to id order.
	stamp := time.Now()
	for _, sess := range manager.List() {
		sess.CreatedAt = stamp
	}
	manager.sessions["first"].CreatedAt = stamp.Add(-time.Minute)

	var ids []string
	for _, sess := range manager.List() {
		ids = append(ids, sess.ID)
	}
	want := []string{"first", "second", "third"}
	if len(ids) != len(want) {
		t.Fatalf("Expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, ids)
			break
		}
	}
}

func TestManager_DeleteAndEvict(t *testing.T) {
	manager := NewManager()
	manager.Create("gone", "test", createTestConfig())
	manager.Create("evicted", "test", createTestConfig())

	if err := manager.Delete("GONE"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if err := manager.Delete("gone"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound on second delete, got %v", err)
	}

	if err := manager.Evict("evicted"); err != nil {
		t.Fatalf("Failed to evict: %v", err)
	}
	// Without a store an evicted board is gone for good.
	if _, err := manager.Get("evicted"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound after evict, got %v", err)
	}
	if err := manager.Evict("evicted"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound on second evict, got %v", err)
	}
}

func TestManager_Touch(t *testing.T) {
	manager := NewManager()
	sess, _ := manager.Create("touched", "test", createTestConfig())
	old := time.Now().Add(-time.Hour)
	sess.LastAccessedAt = old

	if err := manager.Touch("Touched"); err != nil {
		t.Fatalf("Failed to touch: %v", err)
	}
	if !sess.LastAccessedAt.After(old) {
		t.Error("Expected Touch to move LastAccessedAt forward")
	}
	if err := manager.Touch("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_EvictIdle(t *testing.T) {
	manager := NewManager()
	idle, _ := manager.Create("idle", "test", createTestConfig())
	manager.Create("busy", "test", createTestConfig())
	idle.Engine.Move("right")
	idle.LastAccessedAt = time.Now().Add(-2 * time.Hour)

	evicted := manager.EvictIdle(time.Hour)
	if len(evicted) != 1 || evicted[0].ID != "idle" {
		t.Fatalf("Expected only 'idle' evicted, got %v", evicted)
	}
	if !evicted[0].Solved() {
		t.Error("Expected evicted board to keep its solved state")
	}
	if _, err := manager.Get("busy"); err != nil {
		t.Errorf("Recently used session should stay live: %v", err)
	}
	if len(manager.List()) != 1 {
		t.Errorf("Expected 1 live session, got %d", len(manager.List()))
	}
}

func TestManager_SessionIsolation(t *testing.T) {
	manager := NewManager()
	pushed, _ := manager.Create("pushed", "test", createTestConfig())
	idle, _ := manager.Create("idle", "test", createTestConfig())

	pushed.Engine.Move("right")

	if !pushed.Solved() {
		t.Error("Expected pushed board to be solved")
	}
	if idle.Solved() || idle.Engine.GetMovesCount() != 0 {
		t.Errorf("Push leaked into another board: won=%v moves=%d", idle.Solved(), idle.Engine.GetMovesCount())
	}
	if pos := idle.Engine.GetPlayerPosition(); pos.X != 2 || pos.Y != 2 {
		t.Errorf("Expected idle player at (2, 2), got (%d, %d)", pos.X, pos.Y)
	}
}

func TestManager_ConcurrentPlay(t *testing.T) {
	manager := NewManager()
	const players = 20

	var wg sync.WaitGroup
	ids := make(chan string, players)
	for i := 0; i < players; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess, err := manager.Create("", "test", createTestConfig())
			if err != nil {
				t.Errorf("Failed to create session: %v", err)
				return
			}
			got, err := manager.Get(sess.ID)
			if err != nil {
				t.Errorf("Failed to get session: %v", err)
				return
			}
			got.Engine.Move("right")
			manager.Touch(sess.ID)
			ids <- sess.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		if seen[id] {
			t.Errorf("Duplicate generated ID %s", id)
		}
		seen[id] = true
		sess, _ := manager.Get(id)
		if !sess.Solved() {
			t.Errorf("Session %s should be solved", id)
		}
	}
	if len(seen) != players {
		t.Errorf("Expected %d sessions, got %d", players, len(seen))
	}
}

func TestManager_SessionIDGeneration(t *testing.T) {
	manager := NewManager()
	for i := 0; i < 100; i++ {
		sess, err := manager.Create("", "test", createTestConfig())
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if len(sess.ID) != 4 {
			t.Errorf("Expected 4-character ID, got %q", sess.ID)
		}
		for _, c := range sess.ID {
			if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
				t.Errorf("Expected lowercase hex ID, got %q", sess.ID)
				break
			}
		}
	}
	if len(manager.List()) != 100 {
		t.Errorf("Expected 100 distinct sessions, got %d", len(manager.List()))
	}
}
