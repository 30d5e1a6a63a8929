package engine

import (
	"encoding/json"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/wricardo/sokoban/game/ecs"
)

func TestNewEngine(t *testing.T) {
	config := createTestConfig()
	engine, err := NewEngine(config)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	state := engine.GetState()
	if state.ConfigName != "Test Level" {
		t.Errorf("Expected config name 'Test Level', got '%s'", state.ConfigName)
	}
	if state.Message != "Welcome to the test level!" {
		t.Errorf("Expected welcome message, got '%s'", state.Message)
	}
	if state.State != Playing || state.Won {
		t.Errorf("Expected Playing, got %s", state.State)
	}
	if state.Width != 6 || state.Height != 5 {
		t.Errorf("Expected 6x5, got %dx%d", state.Width, state.Height)
	}
	if state.PlayerPos.X != 2 || state.PlayerPos.Y != 2 {
		t.Errorf("Expected player at (2,2), got (%d,%d)", state.PlayerPos.X, state.PlayerPos.Y)
	}
	if state.TotalSpots != 1 || state.BoxesOnSpots != 0 {
		t.Errorf("Expected 0/1 spots covered, got %d/%d", state.BoxesOnSpots, state.TotalSpots)
	}
	if len(state.Grid) != 5 || state.Grid[2] != "#_@$.#" {
		t.Errorf("Unexpected grid %q", state.Grid)
	}
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	config := createTestConfig()
	config.Name = ""

	if _, err := NewEngine(config); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestNewEngineWithDefaults(t *testing.T) {
	engine := NewEngineWithDefaults()
	state := engine.GetState()

	if state.ConfigName != "classic" {
		t.Errorf("Expected classic level, got %s", state.ConfigName)
	}
	if state.Width != 8 || state.Height != 9 {
		t.Errorf("Expected 8x9, got %dx%d", state.Width, state.Height)
	}
	if state.PlayerPos.X != 2 || state.PlayerPos.Y != 4 {
		t.Errorf("Expected player at (2,4), got (%d,%d)", state.PlayerPos.X, state.PlayerPos.Y)
	}
}

func TestEngine_MoveAndPush(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())

	if !engine.Move("up") {
		t.Fatal("Expected move up to succeed")
	}
	if engine.GetState().Message != "Went up" {
		t.Errorf("Expected moved message, got %q", engine.GetState().Message)
	}

	if engine.Move("up") {
		t.Error("Expected wall to block second move up")
	}
	if engine.GetState().Message != "Blocked up" {
		t.Errorf("Expected blocked message, got %q", engine.GetState().Message)
	}
	if engine.GetMovesCount() != 1 {
		t.Errorf("Expected moves_count 1, got %d", engine.GetMovesCount())
	}

	engine.Move("down")
	out := engine.Step("right")
	if !out.Committed || out.Pushed() != 1 {
		t.Fatalf("Expected push of one box, got %+v", out)
	}
	if !engine.IsWon() {
		t.Error("Expected level to be won")
	}
	if engine.GetState().Message != "Won in 3" {
		t.Errorf("Expected victory message, got %q", engine.GetState().Message)
	}

	state := engine.GetState()
	if state.BoxesOnSpots != 1 || !state.Won {
		t.Errorf("Expected 1/1 spots and won, got %d/%d won=%v", state.BoxesOnSpots, state.TotalSpots, state.Won)
	}
}

func TestEngine_CanMoveAndPossibleMoves(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())

	tests := []struct {
		direction string
		expected  bool
	}{
		{"up", true},
		{"down", true},
		{"left", true},
		{"right", true},
		{"sideways", false},
	}
	for _, test := range tests {
		if got := engine.CanMove(test.direction); got != test.expected {
			t.Errorf("CanMove(%s): expected %v, got %v", test.direction, test.expected, got)
		}
	}
	if engine.GetMovesCount() != 0 {
		t.Error("CanMove must not change the world")
	}

	engine.Move("up")
	moves := engine.GetPossibleMoves()
	want := []string{"down", "left", "right"}
	if !reflect.DeepEqual(moves, want) {
		t.Errorf("Expected possible moves %v, got %v", want, moves)
	}
}

func TestEngine_EnqueueAndTick(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())

	engine.Enqueue("left")
	engine.Enqueue("LEFT")
	engine.Enqueue("bogus")
	if engine.Pending() != 3 {
		t.Fatalf("Expected 3 pending inputs, got %d", engine.Pending())
	}

	reasons := []MoveReason{ReasonMoved, ReasonBlockedImmovable, ReasonInvalidDirection, ReasonEmptyQueue}
	for i, want := range reasons {
		if out := engine.Tick(); out.Reason != want {
			t.Errorf("tick %d: expected %s, got %s", i, want, out.Reason)
		}
	}

	history := engine.GetMoveHistory()
	if len(history) != 3 {
		t.Fatalf("Expected 3 history entries for consumed inputs, got %d", len(history))
	}
	if !history[0].Success || history[1].Success || history[2].Success {
		t.Errorf("Unexpected success flags: %+v", history)
	}
	if history[2].Reason != string(ReasonInvalidDirection) {
		t.Errorf("Expected invalid_direction in history, got %s", history[2].Reason)
	}
}

func TestEngine_StepBehindQueuedInput(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())
	engine.Enqueue("up")

	out := engine.Step("right")
	if out.Direction != Up || !out.Committed {
		t.Fatalf("Expected the earlier up to be resolved, got %+v", out)
	}
	if engine.Pending() != 1 {
		t.Fatalf("Expected right to stay queued, got %d pending", engine.Pending())
	}

	// Consumes the queued right from (2,1), which walks above the box.
	if !engine.Move("left") {
		t.Error("Expected the queued right to move the player")
	}
	if pos := engine.GetPlayerPosition(); pos.X != 3 || pos.Y != 1 {
		t.Errorf("Expected player at (3, 1), got (%d, %d)", pos.X, pos.Y)
	}
	if engine.IsWon() || engine.Pending() != 1 {
		t.Errorf("Expected unsolved board with left queued, got won=%v pending=%d", engine.IsWon(), engine.Pending())
	}
}

func TestEngine_BulkMove(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())

	outcomes := engine.BulkMove([]string{"left", "left", "right"})
	if len(outcomes) != 3 {
		t.Fatalf("Expected 3 outcomes, got %d", len(outcomes))
	}
	committed := []bool{true, false, true}
	for i, out := range outcomes {
		if out.Committed != committed[i] {
			t.Errorf("move %d: expected committed=%v, got %v", i, committed[i], out.Committed)
		}
	}
	if engine.GetMovesCount() != 2 {
		t.Errorf("Expected moves_count 2, got %d", engine.GetMovesCount())
	}
}

func TestEngine_ResetKeepsCumulativeHistory(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())

	engine.Move("up")
	engine.Move("left")
	state := engine.Reset()

	if state.PlayerPos.X != 2 || state.PlayerPos.Y != 2 {
		t.Errorf("Expected player back at (2,2), got (%d,%d)", state.PlayerPos.X, state.PlayerPos.Y)
	}
	if state.MovesCount != 0 {
		t.Errorf("Expected moves_count 0 after reset, got %d", state.MovesCount)
	}
	if state.TotalMoves != 2 || len(state.MoveHistory) != 2 {
		t.Errorf("Expected cumulative history of 2, got %d/%d", state.TotalMoves, len(state.MoveHistory))
	}
	if state.CurrentMovesCount != 0 || len(state.CurrentMoves) != 0 {
		t.Errorf("Expected empty current segment, got %d", state.CurrentMovesCount)
	}

	engine.Move("down")
	if last := engine.GetLastMove(); last == nil || last.MoveNumber != 3 || last.MovesCount != 1 {
		t.Errorf("Unexpected last move %+v", last)
	}
}

func TestEngine_SetStateRoundTrip(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())
	engine.Move("left")
	engine.Move("up")

	data, err := json.Marshal(engine.GetState())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var saved GameState
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	restored, _ := NewEngine(createTestConfig())
	if err := restored.SetState(&saved); err != nil {
		t.Fatalf("SetState: %v", err)
	}

	got := restored.GetState()
	if !reflect.DeepEqual(got.Grid, saved.Grid) {
		t.Errorf("Expected grid %q, got %q", saved.Grid, got.Grid)
	}
	if got.PlayerPos != saved.PlayerPos || got.MovesCount != 2 || got.TotalMoves != 2 {
		t.Errorf("Restored state differs: %+v", got)
	}
}

func TestEngine_SetStateRejectsBadSnapshots(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*GameState)
	}{
		{"unknown entity", func(s *GameState) { s.Entities[0].ID = 999 }},
		{"zero entity", func(s *GameState) { s.Entities[0].ID = ecs.Nil }},
		{"kind mismatch", func(s *GameState) { s.Entities[0].Kind = KindBox }},
		{"out of bounds", func(s *GameState) { s.Entities[len(s.Entities)-1].X = 42 }},
		{"stacked movables", func(s *GameState) {
			player := s.PlayerPos
			for i, view := range s.Entities {
				if view.Kind == KindBox {
					s.Entities[i].X, s.Entities[i].Y = player.X, player.Y
				}
			}
		}},
		{"stacked walls", func(s *GameState) {
			var walls []int
			for i, view := range s.Entities {
				if view.Kind == KindWall {
					walls = append(walls, i)
				}
			}
			s.Entities[walls[1]].X, s.Entities[walls[1]].Y = s.Entities[walls[0]].X, s.Entities[walls[0]].Y
		}},
		{"input order mismatch", func(s *GameState) { s.InputOrder = LIFO }},
		{"win policy mismatch", func(s *GameState) { s.WinPolicy = WinExact }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			engine, _ := NewEngine(createTestConfig())
			engine.Move("up")
			before := engine.GetState()

			bad := engine.GetState()
			test.modify(bad)
			err := engine.SetState(bad)
			if err == nil {
				t.Fatal("Expected SetState to fail")
			}
			if !errors.Is(err, ErrInvalidSnapshot) {
				t.Errorf("Expected ErrInvalidSnapshot, got %v", err)
			}
			if !reflect.DeepEqual(engine.GetState().Grid, before.Grid) {
				t.Error("Failed SetState must leave the world unchanged")
			}
		})
	}

	engine, _ := NewEngine(createTestConfig())
	if err := engine.SetState(nil); err == nil {
		t.Error("Expected error for nil state")
	}
}

func TestEngine_SetStateStackedBoxesCannotBePushedApart(t *testing.T) {
	config := createTestConfig()
	config.Map[1] = "W . . B . W"
	config.Map[3] = "W . . . S W"
	engine, _ := NewEngine(config)

	snapshot := engine.GetState()
	for i, view := range snapshot.Entities {
		if view.Kind == KindBox {
			snapshot.Entities[i].X, snapshot.Entities[i].Y = 3, 2
		}
	}
	if err := engine.SetState(snapshot); !errors.Is(err, ErrCellOccupied) {
		t.Fatalf("Expected ErrCellOccupied, got %v", err)
	}

	engine.Move("right")
	if err := engine.World().CheckOccupancy(); err != nil {
		t.Errorf("Occupancy broken after rejected restore: %v", err)
	}
}

func TestEngine_SetStateRestoresQueuedInputs(t *testing.T) {
	config := createTestConfig()
	config.InputOrder = LIFO
	engine, _ := NewEngine(config)
	engine.Enqueue("up")
	engine.Enqueue("left")

	saved := engine.GetState()
	if saved.InputOrder != LIFO || saved.WinPolicy != WinCoverage {
		t.Errorf("Expected lifo/coverage in snapshot, got %s/%s", saved.InputOrder, saved.WinPolicy)
	}
	if !reflect.DeepEqual(saved.PendingInputs, []Direction{Up, Left}) {
		t.Fatalf("Expected pending [up left], got %v", saved.PendingInputs)
	}

	restored, _ := NewEngine(config)
	if err := restored.SetState(saved); err != nil {
		t.Fatalf("SetState: %v", err)
	}
	for _, want := range []Direction{Left, Up} {
		if out := restored.Tick(); out.Direction != want || !out.Committed {
			t.Errorf("Expected committed %s, got %+v", want, out)
		}
	}
	if restored.Pending() != 0 {
		t.Errorf("Expected drained queue, got %d", restored.Pending())
	}
}

func TestEngine_ResetDropsQueuedInputs(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())
	engine.Enqueue("up")
	engine.Reset()
	if engine.Pending() != 0 {
		t.Fatalf("Expected reset to drop queued input, got %d", engine.Pending())
	}
	engine.Enqueue("up")
	if engine.Pending() != 1 {
		t.Errorf("Expected input after reset to be queued, got %d", engine.Pending())
	}
}

func TestEngine_EnqueueDuringRebuild(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())
	const inputs = 500

	dropped := 0
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for range inputs {
			engine.Enqueue("bogus")
		}
	}()
	go func() {
		defer wg.Done()
		for range 100 {
			engine.mu.Lock()
			dropped += engine.rebuild()
			engine.mu.Unlock()
		}
	}()
	wg.Wait()

	if got := dropped + engine.Pending(); got != inputs {
		t.Errorf("Expected every input dropped or pending, got %d of %d", got, inputs)
	}
}

func TestEngine_SetConfig(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())
	engine.Move("up")

	if err := engine.SetConfig(DefaultLevelConfig()); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}
	state := engine.GetState()
	if state.ConfigName != "classic" || state.TotalMoves != 0 {
		t.Errorf("Expected fresh classic level, got %s with %d moves", state.ConfigName, state.TotalMoves)
	}

	bad := createTestConfig()
	bad.Map = nil
	if err := engine.SetConfig(bad); err == nil {
		t.Error("Expected error for invalid config")
	}
	if engine.GetConfig().Name != "classic" {
		t.Error("Failed SetConfig must keep the previous level")
	}
}

func TestEngine_ConcurrentInputAndTicks(t *testing.T) {
	engine := NewEngineWithDefaults()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range 200 {
			engine.Enqueue(string(Directions[i%len(Directions)]))
		}
	}()
	go func() {
		defer wg.Done()
		for range 400 {
			engine.Tick()
		}
	}()
	wg.Wait()

	for engine.Pending() > 0 {
		engine.Tick()
	}
	if got := len(engine.GetMoveHistory()); got != 200 {
		t.Errorf("Expected every input consumed once, got %d history entries", got)
	}
}

func TestEngine_Renderables(t *testing.T) {
	engine, _ := NewEngine(createTestConfig())
	items := engine.Renderables()
	state := engine.GetState()

	if len(items) != len(state.Entities) {
		t.Fatalf("Expected %d items, got %d", len(state.Entities), len(items))
	}
	for i := range items {
		if items[i].Entity != state.Entities[i].ID {
			t.Errorf("item %d: entity %s vs %s", i, items[i].Entity, state.Entities[i].ID)
		}
	}
}
