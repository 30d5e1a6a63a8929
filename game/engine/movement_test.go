package engine

import (
	"strings"
	"testing"
)

func mustLoad(t *testing.T, rows ...string) *WorldState {
	t.Helper()
	ws, err := LoadLevel(strings.Join(rows, "\n"))
	if err != nil {
		t.Fatalf("LoadLevel: %v", err)
	}
	return ws
}

func playerAt(t *testing.T, ws *WorldState) Position {
	t.Helper()
	_, pos, ok := ws.PlayerEntity()
	if !ok {
		t.Fatal("no player in world")
	}
	return *pos
}

func boxCells(ws *WorldState) map[Cell]bool {
	cells := make(map[Cell]bool)
	for _, pos := range ws.PositionsOf(ws.Box) {
		cells[pos.Cell()] = true
	}
	return cells
}

func tick(ws *WorldState, dir Direction) MoveOutcome {
	ws.Input.Push(dir)
	out := Resolve(ws)
	Evaluate(ws)
	return out
}

func TestResolve_EmptyQueueIsNoop(t *testing.T) {
	ws := mustLoad(t, "W W W", "W P .", "W . W")

	out := Resolve(ws)
	if out.Consumed || out.Committed {
		t.Errorf("Expected nothing consumed, got %+v", out)
	}
	if out.Reason != ReasonEmptyQueue {
		t.Errorf("Expected reason %s, got %s", ReasonEmptyQueue, out.Reason)
	}
	if ws.GamePlay.MovesCount != 0 {
		t.Errorf("Expected moves_count 0, got %d", ws.GamePlay.MovesCount)
	}
}

func TestResolve_MoveIntoEmptyCell(t *testing.T) {
	ws := mustLoad(t, "W W W", "W P .", "W . W")

	out := tick(ws, Right)
	if !out.Committed || out.Reason != ReasonMoved {
		t.Fatalf("Expected committed move, got %+v", out)
	}
	if got := playerAt(t, ws); got.X != 2 || got.Y != 1 {
		t.Errorf("Expected player at (2,1), got (%d,%d)", got.X, got.Y)
	}
	if got := playerAt(t, ws); got.Z != LayerObject {
		t.Errorf("Expected z to stay %d, got %d", LayerObject, got.Z)
	}

	// (2,1) is the last column, so the scan runs off the map.
	out = tick(ws, Right)
	if out.Committed {
		t.Error("Expected move at the map edge to be blocked")
	}
	if out.Reason != ReasonBlockedBoundary {
		t.Errorf("Expected reason %s, got %s", ReasonBlockedBoundary, out.Reason)
	}
	if got := playerAt(t, ws); got.X != 2 || got.Y != 1 {
		t.Errorf("Expected player to stay at (2,1), got (%d,%d)", got.X, got.Y)
	}
	if ws.GamePlay.MovesCount != 1 {
		t.Errorf("Expected moves_count 1, got %d", ws.GamePlay.MovesCount)
	}
}

func TestResolve_WallBlocks(t *testing.T) {
	ws := mustLoad(t, "W W W", "W P .", "W . W")

	out := tick(ws, Left)
	if out.Committed {
		t.Error("Expected wall to block the move")
	}
	if out.Reason != ReasonBlockedImmovable {
		t.Errorf("Expected reason %s, got %s", ReasonBlockedImmovable, out.Reason)
	}
	if out.BlockedAt == nil || out.BlockedAt.X != 0 || out.BlockedAt.Y != 1 {
		t.Errorf("Expected blocked at (0,1), got %+v", out.BlockedAt)
	}
	if got := playerAt(t, ws); got.X != 1 || got.Y != 1 {
		t.Errorf("Expected player at (1,1), got (%d,%d)", got.X, got.Y)
	}
	if ws.GamePlay.MovesCount != 0 {
		t.Errorf("Expected moves_count 0, got %d", ws.GamePlay.MovesCount)
	}
}

func TestResolve_PushSingleBox(t *testing.T) {
	ws := mustLoad(t,
		"W W W W W",
		"W P B . W",
		"W W W W W",
	)

	out := tick(ws, Right)
	if !out.Committed {
		t.Fatalf("Expected push to commit, got %+v", out)
	}
	if len(out.Shifted) != 2 || out.Pushed() != 1 {
		t.Errorf("Expected player and one box shifted, got %v", out.Shifted)
	}
	if got := playerAt(t, ws); got.X != 2 {
		t.Errorf("Expected player at x=2, got %d", got.X)
	}
	if !boxCells(ws)[Cell{X: 3, Y: 1}] {
		t.Errorf("Expected box at (3,1), got %v", boxCells(ws))
	}
	if ws.GamePlay.MovesCount != 1 {
		t.Errorf("Expected moves_count 1, got %d", ws.GamePlay.MovesCount)
	}
}

func TestResolve_PushChain(t *testing.T) {
	tests := []struct {
		name      string
		row       string
		committed bool
		reason    MoveReason
		boxes     []Cell
	}{
		{"two boxes with room", "W P B B . W", true, ReasonMoved, []Cell{{3, 1}, {4, 1}}},
		{"two boxes against wall", "W P B B W W", false, ReasonBlockedImmovable, []Cell{{2, 1}, {3, 1}}},
		{"three boxes against wall", "W P B B B W", false, ReasonBlockedImmovable, []Cell{{2, 1}, {3, 1}, {4, 1}}},
		{"boxes against edge", ". P B B", false, ReasonBlockedBoundary, []Cell{{2, 1}, {3, 1}}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			width := len(strings.Fields(test.row))
			wall := strings.TrimSpace(strings.Repeat("W ", width))
			ws := mustLoad(t, wall, test.row, wall)

			out := tick(ws, Right)
			if out.Committed != test.committed {
				t.Errorf("Expected committed=%v, got %v", test.committed, out.Committed)
			}
			if out.Reason != test.reason {
				t.Errorf("Expected reason %s, got %s", test.reason, out.Reason)
			}
			cells := boxCells(ws)
			if len(cells) != len(test.boxes) {
				t.Fatalf("Expected %d boxes, got %v", len(test.boxes), cells)
			}
			for _, c := range test.boxes {
				if !cells[c] {
					t.Errorf("Expected box at (%d,%d), got %v", c.X, c.Y, cells)
				}
			}
			wantMoves := uint(0)
			if test.committed {
				wantMoves = 1
			}
			if ws.GamePlay.MovesCount != wantMoves {
				t.Errorf("Expected moves_count %d, got %d", wantMoves, ws.GamePlay.MovesCount)
			}
		})
	}
}

func TestResolve_Directions(t *testing.T) {
	tests := []struct {
		dir  Direction
		x, y int
	}{
		{Up, 2, 1},
		{Down, 2, 3},
		{Left, 1, 2},
		{Right, 3, 2},
	}

	for _, test := range tests {
		t.Run(string(test.dir), func(t *testing.T) {
			ws := mustLoad(t,
				"W W W W W",
				"W . . . W",
				"W . P . W",
				"W . . . W",
				"W W W W W",
			)
			tick(ws, test.dir)
			if got := playerAt(t, ws); got.X != test.x || got.Y != test.y {
				t.Errorf("%s: expected (%d,%d), got (%d,%d)", test.dir, test.x, test.y, got.X, got.Y)
			}
		})
	}
}

func TestResolve_InvalidDirectionIsConsumed(t *testing.T) {
	ws := mustLoad(t, "W W W", "W P .", "W . W")
	ws.Input.Push("jump")
	ws.Input.Push(Right)

	out := Resolve(ws)
	if !out.Consumed || out.Committed {
		t.Errorf("Expected invalid token consumed without a move, got %+v", out)
	}
	if out.Reason != ReasonInvalidDirection {
		t.Errorf("Expected reason %s, got %s", ReasonInvalidDirection, out.Reason)
	}
	if ws.Input.Len() != 1 {
		t.Errorf("Expected one pending input, got %d", ws.Input.Len())
	}

	out = Resolve(ws)
	if !out.Committed {
		t.Errorf("Expected the next input to move, got %+v", out)
	}
}

func TestResolve_OneEventPerTick(t *testing.T) {
	ws := mustLoad(t, "W W W W W", "W P . . W", "W W W W W")
	ws.Input.Push(Right)
	ws.Input.Push(Right)

	Resolve(ws)
	if ws.Input.Len() != 1 {
		t.Errorf("Expected one input left after a tick, got %d", ws.Input.Len())
	}
	if got := playerAt(t, ws); got.X != 2 {
		t.Errorf("Expected player at x=2, got %d", got.X)
	}
}

func TestResolve_NoPlayer(t *testing.T) {
	ws := NewWorldState(Bounds{MaxX: 2, MaxY: 2}, FIFO, WinCoverage)
	ws.Input.Push(Right)

	out := Resolve(ws)
	if out.Reason != ReasonNoPlayer || out.Consumed {
		t.Errorf("Expected no_player without consuming input, got %+v", out)
	}
	if ws.Input.Len() != 1 {
		t.Errorf("Expected input to stay queued, got %d", ws.Input.Len())
	}
}

func TestResolve_StaysInBounds(t *testing.T) {
	ws := mustLoad(t,
		". . . .",
		". B P B",
		". . B .",
	)
	inputs := []Direction{Left, Left, Left, Left, Down, Right, Right, Right, Right, Up, Up, Up, Down, Down, Down, Left}

	for i, dir := range inputs {
		tick(ws, dir)
		for _, pos := range ws.PositionsOf(ws.Movable) {
			if !ws.Bounds.Contains(pos.X, pos.Y) {
				t.Fatalf("step %d (%s): entity left the map at (%d,%d)", i, dir, pos.X, pos.Y)
			}
		}
		seen := make(map[Cell]bool)
		for _, pos := range ws.PositionsOf(ws.Movable) {
			if seen[pos.Cell()] {
				t.Fatalf("step %d (%s): two movable entities at (%d,%d)", i, dir, pos.X, pos.Y)
			}
			seen[pos.Cell()] = true
		}
	}
}

func TestPlanPush_DoesNotMutate(t *testing.T) {
	ws := mustLoad(t, "W W W W W", "W P B . W", "W W W W W")

	out := PlanPush(ws, Right)
	if out.Reason != ReasonMoved || out.Pushed() != 1 {
		t.Errorf("Expected planned push of one box, got %+v", out)
	}
	if out.Committed || out.Consumed {
		t.Error("Expected plan to be neither committed nor consumed")
	}
	if got := playerAt(t, ws); got.X != 1 {
		t.Errorf("Expected player to stay at x=1, got %d", got.X)
	}
	if ws.GamePlay.MovesCount != 0 {
		t.Errorf("Expected moves_count 0, got %d", ws.GamePlay.MovesCount)
	}
}

func TestDeterminism(t *testing.T) {
	inputs := []Direction{Up, Up, Right, Right, Down, Left, Left, Down, Right, Up}

	run := func() []string {
		ws, err := BuildWorld(DefaultLevelConfig())
		if err != nil {
			t.Fatalf("BuildWorld: %v", err)
		}
		var frames []string
		for _, dir := range inputs {
			tick(ws, dir)
			frames = append(frames, strings.Join(RenderGrid(ws), "\n"))
		}
		return frames
	}

	first, second := run(), run()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("frame %d differs:\n%s\n---\n%s", i, first[i], second[i])
		}
	}
}
