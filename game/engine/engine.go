package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wricardo/sokoban/game/ecs"
)

// ErrInvalidSnapshot marks a GameState that cannot be restored onto the
// engine's level.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	SetState(state *GameState) error
	Reset() *GameState
	IsWon() bool
	GetMovesCount() uint
	GetPlayerPosition() Position

	// Tick loop
	Enqueue(direction string)
	Tick() MoveOutcome

	// Movement operations. Move and Step queue direction and run one tick;
	// under FIFO an input queued earlier is resolved first, so the result
	// describes whichever input that tick consumed.
	Move(direction string) bool
	Step(direction string) MoveOutcome
	CanMove(direction string) bool
	GetPossibleMoves() []string
	BulkMove(directions []string) []MoveOutcome

	// Configuration
	GetConfig() *LevelConfig
	SetConfig(config *LevelConfig) error

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry

	// Presentation
	Renderables() []RenderItem
}

// GameEngine implements Engine. It owns one world and runs ticks on it one at
// a time.
type GameEngine struct {
	mu     sync.Mutex
	config *LevelConfig
	world  *WorldState

	message           string
	moveHistory       []MoveHistoryEntry
	totalMoves        int
	currentMoves      []MoveHistoryEntry
	currentMovesCount int
}

// NewEngine creates a new game engine with the provided configuration
func NewEngine(config *LevelConfig) (*GameEngine, error) {
	world, err := BuildWorld(config)
	if err != nil {
		return nil, err
	}

	return &GameEngine{
		config:       config,
		world:        world,
		message:      config.messages().Welcome,
		moveHistory:  []MoveHistoryEntry{},
		currentMoves: []MoveHistoryEntry{},
	}, nil
}

// NewEngineWithDefaults creates a new game engine on the built-in level
func NewEngineWithDefaults() *GameEngine {
	engine, err := NewEngine(DefaultLevelConfig())
	if err != nil {
		panic(fmt.Sprintf("engine: built-in level is invalid: %v", err))
	}
	return engine
}

// World returns the engine's world. Callers must not tick it directly.
func (e *GameEngine) World() *WorldState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.world
}

// GetState returns a snapshot of the current game state
func (e *GameEngine) GetState() *GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

func (e *GameEngine) snapshot() *GameState {
	ws := e.world
	state := &GameState{
		Grid:              RenderGrid(ws),
		State:             ws.GamePlay.State,
		Won:               ws.GamePlay.State == Won,
		MovesCount:        ws.GamePlay.MovesCount,
		BoxesOnSpots:      ws.CountBoxesOnSpots(),
		TotalSpots:        ws.Store.Count(ws.BoxSpot),
		Width:             ws.Bounds.Width(),
		Height:            ws.Bounds.Height(),
		Message:           e.message,
		ConfigName:        e.config.Name,
		MoveHistory:       append([]MoveHistoryEntry{}, e.moveHistory...),
		TotalMoves:        e.totalMoves,
		CurrentMoves:      append([]MoveHistoryEntry{}, e.currentMoves...),
		CurrentMovesCount: e.currentMovesCount,
		LocalView3x3:      LocalView(ws),
		InputOrder:        ws.Input.Order(),
		WinPolicy:         ws.WinPolicy,
		PendingInputs:     ws.Input.Pending(),
	}
	if _, pos, ok := ws.PlayerEntity(); ok {
		state.PlayerPos = *pos
	}
	for _, item := range Renderables(ws) {
		state.Entities = append(state.Entities, EntityView{
			ID:     item.Entity,
			Kind:   item.Kind,
			X:      item.X,
			Y:      item.Y,
			Z:      item.Z,
			Sprite: item.Sprite,
		})
	}
	return state
}

// SetState restores entity positions, queued inputs, progress and history
// from a snapshot taken on the same level (used for persistence loading).
// Snapshots that do not fit the level fail with ErrInvalidSnapshot and leave
// the engine untouched.
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("%w: state cannot be nil", ErrInvalidSnapshot)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	world, err := BuildWorld(e.config)
	if err != nil {
		return err
	}
	if state.InputOrder != "" && state.InputOrder != world.Input.Order() {
		return fmt.Errorf("%w: input order %q does not match level order %q", ErrInvalidSnapshot, state.InputOrder, world.Input.Order())
	}
	if state.WinPolicy != "" && state.WinPolicy != world.WinPolicy {
		return fmt.Errorf("%w: win policy %q does not match level policy %q", ErrInvalidSnapshot, state.WinPolicy, world.WinPolicy)
	}
	for _, view := range state.Entities {
		pos := world.Positions.Get(view.ID)
		if pos == nil {
			return fmt.Errorf("%w: restore entity %s: %w", ErrInvalidSnapshot, view.ID, ecs.ErrInvalidEntity)
		}
		if world.KindOf(view.ID) != view.Kind {
			return fmt.Errorf("%w: restore entity %s: kind %q does not match level kind %q", ErrInvalidSnapshot, view.ID, view.Kind, world.KindOf(view.ID))
		}
		if !world.Bounds.Contains(view.X, view.Y) {
			return fmt.Errorf("%w: restore entity %s: position (%d, %d) is out of bounds", ErrInvalidSnapshot, view.ID, view.X, view.Y)
		}
		*pos = Position{X: view.X, Y: view.Y, Z: view.Z}
	}
	if err := world.CheckOccupancy(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	for _, d := range state.PendingInputs {
		world.Input.Push(d)
	}
	world.GamePlay.MovesCount = state.MovesCount
	Evaluate(world)

	e.world = world
	e.message = state.Message
	e.moveHistory = append([]MoveHistoryEntry{}, state.MoveHistory...)
	e.totalMoves = state.TotalMoves
	e.currentMoves = append([]MoveHistoryEntry{}, state.CurrentMoves...)
	e.currentMovesCount = state.CurrentMovesCount
	return nil
}

// Reset resets the level to its initial layout and drops queued inputs
func (e *GameEngine) Reset() *GameState {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.rebuild()
	e.message = e.config.messages().Welcome

	// Cumulative history and totals survive; only the current segment is cleared
	e.currentMoves = []MoveHistoryEntry{}
	e.currentMovesCount = 0

	return e.snapshot()
}

// rebuild replaces the world with a fresh copy of the level and returns how
// many queued inputs went with the old one. Callers hold e.mu.
func (e *GameEngine) rebuild() int {
	// The config was validated when it was set.
	world, err := BuildWorld(e.config)
	if err != nil {
		panic(fmt.Sprintf("engine: rebuild level %q: %v", e.config.Name, err))
	}
	dropped := e.world.Input.Len()
	e.world = world
	return dropped
}

// IsWon reports whether every spot is covered
func (e *GameEngine) IsWon() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.world.GamePlay.State == Won
}

// GetMovesCount returns the number of committed moves
func (e *GameEngine) GetMovesCount() uint {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.world.GamePlay.MovesCount
}

// GetPlayerPosition returns the current player position
func (e *GameEngine) GetPlayerPosition() Position {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, pos, ok := e.world.PlayerEntity(); ok {
		return *pos
	}
	return Position{}
}

// Enqueue appends a raw input token to the input queue of the current world.
// It does not tick.
func (e *GameEngine) Enqueue(direction string) {
	d, _ := ParseDirection(direction)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.world.Input.Push(d)
}

// Pending returns the number of queued inputs.
func (e *GameEngine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.world.Input.Len()
}

// Tick runs one resolution pass followed by one win pass.
func (e *GameEngine) Tick() MoveOutcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tick()
}

func (e *GameEngine) tick() MoveOutcome {
	ws := e.world
	var from Position
	if _, pos, ok := ws.PlayerEntity(); ok {
		from = *pos
	}

	out := Resolve(ws)
	Evaluate(ws)

	if !out.Consumed {
		return out
	}

	to := from
	if _, pos, ok := ws.PlayerEntity(); ok {
		to = *pos
	}
	e.message = e.describe(out)
	e.addMoveToHistory(out, from, to)
	return out
}

func (e *GameEngine) describe(out MoveOutcome) string {
	msgs := e.config.messages()
	switch {
	case e.world.GamePlay.State == Won && out.Committed:
		return fmt.Sprintf(msgs.Victory, e.world.GamePlay.MovesCount)
	case out.Committed && out.Pushed() > 0:
		return fmt.Sprintf(msgs.Pushed, out.Pushed())
	case out.Committed:
		return fmt.Sprintf(msgs.Moved, out.Direction)
	case out.Reason == ReasonInvalidDirection:
		return fmt.Sprintf("Ignored unknown input %q.", string(out.Direction))
	}
	return fmt.Sprintf(msgs.Blocked, out.Direction)
}

func (e *GameEngine) addMoveToHistory(out MoveOutcome, from, to Position) {
	e.totalMoves++
	e.currentMovesCount++
	entry := MoveHistoryEntry{
		Action:       string(out.Direction),
		FromPosition: from,
		ToPosition:   to,
		Pushed:       out.Pushed(),
		Reason:       string(out.Reason),
		MovesCount:   e.world.GamePlay.MovesCount,
		Timestamp:    time.Now().Unix(),
		Success:      out.Committed,
		MoveNumber:   e.totalMoves,
	}
	e.moveHistory = append(e.moveHistory, entry)
	e.currentMoves = append(e.currentMoves, entry)
}

// Step enqueues direction and ticks once. Under FIFO an input queued earlier
// is resolved first and its outcome is returned; direction stays queued.
func (e *GameEngine) Step(direction string) MoveOutcome {
	d, _ := ParseDirection(direction)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.world.Input.Push(d)
	return e.tick()
}

// Move is Step reporting only whether the consumed input moved the player
func (e *GameEngine) Move(direction string) bool {
	return e.Step(direction).Committed
}

// BulkMove applies every direction in order and returns each outcome.
func (e *GameEngine) BulkMove(directions []string) []MoveOutcome {
	outcomes := make([]MoveOutcome, 0, len(directions))
	for _, dir := range directions {
		outcomes = append(outcomes, e.Step(dir))
	}
	return outcomes
}

// CanMove checks if the player can move in the specified direction
func (e *GameEngine) CanMove(direction string) bool {
	return e.Plan(direction).Reason == ReasonMoved
}

// Plan reports what a move in direction would do without applying it.
func (e *GameEngine) Plan(direction string) MoveOutcome {
	d, _ := ParseDirection(direction)
	e.mu.Lock()
	defer e.mu.Unlock()
	return PlanPush(e.world, d)
}

// GetPossibleMoves returns all directions that would move the player
func (e *GameEngine) GetPossibleMoves() []string {
	var moves []string
	for _, dir := range Directions {
		if e.CanMove(string(dir)) {
			moves = append(moves, string(dir))
		}
	}
	return moves
}

// GetConfig returns the current level configuration
func (e *GameEngine) GetConfig() *LevelConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.config
}

// SetConfig switches to a new level and starts it from scratch
func (e *GameEngine) SetConfig(config *LevelConfig) error {
	world, err := BuildWorld(config)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.config = config
	e.world = world
	e.message = config.messages().Welcome
	e.moveHistory = []MoveHistoryEntry{}
	e.totalMoves = 0
	e.currentMoves = []MoveHistoryEntry{}
	e.currentMovesCount = 0
	return nil
}

// GetMoveHistory returns the cumulative move history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]MoveHistoryEntry{}, e.moveHistory...)
}

// GetLastMove returns the last move made, or nil if no moves
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.moveHistory) == 0 {
		return nil
	}
	last := e.moveHistory[len(e.moveHistory)-1]
	return &last
}

// Renderables returns the z-ordered render items of the current world
func (e *GameEngine) Renderables() []RenderItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Renderables(e.world)
}
