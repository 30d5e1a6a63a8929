package engine

import (
	"strings"

	"github.com/wricardo/sokoban/game/ecs"
)

const (
	// Validation constants
	MinGridSize         = 3
	MaxGridSize         = 50
	MaxBulkMoves        = 50
	WebSocketBufferSize = 256
)

// Draw layers assigned by the level loader.
const (
	LayerFloor  = 5
	LayerSpot   = 9
	LayerObject = 10
)

// Position is an integer grid cell plus a draw layer. Z never takes part in
// movement or win checks.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// Cell drops the draw layer.
func (p Position) Cell() Cell {
	return Cell{X: p.X, Y: p.Y}
}

// Cell is an (x, y) grid key.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Bounds holds the inclusive maximum coordinates of a level.
type Bounds struct {
	MaxX int `json:"max_x"`
	MaxY int `json:"max_y"`
}

// Contains reports whether (x, y) lies inside [0, MaxX] x [0, MaxY].
func (b Bounds) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x <= b.MaxX && y <= b.MaxY
}

// Width returns the number of columns.
func (b Bounds) Width() int { return b.MaxX + 1 }

// Height returns the number of rows.
func (b Bounds) Height() int { return b.MaxY + 1 }

// Renderable is an opaque asset reference used only for presentation.
type Renderable struct {
	Path string `json:"path"`
}

// Direction is a directional input event. Values outside Up, Down, Left and
// Right are carried through the queue and ignored by the resolver.
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// Directions lists the recognized directions in a fixed order.
var Directions = []Direction{Up, Down, Left, Right}

// ParseDirection normalizes s into a Direction. Unrecognized input is returned
// as-is with ok == false.
func ParseDirection(s string) (Direction, bool) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	return d, d.Valid()
}

// Valid reports whether d is one of the four recognized directions.
func (d Direction) Valid() bool {
	switch d {
	case Up, Down, Left, Right:
		return true
	}
	return false
}

// Delta returns the unit vector of d.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	}
	return 0, 0
}

// GamePlayState is the win/no-win state of the level.
type GamePlayState string

const (
	Playing GamePlayState = "Playing"
	Won     GamePlayState = "Won"
)

// GamePlay is the singleton progress resource. MovesCount is written only by
// the resolver and State only by the win detector.
type GamePlay struct {
	State      GamePlayState `json:"state"`
	MovesCount uint          `json:"moves_count"`
}

// EntityView is the serialized form of one entity.
type EntityView struct {
	ID     ecs.Entity `json:"id"`
	Kind   string     `json:"kind"`
	X      int        `json:"x"`
	Y      int        `json:"y"`
	Z      int        `json:"z"`
	Sprite string     `json:"sprite,omitempty"`
}

// GameState is a JSON snapshot of an engine.
type GameState struct {
	Grid         []string           `json:"grid"`
	Entities     []EntityView       `json:"entities"`
	PlayerPos    Position           `json:"player_pos"`
	State        GamePlayState      `json:"state"`
	Won          bool               `json:"won"`
	MovesCount   uint               `json:"moves_count"`
	BoxesOnSpots int                `json:"boxes_on_spots"`
	TotalSpots   int                `json:"total_spots"`
	Width        int                `json:"width"`
	Height       int                `json:"height"`
	Message      string             `json:"message"`
	ConfigName   string             `json:"config_name"`
	MoveHistory  []MoveHistoryEntry `json:"move_history"`
	TotalMoves   int                `json:"total_moves"`

	// CurrentMoves tracks only the moves since the last reset. MoveHistory
	// stays cumulative.
	CurrentMoves      []MoveHistoryEntry `json:"current_moves"`
	CurrentMovesCount int                `json:"current_moves_count"`

	// Level policies and inputs still waiting for a tick
	InputOrder    InputOrder  `json:"input_order,omitempty"`
	WinPolicy     WinPolicy   `json:"win_policy,omitempty"`
	PendingInputs []Direction `json:"pending_inputs,omitempty"`

	// Computed helper views
	LocalView3x3  []string `json:"local_view_3x3,omitempty"`
	PossibleMoves []string `json:"possible_moves,omitempty"`
}

// MoveHistoryEntry records one consumed input.
type MoveHistoryEntry struct {
	Action       string   `json:"action"`
	FromPosition Position `json:"from_position"`
	ToPosition   Position `json:"to_position"`
	Pushed       int      `json:"pushed"`
	Reason       string   `json:"reason"`
	MovesCount   uint     `json:"moves_count"`
	Timestamp    int64    `json:"timestamp"`
	Success      bool     `json:"success"`
	MoveNumber   int      `json:"move_number"`
}
