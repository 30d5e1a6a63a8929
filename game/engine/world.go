package engine

import (
	"errors"
	"fmt"
	"iter"
	"sort"

	"github.com/wricardo/sokoban/game/ecs"
)

// Entity kinds used in snapshots and sprite maps.
const (
	KindFloor   = "floor"
	KindWall    = "wall"
	KindPlayer  = "player"
	KindBox     = "box"
	KindBoxSpot = "box_spot"
)

// ErrCellOccupied reports two Movable or two Immovable entities on one cell.
var ErrCellOccupied = errors.New("cell occupied twice")

// WorldState is everything one tick reads and writes: the entity store, its
// storages and tag masks, the map bounds and the two singleton resources.
type WorldState struct {
	Store       *ecs.World
	Positions   *ecs.Storage[Position]
	Renderables *ecs.Storage[Renderable]

	Floor     ecs.Mask
	Player    ecs.Mask
	Box       ecs.Mask
	BoxSpot   ecs.Mask
	Wall      ecs.Mask
	Movable   ecs.Mask
	Immovable ecs.Mask

	Bounds    Bounds
	Input     *InputQueue
	GamePlay  *GamePlay
	WinPolicy WinPolicy
}

// NewWorldState creates an empty world with every kind registered and
// GamePlay initialized to {Playing, 0}.
func NewWorldState(bounds Bounds, order InputOrder, policy WinPolicy) *WorldState {
	store := ecs.NewWorld()
	ws := &WorldState{
		Store:       store,
		Positions:   ecs.Register[Position](store, "position"),
		Renderables: ecs.Register[Renderable](store, "renderable"),
		Floor:       store.RegisterTag(KindFloor),
		Player:      store.RegisterTag(KindPlayer),
		Box:         store.RegisterTag(KindBox),
		BoxSpot:     store.RegisterTag(KindBoxSpot),
		Wall:        store.RegisterTag(KindWall),
		Movable:     store.RegisterTag("movable"),
		Immovable:   store.RegisterTag("immovable"),
		Bounds:      bounds,
		Input:       NewInputQueue(order),
		GamePlay:    &GamePlay{State: Playing},
		WinPolicy:   policy,
	}
	return ws
}

// Spawn creates one entity of the given kind at pos with the given sprite.
func (ws *WorldState) Spawn(kind string, pos Position, sprite string) (ecs.Entity, error) {
	var tags ecs.Mask
	switch kind {
	case KindFloor:
		tags = ws.Floor
	case KindWall:
		tags = ws.Wall | ws.Immovable
	case KindPlayer:
		tags = ws.Player | ws.Movable
	case KindBox:
		tags = ws.Box | ws.Movable
	case KindBoxSpot:
		tags = ws.BoxSpot
	default:
		return ecs.Nil, ErrUnknownKind
	}

	e := ws.Store.CreateEntity()
	if err := ws.Positions.Attach(e, pos); err != nil {
		return ecs.Nil, err
	}
	if err := ws.Renderables.Attach(e, Renderable{Path: sprite}); err != nil {
		return ecs.Nil, err
	}
	if err := ws.Store.Tag(e, tags); err != nil {
		return ecs.Nil, err
	}
	return e, nil
}

// KindOf returns the kind name of e.
func (ws *WorldState) KindOf(e ecs.Entity) string {
	t := ws.Store.Type(e)
	switch {
	case t.Any(ws.Player):
		return KindPlayer
	case t.Any(ws.Box):
		return KindBox
	case t.Any(ws.Wall):
		return KindWall
	case t.Any(ws.BoxSpot):
		return KindBoxSpot
	case t.Any(ws.Floor):
		return KindFloor
	}
	return ""
}

// PlayerEntity returns the first entity carrying Position and Player.
func (ws *WorldState) PlayerEntity() (ecs.Entity, *Position, bool) {
	for e, pos := range ecs.Each(ws.Positions, ws.Player) {
		return e, pos, true
	}
	return ecs.Nil, nil, false
}

// PositionsOf yields the positions of every entity carrying all kinds in with.
func (ws *WorldState) PositionsOf(with ecs.Mask) iter.Seq2[ecs.Entity, *Position] {
	return ecs.Each(ws.Positions, with)
}

// sortedCells returns the (x, y) cells of every entity carrying with,
// sorted by x then y.
func (ws *WorldState) sortedCells(with ecs.Mask) []Cell {
	var cells []Cell
	for _, pos := range ws.PositionsOf(with) {
		cells = append(cells, pos.Cell())
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].X != cells[j].X {
			return cells[i].X < cells[j].X
		}
		return cells[i].Y < cells[j].Y
	})
	return cells
}

// CountBoxesOnSpots returns how many BoxSpot cells hold a Box.
func (ws *WorldState) CountBoxesOnSpots() int {
	boxes := make(map[Cell]bool)
	for _, pos := range ws.PositionsOf(ws.Box) {
		boxes[pos.Cell()] = true
	}
	n := 0
	for _, pos := range ws.PositionsOf(ws.BoxSpot) {
		if boxes[pos.Cell()] {
			n++
		}
	}
	return n
}

// CheckOccupancy returns ErrCellOccupied for the first cell that holds more
// than one Movable or more than one Immovable entity.
func (ws *WorldState) CheckOccupancy() error {
	for _, tag := range []ecs.Mask{ws.Movable, ws.Immovable} {
		seen := make(map[Cell]ecs.Entity)
		for e, pos := range ws.PositionsOf(tag) {
			if other, taken := seen[pos.Cell()]; taken {
				return fmt.Errorf("%w: entities %s and %s at (%d, %d)", ErrCellOccupied, other, e, pos.X, pos.Y)
			}
			seen[pos.Cell()] = e
		}
	}
	return nil
}
