package engine

import (
	"github.com/wricardo/sokoban/game/ecs"
)

// MoveReason explains the result of one resolver pass.
type MoveReason string

const (
	ReasonEmptyQueue       MoveReason = "empty_queue"
	ReasonInvalidDirection MoveReason = "invalid_direction"
	ReasonMoved            MoveReason = "moved"
	ReasonBlockedImmovable MoveReason = "blocked_immovable"
	ReasonBlockedBoundary  MoveReason = "blocked_boundary"
	ReasonNoPlayer         MoveReason = "no_player"
)

// MoveOutcome reports what one resolver pass did.
type MoveOutcome struct {
	Direction Direction    `json:"direction,omitempty"`
	Consumed  bool         `json:"consumed"`
	Committed bool         `json:"committed"`
	Shifted   []ecs.Entity `json:"shifted,omitempty"`
	Reason    MoveReason   `json:"reason"`
	BlockedAt *Position    `json:"blocked_at,omitempty"`
}

// Pushed returns how many entities other than the player moved.
func (o MoveOutcome) Pushed() int {
	if !o.Committed || len(o.Shifted) == 0 {
		return 0
	}
	return len(o.Shifted) - 1
}

// Resolve consumes at most one input event and applies it: the player and
// every contiguous Movable entity ahead of it shift one cell, unless the ray
// hits an Immovable entity or the map edge first. MovesCount grows by one per
// committed move.
func Resolve(ws *WorldState) MoveOutcome {
	player, _, ok := ws.PlayerEntity()
	if !ok {
		return MoveOutcome{Reason: ReasonNoPlayer}
	}

	dir, ok := ws.Input.Pop()
	if !ok {
		return MoveOutcome{Reason: ReasonEmptyQueue}
	}

	out := planPush(ws, player, dir)
	out.Consumed = true
	if out.Reason != ReasonMoved {
		return out
	}

	dx, dy := dir.Delta()
	for _, e := range out.Shifted {
		pos := ws.Positions.Get(e)
		if !ws.Bounds.Contains(pos.X+dx, pos.Y+dy) {
			out.Shifted = nil
			out.Reason = ReasonBlockedBoundary
			out.BlockedAt = &Position{X: pos.X + dx, Y: pos.Y + dy}
			return out
		}
	}
	for _, e := range out.Shifted {
		pos := ws.Positions.Get(e)
		pos.X += dx
		pos.Y += dy
	}
	out.Committed = true
	ws.GamePlay.MovesCount++
	return out
}

// PlanPush reports what a move in dir would do without mutating the world or
// the input queue.
func PlanPush(ws *WorldState, dir Direction) MoveOutcome {
	player, _, ok := ws.PlayerEntity()
	if !ok {
		return MoveOutcome{Direction: dir, Reason: ReasonNoPlayer}
	}
	return planPush(ws, player, dir)
}

func planPush(ws *WorldState, player ecs.Entity, dir Direction) MoveOutcome {
	out := MoveOutcome{Direction: dir}
	if !dir.Valid() {
		out.Reason = ReasonInvalidDirection
		return out
	}

	movableAt, immovableAt := occupancy(ws)
	dx, dy := dir.Delta()
	origin := ws.Positions.Get(player)

	var pending []ecs.Entity
	x, y := origin.X, origin.Y
	for ws.Bounds.Contains(x, y) {
		c := Cell{X: x, Y: y}
		if e, ok := movableAt[c]; ok {
			pending = append(pending, e)
		} else if _, ok := immovableAt[c]; ok {
			out.Reason = ReasonBlockedImmovable
			out.BlockedAt = &Position{X: x, Y: y}
			return out
		} else {
			out.Shifted = pending
			out.Reason = ReasonMoved
			return out
		}
		x += dx
		y += dy
	}

	// The ray left the map without finding room.
	out.Reason = ReasonBlockedBoundary
	out.BlockedAt = &Position{X: x, Y: y}
	return out
}

// occupancy indexes Movable and Immovable entities by cell.
func occupancy(ws *WorldState) (movableAt, immovableAt map[Cell]ecs.Entity) {
	movableAt = make(map[Cell]ecs.Entity)
	immovableAt = make(map[Cell]ecs.Entity)
	for e, pos := range ws.PositionsOf(ws.Movable) {
		movableAt[pos.Cell()] = e
	}
	for e, pos := range ws.PositionsOf(ws.Immovable) {
		immovableAt[pos.Cell()] = e
	}
	return movableAt, immovableAt
}
