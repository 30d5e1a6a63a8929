package engine

import "github.com/wricardo/sokoban/game/ecs"

// ManhattanDistance calculates the Manhattan distance between two positions
func ManhattanDistance(from, to Position) int {
	dx := from.X - to.X
	if dx < 0 {
		dx = -dx
	}
	dy := from.Y - to.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// blocked reports whether (x, y) is off the map or holds an Immovable entity.
func blocked(ws *WorldState, immovableAt map[Cell]ecs.Entity, x, y int) bool {
	if !ws.Bounds.Contains(x, y) {
		return true
	}
	_, ok := immovableAt[Cell{X: x, Y: y}]
	return ok
}

// StuckBoxes returns the boxes that sit off a spot with walls or the map edge
// on two adjacent sides. Such a box can never be pushed again.
func StuckBoxes(ws *WorldState) []Position {
	_, immovableAt := occupancy(ws)
	spots := make(map[Cell]bool)
	for _, pos := range ws.PositionsOf(ws.BoxSpot) {
		spots[pos.Cell()] = true
	}

	var stuck []Position
	for _, pos := range ws.PositionsOf(ws.Box) {
		if spots[pos.Cell()] {
			continue
		}
		up := blocked(ws, immovableAt, pos.X, pos.Y-1)
		down := blocked(ws, immovableAt, pos.X, pos.Y+1)
		left := blocked(ws, immovableAt, pos.X-1, pos.Y)
		right := blocked(ws, immovableAt, pos.X+1, pos.Y)
		if (up || down) && (left || right) {
			stuck = append(stuck, *pos)
		}
	}
	return stuck
}

// NearestSpotDistance returns, for each box, the Manhattan distance to the
// closest spot. Boxes are listed in store order.
func NearestSpotDistance(ws *WorldState) []int {
	var spots []Position
	for _, pos := range ws.PositionsOf(ws.BoxSpot) {
		spots = append(spots, *pos)
	}

	var distances []int
	for _, box := range ws.PositionsOf(ws.Box) {
		best := -1
		for _, spot := range spots {
			if d := ManhattanDistance(*box, spot); best == -1 || d < best {
				best = d
			}
		}
		distances = append(distances, best)
	}
	return distances
}
