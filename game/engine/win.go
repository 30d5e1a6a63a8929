package engine

import (
	"fmt"
	"slices"
)

// WinPolicy decides when a level counts as solved.
type WinPolicy string

const (
	// WinCoverage is won when every spot holds a box. Extra boxes are ignored.
	WinCoverage WinPolicy = "coverage"
	// WinExact is won when the box cells and spot cells are the same multiset.
	WinExact WinPolicy = "exact"
)

// ParseWinPolicy maps a level setting onto a WinPolicy. Empty means coverage.
func ParseWinPolicy(s string) (WinPolicy, error) {
	switch WinPolicy(s) {
	case "", WinCoverage:
		return WinCoverage, nil
	case WinExact:
		return WinExact, nil
	}
	return "", fmt.Errorf("unknown win policy %q", s)
}

// Evaluate recomputes GamePlay.State from box and spot positions.
func Evaluate(ws *WorldState) {
	var won bool
	switch ws.WinPolicy {
	case WinExact:
		won = slices.Equal(ws.sortedCells(ws.Box), ws.sortedCells(ws.BoxSpot))
	default:
		won = covered(ws)
	}

	if won {
		ws.GamePlay.State = Won
	} else {
		ws.GamePlay.State = Playing
	}
}

func covered(ws *WorldState) bool {
	boxes := make(map[Cell]bool)
	for _, pos := range ws.PositionsOf(ws.Box) {
		boxes[pos.Cell()] = true
	}
	for _, pos := range ws.PositionsOf(ws.BoxSpot) {
		if !boxes[pos.Cell()] {
			return false
		}
	}
	return true
}
