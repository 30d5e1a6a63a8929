// Command analyze prints quick, human-readable heuristics about the level
// files in the project's configs directory. It summarizes dimensions, box and
// spot counts, the distance from each box to its nearest spot, and boxes that
// start cornered.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/wricardo/sokoban/game/engine"
)

func main() {
	dir := "configs"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		fmt.Printf("Error reading %s: %v\n", dir, err)
		os.Exit(1)
	}

	for _, entry := range entries {
		if entry.IsDir() || !engine.IsLevelFile(entry.Name()) {
			continue
		}
		fmt.Printf("\n=== Analyzing %s ===\n", entry.Name())
		if err := analyzeConfig(os.Stdout, filepath.Join(dir, entry.Name())); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}
}

func analyzeConfig(w io.Writer, path string) error {
	config, err := engine.LoadLevelConfig(path)
	if err != nil {
		return err
	}
	ws, err := engine.BuildWorld(config)
	if err != nil {
		return err
	}

	_, player, _ := ws.PlayerEntity()
	var boxes []engine.Position
	for _, pos := range ws.PositionsOf(ws.Box) {
		boxes = append(boxes, *pos)
	}
	spots := 0
	for range ws.PositionsOf(ws.BoxSpot) {
		spots++
	}

	fmt.Fprintf(w, "Name: %s\n", config.Name)
	fmt.Fprintf(w, "Grid Size: %d x %d\n", ws.Bounds.Width(), ws.Bounds.Height())
	fmt.Fprintf(w, "Player Position: (%d, %d)\n", player.X, player.Y)
	fmt.Fprintf(w, "Boxes: %d, Spots: %d, Already on spots: %d\n", len(boxes), spots, ws.CountBoxesOnSpots())
	fmt.Fprintf(w, "Win Policy: %s, Input Order: %s\n", ws.WinPolicy, ws.Input.Order())

	// Sum of nearest-spot distances is a lower bound on the pushes needed
	// when every box has to reach a spot.
	total := 0
	for i, d := range engine.NearestSpotDistance(ws) {
		fmt.Fprintf(w, "   Box (%d, %d): nearest spot %d away\n", boxes[i].X, boxes[i].Y, d)
		total += d
	}
	fmt.Fprintf(w, "Push lower bound: %d\n", total)

	stuck := engine.StuckBoxes(ws)
	if len(stuck) > 0 {
		fmt.Fprintf(w, "⚠️  WARNING: %d boxes start cornered and can never move!\n", len(stuck))
		for _, p := range stuck {
			fmt.Fprintf(w, "   Cornered: (%d, %d)\n", p.X, p.Y)
		}
	} else {
		fmt.Fprintf(w, "✅ No box starts cornered\n")
	}
	return nil
}
