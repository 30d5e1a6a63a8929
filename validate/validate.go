// Command validate provides a small CLI that validates level files (JSON or
// YAML) in the ../configs directory. It checks:
//   - Structure and required fields
//   - Map tokens (N . W P B S), a single player, and size limits
//   - Box and spot counts against the win policy
//   - Message placeholders
//   - Connectivity: every box and spot can be reached by the player walking
//     around walls
//   - Boxes that start cornered away from any spot
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/sokoban/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages and warnings;
// otherwise it accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) note(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single level file.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	config, err := engine.DecodeLevelConfig(data, filepath.Ext(filePath))
	if err != nil {
		result.fail("Invalid %s: %v", strings.TrimPrefix(filepath.Ext(filePath), "."), err)
		return result
	}

	if err := engine.ValidateLevelConfig(config); err != nil {
		result.fail("%v", err)
		return result
	}

	// Validated above, so the map parses
	level, _ := engine.ParseLevel(config.Text())
	policy, _ := engine.ParseWinPolicy(string(config.WinPolicy))

	connectivity := validateConnectivity(level)
	if !connectivity.Valid {
		result.Valid = false
	}
	result.Errors = append(result.Errors, connectivity.Errors...)

	ws, err := engine.BuildWorld(config)
	if err != nil {
		result.fail("Failed to build level: %v", err)
		return result
	}
	for _, pos := range engine.StuckBoxes(ws) {
		// Under exact every box must end on a spot
		if policy == engine.WinExact {
			result.fail("Box at (%d,%d) is cornered and can never reach a spot", pos.X, pos.Y)
		} else {
			result.note("⚠ Box at (%d,%d) is cornered and can never move", pos.X, pos.Y)
		}
	}

	if result.Valid {
		result.note("✓ Name: %s", config.Name)
		result.note("✓ Grid: %dx%d", level.Bounds.Width(), level.Bounds.Height())
		result.note("✓ Boxes: %d", level.Count(engine.TokenBox))
		result.note("✓ Spots: %d", level.Count(engine.TokenSpot))
		result.note("✓ Win policy: %s", policy)
	}

	return result
}

// validateConnectivity ensures every box and spot is reachable from the
// player using 4-directional movement over any in-bounds cell that is not a
// wall. Boxes are treated as passable since they can be pushed aside.
func validateConnectivity(level *engine.Level) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	tokenAt := func(x, y int) string {
		if !level.Bounds.Contains(x, y) || x >= len(level.Rows[y]) {
			return engine.TokenNothing
		}
		return level.Rows[y][x]
	}

	var start engine.Cell
	var targets []engine.Cell
	for y, row := range level.Rows {
		for x, tok := range row {
			switch tok {
			case engine.TokenPlayer:
				start = engine.Cell{X: x, Y: y}
			case engine.TokenBox, engine.TokenSpot:
				targets = append(targets, engine.Cell{X: x, Y: y})
			}
		}
	}

	visited := map[engine.Cell]bool{start: true}
	queue := []engine.Cell{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, d := range engine.Directions {
			dx, dy := d.Delta()
			next := engine.Cell{X: current.X + dx, Y: current.Y + dy}
			if visited[next] || !level.Bounds.Contains(next.X, next.Y) || tokenAt(next.X, next.Y) == engine.TokenWall {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}

	var unreachable []string
	for _, c := range targets {
		if !visited[c] {
			unreachable = append(unreachable, fmt.Sprintf("%s at (%d,%d)", describeToken(tokenAt(c.X, c.Y)), c.X, c.Y))
		}
	}

	if len(unreachable) > 0 {
		result.fail("Connectivity failure: %d/%d boxes and spots unreachable from the player", len(unreachable), len(targets))
		for _, u := range unreachable {
			result.note("Unreachable: %s", u)
		}
	} else {
		result.note("✓ Connectivity: all %d boxes and spots reachable", len(targets))
	}

	return result
}

func describeToken(tok string) string {
	switch tok {
	case engine.TokenBox:
		return "Box"
	case engine.TokenSpot:
		return "Spot"
	}
	return "Cell"
}

// levelFiles returns every level file in dir, sorted by name.
func levelFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && engine.IsLevelFile(entry.Name()) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

// main scans ../configs (or the directory given as the first argument) and
// validates each level file, printing a concise report and exiting with
// non-zero status if any are invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}
	files, err := levelFiles(configDir)
	if err != nil {
		fmt.Printf("Error finding level files: %v\n", err)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All levels are valid!")
	} else {
		fmt.Println("❌ Some levels have errors")
		os.Exit(1)
	}
}
