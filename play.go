package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/sokoban/game/config"
	"github.com/wricardo/sokoban/game/engine"
)

// keyDirections maps single keys and words typed at the prompt to directions.
var keyDirections = map[string]engine.Direction{
	"w": engine.Up, "k": engine.Up, "up": engine.Up,
	"s": engine.Down, "j": engine.Down, "down": engine.Down,
	"a": engine.Left, "h": engine.Left, "left": engine.Left,
	"d": engine.Right, "l": engine.Right, "right": engine.Right,
}

// inputTokens expands one typed word into queue tokens. Runs of movement keys
// such as "wwdd" become one token per key; any other word is queued as-is.
func inputTokens(word string) []string {
	word = strings.ToLower(word)
	if d, ok := keyDirections[word]; ok {
		return []string{string(d)}
	}
	tokens := make([]string, 0, len(word))
	for _, r := range word {
		d, ok := keyDirections[string(r)]
		if !ok {
			return []string{word}
		}
		tokens = append(tokens, string(d))
	}
	return tokens
}

func runPlay(ctx context.Context, cmd *cli.Command) error {
	configManager, err := config.NewManager(cmd.String("config-dir"))
	if err != nil {
		return fmt.Errorf("failed to create config manager: %w", err)
	}

	name := cmd.Args().First()
	if name == "" {
		name = config.DefaultConfigName
	}
	level, err := configManager.LoadConfig(name)
	if err != nil {
		return err
	}

	eng, err := engine.NewEngine(level)
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	fmt.Fprintf(out, "%s - %s\n", level.Name, level.Description)
	fmt.Fprintln(out, "Keys: w/a/s/d or h/j/k/l or up/down/left/right, r to reset, q to quit")
	return playLoop(ctx, eng, os.Stdin, out, cmd.Duration("tick"))
}

// playLoop feeds words read from in to the engine's input queue and ticks the
// engine every interval, redrawing after each consumed input. It returns when
// the level is solved, the player quits, in is exhausted and the queue is
// empty, or ctx is done.
func playLoop(ctx context.Context, eng *engine.GameEngine, in io.Reader, out io.Writer, interval time.Duration) error {
	control := make(chan string)
	inputDone := make(chan struct{})

	go func() {
		defer close(inputDone)
		scanner := bufio.NewScanner(in)
		scanner.Split(bufio.ScanWords)
		for scanner.Scan() {
			word := scanner.Text()
			switch strings.ToLower(word) {
			case "q", "quit":
				select {
				case control <- "quit":
				case <-ctx.Done():
				}
				return
			case "r", "reset":
				select {
				case control <- "reset":
				case <-ctx.Done():
					return
				}
				continue
			}
			for _, token := range inputTokens(word) {
				eng.Enqueue(token)
			}
		}
	}()

	draw(out, eng.GetState())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	eof := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-control:
			if cmd == "quit" {
				fmt.Fprintln(out, "Bye.")
				return nil
			}
			draw(out, eng.Reset())
		case <-inputDone:
			eof = true
			inputDone = nil
		case <-ticker.C:
			if eng.Pending() == 0 {
				if eof {
					return nil
				}
				continue
			}
			outcome := eng.Tick()
			if !outcome.Consumed {
				continue
			}
			state := eng.GetState()
			draw(out, state)
			if state.Won {
				return nil
			}
		}
	}
}

func draw(out io.Writer, state *engine.GameState) {
	var b strings.Builder
	b.WriteString("\n")
	for _, row := range state.Grid {
		b.WriteString(row)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Moves: %d  Spots: %d/%d\n", state.MovesCount, state.BoxesOnSpots, state.TotalSpots)
	if state.Message != "" {
		b.WriteString(state.Message + "\n")
	}
	io.WriteString(out, b.String())
}
