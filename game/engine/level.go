package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownToken    = errors.New("unknown level token")
	ErrNoPlayer        = errors.New("level has no player")
	ErrMultiplePlayers = errors.New("level has more than one player")
	ErrEmptyLevel      = errors.New("level is empty")
	ErrUnknownKind     = errors.New("unknown entity kind")
)

// Level tokens.
const (
	TokenNothing = "N"
	TokenFloor   = "."
	TokenWall    = "W"
	TokenPlayer  = "P"
	TokenBox     = "B"
	TokenSpot    = "S"
)

// Level is a parsed level map. Rows may be ragged; Bounds covers the widest.
type Level struct {
	Rows   [][]string
	Bounds Bounds
}

// Sprites maps an entity kind to its asset path.
type Sprites map[string]string

// DefaultSprites returns the built-in asset path for every kind.
func DefaultSprites() Sprites {
	return Sprites{
		KindFloor:   "/images/floor.png",
		KindWall:    "/images/wall.png",
		KindPlayer:  "/images/player.png",
		KindBox:     "/images/box.png",
		KindBoxSpot: "/images/box_spot.png",
	}
}

// With returns a copy of s with the non-empty entries of overrides applied.
func (s Sprites) With(overrides map[string]string) Sprites {
	out := make(Sprites, len(s))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range overrides {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// ParseLevel splits text into rows of whitespace-separated tokens and checks
// every token. Leading and trailing blank lines are ignored.
func ParseLevel(text string) (*Level, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyLevel
	}

	lines := strings.Split(text, "\n")
	level := &Level{Rows: make([][]string, len(lines))}
	width := 0
	players := 0
	for y, line := range lines {
		tokens := strings.Fields(line)
		for x, tok := range tokens {
			switch tok {
			case TokenNothing, TokenFloor, TokenWall, TokenBox, TokenSpot:
			case TokenPlayer:
				players++
			default:
				return nil, fmt.Errorf("%w %q at row %d, col %d", ErrUnknownToken, tok, y+1, x+1)
			}
		}
		level.Rows[y] = tokens
		width = max(width, len(tokens))
	}
	if width == 0 {
		return nil, ErrEmptyLevel
	}

	switch {
	case players == 0:
		return nil, ErrNoPlayer
	case players > 1:
		return nil, fmt.Errorf("%w: found %d", ErrMultiplePlayers, players)
	}

	level.Bounds = Bounds{MaxX: width - 1, MaxY: len(lines) - 1}
	return level, nil
}

// Count returns how many cells hold token.
func (l *Level) Count(token string) int {
	n := 0
	for _, row := range l.Rows {
		for _, tok := range row {
			if tok == token {
				n++
			}
		}
	}
	return n
}

// Build spawns the level into a fresh world, row by row. Every token except
// N places a floor under its object.
func (l *Level) Build(order InputOrder, policy WinPolicy, sprites Sprites) (*WorldState, error) {
	if sprites == nil {
		sprites = DefaultSprites()
	}
	ws := NewWorldState(l.Bounds, order, policy)

	for y, row := range l.Rows {
		for x, tok := range row {
			if tok == TokenNothing {
				continue
			}
			if _, err := ws.Spawn(KindFloor, Position{X: x, Y: y, Z: LayerFloor}, sprites[KindFloor]); err != nil {
				return nil, err
			}

			var kind string
			z := LayerObject
			switch tok {
			case TokenWall:
				kind = KindWall
			case TokenPlayer:
				kind = KindPlayer
			case TokenBox:
				kind = KindBox
			case TokenSpot:
				kind, z = KindBoxSpot, LayerSpot
			default:
				continue
			}
			if _, err := ws.Spawn(kind, Position{X: x, Y: y, Z: z}, sprites[kind]); err != nil {
				return nil, err
			}
		}
	}
	return ws, nil
}

// LoadLevel parses text and builds a world from it with the default policies.
// No world is returned when parsing fails.
func LoadLevel(text string) (*WorldState, error) {
	level, err := ParseLevel(text)
	if err != nil {
		return nil, err
	}
	return level.Build(FIFO, WinCoverage, DefaultSprites())
}
