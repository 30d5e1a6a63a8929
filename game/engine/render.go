package engine

import (
	"sort"

	"github.com/wricardo/sokoban/game/ecs"
)

// Grid glyphs.
const (
	GlyphNothing      = ' '
	GlyphFloor        = '_'
	GlyphWall         = '#'
	GlyphPlayer       = '@'
	GlyphPlayerOnSpot = '+'
	GlyphBox          = '$'
	GlyphBoxOnSpot    = '*'
	GlyphSpot         = '.'
)

// RenderItem pairs an entity's position with its asset.
type RenderItem struct {
	Entity ecs.Entity `json:"entity"`
	Kind   string     `json:"kind"`
	Position
	Sprite string `json:"sprite"`
}

// Renderables returns every (Position, Renderable) pair ordered by ascending
// z, ties broken by entity id.
func Renderables(ws *WorldState) []RenderItem {
	var items []RenderItem
	for row := range ecs.Join(ws.Positions, ws.Renderables, ecs.NoKinds) {
		items = append(items, RenderItem{
			Entity:   row.Entity,
			Kind:     ws.KindOf(row.Entity),
			Position: *row.A,
			Sprite:   row.B.Path,
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Z != items[j].Z {
			return items[i].Z < items[j].Z
		}
		return items[i].Entity < items[j].Entity
	})
	return items
}

// RenderGrid draws the world as one string per row.
func RenderGrid(ws *WorldState) []string {
	w, h := ws.Bounds.Width(), ws.Bounds.Height()
	cells := make([][]byte, h)
	for y := range cells {
		cells[y] = make([]byte, w)
		for x := range cells[y] {
			cells[y][x] = GlyphNothing
		}
	}

	set := func(with ecs.Mask, glyph func(byte) byte) {
		for _, pos := range ws.PositionsOf(with) {
			if ws.Bounds.Contains(pos.X, pos.Y) {
				cells[pos.Y][pos.X] = glyph(cells[pos.Y][pos.X])
			}
		}
	}
	set(ws.Floor, func(byte) byte { return GlyphFloor })
	set(ws.BoxSpot, func(byte) byte { return GlyphSpot })
	set(ws.Wall, func(byte) byte { return GlyphWall })
	set(ws.Box, func(under byte) byte {
		if under == GlyphSpot {
			return GlyphBoxOnSpot
		}
		return GlyphBox
	})
	set(ws.Player, func(under byte) byte {
		if under == GlyphSpot {
			return GlyphPlayerOnSpot
		}
		return GlyphPlayer
	})

	rows := make([]string, h)
	for y := range cells {
		rows[y] = string(cells[y])
	}
	return rows
}

// LocalView returns the 3x3 block of grid rows centered on the player. Cells
// outside the map are blank.
func LocalView(ws *WorldState) []string {
	_, pos, ok := ws.PlayerEntity()
	if !ok {
		return nil
	}
	grid := RenderGrid(ws)
	view := make([]string, 0, 3)
	for dy := -1; dy <= 1; dy++ {
		row := make([]byte, 0, 3)
		for dx := -1; dx <= 1; dx++ {
			x, y := pos.X+dx, pos.Y+dy
			if ws.Bounds.Contains(x, y) {
				row = append(row, grid[y][x])
			} else {
				row = append(row, GlyphNothing)
			}
		}
		view = append(view, string(row))
	}
	return view
}

// DescribeGlyph names a grid glyph.
func DescribeGlyph(g byte) string {
	switch g {
	case GlyphFloor:
		return "floor"
	case GlyphWall:
		return "wall"
	case GlyphPlayer:
		return "player"
	case GlyphPlayerOnSpot:
		return "player on spot"
	case GlyphBox:
		return "box"
	case GlyphBoxOnSpot:
		return "box on spot"
	case GlyphSpot:
		return "spot"
	}
	return "nothing"
}
