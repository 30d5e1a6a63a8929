package engine

import (
	"reflect"
	"testing"
)

func TestRenderGrid(t *testing.T) {
	ws := mustLoad(t,
		"N W W W W",
		"W P B S W",
		"W . S B W",
		"W W W W W",
	)

	want := []string{
		" ####",
		"#@$.#",
		"#_.$#",
		"#####",
	}
	if got := RenderGrid(ws); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected grid %q, got %q", want, got)
	}

	tick(ws, Right)
	want[1] = "#_@*#"
	if got := RenderGrid(ws); !reflect.DeepEqual(got, want) {
		t.Errorf("After push expected grid %q, got %q", want, got)
	}
}

func TestRenderables_Order(t *testing.T) {
	ws := mustLoad(t, "W S", "P B")

	items := Renderables(ws)
	if len(items) != 8 {
		t.Fatalf("Expected 8 render items, got %d", len(items))
	}
	for i := 1; i < len(items); i++ {
		prev, cur := items[i-1], items[i]
		if prev.Z > cur.Z || (prev.Z == cur.Z && prev.Entity > cur.Entity) {
			t.Errorf("items %d and %d out of order: %+v then %+v", i-1, i, prev, cur)
		}
	}
	if items[0].Kind != KindFloor || items[len(items)-1].Z != LayerObject {
		t.Errorf("Expected floors first and objects last, got %+v ... %+v", items[0], items[len(items)-1])
	}
}

func TestLocalView(t *testing.T) {
	ws := mustLoad(t, "P B", ". S")

	want := []string{"   ", " @$", " _."}
	if got := LocalView(ws); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestDescribeGlyph(t *testing.T) {
	tests := map[byte]string{
		GlyphWall:         "wall",
		GlyphBoxOnSpot:    "box on spot",
		GlyphPlayerOnSpot: "player on spot",
		GlyphFloor:        "floor",
		GlyphNothing:      "nothing",
	}
	for glyph, want := range tests {
		if got := DescribeGlyph(glyph); got != want {
			t.Errorf("DescribeGlyph(%q): expected %q, got %q", glyph, want, got)
		}
	}
}

func TestStuckBoxesAndDistances(t *testing.T) {
	ws := mustLoad(t,
		"W W W W W",
		"W B . S W",
		"W . B P W",
		"W W W W W",
	)

	stuck := StuckBoxes(ws)
	if len(stuck) != 1 || stuck[0].X != 1 || stuck[0].Y != 1 {
		t.Errorf("Expected the corner box at (1,1) to be stuck, got %+v", stuck)
	}

	dist := NearestSpotDistance(ws)
	if !reflect.DeepEqual(dist, []int{2, 2}) {
		t.Errorf("Expected distances [2 2], got %v", dist)
	}
}
