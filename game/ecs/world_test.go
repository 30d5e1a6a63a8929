package ecs

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPos struct{ X, Y int }

type testSprite struct{ Path string }

type testWorld struct {
	*World
	pos    *Storage[testPos]
	sprite *Storage[testSprite]
	player Mask
	box    Mask
	mov    Mask
}

func newTestWorld(t *testing.T) *testWorld {
	t.Helper()
	w := NewWorld()
	return &testWorld{
		World:  w,
		pos:    Register[testPos](w, "position"),
		sprite: Register[testSprite](w, "sprite"),
		player: w.RegisterTag("player"),
		box:    w.RegisterTag("box"),
		mov:    w.RegisterTag("movable"),
	}
}

func (tw *testWorld) spawn(t *testing.T, p testPos, tags Mask) Entity {
	t.Helper()
	e := tw.CreateEntity()
	require.NoError(t, tw.pos.Attach(e, p))
	if tags != NoKinds {
		require.NoError(t, tw.Tag(e, tags))
	}
	return e
}

func TestCreateEntity(t *testing.T) {
	w := NewWorld()
	a := w.CreateEntity()
	b := w.CreateEntity()

	assert.True(t, a.Valid())
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, w.Len())
	assert.True(t, w.IsAlive(b))
	assert.False(t, w.IsAlive(Nil))
	assert.False(t, w.IsAlive(Entity(3)))
}

func TestStorageAttachAndGet(t *testing.T) {
	tw := newTestWorld(t)
	e := tw.spawn(t, testPos{1, 2}, NoKinds)

	got := tw.pos.Get(e)
	require.NotNil(t, got)
	assert.Equal(t, testPos{1, 2}, *got)

	got.X = 7
	assert.Equal(t, 7, tw.pos.Get(e).X, "Get returns a reference into the storage")

	require.NoError(t, tw.pos.Attach(e, testPos{3, 4}))
	assert.Equal(t, testPos{3, 4}, *tw.pos.Get(e))
	assert.Equal(t, 1, tw.pos.Len(), "re-attach replaces in place")

	assert.Nil(t, tw.sprite.Get(e))
	assert.ErrorIs(t, tw.pos.Attach(Entity(99), testPos{}), ErrInvalidEntity)
}

func TestTag(t *testing.T) {
	tw := newTestWorld(t)
	e := tw.spawn(t, testPos{}, tw.player|tw.mov)

	assert.True(t, tw.Has(e, tw.player))
	assert.True(t, tw.Has(e, tw.player|tw.mov|tw.pos.Kind()))
	assert.False(t, tw.Has(e, tw.box))
	assert.False(t, tw.Has(e, NoKinds))

	assert.ErrorIs(t, tw.Tag(e, tw.sprite.Kind()), ErrUnknownKind, "typed kinds are attached through storage")
	assert.ErrorIs(t, tw.Tag(Nil, tw.box), ErrInvalidEntity)
}

func TestQuery(t *testing.T) {
	tw := newTestWorld(t)
	player := tw.spawn(t, testPos{1, 1}, tw.player|tw.mov)
	box1 := tw.spawn(t, testPos{2, 1}, tw.box|tw.mov)
	floor := tw.spawn(t, testPos{3, 1}, NoKinds)
	box2 := tw.spawn(t, testPos{4, 1}, tw.box|tw.mov)

	for _, tc := range []struct {
		name string
		mask Mask
		want []Entity
	}{
		{"position only", tw.pos.Kind(), []Entity{player, box1, floor, box2}},
		{"position and player", tw.pos.Kind() | tw.player, []Entity{player}},
		{"position and movable", tw.pos.Kind() | tw.mov, []Entity{player, box1, box2}},
		{"position box movable", tw.pos.Kind() | tw.box | tw.mov, []Entity{box1, box2}},
		{"nothing carries sprite", tw.pos.Kind() | tw.sprite.Kind(), nil},
		{"empty mask", NoKinds, nil},
		{"unregistered bit", Mask(1) << 40, nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := slices.Collect(tw.Query(tc.mask))
			assert.Equal(t, tc.want, got)
			assert.Equal(t, len(tc.want), tw.Count(tc.mask))
		})
	}
}

func TestQueryOrderIsStable(t *testing.T) {
	tw := newTestWorld(t)
	for i := range 10 {
		tw.spawn(t, testPos{i, 0}, tw.mov)
	}
	first := slices.Collect(tw.Query(tw.pos.Kind() | tw.mov))
	second := slices.Collect(tw.Query(tw.pos.Kind() | tw.mov))
	assert.Equal(t, first, second)
}

func TestEachAndJoin(t *testing.T) {
	tw := newTestWorld(t)
	a := tw.spawn(t, testPos{0, 0}, tw.box)
	b := tw.spawn(t, testPos{1, 0}, tw.box)
	tw.spawn(t, testPos{2, 0}, tw.player)
	require.NoError(t, tw.sprite.Attach(b, testSprite{"box.png"}))

	var boxes []testPos
	for _, p := range Each(tw.pos, tw.box) {
		boxes = append(boxes, *p)
	}
	assert.Equal(t, []testPos{{0, 0}, {1, 0}}, boxes)

	for e, p := range Each(tw.pos, tw.box) {
		if e == a {
			p.Y = 5
		}
	}
	assert.Equal(t, 5, tw.pos.Get(a).Y, "Each yields mutable references")

	rows := slices.Collect(Join(tw.pos, tw.sprite, NoKinds))
	require.Len(t, rows, 1)
	assert.Equal(t, b, rows[0].Entity)
	assert.Equal(t, "box.png", rows[0].B.Path)
	assert.Equal(t, testPos{1, 0}, *rows[0].A)
}

func TestEarlyBreak(t *testing.T) {
	tw := newTestWorld(t)
	for i := range 5 {
		tw.spawn(t, testPos{i, 0}, tw.box)
	}
	n := 0
	for range tw.Query(tw.box) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestRegisterLimits(t *testing.T) {
	w := NewWorld()
	w.RegisterTag("a")
	assert.Panics(t, func() { w.RegisterTag("a") })

	m, err := w.Kind("a")
	require.NoError(t, err)
	assert.Equal(t, Mask(1), m)
	_, err = w.Kind("missing")
	assert.ErrorIs(t, err, ErrUnknownKind)

	full := NewWorld()
	for i := range MaxKinds {
		full.RegisterTag(string(rune('A' + i)))
	}
	assert.Panics(t, func() { full.RegisterTag("overflow") })
}

func TestMask(t *testing.T) {
	m := Mask(0b1011)
	assert.True(t, m.All(0b0011))
	assert.False(t, m.All(0b0111))
	assert.True(t, m.Any(0b0100|0b0001))
	assert.False(t, m.Any(0b0100))
	assert.Equal(t, 3, m.Count())
}
