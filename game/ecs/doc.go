// Package ecs provides the entity/component store used by the Sokoban engine.
//
// Entities are plain identifiers. Data lives in typed sparse sets, one per
// component kind, and presence-only tags live in membership sets. Every kind
// owns one bit of a per-entity Mask so that "does entity e carry all of these
// kinds" is a single AND.
//
// Core Types:
//
// World owns entity allocation, the presence masks and the membership sets.
// Storage[T] is a typed sparse set registered against a World. Mask is the
// bit set identifying one or more registered kinds.
//
// Usage:
//
//	w := ecs.NewWorld()
//	positions := ecs.Register[Position](w, "position")
//	player := w.RegisterTag("player")
//
//	e := w.CreateEntity()
//	positions.Attach(e, Position{X: 1, Y: 1})
//	w.Tag(e, player)
//
//	for e, pos := range ecs.Each(positions, player) {
//		fmt.Println(e, pos.X, pos.Y)
//	}
//
// Iteration:
//
// Queries drive from the smallest membership set among the requested kinds
// and test the rest against the presence mask. Iteration order is the
// attach order of the driving set, which is stable because the store has no
// removal operation.
package ecs
