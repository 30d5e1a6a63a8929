package ecs

import "iter"

// Row is one result of a two-component join.
type Row[A, B any] struct {
	Entity Entity
	A      *A
	B      *B
}

// Each yields every entity carrying s's component and all kinds in with,
// together with a pointer to the component.
func Each[T any](s *Storage[T], with Mask) iter.Seq2[Entity, *T] {
	return func(yield func(Entity, *T) bool) {
		mask := s.kind | with
		for e := range s.world.Query(mask) {
			if !yield(e, s.Get(e)) {
				return
			}
		}
	}
}

// Join yields every entity carrying both a's and b's components and all
// kinds in with.
func Join[A, B any](a *Storage[A], b *Storage[B], with Mask) iter.Seq[Row[A, B]] {
	return func(yield func(Row[A, B]) bool) {
		mask := a.kind | b.kind | with
		for e := range a.world.Query(mask) {
			if !yield(Row[A, B]{Entity: e, A: a.Get(e), B: b.Get(e)}) {
				return
			}
		}
	}
}
