package ecs

// memberSet is a sparse set of entity ids. Dense order is insertion order.
type memberSet struct {
	name   string
	typed  bool
	dense  []Entity
	sparse []int
}

func (s *memberSet) has(e Entity) bool {
	if s == nil || e == Nil || int(e)-1 >= len(s.sparse) {
		return false
	}
	idx := s.sparse[e-1]
	return idx >= 0 && idx < len(s.dense) && s.dense[idx] == e
}

// insert adds e and returns its dense index. Existing members keep their index.
func (s *memberSet) insert(e Entity) (int, bool) {
	for int(e)-1 >= len(s.sparse) {
		s.sparse = append(s.sparse, -1)
	}
	if s.has(e) {
		return s.sparse[e-1], false
	}
	s.dense = append(s.dense, e)
	s.sparse[e-1] = len(s.dense) - 1
	return len(s.dense) - 1, true
}

func (s *memberSet) len() int {
	if s == nil {
		return 0
	}
	return len(s.dense)
}

// Storage is a typed sparse set holding one T per entity.
type Storage[T any] struct {
	world  *World
	kind   Mask
	set    *memberSet
	values []T
}

// Kind returns the mask bit of this storage.
func (s *Storage[T]) Kind() Mask {
	return s.kind
}

// Attach inserts or replaces the component for e.
func (s *Storage[T]) Attach(e Entity, v T) error {
	if !s.world.IsAlive(e) {
		return ErrInvalidEntity
	}
	idx, added := s.set.insert(e)
	if added {
		s.values = append(s.values, v)
		s.world.types[e-1] |= s.kind
		return nil
	}
	s.values[idx] = v
	return nil
}

// Has reports whether e carries this component.
func (s *Storage[T]) Has(e Entity) bool {
	return s.set.has(e)
}

// Get returns a pointer to e's component, or nil. The pointer stays valid
// until the next Attach that grows the storage.
func (s *Storage[T]) Get(e Entity) *T {
	if !s.set.has(e) {
		return nil
	}
	return &s.values[s.set.sparse[e-1]]
}

// Len returns the number of entities carrying this component.
func (s *Storage[T]) Len() int {
	return s.set.len()
}

// Entities returns the dense entity list in attach order. Callers must not
// modify it.
func (s *Storage[T]) Entities() []Entity {
	return s.set.dense
}
