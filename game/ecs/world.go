package ecs

import (
	"errors"
	"fmt"
	"iter"
)

var (
	ErrInvalidEntity = errors.New("invalid entity")
	ErrUnknownKind   = errors.New("unknown component kind")
)

// MaxKinds is the number of component kinds and tags a World can register.
const MaxKinds = 64

// World owns entities, their presence masks and one membership set per kind.
type World struct {
	types []Mask
	sets  []*memberSet
	names map[string]Mask
}

// NewWorld creates an empty store.
func NewWorld() *World {
	return &World{names: make(map[string]Mask)}
}

// CreateEntity allocates a new entity with no components.
func (w *World) CreateEntity() Entity {
	w.types = append(w.types, NoKinds)
	return Entity(len(w.types))
}

// Len returns the number of entities created so far.
func (w *World) Len() int {
	return len(w.types)
}

// IsAlive reports whether e was created by this world.
func (w *World) IsAlive(e Entity) bool {
	return w != nil && e != Nil && int(e) <= len(w.types)
}

// Type returns the presence mask of e.
func (w *World) Type(e Entity) Mask {
	if !w.IsAlive(e) {
		return NoKinds
	}
	return w.types[e-1]
}

// Has reports whether e carries every kind in m.
func (w *World) Has(e Entity, m Mask) bool {
	return m != NoKinds && w.Type(e).All(m)
}

// Kind returns the mask registered under name.
func (w *World) Kind(name string) (Mask, error) {
	m, ok := w.names[name]
	if !ok {
		return NoKinds, fmt.Errorf("%w: %s", ErrUnknownKind, name)
	}
	return m, nil
}

func (w *World) register(name string) (Mask, *memberSet) {
	if _, dup := w.names[name]; dup {
		panic(fmt.Sprintf("ecs: kind %q registered twice", name))
	}
	if len(w.sets) >= MaxKinds {
		panic(fmt.Sprintf("ecs: cannot register %q, limit of %d kinds reached", name, MaxKinds))
	}
	m := Mask(1) << len(w.sets)
	set := &memberSet{name: name}
	w.sets = append(w.sets, set)
	w.names[name] = m
	return m, set
}

// RegisterTag registers a presence-only kind and returns its mask bit.
func (w *World) RegisterTag(name string) Mask {
	m, _ := w.register(name)
	return m
}

// Register registers a typed component kind on w.
func Register[T any](w *World, name string) *Storage[T] {
	m, set := w.register(name)
	set.typed = true
	return &Storage[T]{world: w, kind: m, set: set}
}

// Tag attaches every tag bit in tags to e. Bits that belong to typed
// storages are rejected; attach those through their Storage.
func (w *World) Tag(e Entity, tags Mask) error {
	if !w.IsAlive(e) {
		return ErrInvalidEntity
	}
	for i, set := range w.sets {
		bit := Mask(1) << i
		if !tags.Any(bit) || set.typed {
			continue
		}
		set.insert(e)
		w.types[e-1] |= bit
		tags &^= bit
	}
	if tags != NoKinds {
		return fmt.Errorf("%w: mask %#x", ErrUnknownKind, uint64(tags))
	}
	return nil
}

// Query yields every entity carrying all kinds in mask. An empty mask
// yields nothing.
func (w *World) Query(mask Mask) iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		drive := w.smallest(mask)
		if drive == nil {
			return
		}
		for _, e := range drive.dense {
			if w.types[e-1].All(mask) && !yield(e) {
				return
			}
		}
	}
}

// Count returns the number of entities carrying all kinds in mask.
func (w *World) Count(mask Mask) int {
	n := 0
	for range w.Query(mask) {
		n++
	}
	return n
}

// smallest returns the membership set with the fewest members among mask's
// bits, or nil when mask is empty or names an unregistered bit.
func (w *World) smallest(mask Mask) *memberSet {
	if mask == NoKinds {
		return nil
	}
	var best *memberSet
	for i := range MaxKinds {
		bit := Mask(1) << i
		if !mask.Any(bit) {
			continue
		}
		if i >= len(w.sets) {
			return nil
		}
		if best == nil || w.sets[i].len() < best.len() {
			best = w.sets[i]
		}
	}
	return best
}
