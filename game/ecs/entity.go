package ecs

import (
	"math/bits"
	"strconv"
)

// Entity identifies a group of components. The zero value is the nil entity.
type Entity uint32

// Nil is the invalid entity.
const Nil Entity = 0

func (e Entity) String() string {
	return strconv.FormatUint(uint64(e), 10)
}

// Valid reports whether e is non-nil.
func (e Entity) Valid() bool {
	return e != Nil
}

// Mask is a set of registered component kinds, one bit per kind.
type Mask uint64

// NoKinds is the empty mask.
const NoKinds Mask = 0

// All returns true only if all of the masked bits are set.
func (m Mask) All(other Mask) bool { return m&other == other }

// Any returns true if at least one of the masked bits is set.
func (m Mask) Any(other Mask) bool { return m&other != 0 }

// Count returns the number of kinds in the mask.
func (m Mask) Count() int { return bits.OnesCount64(uint64(m)) }
