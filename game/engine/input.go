package engine

import (
	"fmt"
	"sync"
)

// InputOrder selects which queued event the resolver consumes next.
type InputOrder string

const (
	// FIFO consumes the oldest event first.
	FIFO InputOrder = "fifo"
	// LIFO consumes the newest event first.
	LIFO InputOrder = "lifo"
)

// ParseInputOrder maps a level setting onto an InputOrder. Empty means FIFO.
func ParseInputOrder(s string) (InputOrder, error) {
	switch InputOrder(s) {
	case "", FIFO:
		return FIFO, nil
	case LIFO:
		return LIFO, nil
	}
	return "", fmt.Errorf("unknown input order %q", s)
}

// InputQueue buffers directional events between an input source and the
// resolver. Push may be called from another goroutine.
type InputQueue struct {
	mu     sync.Mutex
	order  InputOrder
	events []Direction
}

// NewInputQueue creates an empty queue.
func NewInputQueue(order InputOrder) *InputQueue {
	if order != LIFO {
		order = FIFO
	}
	return &InputQueue{order: order}
}

// Order returns the drain order.
func (q *InputQueue) Order() InputOrder {
	return q.order
}

// Push appends an event.
func (q *InputQueue) Push(d Direction) {
	q.mu.Lock()
	q.events = append(q.events, d)
	q.mu.Unlock()
}

// Pop removes exactly one event according to the drain order.
func (q *InputQueue) Pop() (Direction, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return "", false
	}
	var d Direction
	if q.order == LIFO {
		d = q.events[len(q.events)-1]
		q.events = q.events[:len(q.events)-1]
	} else {
		d = q.events[0]
		q.events = q.events[1:]
	}
	return d, true
}

// Len returns the number of pending events.
func (q *InputQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Pending returns a copy of the queued events in push order.
func (q *InputQueue) Pending() []Direction {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) == 0 {
		return nil
	}
	return append([]Direction(nil), q.events...)
}

// Clear drops every pending event.
func (q *InputQueue) Clear() {
	q.mu.Lock()
	q.events = nil
	q.mu.Unlock()
}
