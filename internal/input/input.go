// Package input turns block edit requests into world edits.
package input

import (
	"errors"
	"fmt"
	"sync"

	"voxelstream/internal/registry"
)

// ErrUnknownKind is returned by Apply for an unrecognised event kind.
var ErrUnknownKind = errors.New("unknown event kind")

// Kind is the edit an Event requests.
type Kind int

const (
	PlaceBlock Kind = iota
	RemoveBlock
)

func (k Kind) String() string {
	switch k {
	case PlaceBlock:
		return "place"
	case RemoveBlock:
		return "remove"
	default:
		return "unknown"
	}
}

// Event is one edit at a global block position. Block names the type to
// place and is ignored for removals.
type Event struct {
	Kind   Kind
	Target [3]int
	Block  string
}

// World is the part of the world an edit touches.
type World interface {
	GetBlock(x, y, z int) registry.ID
	SetBlock(x, y, z int, id registry.ID) bool
}

// Catalog resolves block names.
type Catalog interface {
	Load(name string) (*registry.BlockType, error)
}

// Apply performs ev on w. It reports whether a cell changed: placing into an
// occupied cell, removing air and edits in chunks without terrain change
// nothing.
func Apply(w World, cat Catalog, ev Event) (bool, error) {
	x, y, z := ev.Target[0], ev.Target[1], ev.Target[2]
	switch ev.Kind {
	case PlaceBlock:
		bt, err := cat.Load(ev.Block)
		if err != nil {
			return false, fmt.Errorf("place %s at %v: %w", ev.Block, ev.Target, err)
		}
		if w.GetBlock(x, y, z) != registry.Air {
			return false, nil
		}
		return w.SetBlock(x, y, z, bt.ID), nil
	case RemoveBlock:
		if w.GetBlock(x, y, z) == registry.Air {
			return false, nil
		}
		return w.SetBlock(x, y, z, registry.Air), nil
	default:
		return false, fmt.Errorf("%w: %d", ErrUnknownKind, ev.Kind)
	}
}

// Queue buffers events between the producer (a script, a socket, a UI) and
// the tick loop, which drains it once per tick.
type Queue struct {
	mu      sync.Mutex
	pending []Event
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends ev. It is safe to call from any goroutine.
func (q *Queue) Push(ev Event) {
	q.mu.Lock()
	q.pending = append(q.pending, ev)
	q.mu.Unlock()
}

// Drain returns the buffered events in arrival order and empties the queue.
func (q *Queue) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}

// Len is the number of buffered events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
