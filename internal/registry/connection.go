package registry

import (
	"fmt"

	"github.com/workanator/wrustlr/internal/apperr"
	"github.com/workanator/wrustlr/internal/token"
)

// DefaultCapacity is the slab size used when none is configured.
const DefaultCapacity = 1024

type slot[T any] struct {
	value    T
	occupied bool
}

// ConnectionRegistry is a dense, fixed-capacity, token-indexed slab. Tokens
// are assigned starting at floor (the listener count, so listener and
// connection tokens never collide) and are reused via a free list once a
// connection is removed.
type ConnectionRegistry[T any] struct {
	floor    token.Token
	slots    []slot[T]
	freeList []int
	size     int
}

// NewConnectionRegistry builds a slab of the given capacity whose tokens
// start at floor.
func NewConnectionRegistry[T any](floor token.Token, capacity int) *ConnectionRegistry[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &ConnectionRegistry[T]{
		floor: floor,
		slots: make([]slot[T], capacity),
	}
}

// Insert places value in the most recently freed slot (or, if none was
// freed, the next never-used one) and returns its token, or fails if the
// slab is full.
func (r *ConnectionRegistry[T]) Insert(value T) (token.Token, error) {
	var idx int
	if n := len(r.freeList); n > 0 {
		idx = r.freeList[n-1]
		r.freeList = r.freeList[:n-1]
	} else if r.size < len(r.slots) {
		idx = r.size
	} else {
		return 0, apperr.Wrap(apperr.Internal, "registry.insert",
			fmt.Errorf("connection registry is full (capacity %d)", len(r.slots)))
	}

	r.slots[idx] = slot[T]{value: value, occupied: true}
	r.size++
	return r.floor + token.Token(idx), nil
}

// Get returns the value registered at t, or the zero value and false if t
// is out of range, below the floor, or the slot is empty.
func (r *ConnectionRegistry[T]) Get(t token.Token) (T, bool) {
	var zero T
	idx, ok := r.index(t)
	if !ok || !r.slots[idx].occupied {
		return zero, false
	}
	return r.slots[idx].value, true
}

// Remove frees the slot at t. Removing an unknown or already-free token
// is a no-op, so a Close command that arrives twice for the same token
// is silently ignored the second time.
func (r *ConnectionRegistry[T]) Remove(t token.Token) {
	idx, ok := r.index(t)
	if !ok || !r.slots[idx].occupied {
		return
	}
	var zero T
	r.slots[idx] = slot[T]{value: zero, occupied: false}
	r.freeList = append(r.freeList, idx)
	r.size--
}

// Len reports the number of currently occupied slots.
func (r *ConnectionRegistry[T]) Len() int {
	return r.size
}

// Cap reports the slab's fixed capacity.
func (r *ConnectionRegistry[T]) Cap() int {
	return len(r.slots)
}

// Each calls fn for every occupied slot, stopping early if fn returns
// false. Order is unspecified.
func (r *ConnectionRegistry[T]) Each(fn func(t token.Token, value T) bool) {
	for idx, s := range r.slots {
		if !s.occupied {
			continue
		}
		if !fn(r.floor+token.Token(idx), s.value) {
			return
		}
	}
}

func (r *ConnectionRegistry[T]) index(t token.Token) (int, bool) {
	if t < r.floor {
		return 0, false
	}
	idx := int(t - r.floor)
	if idx < 0 || idx >= len(r.slots) {
		return 0, false
	}
	return idx, true
}
