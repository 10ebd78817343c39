// Package registry implements the two token-indexed containers the
// Dispatcher owns: an append-only listener registry and a dense,
// fixed-capacity connection slab. The original's equivalent
// (original_source/src/lib/core/src/net/server/registry.rs) is a plain
// Vec<Arc<Server>> indexed by mio::Token; here both containers are Go
// generics, with listeners in an append-only slice and connections in the
// dense slab.
package registry

import "github.com/workanator/wrustlr/internal/token"

// ListenerRegistry is an append-only, token-indexed list of listener
// sockets. Tokens are dense and start at 0.
type ListenerRegistry[T any] struct {
	items []T
}

// NewListenerRegistry builds an empty registry.
func NewListenerRegistry[T any]() *ListenerRegistry[T] {
	return &ListenerRegistry[T]{}
}

// Add appends item and returns its newly assigned token.
func (r *ListenerRegistry[T]) Add(item T) token.Token {
	t := token.Token(len(r.items))
	r.items = append(r.items, item)
	return t
}

// Get returns the item at t, or the zero value and false if t is out of
// range.
func (r *ListenerRegistry[T]) Get(t token.Token) (T, bool) {
	var zero T
	if int(t) < 0 || int(t) >= len(r.items) {
		return zero, false
	}
	return r.items[t], true
}

// Len returns the number of registered listeners; also the token floor for
// a ConnectionRegistry sharing the same token space.
func (r *ListenerRegistry[T]) Len() int {
	return len(r.items)
}

// Each calls fn for every listener in token order, stopping early if fn
// returns false.
func (r *ListenerRegistry[T]) Each(fn func(t token.Token, item T) bool) {
	for i, item := range r.items {
		if !fn(token.Token(i), item) {
			return
		}
	}
}
