package dispatcher

import (
	"github.com/workanator/wrustlr/internal/ioevent"
	"github.com/workanator/wrustlr/internal/token"
)

// event is one readiness notification surfaced by a poller. The caller
// decides whether Token names a listener or a connection by comparing it
// against the listener count (isListenerToken), not from any field here.
type event struct {
	Token    token.Token
	Interest ioevent.Interest
}

// poller is the platform-specific readiness backend. Every registration is
// edge-triggered and one-shot: a successful Wait disarms the fd until the
// Dispatcher explicitly Reregisters it. Implemented by poller_linux.go
// (epoll) and poller_darwin.go (kqueue).
type poller interface {
	// Register arms fd for interest, associating it with tok. Used only
	// for first-time registration (listeners at startup, connections on
	// their first Open).
	Register(fd int, tok token.Token, interest ioevent.Interest) error

	// Reregister re-arms an already-registered fd for a (possibly
	// different) interest set. One-shot: must be called again after every
	// delivered event to keep receiving notifications for that fd.
	Reregister(fd int, tok token.Token, interest ioevent.Interest) error

	// Unregister removes fd from the poller. Safe to call even if fd was
	// never registered (best-effort, so Close stays idempotent).
	Unregister(fd int) error

	// Wait blocks for up to timeoutMs (a negative value means block
	// indefinitely) and returns the events it observed, reusing its
	// internal buffer across calls.
	Wait(timeoutMs int) ([]event, error)

	// Close releases the underlying poller handle.
	Close() error
}
