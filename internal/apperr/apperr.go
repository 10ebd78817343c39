// Package apperr implements a small error taxonomy with uniform
// wrapping, so callers can branch with errors.As and a switch on Kind
// without string matching. Grounded on
// eventloop/internal/alternateone/errors.go's LoopError wrapper family.
package apperr

import "fmt"

// Kind classifies an error into one of a handful of operational buckets.
type Kind int

const (
	// Config covers unreadable files, malformed values, missing required
	// keys, and invalid references. Fatal at startup.
	Config Kind = iota
	// Bind covers address-in-use and permission-denied on listener setup.
	// Fatal at startup.
	Bind
	// Registration covers event-loop register/reregister/deregister
	// failures. Logged; the affected connection is closed.
	Registration
	// IO covers per-connection read/write/flush failures. Recoverable for
	// the server: the connection is closed, the server continues.
	IO
	// Module covers an error embedded in Intention Close by a stream
	// module. Logged and the connection is closed.
	Module
	// Internal covers invariant violations such as an event arriving for
	// the wrong connection state.
	Internal
)

func (k Kind) String() string {
	switch k {
	case Config:
		return "config"
	case Bind:
		return "bind"
	case Registration:
		return "registration"
	case IO:
		return "io"
	case Module:
		return "module"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is a taxonomized, wrapped error carrying the operation that
// failed and the underlying cause.
type Error struct {
	Kind  Kind
	Op    string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("wrustlr: %s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("wrustlr: %s: %s: %v", e.Kind, e.Op, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Wrap builds a new *Error of the given kind and operation name around
// cause. It returns nil if cause is nil, so call sites can write
// `return apperr.Wrap(apperr.IO, "read", err)` unconditionally.
func Wrap(kind Kind, op string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Cause: cause}
}
