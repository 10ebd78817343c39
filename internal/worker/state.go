// Package worker implements the per-connection finite state machine: the
// parcel handlers that turn a module's Intention and raw socket I/O
// outcomes into Commands for the Dispatcher. Grounded line-for-line on
// original_source/.../net/work/worker.rs
// (open/close/read/write/reregister).
package worker

import "fmt"

// State is a connection's place in the Opened -> {Reading|Writing|
// Flushing} -> Closed lifecycle.
type State int

const (
	// Opened is the transient state between accept and the module's
	// first Intention.
	Opened State = iota
	// Reading means the connection is registered for read readiness.
	Reading
	// Writing means the connection is registered for write readiness
	// with fresh module output pending.
	Writing
	// Flushing means the peer half-closed its write side and the
	// connection is draining final output before close.
	Flushing
	// Closed is terminal; the connection is being torn down.
	Closed
)

func (s State) String() string {
	switch s {
	case Opened:
		return "Opened"
	case Reading:
		return "Reading"
	case Writing:
		return "Writing"
	case Flushing:
		return "Flushing"
	case Closed:
		return "Closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}
