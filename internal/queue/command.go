package queue

import (
	"github.com/workanator/wrustlr/internal/ioevent"
	"github.com/workanator/wrustlr/internal/token"
)

// CommandKind discriminates the requests a worker sends back to the
// Dispatcher over its event channel after processing a Parcel, mirroring
// the original's `enum Request` (original_source/.../net/mod.rs, used
// throughout worker.rs as `Request::{Close,Open,Wait}`).
type CommandKind int

const (
	// CommandClose deregisters and drops a connection.
	CommandClose CommandKind = iota
	// CommandRegister registers a just-opened connection for the given
	// interest.
	CommandRegister
	// CommandReregister re-arms an existing connection's one-shot
	// registration for the given interest.
	CommandReregister
)

// Command is a worker->Dispatcher event-loop mutation request. Only the
// Dispatcher goroutine ever applies these, preserving the invariant that
// registries and epoll/kqueue registrations are mutated from one place.
type Command struct {
	Kind     CommandKind
	Token    token.Token
	Interest ioevent.Interest
}

func (k CommandKind) String() string {
	switch k {
	case CommandClose:
		return "Close"
	case CommandRegister:
		return "Register"
	case CommandReregister:
		return "Reregister"
	default:
		return "Unknown"
	}
}
