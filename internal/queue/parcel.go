package queue

import (
	"github.com/workanator/wrustlr/internal/ioevent"
	"github.com/workanator/wrustlr/internal/token"
)

// ParcelKind discriminates the work items the Dispatcher pushes for
// workers to steal, mirroring the original's `enum Parcel`
// (original_source/.../net/work/queue.rs). Unlike the original, a Parcel
// carries only tokens: the registries that own the actual listener and
// connection state stay with the Dispatcher, so workers look them up
// through a Directory rather than holding Arc<Server>/Arc<Client> values
// directly.
type ParcelKind int

const (
	// ParcelShutdown tells the receiving worker to exit its loop.
	ParcelShutdown ParcelKind = iota
	// ParcelOpen announces a newly accepted connection.
	ParcelOpen
	// ParcelClose tells a worker to run the module's Close hook and ask
	// the Dispatcher to drop the connection.
	ParcelClose
	// ParcelReady announces that events fired for an existing
	// connection's current state (read-ready while Reading, or
	// write-ready while Writing/Flushing).
	ParcelReady
)

// Parcel is one unit of work taken from the deque.
type Parcel struct {
	Kind ParcelKind
	// Token identifies the connection this parcel concerns. Unused for
	// ParcelShutdown.
	Token token.Token
	// Listener identifies the listener a ParcelOpen connection was
	// accepted on.
	Listener token.Token
	// Events carries the readiness that triggered a ParcelReady.
	Events ioevent.Interest
}

func (k ParcelKind) String() string {
	switch k {
	case ParcelShutdown:
		return "Shutdown"
	case ParcelOpen:
		return "Open"
	case ParcelClose:
		return "Close"
	case ParcelReady:
		return "Ready"
	default:
		return "Unknown"
	}
}
