package stream

import (
	"fmt"

	"github.com/workanator/wrustlr/internal/ioevent"
)

// IntentionKind discriminates what a module wants to do next with a
// connection, mirroring the original's `enum Intention`.
type IntentionKind int

const (
	// Read means the module wants more input before it can proceed.
	Read IntentionKind = iota
	// Write means the module has output queued and wants a write step.
	Write
	// Close means the module is done with the connection.
	Close
)

// Intention is the module's decision after open/read/write, plus an
// optional error when the decision is Close.
type Intention struct {
	Kind IntentionKind
	// Err is non-nil only when Kind is Close and the module wants the
	// cause recorded (e.g. a protocol violation). A nil Err with Kind
	// Close is an ordinary, voluntary close.
	Err error
}

// Intent builds an Intention with no attached error.
func Intent(kind IntentionKind) Intention {
	return Intention{Kind: kind}
}

// CloseWithError builds a Close intention carrying cause.
func CloseWithError(cause error) Intention {
	return Intention{Kind: Close, Err: cause}
}

// Interest maps the intention to the readiness the connection should next
// be registered for, mirroring Intention::as_event_set.
func (i Intention) Interest() ioevent.Interest {
	switch i.Kind {
	case Read:
		return ioevent.Readable
	case Write:
		return ioevent.Writable
	default:
		return ioevent.None
	}
}

func (i Intention) String() string {
	switch i.Kind {
	case Read:
		return "Read"
	case Write:
		return "Write"
	case Close:
		if i.Err != nil {
			return fmt.Sprintf("Close with error %v", i.Err)
		}
		return "Close"
	default:
		return "Unknown"
	}
}
