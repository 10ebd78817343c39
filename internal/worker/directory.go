package worker

import (
	"github.com/workanator/wrustlr/internal/stream"
	"github.com/workanator/wrustlr/internal/token"
)

// ListenerEntry is the slice of listener state a worker needs: which
// module to forward to. The Dispatcher owns the rest (the raw socket,
// epoll/kqueue registration).
type ListenerEntry struct {
	Token   token.Token
	Forward stream.Behavior
}

// Directory lets a worker resolve the tokens carried by a Parcel back to
// the listener/connection state it needs, without giving it write access
// to the Dispatcher's registries (only the Dispatcher goroutine ever
// mutates those).
type Directory interface {
	Listener(t token.Token) (ListenerEntry, bool)
	Connection(t token.Token) (*Connection, bool)
}
