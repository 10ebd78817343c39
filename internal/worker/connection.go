package worker

import (
	"sync"

	"github.com/workanator/wrustlr/internal/rawsock"
	"github.com/workanator/wrustlr/internal/stream"
	"github.com/workanator/wrustlr/internal/token"
)

// PendingWrite is the unwritten tail of a previous write step, stored so
// the next write-ready event can resume it instead of asking the module
// for new output. Grounded on Client::left_data /
// LeftData::consume in original_source/.../net/client/mod.rs (referenced
// by worker.rs's write step).
type PendingWrite struct {
	Data      []byte
	Intention stream.Intention
	Flush     stream.Flush
}

// Connection is a single accepted client connection: its socket, its
// place in the state machine, and any unwritten output left over from a
// partial write. Grounded on
// original_source/.../types/src/net/connection/{state,descriptor}.rs.
//
// A Connection is reachable from both the Dispatcher (registries,
// commands) and a worker goroutine (while it owns the parcel for this
// connection's token) but never both at once, since a one-shot
// registration is consumed before the Dispatcher can re-arm it — mu
// exists to make that safe even so, serializing access to the state and
// pending-write fields.
type Connection struct {
	mu sync.Mutex

	Token         token.Token
	ListenerToken token.Token
	Socket        *rawsock.Conn
	Descriptor    stream.Descriptor

	state   State
	pending *PendingWrite
	opened  bool
}

// NewConnection builds a freshly-accepted connection in state Opened.
func NewConnection(t, listener token.Token, socket *rawsock.Conn, desc stream.Descriptor) *Connection {
	return &Connection{
		Token:         t,
		ListenerToken: listener,
		Socket:        socket,
		Descriptor:    desc,
		state:         Opened,
	}
}

// State returns the connection's current state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetState updates the connection's state.
func (c *Connection) SetState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

// MarkOpened records that the module's open() returned a non-Close
// intention; WasOpened reports it.
func (c *Connection) MarkOpened() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opened = true
}

// WasOpened reports whether MarkOpened was ever called, that is whether
// the module accepted the connection in open().
func (c *Connection) WasOpened() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opened
}

// TakePending returns and clears the pending write record, or nil if
// there is none.
func (c *Connection) TakePending() *PendingWrite {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.pending
	c.pending = nil
	return p
}

// SetPending stores a new pending write record (or clears it, if p is
// nil). Only ever non-nil while the connection is Writing or Flushing.
func (c *Connection) SetPending(p *PendingWrite) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = p
}
