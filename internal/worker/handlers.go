package worker

import (
	"bytes"

	"github.com/sirupsen/logrus"

	"github.com/workanator/wrustlr/internal/apperr"
	"github.com/workanator/wrustlr/internal/ioevent"
	"github.com/workanator/wrustlr/internal/queue"
	"github.com/workanator/wrustlr/internal/stream"
	"github.com/workanator/wrustlr/internal/token"
)

// readChunkSize is the buffer size for one non-blocking read attempt.
// Large enough that typical chunks drain in one syscall without being so
// large it wastes memory per in-flight read.
const readChunkSize = 64 * 1024

// Handlers implements the per-connection parcel handlers: Open, Close,
// and Ready (which branches into the read step or write step). Grounded
// line-for-line on original_source/.../net/work/worker.rs.
type Handlers struct {
	dir      Directory
	commands chan<- queue.Command
	log      *logrus.Logger
}

// NewHandlers builds a Handlers that resolves tokens through dir and
// reports back to the Dispatcher over commands.
func NewHandlers(dir Directory, commands chan<- queue.Command, log *logrus.Logger) *Handlers {
	return &Handlers{dir: dir, commands: commands, log: log}
}

// Handle dispatches one stolen parcel. queue.ParcelShutdown is handled by
// the Pool itself and never reaches here.
func (h *Handlers) Handle(p queue.Parcel) {
	switch p.Kind {
	case queue.ParcelOpen:
		h.handleOpen(p)
	case queue.ParcelClose:
		h.handleClose(p)
	case queue.ParcelReady:
		h.handleReady(p)
	}
}

func (h *Handlers) send(cmd queue.Command) {
	h.commands <- cmd
}

// closeConnection routes through the dedicated Close parcel handler so
// the module's close hook always runs exactly once before Command::Close
// is emitted, for every connection whose open() did not itself decline
// with Close. Every close site below reaches here except handleOpen's
// two early exits, where open() was never called (unknown listener) or
// the module's own open() returned Close and so never owned the
// connection in the first place.
func (h *Handlers) closeConnection(t token.Token) {
	h.Handle(queue.Parcel{Kind: queue.ParcelClose, Token: t})
}

func (h *Handlers) logError(kind apperr.Kind, op string, err error) {
	if h.log == nil || err == nil {
		return
	}
	h.log.WithError(apperr.Wrap(kind, op, err)).Error(op)
}

func stateFor(intention stream.Intention) State {
	switch intention.Kind {
	case stream.Read:
		return Reading
	case stream.Write:
		return Writing
	default:
		return Closed
	}
}

// handleOpen asks the module what to do with a freshly accepted
// connection.
func (h *Handlers) handleOpen(p queue.Parcel) {
	conn, ok := h.dir.Connection(p.Token)
	if !ok {
		return
	}
	listener, ok := h.dir.Listener(p.Listener)
	if !ok {
		h.logError(apperr.Internal, "open", errUnknownListener(p.Listener))
		h.send(queue.Command{Kind: queue.CommandClose, Token: p.Token})
		return
	}

	intention := listener.Forward.Open(conn.Descriptor)
	if intention.Kind == stream.Close {
		if intention.Err != nil {
			h.logError(apperr.Module, "open", intention.Err)
		}
		h.send(queue.Command{Kind: queue.CommandClose, Token: p.Token})
		return
	}

	conn.MarkOpened()
	conn.SetState(stateFor(intention))
	h.send(queue.Command{Kind: queue.CommandRegister, Token: p.Token, Interest: intention.Interest()})
}

// handleClose invokes the module's close hook unconditionally, then asks
// the Dispatcher to drop the connection. A connection whose Open already
// resolved to Close never reaches here.
func (h *Handlers) handleClose(p queue.Parcel) {
	conn, ok := h.dir.Connection(p.Token)
	if !ok {
		return
	}
	if listener, ok := h.dir.Listener(conn.ListenerToken); ok {
		listener.Forward.Close(conn.Descriptor)
	}
	h.send(queue.Command{Kind: queue.CommandClose, Token: p.Token})
}

// handleReady branches on the connection's current state to run the read
// step or the write step.
func (h *Handlers) handleReady(p queue.Parcel) {
	conn, ok := h.dir.Connection(p.Token)
	if !ok {
		return
	}
	listener, ok := h.dir.Listener(conn.ListenerToken)
	if !ok {
		h.logError(apperr.Internal, "ready", errUnknownListener(conn.ListenerToken))
		h.closeConnection(p.Token)
		return
	}

	switch conn.State() {
	case Reading:
		h.readStep(conn, listener)
	case Writing, Flushing:
		h.writeStep(conn, listener)
	default:
		h.logError(apperr.Internal, "ready", errUnexpectedState(conn.State(), p.Events))
		h.closeConnection(p.Token)
	}
}

// readStep performs one non-blocking read and turns the outcome into
// the next state transition and Dispatcher command.
func (h *Handlers) readStep(conn *Connection, listener ListenerEntry) {
	buf := make([]byte, readChunkSize)
	n, wouldBlock, err := conn.Socket.TryRead(buf)
	if err != nil {
		h.logError(apperr.IO, "read", err)
		h.closeConnection(conn.Token)
		return
	}
	if wouldBlock {
		h.send(queue.Command{Kind: queue.CommandReregister, Token: conn.Token, Interest: ioevent.Readable})
		return
	}
	if n == 0 {
		// Peer half-closed its write side; give the module one last
		// chance to output before the connection closes.
		conn.SetState(Flushing)
		h.send(queue.Command{Kind: queue.CommandReregister, Token: conn.Token, Interest: ioevent.Writable})
		return
	}

	intention := listener.Forward.Read(conn.Descriptor, buf[:n])
	h.reregister(conn, intention)
}

// writeStep performs one non-blocking write, resuming a prior partial
// write if one is pending, and turns the outcome into the next state
// transition and Dispatcher command.
func (h *Handlers) writeStep(conn *Connection, listener ListenerEntry) {
	var buf []byte
	var intention stream.Intention
	var flush stream.Flush

	if pending := conn.TakePending(); pending != nil {
		buf, intention, flush = pending.Data, pending.Intention, pending.Flush
	} else {
		out := &bytes.Buffer{}
		intention, flush = listener.Forward.Write(conn.Descriptor, out)
		buf = out.Bytes()
	}

	n, wouldBlock, err := conn.Socket.TryWrite(buf)
	if err != nil {
		h.logError(apperr.IO, "write", err)
		h.closeConnection(conn.Token)
		return
	}
	if wouldBlock {
		// The socket wasn't actually ready; keep the pending record
		// intact and try again on the next writable event.
		conn.SetPending(&PendingWrite{Data: buf, Intention: intention, Flush: flush})
		h.send(queue.Command{Kind: queue.CommandReregister, Token: conn.Token, Interest: ioevent.Writable})
		return
	}

	if n < len(buf) {
		conn.SetPending(&PendingWrite{Data: buf[n:], Intention: intention, Flush: flush})
		conn.SetState(Writing)
		h.send(queue.Command{Kind: queue.CommandReregister, Token: conn.Token, Interest: ioevent.Writable})
		return
	}

	// The whole buffer drained.
	if conn.State() == Flushing && intention.Kind == stream.Read {
		// The read side is gone; there is no reason to wait for more
		// input that will never arrive.
		h.closeConnection(conn.Token)
		return
	}

	if flush == stream.FlushForce {
		if err := conn.Socket.Flush(); err != nil {
			h.logError(apperr.IO, "flush", err)
		}
	}

	h.reregister(conn, intention)
}

// reregister applies an Intention: Close drops the connection (after
// logging any attached error), Read/Write sets the new state and asks
// the Dispatcher to rearm the socket for the matching interest.
func (h *Handlers) reregister(conn *Connection, intention stream.Intention) {
	if intention.Kind == stream.Close {
		if intention.Err != nil {
			h.logError(apperr.Module, "reregister", intention.Err)
		}
		h.closeConnection(conn.Token)
		return
	}

	conn.SetState(stateFor(intention))
	h.send(queue.Command{Kind: queue.CommandReregister, Token: conn.Token, Interest: intention.Interest()})
}
