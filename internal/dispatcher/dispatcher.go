// Package dispatcher implements the single-threaded readiness loop: it
// owns the listener and connection registries, the platform poller
// (epoll on Linux, kqueue on Darwin), and the work queue's producer
// endpoint. Grounded on
// original_source/src/lib/core/src/net/core/core.rs's mio::Handler
// (ready/tick/notify), translated from mio's callback-driven Handler
// trait into an explicit per-tick loop.
package dispatcher

import (
	"fmt"
	"net"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/workanator/wrustlr/internal/apperr"
	"github.com/workanator/wrustlr/internal/config"
	"github.com/workanator/wrustlr/internal/ioevent"
	"github.com/workanator/wrustlr/internal/netproto"
	"github.com/workanator/wrustlr/internal/queue"
	"github.com/workanator/wrustlr/internal/rawsock"
	"github.com/workanator/wrustlr/internal/registry"
	"github.com/workanator/wrustlr/internal/stream"
	"github.com/workanator/wrustlr/internal/token"
	"github.com/workanator/wrustlr/internal/worker"
)

// tickTimeoutMs is the event-loop poll deadline. The Dispatcher never
// blocks longer than this even when idle, so it can notice a pending
// shutdown command promptly.
const tickTimeoutMs = 100

// stage mirrors the original's Stage enum (Init/Listen/Shutdown); only the
// Dispatcher goroutine ever transitions it.
type stage int

const (
	stageInit stage = iota
	stageListen
	stageShutdown
)

// listenerEntry pairs a bound socket with the module it forwards accepted
// connections to.
type listenerEntry struct {
	socket  *rawsock.Listener
	forward stream.Behavior
}

// Dispatcher is the event loop. It is not safe for concurrent use: Run must be called from a single goroutine, matching
// the original's single dedicated thread.
type Dispatcher struct {
	log *logrus.Logger

	poller      poller
	listeners   *registry.ListenerRegistry[listenerEntry]
	connections *registry.ConnectionRegistry[*worker.Connection]

	pool     *queue.Pool
	commands chan queue.Command

	stage      stage
	cleanupped sync.Once
}

// New builds a Dispatcher bound to every listener in servers. Binding
// happens here; Run must still be called to enter the Listen stage.
func New(servers []config.ServerSpec, factory *stream.Factory, workerCountMax int, log *logrus.Logger) (*Dispatcher, error) {
	p, err := newPoller()
	if err != nil {
		return nil, apperr.Wrap(apperr.Bind, "poller init", err)
	}

	d := &Dispatcher{
		log:         log,
		poller:      p,
		listeners:   registry.NewListenerRegistry[listenerEntry](),
		commands:    make(chan queue.Command, 4096),
	}

	for _, spec := range servers {
		behavior, err := factory.Produce(stream.StreamCategory, spec.Forward.Name, spec.Forward.BasePath)
		if err != nil {
			p.Close()
			return nil, err
		}

		listener, err := bindListener(spec.Listen)
		if err != nil {
			p.Close()
			return nil, apperr.Wrap(apperr.Bind, "listen", err)
		}

		d.listeners.Add(listenerEntry{socket: listener, forward: behavior})
	}

	d.connections = registry.NewConnectionRegistry[*worker.Connection](
		token.Token(d.listeners.Len()), registry.DefaultCapacity)

	handlers := worker.NewHandlers(d, d.commands, log)
	d.pool = queue.NewPool(workerCountMax, handlers.Handle, log)

	return d, nil
}

// bindListener opens the raw listening socket for spec. UDP is rejected
// here — this server is stream-only — even though netproto.Protocol has a
// UDP value for config parsing to target.
func bindListener(spec config.SocketSpec) (*rawsock.Listener, error) {
	switch spec.Protocol {
	case netproto.TCP:
		return rawsock.Listen("tcp", fmt.Sprintf("%s:%d", spec.Address, spec.Port))
	case netproto.Unix:
		return rawsock.Listen("unix", spec.Path)
	default:
		return nil, fmt.Errorf("protocol %s is not supported", spec.Protocol)
	}
}

// Listener implements worker.Directory.
func (d *Dispatcher) Listener(t token.Token) (worker.ListenerEntry, bool) {
	e, ok := d.listeners.Get(t)
	if !ok {
		return worker.ListenerEntry{}, false
	}
	return worker.ListenerEntry{Token: t, Forward: e.forward}, true
}

// Connection implements worker.Directory.
func (d *Dispatcher) Connection(t token.Token) (*worker.Connection, bool) {
	return d.connections.Get(t)
}

func (d *Dispatcher) isListenerToken(t token.Token) bool {
	return int(t) < d.listeners.Len()
}

// Run registers every listener for read readiness and drives the loop
// until it receives "shutdown" on control, at which point it replies "ok"
// on reply and returns. Grounded on Core::start's registration step plus
// mio::Handler::{ready,tick}.
func (d *Dispatcher) Run(control <-chan string, reply chan<- string) error {
	var regErr error
	d.listeners.Each(func(t token.Token, e listenerEntry) bool {
		if err := d.poller.Register(e.socket.FD(), t, ioevent.Readable); err != nil {
			regErr = apperr.Wrap(apperr.Bind, "listener register", err)
			return false
		}
		if d.log != nil {
			d.log.WithFields(logrus.Fields{"token": t, "addr": listenerAddrString(e.socket)}).Info("listening")
		}
		return true
	})
	if regErr != nil {
		return regErr
	}

	d.stage = stageListen

	for {
		events, err := d.poller.Wait(tickTimeoutMs)
		if err != nil {
			if d.log != nil {
				d.log.WithError(err).Error("poller wait failed, shutting down")
			}
			d.shutdownAndCleanup(true)
			return apperr.Wrap(apperr.Bind, "poller wait", err)
		}

		for _, ev := range events {
			if d.isListenerToken(ev.Token) {
				if d.stage != stageListen {
					continue
				}
				if err := d.acceptLoop(ev.Token); err != nil {
					d.shutdownAndCleanup(true)
					return err
				}
				continue
			}
			d.pool.Push(queue.Parcel{Kind: queue.ParcelReady, Token: ev.Token, Events: ev.Interest})
		}

		d.pool.Awake()

		select {
		case cmd := <-control:
			if cmd == "shutdown" {
				if d.log != nil {
					d.log.Info("received shutdown command")
				}
				d.shutdownAndCleanup(true)
				reply <- "ok"
				return nil
			}
		default:
		}

		d.drainCommands()
	}
}

// acceptLoop accepts as many pending connections as the OS reports,
// stopping on WouldBlock. A hard accept error shuts the loop down
// immediately.
func (d *Dispatcher) acceptLoop(listenerToken token.Token) error {
	entry, ok := d.listeners.Get(listenerToken)
	if !ok {
		return nil
	}

	for {
		conn, wouldBlock, err := entry.socket.Accept()
		if err != nil {
			if d.log != nil {
				d.log.WithError(err).Error("accept failed, shutting down")
			}
			return apperr.Wrap(apperr.IO, "accept", err)
		}
		if wouldBlock {
			// Every registration (listener or connection) is one-shot
			// under this poller, so the listener must be explicitly
			// re-armed once its accept backlog is drained.
			if err := d.poller.Reregister(entry.socket.FD(), listenerToken, ioevent.Readable); err != nil {
				return apperr.Wrap(apperr.Registration, "listener reregister", err)
			}
			return nil
		}

		placeholder := worker.NewConnection(0, listenerToken, conn, stream.Descriptor{})
		clientToken, err := d.connections.Insert(placeholder)
		if err != nil {
			if d.log != nil {
				d.log.WithError(err).Warn("connection registry full, dropping accepted socket")
			}
			conn.Close()
			continue
		}
		placeholder.Token = clientToken
		placeholder.Descriptor = stream.NewDescriptor(uint64(clientToken), conn.Addr())

		d.pool.Push(queue.Parcel{Kind: queue.ParcelOpen, Token: clientToken, Listener: listenerToken})
	}
}

// drainCommands applies every Command currently queued from workers,
// non-blocking.
func (d *Dispatcher) drainCommands() {
	for {
		select {
		case cmd := <-d.commands:
			d.applyCommand(cmd)
		default:
			return
		}
	}
}

// applyCommand applies one worker-issued Command to the event loop.
func (d *Dispatcher) applyCommand(cmd queue.Command) {
	switch cmd.Kind {
	case queue.CommandClose:
		conn, ok := d.connections.Get(cmd.Token)
		if !ok {
			return
		}
		if err := d.poller.Unregister(conn.Socket.FD()); err != nil && d.log != nil {
			d.log.WithError(apperr.Wrap(apperr.Registration, "unregister", err)).Warn("deregister failed")
		}
		if err := conn.Socket.Close(); err != nil && d.log != nil {
			d.log.WithError(apperr.Wrap(apperr.IO, "close", err)).Warn("socket close failed")
		}
		d.connections.Remove(cmd.Token)

	case queue.CommandRegister:
		conn, ok := d.connections.Get(cmd.Token)
		if !ok {
			return
		}
		if err := d.poller.Register(conn.Socket.FD(), cmd.Token, cmd.Interest); err != nil {
			d.logRegistrationFailure(cmd.Token, "register", err)
		}

	case queue.CommandReregister:
		conn, ok := d.connections.Get(cmd.Token)
		if !ok {
			return
		}
		if err := d.poller.Reregister(conn.Socket.FD(), cmd.Token, cmd.Interest); err != nil {
			d.logRegistrationFailure(cmd.Token, "reregister", err)
		}
	}
}

// logRegistrationFailure logs a registration error on a client
// connection and drops the connection at the next opportunity, rather
// than crashing the loop.
func (d *Dispatcher) logRegistrationFailure(t token.Token, op string, err error) {
	wrapped := apperr.Wrap(apperr.Registration, op, err)
	if d.log != nil {
		d.log.WithError(wrapped).Error("event-loop registration failed, dropping connection")
	}
	d.applyCommand(queue.Command{Kind: queue.CommandClose, Token: t})
}

// shutdownAndCleanup runs the fast-drain worker shutdown and the
// exactly-once resource cleanup, regardless of how Run is exiting.
func (d *Dispatcher) shutdownAndCleanup(fast bool) {
	d.stage = stageShutdown
	d.pool.Shutdown(fast)
	d.cleanup()
}

// cleanup removes Unix socket files and closes every listener, mirroring
// Core::cleanup / Core::drop. It is idempotent: a crash-path call after an
// already-clean shutdown is a no-op.
func (d *Dispatcher) cleanup() {
	d.cleanupped.Do(func() {
		d.listeners.Each(func(_ token.Token, e listenerEntry) bool {
			if err := e.socket.Close(); err != nil && d.log != nil {
				d.log.WithError(err).Warn("listener close failed during cleanup")
			}
			return true
		})
		if err := d.poller.Close(); err != nil && d.log != nil {
			d.log.WithError(err).Warn("poller close failed during cleanup")
		}
	})
}

func listenerAddrString(l *rawsock.Listener) string {
	if path := l.UnixPath(); path != "" {
		return path
	}
	if a, ok := l.Addr().(*net.TCPAddr); ok {
		return a.String()
	}
	return l.Addr().String()
}
