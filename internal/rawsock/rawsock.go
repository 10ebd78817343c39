// Package rawsock drives accepted client sockets and listener sockets
// directly by file descriptor with golang.org/x/sys/unix syscalls,
// bypassing the Go runtime's netpoller so the Dispatcher's own
// epoll/kqueue registration is the only thing deciding when a socket is
// read. Grounded on jursonmo-evio/evio_unix.go's listener.system()
// (detach net.Listener to a raw fd via .File(), syscall.SetNonblock) and
// loopAccept/loopRead/loopWrite (raw unix.Accept/Read/Write,
// EAGAIN/EWOULDBLOCK as the would-block signal).
package rawsock

import (
	"net"
	"sync"

	"golang.org/x/sys/unix"
)

// Conn wraps one accepted client socket. Access is serialized through
// mu, since the Dispatcher and a worker can each hold a reference to the
// same connection at different points in its lifecycle.
type Conn struct {
	mu   sync.Mutex
	fd   int
	addr net.Addr
}

// NewConn takes ownership of fd, which must already be non-blocking.
func NewConn(fd int, addr net.Addr) *Conn {
	return &Conn{fd: fd, addr: addr}
}

// FD returns the underlying file descriptor, for epoll/kqueue
// registration. Callers must not close it directly; use Close.
func (c *Conn) FD() int {
	return c.fd
}

// Addr returns the peer address, or nil if unknown (Unix sockets).
func (c *Conn) Addr() net.Addr {
	return c.addr
}

// TryRead performs one non-blocking read into buf. wouldBlock is true when
// the socket had nothing to read right now; err is non-nil only for a real
// I/O failure.
func (c *Conn) TryRead(buf []byte) (n int, wouldBlock bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, err = unix.Read(c.fd, buf)
	if err != nil {
		if isWouldBlock(err) {
			return 0, true, nil
		}
		return 0, false, err
	}
	return n, false, nil
}

// TryWrite performs one non-blocking write of buf, returning however many
// bytes the kernel accepted.
func (c *Conn) TryWrite(buf []byte) (n int, wouldBlock bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, err = unix.Write(c.fd, buf)
	if err != nil {
		if isWouldBlock(err) {
			return 0, true, nil
		}
		return 0, false, err
	}
	return n, false, nil
}

// Flush has no kernel-level meaning for a raw stream socket beyond what
// TryWrite already did; it exists so the write step can honor a Force
// flush hint uniformly. TCP_NODELAY-style tuning, if ever added, would
// live here.
func (c *Conn) Flush() error {
	return nil
}

// Close releases the file descriptor. Safe to call once; a second call
// returns the close(2) error for an already-closed fd.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return unix.Close(c.fd)
}

func isWouldBlock(err error) bool {
	return err == unix.EAGAIN || err == unix.EWOULDBLOCK
}
