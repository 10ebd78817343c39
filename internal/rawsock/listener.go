package rawsock

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// Listener is a detached, non-blocking listening socket. Grounded on
// jursonmo-evio/evio_unix.go's listener.system().
type Listener struct {
	fd       int
	file     *os.File
	addr     net.Addr
	unixPath string
}

// Listen binds a TCP or Unix listener at address (TCP) or path (Unix),
// then detaches it from the Go runtime's netpoller so the Dispatcher's
// own epoll/kqueue registration owns its readiness.
func Listen(network, address string) (*Listener, error) {
	var ln net.Listener
	var err error

	switch network {
	case "tcp":
		ln, err = net.Listen("tcp", address)
	case "unix":
		ln, err = net.Listen("unix", address)
	default:
		return nil, fmt.Errorf("rawsock: unsupported network %q", network)
	}
	if err != nil {
		return nil, err
	}

	var file *os.File
	switch l := ln.(type) {
	case *net.TCPListener:
		file, err = l.File()
	case *net.UnixListener:
		// Closing the wrapper below must not unlink the socket file;
		// Listener.Close removes it instead.
		l.SetUnlinkOnClose(false)
		file, err = l.File()
	default:
		ln.Close()
		return nil, fmt.Errorf("rawsock: unexpected listener type %T", ln)
	}
	if err != nil {
		ln.Close()
		return nil, err
	}

	// The duplicated fd from File() is independent of ln; close the
	// original net.Listener wrapper now that we hold our own fd.
	addr := ln.Addr()
	ln.Close()

	fd := int(file.Fd())
	if err := unix.SetNonblock(fd, true); err != nil {
		file.Close()
		return nil, err
	}

	l := &Listener{fd: fd, file: file, addr: addr}
	if network == "unix" {
		l.unixPath = address
	}
	return l, nil
}

// FD returns the underlying file descriptor for epoll/kqueue registration.
func (l *Listener) FD() int {
	return l.fd
}

// Addr returns the listener's bound address.
func (l *Listener) Addr() net.Addr {
	return l.addr
}

// UnixPath returns the socket file path, or "" for a TCP listener.
func (l *Listener) UnixPath() string {
	return l.unixPath
}

// Accept performs one non-blocking accept, returning a detached,
// non-blocking client Conn. wouldBlock is true when there was nothing to
// accept right now.
func (l *Listener) Accept() (conn *Conn, wouldBlock bool, err error) {
	nfd, sa, err := unix.Accept(l.fd)
	if err != nil {
		if isWouldBlock(err) {
			return nil, true, nil
		}
		return nil, false, err
	}
	if err := unix.SetNonblock(nfd, true); err != nil {
		unix.Close(nfd)
		return nil, false, err
	}
	return NewConn(nfd, sockaddrToAddr(sa)), false, nil
}

// Close releases the listener's file descriptor and, for a Unix listener,
// unlinks its socket file.
func (l *Listener) Close() error {
	err := l.file.Close()
	if l.unixPath != "" {
		if rmErr := os.Remove(l.unixPath); rmErr != nil && err == nil {
			err = rmErr
		}
	}
	return err
}

// sockaddrToAddr converts an accepted peer's address. Unix-domain peers
// have no meaningful address and yield nil.
func sockaddrToAddr(sa unix.Sockaddr) net.Addr {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.TCPAddr{IP: a.Addr[:], Port: a.Port}
	case *unix.SockaddrInet6:
		return &net.TCPAddr{IP: a.Addr[:], Port: a.Port}
	default:
		return nil
	}
}
