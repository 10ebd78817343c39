// Package netproto enumerates the transports a listener can be configured
// with. UDP is represented so configuration can name it, but it is
// rejected at listener construction time — this server is stream-only.
package netproto

import (
	"fmt"
	"strings"
)

// Protocol identifies a listener transport.
type Protocol int

const (
	// Unknown is the zero value; never a valid listener configuration.
	Unknown Protocol = iota
	// TCP is a stream-oriented IPv4/IPv6 listener.
	TCP
	// UDP appears in the type system but is rejected at runtime.
	UDP
	// Unix is a Unix domain stream listener.
	Unix
)

func (p Protocol) String() string {
	switch p {
	case TCP:
		return "tcp"
	case UDP:
		return "udp"
	case Unix:
		return "unix"
	default:
		return "unknown"
	}
}

// Parse maps a configuration string to a Protocol, accepting "tcp",
// "udp", and "unix" case-insensitively.
func Parse(s string) (Protocol, error) {
	switch strings.ToLower(s) {
	case "tcp":
		return TCP, nil
	case "udp":
		return UDP, nil
	case "unix":
		return Unix, nil
	default:
		return Unknown, fmt.Errorf("netproto: unrecognized protocol %q", s)
	}
}
