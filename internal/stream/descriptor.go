// Package stream defines the module contract stream-processing modules
// implement: Behavior, the Intention/Flush vocabulary modules use to drive
// the connection state machine, and a Factory that builds module instances
// by name. Grounded on
// original_source/src/lib/module/src/stream/{mod,intention,flush}.rs,
// original_source/src/lib/types/src/module/mod.rs, and
// original_source/src/lib/types/src/net/connection/descriptor.rs.
package stream

import "net"

// Descriptor identifies a client connection to a Behavior, without exposing
// the connection's socket or internal state.
type Descriptor struct {
	id   uint64
	addr net.Addr
}

// NewDescriptor builds a Descriptor for connection id, whose peer address
// is addr (nil for a Unix socket peer, which has no meaningful address).
func NewDescriptor(id uint64, addr net.Addr) Descriptor {
	return Descriptor{id: id, addr: addr}
}

// ID returns the connection's token-derived identifier.
func (d Descriptor) ID() uint64 {
	return d.id
}

// Addr returns the peer address, or nil if unavailable.
func (d Descriptor) Addr() net.Addr {
	return d.addr
}
