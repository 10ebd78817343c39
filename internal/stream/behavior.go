package stream

import "bytes"

// Behavior is the contract every stream-processing module implements.
// Modules are invoked from worker goroutines, never from the Dispatcher, so
// implementations that hold shared state must synchronize it themselves.
type Behavior interface {
	// Open is called once a new connection is accepted. A module may
	// close the connection immediately by returning an Intention with
	// Kind Close, in which case Close is never called for it.
	Open(desc Descriptor) Intention

	// Read is called with a freshly-read chunk from the connection.
	Read(desc Descriptor, buf []byte) Intention

	// Write is called when the module previously returned Write, and once
	// more after the peer half-closes its write side; it appends output to
	// out and reports what it wants to do next plus a flush hint for that
	// output.
	Write(desc Descriptor, out *bytes.Buffer) (Intention, Flush)

	// Close is called once, when the connection is about to be
	// discarded, so the module can release any per-connection state.
	Close(desc Descriptor)
}
