// Package echo implements a reference stream module: it echoes whatever
// it reads back to the peer, closing the connection when a chunk's first
// byte is 'Q', and optionally reverses each chunk (preserving a trailing
// newline) when configured with reverse=true. Grounded on the module
// contract in internal/stream and, for the constructor/options-reading
// shape, on original_source/.../conf/module.rs's "read options relative
// to the resolved base path" pattern.
package echo

import (
	"bytes"
	"sync"

	"github.com/workanator/wrustlr/internal/config"
	"github.com/workanator/wrustlr/internal/stream"
)

// Name is the module name end users reference as `forward.module: echo`
// in server configuration.
const Name = "echo"

// Version is reported to the factory registration log.
const Version = "1.0.0"

// pendingOutput is the chunk a connection's next Write call should emit,
// computed eagerly in Read since the module contract splits "decide what
// to do" (Read, returning an Intention) from "produce the bytes" (Write).
type pendingOutput struct {
	data       []byte
	closeAfter bool
}

// Module is the echo module's shared state: one instance serves every
// connection accepted on the listener it was produced for, so per-
// connection state is keyed by Descriptor.ID rather than held in fields.
type Module struct {
	reverse bool

	mu      sync.Mutex
	pending map[uint64]pendingOutput
}

// New builds an echo Module reading its reverse option from basePath in
// doc (basePath is the resolved xpath from config.ModuleSpec.BasePath).
func New(doc *config.Document, basePath string) (stream.Behavior, error) {
	reverse, _ := doc.Bool(basePath + ".reverse")
	return &Module{
		reverse: reverse,
		pending: make(map[uint64]pendingOutput),
	}, nil
}

// Open always asks to read first; echo never writes before it has
// something to echo.
func (m *Module) Open(stream.Descriptor) stream.Intention {
	return stream.Intent(stream.Read)
}

// Read decides what the next Write should emit and whether the
// connection should close once that write completes (a chunk starting
// with 'Q' echoes once more, then closes).
func (m *Module) Read(desc stream.Descriptor, data []byte) stream.Intention {
	out := make([]byte, len(data))
	copy(out, data)
	if m.reverse {
		out = reverseKeepingTrailingNewline(out)
	}

	m.mu.Lock()
	m.pending[desc.ID()] = pendingOutput{
		data:       out,
		closeAfter: len(data) > 0 && data[0] == 'Q',
	}
	m.mu.Unlock()

	return stream.Intent(stream.Write)
}

// Write emits the chunk computed by Read. A trailing Close intention
// surfaces on the write that carries the chunk that triggered it, so the
// peer sees the echoed bytes before the connection closes.
func (m *Module) Write(desc stream.Descriptor, buf *bytes.Buffer) (stream.Intention, stream.Flush) {
	m.mu.Lock()
	p := m.pending[desc.ID()]
	delete(m.pending, desc.ID())
	m.mu.Unlock()

	buf.Write(p.data)
	if p.closeAfter {
		return stream.Intent(stream.Close), stream.FlushAuto
	}
	return stream.Intent(stream.Read), stream.FlushForce
}

// Close drops any leftover per-connection state.
func (m *Module) Close(desc stream.Descriptor) {
	m.mu.Lock()
	delete(m.pending, desc.ID())
	m.mu.Unlock()
}

// reverseKeepingTrailingNewline reverses data in place, leaving a single
// trailing '\n' (if present) as the last byte rather than the first.
func reverseKeepingTrailingNewline(data []byte) []byte {
	body := data
	hasNewline := len(data) > 0 && data[len(data)-1] == '\n'
	if hasNewline {
		body = data[:len(data)-1]
	}
	for i, j := 0, len(body)-1; i < j; i, j = i+1, j-1 {
		body[i], body[j] = body[j], body[i]
	}
	return data
}
