// Package token defines the dense, process-lifetime connection and
// listener identifiers used throughout wrustlr.
package token

// Token is an opaque, dense, non-negative identifier. Tokens below the
// configured listener count identify listener sockets; tokens at or above
// it identify client connections.
type Token uint64
