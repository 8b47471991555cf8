// Package transport implements the pluggable message transports MCP and
// A2A clients/servers run over (spec.md §4.2): stdio with adaptive
// chunking, Streamable HTTP (POST + SSE), and an in-process pipe for
// tests and same-binary wiring.
//
// Every transport implements the same uniform contract: Send writes one
// framed message, Receive yields the next inbound message (or a
// transport-kind error), and Close terminates the connection cleanly.
// None of the transports know anything about JSON-RPC semantics; that
// layering lives in pkg/jsonrpc and pkg/mcp/pkg/a2a.
package transport

import (
	"context"
)

// Transport is the uniform send/receive contract every concrete
// transport (stdio, HTTP, pipe) implements.
type Transport interface {
	// Send writes one complete message. Framing (chunking, SSE event
	// wrapping, HTTP request/response) is the transport's concern.
	Send(ctx context.Context, data []byte) error

	// Receive blocks until the next inbound message arrives, ctx is
	// cancelled, or the connection closes. A closed connection returns
	// io.EOF.
	Receive(ctx context.Context) ([]byte, error)

	// Close terminates the connection. Calling Close while a Receive is
	// blocked unblocks it with io.EOF, not an error (spec.md §4.2: clean
	// termination on cancellation, no error surfaced to the caller).
	Close() error
}
