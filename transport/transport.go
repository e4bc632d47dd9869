// Package transport defines the byte-stream capability interface that the
// HTTP protocol logic runs on, independent of whether the stream is plain,
// encrypted, or tunneled through a proxy.
package transport

import (
	"context"
	"io"
)

// Conn is a single-use, bidirectional byte stream. Read and Write may block
// the calling goroutine until data is available or flushed; neither retries
// on failure. A Conn is exclusively owned by one request/response exchange
// and must be closed by its owner.
//
// Close must unblock any in-flight Read or Write on the same Conn. That is
// what makes prompt cancellation possible for callers that watch a context.
type Conn interface {
	io.Reader
	io.Writer
	io.Closer
}

// Dialer opens a plain stream to a host:port address.
type Dialer interface {
	Dial(ctx context.Context, addr string) (Conn, error)
}
