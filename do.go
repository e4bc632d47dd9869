package minihttp

import (
	"context"
	"log/slog"
	"time"

	"minihttp/transport"
	"minihttp/wire"

	"github.com/pkg/errors"
)

// Do executes req over a freshly dialed, single-use connection and
// returns the fully buffered response or exactly one error. The stages
// run strictly in order: dial, optional proxy-side TLS, optional CONNECT
// tunnel, optional origin TLS, write, read. The first failing stage
// decides the error's Kind.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapErr(KindConnection, err)
	}

	addr := req.Target.HostPort()
	if c.opts.Proxy != nil {
		addr = c.opts.Proxy.Address()
	}

	plain, err := c.dial(ctx, addr)
	if err != nil {
		return nil, wrapErr(KindConnection, ctxCause(ctx, err))
	}
	defer plain.Close()

	// The blocking reads and writes below are interruptible only by
	// closing the stream underneath them, so a watcher turns context
	// cancellation into exactly that. Closing the plain stream unblocks
	// any TLS layer above it too.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			plain.Close()
		case <-watchDone:
		}
	}()

	conn, err := c.establish(ctx, plain, req.Target)
	if err != nil {
		return nil, err
	}

	c.logger.DebugContext(ctx, "sending request",
		slog.String("method", req.Method),
		slog.String("target", req.Target.HostPort()),
	)

	if err := wire.WriteRequest(conn, req.wireRequest()); err != nil {
		if errors.Is(err, wire.ErrInvalidMethod) || errors.Is(err, wire.ErrInvalidField) {
			return nil, wrapErr(KindParse, err)
		}
		return nil, wrapErr(KindIO, ctxCause(ctx, err))
	}

	opts := c.opts.Decode
	if req.Method == "HEAD" {
		opts.SkipBody = true
	}

	raw, err := wire.ReadResponse(conn, opts)
	if err != nil {
		if wire.IsMalformed(err) {
			return nil, wrapErr(KindParse, err)
		}
		return nil, wrapErr(KindIO, ctxCause(ctx, err))
	}

	return responseFrom(raw), nil
}

func (c *Client) dial(ctx context.Context, addr string) (transport.Conn, error) {
	dctx, cancel := c.stageContext(ctx, c.opts.Timeouts.Dial)
	defer cancel()

	c.logger.DebugContext(ctx, "dialing", slog.String("addr", addr))
	return c.dialer.Dial(dctx, addr)
}

// establish layers the proxy tunnel and TLS onto the plain stream as the
// target and configuration demand. On failure the stream is unusable and
// already closed by the failing layer or left for Do's deferred close.
func (c *Client) establish(ctx context.Context, plain transport.Conn, target *Target) (transport.Conn, error) {
	conn := plain

	if p := c.opts.Proxy; p != nil {
		if p.Scheme == "https" {
			tconn, err := c.handshake(ctx, conn, p.Host)
			if err != nil {
				return nil, wrapErr(KindTLS, ctxCause(ctx, err))
			}
			conn = tconn
		}

		c.logger.DebugContext(ctx, "establishing tunnel",
			slog.String("proxy", p.Address()),
			slog.String("origin", target.HostPort()),
		)
		if err := p.Tunnel(ctx, conn, target.HostPort()); err != nil {
			return nil, wrapErr(KindProxy, ctxCause(ctx, err))
		}
	}

	if target.IsTLS() {
		tconn, err := c.handshake(ctx, conn, target.Host)
		if err != nil {
			return nil, wrapErr(KindTLS, ctxCause(ctx, err))
		}
		conn = tconn
	}

	return conn, nil
}

func (c *Client) handshake(ctx context.Context, conn transport.Conn, serverName string) (transport.Conn, error) {
	hctx, cancel := c.stageContext(ctx, c.opts.Timeouts.TLSHandshake)
	defer cancel()

	c.logger.DebugContext(ctx, "tls handshake", slog.String("server_name", serverName))
	return c.tls.Handshake(hctx, conn, serverName)
}

// stageContext derives a context that is additionally canceled after d,
// measured on the injected clock. d of zero means no stage bound.
func (c *Client) stageContext(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	timer := c.clock.Timer(d)
	go func() {
		defer timer.Stop()
		select {
		case <-timer.C:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// ctxCause substitutes the caller's cancellation for err when the caller
// gave up. The stream-level error at that point is an artifact of the
// watcher closing the stream, not the real cause.
func ctxCause(ctx context.Context, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}
	return err
}
