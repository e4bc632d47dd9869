// Package proxy establishes HTTP CONNECT tunnels through forward proxies.
//
// A tunnel turns the proxy into a transparent byte relay toward the true
// origin: after a 2xx reply the same connection is handed back, positioned
// immediately after the proxy's terminating blank line, ready to be TLS
// wrapped toward the origin if the caller wants that.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-9.3.6
package proxy

import (
	"context"
	"encoding/base64"
	"io"
	"net"
	"strconv"

	"minihttp/transport"
	"minihttp/wire"

	"github.com/pkg/errors"
)

// Config describes a forward proxy. It is read-only after construction and
// may be shared across concurrently executing sends.
type Config struct {
	// Scheme selects how the proxy itself is reached: "http" for a plain
	// connection, "https" for a TLS connection to the proxy.
	Scheme string
	Host   string
	Port   uint16

	// Username and Password, when set, are sent preemptively as a basic
	// Proxy-Authorization header. Challenge-response schemes are not
	// supported.
	Username string
	Password string
}

// Address returns the host:port the plain connection to the proxy should
// be dialed to.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.FormatUint(uint64(c.Port), 10))
}

// Validate rejects configs that cannot describe a reachable proxy.
func (c *Config) Validate() error {
	if c.Scheme != "http" && c.Scheme != "https" {
		return errors.Errorf("unsupported proxy scheme %q", c.Scheme)
	}
	if c.Host == "" {
		return errors.New("proxy host is empty")
	}
	if c.Port == 0 {
		return errors.New("proxy port is zero")
	}
	return nil
}

func (c *Config) authorization() (string, bool) {
	if c.Username == "" && c.Password == "" {
		return "", false
	}
	raw := c.Username + ":" + c.Password
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(raw)), true
}

// maxReplyLen bounds how much of a proxy reply the tunnel will buffer
// before giving up on finding the terminating blank line.
const maxReplyLen = 8 << 10

var (
	// ErrTunnelRefused carries the proxy's own status and message.
	ErrTunnelRefused = errors.New("proxy refused tunnel")
	// ErrMalformedReply means the proxy's reply could not be parsed as a
	// status line and header block.
	ErrMalformedReply = errors.New("proxy reply is malformed")
)

// Tunnel issues a CONNECT for origin (host:port) over an established
// connection to the proxy and validates the reply. On success conn is a
// transparent relay to origin and is positioned immediately after the
// proxy's blank line; on failure conn must not be reused.
//
// The reply is consumed one byte at a time. Reading ahead here would eat
// bytes that belong to the origin exchange.
func (c *Config) Tunnel(ctx context.Context, conn transport.Conn, origin string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	req := &wire.Request{
		Method: "CONNECT",
		Target: origin,
		Host:   origin,
	}
	if auth, ok := c.authorization(); ok {
		req.Fields = append(req.Fields, wire.Field{Name: "Proxy-Authorization", Value: auth})
	}

	if err := wire.WriteRequest(conn, req); err != nil {
		return errors.Wrap(err, "writing CONNECT request")
	}

	head, err := readReplyHead(conn)
	if err != nil {
		return err
	}

	reply, err := wire.ParseHead(head, wire.DecodeOptions{})
	if err != nil {
		return errors.Wrapf(ErrMalformedReply, "parsing reply: %v", err)
	}

	if reply.StatusCode < 200 || reply.StatusCode > 299 {
		return errors.Wrapf(ErrTunnelRefused,
			"%d %s", reply.StatusCode, reply.StatusMessage)
	}

	return nil
}

// readReplyHead reads up to and including the blank line terminating the
// proxy's header block, and nothing past it.
func readReplyHead(conn transport.Conn) ([]byte, error) {
	head := make([]byte, 0, 256)
	buf := make([]byte, 1)

	for {
		if _, err := io.ReadFull(conn, buf); err != nil {
			return nil, errors.Wrap(err, "reading proxy reply")
		}
		head = append(head, buf[0])

		if buf[0] == '\n' && headComplete(head) {
			return head, nil
		}

		if len(head) > maxReplyLen {
			return nil, errors.Wrap(ErrMalformedReply, "reply head too large")
		}
	}
}

// headComplete reports whether head ends on the blank line closing the
// header block. CRLF and bare LF terminators both count.
func headComplete(head []byte) bool {
	if n := len(head); n >= 2 && head[n-2] == '\n' {
		return true
	}
	if n := len(head); n >= 3 && head[n-3] == '\n' && head[n-2] == '\r' {
		return true
	}
	return false
}
