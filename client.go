// Package minihttp is a minimal HTTP/1.1 client. It dials a fresh
// connection per request, optionally tunnels through a forward proxy and
// wraps the stream in TLS, writes one request, buffers one response in
// full, and closes the connection. There is no pooling, no redirect
// following, and no HTTP/2.
package minihttp

import (
	"log/slog"
	"sort"
	"time"

	"minihttp/proxy"
	"minihttp/transport"
	"minihttp/transport/tlswrap"
	"minihttp/wire"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

// Timeouts bounds the connection establishment stages. Zero means the
// stage is bounded only by the caller's context.
type Timeouts struct {
	// Dial bounds the plain TCP dial, to the origin or to the proxy.
	Dial time.Duration
	// TLSHandshake bounds each TLS handshake individually.
	TLSHandshake time.Duration
}

// Options configures a Client. The zero value is usable: no proxy,
// system trust store, no default headers, unlimited decoding.
type Options struct {
	// Proxy, when set, routes every send through an HTTP CONNECT tunnel.
	Proxy *proxy.Config

	// TLS is the trust and protocol configuration for https targets and
	// for https proxies.
	TLS tlswrap.Config

	// DefaultHeaders are applied to every request before request-level
	// headers, so a request-level header of the same name wins.
	DefaultHeaders map[string]string

	Timeouts Timeouts

	// Decode bounds response parsing.
	Decode wire.DecodeOptions

	// Dialer opens plain connections. Nil means TCP via the net package.
	Dialer transport.Dialer

	// Logger receives per-stage debug records. Nil discards them.
	Logger *slog.Logger

	// Clock drives the stage timeouts. Nil means the wall clock; tests
	// inject a mock.
	Clock clock.Clock
}

// Client executes requests. Safe for concurrent use; concurrent sends
// share nothing but the configuration.
type Client struct {
	opts     Options
	defaults *Headers
	tls      *tlswrap.Manager
	dialer   transport.Dialer
	logger   *slog.Logger
	clock    clock.Clock
}

func New(opts Options) (*Client, error) {
	if opts.Proxy != nil {
		if err := opts.Proxy.Validate(); err != nil {
			return nil, errors.Wrap(err, "validating proxy config")
		}
	}

	c := &Client{
		opts:     opts,
		defaults: defaultHeaders(opts.DefaultHeaders),
		tls:      tlswrap.NewManager(opts.TLS),
		dialer:   opts.Dialer,
		logger:   opts.Logger,
		clock:    opts.Clock,
	}
	if c.dialer == nil {
		c.dialer = &transport.NetDialer{}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.clock == nil {
		c.clock = clock.New()
	}

	return c, nil
}

// defaultHeaders fixes the map into an ordered set once, in sorted name
// order, so every request renders the defaults identically.
func defaultHeaders(m map[string]string) *Headers {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	h := NewHeaders()
	for _, name := range names {
		h.Set(name, m[name])
	}
	return h
}

// Request starts a builder for an arbitrary method.
func (c *Client) Request(method, rawURL string) *RequestBuilder {
	return newRequestBuilder(c, method, rawURL)
}

func (c *Client) Get(rawURL string) *RequestBuilder    { return c.Request("GET", rawURL) }
func (c *Client) Head(rawURL string) *RequestBuilder   { return c.Request("HEAD", rawURL) }
func (c *Client) Post(rawURL string) *RequestBuilder   { return c.Request("POST", rawURL) }
func (c *Client) Put(rawURL string) *RequestBuilder    { return c.Request("PUT", rawURL) }
func (c *Client) Patch(rawURL string) *RequestBuilder  { return c.Request("PATCH", rawURL) }
func (c *Client) Delete(rawURL string) *RequestBuilder { return c.Request("DELETE", rawURL) }
