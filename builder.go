package minihttp

import (
	"context"
	"sort"
)

// RequestBuilder accumulates a request fluently. Every setter returns the
// builder itself; the builder is exclusively owned by one call chain
// ending in a single Send, so in-place mutation is safe. A URL parse
// failure is held and surfaced by Send or Build rather than mid-chain.
type RequestBuilder struct {
	client *Client
	req    *Request
	err    error
}

func newRequestBuilder(c *Client, method, rawURL string) *RequestBuilder {
	req, err := NewRequest(method, rawURL)
	if err != nil {
		return &RequestBuilder{client: c, err: err}
	}

	// Client-level defaults land first so any request-level write to the
	// same name wins. Each request gets its own copy.
	req.Headers = c.defaults.clone()

	return &RequestBuilder{client: c, req: req}
}

// Header sets a header. A later write to the same name, in any case,
// overwrites the earlier value.
func (b *RequestBuilder) Header(name, value string) *RequestBuilder {
	if b.err == nil {
		b.req.Headers.Set(name, value)
	}
	return b
}

// Headers sets every header in h. Names are applied in sorted order so
// the serialized request is deterministic regardless of map iteration.
func (b *RequestBuilder) Headers(h map[string]string) *RequestBuilder {
	if b.err != nil {
		return b
	}

	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.req.Headers.Set(name, h[name])
	}
	return b
}

// Body sets the raw request body. The serialized request carries a
// matching Content-Length.
func (b *RequestBuilder) Body(body []byte) *RequestBuilder {
	if b.err == nil {
		b.req.Body = body
	}
	return b
}

func (b *RequestBuilder) BodyString(body string) *RequestBuilder {
	return b.Body([]byte(body))
}

// Build hands the accumulated request over without sending it.
func (b *RequestBuilder) Build() (*Request, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.req, nil
}

// Send serializes the request, performs the exchange, and returns the
// parsed response or exactly one error. The builder must not be reused
// afterwards.
func (b *RequestBuilder) Send(ctx context.Context) (*Response, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.client.Do(ctx, b.req)
}
