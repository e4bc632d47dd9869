package minihttp

import "minihttp/wire"

// Request is a single outgoing request. It is built through
// RequestBuilder, owned by exactly one send call, and never mutated once
// serialization begins.
type Request struct {
	Method  string
	Target  *Target
	Headers *Headers
	Body    []byte
}

// NewRequest parses rawURL and returns a request ready for header and
// body accumulation.
func NewRequest(method, rawURL string) (*Request, error) {
	target, err := ParseTarget(rawURL)
	if err != nil {
		return nil, wrapErr(KindParse, err)
	}

	return &Request{
		Method:  method,
		Target:  target,
		Headers: NewHeaders(),
	}, nil
}

// wireRequest renders the request for serialization. Connections are
// single-use, so unless the caller said otherwise the peer is told not to
// keep the connection around.
func (r *Request) wireRequest() *wire.Request {
	fields := make([]wire.Field, 0, r.Headers.Len()+1)
	r.Headers.Each(func(name, value string) {
		fields = append(fields, wire.Field{Name: name, Value: value})
	})

	if !r.Headers.Has("Connection") {
		fields = append(fields, wire.Field{Name: "Connection", Value: "close"})
	}

	return &wire.Request{
		Method: r.Method,
		Target: r.Target.RequestTarget(),
		Host:   r.Target.HostHeader(),
		Fields: fields,
		Body:   r.Body,
	}
}
