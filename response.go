package minihttp

import (
	"strconv"

	"minihttp/wire"
)

// Response is a fully buffered, fully parsed reply. Header names keep the
// case they arrived with; lookup is case-insensitive; a repeated name
// keeps the last value.
type Response struct {
	Proto         string
	StatusCode    int
	StatusMessage string
	Headers       *Headers
	Body          string
}

func responseFrom(raw *wire.Response) *Response {
	headers := NewHeaders()
	for _, f := range raw.Fields {
		headers.Set(f.Name, f.Value)
	}

	return &Response{
		Proto:         raw.Proto,
		StatusCode:    raw.StatusCode,
		StatusMessage: raw.StatusMessage,
		Headers:       headers,
		Body:          string(raw.Body),
	}
}

// Header looks a field up by name, case-insensitively.
func (r *Response) Header(name string) (string, bool) {
	return r.Headers.Get(name)
}

// Status-class predicates. Pure functions of the code; for a 1xx code all
// four are false.

func (r *Response) IsSuccess() bool     { return r.StatusCode >= 200 && r.StatusCode < 300 }
func (r *Response) IsRedirect() bool    { return r.StatusCode >= 300 && r.StatusCode < 400 }
func (r *Response) IsClientError() bool { return r.StatusCode >= 400 && r.StatusCode < 500 }
func (r *Response) IsServerError() bool { return r.StatusCode >= 500 && r.StatusCode < 600 }

// StatusLine reassembles the line the response arrived with.
func (r *Response) StatusLine() string {
	line := r.Proto + " " + strconv.Itoa(r.StatusCode)
	if r.StatusMessage != "" {
		line += " " + r.StatusMessage
	}
	return line
}

// ContentLength returns the declared body length, when one was declared
// and parses.
func (r *Response) ContentLength() (uint64, bool) {
	v, ok := r.Headers.Get("Content-Length")
	if !ok {
		return 0, false
	}

	parsed, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

func (r *Response) ContentType() (string, bool) {
	return r.Headers.Get("Content-Type")
}
