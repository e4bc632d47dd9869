package wire

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// DecodeOptions bounds what the parser will accept. Zero values mean
// unlimited; the client applies its own defaults.
type DecodeOptions struct {
	// MaxStatusLineLength limits the status line, terminator included.
	MaxStatusLineLength uint
	// MaxFieldLineLength limits a single header field line.
	MaxFieldLineLength uint
	// MaxHeaderCount limits the number of header fields.
	MaxHeaderCount uint
	// MaxBodyLength limits the decoded body size.
	MaxBodyLength uint
	// SkipBody stops after the header block. Set for responses that
	// never carry a body regardless of their headers, e.g. to HEAD.
	SkipBody bool
}

// Response is a fully parsed, fully buffered response. Header fields keep
// the case and order they arrived in.
type Response struct {
	Proto         string // e.g. "HTTP/1.1"
	StatusCode    int
	StatusMessage string

	Fields []Field

	Body []byte
}

// Framing violations. Everything in this list means the peer spoke
// something that is not the HTTP/1.1 subset we implement; transport
// failures are reported as distinct, unwrapped I/O errors.
var (
	ErrMalformedStatusLine         = errors.New("status line is malformed")
	ErrMalformedFieldLine          = errors.New("field line is malformed")
	ErrMalformedContentLength      = errors.New("content-length is malformed")
	ErrUnsupportedTransferEncoding = errors.New("transfer-encoding is not supported")
	ErrTruncated                   = errors.New("message is truncated")
	ErrBodyNotText                 = errors.New("body is not valid utf-8")
	ErrStatusLineTooLong           = errors.New("status line length exceeds limit")
	ErrFieldLineTooLong            = errors.New("field line length exceeds limit")
	ErrTooManyFields               = errors.New("header field count exceeds limit")
	ErrBodyTooLarge                = errors.New("body length exceeds limit")
)

var malformed = []error{
	ErrMalformedStatusLine,
	ErrMalformedFieldLine,
	ErrMalformedContentLength,
	ErrUnsupportedTransferEncoding,
	ErrTruncated,
	ErrBodyNotText,
	ErrStatusLineTooLong,
	ErrFieldLineTooLong,
	ErrTooManyFields,
	ErrBodyTooLarge,
}

// IsMalformed reports whether err is a framing violation, as opposed to a
// transport read failure.
func IsMalformed(err error) bool {
	for _, m := range malformed {
		if errors.Is(err, m) {
			return true
		}
	}
	return false
}

// ReadResponse reads one complete response off r: status line, header
// block, then a body sized by Content-Length or, absent one, by
// end-of-stream. The body is buffered in full and must be valid UTF-8.
// Chunked transfer encoding is not implemented and is rejected.
func ReadResponse(r io.Reader, opts DecodeOptions) (*Response, error) {
	br := bufio.NewReader(r)

	res := &Response{}
	if err := readStatusLine(br, res, opts); err != nil {
		return nil, err
	}
	if err := readFields(br, res, opts); err != nil {
		return nil, err
	}
	if err := readBody(br, res, opts); err != nil {
		return nil, err
	}

	if !utf8.Valid(res.Body) {
		return nil, errors.Wrap(ErrBodyNotText, "decoding body")
	}

	return res, nil
}

// ParseHead parses a status line and header block from b, which must end
// with the blank line. It never touches the stream the bytes came from,
// which is what the proxy tunnel needs: the connection stays positioned
// immediately after the blank line.
func ParseHead(b []byte, opts DecodeOptions) (*Response, error) {
	br := bufio.NewReader(bytes.NewReader(b))

	res := &Response{}
	if err := readStatusLine(br, res, opts); err != nil {
		return nil, err
	}
	if err := readFields(br, res, opts); err != nil {
		return nil, err
	}

	return res, nil
}

func readStatusLine(br *bufio.Reader, res *Response, opts DecodeOptions) error {
	var line []byte
	for {
		b, err := readLine(br, opts.MaxStatusLineLength)
		if err != nil {
			switch {
			case errors.Is(err, errLineTooLong):
				return ErrStatusLineTooLong
			case errors.Is(err, io.ErrUnexpectedEOF):
				return errors.Wrap(ErrTruncated, "reading status line")
			}
			// io.EOF before any byte: the peer closed without speaking.
			// That is a transport condition, not a framing one.
			return errors.Wrap(err, "reading status line")
		}

		// An empty line can be received before the message.
		// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-2.2-6
		if len(b) > 0 {
			line = b
			break
		}
	}

	proto, code, message, err := parseStatusLine(line)
	if err != nil {
		return errors.Wrap(ErrMalformedStatusLine, err.Error())
	}

	res.Proto = proto
	res.StatusCode = code
	res.StatusMessage = message

	return nil
}

func parseStatusLine(line []byte) (proto string, code int, message string, _ error) {
	parts := bytes.SplitN(line, []byte{sp}, 3)
	if len(parts) < 2 {
		return "", 0, "", errors.New("expected version and status code")
	}

	proto = string(parts[0])
	if err := checkVersion(proto); err != nil {
		return "", 0, "", err
	}

	rawCode := string(parts[1])
	if len(rawCode) != 3 {
		return "", 0, "", errors.Errorf("status code %q is not three digits", rawCode)
	}
	parsed, err := strconv.ParseUint(rawCode, 10, 64)
	if err != nil {
		return "", 0, "", errors.Errorf("status code %q is not a number", rawCode)
	}
	if parsed < 100 || parsed > 599 {
		return "", 0, "", errors.Errorf("status code %d out of range", parsed)
	}

	// The reason phrase is optional free text.
	if len(parts) == 3 {
		message = string(parts[2])
	}

	return proto, int(parsed), message, nil
}

func checkVersion(s string) error {
	rest, ok := strings.CutPrefix(s, "HTTP/")
	if !ok {
		return errors.Errorf("version %q is missing the HTTP/ prefix", s)
	}

	major, minor, found := strings.Cut(rest, ".")
	if !found {
		return errors.Errorf("version %q is missing the dot separator", s)
	}
	if _, err := strconv.ParseUint(major, 10, 64); err != nil {
		return errors.Errorf("major version in %q is not a number", s)
	}
	if _, err := strconv.ParseUint(minor, 10, 64); err != nil {
		return errors.Errorf("minor version in %q is not a number", s)
	}

	return nil
}

func readFields(br *bufio.Reader, res *Response, opts DecodeOptions) error {
	fields := make([]Field, 0)
	for {
		line, err := readLine(br, opts.MaxFieldLineLength)
		if err != nil {
			switch {
			case errors.Is(err, errLineTooLong):
				return ErrFieldLineTooLong
			case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
				// The header block never completed.
				return errors.Wrap(ErrTruncated, "reading header block")
			}
			return errors.Wrap(err, "reading field line")
		}

		if len(line) == 0 {
			break
		}

		field, err := parseField(line)
		if err != nil {
			return errors.Wrap(ErrMalformedFieldLine, err.Error())
		}

		fields = append(fields, field)
		if opts.MaxHeaderCount > 0 && uint(len(fields)) > opts.MaxHeaderCount {
			return ErrTooManyFields
		}
	}

	res.Fields = fields

	return nil
}

func parseField(line []byte) (Field, error) {
	name, value, found := bytes.Cut(line, []byte{':'})
	if !found {
		return Field{}, errors.Errorf("colon separator not found on %q", string(line))
	}

	// No whitespace is allowed between field name and colon.
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-5.1-2
	if len(name) == 0 || !isValidToken(string(name)) {
		return Field{}, errors.Errorf("field name %q is not a valid token", string(name))
	}

	return Field{Name: string(name), Value: string(trimOWS(value))}, nil
}

func readBody(br *bufio.Reader, res *Response, opts DecodeOptions) error {
	if opts.SkipBody || !statusAllowsBody(res.StatusCode) {
		return nil
	}

	if hasField(res.Fields, "Transfer-Encoding") {
		// Chunked (or any other coding) is a clearly scoped addition this
		// client does not make. Reject instead of silently truncating.
		return ErrUnsupportedTransferEncoding
	}

	length, hasLength, err := contentLength(res.Fields)
	if err != nil {
		return err
	}

	if hasLength {
		if opts.MaxBodyLength > 0 && length > uint64(opts.MaxBodyLength) {
			return ErrBodyTooLarge
		}

		body := make([]byte, length)
		if _, err := io.ReadFull(br, body); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				// The peer promised more than it delivered.
				return errors.Wrap(ErrTruncated, "reading sized body")
			}
			return errors.Wrap(err, "reading sized body")
		}

		res.Body = body
		return nil
	}

	// No Content-Length: connection-close semantics, read to end-of-stream.
	var src io.Reader = br
	if opts.MaxBodyLength > 0 {
		src = io.LimitReader(br, int64(opts.MaxBodyLength)+1)
	}

	body, err := io.ReadAll(src)
	if err != nil {
		return errors.Wrap(err, "reading unsized body")
	}
	if opts.MaxBodyLength > 0 && uint(len(body)) > opts.MaxBodyLength {
		return ErrBodyTooLarge
	}

	res.Body = body
	return nil
}

// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-6.4.1-8
func statusAllowsBody(code int) bool {
	switch {
	case code >= 100 && code < 200:
		return false
	case code == 204, code == 304:
		return false
	}
	return true
}

func hasField(fields []Field, name string) bool {
	for _, f := range fields {
		if strings.EqualFold(f.Name, name) {
			return true
		}
	}
	return false
}

func contentLength(fields []Field) (length uint64, ok bool, _ error) {
	for _, f := range fields {
		if !strings.EqualFold(f.Name, "Content-Length") {
			continue
		}

		parsed, err := strconv.ParseUint(f.Value, 10, 63)
		if err != nil {
			return 0, false, errors.Wrapf(ErrMalformedContentLength, "value %q", f.Value)
		}
		if ok && parsed != length {
			// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-6.3-2.5
			return 0, false, errors.Wrap(ErrMalformedContentLength, "conflicting values")
		}

		length, ok = parsed, true
	}

	return length, ok, nil
}
