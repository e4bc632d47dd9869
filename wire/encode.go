package wire

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Request is the wire-level view of an outgoing request. Fields are
// rendered in order; name comparison for the Host and Content-Length
// special cases is case-insensitive.
type Request struct {
	Method string
	Target string // origin-form: path plus optional ?query
	Host   string // written as the Host field unless one is already present

	Fields []Field

	Body []byte
}

var (
	ErrInvalidMethod = errors.New("method is not a valid token")
	ErrInvalidField  = errors.New("field is not representable on the wire")
)

// WriteRequest serializes r onto w: request line, Host (added if absent),
// caller fields in order, Content-Length iff a body is present, blank
// line, body. Caller-supplied Content-Length fields are dropped so the
// emitted value can never disagree with the body.
func WriteRequest(w io.Writer, r *Request) error {
	if !isValidToken(r.Method) {
		return errors.Wrapf(ErrInvalidMethod, "method %q", r.Method)
	}
	for _, f := range r.Fields {
		if !isValidToken(f.Name) || !isValidFieldValue(f.Value) {
			return errors.Wrapf(ErrInvalidField, "field %q", f.Name)
		}
	}

	bw := bufio.NewWriter(w)

	target := r.Target
	if target == "" {
		target = "/"
	}

	if err := writeLine(bw, r.Method+" "+target+" HTTP/1.1"); err != nil {
		return err
	}

	hostWritten := false
	for _, f := range r.Fields {
		if strings.EqualFold(f.Name, "Host") {
			hostWritten = true
		}
	}
	if !hostWritten {
		if err := writeLine(bw, "Host: "+r.Host); err != nil {
			return err
		}
	}

	for _, f := range r.Fields {
		if strings.EqualFold(f.Name, "Content-Length") {
			continue
		}
		if err := writeLine(bw, f.Name+": "+f.Value); err != nil {
			return err
		}
	}

	if len(r.Body) > 0 {
		if err := writeLine(bw, "Content-Length: "+strconv.Itoa(len(r.Body))); err != nil {
			return err
		}
	}

	if err := writeLine(bw, ""); err != nil {
		return err
	}

	if _, err := bw.Write(r.Body); err != nil {
		return errors.Wrap(err, "writing request body")
	}

	return errors.Wrap(bw.Flush(), "flushing request")
}

func writeLine(bw *bufio.Writer, line string) error {
	if _, err := bw.WriteString(line); err != nil {
		return errors.Wrap(err, "writing line")
	}
	if _, err := bw.Write(crlf); err != nil {
		return errors.Wrap(err, "writing line terminator")
	}
	return nil
}
