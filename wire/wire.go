// Package wire implements the HTTP/1.1 text framing used by the client:
// request serialization and response parsing. It emits CRLF line
// terminators and defensively accepts CRLF or a bare LF on input.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112
package wire

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

const (
	cr byte = '\r'
	lf byte = '\n'
	sp byte = ' '
)

var crlf = []byte{cr, lf}

// Field is a single header field line, name and value as they appear on
// the wire. Case and order are preserved; semantics live a layer above.
type Field struct {
	Name  string
	Value string
}

// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.6.2-2
func isValidToken(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, c := range s {
		if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') {
			continue
		}
		if '0' <= c && c <= '9' {
			continue
		}

		switch c {
		case '!', '#', '$', '%', '&', '\'', '*', '+',
			'-', '.', '^', '_', '`', '|', '~':
			continue
		}

		return false
	}

	return true
}

func isValidFieldValue(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case cr, lf, 0:
			return false
		}
	}
	return true
}

var errLineTooLong = errors.New("line length exceeds limit")

// readLine reads a single line off br, stripping the terminator. CRLF and
// bare LF both terminate a line. A non-zero limit bounds the line length
// including the terminator.
func readLine(br *bufio.Reader, limit uint) ([]byte, error) {
	line, err := br.ReadBytes(lf)
	if err != nil {
		if err == io.EOF && len(line) > 0 {
			// Bytes arrived but the terminator never did.
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	if limit > 0 && uint(len(line)) > limit {
		return nil, errLineTooLong
	}

	line = line[:len(line)-1] // LF
	if n := len(line); n > 0 && line[n-1] == cr {
		line = line[:n-1]
	}

	return line, nil
}

func trimOWS(b []byte) []byte {
	for len(b) > 0 && (b[0] == sp || b[0] == '\t') {
		b = b[1:]
	}
	for n := len(b); n > 0 && (b[n-1] == sp || b[n-1] == '\t'); n = len(b) {
		b = b[:n-1]
	}
	return b
}
