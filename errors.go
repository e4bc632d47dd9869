package minihttp

import "github.com/pkg/errors"

// Kind discriminates what stage of a send failed. Exactly one Kind is
// attached to every error a send returns.
type Kind uint8

const (
	// KindConnection: the host or proxy could not be reached before any
	// protocol byte was exchanged.
	KindConnection Kind = iota + 1
	// KindTLS: the handshake or certificate validation failed.
	KindTLS
	// KindProxy: the tunnel was rejected or the proxy reply was malformed.
	KindProxy
	// KindParse: malformed or unsupported HTTP framing, or an undecodable
	// body.
	KindParse
	// KindIO: a transport read or write failed after the connection was
	// established.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection error"
	case KindTLS:
		return "tls error"
	case KindProxy:
		return "proxy error"
	case KindParse:
		return "parse error"
	case KindIO:
		return "io error"
	}
	return "unknown error"
}

// Error is the single error type a send can return. The cause chain stays
// reachable through Unwrap, so errors.Is and errors.As keep working
// against sentinel and context errors underneath.
type Error struct {
	kind  Kind
	cause error
}

func wrapErr(kind Kind, cause error) *Error {
	return &Error{kind: kind, cause: cause}
}

func (e *Error) Kind() Kind { return e.kind }

func (e *Error) Error() string {
	if e.cause == nil {
		return e.kind.String()
	}
	return e.kind.String() + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error { return e.cause }

// KindOf extracts the Kind from err, if err came out of a send.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.kind, true
	}
	return 0, false
}
