package minihttp

import (
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/idna"
)

// Target is a parsed request URL. The scheme decides whether the
// connection gets TLS wrapped; nothing else does.
type Target struct {
	Scheme string // "http" or "https"
	Host   string // IDNA ASCII form
	Port   uint16
	Path   string // escaped, "/" when absent
	Query  string // raw query without the leading '?', may be empty
}

var (
	ErrUnsupportedScheme = errors.New("scheme must be http or https")
	ErrEmptyHost         = errors.New("url has no host")
)

// ParseTarget parses raw into a Target. Malformed input fails to parse;
// nothing is guessed beyond the scheme-default port.
func ParseTarget(raw string) (*Target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrap(err, "parsing url")
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, errors.Wrapf(ErrUnsupportedScheme, "scheme %q", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return nil, ErrEmptyHost
	}
	if !strings.Contains(host, ":") {
		// Domain names go through IDNA mapping; v6 literals must not.
		mapped, err := idna.Lookup.ToASCII(host)
		if err != nil {
			return nil, errors.Wrapf(err, "mapping host %q", host)
		}
		host = mapped
	}

	port := defaultPort(scheme)
	if raw := u.Port(); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 16)
		if err != nil || parsed == 0 {
			return nil, errors.Errorf("port %q is not valid", raw)
		}
		port = uint16(parsed)
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}

	return &Target{
		Scheme: scheme,
		Host:   host,
		Port:   port,
		Path:   path,
		Query:  u.RawQuery,
	}, nil
}

func defaultPort(scheme string) uint16 {
	if scheme == "https" {
		return 443
	}
	return 80
}

// HostPort is the address the connection factory dials (or tunnels to).
func (t *Target) HostPort() string {
	return net.JoinHostPort(t.Host, strconv.FormatUint(uint64(t.Port), 10))
}

// HostHeader is the value for the Host field: the port is kept only when
// it isn't the scheme default.
func (t *Target) HostHeader() string {
	if t.Port == defaultPort(t.Scheme) {
		return t.Host
	}
	return t.HostPort()
}

// RequestTarget renders the origin-form target for the request line.
func (t *Target) RequestTarget() string {
	if t.Query == "" {
		return t.Path
	}
	return t.Path + "?" + t.Query
}

func (t *Target) IsTLS() bool { return t.Scheme == "https" }
