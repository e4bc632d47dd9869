// Package tlswrap performs the client-side TLS handshake over an already
// established plain stream and hands back an encrypted stream behind the
// same transport.Conn interface. Layers above it never learn whether
// encryption happened.
//
// The cryptography itself is crypto/tls; this package owns the trust
// configuration and the handshake sequencing only.
package tlswrap

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"
	"time"

	"minihttp/transport"

	"github.com/pkg/errors"
)

// Config is the trust and protocol configuration shared by every
// handshake a Manager performs. Read-only after construction.
type Config struct {
	// RootCAs is the certificate trust store used to verify the peer's
	// chain. Nil means the system trust store.
	RootCAs *x509.CertPool

	// MinVersion is the minimum accepted TLS version. Zero means
	// tls.VersionTLS12.
	MinVersion uint16

	// NextProtos is the ALPN offer. The client speaks HTTP/1.1 only, so
	// this defaults to just "http/1.1".
	NextProtos []string
}

// Manager performs TLS handshakes. Safe for concurrent use.
type Manager struct {
	conf Config
}

func NewManager(conf Config) *Manager {
	return &Manager{conf: conf}
}

// Handshake negotiates TLS over conn with serverName carried as SNI and
// used for certificate hostname verification. On success the returned
// stream transparently encrypts writes and decrypts reads. On any failure
// the partial handshake state is discarded, conn is closed, and the error
// names the cause; no application byte has been written at that point.
func (m *Manager) Handshake(ctx context.Context, conn transport.Conn, serverName string) (transport.Conn, error) {
	cfg := &tls.Config{
		RootCAs:    m.conf.RootCAs,
		ServerName: serverName,
		MinVersion: m.conf.MinVersion,
		NextProtos: m.conf.NextProtos,
	}
	if cfg.MinVersion == 0 {
		cfg.MinVersion = tls.VersionTLS12
	}
	if cfg.NextProtos == nil {
		cfg.NextProtos = []string{"http/1.1"}
	}

	tconn := tls.Client(asNetConn(conn), cfg)
	if err := tconn.HandshakeContext(ctx); err != nil {
		_ = conn.Close()
		return nil, errors.Wrapf(err, "tls handshake with %s", serverName)
	}

	return tconn, nil
}

// asNetConn adapts a transport.Conn for crypto/tls, which wants the wider
// net.Conn. Streams coming off the real network already satisfy it; only
// synthetic test streams need the shim.
func asNetConn(conn transport.Conn) net.Conn {
	if nc, ok := conn.(net.Conn); ok {
		return nc
	}
	return noDeadlineConn{conn}
}

type noDeadlineConn struct{ transport.Conn }

func (noDeadlineConn) LocalAddr() net.Addr                { return dummyAddr{} }
func (noDeadlineConn) RemoteAddr() net.Addr               { return dummyAddr{} }
func (noDeadlineConn) SetDeadline(t time.Time) error      { return nil }
func (noDeadlineConn) SetReadDeadline(t time.Time) error  { return nil }
func (noDeadlineConn) SetWriteDeadline(t time.Time) error { return nil }

type dummyAddr struct{}

func (dummyAddr) Network() string { return "transport" }
func (dummyAddr) String() string  { return "transport" }
