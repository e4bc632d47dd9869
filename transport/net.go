package transport

import (
	"context"
	"net"

	"github.com/pkg/errors"
)

// NetDialer dials plain TCP connections through the operating system's
// network stack. The zero value is ready to use.
type NetDialer struct {
	// Dialer, if non-nil, overrides the net.Dialer used to open
	// connections (e.g. to bind a local address).
	Dialer *net.Dialer
}

var _ Dialer = (*NetDialer)(nil)

var zeroDialer net.Dialer

func (d *NetDialer) Dial(ctx context.Context, addr string) (Conn, error) {
	nd := d.Dialer
	if nd == nil {
		nd = &zeroDialer
	}

	conn, err := nd.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "dialing %s", addr)
	}

	if tc, ok := conn.(*net.TCPConn); ok {
		// Request and status lines are tiny writes. Don't let Nagle hold them.
		_ = tc.SetNoDelay(true)
	}

	return conn, nil
}
