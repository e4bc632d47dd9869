package transport

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNetDialerCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := &NetDialer{}
	conn, err := d.Dial(ctx, "127.0.0.1:80")
	assert.Error(t, err)
	assert.Nil(t, conn)
}

func TestNetDialerMalformedAddr(t *testing.T) {
	d := &NetDialer{}
	conn, err := d.Dial(context.Background(), "not an address")
	assert.Error(t, err)
	assert.Nil(t, conn)
}

func TestNetConnSatisfiesConn(t *testing.T) {
	// Anything the dialer hands out must be usable as a Conn.
	var _ Conn = (*net.TCPConn)(nil)
	var _ Conn = (net.Conn)(nil)
}
