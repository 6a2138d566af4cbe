package quictransport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/otley/rbnet/internal/transport"
)

// Client is the client-side transport.Client, dialing with 0-RTT early
// data enabled so a session resumed against the same server skips a
// round trip, per spec §4.4.
type Client struct {
	tlsConfig   *tls.Config
	idleTimeout time.Duration
	maxRecv     uint64
	maxDecomp   uint64
}

// NewClient builds a Client. tlsConfig's NextProtos is overwritten with
// alpn; a non-nil ClientSessionCache on tlsConfig is what makes 0-RTT
// resumption actually trigger on a second Connect to the same server.
func NewClient(tlsConfig *tls.Config, alpn string, idleTimeout time.Duration, maxRecv, maxDecomp uint64) *Client {
	tlsConfig.NextProtos = []string{alpn}
	return &Client{tlsConfig: tlsConfig, idleTimeout: idleTimeout, maxRecv: maxRecv, maxDecomp: maxDecomp}
}

func (c *Client) Connect(host string, port int) (transport.Connection, error) {
	cfg := &quic.Config{MaxIdleTimeout: c.idleTimeout}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	qconn, err := quic.DialAddrEarly(context.Background(), addr, c.tlsConfig, cfg)
	if err != nil {
		return nil, fmt.Errorf("quictransport: dial %s: %w", addr, err)
	}

	stream, err := qconn.OpenStreamSync(context.Background())
	if err != nil {
		qconn.CloseWithError(1, "stream open failed")
		return nil, fmt.Errorf("quictransport: open stream: %w", err)
	}

	conn := newConnection(qconn, stream, c.maxRecv, c.maxDecomp)
	conn.open()
	return conn, nil
}
