package quictransport

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/otley/rbnet/internal/transport"
)

// Listener is the server-side transport.Listener, backed by a quic-go
// early listener (so resumed clients may send 0-RTT data in their first
// flight, per spec §4.4).
type Listener struct {
	tlsConfig   *tls.Config
	idleTimeout time.Duration
	maxRecv     uint64
	maxDecomp   uint64

	mu      sync.Mutex
	inner   *quic.EarlyListener
	stopped bool
}

// NewListener builds a Listener. tlsConfig's NextProtos is overwritten
// with alpn (§6.3's config default is "physx-quic", but it's a flag, not
// a constant, so it's threaded through rather than hardcoded).
func NewListener(tlsConfig *tls.Config, alpn string, idleTimeout time.Duration, maxRecv, maxDecomp uint64) *Listener {
	tlsConfig.NextProtos = []string{alpn}
	return &Listener{tlsConfig: tlsConfig, idleTimeout: idleTimeout, maxRecv: maxRecv, maxDecomp: maxDecomp}
}

func (l *Listener) Listen(port int) error {
	cfg := &quic.Config{
		MaxIdleTimeout: l.idleTimeout,
		Allow0RTT:      true,
	}
	ln, err := quic.ListenAddrEarly(fmt.Sprintf(":%d", port), l.tlsConfig, cfg)
	if err != nil {
		return fmt.Errorf("quictransport: listen :%d: %w", port, err)
	}
	l.mu.Lock()
	l.inner = ln
	l.mu.Unlock()
	return nil
}

// Accept blocks for the next peer's connection and its single
// bidirectional stream, per §4.4 ("one bidirectional stream per
// connection").
func (l *Listener) Accept() (transport.Connection, error) {
	l.mu.Lock()
	ln := l.inner
	stopped := l.stopped
	l.mu.Unlock()
	if stopped || ln == nil {
		return nil, transport.ErrListenerStopped
	}

	qconn, err := ln.Accept(context.Background())
	if err != nil {
		l.mu.Lock()
		stopped := l.stopped
		l.mu.Unlock()
		if stopped {
			return nil, transport.ErrListenerStopped
		}
		return nil, fmt.Errorf("quictransport: accept: %w", err)
	}

	stream, err := qconn.AcceptStream(context.Background())
	if err != nil {
		qconn.CloseWithError(1, "stream accept failed")
		return nil, fmt.Errorf("quictransport: accept stream: %w", err)
	}

	conn := newConnection(qconn, stream, l.maxRecv, l.maxDecomp)
	conn.open()
	return conn, nil
}

func (l *Listener) Stop() {
	l.mu.Lock()
	l.stopped = true
	ln := l.inner
	l.mu.Unlock()
	if ln != nil {
		ln.Close()
	}
}
