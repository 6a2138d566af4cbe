// Package quictransport is the production internal/transport.Listener/
// Connection/Client implementation, backed by quic-go: ALPN "physx-quic",
// TLS 1.3, optional 0-RTT resumption, one bidirectional stream per
// connection, per spec §4.4.
package quictransport

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/quic-go/quic-go"

	"github.com/otley/rbnet/internal/framer"
	"github.com/otley/rbnet/internal/transport"
	"github.com/otley/rbnet/internal/wire"
)

// readBufSize is the per-Read scratch buffer size; ALPN itself is a
// Listener/Client construction parameter (see NewListener, NewClient),
// not a package constant, so it can be overridden via the --alpn flag.
const readBufSize = 64 * 1024

// Connection wraps one quic.Connection and its single bidirectional
// stream, feeding received bytes through an internal/framer.Framer and
// dispatching reassembled payloads to the registered OnData callback.
type Connection struct {
	qconn  quic.Connection
	stream quic.Stream

	state atomic.Int32

	bytesReceived atomic.Uint64

	fr *framer.Framer

	cbMu         sync.Mutex
	onConnect    func()
	onData       func([]byte)
	onDisconnect func()
	onError      func(error)

	closeOnce sync.Once
}

func newConnection(qconn quic.Connection, stream quic.Stream, maxRecv, maxDecomp uint64) *Connection {
	c := &Connection{qconn: qconn, stream: stream}
	c.state.Store(int32(transport.Connecting))
	c.fr = framer.New(maxRecv, maxDecomp)
	c.fr.OnData = func(payload []byte) {
		c.cbMu.Lock()
		cb := c.onData
		c.cbMu.Unlock()
		if cb != nil {
			cb(payload)
		}
	}
	c.fr.OnBufferOverflow = func(length uint64) {
		c.fail(fmt.Errorf("quictransport: declared payload length %d exceeds max_recv", length))
	}
	c.fr.OnDecompressionFailed = func() {
		c.fail(errors.New("quictransport: lz4 decompression failed"))
	}
	go c.readLoop()
	return c
}

// open transitions the connection to Open and fires onConnect. Called
// once by Listener.Accept / Client.Connect, after both ends of the
// stream are ready.
func (c *Connection) open() {
	c.state.Store(int32(transport.Open))
	c.cbMu.Lock()
	cb := c.onConnect
	c.cbMu.Unlock()
	if cb != nil {
		cb()
	}
}

func (c *Connection) readLoop() {
	buf := make([]byte, readBufSize)
	for {
		n, err := c.stream.Read(buf)
		if n > 0 {
			// Incremented before framing, per spec §4.3, so bandwidth
			// accounting is independent of parse success.
			c.bytesReceived.Add(uint64(n))
			c.fr.Feed(buf[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				c.shutdown(nil)
			} else {
				c.shutdown(err)
			}
			return
		}
		if c.fr.Terminated() {
			c.shutdown(nil)
			return
		}
	}
}

func (c *Connection) fail(err error) {
	c.cbMu.Lock()
	cb := c.onError
	c.cbMu.Unlock()
	if cb != nil {
		cb(err)
	}
	c.Disconnect()
}

// BytesReceived returns the atomic byte counter described in spec §4.3.
func (c *Connection) BytesReceived() uint64 { return c.bytesReceived.Load() }

// Send frames payload (length-prefixed, per internal/framer's header,
// with optional LZ4 compression) and writes it to the stream. ownership
// only matters in the original buffer-lifetime sense; Go's GC reclaims
// FreeAfterSend buffers once Send returns, there's nothing further to do.
func (c *Connection) Send(payload []byte, _ transport.Ownership, compression transport.Compression) error {
	if transport.State(c.state.Load()) != transport.Open {
		return transport.ErrNotOpen
	}

	body := payload
	method := framer.CompNone
	if compression == transport.CompressLZ4 {
		w := wire.NewWriter(len(payload))
		w.Bytes(payload)
		compressed, err := w.LZ4()
		if err != nil {
			return fmt.Errorf("quictransport: lz4 compress: %w", err)
		}
		body = compressed
		method = framer.CompLZ4
	}

	header := framer.EncodeHeader(uint64(len(body)), method)
	if _, err := c.stream.Write(header[:]); err != nil {
		c.shutdown(err)
		return err
	}
	if _, err := c.stream.Write(body); err != nil {
		c.shutdown(err)
		return err
	}
	return nil
}

// Disconnect triggers a graceful shutdown; safe from any goroutine and
// idempotent (repeat calls after the first are no-ops).
func (c *Connection) Disconnect() {
	c.shutdown(nil)
}

func (c *Connection) shutdown(cause error) {
	c.closeOnce.Do(func() {
		c.state.Store(int32(transport.Closing))
		_ = c.stream.Close()
		if cause != nil {
			c.qconn.CloseWithError(1, cause.Error())
		} else {
			c.qconn.CloseWithError(0, "")
		}
		c.state.Store(int32(transport.Closed))

		c.cbMu.Lock()
		errCb, disCb := c.onError, c.onDisconnect
		c.cbMu.Unlock()
		if cause != nil && errCb != nil {
			errCb(cause)
		}
		// onDisconnect MUST be idempotent per spec §4.4's cancellation
		// note; closeOnce already guarantees it fires at most once here.
		if disCb != nil {
			disCb()
		}
	})
}

func (c *Connection) State() transport.State { return transport.State(c.state.Load()) }

func (c *Connection) OnConnect(f func())         { c.cbMu.Lock(); c.onConnect = f; c.cbMu.Unlock() }
func (c *Connection) OnData(f func(view []byte)) { c.cbMu.Lock(); c.onData = f; c.cbMu.Unlock() }
func (c *Connection) OnDisconnect(f func())      { c.cbMu.Lock(); c.onDisconnect = f; c.cbMu.Unlock() }
func (c *Connection) OnError(f func(err error))  { c.cbMu.Lock(); c.onError = f; c.cbMu.Unlock() }
