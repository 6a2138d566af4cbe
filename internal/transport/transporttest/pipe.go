// Package transporttest is an in-process fake of internal/transport: a
// connected pair of Connections backed by an in-memory pipe, no sockets,
// no TLS. internal/transport's Conns tests use it to exercise a real
// Send/OnData/Disconnect cycle, framer included, without quic-go.
package transporttest

import (
	"sync"

	"github.com/otley/rbnet/internal/framer"
	"github.com/otley/rbnet/internal/transport"
	"github.com/otley/rbnet/internal/wire"
)

// Pipe creates a connected pair: bytes sent on one side's Connection
// arrive, framed and reassembled, at the other side's OnData callback.
// Matches the shape of a single bidirectional stream per connection.
func Pipe(maxRecv, maxDecomp uint64) (a, b *Connection) {
	a = newConnection(maxRecv, maxDecomp)
	b = newConnection(maxRecv, maxDecomp)
	a.peer = b
	b.peer = a
	return a, b
}

// Connection is one end of an in-memory Pipe.
type Connection struct {
	peer *Connection

	fr *framer.Framer

	mu     sync.Mutex
	state  transport.State
	onConn func()
	onData func([]byte)
	onDisc func()
	onErr  func(error)
	closed bool
}

func newConnection(maxRecv, maxDecomp uint64) *Connection {
	c := &Connection{state: transport.Open}
	c.fr = framer.New(maxRecv, maxDecomp)
	c.fr.OnData = func(payload []byte) {
		c.mu.Lock()
		cb := c.onData
		c.mu.Unlock()
		if cb != nil {
			cb(payload)
		}
	}
	c.fr.OnBufferOverflow = func(length uint64) { c.failAndClose() }
	c.fr.OnDecompressionFailed = func() { c.failAndClose() }
	return c
}

func (c *Connection) failAndClose() {
	c.mu.Lock()
	cb := c.onErr
	c.mu.Unlock()
	if cb != nil {
		cb(transport.ErrNotOpen)
	}
	c.Disconnect()
}

// Send frames payload exactly as quictransport.Connection does and feeds
// it directly into the peer's framer - there is no real network hop.
func (c *Connection) Send(payload []byte, _ transport.Ownership, compression transport.Compression) error {
	c.mu.Lock()
	open := c.state == transport.Open
	peer := c.peer
	c.mu.Unlock()
	if !open {
		return transport.ErrNotOpen
	}

	body := payload
	method := framer.CompNone
	if compression == transport.CompressLZ4 {
		w := wire.NewWriter(len(payload))
		w.Bytes(payload)
		compressed, err := w.LZ4()
		if err != nil {
			return err
		}
		body = compressed
		method = framer.CompLZ4
	}
	header := framer.EncodeHeader(uint64(len(body)), method)

	peer.fr.Feed(header[:])
	peer.fr.Feed(body)
	return nil
}

func (c *Connection) Disconnect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.state = transport.Closed
	cb := c.onDisc
	c.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (c *Connection) State() transport.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Connection) OnConnect(f func())         { c.mu.Lock(); c.onConn = f; c.mu.Unlock() }
func (c *Connection) OnData(f func(view []byte)) { c.mu.Lock(); c.onData = f; c.mu.Unlock() }
func (c *Connection) OnDisconnect(f func())      { c.mu.Lock(); c.onDisc = f; c.mu.Unlock() }
func (c *Connection) OnError(f func(err error))  { c.mu.Lock(); c.onErr = f; c.mu.Unlock() }
