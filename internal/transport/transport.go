// Package transport abstracts the connection-oriented stream transport
// (C4): a Listener accepting Connections server-side, and a Client
// dialing one client-side. The quic-go-backed implementation lives in
// quictransport (constructed by internal/bootstrap), and an in-memory fake
// for tests lives in transporttest. internal/sim does not import this
// package; it reaches the connections only through its Sender interface.
package transport

// State is a Connection's lifecycle state, per spec §4.4.
type State int

const (
	Connecting State = iota
	Open
	Closing
	Closed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "Connecting"
	case Open:
		return "Open"
	case Closing:
		return "Closing"
	case Closed:
		return "Closed"
	}
	return "Unknown"
}

// Ownership declares what a Connection.Send caller wants done with the
// payload buffer once the send completes.
type Ownership int

const (
	// BorrowedBuffer: the implementation must not retain payload past
	// the call; copy if the send needs to outlive the call.
	BorrowedBuffer Ownership = iota
	// FreeAfterSend: the implementation owns payload and may reuse or
	// discard it once every completion for this send has fired.
	FreeAfterSend
)

// Compression selects the per-message framer compression method.
type Compression int

const (
	CompressNone Compression = iota
	CompressLZ4
)

// Connection is one accepted server-side peer, or the client-side handle
// to the dialed server. Exactly one bidirectional stream backs it.
type Connection interface {
	// Send queues payload for delivery, framed per internal/framer's
	// header format. ownership governs buffer lifetime; compression
	// selects whether payload is LZ4-compressed before framing.
	Send(payload []byte, ownership Ownership, compression Compression) error
	// Disconnect triggers a graceful shutdown of the stream then the
	// connection. Safe from any goroutine; idempotent.
	Disconnect()
	State() State

	OnConnect(func())
	OnData(func(view []byte))
	OnDisconnect(func())
	OnError(func(err error))
}

// Listener accepts Connections on a port.
type Listener interface {
	Listen(port int) error
	// Accept blocks until a new Connection is accepted, or the listener
	// stops (returning ErrListenerStopped).
	Accept() (Connection, error)
	Stop()
}

// Client dials a single Connection to a remote host:port.
type Client interface {
	Connect(host string, port int) (Connection, error)
}
