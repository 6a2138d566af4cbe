package transport

import (
	"sync"

	"github.com/golang/glog"
)

// Conns is the server's live connection set, keyed by player id. A single
// mutex guards the map: Add happens on connect, Remove on
// shutdown-complete, per spec §4.4's "Synchronisation" note. Broadcast
// snapshots the set under the lock before issuing sends, so a connection
// that disconnects mid-broadcast just misses that round rather than
// racing the map.
//
// In the original C-style design a broadcast shares one SendReq across N
// connections via an atomic refcount, freed only once every completion
// fires - that bookkeeping exists purely to know when it's safe to free
// the payload buffer. Go's GC already answers that question, so Send
// here is a plain per-connection call and there is no refcount to carry.
type Conns struct {
	mu    sync.Mutex
	byPID map[uint32]Connection
}

// NewConns returns an empty connection set.
func NewConns() *Conns {
	return &Conns{byPID: make(map[uint32]Connection)}
}

// Add registers a connection under pid, replacing any prior entry.
func (c *Conns) Add(pid uint32, conn Connection) {
	c.mu.Lock()
	c.byPID[pid] = conn
	c.mu.Unlock()
}

// Remove drops pid from the set. Safe to call even if pid was never
// added or was already removed.
func (c *Conns) Remove(pid uint32) {
	c.mu.Lock()
	delete(c.byPID, pid)
	c.mu.Unlock()
}

// Get returns pid's connection, if still registered.
func (c *Conns) Get(pid uint32) (Connection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	conn, ok := c.byPID[pid]
	return conn, ok
}

// Send implements internal/sim.Sender: best-effort, uncompressed,
// borrowed-buffer delivery to one connection. Failures are logged, not
// surfaced - sim.Loop's broadcast must not let one bad connection stop
// every other connection's snapshot.
func (c *Conns) Send(pid uint32, payload []byte) {
	conn, ok := c.Get(pid)
	if !ok {
		return
	}
	if err := conn.Send(payload, BorrowedBuffer, CompressNone); err != nil {
		glog.Warningf("transport: send to pid %d: %v", pid, err)
	}
}

// Snapshot returns every currently registered connection, for callers
// that need to iterate without holding the set's lock (e.g. a shutdown
// sweep). The returned slice is a private copy.
func (c *Conns) Snapshot() []Connection {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Connection, 0, len(c.byPID))
	for _, conn := range c.byPID {
		out = append(out, conn)
	}
	return out
}
