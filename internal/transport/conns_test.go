package transport_test

import (
	"testing"

	"github.com/otley/rbnet/internal/transport"
	"github.com/otley/rbnet/internal/transport/transporttest"
)

func TestConnsSendRoutesToRegisteredConnection(t *testing.T) {
	a, b := transporttest.Pipe(1<<16, 1<<16)
	received := make(chan []byte, 1)
	b.OnData(func(view []byte) { received <- append([]byte(nil), view...) })

	conns := transport.NewConns()
	conns.Add(7, a)

	conns.Send(7, []byte("snapshot"))

	select {
	case got := <-received:
		if string(got) != "snapshot" {
			t.Fatalf("got %q", got)
		}
	default:
		t.Fatal("expected a synchronous delivery through the in-memory pipe")
	}
}

func TestConnsSendToUnknownPIDIsNoop(t *testing.T) {
	conns := transport.NewConns()
	conns.Send(99, []byte("nobody home")) // must not panic
}

func TestConnsRemoveStopsRouting(t *testing.T) {
	a, b := transporttest.Pipe(1<<16, 1<<16)
	calls := 0
	b.OnData(func(view []byte) { calls++ })

	conns := transport.NewConns()
	conns.Add(1, a)
	conns.Remove(1)
	conns.Send(1, []byte("late"))

	if calls != 0 {
		t.Fatalf("OnData fired %d times after Remove, want 0", calls)
	}
}

func TestSnapshotReturnsAPrivateCopy(t *testing.T) {
	a, _ := transporttest.Pipe(1<<16, 1<<16)
	conns := transport.NewConns()
	conns.Add(1, a)

	snap := conns.Snapshot()
	conns.Add(2, a)
	if len(snap) != 1 {
		t.Fatalf("snapshot len = %d, want 1 (unaffected by later Add)", len(snap))
	}
}
