package framer

import (
	"bytes"
	"testing"

	"github.com/otley/rbnet/internal/wire"
)

// TestScenarioS1ChunkSplit reproduces spec scenario S1: an 8-byte NONE
// header declaring len=5, followed by "hello", delivered as three
// arbitrary chunks. Exactly one OnData("hello") call is expected.
func TestScenarioS1ChunkSplit(t *testing.T) {
	hdr := EncodeHeader(5, CompNone)
	full := append(append([]byte{}, hdr[:]...), []byte("hello")...)

	chunks := [][]byte{full[0:3], full[3:10], full[10:13]}

	var got [][]byte
	f := New(1024, 1024)
	f.OnData = func(p []byte) {
		cp := append([]byte{}, p...)
		got = append(got, cp)
	}

	for _, c := range chunks {
		f.Feed(c)
	}

	if len(got) != 1 {
		t.Fatalf("got %d OnData calls, want 1", len(got))
	}
	if string(got[0]) != "hello" {
		t.Fatalf("payload = %q, want hello", got[0])
	}
	if f.st != stateAwaitingHeader || f.headerLen != 0 {
		t.Fatalf("framer left in state %v headerLen %d, want AwaitingHeader(0)", f.st, f.headerLen)
	}
}

// TestScenarioS2Overflow reproduces S2: max_recv=1024, declared len=2048.
func TestScenarioS2Overflow(t *testing.T) {
	f := New(1024, 1024)
	var overflowLen uint64
	var overflowCalled bool
	f.OnBufferOverflow = func(n uint64) {
		overflowCalled = true
		overflowLen = n
	}
	called := false
	f.OnData = func([]byte) { called = true }

	hdr := EncodeHeader(2048, CompNone)
	f.Feed(hdr[:])
	f.Feed([]byte("some trailing bytes that should be dropped"))

	if !overflowCalled || overflowLen != 2048 {
		t.Fatalf("overflow called=%v len=%d, want true/2048", overflowCalled, overflowLen)
	}
	if called {
		t.Fatal("OnData must not fire after overflow")
	}
	if !f.Terminated() {
		t.Fatal("framer should be terminated after overflow")
	}
}

// TestArbitraryByteSplitsInvariant4 checks invariant 4: for many arbitrary
// splits of a multi-message stream, the framer reproduces the same
// ordered set of payloads as a single-chunk delivery.
func TestArbitraryByteSplitsInvariant4(t *testing.T) {
	msgs := []string{"a", "hello world", "", "physics-tick-delta-payload"}
	var full []byte
	for _, m := range msgs {
		hdr := EncodeHeader(uint64(len(m)), CompNone)
		full = append(full, hdr[:]...)
		full = append(full, []byte(m)...)
	}

	splitSizes := []int{1, 2, 3, 5, 7, 11, 13, 100}
	for _, sz := range splitSizes {
		var got [][]byte
		f := New(4096, 4096)
		f.OnData = func(p []byte) {
			got = append(got, append([]byte{}, p...))
		}
		for i := 0; i < len(full); i += sz {
			end := i + sz
			if end > len(full) {
				end = len(full)
			}
			f.Feed(full[i:end])
		}
		if len(got) != len(msgs) {
			t.Fatalf("split size %d: got %d payloads, want %d", sz, len(got), len(msgs))
		}
		for i, m := range msgs {
			if !bytes.Equal(got[i], []byte(m)) {
				t.Fatalf("split size %d: payload %d = %q, want %q", sz, i, got[i], m)
			}
		}
	}
}

func TestLZ4PayloadRoundTrip(t *testing.T) {
	// Build an LZ4-compressed block the way the sender side would, then
	// make sure the framer decompresses it transparently.
	payload := bytes.Repeat([]byte("tick"), 64)

	w := wire.NewWriter(4096)
	w.Bytes(payload)
	compressed, err := w.LZ4()
	if err != nil {
		t.Fatalf("compress: %v", err)
	}

	hdr := EncodeHeader(uint64(len(compressed)), CompLZ4)
	full := append(append([]byte{}, hdr[:]...), compressed...)

	var got []byte
	f := New(4096, 4096)
	f.OnData = func(p []byte) { got = append([]byte{}, p...) }
	f.Feed(full)

	if !bytes.Equal(got, payload) {
		t.Fatalf("decompressed payload mismatch: got %d bytes, want %d", len(got), len(payload))
	}
}
