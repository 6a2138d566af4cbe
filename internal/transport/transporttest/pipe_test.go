package transporttest

import (
	"bytes"
	"testing"
	"time"
)

func TestPipeDeliversUncompressedPayload(t *testing.T) {
	a, b := Pipe(1<<16, 1<<16)
	received := make(chan []byte, 1)
	b.OnData(func(view []byte) {
		got := append([]byte(nil), view...)
		received <- got
	})

	payload := []byte("hello replica snapshot")
	if err := a.Send(payload, 0, 0); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case got := <-received:
		if !bytes.Equal(got, payload) {
			t.Fatalf("got %q, want %q", got, payload)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for OnData")
	}
}

func TestPipeDeliversCompressedPayload(t *testing.T) {
	a, b := Pipe(1<<16, 1<<16)
	received := make(chan []byte, 1)
	b.OnData(func(view []byte) {
		got := append([]byte(nil), view...)
		received <- got
	})

	payload := bytes.Repeat([]byte("aaaaaaaaaaaaaaaaaaaaaaaaaa"), 64)
	if err := a.Send(payload, 0, 1); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case got := <-received:
		if !bytes.Equal(got, payload) {
			t.Fatalf("decompressed payload mismatch, len got=%d want=%d", len(got), len(payload))
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for OnData")
	}
}

func TestDisconnectIsIdempotentAndFiresOnce(t *testing.T) {
	a, _ := Pipe(1<<16, 1<<16)
	fires := 0
	a.OnDisconnect(func() { fires++ })
	a.Disconnect()
	a.Disconnect()
	a.Disconnect()
	if fires != 1 {
		t.Fatalf("onDisconnect fired %d times, want 1", fires)
	}
}
