package protocol

import (
	"testing"

	"github.com/otley/rbnet/internal/wire"
)

func TestInputRoundTrip(t *testing.T) {
	cases := []Input{
		{},
		{Jump: true, AimX: 1.5, AimZ: -2.5},
		{Forward: true, Left: true, AimX: -0.25, AimZ: 0.75},
		{Jump: true, Forward: true, Back: true, Left: true, Right: true, AimX: 3.14, AimZ: -3.14},
	}
	for _, in := range cases {
		w := wire.NewWriter(9)
		EncodeInput(w, in)
		r := wire.NewReader(w.Finalize())
		got := DecodeInput(r)
		if got != in {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, in)
		}
		if r.Failed() {
			t.Fatal("reader reported failure on a correctly sized buffer")
		}
	}
}

func TestDecodeInputOnTruncatedBuffer(t *testing.T) {
	r := wire.NewReader([]byte{0x01})
	_ = DecodeInput(r)
	if !r.Failed() {
		t.Fatal("expected Failed() after reading past a 1-byte buffer")
	}
}
