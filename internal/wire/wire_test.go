package wire

import "testing"

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter(64)
	w.U8(0xAB)
	w.U16(1234)
	w.U32(0xdeadbeef)
	w.I64(-42)
	w.F32(3.25)
	w.Bytes([]byte{1, 2, 3})
	w.UTF16String("hi")

	buf := w.Finalize()
	r := NewReader(buf)
	if got := r.U8(); got != 0xAB {
		t.Fatalf("u8 = %x", got)
	}
	if got := r.U16(); got != 1234 {
		t.Fatalf("u16 = %d", got)
	}
	if got := r.U32(); got != 0xdeadbeef {
		t.Fatalf("u32 = %x", got)
	}
	if got := r.I64(); got != -42 {
		t.Fatalf("i64 = %d", got)
	}
	if got := r.F32(); got != 3.25 {
		t.Fatalf("f32 = %v", got)
	}
	if got := r.Bytes(3); string(got) != string([]byte{1, 2, 3}) {
		t.Fatalf("bytes = %v", got)
	}
	if got := r.UTF16String(); got != "hi" {
		t.Fatalf("utf16 = %q", got)
	}
	if r.Failed() || !r.EOF() {
		t.Fatalf("expected clean EOF, failed=%v eof=%v", r.Failed(), r.EOF())
	}
}

func TestReaderNeverTrapsPastEnd(t *testing.T) {
	r := NewReader([]byte{1, 2})
	_ = r.U32() // past end
	if !r.Failed() {
		t.Fatal("expected Failed() after read past end")
	}
	if v := r.U8(); v != 0 {
		t.Fatalf("further reads after failure should return zero, got %d", v)
	}
}

func TestReserveU32Slot(t *testing.T) {
	w := NewWriter(16)
	slot := w.ReserveU32()
	w.U8(7)
	slot.PutU32(99)

	buf := w.Finalize()
	r := NewReader(buf)
	if got := r.U32(); got != 99 {
		t.Fatalf("slot = %d, want 99", got)
	}
	if got := r.U8(); got != 7 {
		t.Fatalf("trailing byte = %d, want 7", got)
	}
}

func TestWriterBufferFull(t *testing.T) {
	w := NewWriter(4)
	w.U32(1)
	if w.Err() != nil {
		t.Fatalf("unexpected error after filling exactly to capacity: %v", w.Err())
	}
	w.U8(2)
	if w.Err() != ErrBufferFull {
		t.Fatalf("Err() = %v, want ErrBufferFull", w.Err())
	}
}

func TestLZ4RoundTrip(t *testing.T) {
	w := NewWriter(256)
	payload := make([]byte, 200)
	for i := range payload {
		payload[i] = byte(i % 7) // compressible pattern
	}
	w.Bytes(payload)

	compressed, err := w.LZ4()
	if err != nil {
		t.Fatalf("LZ4() error: %v", err)
	}
	dst := make([]byte, len(payload))
	n, err := DecompressLZ4(compressed, dst)
	if err != nil {
		t.Fatalf("DecompressLZ4 error: %v", err)
	}
	if n != len(payload) {
		t.Fatalf("decompressed length = %d, want %d", n, len(payload))
	}
	for i := range payload {
		if dst[i] != payload[i] {
			t.Fatalf("byte %d mismatch: got %d want %d", i, dst[i], payload[i])
		}
	}
}
