package wire

import (
	"encoding/binary"
	"math"

	"github.com/pierrec/lz4/v4"
)

// Reader wraps a borrowed byte view. All typed reads advance the cursor;
// a read past the end sets the error flag and returns the zero value
// instead of panicking, so a malformed payload never traps the decoder.
type Reader struct {
	buf    []byte
	off    int
	failed bool
}

// NewReader wraps b without copying it. The caller must not mutate b
// while the Reader is in use.
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Failed reports whether any read has gone past the end of the view.
func (r *Reader) Failed() bool { return r.failed }

// EOF reports whether the cursor has reached the end of the view.
func (r *Reader) EOF() bool { return r.off >= len(r.buf) }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	if r.off >= len(r.buf) {
		return 0
	}
	return len(r.buf) - r.off
}

func (r *Reader) take(n int) []byte {
	if r.failed || r.off+n > len(r.buf) {
		r.failed = true
		r.off = len(r.buf)
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) U8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *Reader) U16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *Reader) U32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *Reader) U64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *Reader) I64() int64 { return int64(r.U64()) }

func (r *Reader) F32() float32 {
	return math.Float32frombits(r.U32())
}

// Bytes reads n raw bytes (the returned slice aliases the underlying view).
func (r *Reader) Bytes(n int) []byte {
	b := r.take(n)
	if b == nil {
		return nil
	}
	return b
}

// UTF16String is the inverse of Writer.UTF16String.
func (r *Reader) UTF16String() string {
	n := r.U32()
	units := make([]uint16, n)
	for i := range units {
		units[i] = r.U16()
		if r.failed {
			return ""
		}
	}
	return utf16Decode(units)
}

// DecompressLZ4 decodes a block produced by Writer.LZ4 into dst, which
// must be at least as large as the decompressed block (the framer passes
// its max_decomp-sized buffer), and returns the decompressed length.
func DecompressLZ4(src, dst []byte) (int, error) {
	return lz4.UncompressBlock(src, dst)
}

func utf16Decode(units []uint16) string {
	runes := make([]rune, 0, len(units))
	for i := 0; i < len(units); i++ {
		u := units[i]
		if u >= 0xd800 && u <= 0xdbff && i+1 < len(units) {
			lo := units[i+1]
			if lo >= 0xdc00 && lo <= 0xdfff {
				r := (rune(u-0xd800)<<10 | rune(lo-0xdc00)) + 0x10000
				runes = append(runes, r)
				i++
				continue
			}
		}
		runes = append(runes, rune(u))
	}
	return string(runes)
}
