// Package wire implements typed, bounds-checked sequential buffer I/O: a
// scratch Writer with forward-referenced slots and two finalisers
// (plain copy, LZ4 compressed copy), and a Reader over a borrowed byte
// view that never traps, recording an error flag instead.
package wire

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/pierrec/lz4/v4"
)

// ErrBufferFull is returned when a Writer append would exceed scratch capacity.
var ErrBufferFull = errors.New("wire: buffer full")

// Writer owns a fixed-capacity scratch buffer and supports typed append
// plus forward-referenced slots for values filled in after the fact (e.g.
// a trailing count written once the real count is known). Appends past
// the scratch capacity fail with ErrBufferFull instead of reallocating.
type Writer struct {
	cap int
	buf []byte
	err error
}

// NewWriter allocates a Writer with the given scratch capacity.
func NewWriter(capacity int) *Writer {
	return &Writer{cap: capacity, buf: make([]byte, 0, capacity)}
}

// Err returns the first error recorded by a failed append, if any.
func (w *Writer) Err() error { return w.err }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

func (w *Writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

// scratch is a discard buffer handed back once the Writer has already
// failed, so callers that don't check Err() after every append still
// can't write past the end of the real buffer.
var scratch [64]byte

func (w *Writer) grow(n int) []byte {
	if w.err != nil {
		if n <= len(scratch) {
			return scratch[:n]
		}
		return make([]byte, n)
	}
	if len(w.buf)+n > w.cap {
		w.fail(ErrBufferFull)
		if n <= len(scratch) {
			return scratch[:n]
		}
		return make([]byte, n)
	}
	start := len(w.buf)
	w.buf = w.buf[:start+n]
	return w.buf[start : start+n]
}

// Slot is a forward reference into the Writer's buffer, returned by
// reserve-and-fill style appends so the encoder can write a placeholder
// now and the real value once it's known.
type Slot struct {
	w   *Writer
	off int
}

// PutU32 overwrites the slot's 4 bytes in place, little-endian.
func (s Slot) PutU32(v uint32) {
	binary.LittleEndian.PutUint32(s.w.buf[s.off:s.off+4], v)
}

func (w *Writer) ReserveU32() Slot {
	off := len(w.buf)
	w.grow(4)
	return Slot{w: w, off: off}
}

func (w *Writer) U8(v uint8) {
	b := w.grow(1)
	b[0] = v
}

func (w *Writer) U16(v uint16) {
	b := w.grow(2)
	binary.LittleEndian.PutUint16(b, v)
}

func (w *Writer) U32(v uint32) {
	b := w.grow(4)
	binary.LittleEndian.PutUint32(b, v)
}

func (w *Writer) U64(v uint64) {
	b := w.grow(8)
	binary.LittleEndian.PutUint64(b, v)
}

func (w *Writer) I64(v int64) { w.U64(uint64(v)) }

func (w *Writer) F32(v float32) {
	w.U32(math.Float32bits(v))
}

// Bytes appends a raw byte slice (e.g. a pre-encoded record payload).
func (w *Writer) Bytes(b []byte) {
	copy(w.grow(len(b)), b)
}

// Fill appends n copies of b (bulk fill, e.g. zero-padding).
func (w *Writer) Fill(n int, b byte) {
	dst := w.grow(n)
	for i := range dst {
		dst[i] = b
	}
}

// UTF16String appends a length-prefixed (u32 count of code units) UTF-16LE string.
func (w *Writer) UTF16String(s string) {
	units := utf16Encode(s)
	w.U32(uint32(len(units)))
	for _, u := range units {
		w.U16(u)
	}
}

// Finalize copies the written bytes into a fresh owned buffer.
func (w *Writer) Finalize() []byte {
	out := make([]byte, len(w.buf))
	copy(out, w.buf)
	return out
}

// LZ4 compresses the written bytes into a fresh owned buffer using a
// block-level LZ4 encode (framer declares the compression profile
// separately; this is the raw compressed block).
func (w *Writer) LZ4() ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(w.buf)))
	var c lz4.Compressor
	n, err := c.CompressBlock(w.buf, dst)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Incompressible input: lz4 reports 0 when the block didn't shrink.
		return nil, errors.New("wire: lz4 block did not compress")
	}
	return dst[:n], nil
}

func utf16Encode(s string) []uint16 {
	out := make([]uint16, 0, len(s))
	for _, r := range s {
		if r <= 0xffff {
			out = append(out, uint16(r))
			continue
		}
		r -= 0x10000
		out = append(out, uint16(0xd800+(r>>10)), uint16(0xdc00+(r&0x3ff)))
	}
	return out
}
