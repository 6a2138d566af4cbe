// Package framer reassembles length-prefixed, optionally LZ4-compressed
// messages out of arbitrary byte runs delivered by a stream transport.
// It is a pure state machine: Feed may be called with chunks split at any
// byte boundary and must reassemble the same set of payloads a
// single-chunk delivery would produce.
package framer

import (
	"encoding/binary"

	"github.com/otley/rbnet/internal/wire"
)

// CompProfileBits is the width of the compression method field in the
// 64-bit framer header; the remaining bits are the payload length.
const CompProfileBits = 1

const lengthMask = (uint64(1) << (64 - CompProfileBits)) - 1

// CompMethod identifies the per-message compression method declared in
// the framer header.
type CompMethod uint8

const (
	CompNone CompMethod = 0
	CompLZ4  CompMethod = 1
)

type state uint8

const (
	stateAwaitingHeader state = iota
	stateAwaitingPayload
)

// Framer is a single-connection reassembly state machine. It is not safe
// for concurrent use; callers serialize Feed per connection (matching the
// transport adapter's single-reader-per-connection contract).
type Framer struct {
	maxRecv   uint64
	decompBuf []byte

	st        state
	header    [8]byte
	headerLen int

	remaining  uint64
	compressed bool
	payload    []byte // accumulated payload when reassembly spans calls
	payloadOff int

	terminated bool

	OnData                func(payload []byte)
	OnBufferOverflow      func(length uint64)
	OnDecompressionFailed func()
}

// New creates a Framer. maxRecv bounds the declared payload length (an
// oversized declaration terminates the connection); maxDecomp sizes the
// reusable per-connection LZ4 decompression buffer.
func New(maxRecv, maxDecomp uint64) *Framer {
	return &Framer{
		maxRecv:   maxRecv,
		decompBuf: make([]byte, maxDecomp),
	}
}

// Terminated reports whether overflow or a decompression failure has
// already fired; further bytes are dropped once true.
func (f *Framer) Terminated() bool { return f.terminated }

// Feed processes an incoming chunk, invoking OnData for every payload
// that becomes fully available (possibly more than one, possibly zero).
func (f *Framer) Feed(data []byte) {
	pos := 0
	for pos < len(data) && !f.terminated {
		switch f.st {
		case stateAwaitingHeader:
			pos = f.feedHeader(data, pos)
		case stateAwaitingPayload:
			pos = f.feedPayload(data, pos)
		}
	}
}

func (f *Framer) feedHeader(data []byte, pos int) int {
	need := 8 - f.headerLen
	avail := len(data) - pos
	n := need
	if avail < n {
		n = avail
	}
	copy(f.header[f.headerLen:f.headerLen+n], data[pos:pos+n])
	f.headerLen += n
	pos += n
	if f.headerLen < 8 {
		return pos
	}
	f.headerLen = 0
	raw := binary.LittleEndian.Uint64(f.header[:])
	f.compressed = raw>>(64-CompProfileBits) == uint64(CompLZ4)
	f.remaining = raw & lengthMask

	if f.remaining > f.maxRecv {
		f.terminated = true
		if f.OnBufferOverflow != nil {
			f.OnBufferOverflow(f.remaining)
		}
		return len(data)
	}

	f.st = stateAwaitingPayload
	f.payload = nil
	f.payloadOff = 0
	return pos
}

func (f *Framer) feedPayload(data []byte, pos int) int {
	avail := len(data) - pos
	remaining := int(f.remaining)

	// Whole payload present contiguously in this chunk and nothing was
	// carried over from a previous call: dispatch straight from the
	// incoming buffer, no copy.
	if f.payload == nil && avail >= remaining {
		f.dispatch(data[pos : pos+remaining])
		pos += remaining
		f.st = stateAwaitingHeader
		return pos
	}

	if f.payload == nil {
		f.payload = make([]byte, remaining)
	}
	n := remaining - f.payloadOff
	if avail < n {
		n = avail
	}
	copy(f.payload[f.payloadOff:f.payloadOff+n], data[pos:pos+n])
	f.payloadOff += n
	pos += n
	if f.payloadOff < remaining {
		return pos
	}

	f.dispatch(f.payload)
	f.payload = nil
	f.payloadOff = 0
	f.st = stateAwaitingHeader
	return pos
}

func (f *Framer) dispatch(payload []byte) {
	if !f.compressed {
		if f.OnData != nil {
			f.OnData(payload)
		}
		return
	}
	n, err := wire.DecompressLZ4(payload, f.decompBuf)
	if err != nil {
		f.terminated = true
		if f.OnDecompressionFailed != nil {
			f.OnDecompressionFailed()
		}
		return
	}
	if f.OnData != nil {
		f.OnData(f.decompBuf[:n])
	}
}

// EncodeHeader builds the 8-byte framer header for a payload of the given
// length and compression method (used by the sender side, C8/C4).
func EncodeHeader(length uint64, method CompMethod) [8]byte {
	var out [8]byte
	raw := (uint64(method) << (64 - CompProfileBits)) | (length & lengthMask)
	binary.LittleEndian.PutUint64(out[:], raw)
	return out
}
