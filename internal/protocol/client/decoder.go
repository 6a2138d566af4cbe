// Package client implements the client-side snapshot decoder (C9): the
// inverse of internal/protocol/server, rebuilding a player map and a
// parallel object mirror from the framed snapshot bytes.
//
// Neither side ever puts the server's internal object id on the wire -
// both the cache (C6) and this mirror are plain vectors walked in
// lockstep, identified purely by position. Decode assigns each locally
// tracked object an opaque, client-local handle for the Sink to key on.
package client

import (
	"bytes"
	"errors"

	"github.com/otley/rbnet/internal/bitcodec"
	"github.com/otley/rbnet/internal/wire"
	"github.com/otley/rbnet/mathx"
	"github.com/otley/rbnet/protocol"
)

var (
	ErrVersionMismatch = errors.New("client: protocol version mismatch")
	ErrCacheDivergence = errors.New("client: declared cache size diverges from local mirror")
	ErrAddsOverflow    = errors.New("client: adds_count exceeds object id space")
	ErrTrailingBytes   = errors.New("client: trailing bytes after snapshot")
	ErrTruncated       = errors.New("client: snapshot truncated")
	ErrMalformedRecord = errors.New("client: unrecognised record subop")
)

// Sink receives the decoded effects of one snapshot. Implementations own
// whatever local representation (render objects, physics mirrors) the
// handles and pids refer to; internal/interp's Mirror is one such Sink.
type Sink interface {
	OnSnapshotTime(unixMs int64)

	AddPlayer(pid uint32)
	SetPlayerState(pid uint32, state protocol.PlayerState)
	RemovePlayer(pid uint32)

	AddObject(handle uint32, typeTag protocol.ObjectTypeTag, shape protocol.Shape, pos mathx.Vec3, rot mathx.Quat)
	UpdateObject(handle uint32, pos mathx.Vec3, rot mathx.Quat, sleeping bool)
	RemoveObject(handle uint32)
}

type mirrorEntry struct {
	handle   uint32
	prev     mathx.Vec3
	sleeping bool
}

// Decoder is the stateful client-side mirror of one connection's replica
// cache: it must persist across calls to Decode so the next snapshot's
// divergence check and delta feedback have something to compare against.
type Decoder struct {
	sink      Sink
	players   map[uint32]struct{}
	mirror    []mirrorEntry
	nextLocal uint32
}

// NewDecoder returns a Decoder with an empty mirror, as held for a freshly
// established connection.
func NewDecoder(sink Sink) *Decoder {
	return &Decoder{sink: sink, players: make(map[uint32]struct{})}
}

// Decode runs one framed payload through the full decode per spec §4.9.
// Decode takes no lock itself and applies each record to the Sink as it
// is read; RunClient calls it with no lock held around the call, so a
// render loop reading the Sink concurrently can see a half-applied
// snapshot.
func (d *Decoder) Decode(r *wire.Reader) error {
	ver := r.Bytes(3)
	if r.Failed() {
		return ErrTruncated
	}
	if !bytes.Equal(ver, protocol.Version[:]) {
		return ErrVersionMismatch
	}

	d.sink.OnSnapshotTime(r.I64())

	if err := d.decodePlayerTable(r); err != nil {
		return err
	}
	if err := d.decodeCacheDiff(r); err != nil {
		return err
	}
	if err := d.decodeAdds(r); err != nil {
		return err
	}

	finalSize := r.U32()
	if int(finalSize) != len(d.mirror) {
		return ErrCacheDivergence
	}
	if r.Remaining() != 0 {
		return ErrTrailingBytes
	}
	if r.Failed() {
		return ErrTruncated
	}
	return nil
}

func (d *Decoder) decodePlayerTable(r *wire.Reader) error {
	count := r.U32()
	seen := make(map[uint32]struct{}, count)
	for i := uint32(0); i < count; i++ {
		pid := r.U32()
		state := readPlayerState(r)
		if _, known := d.players[pid]; !known {
			d.sink.AddPlayer(pid)
		}
		seen[pid] = struct{}{}
		d.sink.SetPlayerState(pid, state)
	}
	for pid := range d.players {
		if _, ok := seen[pid]; !ok {
			d.sink.RemovePlayer(pid)
		}
	}
	d.players = seen
	if r.Failed() {
		return ErrTruncated
	}
	return nil
}

func (d *Decoder) decodeCacheDiff(r *wire.Reader) error {
	cacheSize := r.U32()
	if int(cacheSize) != len(d.mirror) {
		return ErrCacheDivergence
	}

	write := 0
	for i := 0; i < len(d.mirror); i++ {
		m := d.mirror[i]
		header := r.U8()
		subop := protocol.RecordSubop(header >> 6)

		switch subop {
		case protocol.SubopStateChange:
			flags := protocol.StateFlags(header & 0x3f)
			switch {
			case flags&protocol.StateRemove != 0:
				d.sink.RemoveObject(m.handle)
				continue
			case flags&protocol.StateSleep != 0:
				if !m.sleeping {
					pos := mathx.Vec3{X: r.F32(), Y: r.F32(), Z: r.F32()}
					rot := mathx.Quat{X: r.F32(), Y: r.F32(), Z: r.F32(), W: r.F32()}
					m.prev = pos
					m.sleeping = true
					d.sink.UpdateObject(m.handle, pos, rot, true)
				}
				// Steady sleeper: diff.go emits a bare keepalive header, no
				// pose follows; m is unchanged.
			default:
				inline := r.U8()
				pos, rot := decodeUpdatePoseBody(inline, r, m.prev)
				m.prev = pos
				m.sleeping = false
				d.sink.UpdateObject(m.handle, pos, rot, false)
			}
		case protocol.SubopUpdatePose:
			pos, rot := decodeUpdatePoseBody(header, r, m.prev)
			m.prev = pos
			d.sink.UpdateObject(m.handle, pos, rot, false)
		default:
			return ErrMalformedRecord
		}

		d.mirror[write] = m
		write++
	}
	d.mirror = d.mirror[:write]
	if r.Failed() {
		return ErrTruncated
	}
	return nil
}

func (d *Decoder) decodeAdds(r *wire.Reader) error {
	count := r.U32()
	if count > 65536 {
		return ErrAddsOverflow
	}
	for i := uint32(0); i < count; i++ {
		header := r.U8()
		typeTag := protocol.ObjectTypeTag(header & 0x3f)

		pos := bitcodec.DecodeVec3_48(r.Bytes(6))
		rot := bitcodec.DecodeQuat32(r.U32())
		shape := decodeShape(typeTag, r)

		handle := d.nextLocal
		d.nextLocal++
		d.mirror = append(d.mirror, mirrorEntry{handle: handle, prev: pos})
		d.sink.AddObject(handle, typeTag, shape, pos, rot)
	}
	if r.Failed() {
		return ErrTruncated
	}
	return nil
}

func decodeUpdatePoseBody(header byte, r *wire.Reader, prev mathx.Vec3) (mathx.Vec3, mathx.Quat) {
	rx := bitcodec.DeltaRange((header >> 4) & 3)
	ry := bitcodec.DeltaRange((header >> 2) & 3)
	rz := bitcodec.DeltaRange(header & 3)
	bx, by, bz := r.U8(), r.U8(), r.U8()
	pos := mathx.Vec3{
		X: bitcodec.DecodeDeltaAxis(prev.X, rx, bx),
		Y: bitcodec.DecodeDeltaAxis(prev.Y, ry, by),
		Z: bitcodec.DecodeDeltaAxis(prev.Z, rz, bz),
	}
	rot := bitcodec.DecodeQuat32(r.U32())
	return pos, rot
}

func decodeShape(t protocol.ObjectTypeTag, r *wire.Reader) protocol.Shape {
	switch t {
	case protocol.TypeBox:
		return protocol.Box{HalfExtents: mathx.Vec3{X: r.F32(), Y: r.F32(), Z: r.F32()}}
	case protocol.TypeSphere:
		return protocol.Sphere{Radius: r.F32()}
	case protocol.TypePlane:
		return protocol.Plane{}
	case protocol.TypeCapsule:
		return protocol.Capsule{HalfHeight: r.F32(), Radius: r.F32()}
	default:
		return protocol.UnknownShape{}
	}
}

func readPlayerState(r *wire.Reader) protocol.PlayerState {
	grounded := r.U8() != 0
	tick := r.U64()
	pos := mathx.Vec3{X: r.F32(), Y: r.F32(), Z: r.F32()}
	vel := mathx.Vec3{X: r.F32(), Y: r.F32(), Z: r.F32()}
	return protocol.PlayerState{Grounded: grounded, LastGroundTick: tick, Position: pos, Velocity: vel}
}
