package replica

import (
	"github.com/otley/rbnet/internal/bitcodec"
	"github.com/otley/rbnet/internal/registry"
	"github.com/otley/rbnet/internal/wire"
	"github.com/otley/rbnet/mathx"
	"github.com/otley/rbnet/physics"
	"github.com/otley/rbnet/protocol"
)

// DiffExisting runs the compacting pass over entries already in the cache
// (spec §4.6 step 1-3): a removed object drops its entry and emits
// STATE_CHANGE|REMOVE; a sleep transition emits a lossless pose (to sleep)
// or an inlined update record (waking); a steady sleeper gets the one-byte
// keepalive; anything else gets a delta UPDATE_POSE. Returns the number of
// entries dropped.
func (c *Cache) DiffExisting(w *wire.Writer, world *registry.Registry) int {
	presenceWorld := world.PresenceBitmap()
	removed := 0
	write := 0
	for i := range c.entries {
		e := c.entries[i]
		if !presenceWorld.Test(e.Obj.ID) {
			w.U8(stateChangeHeader(protocol.StateRemove))
			c.present.Clear(e.Obj.ID)
			removed++
			continue
		}

		pose := e.Obj.Actor.Pose()
		newSleeping := e.Obj.Actor.Sleeping()
		sleepToggled := newSleeping != e.Sleeping

		switch {
		case sleepToggled && newSleeping:
			w.U8(stateChangeHeader(protocol.StateSleep))
			w.F32(pose.Position.X)
			w.F32(pose.Position.Y)
			w.F32(pose.Position.Z)
			w.F32(pose.Rotation.X)
			w.F32(pose.Rotation.Y)
			w.F32(pose.Rotation.Z)
			w.F32(pose.Rotation.W)
			e.Pos = pose.Position
			e.Sleeping = true
		case sleepToggled && !newSleeping:
			w.U8(stateChangeHeader(0))
			writeUpdatePose(w, &e, pose)
			e.Sleeping = false
		case newSleeping:
			w.U8(stateChangeHeader(protocol.StateSleep))
		default:
			writeUpdatePose(w, &e, pose)
		}

		c.entries[write] = e
		write++
	}
	c.entries = c.entries[:write]
	return removed
}

// DiffAdds scans the world's live object list for ids the cache doesn't
// yet hold (presence bit 0) and emits an ADD_STATIC/ADD_DYNAMIC record for
// each: Vec3-48 position (with feedback into the new entry's cached
// position), smallest-three quat, then the shape payload. Returns the
// number of entries added.
func (c *Cache) DiffAdds(w *wire.Writer, world *registry.Registry) int {
	added := 0
	for _, obj := range world.Objects() {
		if c.present.Test(obj.ID) {
			continue
		}
		pose := obj.Actor.Pose()

		w.U8(addHeader(obj.Dynamic, obj.TypeTag))
		posBytes := bitcodec.EncodeVec3_48(pose.Position)
		w.Bytes(posBytes[:])
		w.U32(bitcodec.EncodeQuat32(pose.Rotation))
		writeShapePayload(w, obj.Shape)

		// An ADD record carries no sleep flag, so the client starts the
		// object awake; a sleeping actor gets its SLEEP record next diff.
		c.entries = append(c.entries, Entry{
			Obj:      obj,
			Sleeping: false,
			Pos:      bitcodec.DecodeVec3_48(posBytes[:]),
		})
		c.present.Set(obj.ID)
		added++
	}
	return added
}

// writeUpdatePose emits a full UPDATE_POSE record (header + per-axis delta
// byte + smallest-three quat) against e's cached position, then advances
// e.Pos to the feedback-quantised value both sides converge on.
func writeUpdatePose(w *wire.Writer, e *Entry, pose physics.Pose) {
	rx := bitcodec.SelectDeltaRange(pose.Position.X - e.Pos.X)
	ry := bitcodec.SelectDeltaRange(pose.Position.Y - e.Pos.Y)
	rz := bitcodec.SelectDeltaRange(pose.Position.Z - e.Pos.Z)
	w.U8(updatePoseHeader(rx, ry, rz))

	bx, nx := bitcodec.EncodeDeltaAxis(e.Pos.X, pose.Position.X, rx)
	by, ny := bitcodec.EncodeDeltaAxis(e.Pos.Y, pose.Position.Y, ry)
	bz, nz := bitcodec.EncodeDeltaAxis(e.Pos.Z, pose.Position.Z, rz)
	w.U8(bx)
	w.U8(by)
	w.U8(bz)
	w.U32(bitcodec.EncodeQuat32(pose.Rotation))

	e.Pos = mathx.Vec3{X: nx, Y: ny, Z: nz}
}

func addHeader(dynamic bool, t protocol.ObjectTypeTag) byte {
	subop := protocol.SubopAddStatic
	if dynamic {
		subop = protocol.SubopAddDynamic
	}
	return byte(subop)<<6 | byte(t)&0x3f
}

func updatePoseHeader(rx, ry, rz bitcodec.DeltaRange) byte {
	return byte(protocol.SubopUpdatePose)<<6 | byte(rx)<<4 | byte(ry)<<2 | byte(rz)
}

func stateChangeHeader(flags protocol.StateFlags) byte {
	return byte(protocol.SubopStateChange)<<6 | byte(flags)
}

func writeShapePayload(w *wire.Writer, s protocol.Shape) {
	switch v := s.(type) {
	case protocol.Box:
		w.F32(v.HalfExtents.X)
		w.F32(v.HalfExtents.Y)
		w.F32(v.HalfExtents.Z)
	case protocol.Sphere:
		w.F32(v.Radius)
	case protocol.Plane:
	case protocol.Capsule:
		w.F32(v.HalfHeight)
		w.F32(v.Radius)
	}
}
