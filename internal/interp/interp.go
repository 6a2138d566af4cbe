package interp

import (
	"github.com/otley/rbnet/mathx"
	"github.com/otley/rbnet/protocol"
)

// Pose is the interpolated result for one mirrored object at render time.
type Pose struct {
	Position mathx.Vec3
	Rotation mathx.Quat
	TypeTag  protocol.ObjectTypeTag
}

// At computes the render-time interpolated pose for handle, per spec
// §4.10: alpha = clamp((now-lastSnapshotTime)/netIntervalMs, 0, 1), lerp
// the position, slerp the rotation - unless the object is sleeping, in
// which case the net (exact, lossless) sample is used directly.
//
// nowUnixMs is the render loop's external clock; netIntervalMs is the
// configured broadcast interval (spec §6.3 default 100ms).
func (m *Mirror) At(handle uint32, nowUnixMs, netIntervalMs int64) (Pose, bool) {
	m.mu.Lock()
	o, ok := m.objects[handle]
	if !ok {
		m.mu.Unlock()
		return Pose{}, false
	}
	prevPos, netPos := o.PrevPos, o.NetPos
	prevQuat, netQuat := o.PrevQuat, o.NetQuat
	sleeping := o.Sleeping
	typeTag := o.TypeTag
	lastSnapshotTime := m.lastSnapshotTime
	m.mu.Unlock()

	if sleeping {
		return Pose{Position: netPos, Rotation: netQuat, TypeTag: typeTag}, true
	}

	alpha := clamp(float64(nowUnixMs-lastSnapshotTime)/float64(netIntervalMs), 0, 1)
	pos := mathx.Lerp(prevPos, netPos, float32(alpha))
	rot := mathx.Slerp(prevQuat, netQuat, float32(alpha))
	return Pose{Position: pos, Rotation: rot, TypeTag: typeTag}, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
