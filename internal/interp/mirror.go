// Package interp implements the client interpolator (C10): a Mirror that
// implements internal/protocol/client.Sink, tracking prev/net samples per
// object, and a render-time lerp/slerp between them driven by an external
// clock (spec §4.10).
package interp

import (
	"sync"

	"github.com/otley/rbnet/mathx"
	"github.com/otley/rbnet/protocol"
)

// ObjectState is one mirrored object's interpolation state: the last two
// received samples plus enough to reconstruct it (shape, type tag) and
// the wake/sleep flag that selects the lossless-on-sleep path.
type ObjectState struct {
	TypeTag   protocol.ObjectTypeTag
	Shape     protocol.Shape
	PrevPos   mathx.Vec3
	NetPos    mathx.Vec3
	PrevQuat  mathx.Quat
	NetQuat   mathx.Quat
	Sleeping  bool
}

// Mirror is the client's local copy of the replicated scene. It satisfies
// internal/protocol/client.Sink, so internal/protocol/client.Decoder can
// drive it directly off the wire; a render loop reads back interpolated
// poses via At/PlayerState. Every Sink method and every read takes the
// mutex on its own; nothing holds it across a whole Decode call, so a
// concurrent reader can see a snapshot that is only partly applied.
type Mirror struct {
	mu               sync.Mutex
	lastSnapshotTime int64 // unix ms, per the snapshot's timestamp field
	objects          map[uint32]*ObjectState
	players          map[uint32]protocol.PlayerState
}

// NewMirror returns an empty Mirror, as held for a freshly connected client.
func NewMirror() *Mirror {
	return &Mirror{
		objects: make(map[uint32]*ObjectState),
		players: make(map[uint32]protocol.PlayerState),
	}
}

func (m *Mirror) OnSnapshotTime(unixMs int64) {
	m.mu.Lock()
	m.lastSnapshotTime = unixMs
	m.mu.Unlock()
}

func (m *Mirror) AddPlayer(pid uint32) {
	m.mu.Lock()
	m.players[pid] = protocol.PlayerState{}
	m.mu.Unlock()
}

func (m *Mirror) SetPlayerState(pid uint32, state protocol.PlayerState) {
	m.mu.Lock()
	m.players[pid] = state
	m.mu.Unlock()
}

func (m *Mirror) RemovePlayer(pid uint32) {
	m.mu.Lock()
	delete(m.players, pid)
	m.mu.Unlock()
}

func (m *Mirror) AddObject(handle uint32, typeTag protocol.ObjectTypeTag, shape protocol.Shape, pos mathx.Vec3, rot mathx.Quat) {
	m.mu.Lock()
	m.objects[handle] = &ObjectState{
		TypeTag:  typeTag,
		Shape:    shape,
		PrevPos:  pos,
		NetPos:   pos,
		PrevQuat: rot,
		NetQuat:  rot,
	}
	m.mu.Unlock()
}

func (m *Mirror) UpdateObject(handle uint32, pos mathx.Vec3, rot mathx.Quat, sleeping bool) {
	m.mu.Lock()
	if o, ok := m.objects[handle]; ok {
		o.PrevPos, o.NetPos = o.NetPos, pos
		o.PrevQuat, o.NetQuat = o.NetQuat, rot
		o.Sleeping = sleeping
	}
	m.mu.Unlock()
}

func (m *Mirror) RemoveObject(handle uint32) {
	m.mu.Lock()
	delete(m.objects, handle)
	m.mu.Unlock()
}

// PlayerState returns a player's last-received state.
func (m *Mirror) PlayerState(pid uint32) (protocol.PlayerState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.players[pid]
	return s, ok
}

// Handles returns every currently mirrored object's handle, for a render
// loop to iterate. The returned slice is a snapshot, safe to use after
// the call returns without holding the Mirror's lock.
func (m *Mirror) Handles() []uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]uint32, 0, len(m.objects))
	for h := range m.objects {
		out = append(out, h)
	}
	return out
}
