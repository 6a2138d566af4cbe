// Package registry implements the object lifecycle: id allocation, the
// presence bitmap, actor<->object binding and deferred (double-buffered)
// reclamation (C5).
//
// Registry itself holds no lock: the caller supplies the object_mutex
// (see internal/sim, which owns the lock order from spec §5) around
// every call. This mirrors the teacher's CoprocessorManager, where a
// single external mutex guards an otherwise plain struct.
package registry

import (
	"sync"
	"sync/atomic"

	"github.com/otley/rbnet/physics"
	"github.com/otley/rbnet/protocol"
)

// ObjectID is the 16-bit wire id; 0 is reserved for "unassigned".
type ObjectID uint16

// WorldObject is a registered participant in the scene.
type WorldObject struct {
	ID       ObjectID
	Actor    physics.Actor
	Category protocol.Category
	TypeTag  protocol.ObjectTypeTag
	Shape    protocol.Shape
	Dynamic  bool // ADD_STATIC vs ADD_DYNAMIC; distinct from Actor.Sleeping()

	released atomic.Bool
}

// Release marks the object released. It is idempotent via CAS and
// returns true only to the caller that performed the first successful
// transition, so callers can update counters accurately.
func (o *WorldObject) Release() bool {
	return o.released.CompareAndSwap(false, true)
}

// Released reports the current released state.
func (o *WorldObject) Released() bool {
	return o.released.Load()
}

// Player is a WorldObject whose actor is a character controller.
type Player struct {
	*WorldObject
	PID uint32

	inputMu sync.Mutex
	input   protocol.Input
	state   protocol.PlayerState
}

// Controller returns the actor as a CharacterController; it is always
// one, by construction (see Registry.AddPlayer).
func (p *Player) Controller() physics.CharacterController {
	return p.Actor.(physics.CharacterController)
}

// SetInput stores the latest input snapshot, guarded by the
// per-connection input_mutex (lock level 1 in spec §5: briefest, swap
// inputs only).
func (p *Player) SetInput(in protocol.Input) {
	p.inputMu.Lock()
	p.input = in
	p.inputMu.Unlock()
}

// Input copies out the current input snapshot.
func (p *Player) Input() protocol.Input {
	p.inputMu.Lock()
	defer p.inputMu.Unlock()
	return p.input
}

// SetState updates the cached PlayerState (called by the physics thread
// under player_mutex after each Move).
func (p *Player) SetState(s protocol.PlayerState) {
	p.state = s
}

// State returns the cached PlayerState.
func (p *Player) State() protocol.PlayerState {
	return p.state
}
