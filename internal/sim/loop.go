// Package sim implements the server tick scheduler (C7): the single
// physics-thread loop that advances the simulation at a fixed rate,
// broadcasts per-connection diffs at a lower net rate with drift-free
// cadence, and runs the registry's GC pass - all under the exact five-
// level lock order from spec §5.
package sim

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/otley/rbnet/internal/registry"
	"github.com/otley/rbnet/internal/replica"
	"github.com/otley/rbnet/physics"
	"github.com/otley/rbnet/protocol"
)

// Sender delivers one connection's encoded snapshot. It abstracts C4 so
// this package never imports the transport layer directly.
type Sender interface {
	Send(pid uint32, payload []byte)
}

// Encoder builds one connection's snapshot bytes. Bound to
// internal/protocol/server.EncodeSnapshot by the caller that constructs a
// Loop; kept as a function value here so sim has no import on the
// protocol/wire packages either.
type Encoder func(recipient *registry.Player, others []*registry.Player, cache *replica.Cache, reg *registry.Registry) ([]byte, error)

// Loop owns every lock in spec §5's acquire order as named fields, in
// declaration order, mirroring the teacher's CoprocessorManager
// (a single struct owning every synchronization primitive it needs).
//
// Level 1, the per-connection input_mutex, is NOT a Loop field: it lives
// on registry.Player (see internal/registry/object.go) since it is
// per-connection, not global. Loop acquires it implicitly every time it
// calls Player.Input(), which RunTick does while holding player_mutex and
// the scene write lock; nothing waits for another lock while holding it.
type Loop struct {
	// level 2: server handle_mutex - the connection/pid membership map.
	handleMu  sync.Mutex
	byPID     map[uint32]*registry.Player
	caches    map[uint32]*replica.Cache

	// level 3: world player_mutex - the player list itself.
	playerMu sync.Mutex
	players  []*registry.Player

	// level 4: world object_mutex - the registry's id/object list.
	objectMu sync.Mutex
	reg      *registry.Registry

	// level 5: physics scene RW lock.
	sceneMu sync.RWMutex
	scene   physics.Scene

	tickInterval time.Duration
	netInterval  time.Duration
	lastNetNs    int64
	tick         uint64

	sender  Sender
	encode  Encoder
}

// New constructs a Loop around an already-initialised scene and registry.
// tickInterval/netInterval are the §6.3 defaults (15/20ms and 100ms) or
// whatever the bootstrapping CLI overrides them to.
func New(scene physics.Scene, reg *registry.Registry, sender Sender, encode Encoder, tickInterval, netInterval time.Duration) *Loop {
	return &Loop{
		byPID:        make(map[uint32]*registry.Player),
		caches:       make(map[uint32]*replica.Cache),
		reg:          reg,
		scene:        scene,
		tickInterval: tickInterval,
		netInterval:  netInterval,
		sender:       sender,
		encode:       encode,
	}
}

// Connect registers a newly accepted connection's player, in lock order
// 2 (handle_mutex) -> 3 (player_mutex) -> 4 (object_mutex).
func (l *Loop) Connect(pid uint32, controller physics.CharacterController) (*registry.Player, error) {
	l.handleMu.Lock()
	defer l.handleMu.Unlock()
	l.playerMu.Lock()
	defer l.playerMu.Unlock()
	l.objectMu.Lock()
	defer l.objectMu.Unlock()

	p, err := l.reg.AddPlayer(pid, controller)
	if err != nil {
		return nil, fmt.Errorf("sim: connect pid %d: %w", pid, err)
	}
	l.players = append(l.players, p)
	l.byPID[pid] = p
	l.caches[pid] = replica.New()
	return p, nil
}

// Disconnect releases a connection's player and drops its replica cache.
// Actual WorldObject reclamation still goes through the registry's
// deferred GC - this only stops tracking the connection.
func (l *Loop) Disconnect(pid uint32) {
	l.handleMu.Lock()
	defer l.handleMu.Unlock()
	l.playerMu.Lock()
	defer l.playerMu.Unlock()
	l.objectMu.Lock()
	defer l.objectMu.Unlock()

	p, ok := l.byPID[pid]
	if !ok {
		return
	}
	p.Release()
	delete(l.byPID, pid)
	delete(l.caches, pid)
	for i, q := range l.players {
		if q == p {
			l.players = append(l.players[:i], l.players[i+1:]...)
			break
		}
	}
}

// RunTick runs one full tick per spec §4.7: apply inputs and simulate
// under the scene write lock; broadcast (if the net interval has
// elapsed) under the scene read lock, advancing last_net by a fixed
// increment rather than snapping to now (drift-free cadence); fetch
// results; then GC under object_mutex + the scene write lock, since actor
// release must never happen outside it.
func (l *Loop) RunTick(now time.Time) {
	dt := float32(l.tickInterval.Seconds())

	l.playerMu.Lock()
	l.sceneMu.Lock()
	for _, p := range l.players {
		in := p.Input()
		ctl := p.Controller()
		pin := toPhysicsInput(in)
		// The source's literal (likely inverted) condition: a jump is
		// only passed on while the player is NOT grounded.
		pin.Jump = in.Jump && !p.State().Grounded
		ctl.Move(pin, dt)
		pose := ctl.Pose()
		p.SetState(protocol.PlayerState{
			Grounded:       ctl.Grounded(),
			LastGroundTick: l.tick,
			Position:       pose.Position,
			Velocity:       ctl.Velocity(),
		})
	}
	l.scene.Simulate(dt)
	l.tick++
	l.sceneMu.Unlock()
	l.playerMu.Unlock()

	if l.lastNetNs == 0 {
		l.lastNetNs = now.UnixNano()
	}
	netIntervalNs := l.netInterval.Nanoseconds()
	if now.UnixNano() >= l.lastNetNs+netIntervalNs {
		l.lastNetNs += netIntervalNs
		l.handleMu.Lock()
		l.playerMu.Lock()
		l.objectMu.Lock()
		l.sceneMu.RLock()
		l.broadcast(now)
		l.sceneMu.RUnlock()
		l.objectMu.Unlock()
		l.playerMu.Unlock()
		l.handleMu.Unlock()
	}

	l.scene.FetchResults(true)

	l.objectMu.Lock()
	l.sceneMu.Lock()
	l.reg.GC(func(a physics.Actor) { l.scene.Remove(a) })
	l.sceneMu.Unlock()
	l.objectMu.Unlock()
}

// broadcast runs the per-connection diff+encode+send for every known
// player. Per-connection caches are touched only here, from the single
// physics thread, never by a transport recv callback (spec §5). The
// caller holds handle_mutex, player_mutex, object_mutex and the scene
// read lock.
func (l *Loop) broadcast(now time.Time) {
	players := append([]*registry.Player(nil), l.players...)

	for _, recipient := range players {
		others := make([]*registry.Player, 0, len(players)-1)
		for _, p := range players {
			if p != recipient {
				others = append(others, p)
			}
		}
		cache, ok := l.caches[recipient.PID]
		if !ok {
			continue
		}
		payload, err := l.encode(recipient, others, cache, l.reg)
		if err != nil {
			glog.Errorf("sim: encode snapshot for pid %d: %v", recipient.PID, err)
			continue
		}
		l.sender.Send(recipient.PID, payload)
	}
}

// Tick returns the current simulation tick counter. Only meaningful when
// called from the same goroutine that drives RunTick - there is a single
// physics thread per spec §5, so this is a diagnostic accessor, not a
// cross-thread one.
func (l *Loop) Tick() uint64 { return l.tick }

// toPhysicsInput converts the wire-level input record to the physics
// engine's own Input type. The two are kept distinct so package physics
// never imports the wire protocol package - see DESIGN.md.
func toPhysicsInput(in protocol.Input) physics.Input {
	return physics.Input{
		Jump:    in.Jump,
		Forward: in.Forward,
		Back:    in.Back,
		Left:    in.Left,
		Right:   in.Right,
		AimX:    in.AimX,
		AimZ:    in.AimZ,
	}
}
