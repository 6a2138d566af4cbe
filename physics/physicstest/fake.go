// Package physicstest is a deterministic, dependency-free fake of the
// physics package's interfaces, for unit and integration tests only. It
// is never imported by cmd/ - see SPEC_FULL.md §1.
package physicstest

import (
	"sync"

	"github.com/otley/rbnet/mathx"
	"github.com/otley/rbnet/physics"
)

// Body is a fake rigid body: static bodies report Sleeping()=true always;
// dynamic bodies sleep only after SetAsleep(true) - Simulate neither moves
// them nor puts them to sleep.
type Body struct {
	mu       sync.Mutex
	pose     physics.Pose
	velocity mathx.Vec3
	dynamic  bool
	asleep   bool
}

func (b *Body) Pose() physics.Pose {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pose
}

func (b *Body) Sleeping() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.dynamic || b.asleep
}

// SetAsleep sets a dynamic body's sleep state; it is the only way a
// dynamic body falls asleep.
func (b *Body) SetAsleep(v bool) {
	b.mu.Lock()
	b.asleep = v
	b.mu.Unlock()
}

// SetPose lets a test move a body directly, bypassing Simulate.
func (b *Body) SetPose(p physics.Pose) {
	b.mu.Lock()
	b.pose = p
	b.mu.Unlock()
}

// Controller is a fake character controller: Move integrates a constant
// speed along the requested axes, plus constant gravity and a ground plane
// at Y=0 for jumps; no collision. Just enough kinematics to exercise C7's
// per-tick Move/Simulate/FetchResults cycle.
type Controller struct {
	mu       sync.Mutex
	pose     physics.Pose
	velocity mathx.Vec3
	grounded bool
	jumpVel  float32
}

const controllerSpeed = 4.0 // world units/sec
const gravity = -9.8

func (c *Controller) Pose() physics.Pose {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pose
}

func (c *Controller) Sleeping() bool { return false } // players never sleep on the wire

func (c *Controller) Grounded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.grounded
}

func (c *Controller) Velocity() mathx.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.velocity
}

// Move applies one tick of kinematic motion. The jump condition is the
// caller's (internal/sim's) responsibility - this just integrates
// whatever Input it's handed.
func (c *Controller) Move(in physics.Input, dt float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var dx, dz float32
	if in.Forward {
		dz -= controllerSpeed
	}
	if in.Back {
		dz += controllerSpeed
	}
	if in.Left {
		dx -= controllerSpeed
	}
	if in.Right {
		dx += controllerSpeed
	}

	if in.Jump {
		c.jumpVel = 5.0
		c.grounded = false
	}

	c.jumpVel += gravity * dt
	c.pose.Position.X += dx * dt
	c.pose.Position.Z += dz * dt
	c.pose.Position.Y += c.jumpVel * dt
	if c.pose.Position.Y <= 0 {
		c.pose.Position.Y = 0
		c.jumpVel = 0
		c.grounded = true
	}
	c.velocity = mathx.Vec3{X: dx, Y: c.jumpVel, Z: dz}
}

// Scene is a fake physics.Scene: AddXxx just wraps the given pose and
// shape parameters in a Body/Controller and tracks it for Remove; Simulate
// and FetchResults are no-ops beyond the per-controller Move already
// performed by the caller (internal/sim invokes Move directly per spec
// §4.7 step 1, before Simulate).
type Scene struct {
	mu      sync.Mutex
	bodies  []*Body
	removed map[physics.Actor]bool
}

// NewScene returns an empty fake scene.
func NewScene() *Scene {
	return &Scene{removed: make(map[physics.Actor]bool)}
}

func (s *Scene) Simulate(dt float32)       {}
func (s *Scene) FetchResults(block bool)   {}

func (s *Scene) AddBox(pos mathx.Vec3, rot mathx.Quat, halfExtents mathx.Vec3, dynamic bool) physics.Actor {
	return s.add(pos, rot, dynamic)
}

func (s *Scene) AddSphere(pos mathx.Vec3, rot mathx.Quat, radius float32, dynamic bool) physics.Actor {
	return s.add(pos, rot, dynamic)
}

func (s *Scene) AddPlane(pos mathx.Vec3, rot mathx.Quat) physics.Actor {
	return s.add(pos, rot, false)
}

func (s *Scene) AddCapsule(pos mathx.Vec3, rot mathx.Quat, halfHeight, radius float32, dynamic bool) physics.Actor {
	return s.add(pos, rot, dynamic)
}

func (s *Scene) AddCharacterController(pos mathx.Vec3) physics.CharacterController {
	return &Controller{pose: physics.Pose{Position: pos, Rotation: mathx.Quat{W: 1}}, grounded: true}
}

func (s *Scene) Remove(a physics.Actor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed[a] = true
}

// Removed reports whether Remove has been called for a, for assertions.
func (s *Scene) Removed(a physics.Actor) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removed[a]
}

func (s *Scene) add(pos mathx.Vec3, rot mathx.Quat, dynamic bool) *Body {
	b := &Body{pose: physics.Pose{Position: pos, Rotation: rot}, dynamic: dynamic}
	s.mu.Lock()
	s.bodies = append(s.bodies, b)
	s.mu.Unlock()
	return b
}
