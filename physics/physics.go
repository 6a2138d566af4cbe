// Package physics declares the interfaces the replication pipeline needs
// from the physics engine. The engine itself - scene, actors, character
// controller, raycasts - is an external collaborator per the project
// scope; this package only describes the surface rbnet calls.
package physics

import "github.com/otley/rbnet/mathx"

// Pose is an actor's transform as read back from the scene.
type Pose struct {
	Position mathx.Vec3
	Rotation mathx.Quat
}

// Actor is a rigid body (static or dynamic) or character controller,
// owned by the Scene.
type Actor interface {
	Pose() Pose
	// Sleeping reports whether the actor is static or a dynamic body the
	// engine has put to sleep - both map to the wire SLEEP flag.
	Sleeping() bool
}

// CharacterController is the actor kind backing a Player.
type CharacterController interface {
	Actor
	Move(input Input, dt float32)
	Grounded() bool
	Velocity() mathx.Vec3
}

// Input is the motion input applied to a character controller for one
// simulation step.
type Input struct {
	Jump, Forward, Back, Left, Right bool
	AimX, AimZ                       float32
}

// Scene is the simulated world. AddXxx methods register a new actor and
// return it; Remove releases engine-side resources for an actor that the
// registry has already marked released.
type Scene interface {
	Simulate(dt float32)
	FetchResults(block bool)

	AddBox(pos mathx.Vec3, rot mathx.Quat, halfExtents mathx.Vec3, dynamic bool) Actor
	AddSphere(pos mathx.Vec3, rot mathx.Quat, radius float32, dynamic bool) Actor
	AddPlane(pos mathx.Vec3, rot mathx.Quat) Actor
	AddCapsule(pos mathx.Vec3, rot mathx.Quat, halfHeight, radius float32, dynamic bool) Actor
	AddCharacterController(pos mathx.Vec3) CharacterController

	Remove(a Actor)
}
