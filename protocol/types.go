// Package protocol holds the wire-level vocabulary shared by the server
// encoder (C8) and client decoder (C9): object type tags, record subops,
// state flags, shape payloads, and the player input/state structs. None
// of it depends on the physics engine or the transport.
package protocol

import "github.com/otley/rbnet/mathx"

// Version is the three-byte protocol version. A mismatch on either side
// MUST disconnect - only 0.0.3 is accepted (spec's resolved open question).
var Version = [3]byte{0, 0, 3}

// ObjectTypeTag is the 6-bit shape discriminant carried in ADD record headers.
type ObjectTypeTag uint8

const (
	TypeUnassigned ObjectTypeTag = 0
	TypeBox        ObjectTypeTag = 1
	TypeSphere     ObjectTypeTag = 2
	TypePlane      ObjectTypeTag = 3
	TypeCapsule    ObjectTypeTag = 4
	TypeUnknown    ObjectTypeTag = 63
)

// Category distinguishes a WorldObject that is a Player from a plain
// Primitive (box/sphere/plane/capsule).
type Category uint8

const (
	CategoryPrimitive Category = iota
	CategoryPlayer
)

// RecordSubop is the two high bits of every per-object record header.
type RecordSubop uint8

const (
	SubopAddStatic   RecordSubop = 0
	SubopAddDynamic  RecordSubop = 1
	SubopUpdatePose  RecordSubop = 2
	SubopStateChange RecordSubop = 3
)

// StateFlags are the low bits under a STATE_CHANGE record header.
type StateFlags uint8

const (
	StateSleep  StateFlags = 1
	StateRemove StateFlags = 2
)

// Shape is the geometry payload following the common ADD prefix
// (Vec3-48 position + Quat-32 rotation).
type Shape interface {
	Type() ObjectTypeTag
}

type Box struct{ HalfExtents mathx.Vec3 }
type Sphere struct{ Radius float32 }
type Plane struct{}
type Capsule struct{ HalfHeight, Radius float32 }
type UnknownShape struct{}

func (Box) Type() ObjectTypeTag          { return TypeBox }
func (Sphere) Type() ObjectTypeTag       { return TypeSphere }
func (Plane) Type() ObjectTypeTag        { return TypePlane }
func (Capsule) Type() ObjectTypeTag      { return TypeCapsule }
func (UnknownShape) Type() ObjectTypeTag { return TypeUnknown }

// Input is the client-to-server payload (§6.2): jump/movement bits plus a
// 2D aim direction, sent on every key transition (and optionally every frame).
type Input struct {
	Jump, Forward, Back, Left, Right bool
	AimX, AimZ                       float32
}

// PlayerState is broadcast per player in every snapshot's player table.
//
// Grounded here preserves the source's literal (and likely inverted) jump
// condition: a jump is only honoured when NOT grounded. See DESIGN.md.
type PlayerState struct {
	Grounded       bool
	LastGroundTick uint64
	Position       mathx.Vec3
	Velocity       mathx.Vec3
}
