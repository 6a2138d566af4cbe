package interp

import (
	"math"
	"testing"

	"github.com/otley/rbnet/mathx"
	"github.com/otley/rbnet/protocol"
)

func TestAtInterpolatesBetweenPrevAndNet(t *testing.T) {
	m := NewMirror()
	m.OnSnapshotTime(1000)
	m.AddObject(1, protocol.TypeBox, protocol.Box{}, mathx.Vec3{X: 0}, mathx.Quat{W: 1})
	m.UpdateObject(1, mathx.Vec3{X: 10}, mathx.Quat{W: 1}, false)

	pose, ok := m.At(1, 1050, 100)
	if !ok {
		t.Fatal("At: object not found")
	}
	if math.Abs(float64(pose.Position.X-5)) > 1e-4 {
		t.Fatalf("position at alpha=0.5 = %v, want X=5", pose.Position)
	}
}

func TestAtClampsAlpha(t *testing.T) {
	m := NewMirror()
	m.OnSnapshotTime(1000)
	m.AddObject(1, protocol.TypeBox, protocol.Box{}, mathx.Vec3{X: 0}, mathx.Quat{W: 1})
	m.UpdateObject(1, mathx.Vec3{X: 10}, mathx.Quat{W: 1}, false)

	past, _ := m.At(1, 500, 100) // before the snapshot: alpha clamps to 0
	if past.Position.X != 0 {
		t.Fatalf("clamped-low position = %v, want X=0", past.Position)
	}
	future, _ := m.At(1, 5000, 100) // long after: alpha clamps to 1
	if future.Position.X != 10 {
		t.Fatalf("clamped-high position = %v, want X=10", future.Position)
	}
}

func TestAtUsesLosslessPoseWhileSleeping(t *testing.T) {
	m := NewMirror()
	m.OnSnapshotTime(1000)
	m.AddObject(1, protocol.TypeBox, protocol.Box{}, mathx.Vec3{X: 0}, mathx.Quat{W: 1})
	m.UpdateObject(1, mathx.Vec3{X: 3, Y: 4, Z: 5}, mathx.Quat{W: 1}, true)

	pose, ok := m.At(1, 1010, 100)
	if !ok {
		t.Fatal("At: object not found")
	}
	if pose.Position != (mathx.Vec3{X: 3, Y: 4, Z: 5}) {
		t.Fatalf("sleeping pose = %+v, want the exact net sample", pose.Position)
	}
}

func TestAtUnknownHandle(t *testing.T) {
	m := NewMirror()
	if _, ok := m.At(99, 0, 100); ok {
		t.Fatal("At on an unmirrored handle should report ok=false")
	}
}
