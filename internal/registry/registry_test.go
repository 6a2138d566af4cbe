package registry

import (
	"testing"

	"github.com/otley/rbnet/mathx"
	"github.com/otley/rbnet/physics"
	"github.com/otley/rbnet/protocol"
)

type fakeActor struct {
	pose     physics.Pose
	sleeping bool
}

func (a *fakeActor) Pose() physics.Pose { return a.pose }
func (a *fakeActor) Sleeping() bool     { return a.sleeping }

func TestAddAssignsNonZeroIDAndSetsPresence(t *testing.T) {
	r := New()
	obj, err := r.Add(&fakeActor{}, true, protocol.TypeBox, protocol.Box{HalfExtents: mathx.Vec3{X: 1, Y: 1, Z: 1}})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if obj.ID == 0 {
		t.Fatal("id 0 must never be assigned")
	}
	if !r.PresenceBitmap().Test(obj.ID) {
		t.Fatal("presence bit must be set immediately after Add")
	}
}

func TestIDPoolExhaustion(t *testing.T) {
	r := New()
	var released []*WorldObject
	for i := 0; i < 65535; i++ {
		obj, err := r.Add(&fakeActor{}, true, protocol.TypeSphere, protocol.Sphere{Radius: 1})
		if err != nil {
			t.Fatalf("unexpected exhaustion at %d: %v", i, err)
		}
		released = append(released, obj)
	}
	if _, err := r.Add(&fakeActor{}, true, protocol.TypeSphere, protocol.Sphere{Radius: 1}); err != ErrIDPoolExhausted {
		t.Fatalf("Add past capacity = %v, want ErrIDPoolExhausted", err)
	}
	_ = released
}

// TestTwoTickReclamation checks invariant 7: an id is not reused until at
// least one GC cycle after it appears in the trash queue.
func TestTwoTickReclamation(t *testing.T) {
	r := New()
	obj, _ := r.Add(&fakeActor{}, true, protocol.TypeBox, protocol.Box{})
	oldID := obj.ID

	obj.Release()

	// First GC: moves the released object into the new trash queue and
	// clears its presence bit, but must not free the id yet.
	r.GC(func(physics.Actor) {})
	if r.PresenceBitmap().Test(oldID) {
		t.Fatal("presence bit should be cleared once an object is trashed")
	}
	for i := 0; i < 65534; i++ {
		if _, err := r.Add(&fakeActor{}, true, protocol.TypeBox, protocol.Box{}); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	if _, err := r.Add(&fakeActor{}, true, protocol.TypeBox, protocol.Box{}); err != ErrIDPoolExhausted {
		t.Fatalf("pool should still be exhausted before the id is freed, got %v", err)
	}

	// Second GC: the id that was trashed a cycle ago is now freed.
	r.GC(func(physics.Actor) {})
	got, err := r.Add(&fakeActor{}, true, protocol.TypeBox, protocol.Box{})
	if err != nil {
		t.Fatalf("expected the recycled id to be available: %v", err)
	}
	if got.ID != oldID {
		t.Fatalf("expected the LIFO free stack to hand back id %d, got %d", oldID, got.ID)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	r := New()
	obj, _ := r.Add(&fakeActor{}, true, protocol.TypeBox, protocol.Box{})
	if !obj.Release() {
		t.Fatal("first Release() must return true")
	}
	if obj.Release() {
		t.Fatal("second Release() must return false")
	}
	_ = r
}

func TestGCCompactsLiveListAndKeepsUnreleased(t *testing.T) {
	r := New()
	a, _ := r.Add(&fakeActor{}, true, protocol.TypeBox, protocol.Box{})
	b, _ := r.Add(&fakeActor{}, true, protocol.TypeBox, protocol.Box{})
	b.Release()

	r.GC(func(physics.Actor) {})

	objs := r.Objects()
	if len(objs) != 1 || objs[0].ID != a.ID {
		t.Fatalf("expected only %d to survive GC, got %v", a.ID, objs)
	}
}
