package registry

import (
	"github.com/otley/rbnet/physics"
	"github.com/otley/rbnet/protocol"
)

// ErrIDPoolExhausted marks an add() call that found no free id; per spec
// §7 this is logged and the add is silently skipped, the connection
// (and the tick loop) survive.
type errIDPoolExhausted struct{}

func (errIDPoolExhausted) Error() string { return "registry: id pool exhausted" }

// ErrIDPoolExhausted is returned by Add/AddPlayer when no id remains.
var ErrIDPoolExhausted error = errIDPoolExhausted{}

// Registry owns every WorldObject's id, presence bit and reclamation
// state. It holds no lock itself - see the package doc comment.
type Registry struct {
	presence PresenceBitmap
	free     FreeIDStack

	objects []*WorldObject // the live object list, insertion order

	trash     []*WorldObject // released in the previous GC pass
	nextTrash []*WorldObject // released since the previous GC pass
}

// New creates a Registry with the full 1..65535 id space free. Id 0 is
// reserved and never assigned.
func New() *Registry {
	r := &Registry{}
	for id := 65535; id >= 1; id-- {
		r.free.Push(ObjectID(id))
	}
	return r
}

// PresenceBitmap exposes the bitmap for diff-time lookups (C6 never
// dereferences a cached object directly; it only tests presence).
func (r *Registry) PresenceBitmap() *PresenceBitmap { return &r.presence }

// Objects returns the live object list. The returned slice aliases
// Registry state and must not be retained past the caller's lock hold.
func (r *Registry) Objects() []*WorldObject { return r.objects }

// Add binds actor to a freshly allocated id and appends it to the object
// list. It returns nil, ErrIDPoolExhausted when the id pool is empty.
func (r *Registry) Add(actor physics.Actor, dynamic bool, typeTag protocol.ObjectTypeTag, shape protocol.Shape) (*WorldObject, error) {
	id, ok := r.free.Pop()
	if !ok {
		return nil, ErrIDPoolExhausted
	}
	obj := &WorldObject{
		ID:       id,
		Actor:    actor,
		Category: protocol.CategoryPrimitive,
		TypeTag:  typeTag,
		Shape:    shape,
		Dynamic:  dynamic,
	}
	r.presence.Set(id)
	r.objects = append(r.objects, obj)
	return obj, nil
}

// AddPlayer binds a character controller to a freshly allocated id.
func (r *Registry) AddPlayer(pid uint32, controller physics.CharacterController) (*Player, error) {
	id, ok := r.free.Pop()
	if !ok {
		return nil, ErrIDPoolExhausted
	}
	obj := &WorldObject{
		ID:       id,
		Actor:    controller,
		Category: protocol.CategoryPlayer,
	}
	r.presence.Set(id)
	r.objects = append(r.objects, obj)
	return &Player{WorldObject: obj, PID: pid}, nil
}

// GC runs the end-of-net-tick double-buffered reclamation pass: free
// every id released during the *previous* pass, then sweep the live list
// for newly released objects and move them to the new trash queue. The
// caller MUST hold the scene write lock across this call (actor release
// must never happen outside it, per spec §9).
func (r *Registry) GC(releaseActor func(physics.Actor)) {
	for _, obj := range r.trash {
		r.free.Push(obj.ID)
	}

	write := 0
	for _, obj := range r.objects {
		if obj.Released() {
			r.presence.Clear(obj.ID)
			releaseActor(obj.Actor)
			r.nextTrash = append(r.nextTrash, obj)
			continue
		}
		r.objects[write] = obj
		write++
	}
	r.objects = r.objects[:write]
	r.trash = r.nextTrash
	r.nextTrash = nil
}
