package weld

import (
	"fmt"

	"github.com/physbox/sandbox/internal/core/ecs"
)

// Weldable is the per-entity record of the registry.
type Weldable struct {
	CanAttach  bool
	CanReceive bool
	Mechanism  Mechanism
}

func (w *Weldable) Mode() Mode { return ModeOf(w.CanAttach, w.CanReceive) }

type listenerSlot struct {
	id uint64
	l  Listener
}

// Registry holds capability flags, mechanism tags and listeners per handle.
// Listener lookup is a map hit per entity; nothing walks the scene looking
// for implementations.
type Registry struct {
	world     *ecs.World
	items     *ecs.PtrComponentStore[Weldable]
	listeners map[ecs.EntityID][]listenerSlot
	nextSlot  uint64
}

// NewRegistry binds the registry to world so stale handles read as missing.
// world may be nil for a free-standing registry.
func NewRegistry(world *ecs.World) *Registry {
	r := &Registry{
		world:     world,
		items:     ecs.NewPtrComponentStore[Weldable](),
		listeners: make(map[ecs.EntityID][]listenerSlot),
	}
	if world != nil {
		world.Registry().Register(r.items)
	}
	return r
}

func (r *Registry) Add(id ecs.EntityID, mode Mode) error {
	if id.IsZero() || (r.world != nil && !r.world.Alive(id)) {
		return fmt.Errorf("register %s: %w", id, ErrMissingEntity)
	}
	if r.items.Has(id) {
		return fmt.Errorf("register %s: %w", id, ErrAlreadyRegistered)
	}
	r.items.Set(id, &Weldable{
		CanAttach:  mode.CanAttach(),
		CanReceive: mode.CanReceive(),
	})
	return nil
}

// Get returns the record for a live, registered handle.
func (r *Registry) Get(id ecs.EntityID) (*Weldable, bool) {
	if r.world != nil && !r.world.Alive(id) {
		return nil, false
	}
	return r.items.Get(id)
}

func (r *Registry) Has(id ecs.EntityID) bool {
	_, ok := r.Get(id)
	return ok
}

func (r *Registry) Remove(id ecs.EntityID) {
	r.items.Remove(id)
	delete(r.listeners, id)
}

func (r *Registry) IDs() []ecs.EntityID { return r.items.IDs() }

func (r *Registry) Len() int { return r.items.Len() }

// AddListener attaches l to id. id does not have to be weldable itself: a
// listener on a plain child object is reached through its weldable
// ancestor's notification scope. The returned func detaches it.
func (r *Registry) AddListener(id ecs.EntityID, l Listener) func() {
	r.nextSlot++
	slot := listenerSlot{id: r.nextSlot, l: l}
	r.listeners[id] = append(r.listeners[id], slot)
	return func() { r.dropListener(id, slot.id) }
}

// Listeners returns a copy of id's listeners in attach order.
func (r *Registry) Listeners(id ecs.EntityID) []Listener {
	slots := r.listeners[id]
	if len(slots) == 0 {
		return nil
	}
	out := make([]Listener, len(slots))
	for i, s := range slots {
		out[i] = s.l
	}
	return out
}

// ForgetListeners drops every listener attached to id.
func (r *Registry) ForgetListeners(id ecs.EntityID) {
	delete(r.listeners, id)
}

func (r *Registry) dropListener(id ecs.EntityID, slot uint64) {
	slots := r.listeners[id]
	for i, s := range slots {
		if s.id == slot {
			slots = append(slots[:i:i], slots[i+1:]...)
			break
		}
	}
	if len(slots) == 0 {
		delete(r.listeners, id)
		return
	}
	r.listeners[id] = slots
}
