package world

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/physbox/sandbox/internal/core/ecs"
)

// Parent returns id's owner, zero at top level.
func (s *State) Parent(id ecs.EntityID) ecs.EntityID {
	if t, ok := s.Transforms.Get(id); ok {
		return t.Parent
	}
	return 0
}

// Children returns a copy of the entities id owns directly.
func (s *State) Children(id ecs.EntityID) []ecs.EntityID {
	t, ok := s.Transforms.Get(id)
	if !ok || len(t.Children) == 0 {
		return nil
	}
	return append([]ecs.EntityID(nil), t.Children...)
}

// Reparent moves id under parent (zero detaches it). With preserveWorld the
// world position stays put and the local offset is recomputed; otherwise the
// local offset is kept and the subtree moves with the new owner.
func (s *State) Reparent(id, parent ecs.EntityID, preserveWorld bool) error {
	t, ok := s.Transforms.Get(id)
	if !ok {
		return fmt.Errorf("reparent %s: %w", id, ErrNoTransform)
	}
	if t.Parent == parent {
		return nil
	}
	var parentPos mgl64.Vec3
	if !parent.IsZero() {
		pt, ok := s.Transforms.Get(parent)
		if !ok {
			return fmt.Errorf("reparent %s under %s: %w", id, parent, ErrNoTransform)
		}
		for cur := parent; !cur.IsZero(); cur = s.Parent(cur) {
			if cur == id {
				return fmt.Errorf("reparent %s under %s: %w", id, parent, ErrCycle)
			}
		}
		parentPos = pt.Position
	}

	if old, ok := s.Transforms.Get(t.Parent); ok && !t.Parent.IsZero() {
		for i, c := range old.Children {
			if c == id {
				old.Children = append(old.Children[:i], old.Children[i+1:]...)
				break
			}
		}
	}
	t.Parent = parent
	if pt, ok := s.Transforms.Get(parent); ok && !parent.IsZero() {
		pt.Children = append(pt.Children, id)
	}

	if preserveWorld {
		t.Local = t.Position.Sub(parentPos)
		return nil
	}
	target := t.Local.Add(parentPos)
	s.shift(id, target.Sub(t.Position))
	return nil
}

// Root returns the topmost owner of id.
func (s *State) Root(id ecs.EntityID) ecs.EntityID {
	for {
		p := s.Parent(id)
		if p.IsZero() {
			return id
		}
		id = p
	}
}
