package world

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/physbox/sandbox/internal/component"
	"github.com/physbox/sandbox/internal/core/ecs"
	"github.com/physbox/sandbox/internal/weld"
	"go.uber.org/zap"
)

var (
	ErrUnknownEntity = errors.New("unknown entity")
	ErrNoTransform   = errors.New("entity has no transform")
	ErrCycle         = errors.New("ownership cycle")
	ErrNoBody        = errors.New("entity has no body")
	ErrDuplicateName = errors.New("duplicate name")
)

// State is the sandbox host: component stores, the ownership tree, the
// overlap grid and the constraint table. It implements the weld engine's
// ports. Single-goroutine access only (game loop).
type State struct {
	World      *ecs.World
	Names      *ecs.PtrComponentStore[component.Name]
	Transforms *ecs.PtrComponentStore[component.Transform]
	Bounds     *ecs.PtrComponentStore[component.Bounds]
	Bodies     *ecs.PtrComponentStore[component.Body]
	Switches   *ecs.PtrComponentStore[component.Switch]
	Powered    *ecs.PtrComponentStore[component.Powered]
	Seats      *ecs.PtrComponentStore[component.Seat]

	grid   *Grid
	byName map[string]ecs.EntityID

	constraints    map[weld.ConstraintID]Constraint
	nextConstraint weld.ConstraintID

	log *zap.Logger
}

// NewState registers the host's stores with w and hooks its destroy path.
// The hook runs after the weld engine's, so a destroyed object still owns
// its children while its edges are severed and its scope is notified.
func NewState(w *ecs.World, cellSize float64, log *zap.Logger) *State {
	if log == nil {
		log = zap.NewNop()
	}
	s := &State{
		World:       w,
		Names:       ecs.NewPtrComponentStore[component.Name](),
		Transforms:  ecs.NewPtrComponentStore[component.Transform](),
		Bounds:      ecs.NewPtrComponentStore[component.Bounds](),
		Bodies:      ecs.NewPtrComponentStore[component.Body](),
		Switches:    ecs.NewPtrComponentStore[component.Switch](),
		Powered:     ecs.NewPtrComponentStore[component.Powered](),
		Seats:       ecs.NewPtrComponentStore[component.Seat](),
		grid:        NewGrid(cellSize),
		byName:      make(map[string]ecs.EntityID),
		constraints: make(map[weld.ConstraintID]Constraint),
		log:         log,
	}
	reg := w.Registry()
	reg.Register(s.Names)
	reg.Register(s.Transforms)
	reg.Register(s.Bounds)
	reg.Register(s.Bodies)
	reg.Register(s.Switches)
	reg.Register(s.Powered)
	reg.Register(s.Seats)
	w.AfterDestroy(s.onDestroy)
	return s
}

// Ports exposes the host to the weld engine.
func (s *State) Ports() weld.Ports {
	return weld.Ports{Finder: s, Hierarchy: s, Physics: s}
}

// Spawn creates a named entity occupying box. An empty name is allowed;
// a taken one is not.
func (s *State) Spawn(name string, box AABB) (ecs.EntityID, error) {
	if !box.Valid() {
		return 0, fmt.Errorf("spawn %q: invalid bounds %v..%v", name, box.Min, box.Max)
	}
	if name != "" {
		if _, taken := s.byName[name]; taken {
			return 0, fmt.Errorf("spawn %q: %w", name, ErrDuplicateName)
		}
	}
	id := s.World.CreateEntity()
	if name != "" {
		s.Names.Set(id, &component.Name{Value: name})
		s.byName[name] = id
	}
	center := box.Center()
	s.Transforms.Set(id, &component.Transform{Position: center, Local: center})
	s.Bounds.Set(id, &component.Bounds{Min: box.Min, Max: box.Max})
	s.grid.Insert(id, box)
	return id, nil
}

// Lookup resolves a scene name.
func (s *State) Lookup(name string) (ecs.EntityID, bool) {
	id, ok := s.byName[name]
	if !ok || !s.World.Alive(id) {
		return 0, false
	}
	return id, true
}

// NameOf returns the scene name of id, or its handle when unnamed.
func (s *State) NameOf(id ecs.EntityID) string {
	if n, ok := s.Names.Get(id); ok {
		return n.Value
	}
	return id.String()
}

// Box returns the current world-space bounds of id.
func (s *State) Box(id ecs.EntityID) (AABB, bool) {
	return s.grid.Box(id)
}

// Position returns id's world-space position.
func (s *State) Position(id ecs.EntityID) (mgl64.Vec3, bool) {
	t, ok := s.Transforms.Get(id)
	if !ok {
		return mgl64.Vec3{}, false
	}
	return t.Position, true
}

// Move translates id and everything it owns by delta.
func (s *State) Move(id ecs.EntityID, delta mgl64.Vec3) error {
	t, ok := s.Transforms.Get(id)
	if !ok {
		return fmt.Errorf("move %s: %w", id, ErrNoTransform)
	}
	t.Local = t.Local.Add(delta)
	s.shift(id, delta)
	return nil
}

// shift moves the world position and bounds of id's subtree.
func (s *State) shift(id ecs.EntityID, delta mgl64.Vec3) {
	stack := []ecs.EntityID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		t, ok := s.Transforms.Get(cur)
		if !ok {
			continue
		}
		t.Position = t.Position.Add(delta)
		if b, ok := s.Bounds.Get(cur); ok {
			b.Min, b.Max = b.Min.Add(delta), b.Max.Add(delta)
			s.grid.Insert(cur, AABB{Min: b.Min, Max: b.Max})
		}
		stack = append(stack, t.Children...)
	}
}

func (s *State) onDestroy(id ecs.EntityID) {
	if t, ok := s.Transforms.Get(id); ok {
		for _, c := range append([]ecs.EntityID(nil), t.Children...) {
			if err := s.Reparent(c, 0, true); err != nil {
				s.log.Warn("destroy: detach child", zap.Stringer("child", c), zap.Error(err))
			}
		}
		if !t.Parent.IsZero() {
			_ = s.Reparent(id, 0, true)
		}
	}
	for cid, c := range s.constraints {
		if c.A == id || c.B == id {
			delete(s.constraints, cid)
		}
	}
	if n, ok := s.Names.Get(id); ok && s.byName[n.Value] == id {
		delete(s.byName, n.Value)
	}
	s.grid.Remove(id)
}
