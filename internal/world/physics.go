package world

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/physbox/sandbox/internal/component"
	"github.com/physbox/sandbox/internal/core/ecs"
	"github.com/physbox/sandbox/internal/weld"
	"go.uber.org/zap"
)

// Constraint rigidly pins B to A at the offset they had when it was made.
type Constraint struct {
	A, B   ecs.EntityID
	Offset mgl64.Vec3
}

// EnsureBody gives id a dynamic body unless it already has one.
func (s *State) EnsureBody(id ecs.EntityID, mass float64) {
	if s.Bodies.Has(id) {
		return
	}
	s.Bodies.Set(id, &component.Body{Mass: mass})
}

// CreateConstraint joins two bodies.
func (s *State) CreateConstraint(a, b ecs.EntityID) (weld.ConstraintID, error) {
	if !s.Bodies.Has(a) {
		return 0, fmt.Errorf("constraint %s-%s: %s: %w", a, b, a, ErrNoBody)
	}
	if !s.Bodies.Has(b) {
		return 0, fmt.Errorf("constraint %s-%s: %s: %w", a, b, b, ErrNoBody)
	}
	pa, _ := s.Position(a)
	pb, _ := s.Position(b)
	s.nextConstraint++
	cid := s.nextConstraint
	s.constraints[cid] = Constraint{A: a, B: b, Offset: pb.Sub(pa)}
	s.log.Debug("constraint created",
		zap.Uint64("constraint", uint64(cid)), zap.Stringer("a", a), zap.Stringer("b", b))
	return cid, nil
}

// DestroyConstraint is a no-op for unknown handles.
func (s *State) DestroyConstraint(cid weld.ConstraintID) {
	if _, ok := s.constraints[cid]; !ok {
		return
	}
	delete(s.constraints, cid)
	s.log.Debug("constraint destroyed", zap.Uint64("constraint", uint64(cid)))
}

func (s *State) Constraint(cid weld.ConstraintID) (Constraint, bool) {
	c, ok := s.constraints[cid]
	return c, ok
}

func (s *State) ConstraintCount() int { return len(s.constraints) }
