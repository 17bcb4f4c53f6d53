package weld

import "github.com/physbox/sandbox/internal/core/ecs"

// CandidateFinder returns entities whose bounds touch id's bounds inflated by
// margin. Implementations are pure queries against current spatial state and
// may include id itself; the engine filters it.
type CandidateFinder interface {
	FindOverlapping(id ecs.EntityID, margin float64) []ecs.EntityID
}

// Hierarchy is the host's ownership tree. The zero EntityID is the top level.
type Hierarchy interface {
	Parent(id ecs.EntityID) ecs.EntityID
	Children(id ecs.EntityID) []ecs.EntityID
	Reparent(id, parent ecs.EntityID, preserveWorld bool) error
}

// ConstraintID identifies a rigid constraint created by the physics host.
type ConstraintID uint64

// Physics is the host's rigid body/constraint API.
type Physics interface {
	EnsureBody(id ecs.EntityID, mass float64)
	CreateConstraint(a, b ecs.EntityID) (ConstraintID, error)
	DestroyConstraint(c ConstraintID)
}

// Ports bundles the host collaborators. Any of them may be nil: without a
// Finder no candidates are ever found, without Hierarchy/Physics the
// mechanism's structural effect is skipped.
type Ports struct {
	Finder    CandidateFinder
	Hierarchy Hierarchy
	Physics   Physics
}

// Notice describes one callback. Root is the weldable whose state changed;
// Member is the scope node the listener is attached to.
type Notice struct {
	Root   ecs.EntityID
	Member ecs.EntityID
}

// Listener receives weld notifications for an entity or one of its
// non-weldable descendants.
type Listener interface {
	OnAddedToStructure(n Notice)
	OnRemovedFromStructure(n Notice)
	OnJoinedGroup(n Notice)
	OnLeftGroup(n Notice)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	Added   func(Notice)
	Removed func(Notice)
	Joined  func(Notice)
	Left    func(Notice)
}

func (f ListenerFuncs) OnAddedToStructure(n Notice) {
	if f.Added != nil {
		f.Added(n)
	}
}

func (f ListenerFuncs) OnRemovedFromStructure(n Notice) {
	if f.Removed != nil {
		f.Removed(n)
	}
}

func (f ListenerFuncs) OnJoinedGroup(n Notice) {
	if f.Joined != nil {
		f.Joined(n)
	}
}

func (f ListenerFuncs) OnLeftGroup(n Notice) {
	if f.Left != nil {
		f.Left(n)
	}
}
