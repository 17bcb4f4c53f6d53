package event

import "github.com/physbox/sandbox/internal/core/ecs"

// Weld diagnostics. Mechanism is carried as its string form so this package
// does not import the weld package.

type EdgeCommitted struct {
	Mover     ecs.EntityID
	Target    ecs.EntityID
	Mechanism string
}

type EdgeSevered struct {
	Entity    ecs.EntityID
	Neighbor  ecs.EntityID
	Mechanism string
}

type WeldAborted struct {
	Mover  ecs.EntityID
	Reason string
}

type GroupJoined struct {
	Entity ecs.EntityID
}

type GroupLeft struct {
	Entity ecs.EntityID
}

type Activation struct {
	Source  ecs.EntityID
	Members int
	On      bool
}
