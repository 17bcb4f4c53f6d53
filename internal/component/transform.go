package component

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/physbox/sandbox/internal/core/ecs"
)

// Transform is an entity's node in the ownership tree. Position is in world
// space; Local is relative to Parent and is kept in sync on reparent.
type Transform struct {
	Parent   ecs.EntityID // zero = top level
	Children []ecs.EntityID
	Position mgl64.Vec3
	Local    mgl64.Vec3
}

// Bounds is a world-space axis-aligned box used for overlap queries.
type Bounds struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}
