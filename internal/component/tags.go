package component

// Name is a human readable label from the scene file.
type Name struct {
	Value string
}

// Switch toggles activation across the welded structure it belongs to.
type Switch struct {
	On    bool
	Dirty bool // toggled this tick, broadcast pending
}

// Powered receives activation broadcasts.
type Powered struct {
	Active bool
	Source uint64 // ecs.EntityID of the last switch that changed it
}

// Seat can be occupied only while welded to something.
type Seat struct {
	Occupied bool
}
