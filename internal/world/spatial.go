package world

import (
	"math"
	"slices"

	"github.com/physbox/sandbox/internal/core/ecs"
)

// maxSpanCells bounds how many cells a box may cover per axis. Larger
// boxes are kept in a side list every query scans.
const maxSpanCells = 32

// Grid buckets boxes into cubic cells so an overlap query only tests
// entities that share a cell with the probe. Accessed only from the game
// loop goroutine, no locks.
type Grid struct {
	size  float64
	cells map[cellKey]map[ecs.EntityID]struct{}
	boxes map[ecs.EntityID]AABB
	wide  map[ecs.EntityID]struct{}
}

type cellKey struct {
	cx, cy, cz int64
}

func NewGrid(cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &Grid{
		size:  cellSize,
		cells: make(map[cellKey]map[ecs.EntityID]struct{}),
		boxes: make(map[ecs.EntityID]AABB),
		wide:  make(map[ecs.EntityID]struct{}),
	}
}

func (g *Grid) toCell(v float64) int64 {
	return int64(math.Floor(v / g.size))
}

// oversized reports whether b covers too many cells, or sits too far out,
// to be bucketed.
func (g *Grid) oversized(b AABB) bool {
	const far = 1 << 52
	for axis := 0; axis < 3; axis++ {
		lo, hi := b.Min[axis]/g.size, b.Max[axis]/g.size
		if math.IsNaN(lo) || math.IsNaN(hi) || math.Abs(lo) > far || math.Abs(hi) > far {
			return true
		}
		if math.Floor(hi)-math.Floor(lo) >= maxSpanCells {
			return true
		}
	}
	return false
}

// span calls fn for every cell the box touches. b must not be oversized.
func (g *Grid) span(b AABB, fn func(cellKey)) {
	x0, x1 := g.toCell(b.Min.X()), g.toCell(b.Max.X())
	y0, y1 := g.toCell(b.Min.Y()), g.toCell(b.Max.Y())
	z0, z1 := g.toCell(b.Min.Z()), g.toCell(b.Max.Z())
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			for z := z0; z <= z1; z++ {
				fn(cellKey{x, y, z})
			}
		}
	}
}

// Insert places id in the grid, replacing its previous box.
func (g *Grid) Insert(id ecs.EntityID, b AABB) {
	g.Remove(id)
	g.boxes[id] = b
	if g.oversized(b) {
		g.wide[id] = struct{}{}
		return
	}
	g.span(b, func(k cellKey) {
		cell := g.cells[k]
		if cell == nil {
			cell = make(map[ecs.EntityID]struct{})
			g.cells[k] = cell
		}
		cell[id] = struct{}{}
	})
}

// Remove takes id out of the grid.
func (g *Grid) Remove(id ecs.EntityID) {
	b, ok := g.boxes[id]
	if !ok {
		return
	}
	delete(g.boxes, id)
	if _, ok := g.wide[id]; ok {
		delete(g.wide, id)
		return
	}
	g.span(b, func(k cellKey) {
		if cell := g.cells[k]; cell != nil {
			delete(cell, id)
			if len(cell) == 0 {
				delete(g.cells, k)
			}
		}
	})
}

func (g *Grid) Box(id ecs.EntityID) (AABB, bool) {
	b, ok := g.boxes[id]
	return b, ok
}

func (g *Grid) Len() int { return len(g.boxes) }

// Query returns every entity whose box intersects probe, sorted by handle.
func (g *Grid) Query(probe AABB) []ecs.EntityID {
	var out []ecs.EntityID
	if g.oversized(probe) {
		for id, b := range g.boxes {
			if b.Intersects(probe) {
				out = append(out, id)
			}
		}
		slices.Sort(out)
		return out
	}
	seen := make(map[ecs.EntityID]struct{})
	for id := range g.wide {
		seen[id] = struct{}{}
		if g.boxes[id].Intersects(probe) {
			out = append(out, id)
		}
	}
	g.span(probe, func(k cellKey) {
		for id := range g.cells[k] {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if g.boxes[id].Intersects(probe) {
				out = append(out, id)
			}
		}
	})
	slices.Sort(out)
	return out
}

// FindOverlapping reports the entities whose boxes touch id's box grown by
// margin, excluding id itself.
func (s *State) FindOverlapping(id ecs.EntityID, margin float64) []ecs.EntityID {
	b, ok := s.grid.Box(id)
	if !ok {
		return nil
	}
	hits := s.grid.Query(b.Expand(margin))
	out := hits[:0]
	for _, h := range hits {
		if h != id {
			out = append(out, h)
		}
	}
	return out
}
