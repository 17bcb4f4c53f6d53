package weld

import (
	"fmt"
	"slices"

	"github.com/physbox/sandbox/internal/core/ecs"
)

// HalfEdge is one direction of an adjacency entry whose reverse is missing.
type HalfEdge struct {
	From ecs.EntityID
	To   ecs.EntityID
}

// Graph is the connectivity store: undirected adjacency sets keyed by handle.
// Nodes without edges are not stored. Not safe for concurrent use; Engine
// serializes access.
type Graph struct {
	adj map[ecs.EntityID]map[ecs.EntityID]struct{}
}

func NewGraph() *Graph {
	return &Graph{adj: make(map[ecs.EntityID]map[ecs.EntityID]struct{})}
}

// AddEdge connects a and b. It reports false without error when the edge
// already exists. A half-present edge is completed.
func (g *Graph) AddEdge(a, b ecs.EntityID) (bool, error) {
	if a == b {
		return false, fmt.Errorf("edge %s-%s: %w", a, b, ErrSelfLoop)
	}
	ab, ba := g.has(a, b), g.has(b, a)
	if ab && ba {
		return false, nil
	}
	g.link(a, b)
	g.link(b, a)
	return true, nil
}

// RemoveEdge disconnects a and b in both directions. Returns false when
// neither half existed.
func (g *Graph) RemoveEdge(a, b ecs.EntityID) bool {
	removed := g.unlink(a, b)
	if g.unlink(b, a) {
		removed = true
	}
	return removed
}

// IsConnected reports a direct edge between a and b. It is not a
// reachability test; use ConnectedComponent for that.
func (g *Graph) IsConnected(a, b ecs.EntityID) bool {
	return g.has(a, b)
}

// Neighbors returns a's adjacency set as a sorted copy.
func (g *Graph) Neighbors(a ecs.EntityID) []ecs.EntityID {
	set := g.adj[a]
	if len(set) == 0 {
		return nil
	}
	out := make([]ecs.EntityID, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

func (g *Graph) Degree(a ecs.EntityID) int {
	return len(g.adj[a])
}

// ConnectedComponent returns every entity reachable from a, excluding a, in
// breadth-first order. Iterative with a visited set, so cycles and deep
// chains are fine.
func (g *Graph) ConnectedComponent(a ecs.EntityID) []ecs.EntityID {
	if len(g.adj[a]) == 0 {
		return nil
	}
	visited := map[ecs.EntityID]struct{}{a: {}}
	queue := []ecs.EntityID{a}
	var out []ecs.EntityID
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range g.Neighbors(cur) {
			if _, seen := visited[n]; seen {
				continue
			}
			visited[n] = struct{}{}
			out = append(out, n)
			queue = append(queue, n)
		}
	}
	return out
}

// Isolate removes every edge of a and returns the former neighbors.
func (g *Graph) Isolate(a ecs.EntityID) []ecs.EntityID {
	ns := g.Neighbors(a)
	for _, n := range ns {
		g.RemoveEdge(a, n)
	}
	return ns
}

// Nodes returns every entity with at least one adjacency entry, sorted.
func (g *Graph) Nodes() []ecs.EntityID {
	out := make([]ecs.EntityID, 0, len(g.adj))
	for id := range g.adj {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// EdgeCount counts symmetric edges only.
func (g *Graph) EdgeCount() int {
	n := 0
	for a, set := range g.adj {
		for b := range set {
			if a < b && g.has(b, a) {
				n++
			}
		}
	}
	return n
}

// Asymmetries lists half-edges whose reverse entry is missing.
func (g *Graph) Asymmetries() []HalfEdge {
	var out []HalfEdge
	for _, a := range g.Nodes() {
		for _, b := range g.Neighbors(a) {
			if !g.has(b, a) {
				out = append(out, HalfEdge{From: a, To: b})
			}
		}
	}
	return out
}

// Repair drops every one-sided half-edge and returns how many were removed.
func (g *Graph) Repair() int {
	bad := g.Asymmetries()
	for _, h := range bad {
		g.unlink(h.From, h.To)
	}
	return len(bad)
}

func (g *Graph) has(a, b ecs.EntityID) bool {
	_, ok := g.adj[a][b]
	return ok
}

func (g *Graph) link(a, b ecs.EntityID) {
	set := g.adj[a]
	if set == nil {
		set = make(map[ecs.EntityID]struct{}, 2)
		g.adj[a] = set
	}
	set[b] = struct{}{}
}

func (g *Graph) unlink(a, b ecs.EntityID) bool {
	set, ok := g.adj[a]
	if !ok {
		return false
	}
	if _, ok := set[b]; !ok {
		return false
	}
	delete(set, b)
	if len(set) == 0 {
		delete(g.adj, a)
	}
	return true
}
