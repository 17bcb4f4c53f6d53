package weld

import (
	"errors"
	"fmt"
	"testing"

	"github.com/physbox/sandbox/internal/config"
	"github.com/physbox/sandbox/internal/core/ecs"
	"github.com/physbox/sandbox/internal/core/event"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeFinder struct {
	touching map[ecs.EntityID][]ecs.EntityID
	calls    int
}

func (f *fakeFinder) touch(a ecs.EntityID, others ...ecs.EntityID) {
	for _, b := range others {
		f.touching[a] = append(f.touching[a], b)
		f.touching[b] = append(f.touching[b], a)
	}
}

func (f *fakeFinder) FindOverlapping(id ecs.EntityID, _ float64) []ecs.EntityID {
	f.calls++
	return append([]ecs.EntityID(nil), f.touching[id]...)
}

type fakeTree struct {
	parent   map[ecs.EntityID]ecs.EntityID
	children map[ecs.EntityID][]ecs.EntityID
}

func newFakeTree() *fakeTree {
	return &fakeTree{
		parent:   make(map[ecs.EntityID]ecs.EntityID),
		children: make(map[ecs.EntityID][]ecs.EntityID),
	}
}

func (t *fakeTree) Parent(id ecs.EntityID) ecs.EntityID { return t.parent[id] }

func (t *fakeTree) Children(id ecs.EntityID) []ecs.EntityID {
	return append([]ecs.EntityID(nil), t.children[id]...)
}

func (t *fakeTree) Reparent(id, parent ecs.EntityID, _ bool) error {
	for cur := parent; !cur.IsZero(); cur = t.parent[cur] {
		if cur == id {
			return errors.New("cycle")
		}
	}
	if old := t.parent[id]; !old.IsZero() {
		kids := t.children[old]
		for i, c := range kids {
			if c == id {
				t.children[old] = append(kids[:i:i], kids[i+1:]...)
				break
			}
		}
	}
	if parent.IsZero() {
		delete(t.parent, id)
		return nil
	}
	t.parent[id] = parent
	t.children[parent] = append(t.children[parent], id)
	return nil
}

type fakePhysics struct {
	bodies      map[ecs.EntityID]float64
	constraints map[ConstraintID][2]ecs.EntityID
	next        ConstraintID
	fail        bool
}

func newFakePhysics() *fakePhysics {
	return &fakePhysics{
		bodies:      make(map[ecs.EntityID]float64),
		constraints: make(map[ConstraintID][2]ecs.EntityID),
	}
}

func (p *fakePhysics) EnsureBody(id ecs.EntityID, mass float64) {
	if _, ok := p.bodies[id]; !ok {
		p.bodies[id] = mass
	}
}

func (p *fakePhysics) CreateConstraint(a, b ecs.EntityID) (ConstraintID, error) {
	if p.fail {
		return 0, fmt.Errorf("solver refused %s-%s", a, b)
	}
	p.next++
	p.constraints[p.next] = [2]ecs.EntityID{a, b}
	return p.next, nil
}

func (p *fakePhysics) DestroyConstraint(c ConstraintID) { delete(p.constraints, c) }

type counts struct {
	added, removed, joined, left int
}

type recorder struct {
	byEntity map[ecs.EntityID]*counts
	order    []string
}

func newRecorder() *recorder {
	return &recorder{byEntity: make(map[ecs.EntityID]*counts)}
}

func (r *recorder) of(id ecs.EntityID) *counts {
	c := r.byEntity[id]
	if c == nil {
		c = &counts{}
		r.byEntity[id] = c
	}
	return c
}

func (r *recorder) listener() Listener {
	return ListenerFuncs{
		Added:   func(n Notice) { r.of(n.Member).added++ },
		Removed: func(n Notice) { r.of(n.Member).removed++ },
		Joined: func(n Notice) {
			r.of(n.Member).joined++
			r.order = append(r.order, "joined "+n.Member.String())
		},
		Left: func(n Notice) {
			r.of(n.Member).left++
			r.order = append(r.order, "left "+n.Member.String())
		},
	}
}

type fixture struct {
	world  *ecs.World
	finder *fakeFinder
	tree   *fakeTree
	phys   *fakePhysics
	bus    *event.Bus
	eng    *Engine
	rec    *recorder
}

func testConfig(maxIterations int) config.WeldConfig {
	return config.WeldConfig{
		MaxIterations:    maxIterations,
		ProximityMargin:  0.01,
		DefaultMass:      2.5,
		DefaultMechanism: "hierarchy",
	}
}

func newFixture(t *testing.T, maxIterations int) *fixture {
	t.Helper()
	f := &fixture{
		world:  ecs.NewWorld(),
		finder: &fakeFinder{touching: make(map[ecs.EntityID][]ecs.EntityID)},
		tree:   newFakeTree(),
		phys:   newFakePhysics(),
		bus:    event.NewBus(),
		rec:    newRecorder(),
	}
	eng, err := NewEngine(testConfig(maxIterations), f.world,
		Ports{Finder: f.finder, Hierarchy: f.tree, Physics: f.phys}, f.bus, zap.NewNop())
	require.NoError(t, err)
	f.eng = eng
	return f
}

func (f *fixture) spawn(t *testing.T, mode Mode) ecs.EntityID {
	t.Helper()
	id := f.world.CreateEntity()
	require.NoError(t, f.eng.Register(id, mode))
	f.eng.AddListener(id, f.rec.listener())
	return id
}
