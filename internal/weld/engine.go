package weld

import (
	"fmt"
	"slices"
	"sync"

	"github.com/physbox/sandbox/internal/config"
	"github.com/physbox/sandbox/internal/core/ecs"
	"github.com/physbox/sandbox/internal/core/event"
	"go.uber.org/zap"
)

// Edge is one connection committed by a Weld call.
type Edge struct {
	Mover        ecs.EntityID
	Target       ecs.EntityID
	Mechanism    Mechanism
	MoverJoined  bool // mover was isolated right before this edge
	TargetJoined bool // target was isolated right before this edge
	Constraint   ConstraintID
}

// Report is what the host observes of a Weld or Unweld call: what changed,
// and why the call stopped early if it did.
type Report struct {
	Entity  ecs.EntityID
	Edges   []Edge
	Severed []ecs.EntityID
	Err     error
}

// Changed reports whether the call mutated the graph.
func (r Report) Changed() bool { return len(r.Edges) > 0 || len(r.Severed) > 0 }

type edgeKey struct {
	lo, hi ecs.EntityID
}

func keyOf(a, b ecs.EntityID) edgeKey {
	if b < a {
		a, b = b, a
	}
	return edgeKey{lo: a, hi: b}
}

type pendingNotice struct {
	id     ecs.EntityID
	weld   bool
	change bool // joined or left the group
}

// Engine is the weld graph: registry, connectivity store, mechanism effects
// and notifications. Each public call runs to completion under one lock;
// listener callbacks run after the lock is released so they may query the
// engine.
type Engine struct {
	mu          sync.Mutex
	cfg         config.WeldConfig
	fallback    Mechanism
	graph       *Graph
	reg         *Registry
	disp        *Dispatcher
	ports       Ports
	constraints map[edgeKey]ConstraintID
	bus         *event.Bus
	log         *zap.Logger
}

// NewEngine builds an engine over world. When world is non-nil the engine
// hooks its destruction path so edges are severed before a handle dies.
func NewEngine(cfg config.WeldConfig, world *ecs.World, ports Ports, bus *event.Bus, log *zap.Logger) (*Engine, error) {
	if cfg.MaxIterations <= 0 {
		return nil, fmt.Errorf("weld engine: max iterations must be positive, got %d", cfg.MaxIterations)
	}
	fallback, err := ParseMechanism(cfg.DefaultMechanism)
	if err != nil {
		return nil, fmt.Errorf("weld engine: %w", err)
	}
	if fallback == MechanismUndefined {
		fallback = MechanismHierarchy
	}
	if cfg.DefaultMass <= 0 {
		cfg.DefaultMass = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	reg := NewRegistry(world)
	e := &Engine{
		cfg:         cfg,
		fallback:    fallback,
		graph:       NewGraph(),
		reg:         reg,
		disp:        NewDispatcher(reg, ports.Hierarchy, bus, log),
		ports:       ports,
		constraints: make(map[edgeKey]ConstraintID),
		bus:         bus,
		log:         log,
	}
	if world != nil {
		world.OnDestroy(e.onDestroy)
	}
	return e, nil
}

// Register makes id weldable with an empty adjacency set and an Undefined tag.
func (e *Engine) Register(id ecs.EntityID, mode Mode) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reg.Add(id, mode)
}

// AddListener attaches l to id's notifications; the returned func detaches it.
func (e *Engine) AddListener(id ecs.EntityID, l Listener) func() {
	e.mu.Lock()
	cancel := e.reg.AddListener(id, l)
	e.mu.Unlock()
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		cancel()
	}
}

// Remove severs all of id's edges (with notifications) and forgets it.
func (e *Engine) Remove(id ecs.EntityID) Report {
	rep := e.Unweld(id)
	e.mu.Lock()
	e.reg.Remove(id)
	e.mu.Unlock()
	return rep
}

func (e *Engine) onDestroy(id ecs.EntityID) {
	e.mu.Lock()
	weldable := e.reg.Has(id)
	if !weldable {
		e.reg.ForgetListeners(id)
	}
	e.mu.Unlock()
	if weldable {
		e.Remove(id)
	}
}

// Weld grows mover's structure one edge per iteration, up to the configured
// cap, joining it to entities the finder reports in contact. mechanism
// Undefined means "whatever mover already uses, else the configured default".
func (e *Engine) Weld(mover ecs.EntityID, mechanism Mechanism) Report {
	e.mu.Lock()
	rep, pending := e.weldLocked(mover, mechanism)
	e.mu.Unlock()
	e.deliver(pending)
	return rep
}

func (e *Engine) weldLocked(mover ecs.EntityID, mechanism Mechanism) (Report, []pendingNotice) {
	rep := Report{Entity: mover}
	mw, ok := e.reg.Get(mover)
	if !ok {
		rep.Err = fmt.Errorf("weld %s: %w", mover, ErrMissingEntity)
		e.log.Warn("weld on unknown entity", zap.Stringer("entity", mover))
		return rep, nil
	}
	if !mw.CanAttach {
		rep.Err = fmt.Errorf("weld %s: mode %s cannot attach: %w", mover, mw.Mode(), ErrCapabilityMismatch)
		e.log.Info("weld rejected, entity cannot attach",
			zap.Stringer("entity", mover), zap.Stringer("mode", mw.Mode()))
		return rep, nil
	}
	if mechanism == MechanismUndefined {
		mechanism = mw.Mechanism
		if mechanism == MechanismUndefined {
			mechanism = e.fallback
		}
	}

	var pending []pendingNotice
	for i := 0; i < e.cfg.MaxIterations; i++ {
		target, structure, found := e.nextCandidate(mover)
		if !found {
			break
		}
		edge, err := e.commit(mover, target, mechanism, structure)
		if err != nil {
			rep.Err = err
			e.log.Warn("weld aborted",
				zap.Stringer("mover", mover),
				zap.Stringer("target", target),
				zap.Stringer("mechanism", mechanism),
				zap.Int("committed", len(rep.Edges)),
				zap.Error(err),
			)
			event.Emit(e.bus, event.WeldAborted{Mover: mover, Reason: err.Error()})
			break
		}
		rep.Edges = append(rep.Edges, edge)
		pending = append(pending,
			pendingNotice{id: mover, weld: true, change: edge.MoverJoined},
			pendingNotice{id: target, weld: true, change: edge.TargetJoined},
		)
		event.Emit(e.bus, event.EdgeCommitted{Mover: mover, Target: target, Mechanism: mechanism.String()})
		if i == e.cfg.MaxIterations-1 {
			e.log.Debug("weld iteration cap reached",
				zap.Stringer("mover", mover), zap.Int("cap", e.cfg.MaxIterations))
		}
	}
	if len(rep.Edges) > 0 {
		e.log.Debug("weld committed",
			zap.Stringer("mover", mover),
			zap.Int("edges", len(rep.Edges)),
			zap.Stringer("mechanism", mechanism),
		)
	}
	return rep, pending
}

// nextCandidate picks the first receivable entity touching mover's current
// structure that is not already part of it. It also returns the structure so
// commit can locate the weld root without another traversal.
func (e *Engine) nextCandidate(mover ecs.EntityID) (ecs.EntityID, map[ecs.EntityID]struct{}, bool) {
	if e.ports.Finder == nil {
		return 0, nil, false
	}
	members := append([]ecs.EntityID{mover}, e.graph.ConnectedComponent(mover)...)
	structure := make(map[ecs.EntityID]struct{}, len(members))
	for _, m := range members {
		structure[m] = struct{}{}
	}
	for _, m := range members {
		for _, c := range e.ports.Finder.FindOverlapping(m, e.cfg.ProximityMargin) {
			if _, inside := structure[c]; inside {
				continue
			}
			cw, ok := e.reg.Get(c)
			if !ok {
				continue
			}
			if !cw.CanReceive {
				e.log.Debug("weld candidate skipped, cannot receive",
					zap.Stringer("mover", mover), zap.Stringer("candidate", c))
				continue
			}
			if e.graph.IsConnected(mover, c) {
				continue
			}
			return c, structure, true
		}
	}
	return 0, nil, false
}

// commit validates and applies one edge: graph and tags first, then the
// ownership tree, then physical bodies. A host failure rolls the edge back.
func (e *Engine) commit(mover, target ecs.EntityID, mechanism Mechanism, structure map[ecs.EntityID]struct{}) (Edge, error) {
	if mover == target {
		return Edge{}, fmt.Errorf("weld %s: %w", mover, ErrSelfLoop)
	}
	mw, _ := e.reg.Get(mover)
	tw, ok := e.reg.Get(target)
	if !ok {
		return Edge{}, fmt.Errorf("weld %s -> %s: %w", mover, target, ErrMissingEntity)
	}
	if mw.Mechanism != MechanismUndefined && mw.Mechanism != mechanism {
		return Edge{}, fmt.Errorf("weld %s -> %s: mover uses %s, requested %s: %w",
			mover, target, mw.Mechanism, mechanism, ErrMechanismMismatch)
	}
	if tw.Mechanism != MechanismUndefined && tw.Mechanism != mechanism {
		return Edge{}, fmt.Errorf("weld %s -> %s: target uses %s, requested %s: %w",
			mover, target, tw.Mechanism, mechanism, ErrMechanismMismatch)
	}

	var root ecs.EntityID
	tree := e.ports.Hierarchy
	if mechanism == MechanismHierarchy && tree != nil {
		root = e.weldRoot(mover, structure)
		if e.isAncestorOrSelf(root, target) {
			return Edge{}, fmt.Errorf("weld %s -> %s: %w", mover, target, ErrOwnershipCycle)
		}
	}

	edge := Edge{
		Mover:        mover,
		Target:       target,
		Mechanism:    mechanism,
		MoverJoined:  e.graph.Degree(mover) == 0,
		TargetJoined: e.graph.Degree(target) == 0,
	}
	prevMover, prevTarget := mw.Mechanism, tw.Mechanism
	if _, err := e.graph.AddEdge(mover, target); err != nil {
		return Edge{}, err
	}
	mw.Mechanism, tw.Mechanism = mechanism, mechanism
	rollback := func() {
		e.graph.RemoveEdge(mover, target)
		mw.Mechanism, tw.Mechanism = prevMover, prevTarget
	}

	if mechanism == MechanismHierarchy && tree != nil {
		if err := tree.Reparent(root, target, true); err != nil {
			rollback()
			return Edge{}, fmt.Errorf("weld %s -> %s: reparent %s: %w", mover, target, root, err)
		}
	}
	if mechanism == MechanismPhysics && e.ports.Physics != nil {
		phys := e.ports.Physics
		phys.EnsureBody(mover, e.cfg.DefaultMass)
		phys.EnsureBody(target, e.cfg.DefaultMass)
		cid, err := phys.CreateConstraint(mover, target)
		if err != nil {
			rollback()
			return Edge{}, fmt.Errorf("weld %s -> %s: constraint: %w", mover, target, err)
		}
		e.constraints[keyOf(mover, target)] = cid
		edge.Constraint = cid
	}
	return edge, nil
}

// weldRoot climbs from mover while the parent still belongs to mover's
// structure. Re-rooting that node keeps a hierarchy group under one owner.
func (e *Engine) weldRoot(mover ecs.EntityID, structure map[ecs.EntityID]struct{}) ecs.EntityID {
	root := mover
	for depth := 0; depth <= len(structure); depth++ {
		p := e.ports.Hierarchy.Parent(root)
		if p.IsZero() {
			break
		}
		if _, inside := structure[p]; !inside {
			break
		}
		root = p
	}
	return root
}

// isAncestorOrSelf reports whether anc is node or one of node's owners.
func (e *Engine) isAncestorOrSelf(anc, node ecs.EntityID) bool {
	for cur, steps := node, 0; !cur.IsZero() && steps < 1<<16; steps++ {
		if cur == anc {
			return true
		}
		cur = e.ports.Hierarchy.Parent(cur)
	}
	return false
}

// Unweld detaches entity from every direct neighbor. The rest of its former
// group is left as it is: losing one member never splits the others apart
// unless they were only connected through it.
func (e *Engine) Unweld(entity ecs.EntityID) Report {
	e.mu.Lock()
	rep, pending := e.unweldLocked(entity)
	e.mu.Unlock()
	e.deliver(pending)
	return rep
}

func (e *Engine) unweldLocked(entity ecs.EntityID) (Report, []pendingNotice) {
	rep := Report{Entity: entity}
	w, ok := e.reg.Get(entity)
	if !ok {
		rep.Err = fmt.Errorf("unweld %s: %w", entity, ErrMissingEntity)
		e.log.Debug("unweld on unknown entity", zap.Stringer("entity", entity))
		return rep, nil
	}
	neighbors := e.graph.Neighbors(entity)
	if len(neighbors) == 0 {
		return rep, nil
	}
	mechanism := w.Mechanism
	formerGroup := map[ecs.EntityID]struct{}{entity: {}}
	for _, m := range e.graph.ConnectedComponent(entity) {
		formerGroup[m] = struct{}{}
	}

	var pending []pendingNotice
	for _, n := range neighbors {
		isolated := e.graph.Degree(n) == 1
		e.graph.RemoveEdge(entity, n)
		key := keyOf(entity, n)
		if cid, ok := e.constraints[key]; ok {
			if e.ports.Physics != nil {
				e.ports.Physics.DestroyConstraint(cid)
			}
			delete(e.constraints, key)
		}
		rep.Severed = append(rep.Severed, n)
		event.Emit(e.bus, event.EdgeSevered{Entity: entity, Neighbor: n, Mechanism: mechanism.String()})
		if isolated {
			if nw, ok := e.reg.Get(n); ok {
				nw.Mechanism = MechanismUndefined
			}
			pending = append(pending, pendingNotice{id: n, change: true})
		}
	}

	if mechanism == MechanismHierarchy && e.ports.Hierarchy != nil {
		e.detachSevered(formerGroup)
	}
	w.Mechanism = MechanismUndefined
	pending = append(pending, pendingNotice{id: entity, change: true})

	e.log.Debug("unweld",
		zap.Stringer("entity", entity),
		zap.Int("severed", len(rep.Severed)),
		zap.Stringer("mechanism", mechanism),
	)
	return rep, pending
}

// detachSevered lifts every former group member whose owner is no longer
// in its weld group, so ownership never crosses a group border.
func (e *Engine) detachSevered(formerGroup map[ecs.EntityID]struct{}) {
	tree := e.ports.Hierarchy
	members := make([]ecs.EntityID, 0, len(formerGroup))
	for m := range formerGroup {
		members = append(members, m)
	}
	slices.Sort(members)

	label := make(map[ecs.EntityID]int, len(members))
	next := 0
	labelOf := func(id ecs.EntityID) int {
		if l, ok := label[id]; ok {
			return l
		}
		next++
		label[id] = next
		for _, m := range e.graph.ConnectedComponent(id) {
			label[m] = next
		}
		return next
	}

	for _, m := range members {
		p := tree.Parent(m)
		if p.IsZero() {
			continue
		}
		if _, member := formerGroup[p]; !member {
			continue
		}
		if labelOf(m) == labelOf(p) {
			continue
		}
		if err := tree.Reparent(m, 0, true); err != nil {
			e.log.Warn("unweld: detach failed", zap.Stringer("entity", m), zap.Error(err))
		}
	}
}

func (e *Engine) deliver(pending []pendingNotice) {
	for _, p := range pending {
		if p.weld {
			e.disp.NotifyWeld(p.id, p.change)
		} else {
			e.disp.NotifyUnweld(p.id, p.change)
		}
	}
}

// IsConnected reports a direct edge between a and b.
func (e *Engine) IsConnected(a, b ecs.EntityID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.IsConnected(a, b)
}

// ConnectedComponent returns everything reachable from a, excluding a.
func (e *Engine) ConnectedComponent(a ecs.EntityID) []ecs.EntityID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.ConnectedComponent(a)
}

// Neighbors returns a's direct connections, sorted.
func (e *Engine) Neighbors(a ecs.EntityID) []ecs.EntityID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.Neighbors(a)
}

// MechanismOf returns id's current tag.
func (e *Engine) MechanismOf(id ecs.EntityID) (Mechanism, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	w, ok := e.reg.Get(id)
	if !ok {
		return MechanismUndefined, false
	}
	return w.Mechanism, true
}

// ModeOf returns id's capability mode.
func (e *Engine) ModeOf(id ecs.EntityID) (Mode, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	w, ok := e.reg.Get(id)
	if !ok {
		return ModeNone, false
	}
	return w.Mode(), true
}

// Groups returns every connected group of two or more members, each starting
// with its lowest handle, ordered by that handle.
func (e *Engine) Groups() [][]ecs.EntityID {
	e.mu.Lock()
	defer e.mu.Unlock()
	seen := make(map[ecs.EntityID]struct{})
	var out [][]ecs.EntityID
	for _, id := range e.graph.Nodes() {
		if _, ok := seen[id]; ok {
			continue
		}
		group := append([]ecs.EntityID{id}, e.graph.ConnectedComponent(id)...)
		for _, m := range group {
			seen[m] = struct{}{}
		}
		out = append(out, group)
	}
	return out
}

// Stats is a point-in-time summary used by metrics.
type Stats struct {
	Entities    int
	Edges       int
	Groups      int
	Constraints int
}

func (e *Engine) Stats() Stats {
	groups := len(e.Groups())
	e.mu.Lock()
	defer e.mu.Unlock()
	return Stats{
		Entities:    e.reg.Len(),
		Edges:       e.graph.EdgeCount(),
		Groups:      groups,
		Constraints: len(e.constraints),
	}
}
