package weld

import (
	"github.com/physbox/sandbox/internal/core/ecs"
	"github.com/physbox/sandbox/internal/core/event"
	"go.uber.org/zap"
)

// Dispatcher delivers weld notifications to the listeners in an entity's
// notification scope: the entity plus its ownership-tree descendants,
// stopping at nested weldables.
type Dispatcher struct {
	reg  *Registry
	tree Hierarchy
	bus  *event.Bus
	log  *zap.Logger
}

func NewDispatcher(reg *Registry, tree Hierarchy, bus *event.Bus, log *zap.Logger) *Dispatcher {
	return &Dispatcher{reg: reg, tree: tree, bus: bus, log: log}
}

// Scope returns root followed by its non-weldable descendants, breadth first.
func (d *Dispatcher) Scope(root ecs.EntityID) []ecs.EntityID {
	scope := []ecs.EntityID{root}
	if d.tree == nil {
		return scope
	}
	for i := 0; i < len(scope); i++ {
		for _, c := range d.tree.Children(scope[i]) {
			if d.reg.Has(c) {
				continue // nested weld boundary
			}
			scope = append(scope, c)
		}
	}
	return scope
}

// NotifyWeld tells root's scope it was added to a structure, and that it
// formed a group when justJoined is set.
func (d *Dispatcher) NotifyWeld(root ecs.EntityID, justJoined bool) {
	for _, member := range d.Scope(root) {
		n := Notice{Root: root, Member: member}
		for _, l := range d.reg.Listeners(member) {
			d.safeCall("added", n, l.OnAddedToStructure)
			if justJoined {
				d.safeCall("joined", n, l.OnJoinedGroup)
			}
		}
	}
	if justJoined {
		event.Emit(d.bus, event.GroupJoined{Entity: root})
	}
}

// NotifyUnweld is the mirror of NotifyWeld.
func (d *Dispatcher) NotifyUnweld(root ecs.EntityID, justLeft bool) {
	for _, member := range d.Scope(root) {
		n := Notice{Root: root, Member: member}
		for _, l := range d.reg.Listeners(member) {
			d.safeCall("removed", n, l.OnRemovedFromStructure)
			if justLeft {
				d.safeCall("left", n, l.OnLeftGroup)
			}
		}
	}
	if justLeft {
		event.Emit(d.bus, event.GroupLeft{Entity: root})
	}
}

// safeCall keeps a panicking listener from unwinding into the host.
func (d *Dispatcher) safeCall(kind string, n Notice, fn func(Notice)) {
	defer func() {
		if rec := recover(); rec != nil {
			d.log.Error("weld listener panic recovered",
				zap.String("callback", kind),
				zap.Stringer("root", n.Root),
				zap.Stringer("member", n.Member),
				zap.Any("panic", rec),
			)
		}
	}()
	fn(n)
}
