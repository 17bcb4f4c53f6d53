package weld

import (
	"errors"
	"fmt"

	"github.com/physbox/sandbox/internal/core/ecs"
	"go.uber.org/zap"
)

// CheckInvariants verifies symmetry, mechanism homogeneity and that isolated
// entities carry no tag, repairing what it finds. With weld.debug set a
// one-sided edge is reported through DPanic, which is fatal under a
// development logger. The returned error joins every violation found.
func (e *Engine) CheckInvariants() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var errs []error

	// edges to entities that are gone count as one-sided: drop the node
	for _, id := range e.graph.Nodes() {
		if e.reg.Has(id) {
			continue
		}
		for _, n := range e.graph.Isolate(id) {
			errs = append(errs, fmt.Errorf("%s -> %s: endpoint unregistered: %w", n, id, ErrAsymmetricConnection))
		}
	}

	if bad := e.graph.Asymmetries(); len(bad) > 0 {
		for _, h := range bad {
			errs = append(errs, fmt.Errorf("%s -> %s: %w", h.From, h.To, ErrAsymmetricConnection))
		}
		if e.cfg.Debug {
			e.log.DPanic("weld graph corrupted: one-sided connections", zap.Int("count", len(bad)))
		}
		repaired := e.graph.Repair()
		e.log.Warn("weld graph repaired one-sided connections", zap.Int("removed", repaired))
	}

	seen := make(map[ecs.EntityID]struct{})
	for _, id := range e.reg.IDs() {
		if _, ok := seen[id]; ok {
			continue
		}
		w, ok := e.reg.Get(id)
		if !ok {
			continue
		}
		members := e.graph.ConnectedComponent(id)
		if len(members) == 0 {
			if w.Mechanism != MechanismUndefined {
				errs = append(errs, fmt.Errorf("%s isolated but tagged %s: %w", id, w.Mechanism, ErrMechanismMismatch))
				w.Mechanism = MechanismUndefined
			}
			continue
		}
		seen[id] = struct{}{}
		for _, m := range members {
			seen[m] = struct{}{}
			mw, ok := e.reg.Get(m)
			if !ok {
				continue
			}
			if mw.Mechanism != w.Mechanism || mw.Mechanism == MechanismUndefined {
				errs = append(errs, fmt.Errorf("group of %s: %s is %s, %s is %s: %w",
					id, id, w.Mechanism, m, mw.Mechanism, ErrMechanismMismatch))
			}
		}
	}

	if len(errs) > 0 {
		e.log.Warn("weld invariant violations", zap.Int("count", len(errs)))
	}
	return errors.Join(errs...)
}
