package system

import (
	"time"

	"github.com/physbox/sandbox/internal/component"
	"github.com/physbox/sandbox/internal/core/ecs"
	"github.com/physbox/sandbox/internal/core/event"
	coresys "github.com/physbox/sandbox/internal/core/system"
	"github.com/physbox/sandbox/internal/weld"
	"github.com/physbox/sandbox/internal/world"
	"go.uber.org/zap"
)

// ActivationSystem broadcasts toggled switches to every powered object in
// the switch's weld group, including the plain objects the members own.
// Phase 2 (Update).
type ActivationSystem struct {
	state *world.State
	eng   *weld.Engine
	bus   *event.Bus
	log   *zap.Logger
}

func NewActivationSystem(state *world.State, eng *weld.Engine, bus *event.Bus, log *zap.Logger) *ActivationSystem {
	return &ActivationSystem{state: state, eng: eng, bus: bus, log: log}
}

func (s *ActivationSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *ActivationSystem) Update(_ time.Duration) {
	dirty := ecs.Select(s.state.Switches, func(_ ecs.EntityID, sw *component.Switch) bool {
		return sw.Dirty
	})
	for _, id := range dirty {
		sw, _ := s.state.Switches.Get(id)
		sw.Dirty = false
		n := s.Broadcast(id, sw.On)
		event.Emit(s.bus, event.Activation{Source: id, Members: n, On: sw.On})
		s.log.Info("activation",
			zap.String("switch", s.state.NameOf(id)),
			zap.Bool("on", sw.On),
			zap.Int("powered", n),
		)
	}
}

// Broadcast sets every powered object reachable from source to on and
// returns how many were reached.
func (s *ActivationSystem) Broadcast(source ecs.EntityID, on bool) int {
	members := append([]ecs.EntityID{source}, s.eng.ConnectedComponent(source)...)
	n := 0
	for _, m := range members {
		for _, id := range s.scope(m) {
			p, ok := s.state.Powered.Get(id)
			if !ok {
				continue
			}
			p.Active = on
			p.Source = uint64(source)
			n++
		}
	}
	return n
}

// scope is root plus the descendants it owns, stopping at other weldables.
func (s *ActivationSystem) scope(root ecs.EntityID) []ecs.EntityID {
	out := []ecs.EntityID{root}
	for i := 0; i < len(out); i++ {
		for _, c := range s.state.Children(out[i]) {
			if _, weldable := s.eng.ModeOf(c); weldable {
				continue
			}
			out = append(out, c)
		}
	}
	return out
}
