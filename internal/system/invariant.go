package system

import (
	"time"

	coresys "github.com/physbox/sandbox/internal/core/system"
	"github.com/physbox/sandbox/internal/metrics"
	"github.com/physbox/sandbox/internal/weld"
	"go.uber.org/zap"
)

// InvariantSystem audits the weld graph every `every` ticks and refreshes
// the metric gauges every tick. Phase 3 (PostUpdate).
type InvariantSystem struct {
	eng        *weld.Engine
	metrics    *metrics.Collectors
	every      int
	tick       int
	violations int
	log        *zap.Logger
}

// NewInvariantSystem audits every `every` ticks; zero or less disables the
// audit. m may be nil.
func NewInvariantSystem(eng *weld.Engine, every int, m *metrics.Collectors, log *zap.Logger) *InvariantSystem {
	return &InvariantSystem{eng: eng, every: every, metrics: m, log: log}
}

func (s *InvariantSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *InvariantSystem) Update(_ time.Duration) {
	s.tick++
	if s.metrics != nil {
		s.metrics.Ticks.Inc()
		s.metrics.Observe(s.eng.Stats())
	}
	if s.every <= 0 || s.tick%s.every != 0 {
		return
	}
	if err := s.eng.CheckInvariants(); err != nil {
		s.violations++
		s.log.Error("weld invariants violated", zap.Int("tick", s.tick), zap.Error(err))
	}
}

// Violations counts audits that found a problem.
func (s *InvariantSystem) Violations() int { return s.violations }
