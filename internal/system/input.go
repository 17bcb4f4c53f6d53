package system

import (
	"time"

	"github.com/physbox/sandbox/internal/core/ecs"
	coresys "github.com/physbox/sandbox/internal/core/system"
	"github.com/physbox/sandbox/internal/data"
	"github.com/physbox/sandbox/internal/input"
	"github.com/physbox/sandbox/internal/metrics"
	"go.uber.org/zap"
)

// Source supplies scripted commands for a tick.
type Source interface {
	Commands(tick int) []input.Command
}

// InputSystem drains the command queue, appends the source's commands for
// the tick, and dispatches them through the command registry.
// Phase 0 (Input).
type InputSystem struct {
	queue    *input.Queue
	source   Source
	registry *input.Registry
	metrics  *metrics.Collectors
	last     input.Snapshot
	log      *zap.Logger
}

// NewInputSystem wires the input phase. source and m may be nil.
func NewInputSystem(queue *input.Queue, source Source, registry *input.Registry, m *metrics.Collectors, log *zap.Logger) *InputSystem {
	return &InputSystem{
		queue:    queue,
		source:   source,
		registry: registry,
		metrics:  m,
		log:      log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	snap := s.queue.Drain()
	if s.source != nil {
		snap.Commands = append(snap.Commands, s.source.Commands(snap.Tick)...)
	}
	for _, cmd := range snap.Commands {
		err := s.registry.Dispatch(cmd)
		if err != nil {
			s.log.Warn("command failed",
				zap.Int("tick", snap.Tick),
				zap.String("op", cmd.Op),
				zap.Stringer("target", cmd.Target),
				zap.Error(err),
			)
		}
		if s.metrics != nil {
			s.metrics.Command(cmd.Op, err)
		}
	}
	s.last = snap
}

// Last returns the snapshot handled by the most recent Update.
func (s *InputSystem) Last() input.Snapshot { return s.last }

// SceneSource replays a scene's frame list, resolving names at the tick
// they run so destroyed targets are reported instead of reused.
type SceneSource struct {
	scene  *data.Scene
	lookup func(string) (ecs.EntityID, bool)
	log    *zap.Logger
}

func NewSceneSource(scene *data.Scene, lookup func(string) (ecs.EntityID, bool), log *zap.Logger) *SceneSource {
	return &SceneSource{scene: scene, lookup: lookup, log: log}
}

func (s *SceneSource) Commands(tick int) []input.Command {
	cmds, err := input.FromFrameOps(s.scene.FrameOps(tick), s.lookup)
	if err != nil {
		s.log.Warn("scene frame skipped ops", zap.Int("tick", tick), zap.Error(err))
	}
	return cmds
}

// Done reports whether every scheduled frame has been replayed by tick.
func (s *SceneSource) Done(tick int) bool { return tick >= s.scene.LastFrame() }
