package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/physbox/sandbox/internal/config"
	"github.com/physbox/sandbox/internal/core/ecs"
	"github.com/physbox/sandbox/internal/core/event"
	coresys "github.com/physbox/sandbox/internal/core/system"
	"github.com/physbox/sandbox/internal/data"
	"github.com/physbox/sandbox/internal/handler"
	"github.com/physbox/sandbox/internal/input"
	"github.com/physbox/sandbox/internal/metrics"
	"github.com/physbox/sandbox/internal/scripting"
	"github.com/physbox/sandbox/internal/system"
	"github.com/physbox/sandbox/internal/weld"
	"github.com/physbox/sandbox/internal/world"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// sandbox is one assembled simulation: host state, weld engine, scripts
// and the tick runner that drives them.
type sandbox struct {
	cfg       *config.Config
	scene     *data.Scene
	state     *world.State
	eng       *weld.Engine
	bus       *event.Bus
	scripts   *scripting.Engine
	queue     *input.Queue
	source    *system.SceneSource
	audit     *system.InvariantSystem
	runner    *coresys.Runner
	metrics   *metrics.Collectors
	listeners int
	log       *zap.Logger
}

func assemble(cfg *config.Config, log *zap.Logger, reg prometheus.Registerer) (*sandbox, error) {
	scene, err := data.LoadScene(cfg.Sandbox.ScenePath)
	if err != nil {
		return nil, fmt.Errorf("load scene: %w", err)
	}

	ecsWorld := ecs.NewWorld()
	bus := event.NewBus()
	state := world.NewState(ecsWorld, cfg.Spatial.CellSize, log.Named("world"))
	eng, err := weld.NewEngine(cfg.Weld, ecsWorld, state.Ports(), bus, log.Named("weld"))
	if err != nil {
		return nil, err
	}
	if err := state.Populate(scene, eng); err != nil {
		return nil, fmt.Errorf("populate scene: %w", err)
	}

	scripts, err := scripting.NewEngine(cfg.Sandbox.ScriptsDir, scripting.HostFuncs{
		Name:  state.NameOf,
		Group: func(id ecs.EntityID) int { return len(eng.ConnectedComponent(id)) + 1 },
	}, log.Named("lua"))
	if err != nil {
		return nil, fmt.Errorf("scripting: %w", err)
	}
	listeners := 0
	for _, o := range scene.Objects {
		id, _ := state.Lookup(o.Name)
		for _, script := range o.Scripts {
			l, err := scripts.Listener(id, script)
			if err != nil {
				scripts.Close()
				return nil, fmt.Errorf("object %q: %w", o.Name, err)
			}
			eng.AddListener(id, l)
			listeners++
		}
	}

	m := metrics.NewCollectors(reg)
	m.Subscribe(bus)

	cmdReg := input.NewRegistry(log.Named("input"))
	handler.RegisterAll(cmdReg, &handler.Deps{Config: cfg, Log: log.Named("handler"), World: state, Weld: eng})

	sb := &sandbox{
		cfg:       cfg,
		scene:     scene,
		state:     state,
		eng:       eng,
		bus:       bus,
		scripts:   scripts,
		queue:     &input.Queue{},
		source:    system.NewSceneSource(scene, state.Lookup, log),
		metrics:   m,
		listeners: listeners,
		log:       log,
	}
	sb.audit = system.NewInvariantSystem(eng, cfg.Weld.CheckEvery, m, log)

	runner := coresys.NewRunner()
	runner.Register(system.NewInputSystem(sb.queue, sb.source, cmdReg, m, log))
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(system.NewActivationSystem(state, eng, bus, log))
	runner.Register(sb.audit)
	runner.Register(system.NewCleanupSystem(ecsWorld, log))
	sb.runner = runner
	return sb, nil
}

// Run ticks until the scene is replayed (plus one tick to flush events),
// max_ticks is reached, or ctx is cancelled.
func (sb *sandbox) Run(ctx context.Context) error {
	dt := sb.cfg.Sandbox.TickRate.Duration
	var ticker *time.Ticker
	if sb.cfg.Sandbox.Realtime {
		ticker = time.NewTicker(dt)
		defer ticker.Stop()
	}
	for {
		tick := int(sb.runner.Ticks())
		if sb.cfg.Sandbox.MaxTicks > 0 && tick >= sb.cfg.Sandbox.MaxTicks {
			return nil
		}
		if sb.cfg.Sandbox.MaxTicks == 0 && sb.source.Done(tick-1) {
			break
		}
		if ticker != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		sb.runner.Tick(dt)
	}
	// last audit regardless of check_every
	if err := sb.eng.CheckInvariants(); err != nil {
		sb.log.Error("weld invariants violated at end of run", zap.Error(err))
	}
	return nil
}

// GroupSummary renders every weld group as a line of object names.
func (sb *sandbox) GroupSummary() []string {
	var out []string
	for _, g := range sb.eng.Groups() {
		names := make([]string, 0, len(g))
		for _, id := range g {
			names = append(names, sb.state.NameOf(id))
		}
		mech, _ := sb.eng.MechanismOf(g[0])
		out = append(out, fmt.Sprintf("%s: %s", mech, strings.Join(names, ", ")))
	}
	return out
}

func (sb *sandbox) Close() {
	sb.scripts.Close()
}
