package main

import (
	"context"
	"testing"

	"github.com/physbox/sandbox/internal/config"
	"github.com/physbox/sandbox/internal/weld"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func demoConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Sandbox.ScenePath = "../../data/yaml/demo_scene.yaml"
	cfg.Sandbox.ScriptsDir = "../../scripts"
	cfg.Weld.CheckEvery = 1
	return cfg
}

func TestDemoSceneReplay(t *testing.T) {
	sb, err := assemble(demoConfig(), zap.NewNop(), prometheus.NewRegistry())
	require.NoError(t, err)
	defer sb.Close()

	assert.Equal(t, 3, sb.listeners)
	assert.Equal(t, 6, sb.eng.Stats().Entities)

	require.NoError(t, sb.Run(context.Background()))

	assert.Equal(t, uint64(sb.scene.LastFrame()+1), sb.runner.Ticks())
	assert.Equal(t, weld.Stats{Entities: 5, Edges: 0, Groups: 0, Constraints: 0}, sb.eng.Stats())
	assert.Zero(t, sb.audit.Violations())
	assert.Empty(t, sb.GroupSummary())
	assert.Positive(t, sb.scripts.Calls())

	_, ok := sb.state.Lookup("cart")
	assert.False(t, ok)

	lamp, ok := sb.state.Lookup("lamp")
	require.True(t, ok)
	pw, ok := sb.state.Powered.Get(lamp)
	require.True(t, ok)
	assert.True(t, pw.Active)

	chair, _ := sb.state.Lookup("chair")
	seat, ok := sb.state.Seats.Get(chair)
	require.True(t, ok)
	assert.False(t, seat.Occupied, "unweld releases the seat")

	plank, _ := sb.state.Lookup("plank")
	for _, name := range []string{"base", "plank", "button", "chair"} {
		id, _ := sb.state.Lookup(name)
		assert.Zero(t, sb.state.Parent(id), "%s stays at top level after unweld", name)
	}
	assert.Equal(t, plank, sb.state.Parent(lamp))
}

func TestMaxTicksStopsEarly(t *testing.T) {
	cfg := demoConfig()
	cfg.Sandbox.MaxTicks = 3
	sb, err := assemble(cfg, zap.NewNop(), prometheus.NewRegistry())
	require.NoError(t, err)
	defer sb.Close()

	require.NoError(t, sb.Run(context.Background()))
	assert.Equal(t, uint64(3), sb.runner.Ticks())

	lines := sb.GroupSummary()
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "hierarchy: ")
	assert.Contains(t, lines[0], "button")
}

func TestRunHonoursCancel(t *testing.T) {
	sb, err := assemble(demoConfig(), zap.NewNop(), prometheus.NewRegistry())
	require.NoError(t, err)
	defer sb.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sb.Run(ctx), context.Canceled)
	assert.Zero(t, sb.runner.Ticks())
}

func TestAssembleRejectsMissingScene(t *testing.T) {
	cfg := demoConfig()
	cfg.Sandbox.ScenePath = "does-not-exist.yaml"
	_, err := assemble(cfg, zap.NewNop(), prometheus.NewRegistry())
	assert.Error(t, err)
}
