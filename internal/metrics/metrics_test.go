package metrics

import (
	"errors"
	"testing"

	"github.com/physbox/sandbox/internal/core/event"
	"github.com/physbox/sandbox/internal/weld"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorsCountBusEvents(t *testing.T) {
	c := NewCollectors(prometheus.NewRegistry())
	bus := event.NewBus()
	c.Subscribe(bus)

	event.Emit(bus, event.EdgeCommitted{Mover: 1, Target: 2, Mechanism: "hierarchy"})
	event.Emit(bus, event.EdgeCommitted{Mover: 1, Target: 3, Mechanism: "hierarchy"})
	event.Emit(bus, event.EdgeSevered{Entity: 1, Neighbor: 2, Mechanism: "physics"})
	event.Emit(bus, event.WeldAborted{Mover: 1, Reason: "x"})
	event.Emit(bus, event.GroupJoined{Entity: 1})
	event.Emit(bus, event.GroupLeft{Entity: 1})
	event.Emit(bus, event.Activation{Source: 1, Members: 3, On: true})

	assert.Zero(t, testutil.ToFloat64(c.EdgesTotal.WithLabelValues("hierarchy")), "delivered next tick")
	bus.SwapBuffers()
	bus.DispatchAll()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.EdgesTotal.WithLabelValues("hierarchy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.SeveredTotal.WithLabelValues("physics")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.AbortedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.GroupJoinedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.GroupLeftTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ActivationsTotal.WithLabelValues("on")))
}

func TestObserveAndCommand(t *testing.T) {
	c := NewCollectors(prometheus.NewRegistry())
	c.Observe(weld.Stats{Entities: 5, Edges: 3, Groups: 2, Constraints: 1})
	c.Command("weld", nil)
	c.Command("weld", errors.New("mismatch"))
	c.Command("weld", nil)

	assert.Equal(t, 5.0, testutil.ToFloat64(c.Entities))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.Edges))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.Groups))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Constraints))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.CommandsTotal.WithLabelValues("weld", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.CommandsTotal.WithLabelValues("weld", "error")))
}

func TestDoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollectors(reg)
	assert.Panics(t, func() { NewCollectors(reg) })
}
