package metrics

import (
	"github.com/physbox/sandbox/internal/core/event"
	"github.com/physbox/sandbox/internal/weld"
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors are the sandbox's Prometheus metrics.
type Collectors struct {
	EdgesTotal       *prometheus.CounterVec
	SeveredTotal     *prometheus.CounterVec
	AbortedTotal     prometheus.Counter
	GroupJoinedTotal prometheus.Counter
	GroupLeftTotal   prometheus.Counter
	ActivationsTotal *prometheus.CounterVec
	CommandsTotal    *prometheus.CounterVec
	Ticks            prometheus.Counter

	Entities    prometheus.Gauge
	Edges       prometheus.Gauge
	Groups      prometheus.Gauge
	Constraints prometheus.Gauge
}

// NewCollectors creates the collectors and registers them with reg.
func NewCollectors(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		EdgesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weld_edges_committed_total",
				Help: "Weld edges committed, by mechanism",
			},
			[]string{"mechanism"},
		),
		SeveredTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weld_edges_severed_total",
				Help: "Weld edges removed, by mechanism",
			},
			[]string{"mechanism"},
		),
		AbortedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "weld_aborted_total",
			Help: "Weld calls stopped by an error",
		}),
		GroupJoinedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "weld_group_joined_total",
			Help: "Entities that went from isolated to grouped",
		}),
		GroupLeftTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "weld_group_left_total",
			Help: "Entities that went from grouped to isolated",
		}),
		ActivationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sandbox_activations_total",
				Help: "Switch broadcasts, by resulting state",
			},
			[]string{"state"},
		),
		CommandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sandbox_commands_total",
				Help: "Input commands handled, by op and result",
			},
			[]string{"op", "result"},
		),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sandbox_ticks_total",
			Help: "Simulation ticks run",
		}),
		Entities: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "weld_entities",
			Help: "Registered weldable entities",
		}),
		Edges: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "weld_edges",
			Help: "Current weld edges",
		}),
		Groups: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "weld_groups",
			Help: "Current weld groups of two or more entities",
		}),
		Constraints: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "weld_constraints",
			Help: "Live physics constraints owned by welds",
		}),
	}
	reg.MustRegister(
		c.EdgesTotal, c.SeveredTotal, c.AbortedTotal,
		c.GroupJoinedTotal, c.GroupLeftTotal,
		c.ActivationsTotal, c.CommandsTotal, c.Ticks,
		c.Entities, c.Edges, c.Groups, c.Constraints,
	)
	return c
}

// Subscribe counts the diagnostic events published on bus.
func (c *Collectors) Subscribe(bus *event.Bus) {
	event.Subscribe(bus, func(e event.EdgeCommitted) {
		c.EdgesTotal.WithLabelValues(e.Mechanism).Inc()
	})
	event.Subscribe(bus, func(e event.EdgeSevered) {
		c.SeveredTotal.WithLabelValues(e.Mechanism).Inc()
	})
	event.Subscribe(bus, func(event.WeldAborted) { c.AbortedTotal.Inc() })
	event.Subscribe(bus, func(event.GroupJoined) { c.GroupJoinedTotal.Inc() })
	event.Subscribe(bus, func(event.GroupLeft) { c.GroupLeftTotal.Inc() })
	event.Subscribe(bus, func(e event.Activation) {
		state := "off"
		if e.On {
			state = "on"
		}
		c.ActivationsTotal.WithLabelValues(state).Inc()
	})
}

// Observe sets the gauges from an engine snapshot.
func (c *Collectors) Observe(s weld.Stats) {
	c.Entities.Set(float64(s.Entities))
	c.Edges.Set(float64(s.Edges))
	c.Groups.Set(float64(s.Groups))
	c.Constraints.Set(float64(s.Constraints))
}

// Command records the outcome of one input command.
func (c *Collectors) Command(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.CommandsTotal.WithLabelValues(op, result).Inc()
}
