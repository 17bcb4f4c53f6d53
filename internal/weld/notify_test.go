package weld

import (
	"testing"

	"github.com/physbox/sandbox/internal/core/ecs"
	"github.com/physbox/sandbox/internal/core/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestScopeStopsAtNestedWeldables(t *testing.T) {
	world := ecs.NewWorld()
	reg := NewRegistry(world)
	tree := newFakeTree()

	outer := world.CreateEntity()
	part := world.CreateEntity()
	inner := world.CreateEntity()
	innerPart := world.CreateEntity()
	require.NoError(t, reg.Add(outer, ModeBoth))
	require.NoError(t, reg.Add(inner, ModeBoth))
	require.NoError(t, tree.Reparent(part, outer, true))
	require.NoError(t, tree.Reparent(inner, outer, true))
	require.NoError(t, tree.Reparent(innerPart, inner, true))

	d := NewDispatcher(reg, tree, nil, zap.NewNop())
	assert.Equal(t, []ecs.EntityID{outer, part}, d.Scope(outer))
	assert.Equal(t, []ecs.EntityID{inner, innerPart}, d.Scope(inner))
}

func TestNotifyReachesPlainDescendants(t *testing.T) {
	world := ecs.NewWorld()
	reg := NewRegistry(world)
	tree := newFakeTree()
	bus := event.NewBus()

	root := world.CreateEntity()
	lamp := world.CreateEntity()
	require.NoError(t, reg.Add(root, ModeBoth))
	require.NoError(t, tree.Reparent(lamp, root, true))

	rec := newRecorder()
	reg.AddListener(lamp, rec.listener())

	d := NewDispatcher(reg, tree, bus, zap.NewNop())
	d.NotifyWeld(root, true)
	d.NotifyWeld(root, false)
	d.NotifyUnweld(root, true)

	c := rec.of(lamp)
	assert.Equal(t, counts{added: 2, joined: 1, removed: 1, left: 1}, *c)

	var joined []event.GroupJoined
	var left []event.GroupLeft
	event.Subscribe(bus, func(e event.GroupJoined) { joined = append(joined, e) })
	event.Subscribe(bus, func(e event.GroupLeft) { left = append(left, e) })
	bus.SwapBuffers()
	bus.DispatchAll()
	assert.Equal(t, []event.GroupJoined{{Entity: root}}, joined)
	assert.Equal(t, []event.GroupLeft{{Entity: root}}, left)
}

func TestPanickingListenerDoesNotStopOthers(t *testing.T) {
	world := ecs.NewWorld()
	reg := NewRegistry(world)
	root := world.CreateEntity()
	require.NoError(t, reg.Add(root, ModeBoth))

	reg.AddListener(root, ListenerFuncs{Joined: func(Notice) { panic("boom") }})
	rec := newRecorder()
	reg.AddListener(root, rec.listener())

	d := NewDispatcher(reg, nil, nil, zap.NewNop())
	assert.NotPanics(t, func() { d.NotifyWeld(root, true) })
	assert.Equal(t, 1, rec.of(root).joined)
}

func TestListenerFuncsIgnoresNilHooks(t *testing.T) {
	var l Listener = ListenerFuncs{}
	assert.NotPanics(t, func() {
		l.OnAddedToStructure(Notice{})
		l.OnRemovedFromStructure(Notice{})
		l.OnJoinedGroup(Notice{})
		l.OnLeftGroup(Notice{})
	})
}
