package weld

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCheckInvariantsCleanGraph(t *testing.T) {
	f := newFixture(t, 8)
	a := f.spawn(t, ModeBoth)
	b := f.spawn(t, ModeBoth)
	f.finder.touch(a, b)
	require.NoError(t, f.eng.Weld(a, MechanismPhysics).Err)
	assert.NoError(t, f.eng.CheckInvariants())
}

func TestCheckInvariantsRepairsHalfEdge(t *testing.T) {
	f := newFixture(t, 8)
	a := f.spawn(t, ModeBoth)
	b := f.spawn(t, ModeBoth)
	f.eng.graph.link(a, b)

	err := f.eng.CheckInvariants()
	assert.ErrorIs(t, err, ErrAsymmetricConnection)
	assert.Empty(t, f.eng.graph.Asymmetries())
	assert.False(t, f.eng.IsConnected(a, b))
	assert.NoError(t, f.eng.CheckInvariants())
}

func TestCheckInvariantsPanicsInDebug(t *testing.T) {
	f := newFixture(t, 8)
	f.eng.cfg.Debug = true
	f.eng.log = zap.NewExample(zap.Development())
	a := f.spawn(t, ModeBoth)
	b := f.spawn(t, ModeBoth)
	f.eng.graph.link(b, a)

	assert.Panics(t, func() { _ = f.eng.CheckInvariants() })
	// the lock is released on the way out
	assert.False(t, f.eng.IsConnected(a, b))
}

func TestCheckInvariantsClearsStaleTag(t *testing.T) {
	f := newFixture(t, 8)
	a := f.spawn(t, ModeBoth)
	w, ok := f.eng.reg.Get(a)
	require.True(t, ok)
	w.Mechanism = MechanismPhysics

	assert.ErrorIs(t, f.eng.CheckInvariants(), ErrMechanismMismatch)
	m, _ := f.eng.MechanismOf(a)
	assert.Equal(t, MechanismUndefined, m)
}

func TestCheckInvariantsReportsMixedGroup(t *testing.T) {
	f := newFixture(t, 8)
	a := f.spawn(t, ModeBoth)
	b := f.spawn(t, ModeBoth)
	f.finder.touch(a, b)
	require.NoError(t, f.eng.Weld(a, MechanismHierarchy).Err)
	w, _ := f.eng.reg.Get(b)
	w.Mechanism = MechanismPhysics

	assert.ErrorIs(t, f.eng.CheckInvariants(), ErrMechanismMismatch)
}

func TestCheckInvariantsDropsEdgesToUnregistered(t *testing.T) {
	f := newFixture(t, 8)
	a := f.spawn(t, ModeBoth)
	ghost := f.world.CreateEntity()
	_, err := f.eng.graph.AddEdge(a, ghost)
	require.NoError(t, err)

	assert.ErrorIs(t, f.eng.CheckInvariants(), ErrAsymmetricConnection)
	assert.Empty(t, f.eng.Neighbors(a))
}
