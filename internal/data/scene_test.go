package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleScene = `
name: tiny
objects:
  - name: a
    center: [0, 0, 0]
    size: [1, 1, 1]
  - name: b
    center: [1, 0, 0]
    size: [1, 1, 1]
    parent: a
    mode: receive
    weld: false
frames:
  - {frame: 3, op: unweld, target: a}
  - {frame: 1, op: weld, target: a, mechanism: physics}
  - {frame: 1, op: toggle, target: b}
`

func TestParseScene(t *testing.T) {
	s, err := ParseScene([]byte(sampleScene))
	require.NoError(t, err)

	assert.Equal(t, "tiny", s.Name)
	assert.Equal(t, 2, s.Count())
	assert.True(t, s.Objects[0].Weldable())
	assert.False(t, s.Objects[1].Weldable())
	assert.Equal(t, [3]float64{1, 0, 0}, s.Objects[1].Center)

	ops := s.FrameOps(1)
	require.Len(t, ops, 2)
	assert.Equal(t, OpWeld, ops[0].Op, "file order kept within a frame")
	assert.Equal(t, "physics", ops[0].Mechanism)
	assert.Equal(t, OpToggle, ops[1].Op)
	assert.Empty(t, s.FrameOps(2))
	assert.Equal(t, 3, s.LastFrame())
}

func TestParseSceneValidation(t *testing.T) {
	cases := map[string]string{
		"duplicate name": `
objects:
  - {name: a}
  - {name: a}`,
		"unknown parent": `
objects:
  - {name: a, parent: ghost}`,
		"bad mode": `
objects:
  - {name: a, mode: sticky}`,
		"unknown op": `
objects:
  - {name: a}
frames:
  - {frame: 1, op: explode, target: a}`,
		"unknown target": `
objects:
  - {name: a}
frames:
  - {frame: 1, op: weld, target: b}`,
		"bad mechanism": `
objects:
  - {name: a}
frames:
  - {frame: 1, op: weld, target: a, mechanism: glue}`,
		"frame zero": `
objects:
  - {name: a}
frames:
  - {frame: 0, op: toggle, target: a}`,
		"negative size": `
objects:
  - {name: a, size: [1, -1, 1]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseScene([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestLoadScene(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleScene), 0o644))

	s, err := LoadScene(path)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Count())

	_, err = LoadScene(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDemoSceneLoads(t *testing.T) {
	s, err := LoadScene(filepath.Join("..", "..", "data", "yaml", "demo_scene.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "demo", s.Name)
	assert.Equal(t, 9, s.LastFrame())
}
