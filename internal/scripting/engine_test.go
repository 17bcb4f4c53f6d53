package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/physbox/sandbox/internal/core/ecs"
	"github.com/physbox/sandbox/internal/weld"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

const recorderScript = `
seen = seen or {}
local M = {}
function M:on_joined_group(ev)
  table.insert(seen, prefix() .. ev.kind .. ":" .. ev.self .. ":" .. ev.root .. ":" .. ev.group_size)
end
function M:on_left_group(ev)
  table.insert(seen, prefix() .. ev.kind .. ":" .. ev.member)
end
function M:on_added(ev)
  error("boom")
end
return M
`

func writeScripts(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return dir
}

func testHost() Host {
	return HostFuncs{
		Name:  func(id ecs.EntityID) string { return "obj" + id.String() },
		Group: func(ecs.EntityID) int { return 3 },
	}
}

func seen(e *Engine) []string {
	var out []string
	if t, ok := e.vm.GetGlobal("seen").(*lua.LTable); ok {
		t.ForEach(func(_, v lua.LValue) { out = append(out, v.String()) })
	}
	return out
}

func TestListenerCallsScript(t *testing.T) {
	dir := writeScripts(t, map[string]string{
		"lib/prefix.lua": `function prefix() return "> " end`,
		"rec.lua":        recorderScript,
	})
	e, err := NewEngine(dir, testHost(), zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	id := ecs.NewEntityID(1, 0)
	l, err := e.Listener(id, "rec.lua")
	require.NoError(t, err)

	n := weld.Notice{Root: ecs.NewEntityID(2, 0), Member: id}
	l.OnJoinedGroup(n)
	l.OnLeftGroup(n)
	l.OnRemovedFromStructure(n) // not defined by the script

	assert.Equal(t, []string{
		"> on_joined_group:obj1:0:obj2:0:3",
		"> on_left_group:obj1:0",
	}, seen(e))
	assert.Equal(t, 2, e.Calls())
}

func TestScriptErrorIsContained(t *testing.T) {
	dir := writeScripts(t, map[string]string{
		"lib/prefix.lua": `function prefix() return "" end`,
		"rec.lua":        recorderScript,
	})
	e, err := NewEngine(dir, testHost(), zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	l, err := e.Listener(1, "rec.lua")
	require.NoError(t, err)
	assert.NotPanics(t, func() { l.OnAddedToStructure(weld.Notice{Root: 1, Member: 1}) })
	assert.Equal(t, 1, e.Calls())
}

func TestModuleIsLoadedOnce(t *testing.T) {
	dir := writeScripts(t, map[string]string{
		"count.lua": `loads = (loads or 0) + 1
return {}`,
	})
	e, err := NewEngine(dir, HostFuncs{}, zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	_, err = e.Listener(1, "count.lua")
	require.NoError(t, err)
	_, err = e.Listener(2, "count.lua")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(1), e.vm.GetGlobal("loads"))
}

func TestListenerScriptErrors(t *testing.T) {
	dir := writeScripts(t, map[string]string{
		"nothing.lua": `x = 1`,
		"number.lua":  `return 42`,
		"broken.lua":  `return {`,
	})
	e, err := NewEngine(dir, HostFuncs{}, zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	for _, name := range []string{"nothing.lua", "number.lua", "broken.lua", "missing.lua"} {
		_, err := e.Listener(1, name)
		assert.Error(t, err, name)
	}
}

func TestListenerStaysInsideScriptsDir(t *testing.T) {
	root := writeScripts(t, map[string]string{
		"outside.lua":       `return {}`,
		"scripts/ok.lua":    `return {}`,
		"scripts/sub/x.lua": `return {}`,
	})
	e, err := NewEngine(filepath.Join(root, "scripts"), HostFuncs{}, zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	for _, name := range []string{"../outside.lua", "sub/../../outside.lua", filepath.Join(root, "outside.lua"), ""} {
		_, err := e.Listener(1, name)
		assert.ErrorIs(t, err, ErrScriptPath, name)
	}
	_, err = e.Listener(1, "ok.lua")
	assert.NoError(t, err)
	_, err = e.Listener(1, "sub/x.lua")
	assert.NoError(t, err)
}

func TestBrokenLibFailsStartup(t *testing.T) {
	dir := writeScripts(t, map[string]string{"lib/bad.lua": `function (`})
	_, err := NewEngine(dir, HostFuncs{}, zap.NewNop())
	assert.Error(t, err)
}

func TestShippedScriptsLoad(t *testing.T) {
	e, err := NewEngine(filepath.Join("..", "..", "scripts"), HostFuncs{}, zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	for _, name := range []string{"group_logger.lua", "lamp.lua"} {
		l, err := e.Listener(1, name)
		require.NoError(t, err, name)
		l.OnJoinedGroup(weld.Notice{Root: 1, Member: 1})
		l.OnAddedToStructure(weld.Notice{Root: 1, Member: 1})
	}
	assert.Equal(t, 2, e.Calls(), "each shipped script implements one of the two")
}
