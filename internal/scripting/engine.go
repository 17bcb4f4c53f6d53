package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/physbox/sandbox/internal/core/ecs"
	"github.com/physbox/sandbox/internal/weld"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// ErrScriptPath rejects script names that leave the scripts directory.
var ErrScriptPath = errors.New("script path outside scripts dir")

// Host answers the questions scripts may ask about the sandbox.
type Host interface {
	NameOf(id ecs.EntityID) string
	GroupSize(id ecs.EntityID) int
}

// HostFuncs adapts plain functions to Host.
type HostFuncs struct {
	Name  func(ecs.EntityID) string
	Group func(ecs.EntityID) int
}

func (h HostFuncs) NameOf(id ecs.EntityID) string {
	if h.Name == nil {
		return id.String()
	}
	return h.Name(id)
}

func (h HostFuncs) GroupSize(id ecs.EntityID) int {
	if h.Group == nil {
		return 1
	}
	return h.Group(id)
}

// Engine wraps a single gopher-lua VM running weld listener scripts.
// Single-goroutine access only (game loop).
type Engine struct {
	vm      *lua.LState
	dir     string
	host    Host
	modules map[string]*lua.LTable
	calls   int
	log     *zap.Logger
}

// NewEngine creates a Lua engine and loads the shared helpers under
// scriptsDir/lib. Listener scripts are loaded lazily by Listener.
func NewEngine(scriptsDir string, host Host, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{
		vm:      vm,
		dir:     scriptsDir,
		host:    host,
		modules: make(map[string]*lua.LTable),
		log:     log,
	}

	api := vm.NewTable()
	api.RawSetString("log", vm.NewFunction(e.luaLog))
	vm.SetGlobal("weld", api)

	if err := e.loadDir(filepath.Join(scriptsDir, "lib")); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load lib scripts: %w", err)
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// module runs a listener script once and caches the table it returns.
func (e *Engine) module(script string) (*lua.LTable, error) {
	if t, ok := e.modules[script]; ok {
		return t, nil
	}
	if !filepath.IsLocal(script) {
		return nil, fmt.Errorf("load %q: %w", script, ErrScriptPath)
	}
	path := filepath.Join(e.dir, script)
	top := e.vm.GetTop()
	if err := e.vm.DoFile(path); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if e.vm.GetTop() == top {
		return nil, fmt.Errorf("load %s: script returned nothing", path)
	}
	ret := e.vm.Get(-1)
	e.vm.SetTop(top)
	t, ok := ret.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("load %s: script returned %s, want table", path, ret.Type())
	}
	e.modules[script] = t
	e.log.Debug("loaded lua listener", zap.String("file", path))
	return t, nil
}

// Listener binds script to entity id. The script returns a table whose
// on_added, on_removed, on_joined_group and on_left_group fields are called
// with an event table; missing fields are skipped.
func (e *Engine) Listener(id ecs.EntityID, script string) (weld.Listener, error) {
	mod, err := e.module(script)
	if err != nil {
		return nil, err
	}
	return &luaListener{e: e, id: id, script: script, mod: mod}, nil
}

// Calls returns how many script callbacks ran.
func (e *Engine) Calls() int { return e.calls }

func (e *Engine) Close() {
	e.vm.Close()
}

func (e *Engine) luaLog(L *lua.LState) int {
	msg := L.CheckString(1)
	e.log.Info("lua", zap.String("msg", msg))
	return 0
}

func (e *Engine) call(l *luaListener, fnName string, n weld.Notice) {
	fn := l.mod.RawGetString(fnName)
	if fn == lua.LNil {
		return
	}
	ev := e.vm.NewTable()
	ev.RawSetString("kind", lua.LString(fnName))
	ev.RawSetString("self", lua.LString(e.host.NameOf(l.id)))
	ev.RawSetString("root", lua.LString(e.host.NameOf(n.Root)))
	ev.RawSetString("member", lua.LString(e.host.NameOf(n.Member)))
	ev.RawSetString("group_size", lua.LNumber(e.host.GroupSize(n.Root)))

	e.calls++
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, l.mod, ev); err != nil {
		e.log.Error("lua listener error",
			zap.String("script", l.script),
			zap.String("callback", fnName),
			zap.Error(err),
		)
	}
}

type luaListener struct {
	e      *Engine
	id     ecs.EntityID
	script string
	mod    *lua.LTable
}

func (l *luaListener) OnAddedToStructure(n weld.Notice)     { l.e.call(l, "on_added", n) }
func (l *luaListener) OnRemovedFromStructure(n weld.Notice) { l.e.call(l, "on_removed", n) }
func (l *luaListener) OnJoinedGroup(n weld.Notice)          { l.e.call(l, "on_joined_group", n) }
func (l *luaListener) OnLeftGroup(n weld.Notice)            { l.e.call(l, "on_left_group", n) }
