// Package scripting hosts the gopher-lua isolate. Scripts run at startup to
// create and queue type registrations, and install event handlers that the
// engine later invokes synchronously through the dispatch table. Every entry
// into the VM passes the call gate mutex: gopher-lua states are not
// goroutine-safe, and the gate is what makes a dispatch round-trip from the
// engine thread block until the script returns.
package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/redforge/server/internal/bridge"
	"github.com/redforge/server/internal/dispatch"
	"github.com/redforge/server/internal/proxy"
)

// apiVersion is bumped whenever the bridge module surface changes shape.
const apiVersion = 1

// Engine wraps one Lua VM plus its view of the registration layer.
type Engine struct {
	log   *zap.Logger
	ctx   *proxy.Context
	queue *proxy.Queue
	table *dispatch.Table

	// mu is the call gate: script loading and every dispatched handler
	// invocation hold it for the duration of the Lua call.
	mu sync.Mutex
	vm *lua.LState

	commandFns map[bridge.Handle]*lua.LFunction
}

// NewEngine creates the isolate, installs the bridge module, and loads all
// scripts from scriptsDir: core/ first, then the content subdirectories in a
// fixed order so load order never depends on the filesystem.
func NewEngine(scriptsDir string, ctx *proxy.Context, queue *proxy.Queue, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(apiVersion))

	e := &Engine{
		log:        log,
		ctx:        ctx,
		queue:      queue,
		table:      ctx.Dispatch(),
		vm:         vm,
		commandFns: make(map[bridge.Handle]*lua.LFunction),
	}
	vm.PreloadModule("bridge", e.bridgeLoader)
	e.installCommandDispatch()

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, sub := range []string{"core", "blocks", "items", "entities", "behaviors", "commands"} {
		if err := e.loadDir(filepath.Join(scriptsDir, sub)); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return e, nil
}

// loadDir loads all .lua files in a directory. Missing directories are
// skipped. Caller holds mu.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
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

// installCommandDispatch wires the single command-execute slot to the
// per-handle Lua functions captured by bridge.register_command.
func (e *Engine) installCommandDispatch() {
	e.table.InstallCommandExecute(func(h bridge.Handle, playerID int64, argsJSON string) int {
		e.mu.Lock()
		defer e.mu.Unlock()
		fn := e.commandFns[h]
		if fn == nil {
			return 0
		}
		args, err := jsonToLua(e.vm, argsJSON)
		if err != nil {
			e.log.Error("bad command args payload", zap.Error(err))
			return 0
		}
		v, err := e.call(fn, 1, lua.LNumber(playerID), args)
		if err != nil {
			e.log.Error("lua command handler error", zap.Error(err))
			return 0
		}
		return int(lua.LVAsNumber(v))
	})
}

// call invokes fn with nret expected results. Caller holds mu. Returns the
// first result, or LNil when nret is 0.
func (e *Engine) call(fn *lua.LFunction, nret int, args ...lua.LValue) (lua.LValue, error) {
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    nret,
		Protect: true,
	}, args...); err != nil {
		return lua.LNil, err
	}
	if nret == 0 {
		return lua.LNil, nil
	}
	v := e.vm.Get(-1)
	e.vm.Pop(nret)
	return v, nil
}

// callBool runs fn under the gate; a missing handler or runtime error yields
// the declared default, never a crash.
func (e *Engine) callBool(fn *lua.LFunction, kind string, def bool, args ...lua.LValue) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, err := e.call(fn, 1, args...)
	if err != nil {
		e.log.Error("lua handler error", zap.String("kind", kind), zap.Error(err))
		return def
	}
	return v == lua.LTrue
}

func (e *Engine) callVoid(fn *lua.LFunction, kind string, args ...lua.LValue) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.call(fn, 0, args...); err != nil {
		e.log.Error("lua handler error", zap.String("kind", kind), zap.Error(err))
	}
}

// callAction maps a handler's string result onto an ActionResult; anything
// unrecognized (including errors) degrades to Pass.
func (e *Engine) callAction(fn *lua.LFunction, kind string, args ...lua.LValue) dispatch.ActionResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, err := e.call(fn, 1, args...)
	if err != nil {
		e.log.Error("lua handler error", zap.String("kind", kind), zap.Error(err))
		return dispatch.Pass
	}
	switch lua.LVAsString(v) {
	case "success":
		return dispatch.Success
	case "consume":
		return dispatch.Consume
	case "fail":
		return dispatch.Fail
	default:
		return dispatch.Pass
	}
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vm.Close()
}
