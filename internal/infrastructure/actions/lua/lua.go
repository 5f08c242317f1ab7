// Package lua runs action scripts written in Lua. Scripts declare a global
// "action" table and an execute() function, and may define
// execute_with_config(config, request) to receive the current settings.
//
// Top-level code runs on every discovery pass, so lcfg.register_env is
// refused there and only works inside the entry points.
//
//	action = { id = "HelloAction", label = "Hello", order = 10, families = { "local_config" } }
//
//	function execute_with_config(config, request)
//	  lcfg.register_env("GREETING", request.action_data)
//	  return "done"
//	end
package lua

import (
	"context"
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"

	"localconfig.dev/cli/internal/core/actions"
	"localconfig.dev/cli/internal/infrastructure/actions/scripts"
)

const (
	fnExecute           = "execute"
	fnExecuteWithConfig = "execute_with_config"
)

// Loader loads action_*.lua scripts
type Loader struct {
	host scripts.Host
}

// NewLoader creates a loader whose scripts can use host
func NewLoader(host scripts.Host) *Loader {
	return &Loader{host: host}
}

// Extension returns ".lua"
func (l *Loader) Extension() string {
	return ".lua"
}

// Load runs the script once to read its metadata
func (l *Loader) Load(ctx context.Context, path string) (actions.Action, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	L := l.newState(ctx, path, true)
	defer L.Close()

	if err := doString(L, string(code)); err != nil {
		return nil, fmt.Errorf("failed to load script: %w", err)
	}

	table, ok := L.GetGlobal("action").(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("script does not declare an action table")
	}
	if _, ok := L.GetGlobal(fnExecute).(*lua.LFunction); !ok {
		return nil, fmt.Errorf("script does not define %s()", fnExecute)
	}
	_, acceptsConfig := L.GetGlobal(fnExecuteWithConfig).(*lua.LFunction)

	md, _ := toGo(table).(map[string]interface{})
	desc := scripts.FromMap(md).Descriptor(path, acceptsConfig)

	return &ScriptAction{loader: l, desc: desc, path: path, code: string(code)}, nil
}

// newState creates a state with only the base, table, string and math
// libraries and the lcfg host module. A loading state refuses host calls
// that change the environment.
func (l *Loader) newState(ctx context.Context, path string, loading bool) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// No file or module loading from scripts
	L.SetGlobal("dofile", lua.LNil)
	L.SetGlobal("loadfile", lua.LNil)

	host := L.NewTable()
	L.SetFuncs(host, map[string]lua.LGFunction{
		"register_env": func(L *lua.LState) int {
			if loading {
				L.RaiseError("lcfg.register_env is not allowed at load time")
				return 0
			}
			if err := l.host.RegisterEnv(L.CheckString(1), L.CheckString(2)); err != nil {
				L.RaiseError("%v", err)
			}
			return 0
		},
		"getenv": func(L *lua.LState) int {
			L.Push(lua.LString(os.Getenv(L.CheckString(1))))
			return 1
		},
		"log": func(L *lua.LState) int {
			l.host.Log(path, L.CheckString(1))
			return 0
		},
	})
	L.SetGlobal("lcfg", host)

	if ctx != nil {
		L.SetContext(ctx)
	}
	return L
}

func doString(L *lua.LState, code string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return L.DoString(code)
}

// ScriptAction is an action backed by a Lua script
type ScriptAction struct {
	loader *Loader
	desc   actions.Descriptor
	path   string
	code   string
}

func (a *ScriptAction) Descriptor() actions.Descriptor {
	return a.desc
}

// Execute calls execute()
func (a *ScriptAction) Execute(ctx context.Context) (actions.Result, error) {
	return a.call(ctx, fnExecute)
}

// ExecuteWithConfig calls execute_with_config(config, request)
func (a *ScriptAction) ExecuteWithConfig(ctx context.Context, req actions.Request) (actions.Result, error) {
	return a.call(ctx, fnExecuteWithConfig, scripts.ConfigMap(req.Config), scripts.RequestMap(req))
}

func (a *ScriptAction) call(ctx context.Context, fn string, args ...interface{}) (result actions.Result, err error) {
	L := a.loader.newState(ctx, a.path, false)
	defer L.Close()

	if err := doString(L, a.code); err != nil {
		return actions.Result{}, fmt.Errorf("failed to load script: %w", err)
	}

	function, ok := L.GetGlobal(fn).(*lua.LFunction)
	if !ok {
		return actions.Result{}, fmt.Errorf("script does not define %s()", fn)
	}

	luaArgs := make([]lua.LValue, 0, len(args))
	for _, arg := range args {
		luaArgs = append(luaArgs, toLua(L, arg))
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	if err := L.CallByParam(lua.P{Fn: function, NRet: 1, Protect: true}, luaArgs...); err != nil {
		return actions.Result{}, err
	}

	ret := L.Get(-1)
	L.Pop(1)
	return scripts.ResultFrom(toGo(ret)), nil
}
