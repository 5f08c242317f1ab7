// Package js runs action scripts written in JavaScript on goja. Scripts
// declare a global "action" object and an execute() function, and may define
// executeWithConfig(config, request).
//
// Top-level code runs on every discovery pass, so lcfg.registerEnv throws
// there and only works inside the entry points.
package js

import (
	"context"
	"fmt"
	"os"

	"github.com/dop251/goja"

	"localconfig.dev/cli/internal/core/actions"
	"localconfig.dev/cli/internal/infrastructure/actions/scripts"
)

const (
	fnExecute           = "execute"
	fnExecuteWithConfig = "executeWithConfig"
)

// Loader loads action_*.js scripts
type Loader struct {
	host scripts.Host
}

// NewLoader creates a loader whose scripts can use host
func NewLoader(host scripts.Host) *Loader {
	return &Loader{host: host}
}

// Extension returns ".js"
func (l *Loader) Extension() string {
	return ".js"
}

// Load compiles the script and runs it once to read its metadata
func (l *Loader) Load(ctx context.Context, path string) (actions.Action, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	program, err := goja.Compile(path, string(code), false)
	if err != nil {
		return nil, fmt.Errorf("failed to compile script: %w", err)
	}

	vm, stop := l.newRuntime(ctx, path, true)
	defer stop()

	if _, err := vm.RunProgram(program); err != nil {
		return nil, fmt.Errorf("failed to load script: %w", err)
	}

	meta := vm.Get("action")
	if meta == nil || goja.IsUndefined(meta) || goja.IsNull(meta) {
		return nil, fmt.Errorf("script does not declare an action object")
	}
	md, ok := meta.Export().(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("action must be an object")
	}
	if _, ok := goja.AssertFunction(vm.Get(fnExecute)); !ok {
		return nil, fmt.Errorf("script does not define %s()", fnExecute)
	}
	_, acceptsConfig := goja.AssertFunction(vm.Get(fnExecuteWithConfig))

	desc := scripts.FromMap(md).Descriptor(path, acceptsConfig)
	return &ScriptAction{loader: l, desc: desc, path: path, program: program}, nil
}

// newRuntime creates a runtime with the lcfg host object. stop releases
// the goroutine interrupting the runtime when ctx is done. A loading runtime
// refuses host calls that change the environment.
func (l *Loader) newRuntime(ctx context.Context, path string, loading bool) (*goja.Runtime, func()) {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

	vm.Set("lcfg", map[string]interface{}{
		"registerEnv": func(name, value string) {
			if loading {
				panic(vm.NewGoError(fmt.Errorf("lcfg.registerEnv is not allowed at load time")))
			}
			if err := l.host.RegisterEnv(name, value); err != nil {
				panic(vm.NewGoError(err))
			}
		},
		"getenv": os.Getenv,
		"log": func(message string) {
			l.host.Log(path, message)
		},
	})

	done := make(chan struct{})
	if ctx != nil {
		go func() {
			select {
			case <-ctx.Done():
				vm.Interrupt(ctx.Err())
			case <-done:
			}
		}()
	}
	return vm, func() { close(done) }
}

// ScriptAction is an action backed by a JavaScript program
type ScriptAction struct {
	loader  *Loader
	desc    actions.Descriptor
	path    string
	program *goja.Program
}

func (a *ScriptAction) Descriptor() actions.Descriptor {
	return a.desc
}

// Execute calls execute()
func (a *ScriptAction) Execute(ctx context.Context) (actions.Result, error) {
	return a.call(ctx, fnExecute)
}

// ExecuteWithConfig calls executeWithConfig(config, request)
func (a *ScriptAction) ExecuteWithConfig(ctx context.Context, req actions.Request) (actions.Result, error) {
	return a.call(ctx, fnExecuteWithConfig, scripts.ConfigMap(req.Config), scripts.RequestMap(req))
}

func (a *ScriptAction) call(ctx context.Context, fn string, args ...interface{}) (actions.Result, error) {
	vm, stop := a.loader.newRuntime(ctx, a.path, false)
	defer stop()

	if _, err := vm.RunProgram(a.program); err != nil {
		return actions.Result{}, fmt.Errorf("failed to load script: %w", err)
	}

	callable, ok := goja.AssertFunction(vm.Get(fn))
	if !ok {
		return actions.Result{}, fmt.Errorf("script does not define %s()", fn)
	}

	jsArgs := make([]goja.Value, 0, len(args))
	for _, arg := range args {
		jsArgs = append(jsArgs, vm.ToValue(arg))
	}

	value, err := callable(goja.Undefined(), jsArgs...)
	if err != nil {
		return actions.Result{}, err
	}
	return scripts.ResultFrom(value.Export()), nil
}
