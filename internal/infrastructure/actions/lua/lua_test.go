package lua

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localconfig.dev/cli/internal/core/actions"
	"localconfig.dev/cli/internal/core/settings"
	"localconfig.dev/cli/internal/infrastructure/actions/scripts"
	"localconfig.dev/cli/internal/infrastructure/logging"
)

type memoryEnv struct {
	vars map[string]string
}

func (m *memoryEnv) Register(name, value string) error { m.vars[name] = value; return nil }
func (m *memoryEnv) Unregister(name string) error { delete(m.vars, name); return nil }
func (m *memoryEnv) Get(name string) (string, bool) { v, ok := m.vars[name]; return v, ok }
func (m *memoryEnv) List() (map[string]string, error) { return m.vars, nil }
func (m *memoryEnv) Restore() (int, error) { return len(m.vars), nil }

func writeScript(t *testing.T, dir, name, code string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(code), 0644))
	return path
}

func TestLoader_LoadAndExecuteWithConfig(t *testing.T) {
	env := &memoryEnv{vars: map[string]string{}}
	loader := NewLoader(scripts.Host{Env: env, Logger: logging.NewNop()})

	path := writeScript(t, t.TempDir(), "action_set_root.lua", `
action = { label = "Set Root", color = "#123456", order = 5, families = { "local_config" } }

function execute()
  return "plain"
end

function execute_with_config(config, request)
  lcfg.register_env(request.action_data, config.general.project_root)
  lcfg.log("registered")
  return { message = "ok", workers = config.general.workers }
end
`)

	action, err := loader.Load(context.Background(), path)
	require.NoError(t, err)

	desc := action.Descriptor()
	assert.Equal(t, "SetRootAction", desc.ID, "id should default from the file name")
	assert.Equal(t, "Set Root", desc.Label)
	assert.Equal(t, 5, desc.Order)
	assert.True(t, desc.Has(actions.TagLocalConfig))
	assert.True(t, desc.Has(actions.CapabilityConfigContext))
	assert.Equal(t, path, desc.Source)

	aware, ok := action.(actions.ConfigAwareAction)
	require.True(t, ok)

	result, err := aware.ExecuteWithConfig(context.Background(), actions.Request{
		Config:     settings.Values{"general": {"project_root": "/data/proj", "workers": int64(4)}},
		ActionData: "PROJECT_ROOT",
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Message)
	assert.Equal(t, int64(4), result.Data["workers"])
	assert.Equal(t, "/data/proj", env.vars["PROJECT_ROOT"])

	result, err = action.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "plain", result.Message)
}

func TestLoader_RejectsInvalidScripts(t *testing.T) {
	loader := NewLoader(scripts.Host{Logger: logging.NewNop()})
	dir := t.TempDir()

	tests := []struct {
		name   string
		code   string
		errMsg string
	}{
		{name: "SyntaxError", code: "action = {", errMsg: "failed to load script"},
		{name: "NoActionTable", code: "function execute() end", errMsg: "action table"},
		{name: "NoExecute", code: `action = { id = "X" }`, errMsg: "execute()"},
		{name: "NoSandboxEscape", code: `os.execute("true")`, errMsg: "failed to load script"},
		{name: "EnvAtLoadTime", code: "lcfg.register_env(\"X\", \"1\")\naction = {}\nfunction execute() end", errMsg: "not allowed at load time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScript(t, dir, "action_"+tt.name+".lua", tt.code)
			_, err := loader.Load(context.Background(), path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestScriptAction_ErrorsAreReturned(t *testing.T) {
	loader := NewLoader(scripts.Host{Logger: logging.NewNop()})
	path := writeScript(t, t.TempDir(), "action_fail.lua", `
action = { id = "FailAction", families = { "local_config" } }
function execute() error("nope") end
`)

	action, err := loader.Load(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, action.Descriptor().Has(actions.CapabilityConfigContext))

	_, err = action.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestScriptAction_CancelledContext(t *testing.T) {
	loader := NewLoader(scripts.Host{Logger: logging.NewNop()})
	path := writeScript(t, t.TempDir(), "action_loop.lua", `
action = { id = "LoopAction" }
function execute() while true do end end
`)

	action, err := loader.Load(context.Background(), path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = action.Execute(ctx)
	assert.Error(t, err)
}
