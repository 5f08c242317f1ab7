package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localconfig.dev/cli/internal/application/services"
	"localconfig.dev/cli/internal/core/actions"
	"localconfig.dev/cli/internal/core/settings"
	"localconfig.dev/cli/internal/infrastructure/actions/builtin"
	"localconfig.dev/cli/internal/infrastructure/config"
	"localconfig.dev/cli/internal/infrastructure/logging"
	"localconfig.dev/cli/internal/infrastructure/schema"
	"localconfig.dev/cli/internal/infrastructure/storage"
)

type memoryEnv struct {
	vars map[string]string
}

func (m *memoryEnv) Register(name, value string) error { m.vars[name] = value; return nil }
func (m *memoryEnv) Unregister(name string) error       { delete(m.vars, name); return nil }
func (m *memoryEnv) Get(name string) (string, bool)     { v, ok := m.vars[name]; return v, ok }
func (m *memoryEnv) List() (map[string]string, error)   { return m.vars, nil }
func (m *memoryEnv) Restore() (int, error)              { return len(m.vars), nil }

type testEnv struct {
	container *CLIContainer
	env       *memoryEnv
	opened    []string
	dir       string
}

func newTestContainer(t *testing.T, extra ...actions.Action) *testEnv {
	t.Helper()

	te := &testEnv{env: &memoryEnv{vars: map[string]string{}}, dir: t.TempDir()}
	logger := logging.NewNop()

	cfg := config.Default()
	cfg.SettingsPath = filepath.Join(te.dir, "settings", "localconfig.json")
	cfg.EnvRegistryPath = filepath.Join(te.dir, "settings", "env_variables.json")
	cfg.ActionDirs = nil

	store := storage.NewFileStore(cfg.SettingsPath, logger)
	opener := func(ctx context.Context, path string) error {
		te.opened = append(te.opened, path)
		return nil
	}

	source := actions.NewMultiSource(logger.Logger(),
		builtin.NewSource(builtin.Dependencies{Env: te.env, Logger: logger, Open: opener}),
		actions.StaticSource(extra),
	)
	registry := actions.NewRegistry(source)
	dispatcher := actions.NewDispatcher(registry)
	controller := services.NewSettingsController(store, dispatcher, logger)

	te.container = &CLIContainer{
		Config:     cfg,
		Logger:     logger,
		Controller: controller,
		Startup: services.NewStartupService(controller, te.env, logger, services.SettingAddress{
			GroupID: builtin.SandboxGroup, SettingID: builtin.SandboxSetting,
		}),
		Registry: registry,
		Store:    store,
		Env:      te.env,
		Schema:   schema.EmbeddedSource{},
	}
	return te
}

func (te *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand(te.container)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSetCommand_PersistsAndRunsChangeAction(t *testing.T) {
	te := newTestContainer(t)

	out, err := te.run(t, "set", "user_settings", "render_threads", "12")
	require.NoError(t, err)
	assert.Contains(t, out, "user_settings.render_threads = 12")
	assert.Equal(t, "12", te.env.vars["LOCAL_CONFIG_RENDER_THREADS"])

	stored := te.container.Store.Load(context.Background())
	assert.EqualValues(t, 12, stored["user_settings"]["render_threads"])

	out, err = te.run(t, "show", "user_settings")
	require.NoError(t, err)
	assert.Contains(t, out, "12")
}

func TestSetCommand_SavesWhenChangeActionFails(t *testing.T) {
	te := newTestContainer(t)
	missing := filepath.Join(te.dir, "no-such-renders")

	out, err := te.run(t, "set", "user_settings", "render_path", missing)
	require.Error(t, err)
	assert.True(t, errors.Is(err, actions.ErrActionExecution), err.Error())
	assert.Contains(t, err.Error(), "was saved")
	assert.Contains(t, out, "user_settings.render_path")

	stored := te.container.Store.Load(context.Background())
	assert.Equal(t, missing, stored["user_settings"]["render_path"])
	assert.NotContains(t, te.env.vars, builtin.RenderPathEnvVar)
}

func TestDefaultSchema_ActionsResolve(t *testing.T) {
	te := newTestContainer(t)
	ctx := context.Background()
	require.NoError(t, initializeSettings(ctx, te.container))

	found, err := te.container.Registry.Discover(ctx, actions.TagLocalConfig)
	require.NoError(t, err)
	counts := map[string]int{}
	for _, a := range found {
		counts[a.Descriptor().ID]++
	}

	for _, group := range te.container.Controller.Schema().Groups {
		for _, s := range group.Settings {
			if s.ActionID == "" {
				continue
			}
			assert.Equal(t, 1, counts[s.ActionID], "%s.%s -> %s", group.ID, s.ID, s.ActionID)
		}
	}
}

func TestSetCommand_Rejections(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "EnumOutsideOptions", args: []string{"set", "user_settings", "log_level", "loud"}},
		{name: "SpinboxNotANumber", args: []string{"set", "user_settings", "render_threads", "many"}},
		{name: "SpinboxOutOfRange", args: []string{"set", "user_settings", "render_threads", "500"}},
		{name: "BooleanGarbage", args: []string{"set", "user_settings", "verbose_actions", "perhaps"}},
		{name: "UnknownSetting", args: []string{"set", "general", "nope", "x"}},
		{name: "Button", args: []string{"set", "general", "clean_logs", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te := newTestContainer(t)

			_, err := te.run(t, tt.args...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, settings.ErrInvalidValue), err.Error())

			_, statErr := os.Stat(te.container.Store.Path())
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestResetCommand(t *testing.T) {
	te := newTestContainer(t)

	_, err := te.run(t, "set", "general", "project_root", "/data/proj", "--no-action")
	require.NoError(t, err)

	out, err := te.run(t, "reset", "general")
	require.NoError(t, err)
	assert.Contains(t, out, "general restored to defaults")

	stored := te.container.Store.Load(context.Background())
	_, ok := stored["general"]
	assert.False(t, ok)

	_, err = te.run(t, "reset", "nope")
	assert.ErrorIs(t, err, services.ErrUnknownGroup)
}

func TestActivateCommand(t *testing.T) {
	t.Run("OpensSandbox", func(t *testing.T) {
		te := newTestContainer(t)
		sandbox := filepath.Join(te.dir, "sandbox")
		t.Setenv(builtin.SandboxEnvVar, sandbox)

		out, err := te.run(t, "activate", "open_sandbox")
		require.NoError(t, err)
		assert.Contains(t, out, "✓")
		assert.Equal(t, []string{sandbox}, te.opened)
	})

	t.Run("AmbiguousAction", func(t *testing.T) {
		duplicate := &builtin.CleanLogsAction{}
		te := newTestContainer(t, duplicate)

		_, err := te.run(t, "activate", "general", "clean_logs")
		require.Error(t, err)
		assert.True(t, errors.Is(err, actions.ErrAmbiguousAction))
	})

	t.Run("UnknownButton", func(t *testing.T) {
		te := newTestContainer(t)

		_, err := te.run(t, "activate", "missing")
		assert.True(t, errors.Is(err, settings.ErrInvalidValue))
	})
}

func TestActionsListCommand(t *testing.T) {
	te := newTestContainer(t)

	out, err := te.run(t, "actions", "list")
	require.NoError(t, err)
	for _, id := range []string{"SetSandboxPathAction", "CleanLogsAction", "OpenFolderAction"} {
		assert.Contains(t, out, id)
	}
}

func TestSchemaValidateCommand(t *testing.T) {
	te := newTestContainer(t)

	out, err := te.run(t, "schema", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "2 groups")

	bad := filepath.Join(te.dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"tab_groups":[{"id":"g","name":"G","settings":[{"id":"b","type":"button"}]}]}`), 0644))

	_, err = te.run(t, "schema", "validate", bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, settings.ErrSchema))
}

func TestEnvCommands(t *testing.T) {
	te := newTestContainer(t)
	te.env.vars["B_VAR"] = "2"
	te.env.vars["A_VAR"] = "1"

	out, err := te.run(t, "env", "restore")
	require.NoError(t, err)
	assert.Equal(t, "export A_VAR=\"1\"\nexport B_VAR=\"2\"\n", out)

	_, err = te.run(t, "env", "unset", "A_VAR")
	require.NoError(t, err)
	assert.NotContains(t, te.env.vars, "A_VAR")
}

func TestBackupCommand(t *testing.T) {
	te := newTestContainer(t)

	out, err := te.run(t, "backup")
	require.NoError(t, err)
	assert.Contains(t, out, "No settings file")

	_, err = te.run(t, "set", "general", "project_root", "/p", "--no-action")
	require.NoError(t, err)

	out, err = te.run(t, "backup")
	require.NoError(t, err)
	assert.Contains(t, out, ".backup_")
}

func TestParseValue(t *testing.T) {
	spin := settings.Setting{ID: "n", Kind: settings.KindSpinbox, Min: 0, Max: 10}
	flag := settings.Setting{ID: "b", Kind: settings.KindBoolean}
	text := settings.Setting{ID: "s", Kind: settings.KindString}

	tests := []struct {
		name     string
		setting  settings.Setting
		input    string
		expected interface{}
		wantErr  bool
	}{
		{name: "spinbox", setting: spin, input: " 7 ", expected: int64(7)},
		{name: "spinbox_negative", setting: spin, input: "-3", expected: int64(-3)},
		{name: "spinbox_garbage", setting: spin, input: "x", wantErr: true},
		{name: "bool_yes", setting: flag, input: "YES", expected: true},
		{name: "bool_off", setting: flag, input: "off", expected: false},
		{name: "bool_garbage", setting: flag, input: "maybe", wantErr: true},
		{name: "string_kept_verbatim", setting: text, input: " a b ", expected: " a b "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := parseValue(tt.setting, "g", tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, settings.ErrInvalidValue)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, value)
		})
	}
}

func TestDiffValues(t *testing.T) {
	before := settings.Values{"g": {"a": "x", "b": int64(1)}}
	after := settings.Values{"g": {"a": "y", "b": int64(1)}, "h": {"c": true}}

	assert.Equal(t, []string{"g.a: x → y", "h.c: (not set) → true"}, diffValues(before, after))
}

// runCmd executes cmd synchronously and feeds its message back to the model
func runCmd(t *testing.T, m tea.Model, cmd tea.Cmd) tea.Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	next, _ := m.Update(cmd())
	return next
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestEditorModel_EditSaveQuit(t *testing.T) {
	te := newTestContainer(t)
	ctx := context.Background()
	require.NoError(t, initializeSettings(ctx, te.container))

	var m tea.Model = newEditorModel(ctx, te.container.Controller)
	em := m.(editorModel)
	row, ok := em.current()
	require.True(t, ok)
	assert.Equal(t, "project_root", row.setting.ID)

	// edit the string setting
	m, _ = m.Update(key("enter"))
	assert.True(t, m.(editorModel).editing)
	for _, r := range "/data/proj" {
		m, _ = m.Update(key(string(r)))
	}
	var cmd tea.Cmd
	m, cmd = m.Update(key("enter"))
	m = runCmd(t, m, cmd)

	value, _ := te.container.Controller.EffectiveValues().Get("general", "project_root")
	assert.Equal(t, "/data/proj", value)
	assert.True(t, te.container.Controller.Dirty())

	// first q only warns while dirty
	m, cmd = m.Update(key("q"))
	assert.Nil(t, cmd)
	assert.True(t, m.(editorModel).confirmQuit)

	m, cmd = m.Update(key("s"))
	m = runCmd(t, m, cmd)
	assert.False(t, te.container.Controller.Dirty())
	assert.Equal(t, "Saved", m.(editorModel).status)

	stored := te.container.Store.Load(ctx)
	assert.Equal(t, "/data/proj", stored["general"]["project_root"])

	_, cmd = m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestEditorModel_SkipsDividersAndCyclesEnum(t *testing.T) {
	te := newTestContainer(t)
	ctx := context.Background()
	require.NoError(t, initializeSettings(ctx, te.container))

	var m tea.Model = newEditorModel(ctx, te.container.Controller)

	// project_root -> open_project -> clean_logs (divider skipped)
	m, _ = m.Update(key("down"))
	m, _ = m.Update(key("down"))
	row, _ := m.(editorModel).current()
	assert.Equal(t, "clean_logs", row.setting.ID)

	// clean_logs -> sandbox_folder -> render_threads -> log_level
	for i := 0; i < 3; i++ {
		m, _ = m.Update(key("down"))
	}
	row, _ = m.(editorModel).current()
	require.Equal(t, "log_level", row.setting.ID)

	var cmd tea.Cmd
	m, cmd = m.Update(key("enter"))
	m = runCmd(t, m, cmd)

	value, _ := te.container.Controller.EffectiveValues().Get("user_settings", "log_level")
	assert.Equal(t, "warning", value)

	// invalid text edit reports an error and changes nothing
	m, _ = m.Update(key("up"))
	m, _ = m.Update(key("k"))
	row, _ = m.(editorModel).current()
	require.Equal(t, "sandbox_folder", row.setting.ID)

	m, _ = m.Update(key("down"))
	m, _ = m.Update(key("enter"))
	m, _ = m.Update(key("backspace"))
	m, _ = m.Update(key("x"))
	m, cmd = m.Update(key("enter"))
	m = runCmd(t, m, cmd)
	assert.True(t, m.(editorModel).statusErr)

	threads, _ := te.container.Controller.EffectiveValues().Get("user_settings", "render_threads")
	assert.Equal(t, int64(4), threads)
	assert.NotEmpty(t, m.View())
}
