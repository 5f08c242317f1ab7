package scripts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localconfig.dev/cli/internal/core/actions"
	"localconfig.dev/cli/internal/infrastructure/logging"
)

type stubAction struct {
	desc actions.Descriptor
}

func (s stubAction) Descriptor() actions.Descriptor { return s.desc }

func (s stubAction) Execute(ctx context.Context) (actions.Result, error) {
	return actions.Result{}, nil
}

type stubLoader struct {
	ext    string
	failOn string
	loaded []string
}

func (l *stubLoader) Extension() string { return l.ext }

func (l *stubLoader) Load(ctx context.Context, path string) (actions.Action, error) {
	l.loaded = append(l.loaded, filepath.Base(path))
	if filepath.Base(path) == l.failOn {
		return nil, errors.New("broken script")
	}
	return stubAction{desc: Metadata{Families: []string{actions.TagLocalConfig}}.Descriptor(path, false)}, nil
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
}

func TestDiscovery_Enumerate(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "action_b.lua", "action_a.lua", "helper.lua", "action_c.txt", "action_broken.lua")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "action_dir.lua"), 0755))

	loader := &stubLoader{ext: ".lua", failOn: "action_broken.lua"}
	discovery := NewDiscovery([]string{dir, filepath.Join(dir, "missing")}, logging.NewNop(), loader)

	found, err := discovery.Enumerate(context.Background())
	require.NoError(t, err)

	require.Len(t, found, 2)
	assert.Equal(t, "AAction", found[0].Descriptor().ID)
	assert.Equal(t, "BAction", found[1].Descriptor().ID)
	assert.Equal(t, []string{"action_a.lua", "action_b.lua", "action_broken.lua"}, loader.loaded)
}

func TestDiscovery_RescansEveryCall(t *testing.T) {
	dir := t.TempDir()
	loader := &stubLoader{ext: ".js"}
	discovery := NewDiscovery([]string{dir}, logging.NewNop(), loader)

	found, err := discovery.Enumerate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, found)

	touch(t, dir, "action_new.js")

	found, err = discovery.Enumerate(context.Background())
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestDefaultID(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{path: "/x/action_clean_logs.lua", expected: "CleanLogsAction"},
		{path: "action_open-folder.js", expected: "OpenFolderAction"},
		{path: "action_x.lua", expected: "XAction"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, DefaultID(tt.path))
		})
	}
}

func TestResultFrom(t *testing.T) {
	assert.Equal(t, actions.Result{}, ResultFrom(nil))
	assert.Equal(t, "done", ResultFrom("done").Message)
	assert.Equal(t, "true", ResultFrom(true).Message)

	r := ResultFrom(map[string]interface{}{"message": "m", "n": int64(1)})
	assert.Equal(t, "m", r.Message)
	assert.Equal(t, int64(1), r.Data["n"])
}
