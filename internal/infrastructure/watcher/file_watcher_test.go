package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"localconfig.dev/cli/internal/infrastructure/logging"
	"localconfig.dev/cli/internal/infrastructure/storage"
)

func TestFileWatcher_ReportsAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "localconfig.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))

	fw, err := NewFileWatcher(path, 20*time.Millisecond, logging.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan struct{}, 10)
	done := make(chan error, 1)
	go func() {
		done <- fw.Run(ctx, func() { changes <- struct{}{} })
	}()

	// unrelated files in the same directory are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0644))
	select {
	case <-changes:
		t.Fatal("unexpected change for unrelated file")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, storage.WriteFileAtomic(path, []byte(`{"general":{}}`), 0644))

	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestNewFileWatcher_MissingDirectory(t *testing.T) {
	_, err := NewFileWatcher(filepath.Join(t.TempDir(), "missing", "x.json"), DefaultDebounce, logging.NewNop())
	require.Error(t, err)
}
