// Package watcher reports changes to a single file
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"localconfig.dev/cli/internal/application/ports"
)

// DefaultDebounce is how long the watcher waits for writes to settle
const DefaultDebounce = 200 * time.Millisecond

// FileWatcher watches one file. The parent directory is watched so that
// atomic replacements (write tmp, rename) are seen.
type FileWatcher struct {
	path     string
	debounce time.Duration
	logger   ports.LoggingGateway
	watcher  *fsnotify.Watcher
}

// NewFileWatcher creates a watcher for path
func NewFileWatcher(path string, debounce time.Duration, logger ports.LoggingGateway) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	return &FileWatcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		logger:   logger,
		watcher:  w,
	}, nil
}

// Run calls onChange after each settled burst of changes to the file and
// returns when ctx is done or the watcher is closed
func (fw *FileWatcher) Run(ctx context.Context, onChange func()) error {
	defer fw.watcher.Close()

	var settle <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != fw.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}

			fw.logger.Log(ports.LogLevelDebug, "Settings file event", map[string]interface{}{
				"path": event.Name,
				"op":   event.Op.String(),
			})

			settle = time.After(fw.debounce)

		case <-settle:
			settle = nil
			onChange()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return nil
			}
			fw.logger.LogError(err, "Watcher error", map[string]interface{}{"path": fw.path})
		}
	}
}
