// Package scripts discovers action plugins written as scripts. Files named
// action_<name>.<ext> in the configured directories are handed to the loader
// registered for their extension.
package scripts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"localconfig.dev/cli/internal/application/ports"
	"localconfig.dev/cli/internal/core/actions"
)

// FilePrefix is the prefix every action script file name carries
const FilePrefix = "action_"

// Loader turns one script file into an action
type Loader interface {
	// Extension returns the handled file extension including the dot
	Extension() string

	// Load reads the script's metadata. The script runs again, in a fresh
	// interpreter, on every execution.
	Load(ctx context.Context, path string) (actions.Action, error)
}

// Discovery implements actions.PluginSource by scanning directories. Every
// Enumerate call scans again.
type Discovery struct {
	directories []string
	loaders     map[string]Loader
	logger      ports.LoggingGateway
}

// NewDiscovery creates a discovery over directories using loaders
func NewDiscovery(directories []string, logger ports.LoggingGateway, loaders ...Loader) *Discovery {
	byExt := make(map[string]Loader, len(loaders))
	for _, l := range loaders {
		byExt[l.Extension()] = l
	}
	return &Discovery{directories: directories, loaders: byExt, logger: logger}
}

// Enumerate loads every action script found. Missing directories and
// invalid scripts are logged and skipped.
func (d *Discovery) Enumerate(ctx context.Context) ([]actions.Action, error) {
	var discovered []actions.Action

	for _, dir := range d.directories {
		expandedDir := ExpandPath(dir)

		if _, err := os.Stat(expandedDir); os.IsNotExist(err) {
			d.logger.Log(ports.LogLevelDebug, "action directory does not exist", map[string]interface{}{"dir": expandedDir})
			continue
		}

		found, err := d.scanDirectory(ctx, expandedDir)
		if err != nil {
			d.logger.LogError(err, "failed to scan action directory", map[string]interface{}{"dir": expandedDir})
			continue
		}
		discovered = append(discovered, found...)
	}

	d.logger.Log(ports.LogLevelDebug, "discovered script actions", map[string]interface{}{"count": len(discovered)})
	return discovered, nil
}

func (d *Discovery) scanDirectory(ctx context.Context, dirPath string) ([]actions.Action, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), FilePrefix) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var found []actions.Action
	for _, name := range names {
		loader, ok := d.loaders[filepath.Ext(name)]
		if !ok {
			continue
		}

		scriptPath := filepath.Join(dirPath, name)
		action, err := loader.Load(ctx, scriptPath)
		if err != nil {
			d.logger.LogError(err, "invalid action script", map[string]interface{}{"path": scriptPath})
			continue
		}
		found = append(found, action)
	}

	return found, nil
}

// ExpandPath expands ~ to user home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

// NameFromPath extracts the action name from a script path:
// "/x/action_clean_logs.lua" is "clean_logs"
func NameFromPath(path string) string {
	name := strings.TrimPrefix(filepath.Base(path), FilePrefix)
	if idx := strings.LastIndex(name, "."); idx != -1 {
		name = name[:idx]
	}
	return name
}

// DefaultID derives an action identifier from its file name the way action
// classes are named: "clean_logs" is "CleanLogsAction"
func DefaultID(path string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(NameFromPath(path), func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	}) {
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	b.WriteString("Action")
	return b.String()
}
