package builtin

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

// CleanLogsAction deletes *.log files from <sandbox>/logs
type CleanLogsAction struct {
	deps Dependencies
}

func (a *CleanLogsAction) Descriptor() actions.Descriptor {
	return descriptor("CleanLogsAction", "Clean Log Files", "#ff6b35", 100)
}

func (a *CleanLogsAction) Execute(ctx context.Context) (actions.Result, error) {
	return a.clean(SandboxPath(nil))
}

func (a *CleanLogsAction) ExecuteWithConfig(ctx context.Context, req actions.Request) (actions.Result, error) {
	sandbox := SandboxPath(req.Config)
	if s, ok := req.TriggeredValue.(string); ok && strings.TrimSpace(s) != "" {
		sandbox = expandPath(s)
	}
	return a.clean(sandbox)
}

func (a *CleanLogsAction) clean(sandbox string) (actions.Result, error) {
	logsDir := filepath.Join(sandbox, "logs")

	entries, err := os.ReadDir(logsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return actions.Result{Message: "No logs directory found"}, nil
		}
		return actions.Result{}, fmt.Errorf("failed to read logs directory: %w", err)
	}

	cleaned := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".log") {
			continue
		}
		path := filepath.Join(logsDir, entry.Name())
		if err := os.Remove(path); err != nil {
			a.deps.Logger.LogError(err, "could not remove log file", map[string]interface{}{"path": path})
			continue
		}
		cleaned++
	}

	return actions.Result{
		Message: fmt.Sprintf("Cleaned %d log files.", cleaned),
		Data:    map[string]interface{}{"logs_dir": logsDir, "cleaned": cleaned},
	}, nil
}

// OpenFolderAction opens the folder named by the setting's action data,
// creating it first when missing
type OpenFolderAction struct {
	deps Dependencies
}

func (a *OpenFolderAction) Descriptor() actions.Descriptor {
	return descriptor("OpenFolderAction", "Open Folder", "#4a90e2", 200)
}

func (a *OpenFolderAction) Execute(ctx context.Context) (actions.Result, error) {
	return actions.Result{}, fmt.Errorf("no folder path provided")
}

func (a *OpenFolderAction) ExecuteWithConfig(ctx context.Context, req actions.Request) (actions.Result, error) {
	if strings.TrimSpace(req.ActionData) == "" {
		return a.Execute(ctx)
	}

	folder := expandPath(req.ActionData)
	if err := os.MkdirAll(folder, 0755); err != nil {
		return actions.Result{}, fmt.Errorf("failed to create folder: %w", err)
	}
	if err := a.deps.Open(ctx, folder); err != nil {
		return actions.Result{}, err
	}

	return actions.Result{Message: "Opened " + folder, Data: map[string]interface{}{"path": folder}}, nil
}

// OpenProjectFolderAction opens the first existing path among settings whose
// identifier mentions "project" or "path"
type OpenProjectFolderAction struct {
	deps Dependencies
}

func (a *OpenProjectFolderAction) Descriptor() actions.Descriptor {
	return descriptor("OpenProjectFolderAction", "Open Project Folder", "#4a90e2", 200)
}

func (a *OpenProjectFolderAction) Execute(ctx context.Context) (actions.Result, error) {
	return actions.Result{}, fmt.Errorf("no valid project path found in configuration")
}

func (a *OpenProjectFolderAction) ExecuteWithConfig(ctx context.Context, req actions.Request) (actions.Result, error) {
	groups := make([]string, 0, len(req.Config))
	for g := range req.Config {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	for _, g := range groups {
		keys := make([]string, 0, len(req.Config[g]))
		for k := range req.Config[g] {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			lower := strings.ToLower(k)
			if !strings.Contains(lower, "project") && !strings.Contains(lower, "path") {
				continue
			}
			value, ok := req.Config[g][k].(string)
			if !ok || value == "" {
				continue
			}
			if _, err := os.Stat(value); err != nil {
				continue
			}

			a.deps.Logger.Log(ports.LogLevelDebug, "opening project folder", map[string]interface{}{"setting": g + "." + k})
			if err := a.deps.Open(ctx, value); err != nil {
				return actions.Result{}, err
			}
			return actions.Result{Message: "Opened project folder " + value, Data: map[string]interface{}{"path": value}}, nil
		}
	}

	return a.Execute(ctx)
}
