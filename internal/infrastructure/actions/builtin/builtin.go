// Package builtin provides the actions compiled into lcfg
package builtin

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"localconfig.dev/cli/internal/application/ports"
	"localconfig.dev/cli/internal/core/actions"
	"localconfig.dev/cli/internal/core/settings"
)

const (
	// SandboxEnvVar holds the active sandbox folder
	SandboxEnvVar = "LOCAL_CONFIG_SANDBOX"

	// SandboxGroup and SandboxSetting locate the configured sandbox folder
	SandboxGroup   = "user_settings"
	SandboxSetting = "sandbox_folder"

	source = "builtin"
)

// Opener shows a folder to the user
type Opener func(ctx context.Context, path string) error

// SystemOpener opens path in the platform file manager without waiting for it
func SystemOpener(ctx context.Context, path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("explorer", path)
	case "darwin":
		cmd = exec.Command("open", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	go cmd.Wait()
	return nil
}

// Dependencies are the host services built-in actions use
type Dependencies struct {
	Env    ports.EnvironmentRegistry
	Logger ports.LoggingGateway
	Open   Opener
}

// NewSource returns every built-in action
func NewSource(deps Dependencies) actions.StaticSource {
	if deps.Open == nil {
		deps.Open = SystemOpener
	}
	return actions.StaticSource{
		&CleanLogsAction{deps: deps},
		&OpenFolderAction{deps: deps},
		&OpenProjectFolderAction{deps: deps},
		&SetEnvironmentVariableAction{deps: deps},
		&SetSandboxPathAction{deps: deps},
		&SetRenderPathAction{deps: deps},
		&SetEngineProjectAction{deps: deps},
		&SetProjectVariableAction{deps: deps},
	}
}

func descriptor(id, label, color string, order int) actions.Descriptor {
	return actions.Descriptor{
		ID:           id,
		Label:        label,
		Color:        color,
		Order:        order,
		Capabilities: []string{actions.TagLocalConfig, actions.CapabilityConfigContext},
		Source:       source,
	}
}

// SandboxPath returns the sandbox folder: the configured one, then the
// environment, then ~/.localconfig
func SandboxPath(config settings.Values) string {
	if v, ok := config.Get(SandboxGroup, SandboxSetting); ok {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return expandPath(s)
		}
	}
	if env := os.Getenv(SandboxEnvVar); env != "" {
		return env
	}
	return expandPath("~/.localconfig")
}

// expandPath expands environment variables and a leading ~
func expandPath(path string) string {
	path = os.ExpandEnv(strings.TrimSpace(path))
	if path == "~" || strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, strings.TrimPrefix(path[1:], "/"))
	}
	return filepath.Clean(path)
}
