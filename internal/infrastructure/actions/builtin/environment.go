package builtin

import (
	"context"
	"fmt"
	"strings"

	"localconfig.dev/cli/internal/core/actions"
)

// SetEnvironmentVariableAction registers the variable named by the action
// data with the setting's new value
type SetEnvironmentVariableAction struct {
	deps Dependencies
}

func (a *SetEnvironmentVariableAction) Descriptor() actions.Descriptor {
	return descriptor("SetEnvironmentVariableAction", "Set Environment Variable", "#4a90e2", 60)
}

func (a *SetEnvironmentVariableAction) Execute(ctx context.Context) (actions.Result, error) {
	return actions.Result{}, fmt.Errorf("action data should contain the environment variable name")
}

func (a *SetEnvironmentVariableAction) ExecuteWithConfig(ctx context.Context, req actions.Request) (actions.Result, error) {
	name := strings.TrimSpace(req.ActionData)
	if name == "" {
		return a.Execute(ctx)
	}
	if req.TriggeredValue == nil {
		return actions.Result{}, fmt.Errorf("no value found for environment variable %q", name)
	}

	value := fmt.Sprint(req.TriggeredValue)
	if err := a.deps.Env.Register(name, value); err != nil {
		return actions.Result{}, fmt.Errorf("failed to register %s: %w", name, err)
	}

	return actions.Result{
		Message: fmt.Sprintf("%s=%s", name, value),
		Data:    map[string]interface{}{"name": name, "value": value},
	}, nil
}

// SetSandboxPathAction registers the configured sandbox folder as
// LOCAL_CONFIG_SANDBOX
type SetSandboxPathAction struct {
	deps Dependencies
}

func (a *SetSandboxPathAction) Descriptor() actions.Descriptor {
	return descriptor("SetSandboxPathAction", "Set Sandbox Path", "#4a90e2", 50)
}

func (a *SetSandboxPathAction) Execute(ctx context.Context) (actions.Result, error) {
	return actions.Result{}, fmt.Errorf("no sandbox path found in configuration")
}

func (a *SetSandboxPathAction) ExecuteWithConfig(ctx context.Context, req actions.Request) (actions.Result, error) {
	raw, _ := req.Config.Get(SandboxGroup, SandboxSetting)
	if s, ok := req.TriggeredValue.(string); ok && req.SettingID == SandboxSetting {
		raw = s
	}
	configured, _ := raw.(string)
	if strings.TrimSpace(configured) == "" {
		return a.Execute(ctx)
	}

	sandbox := expandPath(configured)
	if current, ok := a.deps.Env.Get(SandboxEnvVar); ok && current == sandbox {
		return actions.Result{Message: "Sandbox path is already set to " + sandbox}, nil
	}
	if err := a.deps.Env.Register(SandboxEnvVar, sandbox); err != nil {
		return actions.Result{}, fmt.Errorf("failed to register %s: %w", SandboxEnvVar, err)
	}

	return actions.Result{
		Message: fmt.Sprintf("%s=%s", SandboxEnvVar, sandbox),
		Data:    map[string]interface{}{"path": sandbox},
	}, nil
}
