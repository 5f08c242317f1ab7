package builtin

import (
	"context"
	"fmt"
	"os"
	"strings"

	"localconfig.dev/cli/internal/core/actions"
	"localconfig.dev/cli/internal/core/settings"
)

// Variables and settings used by the project actions
const (
	RenderPathEnvVar    = "LOCAL_CONFIG_RENDER_PATH"
	RenderPathSetting   = "render_path"
	EngineProjectEnvVar = "LOCAL_CONFIG_ENGINE_PROJECT"
	EngineAutoOpenVar   = "LOCAL_CONFIG_ENGINE_AUTO_OPEN"
	EngineProjectPath   = "engine_project_path"
	EngineAutoOpen      = "auto_open_engine_project"
	VariableNameSetting = "variable_name"
	VariableValue       = "variable_value"
)

// userSetting returns user_settings.<id>, preferring the value that
// triggered the action when it belongs to that setting
func userSetting(req actions.Request, id string) (interface{}, bool) {
	if req.SettingID == id && req.TriggeredValue != nil {
		return req.TriggeredValue, true
	}
	return req.Config.Get(SandboxGroup, id)
}

func userString(req actions.Request, id string) string {
	v, _ := userSetting(req, id)
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// existingPath expands path and checks that it exists
func existingPath(path string) (string, error) {
	expanded := expandPath(path)
	if _, err := os.Stat(expanded); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("path does not exist: %s", expanded)
		}
		return "", fmt.Errorf("failed to check %s: %w", expanded, err)
	}
	return expanded, nil
}

// SetRenderPathAction registers the configured local render folder
type SetRenderPathAction struct {
	deps Dependencies
}

func (a *SetRenderPathAction) Descriptor() actions.Descriptor {
	return descriptor("SetRenderPathAction", "Set Local Render Path", "#4a90e2", 50)
}

func (a *SetRenderPathAction) Execute(ctx context.Context) (actions.Result, error) {
	return actions.Result{}, fmt.Errorf("no local render path found in configuration")
}

func (a *SetRenderPathAction) ExecuteWithConfig(ctx context.Context, req actions.Request) (actions.Result, error) {
	configured := userString(req, RenderPathSetting)
	if configured == "" {
		return a.Execute(ctx)
	}

	path, err := existingPath(configured)
	if err != nil {
		return actions.Result{}, err
	}

	if err := a.deps.Env.Register(RenderPathEnvVar, path); err != nil {
		return actions.Result{}, fmt.Errorf("failed to register %s: %w", RenderPathEnvVar, err)
	}
	return actions.Result{
		Message: fmt.Sprintf("%s=%s", RenderPathEnvVar, path),
		Data:    map[string]interface{}{"path": path},
	}, nil
}

// SetEngineProjectAction registers the engine project folder and the
// auto-open flag. Clearing the folder unregisters both variables.
type SetEngineProjectAction struct {
	deps Dependencies
}

func (a *SetEngineProjectAction) Descriptor() actions.Descriptor {
	return descriptor("SetEngineProjectAction", "Set Engine Project", "#4a90e2", 50)
}

func (a *SetEngineProjectAction) Execute(ctx context.Context) (actions.Result, error) {
	return actions.Result{}, fmt.Errorf("engine project settings are required")
}

func (a *SetEngineProjectAction) ExecuteWithConfig(ctx context.Context, req actions.Request) (actions.Result, error) {
	configured := userString(req, EngineProjectPath)
	if configured == "" {
		for _, name := range []string{EngineProjectEnvVar, EngineAutoOpenVar} {
			if err := a.deps.Env.Unregister(name); err != nil {
				return actions.Result{}, fmt.Errorf("failed to unregister %s: %w", name, err)
			}
		}
		return actions.Result{Message: "Engine project variables cleared"}, nil
	}

	path, err := existingPath(configured)
	if err != nil {
		return actions.Result{}, err
	}
	if err := a.deps.Env.Register(EngineProjectEnvVar, path); err != nil {
		return actions.Result{}, fmt.Errorf("failed to register %s: %w", EngineProjectEnvVar, err)
	}

	autoOpen := false
	switch v, _ := userSetting(req, EngineAutoOpen); b := v.(type) {
	case bool:
		autoOpen = b
	case string:
		autoOpen, _ = settings.ParseBool(b)
	}

	if autoOpen {
		err = a.deps.Env.Register(EngineAutoOpenVar, "true")
	} else {
		err = a.deps.Env.Unregister(EngineAutoOpenVar)
	}
	if err != nil {
		return actions.Result{}, fmt.Errorf("failed to update %s: %w", EngineAutoOpenVar, err)
	}

	return actions.Result{
		Message: fmt.Sprintf("%s=%s", EngineProjectEnvVar, path),
		Data:    map[string]interface{}{"path": path, "auto_open": autoOpen},
	}, nil
}

// SetProjectVariableAction registers the variable named by
// user_settings.variable_name with user_settings.variable_value
type SetProjectVariableAction struct {
	deps Dependencies
}

func (a *SetProjectVariableAction) Descriptor() actions.Descriptor {
	return descriptor("SetProjectVariableAction", "Set Project Variable", "#4a90e2", 60)
}

func (a *SetProjectVariableAction) Execute(ctx context.Context) (actions.Result, error) {
	return actions.Result{}, fmt.Errorf("no environment variable name found in configuration")
}

func (a *SetProjectVariableAction) ExecuteWithConfig(ctx context.Context, req actions.Request) (actions.Result, error) {
	name := userString(req, VariableNameSetting)
	if name == "" {
		return a.Execute(ctx)
	}

	raw, ok := userSetting(req, VariableValue)
	if !ok || raw == nil {
		return actions.Result{}, fmt.Errorf("no value found for environment variable %q", name)
	}
	value := fmt.Sprint(raw)

	if err := a.deps.Env.Register(name, value); err != nil {
		return actions.Result{}, fmt.Errorf("failed to register %s: %w", name, err)
	}
	return actions.Result{
		Message: fmt.Sprintf("%s=%s", name, value),
		Data:    map[string]interface{}{"name": name, "value": value},
	}, nil
}
