// Package actions discovers action plugins and dispatches configured action
// identifiers to exactly one of them.
package actions

import (
	"context"

	"localconfig.dev/cli/internal/core/settings"
)

const (
	// TagLocalConfig marks an action as taking part in settings dispatch
	TagLocalConfig = "local_config"

	// CapabilityConfigContext marks an action whose ExecuteWithConfig should
	// be called instead of Execute
	CapabilityConfigContext = "config_context"
)

// Descriptor describes a discovered action
type Descriptor struct {
	// ID is the identifier a button setting refers to, e.g. "CleanLogsAction"
	ID    string
	Label string
	Icon  string
	Color string
	Order int

	Capabilities []string

	// Source tells where the action came from ("builtin", a script path, ...)
	Source string
}

// Has reports whether the descriptor declares the capability tag
func (d Descriptor) Has(tag string) bool {
	for _, c := range d.Capabilities {
		if c == tag {
			return true
		}
	}
	return false
}

// Action is a runnable action plugin. Execute is the standard entry point
// every action provides.
type Action interface {
	Descriptor() Descriptor
	Execute(ctx context.Context) (Result, error)
}

// ConfigAwareAction is implemented by actions that accept the current
// configuration. It is only called when the descriptor also declares
// CapabilityConfigContext.
type ConfigAwareAction interface {
	Action
	ExecuteWithConfig(ctx context.Context, req Request) (Result, error)
}

// Request is the configuration context passed to a context-aware action
type Request struct {
	// Config is the full effective value mapping
	Config settings.Values

	GroupID   string
	SettingID string

	// TriggeredValue is the new value when the action runs after an edit
	TriggeredValue interface{}

	// ActionData is the setting's free-form action payload
	ActionData string

	// InvocationID correlates log lines of one dispatch
	InvocationID string
}

// Result is what an action reports back
type Result struct {
	Message string
	Data    map[string]interface{}
}

// PluginSource enumerates every candidate action. Implementations may scan a
// directory, return a static list or be a test double.
type PluginSource interface {
	Enumerate(ctx context.Context) ([]Action, error)
}
