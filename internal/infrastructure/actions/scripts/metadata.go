package scripts

import (
	"fmt"

	"localconfig.dev/cli/internal/application/ports"
	"localconfig.dev/cli/internal/core/actions"
	"localconfig.dev/cli/internal/core/settings"
)

// Metadata is what a script declares about itself in its "action" table or
// object
type Metadata struct {
	ID       string
	Label    string
	Icon     string
	Color    string
	Order    int
	Families []string
}

// FromMap reads metadata from a decoded script value
func FromMap(m map[string]interface{}) Metadata {
	var md Metadata
	md.ID, _ = m["id"].(string)
	md.Label, _ = m["label"].(string)
	md.Icon, _ = m["icon"].(string)
	md.Color, _ = m["color"].(string)

	switch n := m["order"].(type) {
	case int64:
		md.Order = int(n)
	case float64:
		md.Order = int(n)
	case int:
		md.Order = n
	}

	switch families := m["families"].(type) {
	case []interface{}:
		for _, f := range families {
			if s, ok := f.(string); ok {
				md.Families = append(md.Families, s)
			}
		}
	case []string:
		md.Families = append(md.Families, families...)
	}
	return md
}

// Descriptor builds the action descriptor for the script at path. Scripts
// that define the configuration entry point get CapabilityConfigContext.
func (m Metadata) Descriptor(path string, acceptsConfig bool) actions.Descriptor {
	id := m.ID
	if id == "" {
		id = DefaultID(path)
	}
	label := m.Label
	if label == "" {
		label = id
	}

	caps := append([]string(nil), m.Families...)
	if acceptsConfig {
		caps = append(caps, actions.CapabilityConfigContext)
	}

	return actions.Descriptor{
		ID:           id,
		Label:        label,
		Icon:         m.Icon,
		Color:        m.Color,
		Order:        m.Order,
		Capabilities: caps,
		Source:       path,
	}
}

// Host is the API exposed to scripts as the global "lcfg"
type Host struct {
	Env    ports.EnvironmentRegistry
	Logger ports.LoggingGateway
}

// RegisterEnv registers an environment variable on behalf of a script
func (h Host) RegisterEnv(name, value string) error {
	if h.Env == nil {
		return fmt.Errorf("environment registry is not available")
	}
	return h.Env.Register(name, value)
}

// Log writes a script log line
func (h Host) Log(script, message string) {
	if h.Logger == nil {
		return
	}
	h.Logger.Log(ports.LogLevelInfo, message, map[string]interface{}{"script": script})
}

// RequestMap is the request as handed to scripts
func RequestMap(req actions.Request) map[string]interface{} {
	return map[string]interface{}{
		"group_id":        req.GroupID,
		"setting_id":      req.SettingID,
		"triggered_value": req.TriggeredValue,
		"action_data":     req.ActionData,
		"invocation_id":   req.InvocationID,
	}
}

// ConfigMap converts values into plain nested maps for script runtimes
func ConfigMap(values settings.Values) map[string]interface{} {
	out := make(map[string]interface{}, len(values))
	for group, entries := range values {
		m := make(map[string]interface{}, len(entries))
		for k, v := range entries {
			m[k] = v
		}
		out[group] = m
	}
	return out
}

// ResultFrom converts what a script returned into a Result
func ResultFrom(value interface{}) actions.Result {
	switch v := value.(type) {
	case nil:
		return actions.Result{}
	case string:
		return actions.Result{Message: v}
	case map[string]interface{}:
		result := actions.Result{Data: v}
		if msg, ok := v["message"].(string); ok {
			result.Message = msg
		}
		return result
	default:
		return actions.Result{Message: fmt.Sprint(v)}
	}
}
