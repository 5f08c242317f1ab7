package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"localconfig.dev/cli/internal/application/ports"
	"localconfig.dev/cli/internal/core/actions"
	"localconfig.dev/cli/internal/core/settings"
)

var (
	// ErrNotInitialized is returned by operations called before Initialize
	ErrNotInitialized = errors.New("settings controller not initialized")

	// ErrUnknownGroup is returned for group identifiers absent from the schema
	ErrUnknownGroup = errors.New("unknown group")
)

// ControllerState is the lifecycle state of a SettingsController
type ControllerState int

const (
	StateUninitialized ControllerState = iota
	StateLoaded
	StateEditing
	StateSaving
)

func (s ControllerState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoaded:
		return "loaded"
	case StateEditing:
		return "editing"
	case StateSaving:
		return "saving"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ActionDispatcher runs the action a setting refers to
type ActionDispatcher interface {
	Dispatch(ctx context.Context, actionID string, req actions.Request) (actions.Result, error)
}

// ControllerOption configures a SettingsController
type ControllerOption func(*SettingsController)

// WithBackupOnSave copies the settings file aside before every save
func WithBackupOnSave(enabled bool) ControllerOption {
	return func(c *SettingsController) {
		c.backupOnSave = enabled
	}
}

// WithParseOptions sets the options used to parse the schema
func WithParseOptions(opts ...settings.ParseOption) ControllerOption {
	return func(c *SettingsController) {
		c.parseOpts = append(c.parseOpts, opts...)
	}
}

// SettingsController is the single source of truth for the effective
// settings values. It reconciles the schema with the value store, validates
// edits, persists them and triggers the actions settings refer to.
type SettingsController struct {
	store      ports.ValueStore
	dispatcher ActionDispatcher
	logger     ports.LoggingGateway

	backupOnSave bool
	parseOpts    []settings.ParseOption

	mu     sync.Mutex
	state  ControllerState
	schema *settings.Schema
	values settings.Values
	dirty  bool
}

// NewSettingsController creates a new settings controller
func NewSettingsController(store ports.ValueStore, dispatcher ActionDispatcher, logger ports.LoggingGateway, opts ...ControllerOption) *SettingsController {
	c := &SettingsController{
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
		state:      StateUninitialized,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize parses the schema, loads the stored values and merges them with
// the defaults. A schema error leaves the controller state unchanged.
func (c *SettingsController) Initialize(ctx context.Context, raw settings.RawSchema) error {
	schema, err := settings.Parse(raw, c.parseOpts...)
	if err != nil {
		c.logger.LogError(err, "Failed to parse settings schema", nil)
		return err
	}

	stored := c.store.Load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.schema = schema
	c.values = settings.MergeWithDefaults(stored, schema.Groups)
	c.state = StateLoaded
	c.dirty = false

	c.logger.Log(ports.LogLevelDebug, "Settings loaded", map[string]interface{}{
		"groups": len(schema.Groups),
		"path":   c.store.Path(),
	})

	return nil
}

// Reload re-reads the value store under the current schema, discarding
// unsaved edits
func (c *SettingsController) Reload(ctx context.Context) error {
	stored := c.store.Load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateUninitialized {
		return ErrNotInitialized
	}

	c.values = settings.MergeWithDefaults(stored, c.schema.Groups)
	c.state = StateLoaded
	c.dirty = false
	return nil
}

// Schema returns the parsed schema, nil before Initialize
func (c *SettingsController) Schema() *settings.Schema {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.schema
}

// State returns the lifecycle state
func (c *SettingsController) State() ControllerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dirty reports whether there are unsaved edits
func (c *SettingsController) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

// EffectiveValues returns a copy of the in-memory values
func (c *SettingsController) EffectiveValues() settings.Values {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values.Clone()
}

// SetValue validates value against the setting's kind and stores it in
// memory. Nothing changes when validation fails.
func (c *SettingsController) SetValue(groupID, settingID string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.setLocked(groupID, settingID, value)
	return err
}

func (c *SettingsController) setLocked(groupID, settingID string, value interface{}) (settings.Setting, error) {
	if c.state == StateUninitialized {
		return settings.Setting{}, ErrNotInitialized
	}

	setting, ok := c.schema.Setting(groupID, settingID)
	if !ok {
		return settings.Setting{}, &settings.InvalidValueError{Group: groupID, Setting: settingID, Value: value, Reason: "unknown setting"}
	}

	normalized, err := setting.Validate(groupID, value)
	if err != nil {
		return settings.Setting{}, err
	}

	c.values.Set(groupID, settingID, normalized)
	c.dirty = true
	c.state = StateEditing
	return setting, nil
}

// Save persists the in-memory values. On failure the values stay in memory
// and the controller returns to editing.
func (c *SettingsController) Save(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateUninitialized {
		return ErrNotInitialized
	}

	return c.persistLocked(ctx, c.values)
}

func (c *SettingsController) persistLocked(ctx context.Context, values settings.Values) error {
	c.state = StateSaving

	if c.backupOnSave {
		if path, err := c.store.Backup(ctx); err != nil {
			c.logger.LogError(err, "Failed to create settings backup", nil)
			// continue with save even if backup fails
		} else if path != "" {
			c.logger.Log(ports.LogLevelDebug, "Settings backup created", map[string]interface{}{"backup": path})
		}
	}

	if err := c.store.Save(ctx, values.Clone()); err != nil {
		c.logger.LogError(err, "Failed to save settings", nil)
		c.state = StateEditing
		return fmt.Errorf("failed to save settings: %w", err)
	}

	c.state = StateLoaded
	c.dirty = false

	c.logger.Log(ports.LogLevelInfo, "Settings saved", map[string]interface{}{
		"path": c.store.Path(),
	})
	return nil
}

// RestoreGroupDefaults puts every setting of the group back to its default
// and persists the result immediately
func (c *SettingsController) RestoreGroupDefaults(ctx context.Context, groupID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateUninitialized {
		return ErrNotInitialized
	}

	group, ok := c.schema.Group(groupID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownGroup, groupID)
	}

	c.values[groupID] = group.Defaults()
	c.dirty = true

	if err := c.persistLocked(ctx, settings.ResetGroup(c.values, groupID)); err != nil {
		return err
	}

	c.logger.Log(ports.LogLevelInfo, "Group restored to defaults", map[string]interface{}{"group": groupID})
	return nil
}

// ActivateButton runs the action of the button setting with the given
// identifier. Groups are searched in schema order; an identifier used by
// more than one group must be activated with ActivateGroupButton.
func (c *SettingsController) ActivateButton(ctx context.Context, settingID string) (actions.Result, error) {
	c.mu.Lock()
	if c.state == StateUninitialized {
		c.mu.Unlock()
		return actions.Result{}, ErrNotInitialized
	}
	refs := c.schema.FindSetting(settingID)
	c.mu.Unlock()

	switch len(refs) {
	case 0:
		return actions.Result{}, &settings.InvalidValueError{Setting: settingID, Reason: "unknown setting"}
	case 1:
		return c.ActivateGroupButton(ctx, refs[0].GroupID, settingID)
	default:
		groups := make([]string, 0, len(refs))
		for _, ref := range refs {
			groups = append(groups, ref.GroupID)
		}
		return actions.Result{}, &settings.InvalidValueError{
			Setting: settingID,
			Reason:  fmt.Sprintf("setting exists in several groups (%s)", strings.Join(groups, ", ")),
		}
	}
}

// ActivateGroupButton runs the action of a button setting. Values are not
// modified.
func (c *SettingsController) ActivateGroupButton(ctx context.Context, groupID, settingID string) (actions.Result, error) {
	c.mu.Lock()
	if c.state == StateUninitialized {
		c.mu.Unlock()
		return actions.Result{}, ErrNotInitialized
	}
	setting, ok := c.schema.Setting(groupID, settingID)
	if !ok {
		c.mu.Unlock()
		return actions.Result{}, &settings.InvalidValueError{Group: groupID, Setting: settingID, Reason: "unknown setting"}
	}
	if setting.Kind != settings.KindButton {
		c.mu.Unlock()
		return actions.Result{}, &settings.InvalidValueError{Group: groupID, Setting: settingID, Reason: fmt.Sprintf("%s setting is not a button", setting.Kind)}
	}
	req := c.requestLocked(groupID, setting, nil)
	c.mu.Unlock()

	return c.dispatch(ctx, setting.ActionID, req)
}

// RunSettingAction runs the change action of a value setting with its
// current value
func (c *SettingsController) RunSettingAction(ctx context.Context, groupID, settingID string) (actions.Result, error) {
	c.mu.Lock()
	if c.state == StateUninitialized {
		c.mu.Unlock()
		return actions.Result{}, ErrNotInitialized
	}
	setting, ok := c.schema.Setting(groupID, settingID)
	if !ok || setting.ActionID == "" || !setting.Stored() {
		c.mu.Unlock()
		return actions.Result{}, &settings.InvalidValueError{Group: groupID, Setting: settingID, Reason: "setting has no change action"}
	}
	current, _ := c.values.Get(groupID, settingID)
	req := c.requestLocked(groupID, setting, current)
	c.mu.Unlock()

	return c.dispatch(ctx, setting.ActionID, req)
}

// ApplyValue sets a value and, when the setting declares a change action,
// runs it with the new value. The returned result is nil when no action ran.
// A failing action does not undo the edit.
func (c *SettingsController) ApplyValue(ctx context.Context, groupID, settingID string, value interface{}) (*actions.Result, error) {
	c.mu.Lock()
	setting, err := c.setLocked(groupID, settingID, value)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if setting.ActionID == "" {
		c.mu.Unlock()
		return nil, nil
	}
	current, _ := c.values.Get(groupID, settingID)
	req := c.requestLocked(groupID, setting, current)
	c.mu.Unlock()

	result, err := c.dispatch(ctx, setting.ActionID, req)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *SettingsController) requestLocked(groupID string, setting settings.Setting, triggered interface{}) actions.Request {
	return actions.Request{
		Config:         c.values.Clone(),
		GroupID:        groupID,
		SettingID:      setting.ID,
		TriggeredValue: triggered,
		ActionData:     setting.ActionData,
	}
}

func (c *SettingsController) dispatch(ctx context.Context, actionID string, req actions.Request) (actions.Result, error) {
	result, err := c.dispatcher.Dispatch(ctx, actionID, req)
	if err != nil {
		c.logger.LogError(err, "Action failed", map[string]interface{}{
			"action":  actionID,
			"group":   req.GroupID,
			"setting": req.SettingID,
		})
		return actions.Result{}, err
	}

	c.logger.Log(ports.LogLevelInfo, "Action completed", map[string]interface{}{
		"action":  actionID,
		"message": result.Message,
	})
	return result, nil
}
