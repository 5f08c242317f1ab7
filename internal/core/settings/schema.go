// Package settings holds the settings model: the server-declared schema of
// groups and settings, and the pure operations that reconcile it with the
// locally stored values.
package settings

import (
	"fmt"
	"strconv"
	"strings"
)

// Default spinbox range when the schema leaves spinbox_range empty
const (
	DefaultSpinboxMin int64 = 0
	DefaultSpinboxMax int64 = 9999
)

// Group is a named collection of related settings, rendered as one tab
type Group struct {
	ID          string
	Title       string
	Description string
	Settings    []Setting
}

// Setting returns the setting with the given identifier
func (g Group) Setting(id string) (Setting, bool) {
	for _, s := range g.Settings {
		if s.ID == id {
			return s, true
		}
	}
	return Setting{}, false
}

// Defaults returns the default value of every stored setting in the group
func (g Group) Defaults() map[string]interface{} {
	defaults := make(map[string]interface{})
	for _, s := range g.Settings {
		if s.Stored() {
			defaults[s.ID] = s.Default
		}
	}
	return defaults
}

// Schema is the parsed, validated settings declaration for one session
type Schema struct {
	Enabled      bool
	MenuItemName string
	Groups       []Group
}

// Group returns the group with the given identifier
func (s *Schema) Group(id string) (Group, bool) {
	for _, g := range s.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return Group{}, false
}

// Setting returns a setting addressed by group and setting identifier
func (s *Schema) Setting(groupID, settingID string) (Setting, bool) {
	g, ok := s.Group(groupID)
	if !ok {
		return Setting{}, false
	}
	return g.Setting(settingID)
}

// SettingRef addresses a setting across groups
type SettingRef struct {
	GroupID string
	Setting Setting
}

// FindSetting returns every setting with the given identifier, in schema order
func (s *Schema) FindSetting(settingID string) []SettingRef {
	var refs []SettingRef
	for _, g := range s.Groups {
		if setting, ok := g.Setting(settingID); ok {
			refs = append(refs, SettingRef{GroupID: g.ID, Setting: setting})
		}
	}
	return refs
}

// Defaults returns the defaults of every group
func (s *Schema) Defaults() Values {
	return MergeWithDefaults(nil, s.Groups)
}

type parseOptions struct {
	deriveIdentifiers bool
}

// ParseOption configures Parse
type ParseOption func(*parseOptions)

// WithDerivedIdentifiers fills in missing identifiers the way the settings
// server's clients always have: group IDs from the group name, setting IDs
// from their position ("setting_<index>").
func WithDerivedIdentifiers() ParseOption {
	return func(o *parseOptions) {
		o.deriveIdentifiers = true
	}
}

// Parse validates a raw schema and builds its typed groups. It performs no
// I/O and fails with a *SchemaError on the first problem found.
func Parse(raw RawSchema, opts ...ParseOption) (*Schema, error) {
	var o parseOptions
	for _, opt := range opts {
		opt(&o)
	}

	schema := &Schema{
		Enabled:      raw.Enabled == nil || *raw.Enabled,
		MenuItemName: raw.MenuItemName,
		Groups:       make([]Group, 0, len(raw.Groups)),
	}
	if schema.MenuItemName == "" {
		schema.MenuItemName = "User Config"
	}

	seenGroups := make(map[string]bool, len(raw.Groups))
	for _, rg := range raw.Groups {
		if rg.Enabled != nil && !*rg.Enabled {
			continue
		}

		id := rg.ID
		if id == "" && o.deriveIdentifiers {
			id = DeriveGroupID(rg.Name)
		}
		if id == "" {
			return nil, schemaErrorf("", "", "group %q has an empty identifier", rg.Name)
		}
		if seenGroups[id] {
			return nil, schemaErrorf(id, "", "duplicate group identifier")
		}
		seenGroups[id] = true

		group, err := parseGroup(id, rg, o)
		if err != nil {
			return nil, err
		}
		schema.Groups = append(schema.Groups, group)
	}

	return schema, nil
}

func parseGroup(id string, rg RawGroup, o parseOptions) (Group, error) {
	title := rg.Name
	if title == "" {
		title = id
	}
	group := Group{
		ID:          id,
		Title:       title,
		Description: rg.Description,
		Settings:    make([]Setting, 0, len(rg.Settings)),
	}

	seen := make(map[string]bool, len(rg.Settings))
	for i, rs := range rg.Settings {
		settingID := rs.ID
		if settingID == "" && o.deriveIdentifiers {
			settingID = fmt.Sprintf("setting_%d", i)
		}
		if settingID == "" {
			return Group{}, schemaErrorf(id, "", "setting %d (%q) has an empty identifier", i, rs.Label)
		}
		if seen[settingID] {
			return Group{}, schemaErrorf(id, settingID, "duplicate setting identifier")
		}
		seen[settingID] = true

		setting, err := parseSetting(id, settingID, rs)
		if err != nil {
			return Group{}, err
		}
		group.Settings = append(group.Settings, setting)
	}

	return group, nil
}

func parseSetting(groupID, id string, rs RawSetting) (Setting, error) {
	kind, err := NewKind(rs.Type)
	if err != nil {
		return Setting{}, schemaErrorf(groupID, id, "%v", err)
	}

	setting := Setting{
		ID:         id,
		Kind:       kind,
		Label:      rs.Label,
		Tooltip:    rs.Tooltip,
		ActionID:   strings.TrimSpace(rs.action()),
		ActionData: rs.ActionData,
	}

	switch kind {
	case KindString:
		pathType, err := NewPathType(rs.PathType)
		if err != nil {
			return Setting{}, schemaErrorf(groupID, id, "%v", err)
		}
		setting.IsPath = rs.IsPath
		setting.PathType = pathType

		switch d := rs.Default.(type) {
		case nil:
			setting.Default = ""
		case string:
			setting.Default = d
		default:
			return Setting{}, schemaErrorf(groupID, id, "string default has type %T", rs.Default)
		}

	case KindBoolean:
		b, err := decodeBoolDefault(rs.Default)
		if err != nil {
			return Setting{}, schemaErrorf(groupID, id, "%v", err)
		}
		setting.Default = b

	case KindEnum:
		if len(rs.EnumOptions) == 0 {
			return Setting{}, schemaErrorf(groupID, id, "enum has no options")
		}
		setting.Options = make([]EnumOption, 0, len(rs.EnumOptions))
		for _, opt := range rs.EnumOptions {
			setting.Options = append(setting.Options, EnumOption{Value: opt.Value, Label: opt.Label})
		}

		switch d := rs.Default.(type) {
		case nil:
			setting.Default = setting.Options[0].Value
		case string:
			if d == "" && !setting.HasOption(d) {
				setting.Default = setting.Options[0].Value
				break
			}
			if !setting.HasOption(d) {
				return Setting{}, schemaErrorf(groupID, id, "enum default %q is not one of its options", d)
			}
			setting.Default = d
		default:
			return Setting{}, schemaErrorf(groupID, id, "enum default has type %T", rs.Default)
		}

	case KindSpinbox:
		min, max, err := parseSpinboxRange(rs.SpinboxRange)
		if err != nil {
			return Setting{}, schemaErrorf(groupID, id, "%v", err)
		}
		setting.Min, setting.Max = min, max

		n, err := decodeIntDefault(rs.Default, min)
		if err != nil {
			return Setting{}, schemaErrorf(groupID, id, "%v", err)
		}
		if n < min || n > max {
			return Setting{}, schemaErrorf(groupID, id, "spinbox default %d is outside range %d-%d", n, min, max)
		}
		setting.Default = n

	case KindButton:
		if setting.ActionID == "" {
			return Setting{}, schemaErrorf(groupID, id, "button has an empty action_id")
		}

	case KindDivider:
		orientation, err := NewOrientation(rs.DividerOrientation)
		if err != nil {
			return Setting{}, schemaErrorf(groupID, id, "%v", err)
		}
		setting.Orientation = orientation
		setting.ActionID = ""
		setting.ActionData = ""
	}

	return setting, nil
}

// decodeBoolDefault accepts a JSON bool or the textual forms the settings
// server stores ("true"/"false", "1"/"0", "yes"/"no", "on"/"off").
func decodeBoolDefault(value interface{}) (bool, error) {
	switch v := value.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		b, ok := ParseBool(v)
		if !ok {
			return false, fmt.Errorf("boolean default %q is not a boolean", v)
		}
		return b, nil
	default:
		return false, fmt.Errorf("boolean default has type %T", value)
	}
}

// ParseBool parses the textual boolean forms accepted in schemas and on the
// command line. The empty string is false.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true, true
	case "false", "0", "no", "off", "":
		return false, true
	default:
		return false, false
	}
}

func decodeIntDefault(value interface{}, fallback int64) (int64, error) {
	switch v := value.(type) {
	case nil:
		return fallback, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return fallback, nil
		}
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("spinbox default %q is not an integer", v)
		}
		return n, nil
	default:
		n, ok := toInt64(value)
		if !ok {
			return 0, fmt.Errorf("spinbox default has type %T", value)
		}
		return n, nil
	}
}

// parseSpinboxRange parses "min-max". Negative bounds are written with a
// leading minus, e.g. "-10-10".
func parseSpinboxRange(s string) (int64, int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultSpinboxMin, DefaultSpinboxMax, nil
	}

	sep := strings.Index(s[1:], "-")
	if sep < 0 {
		return 0, 0, fmt.Errorf("spinbox range %q must be min-max", s)
	}
	sep++

	min, err := strconv.ParseInt(strings.TrimSpace(s[:sep]), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("spinbox range %q has an invalid minimum", s)
	}
	max, err := strconv.ParseInt(strings.TrimSpace(s[sep+1:]), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("spinbox range %q has an invalid maximum", s)
	}
	if min > max {
		return 0, 0, fmt.Errorf("spinbox range %q has min greater than max", s)
	}
	return min, max, nil
}

// DeriveGroupID builds a group identifier from its display name
func DeriveGroupID(name string) string {
	id := strings.ToLower(strings.TrimSpace(name))
	id = strings.ReplaceAll(id, " ", "_")
	return strings.ReplaceAll(id, "-", "_")
}
