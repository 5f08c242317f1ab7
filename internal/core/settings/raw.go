package settings

import (
	"encoding/json"
	"fmt"
)

// RawSchema is the server-declared settings document after JSON decoding.
// Field names follow the server's settings model.
type RawSchema struct {
	Enabled      *bool      `json:"enabled,omitempty"`
	MenuItemName string     `json:"menu_item_name,omitempty"`
	Groups       []RawGroup `json:"tab_groups"`
}

// RawGroup is one declared tab of settings
type RawGroup struct {
	ID          string       `json:"id,omitempty"`
	Enabled     *bool        `json:"enabled,omitempty"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Settings    []RawSetting `json:"settings"`
}

// RawSetting is one declared setting. Default holds whatever the JSON
// decoder produced; the server encodes every default as a string.
type RawSetting struct {
	ID                 string      `json:"id,omitempty"`
	Type               string      `json:"type"`
	Label              string      `json:"label"`
	Tooltip            string      `json:"tooltip,omitempty"`
	Default            interface{} `json:"default_value,omitempty"`
	IsPath             bool        `json:"is_path,omitempty"`
	PathType           string      `json:"path_type,omitempty"`
	EnumOptions        []RawOption `json:"enum_options,omitempty"`
	ActionID           string      `json:"action_id,omitempty"`
	ActionName         string      `json:"action_name,omitempty"`
	ActionData         string      `json:"action_data,omitempty"`
	SpinboxRange       string      `json:"spinbox_range,omitempty"`
	DividerOrientation string      `json:"divider_orientation,omitempty"`
}

// action returns the declared action identifier. action_id wins over the
// older action_name field.
func (r RawSetting) action() string {
	if r.ActionID != "" {
		return r.ActionID
	}
	return r.ActionName
}

// RawOption is an enum option declared either as a plain string or as a
// {"value": ..., "label": ...} object.
type RawOption struct {
	Value string `json:"value"`
	Label string `json:"label,omitempty"`
}

// UnmarshalJSON accepts both option encodings
func (o *RawOption) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		o.Value = plain
		o.Label = plain
		return nil
	}

	type rawOption RawOption
	var obj rawOption
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("enum option must be a string or an object: %w", err)
	}
	if obj.Label == "" {
		obj.Label = obj.Value
	}
	*o = RawOption(obj)
	return nil
}

// DecodeRawSchema decodes a JSON settings document
func DecodeRawSchema(data []byte) (RawSchema, error) {
	var raw RawSchema
	if err := json.Unmarshal(data, &raw); err != nil {
		return RawSchema{}, fmt.Errorf("failed to decode schema: %w", err)
	}
	return raw, nil
}
