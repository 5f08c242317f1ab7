package settings

import (
	"encoding/json"
	"fmt"
	"math"
)

// EnumOption is one choice of an enum setting
type EnumOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Setting is one configurable value of a specific kind within a Group
type Setting struct {
	ID      string
	Kind    Kind
	Label   string
	Tooltip string

	// Default is a string, bool or int64 depending on Kind, nil for
	// buttons and dividers.
	Default interface{}

	// string
	IsPath   bool
	PathType PathType

	// enum
	Options []EnumOption

	// spinbox
	Min int64
	Max int64

	// divider
	Orientation Orientation

	// ActionID names the action a button runs on activation. Other stored
	// kinds may also carry one; it runs after a value change.
	ActionID   string
	ActionData string
}

// Stored reports whether the setting persists a value
func (s Setting) Stored() bool {
	return s.Kind.Stored()
}

// HasOption reports whether value is one of the enum option values
func (s Setting) HasOption(value string) bool {
	for _, opt := range s.Options {
		if opt.Value == value {
			return true
		}
	}
	return false
}

// Normalize converts value into the canonical Go type for the setting's kind
// and reports whether it is acceptable. JSON numbers decoded as float64 are
// accepted for spinbox settings when integral.
func (s Setting) Normalize(value interface{}) (interface{}, bool) {
	_, normalized, ok := s.check(value)
	return normalized, ok
}

// Validate returns an *InvalidValueError when value does not fit the
// setting's kind, and the normalized value otherwise.
func (s Setting) Validate(group string, value interface{}) (interface{}, error) {
	reason, normalized, ok := s.check(value)
	if !ok {
		return nil, &InvalidValueError{Group: group, Setting: s.ID, Value: value, Reason: reason}
	}
	return normalized, nil
}

func (s Setting) check(value interface{}) (string, interface{}, bool) {
	switch s.Kind {
	case KindString:
		str, ok := value.(string)
		if !ok {
			return fmt.Sprintf("expected string, got %T", value), nil, false
		}
		return "", str, true

	case KindBoolean:
		b, ok := value.(bool)
		if !ok {
			return fmt.Sprintf("expected boolean, got %T", value), nil, false
		}
		return "", b, true

	case KindEnum:
		str, ok := value.(string)
		if !ok {
			return fmt.Sprintf("expected string option, got %T", value), nil, false
		}
		if !s.HasOption(str) {
			return fmt.Sprintf("%q is not one of the declared options", str), nil, false
		}
		return "", str, true

	case KindSpinbox:
		n, ok := toInt64(value)
		if !ok {
			return fmt.Sprintf("expected integer, got %T", value), nil, false
		}
		if n < s.Min || n > s.Max {
			return fmt.Sprintf("%d is outside range %d-%d", n, s.Min, s.Max), nil, false
		}
		return "", n, true

	default:
		return fmt.Sprintf("%s settings do not hold a value", s.Kind), nil, false
	}
}

func toInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v != math.Trunc(v) || v >= math.MaxInt64 || v < math.MinInt64 {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	default:
		return 0, false
	}
}
