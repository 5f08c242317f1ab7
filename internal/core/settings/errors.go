package settings

import (
	"errors"
	"fmt"
)

var (
	// ErrSchema matches every *SchemaError
	ErrSchema = errors.New("schema error")

	// ErrInvalidValue matches every *InvalidValueError
	ErrInvalidValue = errors.New("invalid value")
)

// SchemaError reports a malformed schema declaration. It is fatal to
// controller initialization.
type SchemaError struct {
	Group   string
	Setting string
	Reason  string
}

func (e *SchemaError) Error() string {
	switch {
	case e.Group != "" && e.Setting != "":
		return fmt.Sprintf("schema error: %s.%s: %s", e.Group, e.Setting, e.Reason)
	case e.Group != "":
		return fmt.Sprintf("schema error: %s: %s", e.Group, e.Reason)
	default:
		return fmt.Sprintf("schema error: %s", e.Reason)
	}
}

// Is lets errors.Is(err, ErrSchema) match
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

func schemaErrorf(group, setting, format string, args ...interface{}) *SchemaError {
	return &SchemaError{Group: group, Setting: setting, Reason: fmt.Sprintf(format, args...)}
}

// InvalidValueError reports an edit rejected by kind validation. The
// rejected edit never changes state.
type InvalidValueError struct {
	Group   string
	Setting string
	Value   interface{}
	Reason  string
}

func (e *InvalidValueError) Error() string {
	if e.Group == "" {
		return fmt.Sprintf("invalid value for %s: %s", e.Setting, e.Reason)
	}
	return fmt.Sprintf("invalid value for %s.%s: %s", e.Group, e.Setting, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidValue) match
func (e *InvalidValueError) Is(target error) bool {
	return target == ErrInvalidValue
}
