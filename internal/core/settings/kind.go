package settings

import "fmt"

// Kind identifies the value type and widget of a Setting
type Kind string

const (
	KindString  Kind = "string"
	KindBoolean Kind = "boolean"
	KindEnum    Kind = "enum"
	KindButton  Kind = "button"
	KindSpinbox Kind = "spinbox"
	KindDivider Kind = "divider"
)

// NewKind creates a Kind with validation
func NewKind(value string) (Kind, error) {
	switch Kind(value) {
	case KindString, KindBoolean, KindEnum, KindButton, KindSpinbox, KindDivider:
		return Kind(value), nil
	default:
		return "", fmt.Errorf("unknown setting type: %q", value)
	}
}

// String returns the string representation of Kind
func (k Kind) String() string {
	return string(k)
}

// Stored reports whether settings of this kind persist a value.
// Buttons and dividers are presentation only.
func (k Kind) Stored() bool {
	switch k {
	case KindString, KindBoolean, KindEnum, KindSpinbox:
		return true
	default:
		return false
	}
}

// PathType tells a presentation layer which browse dialog a path setting uses
type PathType string

const (
	PathTypeFolder PathType = "folder"
	PathTypeFile   PathType = "file"
)

// NewPathType creates a PathType, defaulting to folder when empty
func NewPathType(value string) (PathType, error) {
	switch PathType(value) {
	case "":
		return PathTypeFolder, nil
	case PathTypeFolder, PathTypeFile:
		return PathType(value), nil
	default:
		return "", fmt.Errorf("unknown path type: %q", value)
	}
}

// Orientation of a divider
type Orientation string

const (
	OrientationHorizontal Orientation = "horizontal"
	OrientationVertical   Orientation = "vertical"
)

// NewOrientation creates an Orientation, defaulting to horizontal when empty
func NewOrientation(value string) (Orientation, error) {
	switch Orientation(value) {
	case "":
		return OrientationHorizontal, nil
	case OrientationHorizontal, OrientationVertical:
		return Orientation(value), nil
	default:
		return "", fmt.Errorf("unknown divider orientation: %q", value)
	}
}
