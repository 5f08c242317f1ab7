package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"localconfig.dev/cli/internal/core/settings"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	groupStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	keyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("229"))
	buttonStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("117"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// parseValue converts command line text into the value type of the setting
func parseValue(setting settings.Setting, group, text string) (interface{}, error) {
	switch setting.Kind {
	case settings.KindBoolean:
		b, ok := settings.ParseBool(text)
		if !ok {
			return nil, &settings.InvalidValueError{Group: group, Setting: setting.ID, Value: text, Reason: "expected true or false"}
		}
		return b, nil

	case settings.KindSpinbox:
		n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			return nil, &settings.InvalidValueError{Group: group, Setting: setting.ID, Value: text, Reason: "expected an integer"}
		}
		return n, nil

	default:
		return text, nil
	}
}

// formatValue renders a value for display
func formatValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "(not set)"
	case string:
		if v == "" {
			return `""`
		}
		return v
	default:
		return fmt.Sprint(v)
	}
}

// describeKind renders the kind with its payload, e.g. "spinbox 1-64"
func describeKind(s settings.Setting) string {
	switch s.Kind {
	case settings.KindEnum:
		values := make([]string, 0, len(s.Options))
		for _, o := range s.Options {
			values = append(values, o.Value)
		}
		return fmt.Sprintf("enum: %s", strings.Join(values, "|"))
	case settings.KindSpinbox:
		return fmt.Sprintf("spinbox %d-%d", s.Min, s.Max)
	case settings.KindString:
		if s.IsPath {
			return fmt.Sprintf("%s path", s.PathType)
		}
		return "string"
	default:
		return s.Kind.String()
	}
}

// renderGroup renders one group with the effective values
func renderGroup(group settings.Group, values settings.Values) string {
	lines := []string{groupStyle.Render(fmt.Sprintf("[%s] %s", group.ID, group.Title))}
	if group.Description != "" {
		lines = append(lines, mutedStyle.Render("  "+group.Description))
	}

	width := 0
	for _, s := range group.Settings {
		if len(s.ID) > width {
			width = len(s.ID)
		}
	}

	for _, s := range group.Settings {
		name := keyStyle.Render(fmt.Sprintf("  %-*s", width, s.ID))

		switch s.Kind {
		case settings.KindDivider:
			lines = append(lines, mutedStyle.Render("  "+strings.Repeat("─", width+12)))
		case settings.KindButton:
			lines = append(lines, fmt.Sprintf("%s   %s", name, buttonStyle.Render("["+s.Label+" → "+s.ActionID+"]")))
		default:
			value, _ := values.Get(group.ID, s.ID)
			line := fmt.Sprintf("%s = %s  %s", name, valueStyle.Render(formatValue(value)), mutedStyle.Render("("+describeKind(s)+")"))
			if s.ActionID != "" {
				line += mutedStyle.Render(" on change: " + s.ActionID)
			}
			lines = append(lines, line)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
