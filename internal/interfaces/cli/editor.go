package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"localconfig.dev/cli/internal/application/services"
	"localconfig.dev/cli/internal/core/settings"
)

// NewEditCommand creates the edit command
func NewEditCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Interactive terminal settings editor",
		Long: `Launch an interactive editor for every group of the schema.

Keys:
  ↑/↓ or j/k   move between settings
  enter/space  toggle a boolean, cycle an enum, edit text, run a button
  ←/→          previous/next enum option, decrement/increment a spinbox
  s            save
  r            restore the current group to its defaults
  q            quit (asks again when there are unsaved edits)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := startSession(ctx, container); err != nil {
				return err
			}

			model := newEditorModel(ctx, container.Controller)
			program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

			if _, err := program.Run(); err != nil {
				return fmt.Errorf("editor failed: %w", err)
			}

			return nil
		},
	}
}

// editorRow is a group header or a setting line
type editorRow struct {
	group   settings.Group
	setting settings.Setting
	header  bool
}

func (r editorRow) selectable() bool {
	return !r.header && r.setting.Kind != settings.KindDivider
}

// editorModel holds the state for the Bubble Tea editor
type editorModel struct {
	ctx        context.Context
	controller *services.SettingsController

	rows   []editorRow
	cursor int

	editing bool
	input   []rune

	status      string
	statusErr   bool
	confirmQuit bool

	windowWidth  int
	windowHeight int
}

// resultMsg is sent when a controller operation finished
type resultMsg struct {
	status string
	err    error
}

func newEditorModel(ctx context.Context, controller *services.SettingsController) editorModel {
	m := editorModel{ctx: ctx, controller: controller}

	for _, group := range controller.Schema().Groups {
		m.rows = append(m.rows, editorRow{group: group, header: true})
		for _, s := range group.Settings {
			m.rows = append(m.rows, editorRow{group: group, setting: s})
		}
	}

	m.cursor = -1
	m.moveCursor(1)
	return m
}

// Init implements the Bubble Tea init method
func (m editorModel) Init() tea.Cmd {
	return nil
}

// Update implements the Bubble Tea update method
func (m editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		return m, nil

	case resultMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			m.statusErr = true
		} else {
			m.status = msg.status
			m.statusErr = false
		}
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateBrowsing(msg)
	}

	return m, nil
}

func (m editorModel) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key != "q" {
		m.confirmQuit = false
	}

	switch key {
	case "ctrl+c":
		return m, tea.Quit

	case "q":
		if m.controller.Dirty() && !m.confirmQuit {
			m.confirmQuit = true
			m.status = "Unsaved changes. Press q again to quit without saving, s to save."
			m.statusErr = true
			return m, nil
		}
		return m, tea.Quit

	case "up", "k":
		m.moveCursor(-1)
		return m, nil

	case "down", "j":
		m.moveCursor(1)
		return m, nil

	case "s":
		return m, m.saveCmd()

	case "r":
		if row, ok := m.current(); ok {
			return m, m.restoreCmd(row.group.ID)
		}
		return m, nil

	case "left", "h":
		return m, m.step(-1)

	case "right", "l":
		return m, m.step(1)

	case "enter", " ":
		return m.activate()
	}

	return m, nil
}

func (m editorModel) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.editing = false
		m.input = nil
		return m, nil

	case tea.KeyEnter:
		m.editing = false
		row, ok := m.current()
		if !ok {
			return m, nil
		}
		value, err := parseValue(row.setting, row.group.ID, string(m.input))
		m.input = nil
		if err != nil {
			return m, func() tea.Msg { return resultMsg{err: err} }
		}
		return m, m.applyCmd(row, value)

	case tea.KeyBackspace:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
		return m, nil

	case tea.KeyCtrlC:
		return m, tea.Quit

	case tea.KeyRunes, tea.KeySpace:
		m.input = append(m.input, msg.Runes...)
		return m, nil
	}

	return m, nil
}

// activate performs the default action of the selected row
func (m editorModel) activate() (tea.Model, tea.Cmd) {
	row, ok := m.current()
	if !ok {
		return m, nil
	}

	value, _ := m.controller.EffectiveValues().Get(row.group.ID, row.setting.ID)

	switch row.setting.Kind {
	case settings.KindBoolean:
		b, _ := value.(bool)
		return m, m.applyCmd(row, !b)

	case settings.KindEnum:
		return m, m.step(1)

	case settings.KindButton:
		return m, m.activateCmd(row)

	case settings.KindString, settings.KindSpinbox:
		m.editing = true
		if value == nil {
			m.input = nil
		} else {
			m.input = []rune(fmt.Sprint(value))
		}
		return m, nil
	}

	return m, nil
}

// step moves an enum to a neighbouring option or a spinbox by one
func (m editorModel) step(delta int) tea.Cmd {
	row, ok := m.current()
	if !ok {
		return nil
	}

	value, _ := m.controller.EffectiveValues().Get(row.group.ID, row.setting.ID)

	switch row.setting.Kind {
	case settings.KindEnum:
		options := row.setting.Options
		if len(options) == 0 {
			return nil
		}
		idx := 0
		for i, o := range options {
			if o.Value == value {
				idx = i
				break
			}
		}
		idx = (idx + delta + len(options)) % len(options)
		return m.applyCmd(row, options[idx].Value)

	case settings.KindSpinbox:
		n, _ := value.(int64)
		next := n + int64(delta)
		if next < row.setting.Min || next > row.setting.Max {
			return nil
		}
		return m.applyCmd(row, next)
	}

	return nil
}

func (m *editorModel) moveCursor(delta int) {
	for i := m.cursor + delta; i >= 0 && i < len(m.rows); i += delta {
		if m.rows[i].selectable() {
			m.cursor = i
			return
		}
	}
}

func (m editorModel) current() (editorRow, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return editorRow{}, false
	}
	return m.rows[m.cursor], true
}

func (m editorModel) applyCmd(row editorRow, value interface{}) tea.Cmd {
	return func() tea.Msg {
		result, err := m.controller.ApplyValue(m.ctx, row.group.ID, row.setting.ID, value)
		if err != nil {
			return resultMsg{err: err}
		}
		status := fmt.Sprintf("%s = %s (unsaved)", row.setting.ID, formatValue(value))
		if result != nil && result.Message != "" {
			status += " · " + result.Message
		}
		return resultMsg{status: status}
	}
}

func (m editorModel) activateCmd(row editorRow) tea.Cmd {
	return func() tea.Msg {
		result, err := m.controller.ActivateGroupButton(m.ctx, row.group.ID, row.setting.ID)
		if err != nil {
			return resultMsg{err: err}
		}
		status := result.Message
		if status == "" {
			status = row.setting.ActionID + " done"
		}
		return resultMsg{status: status}
	}
}

func (m editorModel) saveCmd() tea.Cmd {
	return func() tea.Msg {
		if err := m.controller.Save(m.ctx); err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{status: "Saved"}
	}
}

func (m editorModel) restoreCmd(groupID string) tea.Cmd {
	return func() tea.Msg {
		if err := m.controller.RestoreGroupDefaults(m.ctx, groupID); err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{status: groupID + " restored to defaults"}
	}
}

// View implements the Bubble Tea view method
func (m editorModel) View() string {
	header := m.renderHeader()
	body := m.renderRows()
	footer := m.renderFooter()

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m editorModel) renderHeader() string {
	title := titleStyle.Render(m.controller.Schema().MenuItemName)

	state := m.controller.State().String()
	stateStyle := successStyle
	if m.controller.Dirty() {
		state += " *"
		stateStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	}

	return lipgloss.JoinHorizontal(lipgloss.Left, title, "  ", stateStyle.Render(state)) + "\n"
}

func (m editorModel) renderRows() string {
	values := m.controller.EffectiveValues()
	selected := lipgloss.NewStyle().Background(lipgloss.Color("240"))

	lines := make([]string, 0, len(m.rows))
	for i, row := range m.rows {
		if row.header {
			if i > 0 {
				lines = append(lines, "")
			}
			lines = append(lines, groupStyle.Render(row.group.Title))
			continue
		}

		s := row.setting
		label := s.Label
		if label == "" {
			label = s.ID
		}

		var line string
		switch s.Kind {
		case settings.KindDivider:
			lines = append(lines, mutedStyle.Render("  "+strings.Repeat("─", 40)))
			continue
		case settings.KindButton:
			line = fmt.Sprintf("  %s", buttonStyle.Render("[ "+label+" ]"))
		default:
			value, _ := values.Get(row.group.ID, s.ID)
			shown := formatValue(value)
			if m.editing && i == m.cursor {
				shown = string(m.input) + "█"
			}
			line = fmt.Sprintf("  %-28s %s", truncateString(label, 28), valueStyle.Render(shown))
		}

		if i == m.cursor {
			line = selected.Render(line)
		}
		lines = append(lines, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m editorModel) renderFooter() string {
	var lines []string

	if row, ok := m.current(); ok && row.setting.Tooltip != "" {
		lines = append(lines, "", mutedStyle.Render(row.setting.Tooltip))
	}

	if m.status != "" {
		style := successStyle
		if m.statusErr {
			style = errorStyle
		}
		lines = append(lines, "", style.Render(m.status))
	}

	controls := "Controls: [↑↓] Navigate | [Enter] Edit/Run | [←→] Step | [s] Save | [r] Restore group | [q] Quit"
	if m.editing {
		controls = "Editing: [Enter] Apply | [Esc] Cancel"
	}
	lines = append(lines, "", mutedStyle.Render(controls))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
