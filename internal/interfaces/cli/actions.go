package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"localconfig.dev/cli/internal/core/actions"
)

// NewActionsCommand creates the actions command
func NewActionsCommand(container *CLIContainer) *cobra.Command {
	actionsCmd := &cobra.Command{
		Use:   "actions",
		Short: "Inspect the available actions",
	}

	actionsCmd.AddCommand(newActionsListCommand(container))

	return actionsCmd
}

func newActionsListCommand(container *CLIContainer) *cobra.Command {
	var tag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			descriptors, err := container.Registry.Descriptors(cmd.Context(), tag)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(descriptors) == 0 {
				fmt.Fprintln(out, mutedStyle.Render("No actions found"))
				return nil
			}

			counts := make(map[string]int, len(descriptors))
			for _, d := range descriptors {
				counts[d.ID]++
			}

			header := titleStyle.Render(fmt.Sprintf("%-5s  %-32s  %-28s  %s", "ORDER", "ID", "LABEL", "SOURCE"))
			rows := []string{header}
			for _, d := range descriptors {
				row := fmt.Sprintf("%-5d  %-32s  %-28s  %s", d.Order, d.ID, truncateString(d.Label, 28), d.Source)
				if d.Has(actions.CapabilityConfigContext) {
					row += mutedStyle.Render("  [config]")
				}
				if counts[d.ID] > 1 {
					row = errorStyle.Render(row + "  (duplicate id)")
				} else if d.Color != "" {
					row = lipgloss.NewStyle().Foreground(lipgloss.Color(d.Color)).Render(row)
				}
				rows = append(rows, row)
			}

			fmt.Fprintln(out, strings.Join(rows, "\n"))
			return nil
		},
	}

	cmd.Flags().StringVar(&tag, "tag", actions.TagLocalConfig, "Only list actions declaring this capability tag")

	return cmd
}

// truncateString shortens s to n runes with an ellipsis
func truncateString(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
