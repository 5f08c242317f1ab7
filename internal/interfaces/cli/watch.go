package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"localconfig.dev/cli/internal/core/settings"
	"localconfig.dev/cli/internal/infrastructure/watcher"
)

// NewWatchCommand creates the watch command
func NewWatchCommand(container *CLIContainer) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print settings changes made by other programs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := initializeSettings(ctx, container); err != nil {
				return err
			}

			path := container.Store.Path()
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return fmt.Errorf("failed to create settings directory: %w", err)
			}

			fw, err := watcher.NewFileWatcher(path, debounce, container.Logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", path)

			previous := container.Controller.EffectiveValues()
			return fw.Run(ctx, func() {
				if err := container.Controller.Reload(ctx); err != nil {
					fmt.Fprintln(out, errorStyle.Render("reload failed: "+err.Error()))
					return
				}

				current := container.Controller.EffectiveValues()
				changes := diffValues(previous, current)
				previous = current

				stamp := mutedStyle.Render(time.Now().Format("15:04:05"))
				if len(changes) == 0 {
					fmt.Fprintf(out, "%s settings file rewritten, no effective change\n", stamp)
					return
				}
				for _, change := range changes {
					fmt.Fprintf(out, "%s %s\n", stamp, change)
				}
			})
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", watcher.DefaultDebounce, "Wait this long for writes to settle")

	return cmd
}

// diffValues lists "group.setting: old → new" for every changed value
func diffValues(before, after settings.Values) []string {
	var changes []string
	for group, entries := range after {
		for id, value := range entries {
			old, _ := before.Get(group, id)
			if fmt.Sprint(old) != fmt.Sprint(value) {
				changes = append(changes, fmt.Sprintf("%s.%s: %s → %s", group, id, formatValue(old), formatValue(value)))
			}
		}
	}
	sort.Strings(changes)
	return changes
}
