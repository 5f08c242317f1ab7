package cli

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"localconfig.dev/cli/internal/application/services"
	"localconfig.dev/cli/internal/core/actions"
	"localconfig.dev/cli/internal/core/settings"
)

// NewShowCommand creates the show command
func NewShowCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "show [group]",
		Short: "Show the effective settings",
		Long: `Show the effective value of every setting: the stored value when it is
valid for the setting's kind, the declared default otherwise.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initializeSettings(cmd.Context(), container); err != nil {
				return err
			}

			schema := container.Controller.Schema()
			values := container.Controller.EffectiveValues()

			var blocks []string
			if len(args) == 1 {
				group, ok := schema.Group(args[0])
				if !ok {
					return fmt.Errorf("%w: %s", services.ErrUnknownGroup, args[0])
				}
				blocks = append(blocks, renderGroup(group, values))
			} else {
				blocks = append(blocks, titleStyle.Render(schema.MenuItemName))
				for _, group := range schema.Groups {
					blocks = append(blocks, renderGroup(group, values), "")
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), lipgloss.JoinVertical(lipgloss.Left, blocks...))
			return nil
		},
	}
}

// NewSetCommand creates the set command
func NewSetCommand(container *CLIContainer) *cobra.Command {
	var skipAction bool

	cmd := &cobra.Command{
		Use:   "set <group> <setting> <value>",
		Short: "Set and save a setting",
		Long: `Validate the value against the setting's kind, save it and run the
setting's change action if it declares one.

Examples:
  lcfg set general project_root /data/proj
  lcfg set user_settings render_threads 8
  lcfg set user_settings verbose_actions yes`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			groupID, settingID, text := args[0], args[1], args[2]

			if err := initializeSettings(ctx, container); err != nil {
				return err
			}

			setting, ok := container.Controller.Schema().Setting(groupID, settingID)
			if !ok {
				return &settings.InvalidValueError{Group: groupID, Setting: settingID, Value: text, Reason: "unknown setting"}
			}

			value, err := parseValue(setting, groupID, text)
			if err != nil {
				return err
			}

			var result *actions.Result
			var actionErr error
			if skipAction {
				err = container.Controller.SetValue(groupID, settingID, value)
			} else {
				result, err = container.Controller.ApplyValue(ctx, groupID, settingID, value)
			}
			if err != nil {
				if !isActionError(err) {
					return err
				}
				// the value was applied, only its change action failed
				actionErr = err
			}

			if err := container.Controller.Save(ctx); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✓ %s.%s = %s", groupID, settingID, formatValue(value))))
			if actionErr != nil {
				return fmt.Errorf("%s.%s was saved but %s failed: %w", groupID, settingID, setting.ActionID, actionErr)
			}
			if result != nil && result.Message != "" {
				fmt.Fprintf(out, "  %s: %s\n", setting.ActionID, result.Message)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipAction, "no-action", false, "Do not run the setting's change action")

	return cmd
}

// isActionError reports whether err comes from dispatching an action rather
// than from validating the value
func isActionError(err error) bool {
	return errors.Is(err, actions.ErrActionNotFound) ||
		errors.Is(err, actions.ErrAmbiguousAction) ||
		errors.Is(err, actions.ErrActionExecution)
}

// NewResetCommand creates the reset command
func NewResetCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <group>",
		Short: "Restore a group to its defaults",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initializeSettings(cmd.Context(), container); err != nil {
				return err
			}

			if err := container.Controller.RestoreGroupDefaults(cmd.Context(), args[0]); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("✓ %s restored to defaults", args[0])))
			return nil
		},
	}
}

// NewActivateCommand creates the activate command
func NewActivateCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "activate <setting> | <group> <setting>",
		Short: "Run the action of a button setting",
		Long: `Run the action a button setting refers to with the current settings.

A setting identifier present in several groups must be given with its group.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := startSession(ctx, container); err != nil {
				return err
			}

			var result actions.Result
			var err error
			if len(args) == 1 {
				result, err = container.Controller.ActivateButton(ctx, args[0])
			} else {
				result, err = container.Controller.ActivateGroupButton(ctx, args[0], args[1])
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result.Message != "" {
				fmt.Fprintln(out, successStyle.Render("✓ "+result.Message))
			} else {
				fmt.Fprintln(out, successStyle.Render("✓ done"))
			}
			for k, v := range result.Data {
				fmt.Fprintf(out, "  %s: %v\n", k, v)
			}
			return nil
		},
	}
}

// NewPathCommand creates the path command
func NewPathCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show the files lcfg uses",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			configFile := container.Config.ConfigFile
			if configFile == "" {
				configFile = "(none)"
			}

			fmt.Fprintf(out, "Settings file:     %s\n", container.Store.Path())
			fmt.Fprintf(out, "Schema source:     %s\n", container.Schema.Describe())
			fmt.Fprintf(out, "Env registry:      %s\n", container.Config.EnvRegistryPath)
			fmt.Fprintf(out, "Config file:       %s\n", configFile)
			for _, dir := range container.Config.ActionDirs {
				fmt.Fprintf(out, "Action directory:  %s\n", dir)
			}
			return nil
		},
	}
}

// NewBackupCommand creates the backup command
func NewBackupCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Copy the settings file to a timestamped backup",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := container.Store.Backup(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to back up settings: %w", err)
			}
			if path == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No settings file to back up")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s\n", path)
			return nil
		},
	}
}
