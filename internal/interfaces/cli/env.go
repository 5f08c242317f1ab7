package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// NewEnvCommand creates the env command
func NewEnvCommand(container *CLIContainer) *cobra.Command {
	envCmd := &cobra.Command{
		Use:   "env",
		Short: "Manage environment variables registered by actions",
	}

	envCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered variables",
		RunE: func(cmd *cobra.Command, args []string) error {
			vars, err := container.Env.List()
			if err != nil {
				return fmt.Errorf("failed to list environment variables: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(vars) == 0 {
				fmt.Fprintln(out, mutedStyle.Render("No registered variables"))
				return nil
			}

			names := make([]string, 0, len(vars))
			for name := range vars {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				fmt.Fprintf(out, "%s=%s\n", keyStyle.Render(name), vars[name])
			}
			return nil
		},
	})

	envCmd.AddCommand(&cobra.Command{
		Use:   "restore",
		Short: "Print export lines for every registered variable",
		Long: `Apply the registered variables to lcfg's own environment and print them as
shell export lines, e.g. eval "$(lcfg env restore)".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := container.Env.Restore(); err != nil {
				return fmt.Errorf("failed to restore environment variables: %w", err)
			}

			vars, err := container.Env.List()
			if err != nil {
				return fmt.Errorf("failed to list environment variables: %w", err)
			}

			names := make([]string, 0, len(vars))
			for name := range vars {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "export %s=%q\n", name, vars[name])
			}
			return nil
		},
	})

	envCmd.AddCommand(&cobra.Command{
		Use:   "unset <name>",
		Short: "Forget a registered variable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := container.Env.Unregister(args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓ "+args[0]+" unset"))
			return nil
		},
	})

	return envCmd
}
