package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"localconfig.dev/cli/internal/infrastructure/config"
)

// NewConfigCommand creates the config command
func NewConfigCommand(container *CLIContainer) *cobra.Command {
	var configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage lcfg's own configuration",
		Long: `Manage the configuration of lcfg itself: where settings are stored, where
the schema comes from and where action scripts are searched.

Values come from the TOML config file, then LCFG_* environment variables,
then command line flags.`,
	}

	configCmd.AddCommand(NewConfigShowCommand(container))
	configCmd.AddCommand(NewConfigPathCommand(container))
	configCmd.AddCommand(NewConfigInitCommand(container))

	return configCmd
}

// NewConfigShowCommand creates the show subcommand
func NewConfigShowCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			printConfig(cmd.OutOrStdout(), container.Config)
			return nil
		},
	}
}

func printConfig(out io.Writer, cfg *config.AppConfig) {
	fmt.Fprintln(out, "Current Configuration:")
	fmt.Fprintf(out, "Settings Path: %s\n", cfg.SettingsPath)
	fmt.Fprintf(out, "Schema Path: %s\n", orNotSet(cfg.SchemaPath))
	fmt.Fprintf(out, "Schema URL: %s\n", orNotSet(cfg.SchemaURL))
	fmt.Fprintf(out, "Schema Timeout: %s\n", cfg.SchemaTimeout)
	fmt.Fprintf(out, "Env Registry Path: %s\n", cfg.EnvRegistryPath)
	fmt.Fprintf(out, "Action Dirs: %s\n", strings.Join(cfg.ActionDirs, ", "))
	fmt.Fprintf(out, "Log Level: %s\n", cfg.LogLevel)
	fmt.Fprintf(out, "Debug: %t\n", cfg.Debug)
	fmt.Fprintf(out, "Backup On Save: %t\n", cfg.BackupOnSave)
	fmt.Fprintf(out, "Derive Identifiers: %t\n", cfg.DeriveIdentifiers)
}

func orNotSet(value string) string {
	if value == "" {
		return "(not set)"
	}
	return value
}

// NewConfigPathCommand creates the path subcommand
func NewConfigPathCommand(container *CLIContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := container.Config.ConfigFile
			if path == "" {
				path = config.NewLoader().DefaultConfigFile() + " (not created)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file path: %s\n", path)
			return nil
		},
	}
}

// NewConfigInitCommand creates the init subcommand
func NewConfigInitCommand(container *CLIContainer) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Write the current configuration as a TOML file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.NewLoader().DefaultConfigFile()
			if len(args) == 1 {
				path = args[0]
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			if err := container.Config.Save(path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	return cmd
}
