package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"localconfig.dev/cli/internal/application/ports"
	"localconfig.dev/cli/internal/application/services"
	"localconfig.dev/cli/internal/core/actions"
	"localconfig.dev/cli/internal/infrastructure/config"
)

var (
	Version   = "dev"     // Overridden by ldflags
	BuildTime = "unknown" // Overridden by ldflags
)

// CLIContainer holds all the dependencies for CLI commands
type CLIContainer struct {
	Config     *config.AppConfig
	Logger     ports.LoggingGateway
	Controller *services.SettingsController
	Startup    *services.StartupService
	Registry   *actions.Registry
	Store      ports.ValueStore
	Env        ports.EnvironmentRegistry
	Schema     ports.SchemaSource

	MainContainer interface{} // Will be set to *di.Container, avoiding circular import
}

// Overrides are the persistent flags that take precedence over the config
// file and environment
type Overrides struct {
	ConfigFile   string
	SettingsPath string
	SchemaPath   string
	SchemaURL    string
	Debug        bool
}

// NewRootCommand RootCommand represents the base command when called without any subcommands
func NewRootCommand(container *CLIContainer) *cobra.Command {
	var rootCmd = &cobra.Command{
		Use:   "lcfg",
		Short: "lcfg - local settings editor with server-declared schemas",
		Long: `lcfg edits locally stored settings whose groups, kinds and defaults are
declared by a settings server, and runs the actions that button settings
refer to.

Actions come from the built-in set and from action_*.lua and action_*.js
scripts in the configured action directories.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := applyConfigurationOverrides(cmd, container); err != nil {
				return fmt.Errorf("failed to apply configuration overrides: %w", err)
			}
			return nil
		},
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} version {{.Version}}\nBuild time: %s\nGo version: %s\nPlatform: %s/%s\n",
		BuildTime, goVersion(), runtime.GOOS, runtime.GOARCH))

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("config", "", "Config file path (default is $HOME/.localconfig/config.toml)")
	rootCmd.PersistentFlags().String("settings", "", "Settings file path")
	rootCmd.PersistentFlags().String("schema", "", "Schema file path")
	rootCmd.PersistentFlags().String("schema-url", "", "Settings server URL serving the schema")

	rootCmd.AddCommand(NewShowCommand(container))
	rootCmd.AddCommand(NewSetCommand(container))
	rootCmd.AddCommand(NewResetCommand(container))
	rootCmd.AddCommand(NewActivateCommand(container))
	rootCmd.AddCommand(NewActionsCommand(container))
	rootCmd.AddCommand(NewSchemaCommand(container))
	rootCmd.AddCommand(NewPathCommand(container))
	rootCmd.AddCommand(NewBackupCommand(container))
	rootCmd.AddCommand(NewEnvCommand(container))
	rootCmd.AddCommand(NewWatchCommand(container))
	rootCmd.AddCommand(NewEditCommand(container))
	rootCmd.AddCommand(NewConfigCommand(container))

	return rootCmd
}

// goVersion returns the Go version used to build the binary
func goVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.GoVersion
	}
	return "unknown"
}

// applyConfigurationOverrides hands the persistent flags to the main
// container, which builds the services from them
func applyConfigurationOverrides(cmd *cobra.Command, container *CLIContainer) error {
	mainContainer, ok := container.MainContainer.(interface {
		Configure(ctx context.Context, overrides Overrides) error
	})
	if !ok {
		// Silently continue if container doesn't support overrides
		return nil
	}

	flags := cmd.Flags()
	overrides := Overrides{}
	overrides.ConfigFile, _ = flags.GetString("config")
	overrides.SettingsPath, _ = flags.GetString("settings")
	overrides.SchemaPath, _ = flags.GetString("schema")
	overrides.SchemaURL, _ = flags.GetString("schema-url")
	overrides.Debug, _ = flags.GetBool("debug")

	return mainContainer.Configure(cmd.Context(), overrides)
}

// initializeSettings fetches the schema and loads the controller
func initializeSettings(ctx context.Context, container *CLIContainer) error {
	raw, err := container.Schema.FetchSchema(ctx)
	if err != nil {
		return fmt.Errorf("failed to load schema from %s: %w", container.Schema.Describe(), err)
	}

	if err := container.Controller.Initialize(ctx, raw); err != nil {
		return fmt.Errorf("failed to initialize settings: %w", err)
	}

	return nil
}

// startSession initializes the settings and re-applies the session state the
// actions left behind
func startSession(ctx context.Context, container *CLIContainer) error {
	if err := initializeSettings(ctx, container); err != nil {
		return err
	}

	if container.Startup != nil {
		if err := container.Startup.Run(ctx); err != nil {
			container.Logger.LogError(err, "Startup actions failed", nil)
		}
	}

	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(ctx context.Context, container *CLIContainer) {
	rootCmd := NewRootCommand(container)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
