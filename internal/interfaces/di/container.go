package di

import (
	"context"
	"fmt"
	"strings"

	"localconfig.dev/cli/internal/application/ports"
	"localconfig.dev/cli/internal/application/services"
	"localconfig.dev/cli/internal/core/actions"
	"localconfig.dev/cli/internal/core/settings"
	"localconfig.dev/cli/internal/infrastructure/actions/builtin"
	"localconfig.dev/cli/internal/infrastructure/actions/js"
	"localconfig.dev/cli/internal/infrastructure/actions/lua"
	"localconfig.dev/cli/internal/infrastructure/actions/scripts"
	"localconfig.dev/cli/internal/infrastructure/config"
	"localconfig.dev/cli/internal/infrastructure/envregistry"
	"localconfig.dev/cli/internal/infrastructure/logging"
	"localconfig.dev/cli/internal/infrastructure/schema"
	"localconfig.dev/cli/internal/infrastructure/storage"
	"localconfig.dev/cli/internal/interfaces/cli"
)

// Container holds all application dependencies
type Container struct {
	// Configuration
	Loader *config.Loader
	Config *config.AppConfig

	// Infrastructure
	Logger  *logging.ZapGateway
	Store   *storage.FileStore
	Env     *envregistry.FileRegistry
	Schema  ports.SchemaSource
	Opener  builtin.Opener
	Scripts *scripts.Discovery

	// Core
	Registry   *actions.Registry
	Dispatcher *actions.Dispatcher

	// Application services
	Controller *services.SettingsController
	Startup    *services.StartupService

	// CLI
	CLIContainer *cli.CLIContainer
}

// Option configures a Container
type Option func(*Container)

// WithLoader replaces the configuration loader
func WithLoader(loader *config.Loader) Option {
	return func(c *Container) {
		c.Loader = loader
	}
}

// WithOpener replaces the function that shows folders to the user
func WithOpener(opener builtin.Opener) Option {
	return func(c *Container) {
		c.Opener = opener
	}
}

// NewContainer creates the dependency injection container. Services are
// built by Configure once the command line flags are known.
func NewContainer(opts ...Option) *Container {
	c := &Container{
		Loader: config.NewLoader(),
		Logger: logging.NewZapGateway(ports.LogLevelInfo),
		Opener: builtin.SystemOpener,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.CLIContainer = &cli.CLIContainer{
		Logger:        c.Logger,
		MainContainer: c, // Reference to self for Configure
	}
	return c
}

// Configure loads the configuration with the flag overrides applied and
// initializes all components with proper dependencies
func (c *Container) Configure(ctx context.Context, overrides cli.Overrides) error {
	// 1. Load configuration
	cfg, err := c.Loader.Load(overrides.ConfigFile)
	if err != nil {
		return err
	}
	applyOverrides(cfg, overrides)

	// 2. Logging
	level, ok := ports.NewLogLevel(cfg.EffectiveLogLevel())
	if !ok {
		level = ports.LogLevelInfo
	}
	c.Logger.SetLogLevel(level)

	validator := config.NewValidator(func(msg string) {
		c.Logger.Log(ports.LogLevelWarn, msg, nil)
	})
	if err := validator.Validate(cfg); err != nil {
		return err
	}
	c.Config = cfg

	// 3. Infrastructure
	c.Store = storage.NewFileStore(cfg.SettingsPath, c.Logger)

	c.Env, err = envregistry.NewFileRegistry(cfg.EnvRegistryPath, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to open environment registry: %w", err)
	}

	c.Schema = newSchemaSource(cfg)

	// 4. Actions
	host := scripts.Host{Env: c.Env, Logger: c.Logger}
	c.Scripts = scripts.NewDiscovery(cfg.ActionDirs, c.Logger, lua.NewLoader(host), js.NewLoader(host))

	source := actions.NewMultiSource(c.Logger.Logger(),
		builtin.NewSource(builtin.Dependencies{Env: c.Env, Logger: c.Logger, Open: c.Opener}),
		c.Scripts,
	)
	c.Registry = actions.NewRegistry(source)
	c.Dispatcher = actions.NewDispatcher(c.Registry, actions.WithLogger(c.Logger.Logger()))

	// 5. Application services
	controllerOpts := []services.ControllerOption{services.WithBackupOnSave(cfg.BackupOnSave)}
	if cfg.DeriveIdentifiers {
		controllerOpts = append(controllerOpts, services.WithParseOptions(settings.WithDerivedIdentifiers()))
	}
	c.Controller = services.NewSettingsController(c.Store, c.Dispatcher, c.Logger, controllerOpts...)
	c.Startup = services.NewStartupService(c.Controller, c.Env, c.Logger, services.SettingAddress{
		GroupID:   builtin.SandboxGroup,
		SettingID: builtin.SandboxSetting,
	})

	// 6. CLI container
	c.CLIContainer.Config = cfg
	c.CLIContainer.Logger = c.Logger
	c.CLIContainer.Controller = c.Controller
	c.CLIContainer.Startup = c.Startup
	c.CLIContainer.Registry = c.Registry
	c.CLIContainer.Store = c.Store
	c.CLIContainer.Env = c.Env
	c.CLIContainer.Schema = c.Schema

	c.Logger.Log(ports.LogLevelDebug, "Container configured", map[string]interface{}{
		"settings":    cfg.SettingsPath,
		"schema":      c.Schema.Describe(),
		"action_dirs": strings.Join(cfg.ActionDirs, ","),
	})
	return nil
}

func applyOverrides(cfg *config.AppConfig, o cli.Overrides) {
	if o.SettingsPath != "" {
		cfg.SettingsPath = config.ExpandPath(o.SettingsPath)
	}
	if o.SchemaPath != "" {
		cfg.SchemaPath = config.ExpandPath(o.SchemaPath)
		cfg.SchemaURL = ""
	}
	if o.SchemaURL != "" {
		cfg.SchemaURL = o.SchemaURL
		cfg.SchemaPath = ""
	}
	if o.Debug {
		cfg.Debug = true
	}
}

// newSchemaSource picks the schema file, then the settings server, then
// the built-in schema
func newSchemaSource(cfg *config.AppConfig) ports.SchemaSource {
	switch {
	case cfg.SchemaPath != "":
		return schema.NewFileSource(cfg.SchemaPath)
	case cfg.SchemaURL != "":
		return schema.NewHTTPSource(cfg.SchemaURL, "lcfg/"+cli.Version, cfg.SchemaTimeout)
	default:
		return schema.EmbeddedSource{}
	}
}

// GetCLIContainer returns the CLI container for command execution
func (c *Container) GetCLIContainer() *cli.CLIContainer {
	return c.CLIContainer
}

// Shutdown flushes buffered log output
func (c *Container) Shutdown(ctx context.Context) error {
	if c.Controller != nil && c.Controller.Dirty() {
		c.Logger.Log(ports.LogLevelWarn, "Exiting with unsaved settings edits", nil)
	}
	// stderr sync fails on some terminals; nothing to recover
	_ = c.Logger.Sync()
	return nil
}

// GetVersion returns version information
func (c *Container) GetVersion() map[string]string {
	return map[string]string{
		"version":    cli.Version,
		"build_time": cli.BuildTime,
	}
}
