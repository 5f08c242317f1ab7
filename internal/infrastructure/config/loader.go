// Package config loads the lcfg host configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Environment variables recognised by the loader
const (
	EnvConfigFile        = "LCFG_CONFIG_FILE"
	EnvSettingsPath      = "LCFG_SETTINGS_PATH"
	EnvSchemaPath        = "LCFG_SCHEMA_PATH"
	EnvSchemaURL         = "LCFG_SCHEMA_URL"
	EnvEnvRegistryPath   = "LCFG_ENV_REGISTRY_PATH"
	EnvActionDirs        = "LCFG_ACTION_DIRS"
	EnvLogLevel          = "LCFG_LOG_LEVEL"
	EnvDebug             = "LCFG_DEBUG"
	EnvBackupOnSave      = "LCFG_BACKUP_ON_SAVE"
	EnvDeriveIdentifiers = "LCFG_DERIVE_IDENTIFIERS"
)

// AppConfig is the host configuration
type AppConfig struct {
	SettingsPath      string        `toml:"settings_path"`
	SchemaPath        string        `toml:"schema_path"`
	SchemaURL         string        `toml:"schema_url"`
	SchemaTimeout     time.Duration `toml:"-"`
	EnvRegistryPath   string        `toml:"env_registry_path"`
	ActionDirs        []string      `toml:"action_dirs"`
	LogLevel          string        `toml:"log_level"`
	Debug             bool          `toml:"debug"`
	BackupOnSave      bool          `toml:"backup_on_save"`
	DeriveIdentifiers bool          `toml:"derive_identifiers"`

	// ConfigFile is the file the values were read from, empty when none existed
	ConfigFile string `toml:"-"`
}

// fileConfig mirrors AppConfig with pointer fields so that keys absent from
// the file leave defaults alone
type fileConfig struct {
	SettingsPath      *string   `toml:"settings_path"`
	SchemaPath        *string   `toml:"schema_path"`
	SchemaURL         *string   `toml:"schema_url"`
	SchemaTimeout     *string   `toml:"schema_timeout"`
	EnvRegistryPath   *string   `toml:"env_registry_path"`
	ActionDirs        *[]string `toml:"action_dirs"`
	LogLevel          *string   `toml:"log_level"`
	Debug             *bool     `toml:"debug"`
	BackupOnSave      *bool     `toml:"backup_on_save"`
	DeriveIdentifiers *bool     `toml:"derive_identifiers"`
}

// HomeDir returns ~/.localconfig
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".localconfig")
}

// Default returns the configuration used when nothing is configured
func Default() *AppConfig {
	base := HomeDir()
	return &AppConfig{
		SettingsPath:    filepath.Join(base, "settings", "localconfig.json"),
		SchemaTimeout:   10 * time.Second,
		EnvRegistryPath: filepath.Join(base, "settings", "env_variables.json"),
		ActionDirs:      []string{filepath.Join(base, "actions")},
		LogLevel:        "info",
	}
}

// Loader resolves the configuration from defaults, the TOML file and the
// environment, in that order of increasing priority
type Loader struct {
	getenv func(string) string
}

// NewLoader creates a loader reading the process environment
func NewLoader() *Loader {
	return &Loader{getenv: os.Getenv}
}

// NewLoaderWithEnv creates a loader reading variables from getenv
func NewLoaderWithEnv(getenv func(string) string) *Loader {
	return &Loader{getenv: getenv}
}

// DefaultConfigFile returns the TOML path used when none is given
func (l *Loader) DefaultConfigFile() string {
	if path := l.getenv(EnvConfigFile); path != "" {
		return path
	}
	return filepath.Join(HomeDir(), "config.toml")
}

// Load builds the configuration. An empty configFile means the default
// location; a missing file is not an error.
func (l *Loader) Load(configFile string) (*AppConfig, error) {
	cfg := Default()

	if configFile == "" {
		configFile = l.DefaultConfigFile()
	}

	if err := l.applyFile(cfg, ExpandPath(configFile)); err != nil {
		return nil, err
	}
	if err := l.applyEnv(cfg); err != nil {
		return nil, err
	}

	cfg.SettingsPath = ExpandPath(cfg.SettingsPath)
	cfg.SchemaPath = ExpandPath(cfg.SchemaPath)
	cfg.EnvRegistryPath = ExpandPath(cfg.EnvRegistryPath)
	for i, dir := range cfg.ActionDirs {
		cfg.ActionDirs[i] = ExpandPath(dir)
	}

	return cfg, nil
}

func (l *Loader) applyFile(cfg *AppConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if _, err := toml.Decode(string(data), &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	setString(&cfg.SettingsPath, fc.SettingsPath)
	setString(&cfg.SchemaPath, fc.SchemaPath)
	setString(&cfg.SchemaURL, fc.SchemaURL)
	setString(&cfg.EnvRegistryPath, fc.EnvRegistryPath)
	setString(&cfg.LogLevel, fc.LogLevel)
	if fc.ActionDirs != nil {
		cfg.ActionDirs = append([]string(nil), (*fc.ActionDirs)...)
	}
	if fc.SchemaTimeout != nil {
		d, err := time.ParseDuration(*fc.SchemaTimeout)
		if err != nil {
			return fmt.Errorf("invalid schema_timeout: %w", err)
		}
		cfg.SchemaTimeout = d
	}
	setBool(&cfg.Debug, fc.Debug)
	setBool(&cfg.BackupOnSave, fc.BackupOnSave)
	setBool(&cfg.DeriveIdentifiers, fc.DeriveIdentifiers)

	cfg.ConfigFile = path
	return nil
}

func (l *Loader) applyEnv(cfg *AppConfig) error {
	if v := l.getenv(EnvSettingsPath); v != "" {
		cfg.SettingsPath = v
	}
	if v := l.getenv(EnvSchemaPath); v != "" {
		cfg.SchemaPath = v
	}
	if v := l.getenv(EnvSchemaURL); v != "" {
		cfg.SchemaURL = v
	}
	if v := l.getenv(EnvEnvRegistryPath); v != "" {
		cfg.EnvRegistryPath = v
	}
	if v := l.getenv(EnvActionDirs); v != "" {
		cfg.ActionDirs = filepath.SplitList(v)
	}
	if v := l.getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}

	bools := []struct {
		key    string
		target *bool
	}{
		{EnvDebug, &cfg.Debug},
		{EnvBackupOnSave, &cfg.BackupOnSave},
		{EnvDeriveIdentifiers, &cfg.DeriveIdentifiers},
	}
	for _, b := range bools {
		v := l.getenv(b.key)
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", b.key, v, err)
		}
		*b.target = parsed
	}

	return nil
}

// EffectiveLogLevel returns "debug" when debug mode is on
func (c *AppConfig) EffectiveLogLevel() string {
	if c.Debug {
		return "debug"
	}
	return strings.ToLower(c.LogLevel)
}

// Save writes the configuration as TOML
func (c *AppConfig) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

// ExpandPath expands ~ and environment variables in paths
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		if homeDir, err := os.UserHomeDir(); err == nil {
			path = homeDir + path[1:]
		}
	}

	return os.ExpandEnv(path)
}
