package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Validator validates configuration values
type Validator struct {
	warn func(string)
}

// NewValidator creates a new configuration validator. warn receives
// non-fatal findings; nil discards them.
func NewValidator(warn func(string)) *Validator {
	if warn == nil {
		warn = func(string) {}
	}
	return &Validator{warn: warn}
}

// ValidateSchemaURL validates the settings server URL
func (v *Validator) ValidateSchemaURL(endpoint string) error {
	if endpoint == "" {
		return nil
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s (must be http or https)", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("URL must include host")
	}

	if u.Scheme == "http" && !strings.Contains(u.Host, "localhost") && !strings.Contains(u.Host, "127.0.0.1") {
		v.warn(fmt.Sprintf("using non-HTTPS schema endpoint for non-localhost URL: %s", endpoint))
	}

	return nil
}

// ValidateLogLevel validates log level value
func (v *Validator) ValidateLogLevel(level string) error {
	validLevels := []string{"debug", "info", "warn", "error"}

	normalizedLevel := strings.ToLower(strings.TrimSpace(level))
	for _, valid := range validLevels {
		if normalizedLevel == valid {
			return nil
		}
	}

	return fmt.Errorf("invalid log level: %s (valid levels: %s)", level, strings.Join(validLevels, ", "))
}

// ValidateFilePath validates a path lcfg writes to. The file may be missing
// but must not be a directory, and its parent must be creatable.
func (v *Validator) ValidateFilePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	expanded := ExpandPath(path)
	if _, err := filepath.Abs(expanded); err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	info, err := os.Stat(expanded)
	if err == nil {
		if info.IsDir() {
			return fmt.Errorf("path is a directory: %s", path)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check path: %w", err)
	}

	for dir := filepath.Dir(expanded); ; dir = filepath.Dir(dir) {
		info, err := os.Stat(dir)
		if err == nil {
			if !info.IsDir() {
				return fmt.Errorf("parent is not a directory: %s", dir)
			}
			return nil
		}
		if next := filepath.Dir(dir); next == dir {
			return nil
		}
	}
}

// ValidateSchemaFile validates an explicitly configured schema file
func (v *Validator) ValidateSchemaFile(path string) error {
	if path == "" {
		return nil
	}

	info, err := os.Stat(ExpandPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("schema file does not exist: %s", path)
		}
		return fmt.Errorf("failed to check schema file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("schema path is a directory: %s", path)
	}
	return nil
}

// ValidateActionDir validates an action script directory. Missing
// directories are allowed and skipped at discovery time.
func (v *Validator) ValidateActionDir(path string) error {
	if path == "" {
		return fmt.Errorf("action directory cannot be empty")
	}

	info, err := os.Stat(ExpandPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to check action directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("action path exists but is not a directory: %s", path)
	}

	return nil
}

// ValidateTimeout validates the schema fetch timeout
func (v *Validator) ValidateTimeout(timeout time.Duration) error {
	minTimeout := 1 * time.Second
	maxTimeout := 5 * time.Minute

	if timeout < minTimeout {
		return fmt.Errorf("timeout too short (minimum 1s)")
	}

	if timeout > maxTimeout {
		return fmt.Errorf("timeout too long (maximum 5m)")
	}

	return nil
}

// ValidateAll validates every field and returns the failures keyed by
// configuration key
func (v *Validator) ValidateAll(cfg *AppConfig) map[string]error {
	errors := make(map[string]error)

	if err := v.ValidateSchemaURL(cfg.SchemaURL); err != nil {
		errors["schema_url"] = err
	}
	if err := v.ValidateSchemaFile(cfg.SchemaPath); err != nil {
		errors["schema_path"] = err
	}
	if err := v.ValidateLogLevel(cfg.LogLevel); err != nil {
		errors["log_level"] = err
	}
	if err := v.ValidateFilePath(cfg.SettingsPath); err != nil {
		errors["settings_path"] = err
	}
	if err := v.ValidateFilePath(cfg.EnvRegistryPath); err != nil {
		errors["env_registry_path"] = err
	}
	if err := v.ValidateTimeout(cfg.SchemaTimeout); err != nil {
		errors["schema_timeout"] = err
	}
	for _, dir := range cfg.ActionDirs {
		if err := v.ValidateActionDir(dir); err != nil {
			errors["action_dirs"] = err
			break
		}
	}

	return errors
}

// Validate returns the first failure of ValidateAll in key order
func (v *Validator) Validate(cfg *AppConfig) error {
	failures := v.ValidateAll(cfg)
	if len(failures) == 0 {
		return nil
	}

	keys := make([]string, 0, len(failures))
	for k := range failures {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return fmt.Errorf("invalid configuration %s: %w", keys[0], failures[keys[0]])
}
