package ports

import (
	"context"

	"localconfig.dev/cli/internal/core/settings"
)

// ValueStore defines the interface for the persisted settings values
type ValueStore interface {
	// Load returns the stored values. A missing or unreadable file is an
	// empty store, never an error.
	Load(ctx context.Context) settings.Values

	// Save atomically replaces the stored values
	Save(ctx context.Context, values settings.Values) error

	// Backup copies the current file aside and returns the copy's path
	Backup(ctx context.Context) (string, error)

	// Path returns the location of the settings file
	Path() string
}

// EnvironmentRegistry defines the interface for environment variables that
// actions persist across sessions
type EnvironmentRegistry interface {
	// Register sets the variable in the process and remembers it
	Register(name, value string) error

	// Unregister forgets the variable and unsets it
	Unregister(name string) error

	// Get returns the registered value
	Get(name string) (string, bool)

	// List returns every registered variable
	List() (map[string]string, error)

	// Restore applies every registered variable to the process environment
	Restore() (int, error)
}
