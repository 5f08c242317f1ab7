// Package envregistry remembers environment variables set by actions and
// re-applies them on the next start
package envregistry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"localconfig.dev/cli/internal/application/ports"
	"localconfig.dev/cli/internal/infrastructure/storage"
)

// ErrNotRegistered is returned when updating or removing an unknown variable
var ErrNotRegistered = errors.New("environment variable not registered")

// FileRegistry keeps registered variables in a JSON object {"NAME": "value"}
type FileRegistry struct {
	path   string
	logger ports.LoggingGateway
	vars   map[string]string
	mu     sync.RWMutex

	setenv   func(key, value string) error
	unsetenv func(key string) error
}

// NewFileRegistry loads the registry at path. Entries in the older
// {"NAME": {"value": ...}} form are converted and written back.
func NewFileRegistry(path string, logger ports.LoggingGateway) (*FileRegistry, error) {
	r := &FileRegistry{
		path:     path,
		logger:   logger,
		vars:     make(map[string]string),
		setenv:   os.Setenv,
		unsetenv: os.Unsetenv,
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileRegistry) load() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read environment registry: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		r.logger.LogError(err, "environment registry is not valid JSON, starting empty", map[string]interface{}{"path": r.path})
		return nil
	}

	migrated := false
	for name, value := range raw {
		var plain string
		if err := json.Unmarshal(value, &plain); err == nil {
			r.vars[name] = plain
			continue
		}

		var legacy struct {
			Value *string `json:"value"`
		}
		if err := json.Unmarshal(value, &legacy); err == nil && legacy.Value != nil {
			r.vars[name] = *legacy.Value
			migrated = true
			continue
		}

		r.logger.Log(ports.LogLevelWarn, "skipping environment variable with unexpected format", map[string]interface{}{"name": name})
	}

	if migrated {
		if err := r.persist(); err != nil {
			return err
		}
		r.logger.Log(ports.LogLevelInfo, "migrated environment registry to simple format", map[string]interface{}{"count": len(r.vars)})
	}

	r.logger.Log(ports.LogLevelDebug, "loaded environment registry", map[string]interface{}{"count": len(r.vars)})
	return nil
}

func (r *FileRegistry) persist() error {
	data, err := json.MarshalIndent(r.vars, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal environment registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}
	if err := storage.WriteFileAtomic(r.path, data, 0644); err != nil {
		return fmt.Errorf("failed to save environment registry: %w", err)
	}
	return nil
}

// Register sets the variable now and on every later Restore
func (r *FileRegistry) Register(name, value string) error {
	if name == "" {
		return fmt.Errorf("environment variable name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.setenv(name, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", name, err)
	}

	previous, existed := r.vars[name]
	r.vars[name] = value
	if err := r.persist(); err != nil {
		if existed {
			r.vars[name] = previous
		} else {
			delete(r.vars, name)
		}
		return err
	}

	r.logger.Log(ports.LogLevelInfo, "registered environment variable", map[string]interface{}{"name": name, "value": value})
	return nil
}

// Update changes the value of an already registered variable
func (r *FileRegistry) Update(name, value string) error {
	r.mu.RLock()
	_, ok := r.vars[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}
	return r.Register(name, value)
}

// Unregister forgets the variable and removes it from the process
func (r *FileRegistry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous, ok := r.vars[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}

	delete(r.vars, name)
	if err := r.persist(); err != nil {
		r.vars[name] = previous
		return err
	}
	if err := r.unsetenv(name); err != nil {
		return fmt.Errorf("failed to unset %s: %w", name, err)
	}

	r.logger.Log(ports.LogLevelInfo, "unregistered environment variable", map[string]interface{}{"name": name})
	return nil
}

// Get returns the registered value
func (r *FileRegistry) Get(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	value, ok := r.vars[name]
	return value, ok
}

// List returns a copy of every registered variable
func (r *FileRegistry) List() (map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.vars))
	for k, v := range r.vars {
		out[k] = v
	}
	return out, nil
}

// Names returns the registered names in sorted order
func (r *FileRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.vars))
	for name := range r.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Restore applies every registered variable to the process environment and
// returns how many were set
func (r *FileRegistry) Restore() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	restored := 0
	for name, value := range r.vars {
		if err := r.setenv(name, value); err != nil {
			return restored, fmt.Errorf("failed to restore %s: %w", name, err)
		}
		restored++
	}

	r.logger.Log(ports.LogLevelInfo, "restored environment variables", map[string]interface{}{"count": restored})
	return restored, nil
}

// Path returns the registry file location
func (r *FileRegistry) Path() string {
	return r.path
}
