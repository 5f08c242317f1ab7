// Package storage persists settings values as a JSON file
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"localconfig.dev/cli/internal/application/ports"
	"localconfig.dev/cli/internal/core/settings"
)

// ErrPersistence matches every *PersistenceError
var ErrPersistence = errors.New("persistence error")

// PersistenceError reports a failed write. The previously saved file is left
// as it was.
type PersistenceError struct {
	Path string
	Op   string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// FileStore manages the settings values file on disk
type FileStore struct {
	path   string
	logger ports.LoggingGateway
	mu     sync.RWMutex
}

// NewFileStore creates a store for the file at path. Nothing is read or
// created until Load or Save.
func NewFileStore(path string, logger ports.LoggingGateway) *FileStore {
	return &FileStore{path: path, logger: logger}
}

// Path returns the settings file location
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the settings file. A missing, unreadable or corrupt file yields
// empty values.
func (s *FileStore) Load(ctx context.Context) settings.Values {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.log(ports.LogLevelDebug, "settings file does not exist yet", nil)
		} else {
			s.logError(err, "failed to read settings file")
		}
		return settings.Values{}
	}

	var groups map[string]json.RawMessage
	if err := json.Unmarshal(data, &groups); err != nil {
		s.logError(err, "settings file is not valid JSON, starting empty")
		return settings.Values{}
	}

	// Entries that are not objects are skipped, the rest still load
	values := make(settings.Values, len(groups))
	for group, raw := range groups {
		var entries map[string]interface{}
		if err := json.Unmarshal(raw, &entries); err != nil {
			s.log(ports.LogLevelWarn, "ignoring settings entry that is not a group", map[string]interface{}{"group": group})
			continue
		}
		if entries == nil {
			continue
		}
		values[group] = entries
	}

	return values
}

// Save writes values to a temporary file next to the settings file and
// renames it into place
func (s *FileStore) Save(ctx context.Context, values settings.Values) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if values == nil {
		values = settings.Values{}
	}

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return &PersistenceError{Path: s.path, Op: "encode", Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return &PersistenceError{Path: s.path, Op: "create directory for", Err: err}
	}

	if err := WriteFileAtomic(s.path, data, 0644); err != nil {
		return &PersistenceError{Path: s.path, Op: "save", Err: err}
	}

	s.log(ports.LogLevelDebug, "settings saved", map[string]interface{}{"groups": len(values)})
	return nil
}

// Backup copies the settings file to <path>.backup_YYYYMMDD_HHMMSS. It
// returns an empty path when there is no file to back up.
func (s *FileStore) Backup(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to open settings file: %w", err)
	}
	defer src.Close()

	backupPath := fmt.Sprintf("%s.backup_%s", s.path, time.Now().Format("20060102_150405"))
	dst, err := os.OpenFile(backupPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return "", &PersistenceError{Path: backupPath, Op: "create backup", Err: err}
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(backupPath)
		return "", &PersistenceError{Path: backupPath, Op: "write backup", Err: err}
	}
	if err := dst.Close(); err != nil {
		os.Remove(backupPath)
		return "", &PersistenceError{Path: backupPath, Op: "write backup", Err: err}
	}

	s.log(ports.LogLevelInfo, "settings backed up", map[string]interface{}{"backup": backupPath})
	return backupPath, nil
}

func (s *FileStore) log(level ports.LogLevel, message string, fields map[string]interface{}) {
	if s.logger == nil {
		return
	}
	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["path"] = s.path
	s.logger.Log(level, message, fields)
}

func (s *FileStore) logError(err error, message string) {
	if s.logger == nil {
		return
	}
	s.logger.LogError(err, message, map[string]interface{}{"path": s.path})
}

// WriteFileAtomic writes data to path+".tmp", syncs it and renames it over
// path. On failure the temporary file is removed and path is untouched.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tempFile := path + ".tmp"

	f, err := os.OpenFile(tempFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tempFile)
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	// Rename to final location (atomic on most systems)
	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to replace file: %w", err)
	}

	return nil
}
