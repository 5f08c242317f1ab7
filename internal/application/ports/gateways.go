package ports

import (
	"context"

	"localconfig.dev/cli/internal/core/settings"
)

// SchemaSource defines the interface for obtaining the settings declaration
type SchemaSource interface {
	// FetchSchema returns the decoded, not yet validated schema
	FetchSchema(ctx context.Context) (settings.RawSchema, error)

	// Describe returns a human readable origin, e.g. a file path or URL
	Describe() string
}

// LoggingGateway defines the interface for logging operations
type LoggingGateway interface {
	// Log logs a message with the specified level
	Log(level LogLevel, message string, fields map[string]interface{})

	// LogError logs an error
	LogError(err error, message string, fields map[string]interface{})

	// SetLogLevel sets the logging level
	SetLogLevel(level LogLevel)

	// GetLogLevel returns the current logging level
	GetLogLevel() LogLevel
}

// LogLevel defines the logging level
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// NewLogLevel parses a level name
func NewLogLevel(value string) (LogLevel, bool) {
	switch LogLevel(value) {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return LogLevel(value), true
	default:
		return "", false
	}
}
