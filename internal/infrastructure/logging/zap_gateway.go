// Package logging implements the LoggingGateway port on top of zap
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"localconfig.dev/cli/internal/application/ports"
)

// ZapGateway is a LoggingGateway writing human readable lines through zap
type ZapGateway struct {
	logger *zap.Logger
	level  zap.AtomicLevel
}

// NewZapGateway creates a gateway writing to stderr at the given level
func NewZapGateway(level ports.LogLevel) *ZapGateway {
	return NewZapGatewayWithWriter(level, os.Stderr)
}

// NewZapGatewayWithWriter creates a gateway writing to w
func NewZapGatewayWithWriter(level ports.LogLevel, w io.Writer) *ZapGateway {
	atomic := zap.NewAtomicLevelAt(toZapLevel(level))

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(w),
		atomic,
	)

	return &ZapGateway{logger: zap.New(core), level: atomic}
}

// NewNop returns a gateway that discards everything
func NewNop() *ZapGateway {
	return &ZapGateway{logger: zap.NewNop(), level: zap.NewAtomicLevelAt(zapcore.ErrorLevel)}
}

// Logger exposes the underlying zap logger for components that log with
// typed fields directly
func (g *ZapGateway) Logger() *zap.Logger {
	return g.logger
}

// Log logs a message with the specified level
func (g *ZapGateway) Log(level ports.LogLevel, message string, fields map[string]interface{}) {
	if ce := g.logger.Check(toZapLevel(level), message); ce != nil {
		ce.Write(toFields(fields)...)
	}
}

// LogError logs an error
func (g *ZapGateway) LogError(err error, message string, fields map[string]interface{}) {
	g.logger.Error(message, append(toFields(fields), zap.Error(err))...)
}

// SetLogLevel sets the logging level
func (g *ZapGateway) SetLogLevel(level ports.LogLevel) {
	g.level.SetLevel(toZapLevel(level))
}

// GetLogLevel returns the current logging level
func (g *ZapGateway) GetLogLevel() ports.LogLevel {
	switch g.level.Level() {
	case zapcore.DebugLevel:
		return ports.LogLevelDebug
	case zapcore.InfoLevel:
		return ports.LogLevelInfo
	case zapcore.WarnLevel:
		return ports.LogLevelWarn
	default:
		return ports.LogLevelError
	}
}

// Sync flushes buffered entries
func (g *ZapGateway) Sync() error {
	return g.logger.Sync()
}

func toZapLevel(level ports.LogLevel) zapcore.Level {
	switch level {
	case ports.LogLevelDebug:
		return zapcore.DebugLevel
	case ports.LogLevelInfo:
		return zapcore.InfoLevel
	case ports.LogLevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

func toFields(fields map[string]interface{}) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		out = append(out, zap.Any(k, v))
	}
	return out
}
