package actions

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// StaticSource is a fixed list of actions
type StaticSource []Action

// Enumerate returns a copy of the list
func (s StaticSource) Enumerate(ctx context.Context) ([]Action, error) {
	out := make([]Action, len(s))
	copy(out, s)
	return out, nil
}

// SourceFunc adapts a function to PluginSource
type SourceFunc func(ctx context.Context) ([]Action, error)

// Enumerate calls f
func (f SourceFunc) Enumerate(ctx context.Context) ([]Action, error) {
	return f(ctx)
}

// MultiSource concatenates the actions of several sources. A failing source
// is logged and skipped; Enumerate only fails when every source failed.
type MultiSource struct {
	sources []PluginSource
	logger  *zap.Logger
}

// NewMultiSource composes sources in order
func NewMultiSource(logger *zap.Logger, sources ...PluginSource) *MultiSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MultiSource{sources: sources, logger: logger}
}

// Enumerate collects the actions of every source
func (m *MultiSource) Enumerate(ctx context.Context) ([]Action, error) {
	var all []Action
	var errs error
	failed := 0

	for i, source := range m.sources {
		found, err := source.Enumerate(ctx)
		if err != nil {
			failed++
			errs = multierr.Append(errs, fmt.Errorf("source %d: %w", i, err))
			m.logger.Warn("skipping action source", zap.Int("source", i), zap.Error(err))
			continue
		}
		all = append(all, found...)
	}

	if len(m.sources) > 0 && failed == len(m.sources) {
		return nil, errs
	}
	return all, nil
}
