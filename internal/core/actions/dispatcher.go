package actions

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Dispatcher resolves an action identifier to exactly one discovered action
// and invokes it
type Dispatcher struct {
	registry *Registry
	tag      string
	logger   *zap.Logger
}

// DispatcherOption configures a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithLogger sets the logger used for dispatch tracing
func WithLogger(logger *zap.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithTag overrides the capability tag used for discovery
func WithTag(tag string) DispatcherOption {
	return func(d *Dispatcher) {
		d.tag = tag
	}
}

// NewDispatcher creates a dispatcher discovering TagLocalConfig actions
func NewDispatcher(registry *Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		tag:      TagLocalConfig,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch runs the single action whose identifier equals actionID.
// It returns *NotFoundError or *AmbiguousError without running anything when
// the identifier does not resolve to exactly one action, and wraps failures
// or panics of the action itself in *ExecutionError.
func (d *Dispatcher) Dispatch(ctx context.Context, actionID string, req Request) (Result, error) {
	if req.InvocationID == "" {
		req.InvocationID = uuid.NewString()
	}
	logger := d.logger.With(
		zap.String("action_id", actionID),
		zap.String("invocation_id", req.InvocationID),
	)

	found, err := d.registry.Discover(ctx, d.tag)
	if err != nil {
		return Result{}, err
	}

	var matches []Action
	for _, a := range found {
		if a.Descriptor().ID == actionID {
			matches = append(matches, a)
		}
	}

	switch len(matches) {
	case 0:
		logger.Warn("action not found", zap.Int("discovered", len(found)))
		return Result{}, &NotFoundError{ActionID: actionID}
	case 1:
	default:
		sources := make([]string, 0, len(matches))
		for _, a := range matches {
			sources = append(sources, a.Descriptor().Source)
		}
		logger.Warn("ambiguous action", zap.Strings("sources", sources))
		return Result{}, &AmbiguousError{ActionID: actionID, Sources: sources}
	}

	action := matches[0]
	logger.Debug("dispatching action", zap.String("source", action.Descriptor().Source))

	result, err := d.invoke(ctx, action, req, logger)
	if err != nil {
		logger.Error("action failed", zap.Error(err))
		return Result{}, &ExecutionError{ActionID: actionID, Cause: err}
	}

	logger.Info("action completed", zap.String("message", result.Message))
	return result, nil
}

// invoke calls the richer entry point only when the action both declares and
// implements it
func (d *Dispatcher) invoke(ctx context.Context, action Action, req Request, logger *zap.Logger) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if action.Descriptor().Has(CapabilityConfigContext) {
		if aware, ok := action.(ConfigAwareAction); ok {
			return aware.ExecuteWithConfig(ctx, req)
		}
		logger.Warn("action declares config_context but does not accept a configuration, calling Execute")
	}
	return action.Execute(ctx)
}
