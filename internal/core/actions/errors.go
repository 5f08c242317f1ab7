package actions

import (
	"errors"
	"fmt"
)

var (
	ErrActionNotFound  = errors.New("action not found")
	ErrAmbiguousAction = errors.New("ambiguous action")
	ErrActionExecution = errors.New("action execution failed")
)

// NotFoundError is returned when no discovered action has the identifier
type NotFoundError struct {
	ActionID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("action not found: %s", e.ActionID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrActionNotFound
}

// AmbiguousError is returned when several discovered actions share the
// identifier. None of them runs.
type AmbiguousError struct {
	ActionID string
	Sources  []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous action: %s matches %d actions", e.ActionID, len(e.Sources))
}

func (e *AmbiguousError) Is(target error) bool {
	return target == ErrAmbiguousAction
}

// ExecutionError wraps any failure raised inside a dispatched action
type ExecutionError struct {
	ActionID string
	Cause    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("action %s failed: %v", e.ActionID, e.Cause)
}

func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

func (e *ExecutionError) Is(target error) bool {
	return target == ErrActionExecution
}
