package actions

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"localconfig.dev/cli/internal/core/settings"
)

// Mock implementations

type MockAction struct {
	mock.Mock
	desc Descriptor
}

func (m *MockAction) Descriptor() Descriptor {
	return m.desc
}

func (m *MockAction) Execute(ctx context.Context) (Result, error) {
	args := m.Called(ctx)
	return args.Get(0).(Result), args.Error(1)
}

type MockConfigAwareAction struct {
	*MockAction
}

func (m *MockConfigAwareAction) ExecuteWithConfig(ctx context.Context, req Request) (Result, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(Result), args.Error(1)
}

type panickingAction struct {
	desc Descriptor
}

func (p panickingAction) Descriptor() Descriptor { return p.desc }

func (p panickingAction) Execute(ctx context.Context) (Result, error) {
	panic("boom")
}

func newMockAction(id string, caps ...string) *MockAction {
	return &MockAction{desc: Descriptor{ID: id, Capabilities: caps, Source: "test:" + id}}
}

func newDispatcher(actions ...Action) *Dispatcher {
	return NewDispatcher(NewRegistry(StaticSource(actions)))
}

// Tests

func TestDispatcher_Dispatch_NotFound(t *testing.T) {
	other := newMockAction("OtherAction", TagLocalConfig)
	untagged := newMockAction("CleanLogsAction")

	_, err := newDispatcher(other, untagged).Dispatch(context.Background(), "CleanLogsAction", Request{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrActionNotFound))
	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "CleanLogsAction", notFound.ActionID)

	other.AssertNotCalled(t, "Execute", mock.Anything)
	untagged.AssertNotCalled(t, "Execute", mock.Anything)
}

func TestDispatcher_Dispatch_Ambiguous(t *testing.T) {
	first := newMockAction("CleanLogsAction", TagLocalConfig)
	second := newMockAction("CleanLogsAction", TagLocalConfig, CapabilityConfigContext)

	_, err := newDispatcher(first, second).Dispatch(context.Background(), "CleanLogsAction", Request{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAmbiguousAction))
	var ambiguous *AmbiguousError
	require.True(t, errors.As(err, &ambiguous))
	assert.Equal(t, "CleanLogsAction", ambiguous.ActionID)
	assert.Len(t, ambiguous.Sources, 2)

	first.AssertNotCalled(t, "Execute", mock.Anything)
	second.AssertNotCalled(t, "Execute", mock.Anything)
}

func TestDispatcher_Dispatch_SingleMatchRunsOnce(t *testing.T) {
	ctx := context.Background()
	action := newMockAction("CleanLogsAction", TagLocalConfig)
	action.On("Execute", ctx).Return(Result{Message: "cleaned"}, nil).Once()

	result, err := newDispatcher(action).Dispatch(ctx, "CleanLogsAction", Request{})

	require.NoError(t, err)
	assert.Equal(t, "cleaned", result.Message)
	action.AssertNumberOfCalls(t, "Execute", 1)
}

func TestDispatcher_Dispatch_ContextAwareEntryPoint(t *testing.T) {
	ctx := context.Background()
	config := settings.Values{"general": {"project_root": "/data/proj"}}

	action := &MockConfigAwareAction{MockAction: newMockAction("OpenProjectFolderAction", TagLocalConfig, CapabilityConfigContext)}
	action.On("ExecuteWithConfig", ctx, mock.MatchedBy(func(req Request) bool {
		return req.InvocationID != "" && req.ActionData == "data" && assert.ObjectsAreEqual(config, req.Config)
	})).Return(Result{Message: "opened"}, nil).Once()

	result, err := newDispatcher(action).Dispatch(ctx, "OpenProjectFolderAction", Request{Config: config, ActionData: "data"})

	require.NoError(t, err)
	assert.Equal(t, "opened", result.Message)
	action.AssertNotCalled(t, "Execute", mock.Anything)
	action.AssertExpectations(t)
}

func TestDispatcher_Dispatch_FallsBackWithoutCapability(t *testing.T) {
	ctx := context.Background()

	// Implements the richer entry point but does not declare it
	action := &MockConfigAwareAction{MockAction: newMockAction("LegacyAction", TagLocalConfig)}
	action.On("Execute", ctx).Return(Result{}, nil).Once()

	_, err := newDispatcher(action).Dispatch(ctx, "LegacyAction", Request{Config: settings.Values{}})

	require.NoError(t, err)
	action.AssertNotCalled(t, "ExecuteWithConfig", mock.Anything, mock.Anything)
	action.AssertExpectations(t)
}

func TestDispatcher_Dispatch_FallsBackWhenCapabilityNotImplemented(t *testing.T) {
	ctx := context.Background()
	action := newMockAction("HalfAction", TagLocalConfig, CapabilityConfigContext)
	action.On("Execute", ctx).Return(Result{Message: "plain"}, nil).Once()

	result, err := newDispatcher(action).Dispatch(ctx, "HalfAction", Request{})

	require.NoError(t, err)
	assert.Equal(t, "plain", result.Message)
}

func TestDispatcher_Dispatch_WrapsFailures(t *testing.T) {
	cause := errors.New("disk on fire")

	tests := []struct {
		name   string
		action Action
		errMsg string
	}{
		{
			name: "ReturnedError",
			action: func() Action {
				a := newMockAction("FailingAction", TagLocalConfig)
				a.On("Execute", mock.Anything).Return(Result{}, cause)
				return a
			}(),
			errMsg: "disk on fire",
		},
		{
			name:   "Panic",
			action: panickingAction{desc: Descriptor{ID: "FailingAction", Capabilities: []string{TagLocalConfig}}},
			errMsg: "panic: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newDispatcher(tt.action).Dispatch(context.Background(), "FailingAction", Request{})

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrActionExecution))
			var execErr *ExecutionError
			require.True(t, errors.As(err, &execErr))
			assert.Equal(t, "FailingAction", execErr.ActionID)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	a := newMockAction("FailingAction", TagLocalConfig)
	a.On("Execute", mock.Anything).Return(Result{}, cause)
	_, err := newDispatcher(a).Dispatch(context.Background(), "FailingAction", Request{})
	assert.True(t, errors.Is(err, cause), "the cause should stay reachable")
}

func TestDispatcher_Dispatch_SourceFailure(t *testing.T) {
	source := SourceFunc(func(ctx context.Context) ([]Action, error) {
		return nil, errors.New("scan failed")
	})

	_, err := NewDispatcher(NewRegistry(source)).Dispatch(context.Background(), "Any", Request{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to enumerate actions")
}

// TestDispatcher_PropertyBased_MatchCount tests that dispatch outcome depends
// only on how many discovered actions share the identifier
func TestDispatcher_PropertyBased_MatchCount(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		matching := rapid.IntRange(0, 3).Draw(t, "matching")
		others := rapid.IntRange(0, 3).Draw(t, "others")

		var list []Action
		var targets []*MockAction
		for i := 0; i < matching; i++ {
			a := newMockAction("Target", TagLocalConfig)
			a.On("Execute", mock.Anything).Return(Result{}, nil)
			targets = append(targets, a)
			list = append(list, a)
		}
		for i := 0; i < others; i++ {
			list = append(list, newMockAction("Other", TagLocalConfig))
		}

		_, err := newDispatcher(list...).Dispatch(context.Background(), "Target", Request{})

		switch matching {
		case 0:
			assert.ErrorIs(t, err, ErrActionNotFound)
		case 1:
			assert.NoError(t, err)
			assert.Len(t, targets[0].Calls, 1)
		default:
			assert.ErrorIs(t, err, ErrAmbiguousAction)
			for _, a := range targets {
				assert.Empty(t, a.Calls)
			}
		}
	})
}
