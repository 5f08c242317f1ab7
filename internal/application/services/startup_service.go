package services

import (
	"context"
	"fmt"

	"localconfig.dev/cli/internal/application/ports"
)

// StartupService re-applies session state once the controller is
// initialized: registered environment variables first, then the change
// actions of the listed settings when they hold a non-empty value
type StartupService struct {
	controller *SettingsController
	env        ports.EnvironmentRegistry
	logger     ports.LoggingGateway
	settings   []SettingAddress
}

// SettingAddress names a setting by group and identifier
type SettingAddress struct {
	GroupID   string
	SettingID string
}

// NewStartupService creates a new startup service
func NewStartupService(controller *SettingsController, env ports.EnvironmentRegistry, logger ports.LoggingGateway, reapply ...SettingAddress) *StartupService {
	return &StartupService{
		controller: controller,
		env:        env,
		logger:     logger,
		settings:   reapply,
	}
}

// Run restores the environment and re-runs the setting actions. Failures are
// logged and the remaining steps still run; the first failure is returned.
func (s *StartupService) Run(ctx context.Context) error {
	var first error

	restored, err := s.env.Restore()
	if err != nil {
		s.logger.LogError(err, "Failed to restore environment variables", nil)
		first = fmt.Errorf("failed to restore environment variables: %w", err)
	} else if restored > 0 {
		s.logger.Log(ports.LogLevelDebug, "Environment variables restored", map[string]interface{}{"count": restored})
	}

	values := s.controller.EffectiveValues()
	for _, addr := range s.settings {
		value, ok := values.Get(addr.GroupID, addr.SettingID)
		if !ok || isEmpty(value) {
			continue
		}

		if _, err := s.controller.RunSettingAction(ctx, addr.GroupID, addr.SettingID); err != nil && first == nil {
			first = fmt.Errorf("failed to apply %s.%s: %w", addr.GroupID, addr.SettingID, err)
		}
	}

	return first
}

func isEmpty(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	default:
		return false
	}
}
