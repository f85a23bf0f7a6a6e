package services

import (
	"context"

	"github.com/taskdown/server/internal/domain/entities"
	"github.com/taskdown/server/internal/infrastructure/logger"
	"github.com/taskdown/server/internal/ports"
)

// ConfigService exposes the singleton workspace configuration.
type ConfigService struct {
	configRepo ports.ConfigRepository
	logger     *logger.Logger
}

// NewConfigService creates a new config service
func NewConfigService(configRepo ports.ConfigRepository, logger *logger.Logger) *ConfigService {
	return &ConfigService{
		configRepo: configRepo,
		logger:     logger,
	}
}

// GetConfig returns the workspace configuration, defaults included on first
// access.
func (s *ConfigService) GetConfig(ctx context.Context) (*entities.WorkspaceConfig, error) {
	return s.configRepo.Get(ctx)
}

// UpdateConfig applies a partial configuration update. Concurrent updates are
// last-writer-wins.
func (s *ConfigService) UpdateConfig(ctx context.Context, req ports.ConfigUpdateRequest) (*entities.WorkspaceConfig, error) {
	cfg, err := s.configRepo.Update(ctx, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Workspace configuration updated", "workspace_name", cfg.WorkspaceName)

	return cfg, nil
}
