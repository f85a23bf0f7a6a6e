package services

import (
	"context"

	"github.com/taskdown/server/internal/domain/entities"
	"github.com/taskdown/server/internal/infrastructure/logger"
	"github.com/taskdown/server/internal/ports"
)

// ActivityService reads the audit trail.
type ActivityService struct {
	activityRepo ports.ActivityRepository
	logger       *logger.Logger
}

// NewActivityService creates a new activity service
func NewActivityService(activityRepo ports.ActivityRepository, logger *logger.Logger) *ActivityService {
	return &ActivityService{
		activityRepo: activityRepo,
		logger:       logger,
	}
}

// ListActivities pages through the audit trail newest first, returning the
// page and the total matching count.
func (s *ActivityService) ListActivities(ctx context.Context, filter ports.ActivityFilter) ([]*entities.Activity, int, error) {
	return s.activityRepo.List(ctx, filter)
}
