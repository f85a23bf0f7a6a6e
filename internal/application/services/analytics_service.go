package services

import (
	"context"
	"time"

	"github.com/taskdown/server/internal/domain/entities"
	"github.com/taskdown/server/internal/infrastructure/logger"
	"github.com/taskdown/server/internal/ports"
)

// AnalyticsService assembles the read-only statistics views.
type AnalyticsService struct {
	analyticsRepo ports.AnalyticsRepository
	logger        *logger.Logger
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(analyticsRepo ports.AnalyticsRepository, logger *logger.Logger) *AnalyticsService {
	return &AnalyticsService{
		analyticsRepo: analyticsRepo,
		logger:        logger,
	}
}

// Summary computes the workspace-wide statistics. Status keys are reported in
// their wire form ("In Progress"), matching what clients send and receive.
func (s *AnalyticsService) Summary(ctx context.Context) (*entities.AnalyticsSummary, error) {
	total, err := s.analyticsRepo.TotalTasks(ctx)
	if err != nil {
		return nil, err
	}

	byStatus, err := s.analyticsRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	// Every known status, type and priority appears in the summary, zero
	// counts included.
	wireStatus := map[string]int{
		entities.TaskStatusTodo.WireName():       0,
		entities.TaskStatusInProgress.WireName(): 0,
		entities.TaskStatusInReview.WireName():   0,
		entities.TaskStatusDone.WireName():       0,
	}
	for status, count := range byStatus {
		wireStatus[entities.TaskStatus(status).WireName()] = count
	}

	byType, err := s.analyticsRepo.CountByType(ctx)
	if err != nil {
		return nil, err
	}
	allTypes := map[string]int{
		string(entities.TaskTypeEpic):  0,
		string(entities.TaskTypeStory): 0,
		string(entities.TaskTypeTask):  0,
		string(entities.TaskTypeBug):   0,
	}
	for taskType, count := range byType {
		allTypes[taskType] = count
	}

	byPriority, err := s.analyticsRepo.CountByPriority(ctx)
	if err != nil {
		return nil, err
	}
	allPriorities := map[string]int{
		string(entities.PriorityCritical): 0,
		string(entities.PriorityHigh):     0,
		string(entities.PriorityMedium):   0,
		string(entities.PriorityLow):      0,
	}
	for priority, count := range byPriority {
		allPriorities[priority] = count
	}

	avgPoints, err := s.analyticsRepo.AverageStoryPoints(ctx)
	if err != nil {
		return nil, err
	}

	completionRate, err := s.analyticsRepo.CompletionRate(ctx)
	if err != nil {
		return nil, err
	}

	sprints, err := s.analyticsRepo.ActiveSprints(ctx)
	if err != nil {
		return nil, err
	}

	return &entities.AnalyticsSummary{
		TotalTasks:         total,
		TasksByStatus:      wireStatus,
		TasksByType:        allTypes,
		TasksByPriority:    allPriorities,
		AverageStoryPoints: avgPoints,
		CompletionRate:     completionRate,
		ActiveSprints:      sprints,
		LastUpdated:        time.Now().UTC(),
	}, nil
}

// Burndown reports story-point totals for a sprint. The daily series stays
// empty until task history is recorded with enough granularity to compute it.
func (s *AnalyticsService) Burndown(ctx context.Context, sprint string) (*entities.BurndownData, error) {
	totalPoints, err := s.analyticsRepo.SprintStoryPoints(ctx, sprint)
	if err != nil {
		return nil, err
	}

	return &entities.BurndownData{
		Sprint:           sprint,
		StartDate:        "",
		EndDate:          "",
		TotalStoryPoints: totalPoints,
		DailyData:        []entities.BurndownDataPoint{},
	}, nil
}
