package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdown/server/internal/domain/entities"
	"github.com/taskdown/server/internal/ports"
)

func seedTask(t *testing.T, repo *TaskRepository, status entities.TaskStatus, points *int, sprint *string) {
	t.Helper()

	req := ports.CreateTaskRequest{
		Title:       "seed",
		Type:        entities.TaskTypeTask,
		Priority:    entities.PriorityLow,
		Status:      status,
		StoryPoints: points,
		Sprint:      sprint,
	}
	_, err := repo.Create(context.Background(), req)
	require.NoError(t, err)
}

func TestAnalyticsOnEmptyDatabase(t *testing.T) {
	db := newTestDB(t)
	repo := NewAnalyticsRepository(db)
	ctx := context.Background()

	total, err := repo.TotalTasks(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)

	avg, err := repo.AverageStoryPoints(ctx)
	require.NoError(t, err)
	assert.Zero(t, avg)

	rate, err := repo.CompletionRate(ctx)
	require.NoError(t, err)
	assert.Zero(t, rate)

	sprints, err := repo.ActiveSprints(ctx)
	require.NoError(t, err)
	assert.Empty(t, sprints)
}

func TestCompletionRate(t *testing.T) {
	db := newTestDB(t)
	taskRepo := NewTaskRepository(db)
	repo := NewAnalyticsRepository(db)
	ctx := context.Background()

	seedTask(t, taskRepo, entities.TaskStatusDone, nil, nil)
	seedTask(t, taskRepo, entities.TaskStatusDone, nil, nil)
	seedTask(t, taskRepo, entities.TaskStatusTodo, nil, nil)
	seedTask(t, taskRepo, entities.TaskStatusInProgress, nil, nil)

	rate, err := repo.CompletionRate(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, rate, 0.001)
}

func TestAverageStoryPointsExcludesNulls(t *testing.T) {
	db := newTestDB(t)
	taskRepo := NewTaskRepository(db)
	repo := NewAnalyticsRepository(db)
	ctx := context.Background()

	seedTask(t, taskRepo, entities.TaskStatusTodo, intptr(2), nil)
	seedTask(t, taskRepo, entities.TaskStatusTodo, intptr(8), nil)
	seedTask(t, taskRepo, entities.TaskStatusTodo, nil, nil)

	avg, err := repo.AverageStoryPoints(ctx)
	require.NoError(t, err)

	// The unpointed task is excluded, not counted as zero.
	assert.InDelta(t, 5.0, avg, 0.001)
}

func TestCountByStatus(t *testing.T) {
	db := newTestDB(t)
	taskRepo := NewTaskRepository(db)
	repo := NewAnalyticsRepository(db)
	ctx := context.Background()

	seedTask(t, taskRepo, entities.TaskStatusTodo, nil, nil)
	seedTask(t, taskRepo, entities.TaskStatusInProgress, nil, nil)
	seedTask(t, taskRepo, entities.TaskStatusInProgress, nil, nil)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, counts["Todo"])
	assert.Equal(t, 2, counts["InProgress"])
}

func TestActiveSprintsExcludeFinishedWork(t *testing.T) {
	db := newTestDB(t)
	taskRepo := NewTaskRepository(db)
	repo := NewAnalyticsRepository(db)
	ctx := context.Background()

	seedTask(t, taskRepo, entities.TaskStatusInProgress, nil, strptr("Sprint 2"))
	seedTask(t, taskRepo, entities.TaskStatusTodo, nil, strptr("Sprint 1"))
	seedTask(t, taskRepo, entities.TaskStatusTodo, nil, strptr("Sprint 1"))
	seedTask(t, taskRepo, entities.TaskStatusDone, nil, strptr("Sprint 0"))
	seedTask(t, taskRepo, entities.TaskStatusTodo, nil, nil)
	// An empty label is no sprint at all.
	seedTask(t, taskRepo, entities.TaskStatusTodo, nil, strptr(""))

	sprints, err := repo.ActiveSprints(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"Sprint 1", "Sprint 2"}, sprints)
}

func TestSprintStoryPoints(t *testing.T) {
	db := newTestDB(t)
	taskRepo := NewTaskRepository(db)
	repo := NewAnalyticsRepository(db)
	ctx := context.Background()

	seedTask(t, taskRepo, entities.TaskStatusTodo, intptr(3), strptr("Sprint 1"))
	seedTask(t, taskRepo, entities.TaskStatusDone, intptr(5), strptr("Sprint 1"))
	seedTask(t, taskRepo, entities.TaskStatusTodo, intptr(13), strptr("Sprint 2"))

	total, err := repo.SprintStoryPoints(ctx, "Sprint 1")
	require.NoError(t, err)
	assert.Equal(t, 8, total)

	empty, err := repo.SprintStoryPoints(ctx, "Sprint 99")
	require.NoError(t, err)
	assert.Zero(t, empty)
}
