package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdown/server/internal/adapters/repository"
	"github.com/taskdown/server/internal/domain/entities"
	"github.com/taskdown/server/internal/infrastructure/config"
	"github.com/taskdown/server/internal/infrastructure/database"
	"github.com/taskdown/server/internal/infrastructure/logger"
	"github.com/taskdown/server/internal/ports"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(config.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 2,
		MaxIdleConns: 2,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.MigrateUp())

	return db
}

func newTaskService(t *testing.T, db *database.DB) (*TaskService, *repository.ActivityRepository) {
	t.Helper()

	activityRepo := repository.NewActivityRepository(db)
	svc := NewTaskService(repository.NewTaskRepository(db), activityRepo, logger.NewNop())
	return svc, activityRepo
}

func validCreateRequest(title string) ports.CreateTaskRequest {
	return ports.CreateTaskRequest{
		Title:    title,
		Type:     entities.TaskTypeTask,
		Priority: entities.PriorityHigh,
		Status:   entities.TaskStatusTodo,
	}
}

func TestCreateTaskRejectsUnknownEnums(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTaskService(t, db)
	ctx := context.Background()

	req := validCreateRequest("bad type")
	req.Type = "Chore"
	_, err := svc.CreateTask(ctx, req)
	assert.ErrorIs(t, err, entities.ErrValidation)

	req = validCreateRequest("bad status")
	req.Status = "Blocked"
	_, err = svc.CreateTask(ctx, req)
	assert.ErrorIs(t, err, entities.ErrValidation)

	req = validCreateRequest("")
	_, err = svc.CreateTask(ctx, req)
	assert.ErrorIs(t, err, entities.ErrValidation)
}

func TestTaskLifecycleRecordsActivities(t *testing.T) {
	db := newTestDB(t)
	svc, activityRepo := newTaskService(t, db)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, validCreateRequest("Tracked task"))
	require.NoError(t, err)

	status := entities.TaskStatusDone
	_, err = svc.UpdateTask(ctx, task.ID, ports.UpdateTaskRequest{Status: &status})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTask(ctx, task.ID))

	activities, total, err := activityRepo.List(ctx, ports.ActivityFilter{TargetID: &task.ID})
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	actions := make(map[string]bool)
	for _, a := range activities {
		actions[a.Action] = true
	}
	assert.True(t, actions["task_created"])
	assert.True(t, actions["task_updated"])
	assert.True(t, actions["task_deleted"])
}

func TestStatusChangeActivityCarriesOldAndNewValues(t *testing.T) {
	db := newTestDB(t)
	svc, activityRepo := newTaskService(t, db)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, validCreateRequest("Status change"))
	require.NoError(t, err)

	status := entities.TaskStatusInProgress
	_, err = svc.UpdateTask(ctx, task.ID, ports.UpdateTaskRequest{Status: &status})
	require.NoError(t, err)

	activities, _, err := activityRepo.List(ctx, ports.ActivityFilter{TargetID: &task.ID})
	require.NoError(t, err)

	var update *entities.Activity
	for _, a := range activities {
		if a.Action == "task_updated" {
			update = a
		}
	}
	require.NotNil(t, update)
	require.NotNil(t, update.Details)
	assert.Equal(t, "status", *update.Details.Field)
	assert.JSONEq(t, `"Todo"`, string(update.Details.OldValue))
	assert.JSONEq(t, `"In Progress"`, string(update.Details.NewValue))
}

func TestExecuteBulkReportsPerOperation(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTaskService(t, db)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, validCreateRequest("Bulk target"))
	require.NoError(t, err)

	missing := "no-such-task"
	results := svc.ExecuteBulk(ctx, ports.BulkOperationsRequest{
		Operations: []ports.BulkOperation{
			{Type: "create", Data: []byte(`{"title":"Bulk created","type":"Bug","priority":"Low","status":"Todo"}`)},
			{Type: "delete", TaskID: &task.ID},
			{Type: "delete", TaskID: &missing},
			{Type: "archive", TaskID: &task.ID},
		},
	})

	require.Len(t, results, 4)
	assert.True(t, results[0].Success)
	assert.NotEmpty(t, results[0].TaskID)
	assert.True(t, results[1].Success)
	assert.False(t, results[2].Success)
	require.NotNil(t, results[2].Error)
	assert.False(t, results[3].Success)
}

func TestAnalyticsSummarySeedsAllKeys(t *testing.T) {
	db := newTestDB(t)
	taskRepo := repository.NewTaskRepository(db)
	svc := NewAnalyticsService(repository.NewAnalyticsRepository(db), logger.NewNop())
	ctx := context.Background()

	req := validCreateRequest("only one")
	req.Status = entities.TaskStatusInProgress
	_, err := taskRepo.Create(ctx, req)
	require.NoError(t, err)

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.TotalTasks)

	// Status keys use the wire form and zero counts are present.
	assert.Equal(t, 1, summary.TasksByStatus["In Progress"])
	assert.Contains(t, summary.TasksByStatus, "In Review")
	assert.Zero(t, summary.TasksByStatus["Done"])
	assert.Len(t, summary.TasksByStatus, 4)
	assert.Len(t, summary.TasksByType, 4)
	assert.Len(t, summary.TasksByPriority, 4)
	assert.Zero(t, summary.CompletionRate)
}

func TestExportMarkdownFormatting(t *testing.T) {
	db := newTestDB(t)
	taskRepo := repository.NewTaskRepository(db)
	svc := NewExportService(taskRepo, logger.NewNop())
	ctx := context.Background()

	req := validCreateRequest("Ship login")
	req.Type = entities.TaskTypeStory
	req.Status = entities.TaskStatusInProgress
	req.StoryPoints = intp(5)
	req.Description = "OAuth-based login"
	req.AcceptanceCriteria = []entities.ChecklistItem{
		{Text: "Redirect works", Completed: true},
		{Text: "Token stored", Completed: false},
	}
	_, err := taskRepo.Create(ctx, req)
	require.NoError(t, err)

	result, err := svc.ExportMarkdown(ctx)
	require.NoError(t, err)

	assert.Contains(t, result.Markdown, "# Taskdown Export")
	assert.Contains(t, result.Markdown, "## In Progress")
	assert.Contains(t, result.Markdown, "### [Story] Ship login")
	assert.Contains(t, result.Markdown, "- Priority: High")
	assert.Contains(t, result.Markdown, "- Story Points: 5")
	assert.Contains(t, result.Markdown, "- [x] Redirect works")
	assert.Contains(t, result.Markdown, "- [ ] Token stored")
	assert.Regexp(t, `^taskdown-export-\d{8}\.md$`, result.Filename)
}

func TestExportMarkdownEmptyWorkspace(t *testing.T) {
	db := newTestDB(t)
	svc := NewExportService(repository.NewTaskRepository(db), logger.NewNop())

	result, err := svc.ExportMarkdown(context.Background())
	require.NoError(t, err)
	assert.Contains(t, result.Markdown, "No tasks found.")
}

func TestImportMarkdownReportsUnimplemented(t *testing.T) {
	db := newTestDB(t)
	svc := NewExportService(repository.NewTaskRepository(db), logger.NewNop())

	result := svc.ImportMarkdown(context.Background(), ImportMarkdownRequest{Markdown: "# Tasks"})
	assert.Zero(t, result.Imported)
	assert.Zero(t, result.Updated)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Import not yet implemented", result.Errors[0])
}

func TestUserServiceHashesPasswords(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db), logger.NewNop())
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, CreateUserRequest{
		Username: "sam",
		Email:    "sam@example.com",
		Password: "correct horse battery staple",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, entities.UserRoleUser, user.Role)
	assert.Equal(t, "sam", user.DisplayName)
	assert.NotEqual(t, "correct horse battery staple", user.PasswordHash)
	assert.NotEmpty(t, user.PasswordHash)

	_, err = svc.CreateUser(ctx, CreateUserRequest{
		Username: "kim",
		Email:    "kim@example.com",
		Password: "pw",
		Role:     "owner",
	})
	assert.ErrorIs(t, err, entities.ErrValidation)
}

func TestAuthServiceIssuesSessionTokens(t *testing.T) {
	svc := NewAuthService(config.AuthConfig{
		Secret:          "test-secret",
		SessionDuration: time.Hour,
		Issuer:          "taskdown-test",
	}, logger.NewNop())
	ctx := context.Background()

	username := "sam"
	resp, err := svc.Verify(ctx, AuthRequest{
		Credentials: AuthCredentials{Type: "basic", Username: &username},
	})
	require.NoError(t, err)

	assert.True(t, resp.Authenticated)
	require.NotNil(t, resp.SessionToken)
	assert.NotEmpty(t, *resp.SessionToken)
	assert.Equal(t, []string{"read", "write", "admin"}, resp.Permissions)

	status := svc.Status(ctx)
	assert.True(t, status.Authenticated)
	assert.Nil(t, status.SessionToken)
}

func intp(i int) *int { return &i }
