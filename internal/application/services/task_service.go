package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/taskdown/server/internal/domain/entities"
	"github.com/taskdown/server/internal/infrastructure/logger"
	"github.com/taskdown/server/internal/ports"
)

// TaskService handles task-related operations
type TaskService struct {
	taskRepo     ports.TaskRepository
	activityRepo ports.ActivityRepository
	logger       *logger.Logger
}

// NewTaskService creates a new task service
func NewTaskService(taskRepo ports.TaskRepository, activityRepo ports.ActivityRepository, logger *logger.Logger) *TaskService {
	return &TaskService{
		taskRepo:     taskRepo,
		activityRepo: activityRepo,
		logger:       logger,
	}
}

// ListTasks retrieves tasks matching the filter.
func (s *TaskService) ListTasks(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, error) {
	tasks, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask retrieves a task by ID.
func (s *TaskService) GetTask(ctx context.Context, id string) (*entities.Task, error) {
	return s.taskRepo.GetByID(ctx, id)
}

// CreateTask validates and creates a new task.
func (s *TaskService) CreateTask(ctx context.Context, req ports.CreateTaskRequest) (*entities.Task, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	task, err := s.taskRepo.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	s.recordActivity(ctx, "task_created", task.ID, task.Title, nil)
	s.logger.Info("Task created", "task_id", task.ID, "title", task.Title)

	return task, nil
}

// UpdateTask validates and applies a sparse update, returning the updated
// aggregate.
func (s *TaskService) UpdateTask(ctx context.Context, id string, req ports.UpdateTaskRequest) (*entities.Task, error) {
	if err := validateUpdate(req); err != nil {
		return nil, err
	}

	var details *entities.ActivityDetails
	if req.Status != nil {
		if before, err := s.taskRepo.GetByID(ctx, id); err == nil && before.Status != *req.Status {
			field := "status"
			oldValue, _ := json.Marshal(before.Status.WireName())
			newValue, _ := json.Marshal(req.Status.WireName())
			details = &entities.ActivityDetails{Field: &field, OldValue: oldValue, NewValue: newValue}
		}
	}

	if err := s.taskRepo.Update(ctx, id, req); err != nil {
		return nil, err
	}

	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.recordActivity(ctx, "task_updated", task.ID, task.Title, details)
	s.logger.Info("Task updated", "task_id", task.ID)

	return task, nil
}

// DeleteTask removes a task and its children.
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.taskRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.recordActivity(ctx, "task_deleted", id, task.Title, nil)
	s.logger.Info("Task deleted", "task_id", id)

	return nil
}

// ExecuteBulk runs a batch of task operations in order. Each operation is
// reported individually; one failure never aborts the rest of the batch.
func (s *TaskService) ExecuteBulk(ctx context.Context, req ports.BulkOperationsRequest) []ports.BulkOperationResult {
	results := make([]ports.BulkOperationResult, 0, len(req.Operations))

	for _, op := range req.Operations {
		result := ports.BulkOperationResult{Operation: op.Type, Success: true}
		if op.TaskID != nil {
			result.TaskID = *op.TaskID
		}

		err := s.executeBulkOperation(ctx, op, &result)
		if err != nil {
			msg := err.Error()
			result.Success = false
			result.Error = &msg
		}

		results = append(results, result)
	}

	s.logger.Info("Bulk operations executed", "count", len(results))

	return results
}

func (s *TaskService) executeBulkOperation(ctx context.Context, op ports.BulkOperation, result *ports.BulkOperationResult) error {
	switch op.Type {
	case "create":
		var createReq ports.CreateTaskRequest
		if err := json.Unmarshal(op.Data, &createReq); err != nil {
			return fmt.Errorf("malformed create payload: %w", err)
		}

		task, err := s.CreateTask(ctx, createReq)
		if err != nil {
			return err
		}
		result.TaskID = task.ID
		return nil

	case "update":
		if op.TaskID == nil {
			return fmt.Errorf("update operation requires task_id")
		}

		var updateReq ports.UpdateTaskRequest
		if err := json.Unmarshal(op.Data, &updateReq); err != nil {
			return fmt.Errorf("malformed update payload: %w", err)
		}

		_, err := s.UpdateTask(ctx, *op.TaskID, updateReq)
		return err

	case "delete":
		if op.TaskID == nil {
			return fmt.Errorf("delete operation requires task_id")
		}
		return s.DeleteTask(ctx, *op.TaskID)

	default:
		return fmt.Errorf("unknown operation type %q", op.Type)
	}
}

func (s *TaskService) recordActivity(ctx context.Context, action, taskID, taskTitle string, details *entities.ActivityDetails) {
	activity := &entities.Activity{
		UserID:     "system",
		UserName:   "System",
		Action:     action,
		TargetType: "task",
		TargetID:   taskID,
		TargetName: taskTitle,
		Details:    details,
	}

	// The audit trail is best-effort; a failed write never fails the task
	// operation itself.
	if err := s.activityRepo.Record(ctx, activity); err != nil {
		s.logger.Warn("Failed to record activity", "action", action, "task_id", taskID, "error", err)
	}
}

func validateCreate(req ports.CreateTaskRequest) error {
	if req.Title == "" {
		return fmt.Errorf("%w: title must not be empty", entities.ErrValidation)
	}
	if !req.Type.IsValid() {
		return fmt.Errorf("%w: unknown task type %q", entities.ErrValidation, string(req.Type))
	}
	if !req.Priority.IsValid() {
		return fmt.Errorf("%w: unknown priority %q", entities.ErrValidation, string(req.Priority))
	}
	if !req.Status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", entities.ErrValidation, string(req.Status))
	}
	return nil
}

func validateUpdate(req ports.UpdateTaskRequest) error {
	if req.Title != nil && *req.Title == "" {
		return fmt.Errorf("%w: title must not be empty", entities.ErrValidation)
	}
	if req.Type != nil && !req.Type.IsValid() {
		return fmt.Errorf("%w: unknown task type %q", entities.ErrValidation, string(*req.Type))
	}
	if req.Priority != nil && !req.Priority.IsValid() {
		return fmt.Errorf("%w: unknown priority %q", entities.ErrValidation, string(*req.Priority))
	}
	if req.Status != nil && !req.Status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", entities.ErrValidation, string(*req.Status))
	}
	return nil
}
