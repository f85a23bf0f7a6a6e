package http

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskdown/server/internal/application/services"
	"github.com/taskdown/server/internal/domain/entities"
	"github.com/taskdown/server/internal/infrastructure/logger"
	"github.com/taskdown/server/internal/ports"
)

// taskListResponse wraps the task page for syncing clients.
type taskListResponse struct {
	Tasks      []*entities.Task `json:"tasks"`
	LastSync   time.Time        `json:"last_sync"`
	TotalCount *int             `json:"total_count"`
	HasMore    *bool            `json:"has_more"`
}

// taskCreatedResponse returns only the server-assigned fields; the client
// already holds the rest of the task it sent.
type taskCreatedResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type taskUpdatedResponse struct {
	UpdatedAt time.Time `json:"updatedAt"`
}

type taskDeletedResponse struct {
	Deleted bool `json:"deleted"`
}

// TaskHandler handles task-related requests
type TaskHandler struct {
	taskService *services.TaskService
	logger      *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService *services.TaskService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// ListTasks handles GET /api/tasks
func (h *TaskHandler) ListTasks(c echo.Context) error {
	filter, err := taskFilterFromQuery(c)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "INVALID_QUERY", err.Error())
	}

	tasks, err := h.taskService.ListTasks(c.Request().Context(), filter)
	if err != nil {
		h.logger.Error("List tasks failed", "error", err)
		return respondDomainError(c, err)
	}

	return respondOK(c, taskListResponse{
		Tasks:    tasks,
		LastSync: time.Now().UTC(),
	})
}

// GetTask handles GET /api/tasks/:id
func (h *TaskHandler) GetTask(c echo.Context) error {
	id := c.Param("id")

	task, err := h.taskService.GetTask(c.Request().Context(), id)
	if err != nil {
		return respondDomainError(c, err)
	}

	return respondOK(c, task)
}

// CreateTask handles POST /api/tasks
func (h *TaskHandler) CreateTask(c echo.Context) error {
	var req ports.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION", "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION", err.Error())
	}

	task, err := h.taskService.CreateTask(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("Create task failed", "error", err)
		return respondDomainError(c, err)
	}

	return respondCreated(c, taskCreatedResponse{
		ID:        task.ID,
		CreatedAt: task.CreatedAt,
		UpdatedAt: task.UpdatedAt,
	})
}

// UpdateTask handles PUT /api/tasks/:id
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	id := c.Param("id")

	var req ports.UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION", "Invalid request format")
	}

	task, err := h.taskService.UpdateTask(c.Request().Context(), id, req)
	if err != nil {
		h.logger.Error("Update task failed", "error", err, "task_id", id)
		return respondDomainError(c, err)
	}

	return respondOK(c, taskUpdatedResponse{UpdatedAt: task.UpdatedAt})
}

// DeleteTask handles DELETE /api/tasks/:id
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	id := c.Param("id")

	if err := h.taskService.DeleteTask(c.Request().Context(), id); err != nil {
		return respondDomainError(c, err)
	}

	return respondOK(c, taskDeletedResponse{Deleted: true})
}

// BulkOperations handles POST /api/tasks/bulk
func (h *TaskHandler) BulkOperations(c echo.Context) error {
	var req ports.BulkOperationsRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION", "Invalid request format")
	}

	results := h.taskService.ExecuteBulk(c.Request().Context(), req)

	return respondOK(c, map[string]interface{}{"results": results})
}

func taskFilterFromQuery(c echo.Context) (ports.TaskFilter, error) {
	var filter ports.TaskFilter

	// url.Query() silently drops pairs containing semicolons, which would
	// let malformed filter input pass as if it were absent. Parse strictly
	// and reject the whole request instead.
	params, err := url.ParseQuery(c.Request().URL.RawQuery)
	if err != nil {
		return filter, fmt.Errorf("malformed query string: %v", err)
	}

	stringParam := func(name string) *string {
		if v := params.Get(name); v != "" {
			return &v
		}
		return nil
	}

	filter.Epic = stringParam("epic")
	filter.Status = stringParam("status")
	filter.Assignee = stringParam("assignee")
	filter.Search = stringParam("search")
	filter.Sort = stringParam("sort")

	if v := params.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return filter, fmt.Errorf("limit must be a non-negative integer")
		}
		filter.Limit = &limit
	}

	if v := params.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return filter, fmt.Errorf("offset must be a non-negative integer")
		}
		filter.Offset = &offset
	}

	return filter, nil
}
