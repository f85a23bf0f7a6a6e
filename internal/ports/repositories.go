package ports

import (
	"context"
	"encoding/json"

	"github.com/taskdown/server/internal/domain/entities"
)

// TaskFilter carries the optional list filters. All filters combine with AND.
// Sort is "column:direction" against a fixed allow-list; Offset is only
// applied when Limit is set.
type TaskFilter struct {
	Epic     *string
	Status   *string
	Assignee *string
	Search   *string
	Sort     *string
	Limit    *int
	Offset   *int
}

// CreateTaskRequest mirrors the task aggregate minus server-assigned fields.
type CreateTaskRequest struct {
	Title              string                   `json:"title" validate:"required"`
	Type               entities.TaskType        `json:"type" validate:"required"`
	Priority           entities.Priority        `json:"priority" validate:"required"`
	Status             entities.TaskStatus      `json:"status" validate:"required"`
	StoryPoints        *int                     `json:"story_points"`
	Sprint             *string                  `json:"sprint"`
	Epic               *string                  `json:"epic"`
	Description        string                   `json:"description"`
	AcceptanceCriteria []entities.ChecklistItem `json:"acceptance_criteria"`
	TechnicalTasks     []entities.ChecklistItem `json:"technical_tasks"`
	Dependencies       []string                 `json:"dependencies"`
	Blocks             []string                 `json:"blocks"`
	Assignee           *string                  `json:"assignee"`
	IsFavorite         *bool                    `json:"is_favorite"`
	Thumbnail          *string                  `json:"thumbnail"`
}

// UpdateTaskRequest is a sparse update: nil fields are left untouched. A
// present checklist or relationship list replaces the stored one wholesale.
type UpdateTaskRequest struct {
	Title              *string                   `json:"title"`
	Type               *entities.TaskType        `json:"type"`
	Priority           *entities.Priority        `json:"priority"`
	Status             *entities.TaskStatus      `json:"status"`
	StoryPoints        *int                      `json:"story_points"`
	Sprint             *string                   `json:"sprint"`
	Epic               *string                   `json:"epic"`
	Description        *string                   `json:"description"`
	AcceptanceCriteria *[]entities.ChecklistItem `json:"acceptance_criteria"`
	TechnicalTasks     *[]entities.ChecklistItem `json:"technical_tasks"`
	Dependencies       *[]string                 `json:"dependencies"`
	Blocks             *[]string                 `json:"blocks"`
	Assignee           *string                   `json:"assignee"`
	IsFavorite         *bool                     `json:"is_favorite"`
	Thumbnail          *string                   `json:"thumbnail"`
}

// ConfigUpdateRequest applies only the supplied fields to the singleton
// workspace configuration.
type ConfigUpdateRequest struct {
	WorkspaceName *string                     `json:"workspace_name"`
	Timezone      *string                     `json:"timezone"`
	DateFormat    *string                     `json:"date_format"`
	Features      *entities.WorkspaceFeatures `json:"features"`
	Limits        *entities.WorkspaceLimits   `json:"limits"`
}

// BulkOperationsRequest batches task operations into one call. Operations run
// in order, each reported individually; a failed operation does not stop the
// batch.
type BulkOperationsRequest struct {
	Operations []BulkOperation `json:"operations"`
}

// BulkOperation is one step of a batch: "create", "update" or "delete". Data
// carries the create/update payload and is decoded per operation type.
type BulkOperation struct {
	Type   string          `json:"type"`
	TaskID *string         `json:"task_id"`
	Data   json.RawMessage `json:"data"`
}

// BulkOperationResult reports the outcome of one batch step.
type BulkOperationResult struct {
	Operation string  `json:"operation"`
	TaskID    string  `json:"task_id"`
	Success   bool    `json:"success"`
	Error     *string `json:"error,omitempty"`
}

// ActivityFilter pages through the audit trail, newest first.
type ActivityFilter struct {
	UserID   *string
	TargetID *string
	Limit    int
	Offset   int
}

// TaskRepository presents tasks as full aggregates and keeps the child
// collections consistent with the parent on every write.
type TaskRepository interface {
	List(ctx context.Context, filter TaskFilter) ([]*entities.Task, error)
	GetByID(ctx context.Context, id string) (*entities.Task, error)
	Create(ctx context.Context, req CreateTaskRequest) (*entities.Task, error)
	Update(ctx context.Context, id string, req UpdateTaskRequest) error
	Delete(ctx context.Context, id string) error
}

// AnalyticsRepository computes read-only statistics over the task set. Every
// query tolerates an empty task set.
type AnalyticsRepository interface {
	TotalTasks(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
	CountByType(ctx context.Context) (map[string]int, error)
	CountByPriority(ctx context.Context) (map[string]int, error)
	AverageStoryPoints(ctx context.Context) (float64, error)
	CompletionRate(ctx context.Context) (float64, error)
	ActiveSprints(ctx context.Context) ([]string, error)
	SprintStoryPoints(ctx context.Context, sprint string) (int, error)
}

// ConfigRepository maintains the singleton workspace configuration row.
type ConfigRepository interface {
	Get(ctx context.Context) (*entities.WorkspaceConfig, error)
	Update(ctx context.Context, req ConfigUpdateRequest) (*entities.WorkspaceConfig, error)
}

// UserRepository stores user rows. Consumed by the CLI and the thin user
// endpoints.
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id string) (*entities.User, error)
	List(ctx context.Context) ([]*entities.User, error)
	Delete(ctx context.Context, id string) error
}

// ActivityRepository appends and reads audit records.
type ActivityRepository interface {
	Record(ctx context.Context, activity *entities.Activity) error
	List(ctx context.Context, filter ActivityFilter) ([]*entities.Activity, int, error)
}
