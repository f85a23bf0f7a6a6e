package entities

import (
	"encoding/json"
	"fmt"
	"time"
)

// Enums and types
type TaskType string

const (
	TaskTypeEpic  TaskType = "Epic"
	TaskTypeStory TaskType = "Story"
	TaskTypeTask  TaskType = "Task"
	TaskTypeBug   TaskType = "Bug"
)

type Priority string

const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
	PriorityLow      Priority = "Low"
)

// TaskStatus is stored in its compact form ("InProgress") but serialized on
// the wire with spaces ("In Progress") for compatibility with existing clients.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "Todo"
	TaskStatusInProgress TaskStatus = "InProgress"
	TaskStatusInReview   TaskStatus = "InReview"
	TaskStatusDone       TaskStatus = "Done"
)

var statusWireNames = map[TaskStatus]string{
	TaskStatusTodo:       "Todo",
	TaskStatusInProgress: "In Progress",
	TaskStatusInReview:   "In Review",
	TaskStatusDone:       "Done",
}

// WireName returns the client-facing form of the status ("In Progress").
// Unknown values pass through unchanged.
func (ts TaskStatus) WireName() string {
	if name, ok := statusWireNames[ts]; ok {
		return name
	}
	return string(ts)
}

// MarshalJSON renders the wire form of the status.
func (ts TaskStatus) MarshalJSON() ([]byte, error) {
	name, ok := statusWireNames[ts]
	if !ok {
		return nil, fmt.Errorf("unknown task status %q", string(ts))
	}
	return json.Marshal(name)
}

// UnmarshalJSON accepts both the wire form ("In Progress") and the stored
// form ("InProgress").
func (ts *TaskStatus) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for status, wire := range statusWireNames {
		if s == wire || s == string(status) {
			*ts = status
			return nil
		}
	}
	return fmt.Errorf("unknown task status %q", s)
}

type UserRole string

const (
	UserRoleAdmin  UserRole = "admin"
	UserRoleUser   UserRole = "user"
	UserRoleViewer UserRole = "viewer"
)

// ChecklistKind selects one of a task's two checklists. The values match the
// item_type column of checklist_items.
type ChecklistKind string

const (
	ChecklistAcceptanceCriteria ChecklistKind = "acceptance_criteria"
	ChecklistTechnicalTasks     ChecklistKind = "technical_tasks"
)

// ChecklistItem belongs to exactly one task and one checklist kind. Items
// without an ID are assigned one when their parent checklist is saved.
type ChecklistItem struct {
	ID        *string `json:"id"`
	Text      string  `json:"text"`
	Completed bool    `json:"completed"`
}

// Task is the full aggregate: the main row plus both checklists and both
// relationship lists.
type Task struct {
	ID                 string          `json:"id" db:"id"`
	Title              string          `json:"title" db:"title"`
	Type               TaskType        `json:"type" db:"task_type"`
	Priority           Priority        `json:"priority" db:"priority"`
	Status             TaskStatus      `json:"status" db:"status"`
	StoryPoints        *int            `json:"story_points,omitempty" db:"story_points"`
	Sprint             *string         `json:"sprint,omitempty" db:"sprint"`
	Epic               *string         `json:"epic,omitempty" db:"epic"`
	Description        string          `json:"description" db:"description"`
	AcceptanceCriteria []ChecklistItem `json:"acceptance_criteria"`
	TechnicalTasks     []ChecklistItem `json:"technical_tasks"`
	Dependencies       []string        `json:"dependencies"`
	Blocks             []string        `json:"blocks"`
	Assignee           *string         `json:"assignee,omitempty" db:"assignee"`
	IsFavorite         *bool           `json:"is_favorite,omitempty" db:"is_favorite"`
	Thumbnail          *string         `json:"thumbnail,omitempty" db:"thumbnail"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// User represents a user row. The HTTP surface for users is a thin shell; the
// storage shape is what matters here.
type User struct {
	ID           string    `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	DisplayName  string    `json:"display_name" db:"display_name"`
	Email        string    `json:"email" db:"email"`
	Role         UserRole  `json:"role" db:"role"`
	Avatar       *string   `json:"avatar,omitempty" db:"avatar"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	LastSeen     time.Time `json:"last_seen"`
	PasswordHash string    `json:"-" db:"password_hash"`
}

// Activity is an append-only audit record.
type Activity struct {
	ID         string           `json:"id" db:"id"`
	UserID     string           `json:"user_id" db:"user_id"`
	UserName   string           `json:"user_name" db:"user_name"`
	Action     string           `json:"action" db:"action"`
	TargetType string           `json:"target_type" db:"target_type"`
	TargetID   string           `json:"target_id" db:"target_id"`
	TargetName string           `json:"target_name" db:"target_name"`
	Details    *ActivityDetails `json:"details,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
}

type ActivityDetails struct {
	Field    *string         `json:"field,omitempty"`
	OldValue json.RawMessage `json:"old_value,omitempty"`
	NewValue json.RawMessage `json:"new_value,omitempty"`
}

// WorkspaceConfig is the singleton configuration row.
type WorkspaceConfig struct {
	WorkspaceName string            `json:"workspace_name"`
	Timezone      string            `json:"timezone"`
	DateFormat    string            `json:"date_format"`
	Features      WorkspaceFeatures `json:"features"`
	Limits        WorkspaceLimits   `json:"limits"`
}

type WorkspaceFeatures struct {
	Realtime     bool `json:"realtime"`
	Analytics    bool `json:"analytics"`
	Webhooks     bool `json:"webhooks"`
	CustomFields bool `json:"custom_fields"`
}

type WorkspaceLimits struct {
	MaxTasks     int `json:"max_tasks"`
	MaxUsers     int `json:"max_users"`
	APIRateLimit int `json:"api_rate_limit"`
}

// DefaultWorkspaceConfig is written on first access of the singleton row.
func DefaultWorkspaceConfig() WorkspaceConfig {
	return WorkspaceConfig{
		WorkspaceName: "Taskdown Workspace",
		Timezone:      "UTC",
		DateFormat:    "YYYY-MM-DD",
		Features: WorkspaceFeatures{
			Realtime:     false,
			Analytics:    true,
			Webhooks:     false,
			CustomFields: false,
		},
		Limits: WorkspaceLimits{
			MaxTasks:     10000,
			MaxUsers:     100,
			APIRateLimit: 1000,
		},
	}
}

// AnalyticsSummary is the read-only statistics view over the task set.
type AnalyticsSummary struct {
	TotalTasks         int            `json:"total_tasks"`
	TasksByStatus      map[string]int `json:"tasks_by_status"`
	TasksByType        map[string]int `json:"tasks_by_type"`
	TasksByPriority    map[string]int `json:"tasks_by_priority"`
	AverageStoryPoints float64        `json:"average_story_points"`
	CompletionRate     float64        `json:"completion_rate"`
	ActiveSprints      []string       `json:"active_sprints"`
	LastUpdated        time.Time      `json:"last_updated"`
}

// BurndownData reports story-point totals for one sprint. The daily series is
// not computed yet.
type BurndownData struct {
	Sprint           string              `json:"sprint"`
	StartDate        string              `json:"start_date"`
	EndDate          string              `json:"end_date"`
	TotalStoryPoints int                 `json:"total_story_points"`
	DailyData        []BurndownDataPoint `json:"daily_data"`
}

type BurndownDataPoint struct {
	Date            string `json:"date"`
	RemainingPoints int    `json:"remaining_points"`
	CompletedPoints int    `json:"completed_points"`
	IdealRemaining  int    `json:"ideal_remaining"`
}

// Utility methods
func (tt TaskType) IsValid() bool {
	switch tt {
	case TaskTypeEpic, TaskTypeStory, TaskTypeTask, TaskTypeBug:
		return true
	default:
		return false
	}
}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

func (ts TaskStatus) IsValid() bool {
	switch ts {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusInReview, TaskStatusDone:
		return true
	default:
		return false
	}
}

func (ur UserRole) IsValid() bool {
	switch ur {
	case UserRoleAdmin, UserRoleUser, UserRoleViewer:
		return true
	default:
		return false
	}
}

func (ck ChecklistKind) IsValid() bool {
	switch ck {
	case ChecklistAcceptanceCriteria, ChecklistTechnicalTasks:
		return true
	default:
		return false
	}
}
