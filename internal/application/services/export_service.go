package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/taskdown/server/internal/domain/entities"
	"github.com/taskdown/server/internal/infrastructure/logger"
	"github.com/taskdown/server/internal/ports"
)

// ExportResult is the rendered markdown document plus a suggested filename.
type ExportResult struct {
	Markdown string `json:"markdown"`
	Filename string `json:"filename"`
}

// ImportResult reports what a markdown import did.
type ImportResult struct {
	Imported int      `json:"imported"`
	Updated  int      `json:"updated"`
	Errors   []string `json:"errors"`
}

// ImportMarkdownRequest carries a markdown document to import.
type ImportMarkdownRequest struct {
	Markdown string `json:"markdown"`
}

// ExportService renders the task set as a markdown document. Import is
// accepted but not implemented; it reports so instead of failing.
type ExportService struct {
	taskRepo ports.TaskRepository
	logger   *logger.Logger
}

// NewExportService creates a new export service
func NewExportService(taskRepo ports.TaskRepository, logger *logger.Logger) *ExportService {
	return &ExportService{
		taskRepo: taskRepo,
		logger:   logger,
	}
}

// ExportMarkdown renders every task into one markdown document, grouped by
// status in board order.
func (s *ExportService) ExportMarkdown(ctx context.Context) (*ExportResult, error) {
	tasks, err := s.taskRepo.List(ctx, ports.TaskFilter{})
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("# Taskdown Export\n")

	if len(tasks) == 0 {
		b.WriteString("\nNo tasks found.")
	} else {
		order := []entities.TaskStatus{
			entities.TaskStatusTodo,
			entities.TaskStatusInProgress,
			entities.TaskStatusInReview,
			entities.TaskStatusDone,
		}
		for _, status := range order {
			var section []*entities.Task
			for _, task := range tasks {
				if task.Status == status {
					section = append(section, task)
				}
			}
			if len(section) == 0 {
				continue
			}

			b.WriteString("\n## " + status.WireName() + "\n")
			for _, task := range section {
				writeTaskMarkdown(&b, task)
			}
		}
	}

	result := &ExportResult{
		Markdown: b.String(),
		Filename: fmt.Sprintf("taskdown-export-%s.md", time.Now().UTC().Format("20060102")),
	}

	s.logger.Info("Markdown export rendered", "tasks", len(tasks))

	return result, nil
}

func writeTaskMarkdown(b *strings.Builder, task *entities.Task) {
	fmt.Fprintf(b, "\n### [%s] %s\n", string(task.Type), task.Title)
	fmt.Fprintf(b, "- Priority: %s\n", string(task.Priority))
	if task.StoryPoints != nil {
		fmt.Fprintf(b, "- Story Points: %d\n", *task.StoryPoints)
	}
	if task.Sprint != nil {
		fmt.Fprintf(b, "- Sprint: %s\n", *task.Sprint)
	}
	if task.Epic != nil {
		fmt.Fprintf(b, "- Epic: %s\n", *task.Epic)
	}
	if task.Assignee != nil {
		fmt.Fprintf(b, "- Assignee: %s\n", *task.Assignee)
	}
	if task.Description != "" {
		b.WriteString("\n" + task.Description + "\n")
	}

	writeChecklistMarkdown(b, "Acceptance Criteria", task.AcceptanceCriteria)
	writeChecklistMarkdown(b, "Technical Tasks", task.TechnicalTasks)
}

func writeChecklistMarkdown(b *strings.Builder, heading string, items []entities.ChecklistItem) {
	if len(items) == 0 {
		return
	}

	b.WriteString("\n**" + heading + "**\n")
	for _, item := range items {
		box := "[ ]"
		if item.Completed {
			box = "[x]"
		}
		fmt.Fprintf(b, "- %s %s\n", box, item.Text)
	}
}

// ImportMarkdown reports that importing is not implemented yet. The endpoint
// exists so clients get a structured answer instead of a 404.
func (s *ExportService) ImportMarkdown(ctx context.Context, req ImportMarkdownRequest) *ImportResult {
	return &ImportResult{
		Imported: 0,
		Updated:  0,
		Errors:   []string{"Import not yet implemented"},
	}
}
