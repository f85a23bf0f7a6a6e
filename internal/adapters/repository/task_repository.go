package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/taskdown/server/internal/domain/entities"
	"github.com/taskdown/server/internal/infrastructure/database"
	"github.com/taskdown/server/internal/ports"
)

// relationKind identifies one of the two relationship tables. Table and
// column names are resolved here, never from request input.
type relationKind int

const (
	relationDependencies relationKind = iota
	relationBlocks
)

func (k relationKind) table() string {
	if k == relationDependencies {
		return "task_dependencies"
	}
	return "task_blocks"
}

func (k relationKind) column() string {
	if k == relationDependencies {
		return "depends_on_task_id"
	}
	return "blocks_task_id"
}

// taskRow mirrors the tasks table. Timestamps are stored as RFC 3339 strings.
type taskRow struct {
	ID          string  `db:"id"`
	Title       string  `db:"title"`
	TaskType    string  `db:"task_type"`
	Priority    string  `db:"priority"`
	Status      string  `db:"status"`
	StoryPoints *int    `db:"story_points"`
	Sprint      *string `db:"sprint"`
	Epic        *string `db:"epic"`
	Description string  `db:"description"`
	Assignee    *string `db:"assignee"`
	IsFavorite  *bool   `db:"is_favorite"`
	Thumbnail   *string `db:"thumbnail"`
	CreatedAt   string  `db:"created_at"`
	UpdatedAt   string  `db:"updated_at"`
}

func (r taskRow) toTask() (*entities.Task, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("malformed created_at for task %s: %w", r.ID, err)
	}

	updatedAt, err := time.Parse(time.RFC3339Nano, r.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("malformed updated_at for task %s: %w", r.ID, err)
	}

	return &entities.Task{
		ID:          r.ID,
		Title:       r.Title,
		Type:        entities.TaskType(r.TaskType),
		Priority:    entities.Priority(r.Priority),
		Status:      entities.TaskStatus(r.Status),
		StoryPoints: r.StoryPoints,
		Sprint:      r.Sprint,
		Epic:        r.Epic,
		Description: r.Description,
		Assignee:    r.Assignee,
		IsFavorite:  r.IsFavorite,
		Thumbnail:   r.Thumbnail,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

// TaskRepository implements ports.TaskRepository over SQLite. Tasks are read
// and written as aggregates: the main row plus two checklists and two
// relationship lists.
type TaskRepository struct {
	db *database.DB
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(db *database.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// List retrieves task aggregates matching the filter. If enrichment of any
// task fails the whole operation fails; partial aggregates are never
// returned.
func (r *TaskRepository) List(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, error) {
	query, args, err := buildTaskListQuery(filter)
	if err != nil {
		return nil, err
	}

	var rows []taskRow
	if err := sqlx.SelectContext(ctx, r.db.DB, &rows, query, args...); err != nil {
		return nil, entities.NewStorageError("list", "task", "", err)
	}

	tasks := make([]*entities.Task, 0, len(rows))
	for _, row := range rows {
		task, err := row.toTask()
		if err != nil {
			return nil, entities.NewStorageError("list", "task", row.ID, err)
		}

		if err := r.enrich(ctx, r.db.DB, task); err != nil {
			return nil, err
		}

		tasks = append(tasks, task)
	}

	return tasks, nil
}

// GetByID retrieves a single task aggregate.
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*entities.Task, error) {
	var row taskRow
	err := sqlx.GetContext(ctx, r.db.DB, &row,
		"SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("task %s: %w", id, entities.ErrNotFound)
		}
		return nil, entities.NewStorageError("get", "task", id, err)
	}

	task, err := row.toTask()
	if err != nil {
		return nil, entities.NewStorageError("get", "task", id, err)
	}

	if err := r.enrich(ctx, r.db.DB, task); err != nil {
		return nil, err
	}

	return task, nil
}

// Create inserts a task aggregate and returns it re-read from storage. The
// main row and all four child collections are written in one transaction, so
// a partial aggregate is never visible.
func (r *TaskRepository) Create(ctx context.Context, req ports.CreateTaskRequest) (*entities.Task, error) {
	id := uuid.NewString()
	now := time.Now().UTC()
	stamp := now.Format(time.RFC3339Nano)

	isFavorite := false
	if req.IsFavorite != nil {
		isFavorite = *req.IsFavorite
	}

	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO tasks (id, title, task_type, priority, status, story_points, sprint, epic,
				description, assignee, is_favorite, thumbnail, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, req.Title, string(req.Type), string(req.Priority), string(req.Status),
			req.StoryPoints, req.Sprint, req.Epic, req.Description, req.Assignee,
			isFavorite, req.Thumbnail, stamp, stamp)
		if err != nil {
			return err
		}

		if err := replaceChecklist(ctx, tx, id, entities.ChecklistAcceptanceCriteria, req.AcceptanceCriteria); err != nil {
			return err
		}
		if err := replaceChecklist(ctx, tx, id, entities.ChecklistTechnicalTasks, req.TechnicalTasks); err != nil {
			return err
		}
		if err := replaceRelations(ctx, tx, id, relationDependencies, req.Dependencies); err != nil {
			return err
		}
		return replaceRelations(ctx, tx, id, relationBlocks, req.Blocks)
	})
	if err != nil {
		return nil, entities.NewStorageError("create", "task", id, err)
	}

	return r.GetByID(ctx, id)
}

// Update applies a sparse update. Only supplied fields change, but the
// updated_at timestamp always refreshes. Present checklists and relationship
// lists replace the stored ones wholesale, inside the same transaction as the
// main-row update.
func (r *TaskRepository) Update(ctx context.Context, id string, req ports.UpdateTaskRequest) error {
	now := time.Now().UTC()

	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		sets := []string{"updated_at = ?"}
		args := []interface{}{now.Format(time.RFC3339Nano)}

		appendSet := func(column string, value interface{}) {
			sets = append(sets, column+" = ?")
			args = append(args, value)
		}

		if req.Title != nil {
			appendSet("title", *req.Title)
		}
		if req.Type != nil {
			appendSet("task_type", string(*req.Type))
		}
		if req.Priority != nil {
			appendSet("priority", string(*req.Priority))
		}
		if req.Status != nil {
			appendSet("status", string(*req.Status))
		}
		if req.StoryPoints != nil {
			appendSet("story_points", *req.StoryPoints)
		}
		if req.Sprint != nil {
			appendSet("sprint", *req.Sprint)
		}
		if req.Epic != nil {
			appendSet("epic", *req.Epic)
		}
		if req.Description != nil {
			appendSet("description", *req.Description)
		}
		if req.Assignee != nil {
			appendSet("assignee", *req.Assignee)
		}
		if req.IsFavorite != nil {
			appendSet("is_favorite", *req.IsFavorite)
		}
		if req.Thumbnail != nil {
			appendSet("thumbnail", *req.Thumbnail)
		}

		query := "UPDATE tasks SET "
		for i, set := range sets {
			if i > 0 {
				query += ", "
			}
			query += set
		}
		query += " WHERE id = ?"
		args = append(args, id)

		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return fmt.Errorf("task %s: %w", id, entities.ErrNotFound)
		}

		if req.AcceptanceCriteria != nil {
			if err := replaceChecklist(ctx, tx, id, entities.ChecklistAcceptanceCriteria, *req.AcceptanceCriteria); err != nil {
				return err
			}
		}
		if req.TechnicalTasks != nil {
			if err := replaceChecklist(ctx, tx, id, entities.ChecklistTechnicalTasks, *req.TechnicalTasks); err != nil {
				return err
			}
		}
		if req.Dependencies != nil {
			if err := replaceRelations(ctx, tx, id, relationDependencies, *req.Dependencies); err != nil {
				return err
			}
		}
		if req.Blocks != nil {
			if err := replaceRelations(ctx, tx, id, relationBlocks, *req.Blocks); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, entities.ErrNotFound) {
			return err
		}
		return entities.NewStorageError("update", "task", id, err)
	}

	return nil
}

// Delete removes the main row; checklists and relationship edges go with it
// through cascading foreign keys.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.DB.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return entities.NewStorageError("delete", "task", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return entities.NewStorageError("delete", "task", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("task %s: %w", id, entities.ErrNotFound)
	}

	return nil
}

// enrich loads the four child collections onto a task.
func (r *TaskRepository) enrich(ctx context.Context, ext sqlx.ExtContext, task *entities.Task) error {
	var err error

	task.AcceptanceCriteria, err = getChecklist(ctx, ext, task.ID, entities.ChecklistAcceptanceCriteria)
	if err != nil {
		return err
	}

	task.TechnicalTasks, err = getChecklist(ctx, ext, task.ID, entities.ChecklistTechnicalTasks)
	if err != nil {
		return err
	}

	task.Dependencies, err = getRelations(ctx, ext, task.ID, relationDependencies)
	if err != nil {
		return err
	}

	task.Blocks, err = getRelations(ctx, ext, task.ID, relationBlocks)
	if err != nil {
		return err
	}

	return nil
}

type checklistRow struct {
	ID        string `db:"id"`
	Text      string `db:"text"`
	Completed bool   `db:"completed"`
}

func getChecklist(ctx context.Context, ext sqlx.ExtContext, taskID string, kind entities.ChecklistKind) ([]entities.ChecklistItem, error) {
	var rows []checklistRow
	err := sqlx.SelectContext(ctx, ext, &rows,
		`SELECT id, text, completed FROM checklist_items
		 WHERE task_id = ? AND item_type = ? ORDER BY sort_order`,
		taskID, string(kind))
	if err != nil {
		return nil, entities.NewStorageError("get checklist", "task", taskID, err)
	}

	items := make([]entities.ChecklistItem, 0, len(rows))
	for _, row := range rows {
		id := row.ID
		items = append(items, entities.ChecklistItem{
			ID:        &id,
			Text:      row.Text,
			Completed: row.Completed,
		})
	}

	return items, nil
}

func getRelations(ctx context.Context, ext sqlx.ExtContext, taskID string, kind relationKind) ([]string, error) {
	var ids []string
	err := sqlx.SelectContext(ctx, ext, &ids,
		"SELECT "+kind.column()+" FROM "+kind.table()+" WHERE task_id = ?", taskID)
	if err != nil {
		return nil, entities.NewStorageError("get relations", "task", taskID, err)
	}

	return ids, nil
}

// replaceChecklist rewrites a task's checklist of one kind: delete all, then
// reinsert in request order. Items without an id get a fresh one, so ids are
// regenerated whenever the parent checklist is rewritten.
func replaceChecklist(ctx context.Context, ext sqlx.ExtContext, taskID string, kind entities.ChecklistKind, items []entities.ChecklistItem) error {
	_, err := ext.ExecContext(ctx,
		"DELETE FROM checklist_items WHERE task_id = ? AND item_type = ?",
		taskID, string(kind))
	if err != nil {
		return err
	}

	for i, item := range items {
		id := uuid.NewString()
		if item.ID != nil && *item.ID != "" {
			id = *item.ID
		}

		_, err := ext.ExecContext(ctx,
			`INSERT INTO checklist_items (id, task_id, item_type, text, completed, sort_order)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, taskID, string(kind), item.Text, item.Completed, i)
		if err != nil {
			return err
		}
	}

	return nil
}

// replaceRelations rewrites one relationship list with the same
// delete-all-then-reinsert semantics as checklists.
func replaceRelations(ctx context.Context, ext sqlx.ExtContext, taskID string, kind relationKind, relatedIDs []string) error {
	_, err := ext.ExecContext(ctx, "DELETE FROM "+kind.table()+" WHERE task_id = ?", taskID)
	if err != nil {
		return err
	}

	for _, relatedID := range relatedIDs {
		_, err := ext.ExecContext(ctx,
			"INSERT INTO "+kind.table()+" (id, task_id, "+kind.column()+") VALUES (?, ?, ?)",
			uuid.NewString(), taskID, relatedID)
		if err != nil {
			return err
		}
	}

	return nil
}
