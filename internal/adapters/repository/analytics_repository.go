package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/taskdown/server/internal/domain/entities"
	"github.com/taskdown/server/internal/infrastructure/database"
)

// AnalyticsRepository computes statistics with SQL aggregation rather than
// loading tasks into memory. Every query tolerates an empty task set.
type AnalyticsRepository struct {
	db *database.DB
}

// NewAnalyticsRepository creates a new analytics repository.
func NewAnalyticsRepository(db *database.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// TotalTasks counts all tasks.
func (r *AnalyticsRepository) TotalTasks(ctx context.Context) (int, error) {
	var count int
	err := r.db.DB.GetContext(ctx, &count, "SELECT COUNT(*) FROM tasks")
	if err != nil {
		return 0, entities.NewStorageError("count", "task", "", err)
	}
	return count, nil
}

// statColumn identifies a grouping column. Column names are resolved here,
// never from request input.
type statColumn int

const (
	statStatus statColumn = iota
	statType
	statPriority
)

func (s statColumn) column() string {
	switch s {
	case statStatus:
		return "status"
	case statType:
		return "task_type"
	default:
		return "priority"
	}
}

func (r *AnalyticsRepository) countBy(ctx context.Context, col statColumn) (map[string]int, error) {
	column := col.column()

	rows, err := r.db.DB.QueryxContext(ctx,
		"SELECT "+column+", COUNT(*) FROM tasks GROUP BY "+column)
	if err != nil {
		return nil, entities.NewStorageError("count by "+column, "task", "", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, entities.NewStorageError("count by "+column, "task", "", err)
		}
		counts[key] = count
	}
	if err := rows.Err(); err != nil {
		return nil, entities.NewStorageError("count by "+column, "task", "", err)
	}

	return counts, nil
}

// CountByStatus groups tasks by their stored status form.
func (r *AnalyticsRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	return r.countBy(ctx, statStatus)
}

// CountByType groups tasks by type.
func (r *AnalyticsRepository) CountByType(ctx context.Context) (map[string]int, error) {
	return r.countBy(ctx, statType)
}

// CountByPriority groups tasks by priority.
func (r *AnalyticsRepository) CountByPriority(ctx context.Context) (map[string]int, error) {
	return r.countBy(ctx, statPriority)
}

// AverageStoryPoints averages story points over tasks that have them. Tasks
// with NULL story points are excluded entirely, which is AVG's native
// behavior. Returns 0 when no task carries points.
func (r *AnalyticsRepository) AverageStoryPoints(ctx context.Context) (float64, error) {
	var avg sql.NullFloat64
	err := r.db.DB.GetContext(ctx, &avg, "SELECT AVG(story_points) FROM tasks")
	if err != nil {
		return 0, entities.NewStorageError("average story points", "task", "", err)
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}

// CompletionRate returns the percentage of tasks in Done status, 0-100.
// An empty task set has a completion rate of 0, not a division error.
func (r *AnalyticsRepository) CompletionRate(ctx context.Context) (float64, error) {
	var total, done int
	err := r.db.DB.QueryRowxContext(ctx,
		"SELECT COUNT(*), COUNT(CASE WHEN status = ? THEN 1 END) FROM tasks",
		string(entities.TaskStatusDone)).Scan(&total, &done)
	if err != nil {
		return 0, entities.NewStorageError("completion rate", "task", "", err)
	}

	if total == 0 {
		return 0, nil
	}
	return float64(done) / float64(total) * 100, nil
}

// ActiveSprints lists the distinct sprint names carried by tasks that are not
// done yet.
func (r *AnalyticsRepository) ActiveSprints(ctx context.Context) ([]string, error) {
	var sprints []string
	err := r.db.DB.SelectContext(ctx, &sprints,
		`SELECT DISTINCT sprint FROM tasks
		 WHERE sprint IS NOT NULL AND sprint != '' AND status != ? ORDER BY sprint`,
		string(entities.TaskStatusDone))
	if err != nil {
		return nil, entities.NewStorageError("active sprints", "task", "", err)
	}
	return sprints, nil
}

// SprintStoryPoints totals the story points assigned to one sprint.
func (r *AnalyticsRepository) SprintStoryPoints(ctx context.Context, sprint string) (int, error) {
	var total sql.NullInt64
	err := r.db.DB.GetContext(ctx, &total,
		"SELECT SUM(story_points) FROM tasks WHERE sprint = ?", sprint)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, entities.NewStorageError("sprint story points", "task", "", err)
	}
	if !total.Valid {
		return 0, nil
	}
	return int(total.Int64), nil
}
