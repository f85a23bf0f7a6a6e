package repository

import (
	"fmt"
	"strings"

	"github.com/taskdown/server/internal/domain/entities"
	"github.com/taskdown/server/internal/ports"
)

// taskColumns is the column list of every task read. Order matters to the
// row-scanning struct.
const taskColumns = `id, title, task_type, priority, status, story_points, sprint, epic,
	description, assignee, is_favorite, thumbnail, created_at, updated_at`

// sortColumns is the allow-list of sortable columns. Sort input is never
// interpolated into SQL; it is resolved against this map or rejected.
var sortColumns = map[string]string{
	"title":      "title",
	"created_at": "created_at",
	"updated_at": "updated_at",
	"priority":   "priority",
	"status":     "status",
}

var sortDirections = map[string]string{
	"asc":  "ASC",
	"desc": "DESC",
}

// parseSort resolves a "column:direction" sort parameter. A missing
// direction defaults to descending; no parameter at all sorts by last
// update, newest first.
func parseSort(sort *string) (string, error) {
	if sort == nil || *sort == "" {
		return "updated_at DESC", nil
	}

	parts := strings.SplitN(*sort, ":", 2)

	column, ok := sortColumns[parts[0]]
	if !ok {
		return "", fmt.Errorf("%w: unsupported sort column %q", entities.ErrInvalidQuery, parts[0])
	}

	direction := "DESC"
	if len(parts) == 2 {
		d, ok := sortDirections[strings.ToLower(parts[1])]
		if !ok {
			return "", fmt.Errorf("%w: unsupported sort direction %q", entities.ErrInvalidQuery, parts[1])
		}
		direction = d
	}

	return column + " " + direction, nil
}

// buildTaskListQuery translates an optional-filter request into one SELECT
// over the tasks table. All filter values and the search pattern are bound
// parameters.
func buildTaskListQuery(filter ports.TaskFilter) (string, []interface{}, error) {
	var conditions []string
	var args []interface{}

	if filter.Epic != nil {
		conditions = append(conditions, "epic = ?")
		args = append(args, *filter.Epic)
	}

	if filter.Status != nil {
		// Clients may send the wire form ("In Progress"); the column
		// stores the compact form.
		conditions = append(conditions, "status = ?")
		args = append(args, strings.ReplaceAll(*filter.Status, " ", ""))
	}

	if filter.Assignee != nil {
		conditions = append(conditions, "assignee = ?")
		args = append(args, *filter.Assignee)
	}

	if filter.Search != nil && *filter.Search != "" {
		conditions = append(conditions, "(title LIKE ? OR description LIKE ?)")
		pattern := "%" + *filter.Search + "%"
		args = append(args, pattern, pattern)
	}

	query := "SELECT " + taskColumns + " FROM tasks"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	orderBy, err := parseSort(filter.Sort)
	if err != nil {
		return "", nil, err
	}
	query += " ORDER BY " + orderBy

	if filter.Limit != nil {
		query += " LIMIT ?"
		args = append(args, *filter.Limit)

		if filter.Offset != nil {
			query += " OFFSET ?"
			args = append(args, *filter.Offset)
		}
	}

	return query, args, nil
}
