package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdown/server/internal/domain/entities"
	"github.com/taskdown/server/internal/ports"
)

func TestParseSortDefaults(t *testing.T) {
	orderBy, err := parseSort(nil)
	require.NoError(t, err)
	assert.Equal(t, "updated_at DESC", orderBy)

	orderBy, err = parseSort(strptr(""))
	require.NoError(t, err)
	assert.Equal(t, "updated_at DESC", orderBy)
}

func TestParseSortAllowList(t *testing.T) {
	cases := map[string]string{
		"title":           "title DESC",
		"title:asc":       "title ASC",
		"created_at:desc": "created_at DESC",
		"priority:ASC":    "priority ASC",
		"status:desc":     "status DESC",
	}

	for input, want := range cases {
		orderBy, err := parseSort(strptr(input))
		require.NoError(t, err, "input %q", input)
		assert.Equal(t, want, orderBy, "input %q", input)
	}
}

func TestParseSortRejectsUnknownColumn(t *testing.T) {
	for _, input := range []string{
		"story_points",
		"id; DROP TABLE tasks",
		"title:asc; DELETE FROM tasks",
		"title:sideways",
	} {
		_, err := parseSort(strptr(input))
		require.Error(t, err, "input %q", input)
		assert.ErrorIs(t, err, entities.ErrInvalidQuery, "input %q", input)
	}
}

func TestBuildTaskListQueryBindsAllValues(t *testing.T) {
	query, args, err := buildTaskListQuery(ports.TaskFilter{
		Epic:     strptr("Auth"),
		Status:   strptr("In Progress"),
		Assignee: strptr("sam"),
		Search:   strptr("login"),
		Limit:    intptr(10),
		Offset:   intptr(20),
	})
	require.NoError(t, err)

	assert.Contains(t, query, "epic = ?")
	assert.Contains(t, query, "status = ?")
	assert.Contains(t, query, "assignee = ?")
	assert.Contains(t, query, "(title LIKE ? OR description LIKE ?)")
	assert.Contains(t, query, "LIMIT ?")
	assert.Contains(t, query, "OFFSET ?")

	// The wire status form is normalized to the stored form, and the search
	// term is passed as a bound pattern, never interpolated.
	assert.Equal(t, []interface{}{"Auth", "InProgress", "sam", "%login%", "%login%", 10, 20}, args)
	assert.NotContains(t, query, "login")
}

func TestBuildTaskListQueryOffsetRequiresLimit(t *testing.T) {
	query, args, err := buildTaskListQuery(ports.TaskFilter{Offset: intptr(5)})
	require.NoError(t, err)

	assert.NotContains(t, query, "OFFSET")
	assert.Empty(t, args)
}

func TestBuildTaskListQueryPropagatesSortErrors(t *testing.T) {
	_, _, err := buildTaskListQuery(ports.TaskFilter{Sort: strptr("evil:asc")})
	assert.ErrorIs(t, err, entities.ErrInvalidQuery)
}
