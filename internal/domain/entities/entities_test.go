package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskStatusWireForm(t *testing.T) {
	cases := map[TaskStatus]string{
		TaskStatusTodo:       `"Todo"`,
		TaskStatusInProgress: `"In Progress"`,
		TaskStatusInReview:   `"In Review"`,
		TaskStatusDone:       `"Done"`,
	}

	for status, wire := range cases {
		data, err := json.Marshal(status)
		require.NoError(t, err)
		assert.Equal(t, wire, string(data))

		var parsed TaskStatus
		require.NoError(t, json.Unmarshal(data, &parsed))
		assert.Equal(t, status, parsed)
	}
}

func TestTaskStatusAcceptsStoredForm(t *testing.T) {
	var status TaskStatus
	require.NoError(t, json.Unmarshal([]byte(`"InProgress"`), &status))
	assert.Equal(t, TaskStatusInProgress, status)

	require.NoError(t, json.Unmarshal([]byte(`"In Review"`), &status))
	assert.Equal(t, TaskStatusInReview, status)
}

func TestTaskStatusRejectsUnknownValues(t *testing.T) {
	var status TaskStatus
	assert.Error(t, json.Unmarshal([]byte(`"Blocked"`), &status))
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, TaskTypeBug.IsValid())
	assert.False(t, TaskType("Chore").IsValid())

	assert.True(t, PriorityCritical.IsValid())
	assert.False(t, Priority("Urgent").IsValid())

	assert.True(t, TaskStatusInReview.IsValid())
	assert.False(t, TaskStatus("In Review").IsValid())

	assert.True(t, UserRoleViewer.IsValid())
	assert.False(t, UserRole("owner").IsValid())
}

func TestDefaultWorkspaceConfig(t *testing.T) {
	cfg := DefaultWorkspaceConfig()

	assert.Equal(t, "Taskdown Workspace", cfg.WorkspaceName)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, "YYYY-MM-DD", cfg.DateFormat)
	assert.True(t, cfg.Features.Analytics)
	assert.Equal(t, 10000, cfg.Limits.MaxTasks)
}
