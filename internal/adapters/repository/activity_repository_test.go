package repository

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdown/server/internal/domain/entities"
	"github.com/taskdown/server/internal/ports"
)

func TestActivityRecordAndList(t *testing.T) {
	db := newTestDB(t)
	repo := NewActivityRepository(db)
	ctx := context.Background()

	field := "status"
	activity := &entities.Activity{
		UserID:     "u1",
		UserName:   "Sam",
		Action:     "task_updated",
		TargetType: "task",
		TargetID:   "t1",
		TargetName: "Login fix",
		Details: &entities.ActivityDetails{
			Field:    &field,
			OldValue: json.RawMessage(`"Todo"`),
			NewValue: json.RawMessage(`"In Progress"`),
		},
	}

	require.NoError(t, repo.Record(ctx, activity))
	assert.NotEmpty(t, activity.ID)
	assert.False(t, activity.Timestamp.IsZero())

	require.NoError(t, repo.Record(ctx, &entities.Activity{
		UserID: "u2", UserName: "Kim", Action: "task_created",
		TargetType: "task", TargetID: "t2", TargetName: "Other",
	}))

	all, total, err := repo.List(ctx, ports.ActivityFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, all, 2)

	filtered, total, err := repo.List(ctx, ports.ActivityFilter{UserID: strptr("u1")})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, filtered, 1)
	require.NotNil(t, filtered[0].Details)
	assert.Equal(t, "status", *filtered[0].Details.Field)
	assert.JSONEq(t, `"In Progress"`, string(filtered[0].Details.NewValue))
}

func TestActivityListPagination(t *testing.T) {
	db := newTestDB(t)
	repo := NewActivityRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Record(ctx, &entities.Activity{
			UserID: "u1", UserName: "Sam", Action: "task_created",
			TargetType: "task", TargetID: "t", TargetName: "seed",
		}))
	}

	page, total, err := repo.List(ctx, ports.ActivityFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, page, 2)
}

func TestUserRepositoryCRUD(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &entities.User{
		ID:           "u1",
		Username:     "sam",
		DisplayName:  "Sam",
		Email:        "sam@example.com",
		Role:         entities.UserRoleAdmin,
		IsActive:     true,
		PasswordHash: "hash",
	}
	user.LastSeen = user.LastSeen.UTC()

	require.NoError(t, repo.Create(ctx, user))

	got, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "sam", got.Username)
	assert.Equal(t, entities.UserRoleAdmin, got.Role)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	require.NoError(t, repo.Delete(ctx, "u1"))
	assert.ErrorIs(t, repo.Delete(ctx, "u1"), entities.ErrNotFound)

	_, err = repo.GetByID(ctx, "u1")
	assert.ErrorIs(t, err, entities.ErrNotFound)
}
