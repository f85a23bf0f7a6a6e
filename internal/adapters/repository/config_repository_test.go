package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdown/server/internal/domain/entities"
	"github.com/taskdown/server/internal/ports"
)

func TestConfigDefaultsOnFirstAccess(t *testing.T) {
	db := newTestDB(t)
	repo := NewConfigRepository(db)
	ctx := context.Background()

	cfg, err := repo.Get(ctx)
	require.NoError(t, err)

	assert.Equal(t, "Taskdown Workspace", cfg.WorkspaceName)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, "YYYY-MM-DD", cfg.DateFormat)
	assert.True(t, cfg.Features.Analytics)
	assert.False(t, cfg.Features.Realtime)
	assert.Equal(t, 10000, cfg.Limits.MaxTasks)
	assert.Equal(t, 100, cfg.Limits.MaxUsers)
	assert.Equal(t, 1000, cfg.Limits.APIRateLimit)

	// The defaults were persisted, not just synthesized in memory.
	var rows int
	require.NoError(t, db.DB.Get(&rows, "SELECT COUNT(*) FROM workspace_config"))
	assert.Equal(t, 1, rows)
}

func TestConfigPartialUpdate(t *testing.T) {
	db := newTestDB(t)
	repo := NewConfigRepository(db)
	ctx := context.Background()

	updated, err := repo.Update(ctx, ports.ConfigUpdateRequest{
		WorkspaceName: strptr("Engineering"),
		Features: &entities.WorkspaceFeatures{
			Realtime:  true,
			Analytics: true,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Engineering", updated.WorkspaceName)
	assert.True(t, updated.Features.Realtime)
	// Untouched fields keep their defaults.
	assert.Equal(t, "UTC", updated.Timezone)
	assert.Equal(t, 10000, updated.Limits.MaxTasks)

	reread, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, updated, reread)
}

func TestConfigSingletonStaysSingle(t *testing.T) {
	db := newTestDB(t)
	repo := NewConfigRepository(db)
	ctx := context.Background()

	_, err := repo.Get(ctx)
	require.NoError(t, err)

	_, err = repo.Update(ctx, ports.ConfigUpdateRequest{Timezone: strptr("Europe/Berlin")})
	require.NoError(t, err)

	_, err = repo.Update(ctx, ports.ConfigUpdateRequest{DateFormat: strptr("DD.MM.YYYY")})
	require.NoError(t, err)

	var rows int
	require.NoError(t, db.DB.Get(&rows, "SELECT COUNT(*) FROM workspace_config"))
	assert.Equal(t, 1, rows)

	cfg, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", cfg.Timezone)
	assert.Equal(t, "DD.MM.YYYY", cfg.DateFormat)
}
