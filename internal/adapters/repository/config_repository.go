package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/taskdown/server/internal/domain/entities"
	"github.com/taskdown/server/internal/infrastructure/database"
	"github.com/taskdown/server/internal/ports"
)

// ConfigRepository maintains the singleton workspace configuration. The row
// is created with defaults the first time anything reads it, so callers never
// see a missing configuration.
type ConfigRepository struct {
	db *database.DB
}

// NewConfigRepository creates a new config repository.
func NewConfigRepository(db *database.DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

type configRow struct {
	WorkspaceName string `db:"workspace_name"`
	Timezone      string `db:"timezone"`
	DateFormat    string `db:"date_format"`
	Features      string `db:"features"`
	Limits        string `db:"limits"`
}

func (r configRow) toConfig() (*entities.WorkspaceConfig, error) {
	cfg := entities.WorkspaceConfig{
		WorkspaceName: r.WorkspaceName,
		Timezone:      r.Timezone,
		DateFormat:    r.DateFormat,
	}

	if err := json.Unmarshal([]byte(r.Features), &cfg.Features); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(r.Limits), &cfg.Limits); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Get returns the workspace configuration, seeding the row with defaults on
// first access.
func (r *ConfigRepository) Get(ctx context.Context) (*entities.WorkspaceConfig, error) {
	var row configRow
	err := r.db.DB.GetContext(ctx, &row,
		"SELECT workspace_name, timezone, date_format, features, limits FROM workspace_config WHERE id = 1")
	if errors.Is(err, sql.ErrNoRows) {
		defaults := entities.DefaultWorkspaceConfig()
		if err := r.write(ctx, &defaults); err != nil {
			return nil, err
		}
		return &defaults, nil
	}
	if err != nil {
		return nil, entities.NewStorageError("get", "workspace_config", "1", err)
	}

	cfg, err := row.toConfig()
	if err != nil {
		return nil, entities.NewStorageError("get", "workspace_config", "1", err)
	}

	return cfg, nil
}

// Update applies the supplied fields over the current configuration and
// persists the result. Features and limits replace as whole blocks.
func (r *ConfigRepository) Update(ctx context.Context, req ports.ConfigUpdateRequest) (*entities.WorkspaceConfig, error) {
	cfg, err := r.Get(ctx)
	if err != nil {
		return nil, err
	}

	if req.WorkspaceName != nil {
		cfg.WorkspaceName = *req.WorkspaceName
	}
	if req.Timezone != nil {
		cfg.Timezone = *req.Timezone
	}
	if req.DateFormat != nil {
		cfg.DateFormat = *req.DateFormat
	}
	if req.Features != nil {
		cfg.Features = *req.Features
	}
	if req.Limits != nil {
		cfg.Limits = *req.Limits
	}

	if err := r.write(ctx, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (r *ConfigRepository) write(ctx context.Context, cfg *entities.WorkspaceConfig) error {
	features, err := json.Marshal(cfg.Features)
	if err != nil {
		return entities.NewStorageError("write", "workspace_config", "1", err)
	}

	limits, err := json.Marshal(cfg.Limits)
	if err != nil {
		return entities.NewStorageError("write", "workspace_config", "1", err)
	}

	_, err = r.db.DB.ExecContext(ctx,
		`INSERT INTO workspace_config (id, workspace_name, timezone, date_format, features, limits)
		 VALUES (1, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			workspace_name = excluded.workspace_name,
			timezone = excluded.timezone,
			date_format = excluded.date_format,
			features = excluded.features,
			limits = excluded.limits`,
		cfg.WorkspaceName, cfg.Timezone, cfg.DateFormat, string(features), string(limits))
	if err != nil {
		return entities.NewStorageError("write", "workspace_config", "1", err)
	}

	return nil
}
