package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/taskdown/server/internal/domain/entities"
	"github.com/taskdown/server/internal/infrastructure/database"
)

// UserRepository stores user rows. Consumed by the CLI and the thin user
// endpoints.
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

type userRow struct {
	ID           string  `db:"id"`
	Username     string  `db:"username"`
	DisplayName  string  `db:"display_name"`
	Email        string  `db:"email"`
	Role         string  `db:"role"`
	Avatar       *string `db:"avatar"`
	IsActive     bool    `db:"is_active"`
	LastSeen     string  `db:"last_seen"`
	PasswordHash string  `db:"password_hash"`
}

func (r userRow) toUser() (*entities.User, error) {
	lastSeen, err := time.Parse(time.RFC3339Nano, r.LastSeen)
	if err != nil {
		return nil, fmt.Errorf("malformed last_seen for user %s: %w", r.ID, err)
	}

	return &entities.User{
		ID:           r.ID,
		Username:     r.Username,
		DisplayName:  r.DisplayName,
		Email:        r.Email,
		Role:         entities.UserRole(r.Role),
		Avatar:       r.Avatar,
		IsActive:     r.IsActive,
		LastSeen:     lastSeen,
		PasswordHash: r.PasswordHash,
	}, nil
}

// Create inserts a user row.
func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	_, err := r.db.DB.ExecContext(ctx,
		`INSERT INTO users (id, username, display_name, email, role, avatar, is_active, last_seen, password_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.DisplayName, user.Email, string(user.Role),
		user.Avatar, user.IsActive, user.LastSeen.UTC().Format(time.RFC3339Nano),
		user.PasswordHash)
	if err != nil {
		return entities.NewStorageError("create", "user", user.ID, err)
	}
	return nil
}

// GetByID retrieves one user.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	var row userRow
	err := r.db.DB.GetContext(ctx, &row,
		`SELECT id, username, display_name, email, role, avatar, is_active, last_seen, password_hash
		 FROM users WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, entities.ErrNotFound)
		}
		return nil, entities.NewStorageError("get", "user", id, err)
	}

	user, err := row.toUser()
	if err != nil {
		return nil, entities.NewStorageError("get", "user", id, err)
	}
	return user, nil
}

// List returns all users ordered by username.
func (r *UserRepository) List(ctx context.Context) ([]*entities.User, error) {
	var rows []userRow
	err := r.db.DB.SelectContext(ctx, &rows,
		`SELECT id, username, display_name, email, role, avatar, is_active, last_seen, password_hash
		 FROM users ORDER BY username`)
	if err != nil {
		return nil, entities.NewStorageError("list", "user", "", err)
	}

	users := make([]*entities.User, 0, len(rows))
	for _, row := range rows {
		user, err := row.toUser()
		if err != nil {
			return nil, entities.NewStorageError("list", "user", row.ID, err)
		}
		users = append(users, user)
	}

	return users, nil
}

// Delete removes a user row.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.DB.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return entities.NewStorageError("delete", "user", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return entities.NewStorageError("delete", "user", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("user %s: %w", id, entities.ErrNotFound)
	}

	return nil
}
