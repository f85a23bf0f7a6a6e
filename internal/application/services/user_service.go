package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskdown/server/internal/domain/entities"
	"github.com/taskdown/server/internal/infrastructure/logger"
	"github.com/taskdown/server/internal/ports"
)

// CreateUserRequest carries everything needed to create a user row.
type CreateUserRequest struct {
	Username    string            `json:"username" validate:"required"`
	DisplayName string            `json:"display_name"`
	Email       string            `json:"email" validate:"required,email"`
	Role        entities.UserRole `json:"role"`
	Password    string            `json:"password" validate:"required,min=8"`
}

// UserService handles user management.
type UserService struct {
	userRepo ports.UserRepository
	logger   *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo ports.UserRepository, logger *logger.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// CreateUser hashes the password and stores the user.
func (s *UserService) CreateUser(ctx context.Context, req CreateUserRequest) (*entities.User, error) {
	role := req.Role
	if role == "" {
		role = entities.UserRoleUser
	}
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", entities.ErrValidation, string(req.Role))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = req.Username
	}

	user := &entities.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		DisplayName:  displayName,
		Email:        req.Email,
		Role:         role,
		IsActive:     true,
		LastSeen:     time.Now().UTC(),
		PasswordHash: string(hash),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User created", "user_id", user.ID, "username", user.Username)

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, id string) (*entities.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// ListUsers returns all users.
func (s *UserService) ListUsers(ctx context.Context) ([]*entities.User, error) {
	return s.userRepo.List(ctx)
}

// DeleteUser removes a user.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("User deleted", "user_id", id)

	return nil
}
