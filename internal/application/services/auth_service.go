package services

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taskdown/server/internal/infrastructure/config"
	"github.com/taskdown/server/internal/infrastructure/logger"
)

// AuthRequest carries client credentials for verification.
type AuthRequest struct {
	Credentials AuthCredentials `json:"credentials"`
}

// AuthCredentials supports token, basic and custom-header styles. Only the
// type tag is inspected today; the surface is a placeholder.
type AuthCredentials struct {
	Type          string            `json:"type"`
	Token         *string           `json:"token"`
	Username      *string           `json:"username"`
	Password      *string           `json:"password"`
	CustomHeaders map[string]string `json:"custom_headers"`
}

// AuthResponse reports the verification outcome and, on verify, a session
// token.
type AuthResponse struct {
	Authenticated bool       `json:"authenticated"`
	SessionToken  *string    `json:"session_token,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	Permissions   []string   `json:"permissions"`
}

// AuthService is a placeholder authentication layer. Every verification
// succeeds and is granted full permissions; the session token is a real JWT
// so clients exercise the same wire shapes a hardened deployment would use.
type AuthService struct {
	cfg    config.AuthConfig
	logger *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(cfg config.AuthConfig, logger *logger.Logger) *AuthService {
	return &AuthService{
		cfg:    cfg,
		logger: logger,
	}
}

// Verify accepts the credentials and issues a signed session token.
func (s *AuthService) Verify(ctx context.Context, req AuthRequest) (*AuthResponse, error) {
	expiresAt := time.Now().UTC().Add(s.cfg.SessionDuration)

	subject := "anonymous"
	if req.Credentials.Username != nil && *req.Credentials.Username != "" {
		subject = *req.Credentials.Username
	}

	claims := jwt.RegisteredClaims{
		Issuer:    s.cfg.Issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return nil, err
	}

	s.logger.Info("Session token issued", "subject", subject, "credential_type", req.Credentials.Type)

	return &AuthResponse{
		Authenticated: true,
		SessionToken:  &token,
		ExpiresAt:     &expiresAt,
		Permissions:   []string{"read", "write", "admin"},
	}, nil
}

// Status reports the current session state. Without enforcement middleware
// every caller is considered authenticated.
func (s *AuthService) Status(ctx context.Context) *AuthResponse {
	expiresAt := time.Now().UTC().Add(s.cfg.SessionDuration)
	return &AuthResponse{
		Authenticated: true,
		SessionToken:  nil,
		ExpiresAt:     &expiresAt,
		Permissions:   []string{"read", "write", "admin"},
	}
}
