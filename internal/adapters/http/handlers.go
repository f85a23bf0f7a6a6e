package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskdown/server/internal/application/services"
	"github.com/taskdown/server/internal/infrastructure/logger"
	"github.com/taskdown/server/internal/ports"
)

// AuthHandler handles the placeholder authentication endpoints.
type AuthHandler struct {
	authService *services.AuthService
	logger      *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Verify handles POST /api/auth/verify
func (h *AuthHandler) Verify(c echo.Context) error {
	var req services.AuthRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION", "Invalid request format")
	}

	resp, err := h.authService.Verify(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("Auth verification failed", "error", err)
		return respondDomainError(c, err)
	}

	return respondOK(c, resp)
}

// Status handles GET /api/auth/status
func (h *AuthHandler) Status(c echo.Context) error {
	return respondOK(c, h.authService.Status(c.Request().Context()))
}

// WorkspaceInfo is the static workspace descriptor served to clients on
// connection.
type WorkspaceInfo struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Description   *string              `json:"description"`
	ServerVersion string               `json:"server_version"`
	Capabilities  []string             `json:"capabilities"`
	LastUpdated   time.Time            `json:"last_updated"`
	Owner         WorkspaceOwner       `json:"owner"`
	Permissions   WorkspacePermissions `json:"permissions"`
}

type WorkspaceOwner struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

type WorkspacePermissions struct {
	CanManageUsers    bool `json:"can_manage_users"`
	CanModifySettings bool `json:"can_modify_settings"`
	CanViewAnalytics  bool `json:"can_view_analytics"`
}

// WorkspaceHandler serves workspace metadata and configuration.
type WorkspaceHandler struct {
	configService *services.ConfigService
	version       string
	logger        *logger.Logger
}

// NewWorkspaceHandler creates a new workspace handler
func NewWorkspaceHandler(configService *services.ConfigService, version string, logger *logger.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{
		configService: configService,
		version:       version,
		logger:        logger,
	}
}

// Info handles GET /api/workspace
func (h *WorkspaceHandler) Info(c echo.Context) error {
	cfg, err := h.configService.GetConfig(c.Request().Context())
	if err != nil {
		h.logger.Error("Get workspace config failed", "error", err)
		return respondDomainError(c, err)
	}

	description := "Default Taskdown workspace"
	info := WorkspaceInfo{
		ID:            "default-workspace",
		Name:          cfg.WorkspaceName,
		Description:   &description,
		ServerVersion: h.version,
		Capabilities:  []string{"sync", "auth", "analytics"},
		LastUpdated:   time.Now().UTC(),
		Owner: WorkspaceOwner{
			ID:          "admin",
			Username:    "admin",
			DisplayName: "Administrator",
		},
		Permissions: WorkspacePermissions{
			CanManageUsers:    true,
			CanModifySettings: true,
			CanViewAnalytics:  true,
		},
	}

	return respondOK(c, info)
}

// GetConfig handles GET /api/config
func (h *WorkspaceHandler) GetConfig(c echo.Context) error {
	cfg, err := h.configService.GetConfig(c.Request().Context())
	if err != nil {
		h.logger.Error("Get config failed", "error", err)
		return respondDomainError(c, err)
	}

	return respondOK(c, cfg)
}

// UpdateConfig handles PUT /api/config
func (h *WorkspaceHandler) UpdateConfig(c echo.Context) error {
	var req ports.ConfigUpdateRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION", "Invalid request format")
	}

	cfg, err := h.configService.UpdateConfig(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("Update config failed", "error", err)
		return respondDomainError(c, err)
	}

	return respondOK(c, cfg)
}

// AnalyticsHandler serves the read-only statistics endpoints.
type AnalyticsHandler struct {
	analyticsService *services.AnalyticsService
	logger           *logger.Logger
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analyticsService *services.AnalyticsService, logger *logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		logger:           logger,
	}
}

// Summary handles GET /api/analytics/summary
func (h *AnalyticsHandler) Summary(c echo.Context) error {
	summary, err := h.analyticsService.Summary(c.Request().Context())
	if err != nil {
		h.logger.Error("Analytics summary failed", "error", err)
		return respondDomainError(c, err)
	}

	return respondOK(c, summary)
}

// Burndown handles GET /api/analytics/burndown
func (h *AnalyticsHandler) Burndown(c echo.Context) error {
	sprint := c.QueryParam("sprint")

	data, err := h.analyticsService.Burndown(c.Request().Context(), sprint)
	if err != nil {
		h.logger.Error("Analytics burndown failed", "error", err, "sprint", sprint)
		return respondDomainError(c, err)
	}

	return respondOK(c, data)
}

// ExportHandler serves markdown import and export.
type ExportHandler struct {
	exportService *services.ExportService
	logger        *logger.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(exportService *services.ExportService, logger *logger.Logger) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
		logger:        logger,
	}
}

// ExportMarkdown handles GET /api/export/markdown
func (h *ExportHandler) ExportMarkdown(c echo.Context) error {
	result, err := h.exportService.ExportMarkdown(c.Request().Context())
	if err != nil {
		h.logger.Error("Markdown export failed", "error", err)
		return respondDomainError(c, err)
	}

	return respondOK(c, result)
}

// ImportMarkdown handles POST /api/import/markdown
func (h *ExportHandler) ImportMarkdown(c echo.Context) error {
	var req services.ImportMarkdownRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION", "Invalid request format")
	}

	return respondOK(c, h.exportService.ImportMarkdown(c.Request().Context(), req))
}

// UserHandler handles user management requests.
type UserHandler struct {
	userService *services.UserService
	logger      *logger.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService, logger *logger.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// ListUsers handles GET /api/users
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.userService.ListUsers(c.Request().Context())
	if err != nil {
		h.logger.Error("List users failed", "error", err)
		return respondDomainError(c, err)
	}

	return respondOK(c, users)
}

// CreateUser handles POST /api/users
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req services.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION", "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "VALIDATION", err.Error())
	}

	user, err := h.userService.CreateUser(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("Create user failed", "error", err)
		return respondDomainError(c, err)
	}

	return respondCreated(c, user)
}

// GetUser handles GET /api/users/:id
func (h *UserHandler) GetUser(c echo.Context) error {
	user, err := h.userService.GetUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondDomainError(c, err)
	}

	return respondOK(c, user)
}

// DeleteUser handles DELETE /api/users/:id
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id := c.Param("id")

	if err := h.userService.DeleteUser(c.Request().Context(), id); err != nil {
		return respondDomainError(c, err)
	}

	return respondOK(c, map[string]string{"deleted": id})
}

// ActivityHandler serves the audit trail.
type ActivityHandler struct {
	activityService *services.ActivityService
	logger          *logger.Logger
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(activityService *services.ActivityService, logger *logger.Logger) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
		logger:          logger,
	}
}

// ListActivities handles GET /api/activity
func (h *ActivityHandler) ListActivities(c echo.Context) error {
	var filter ports.ActivityFilter

	if v := c.QueryParam("user_id"); v != "" {
		filter.UserID = &v
	}
	if v := c.QueryParam("target_id"); v != "" {
		filter.TargetID = &v
	}
	if v := c.QueryParam("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return respondError(c, http.StatusBadRequest, "INVALID_QUERY", "limit must be a non-negative integer")
		}
		filter.Limit = limit
	}
	if v := c.QueryParam("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return respondError(c, http.StatusBadRequest, "INVALID_QUERY", "offset must be a non-negative integer")
		}
		filter.Offset = offset
	}

	activities, total, err := h.activityService.ListActivities(c.Request().Context(), filter)
	if err != nil {
		h.logger.Error("List activities failed", "error", err)
		return respondDomainError(c, err)
	}

	return respondOK(c, map[string]interface{}{
		"activities": activities,
		"total":      total,
	})
}
