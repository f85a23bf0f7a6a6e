package server

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	httpHandlers "github.com/taskdown/server/internal/adapters/http"
	"github.com/taskdown/server/internal/adapters/repository"
	"github.com/taskdown/server/internal/application/services"
	"github.com/taskdown/server/internal/infrastructure/config"
	"github.com/taskdown/server/internal/infrastructure/database"
	"github.com/taskdown/server/internal/infrastructure/logger"
)

// Server represents the HTTP server
type Server struct {
	echo      *echo.Echo
	config    *config.Config
	logger    *logger.Logger
	db        *database.DB
	startedAt time.Time
}

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New creates a new server instance
func New(cfg *config.Config, db *database.DB, appLogger *logger.Logger) (*Server, error) {
	e := echo.New()

	e.Validator = &CustomValidator{validator: validator.New()}
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = customErrorHandler(appLogger)

	// Initialize repositories
	taskRepo := repository.NewTaskRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	configRepo := repository.NewConfigRepository(db)
	userRepo := repository.NewUserRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	// Initialize services
	taskService := services.NewTaskService(taskRepo, activityRepo, appLogger)
	analyticsService := services.NewAnalyticsService(analyticsRepo, appLogger)
	configService := services.NewConfigService(configRepo, appLogger)
	exportService := services.NewExportService(taskRepo, appLogger)
	authService := services.NewAuthService(cfg.Auth, appLogger)
	userService := services.NewUserService(userRepo, appLogger)
	activityService := services.NewActivityService(activityRepo, appLogger)

	// Initialize handlers
	taskHandler := httpHandlers.NewTaskHandler(taskService, appLogger)
	analyticsHandler := httpHandlers.NewAnalyticsHandler(analyticsService, appLogger)
	workspaceHandler := httpHandlers.NewWorkspaceHandler(configService, cfg.App.Version, appLogger)
	exportHandler := httpHandlers.NewExportHandler(exportService, appLogger)
	authHandler := httpHandlers.NewAuthHandler(authService, appLogger)
	userHandler := httpHandlers.NewUserHandler(userService, appLogger)
	activityHandler := httpHandlers.NewActivityHandler(activityService, appLogger)

	server := &Server{
		echo:      e,
		config:    cfg,
		logger:    appLogger,
		db:        db,
		startedAt: time.Now(),
	}

	server.setupMiddleware()
	server.setupRoutes(taskHandler, analyticsHandler, workspaceHandler, exportHandler, authHandler, userHandler, activityHandler)

	if cfg.Metrics.Enabled {
		server.setupMetrics()
	}

	return server, nil
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", values.Method,
				"uri", values.URI,
				"status", values.Status,
				"latency_ms", float64(values.Latency.Nanoseconds()) / 1000000,
				"remote_ip", values.RemoteIP,
				"user_agent", values.UserAgent,
			}

			if values.Error != nil {
				fields = append(fields, "error", values.Error.Error())
				s.logger.Errorw("HTTP request failed", fields...)
			} else {
				s.logger.Infow("HTTP request", fields...)
			}

			return nil
		},
	}))

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: strings.Split(s.config.Security.CORSAllowedOrigins, ","),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{echo.GET, echo.HEAD, echo.PUT, echo.PATCH, echo.POST, echo.DELETE},
	}))

	s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(s.config.Security.RateLimitRequests),
				Burst:     s.config.Security.RateLimitRequests,
				ExpiresIn: s.config.Security.RateLimitWindow,
			},
		),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, map[string]string{"message": "rate limit exceeded"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{"message": "rate limit exceeded"})
		},
	}))

	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         31536000,
	}))

	s.echo.Use(middleware.RequestID())

	s.echo.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: 30 * time.Second,
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(
	taskHandler *httpHandlers.TaskHandler,
	analyticsHandler *httpHandlers.AnalyticsHandler,
	workspaceHandler *httpHandlers.WorkspaceHandler,
	exportHandler *httpHandlers.ExportHandler,
	authHandler *httpHandlers.AuthHandler,
	userHandler *httpHandlers.UserHandler,
	activityHandler *httpHandlers.ActivityHandler,
) {
	api := s.echo.Group("/api")

	api.GET("/health", s.healthCheck)

	api.POST("/auth/verify", authHandler.Verify)
	api.GET("/auth/status", authHandler.Status)

	api.GET("/workspace", workspaceHandler.Info)
	api.GET("/config", workspaceHandler.GetConfig)
	api.PUT("/config", workspaceHandler.UpdateConfig)

	api.GET("/tasks", taskHandler.ListTasks)
	api.POST("/tasks", taskHandler.CreateTask)
	api.POST("/tasks/bulk", taskHandler.BulkOperations)
	api.GET("/tasks/:id", taskHandler.GetTask)
	api.PUT("/tasks/:id", taskHandler.UpdateTask)
	api.DELETE("/tasks/:id", taskHandler.DeleteTask)

	api.POST("/import/markdown", exportHandler.ImportMarkdown)
	api.GET("/export/markdown", exportHandler.ExportMarkdown)

	api.GET("/analytics/summary", analyticsHandler.Summary)
	api.GET("/analytics/burndown", analyticsHandler.Burndown)

	api.GET("/users", userHandler.ListUsers)
	api.POST("/users", userHandler.CreateUser)
	api.GET("/users/:id", userHandler.GetUser)
	api.DELETE("/users/:id", userHandler.DeleteUser)

	api.GET("/activity", activityHandler.ListActivities)
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics() {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	registry.MustRegister(requestsTotal, requestDuration)

	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start)
			status := c.Response().Status

			requestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				fmt.Sprintf("%d", status),
			).Inc()

			requestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(duration.Seconds())

			return err
		}
	})

	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	s.echo.GET("/metrics", echo.WrapHandler(metricsHandler))
}

// healthStatus is the payload of the health endpoint.
type healthStatus struct {
	Status   string         `json:"status"`
	Version  string         `json:"version"`
	Uptime   int64          `json:"uptime"`
	Database databaseStatus `json:"database"`
	Memory   memoryStatus   `json:"memory"`
}

type databaseStatus struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time"`
}

type memoryStatus struct {
	Used       uint64  `json:"used"`
	Total      uint64  `json:"total"`
	Percentage float64 `json:"percentage"`
}

func (s *Server) healthCheck(c echo.Context) error {
	status := "healthy"
	dbStatus := databaseStatus{Status: "connected"}

	dbStart := time.Now()
	if err := s.db.HealthCheck(); err != nil {
		status = "degraded"
		dbStatus.Status = "error"
	}
	dbStatus.ResponseTime = time.Since(dbStart).Milliseconds()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	percentage := 0.0
	if mem.Sys > 0 {
		percentage = float64(mem.Alloc) / float64(mem.Sys) * 100
	}

	health := healthStatus{
		Status:   status,
		Version:  s.config.App.Version,
		Uptime:   int64(time.Since(s.startedAt).Seconds()),
		Database: dbStatus,
		Memory: memoryStatus{
			Used:       mem.Alloc,
			Total:      mem.Sys,
			Percentage: percentage,
		},
	}

	httpStatus := http.StatusOK
	if status != "healthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, httpHandlers.ApiResponse{Success: status == "healthy", Data: health})
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.Info("Starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// customErrorHandler handles HTTP errors that escape the handlers, keeping
// the response envelope consistent.
func customErrorHandler(logger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		message := http.StatusText(code)

		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			message = fmt.Sprintf("%v", he.Message)
			if he.Internal != nil {
				err = fmt.Errorf("%v, %v", err, he.Internal)
			}
		}

		if code == http.StatusInternalServerError {
			logger.Error("Internal server error", "error", err, "path", c.Request().URL.Path)
		}

		if !c.Response().Committed {
			var respErr error
			if c.Request().Method == echo.HEAD {
				respErr = c.NoContent(code)
			} else {
				respErr = c.JSON(code, httpHandlers.ApiResponse{
					Success: false,
					Error:   &httpHandlers.ApiError{Code: "HTTP_ERROR", Message: message},
				})
			}
			if respErr != nil {
				logger.Error("Error sending response", "error", respErr)
			}
		}
	}
}
