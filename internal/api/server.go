// Package api provides the HTTP API for footprint.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/runnerr0/footprint/internal/activity"
	"github.com/runnerr0/footprint/internal/classify"
	"github.com/runnerr0/footprint/internal/dashboard"
	"github.com/runnerr0/footprint/internal/storage"
	"github.com/runnerr0/footprint/internal/telemetry"
)

// HeaderUserID carries the caller's user id. Token verification happens in
// front of this service.
const HeaderUserID = "X-User-ID"

// Views builds the read-only dashboard views.
type Views interface {
	Dashboard(ctx context.Context, userID, rangeName string) (*dashboard.DashboardResponse, error)
	Insights(ctx context.Context, userID, rangeName string) (*dashboard.InsightsResponse, error)
	Settings(ctx context.Context, userID string) (*dashboard.SettingsResponse, error)
}

// Store is the write side used by the tracking, rule, limit and content
// endpoints.
type Store interface {
	AddSession(ctx context.Context, s *storage.Session) error
	AddDomainRule(ctx context.Context, userID, pattern, category string) (*activity.DomainRule, error)
	DeleteDomainRule(ctx context.Context, userID string, id int64) error
	DomainRules(ctx context.Context, userID string) ([]activity.DomainRule, error)
	SetDomainLimit(ctx context.Context, userID, domain string, allowedMinutes int) error
	AddContentAnalysis(ctx context.Context, userID string, rec activity.ContentAnalysis) error
}

// Deps are the collaborators behind the handlers. Metrics may be nil.
type Deps struct {
	Views    Views
	Store    Store
	Models   *classify.Manager
	Analyzer *classify.Analyzer
	Metrics  *telemetry.Metrics
}

// Config holds HTTP server configuration.
type Config struct {
	Host           string
	Port           int
	MaxRequestSize int
	// AllowedOrigins enables CORS for the listed origins when non-empty.
	AllowedOrigins []string
}

// Server provides HTTP endpoints for footprint.
type Server struct {
	echo   *echo.Echo
	deps   Deps
	logger *zap.Logger
	config *Config
}

// NewServer creates a new HTTP server.
func NewServer(logger *zap.Logger, cfg *Config, deps Deps) (*Server, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if deps.Views == nil {
		return nil, fmt.Errorf("views cannot be nil")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if deps.Models == nil || deps.Analyzer == nil {
		return nil, fmt.Errorf("models and analyzer cannot be nil")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "127.0.0.1",
			Port: 8000,
		}
	}
	if cfg.MaxRequestSize <= 0 {
		cfg.MaxRequestSize = 1 << 20
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dB", cfg.MaxRequestSize)))
	if len(cfg.AllowedOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.AllowedOrigins,
			AllowMethods: []string{
				http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
			},
			AllowHeaders: []string{
				echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, HeaderUserID,
			},
			AllowCredentials: true,
		}))
	}
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// Let echo write the response so the logged status is final.
				c.Error(err)
			}

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return nil
		}
	})

	s := &Server{
		echo:   e,
		deps:   deps,
		logger: logger,
		config: cfg,
	}
	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	if s.deps.Metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.deps.Metrics.Handler()))
	}

	v1 := s.echo.Group("/api/v1")
	v1.GET("/ping", s.handlePing)

	v1.GET("/dashboard", s.handleDashboard)
	v1.GET("/dashboard/insights", s.handleInsights)
	v1.GET("/dashboard/settings", s.handleSettings)
	v1.PUT("/dashboard/settings/limits", s.handleSetLimit)

	v1.POST("/tracking/visits", s.handleTrackVisit)

	v1.GET("/user-domain-category", s.handleListRules)
	v1.POST("/user-domain-category", s.handleAddRule)
	v1.DELETE("/user-domain-category/:id", s.handleDeleteRule)

	v1.POST("/content/analyze", s.handleAnalyze)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
