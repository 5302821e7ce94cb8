// Package server exposes the layout, analysis, template, profile, activity and
// export operations over HTTP.
package server

import (
	"context"
	"io"
	"os"
	"time"

	"cvforge/internal/ai"
	"cvforge/internal/config"
	"cvforge/internal/content"
	"cvforge/internal/errors"
	"cvforge/internal/export"
	"cvforge/internal/layout"
	"cvforge/internal/observability"
	"cvforge/internal/types"
)

// Analyzer scores a résumé.
type Analyzer interface {
	AnalyzeResume(ctx context.Context, input types.AnalyzeResumeInput) (*types.AnalysisOutput, error)
	GetModelInfo(ctx context.Context) *ai.ModelInfo
}

// Authenticator signs users in and checks their tokens.
type Authenticator interface {
	SignUp(ctx context.Context, email, password string) (*types.Session, error)
	SignIn(ctx context.Context, email, password string) (*types.Session, error)
	ValidateToken(token string) (*types.Session, error)
}

// Backend holds per-user profiles and activity.
type Backend interface {
	GetProfile(ctx context.Context, sess *types.Session) (*types.Profile, bool, error)
	SaveProfile(ctx context.Context, sess *types.Session, p types.Profile) (*types.Profile, error)
	AppendActivity(ctx context.Context, sess *types.Session, action, detail string) (*types.Activity, error)
	RecentActivity(ctx context.Context, sess *types.Session, n int) ([]types.Activity, error)
}

// Templates lists and resolves layout presets.
type Templates interface {
	List(ctx context.Context) ([]layout.Preset, error)
	Get(ctx context.Context, id string) (*layout.Preset, error)
}

// Renderer turns content and layout into a document.
type Renderer interface {
	Render(ctx context.Context, format export.Format, c *content.Content, r *layout.Registry) (*export.Artifact, error)
}

// Uploader stores an exported artifact and returns its key.
type Uploader interface {
	Upload(ctx context.Context, a *export.Artifact) (string, error)
}

// Deps are the services behind the routes. Analyzer, Auth, Backend and
// Uploader may be nil; their routes then answer with a configuration error.
type Deps struct {
	Analyzer  Analyzer
	Auth      Authenticator
	Backend   Backend
	Templates Templates
	Renderer  Renderer
	Uploader  Uploader
	Telemetry *observability.Manager
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	deps   Deps
	out    io.Writer
	Logger *errors.Logger
}

// NewServer creates a Server from the application configuration.
func NewServer(appCfg *config.Config, version string, deps Deps, logger *errors.Logger) *Server {
	var rateLimiter *RateLimiter
	if appCfg.Server.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			appCfg.Server.RateLimit.RequestsPerMin,
			appCfg.Server.RateLimit.Window,
			appCfg.Server.RateLimit.BurstCapacity,
			logger,
		)
	}

	if deps.Telemetry == nil {
		// A disabled manager never fails to build.
		deps.Telemetry, _ = observability.NewManager(config.ObservabilityConfig{ServiceName: "cvforge"}, version)
	}

	rateLimit := appCfg.Server.RateLimit
	return &Server{
		Host:           appCfg.Server.Host,
		Port:           appCfg.Server.Port,
		Version:        version,
		AppConfig:      appCfg,
		ReadTimeout:    appCfg.Server.ReadTimeout,
		WriteTimeout:   appCfg.Server.WriteTimeout,
		IdleTimeout:    appCfg.Server.IdleTimeout,
		MaxRequestSize: appCfg.Server.MaxBodyBytes,
		RateLimit:      &rateLimit,
		RateLimiter:    rateLimiter,
		deps:           deps,
		out:            os.Stdout,
		Logger:         logger,
	}
}

// SetOutput sets where the startup banner is printed.
func (s *Server) SetOutput(w io.Writer) {
	s.out = w
}

func (s *Server) metrics() *observability.Metrics {
	return s.deps.Telemetry.Metrics()
}
