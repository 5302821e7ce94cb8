package cli

import (
	"context"
	"fmt"

	"cvforge/internal/ai"
	"cvforge/internal/config"
	"cvforge/internal/errors"
	"cvforge/internal/export"
	"cvforge/internal/observability"
	"cvforge/internal/server"
	"cvforge/internal/templates"

	"github.com/spf13/cobra"
)

var serveFlags struct {
	host     string
	port     string
	certFile string
	keyFile  string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start an HTTP server exposing the layout, analysis, template, profile,
activity and export operations as JSON endpoints.

Optional services are enabled by configuration:
- analysis needs an API key (CVFORGE_AI_APIKEY)
- profiles, activity and sign-in need a backend (CVFORGE_BACKEND_DSN) and a
  session secret (CVFORGE_AUTH_JWTSECRET)
- export uploads need an S3 bucket (CVFORGE_EXPORT_S3_BUCKET)

TLS is enabled when both --cert-file and --key-file are set.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveFlags.port, "port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().StringVar(&serveFlags.host, "host", "", "Host to bind to (default from config)")
	serveCmd.Flags().StringVar(&serveFlags.certFile, "cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().StringVar(&serveFlags.keyFile, "key-file", "", "Server private key file (PEM, overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	if err := applyServeFlags(cfg); err != nil {
		return err
	}

	telemetry, err := observability.NewManager(cfg.Observability, Version)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetry.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.LogError(err, "Telemetry shutdown failed")
		}
	}()

	deps := server.Deps{
		Renderer:  export.New(cfg.Export, logger),
		Telemetry: telemetry,
	}

	if err := cfg.RequireAI(); err != nil {
		logger.Warn("Analysis disabled", "reason", errors.UserMessage(err))
	} else {
		aiService, err := ai.NewService(ctx, &cfg.AI, logger)
		if err != nil {
			return fmt.Errorf("failed to create AI service: %w", err)
		}
		defer aiService.Close()
		deps.Analyzer = aiService.WithRecorder(telemetry.Metrics())
	}

	var source templates.Source
	if err := cfg.RequireBackend(); err != nil {
		logger.Warn("Backend disabled", "reason", errors.UserMessage(err))
	} else {
		r, err := openRemote(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer r.Close()
		deps.Backend = r.store
		source = r.store

		authService, err := r.authService(cfg)
		if err != nil {
			logger.Warn("Sign-in disabled", "reason", errors.UserMessage(err))
		} else {
			deps.Auth = authService
		}
	}

	catalog, err := newCatalog(cfg, source, logger)
	if err != nil {
		return err
	}
	deps.Templates = catalog
	if cfg.Templates.PresetsFile != "" && cfg.Templates.Watch {
		watcher := templates.NewWatcher(cfg.Templates.PresetsFile, catalog, cfg.Templates.Debounce, logger)
		if err := watcher.Start(); err != nil {
			logger.LogError(err, "Presets hot reload disabled")
		} else {
			defer watcher.Stop()
		}
	}

	if cfg.Export.S3.Enabled {
		uploader, err := export.NewUploader(ctx, cfg.Export.S3)
		if err != nil {
			return err
		}
		deps.Uploader = uploader
	}

	return server.NewServer(cfg, Version, deps, logger).Start(ctx)
}

// applyServeFlags applies command line overrides to the server settings.
func applyServeFlags(cfg *config.Config) error {
	if serveFlags.host != "" {
		cfg.Server.Host = serveFlags.host
	}
	if serveFlags.port != "" {
		cfg.Server.Port = serveFlags.port
	}
	if serveFlags.certFile != "" {
		cfg.Server.CertFile = serveFlags.certFile
	}
	if serveFlags.keyFile != "" {
		cfg.Server.KeyFile = serveFlags.keyFile
	}
	if (cfg.Server.CertFile == "") != (cfg.Server.KeyFile == "") {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "--cert-file and --key-file must be set together", nil)
	}
	return nil
}
