package cli

import (
	"context"
	"time"

	"cvforge/internal/auth"
	"cvforge/internal/config"
	"cvforge/internal/editor"
	"cvforge/internal/errors"
	"cvforge/internal/events"
	"cvforge/internal/observability"
	"cvforge/internal/store/backend"
	"cvforge/internal/store/local"
	"cvforge/internal/templates"
	"cvforge/internal/types"

	"github.com/spf13/cobra"
)

// workspace is the local state a command edits: the key-value store, the
// editor session on top of it and the telemetry its gestures report to.
type workspace struct {
	store     *local.Store
	editor    *editor.Session
	telemetry *observability.Manager
	logger    *errors.Logger
}

// openWorkspace mounts the editor session from the local store.
func openWorkspace(cmd *cobra.Command) (*workspace, error) {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	store, err := local.Open(cfg.Storage.Path, logger)
	if err != nil {
		return nil, err
	}

	session, err := editor.Open(ctx, store, cfg.Storage.Debounce, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	telemetry, err := observability.NewManager(cliTelemetryConfig(cfg.Observability), Version)
	if err != nil {
		logger.Warn("Telemetry disabled", "error", err.Error())
		telemetry, _ = observability.NewManager(config.ObservabilityConfig{}, Version)
	}
	session.SetObserver(telemetry.Metrics())

	return &workspace{store: store, editor: session, telemetry: telemetry, logger: logger}, nil
}

// Close writes pending edits, then releases the store and flushes telemetry.
func (w *workspace) Close(ctx context.Context) error {
	// Pending writes must land even when ctx was cancelled by a signal
	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	err := w.editor.Close(flushCtx)
	if shutdownErr := w.telemetry.Shutdown(flushCtx); shutdownErr != nil {
		w.logger.Debug("Telemetry shutdown failed", "error", shutdownErr.Error())
	}
	if closeErr := w.store.Close(); err == nil {
		err = closeErr
	}
	return err
}

// cliTelemetryConfig keeps only push exporters: a one-shot command has no
// scrape endpoint.
func cliTelemetryConfig(cfg config.ObservabilityConfig) config.ObservabilityConfig {
	cfg.Prometheus.Enabled = false
	if !cfg.OTLP.Enabled && !cfg.ConsoleOutput {
		cfg.Enabled = false
	}
	return cfg
}

// withWorkspace runs fn against the workspace and always closes it.
func withWorkspace(cmd *cobra.Command, fn func(*workspace) error) (err error) {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := ws.Close(cmd.Context()); err == nil {
			err = closeErr
		}
	}()
	return fn(ws)
}

// remote is a connection to the backend and its event publisher.
type remote struct {
	store     *backend.Store
	publisher *events.Publisher
	logger    *errors.Logger
}

// openRemote connects to the backend. Appended activity is published when a
// broker is configured.
func openRemote(ctx context.Context, cfg *config.Config, logger *errors.Logger) (*remote, error) {
	if err := cfg.RequireBackend(); err != nil {
		return nil, err
	}

	publisher, err := events.NewPublisher(cfg.Events, logger)
	if err != nil {
		return nil, err
	}

	store, err := backend.Open(ctx, cfg.Backend, logger, backend.WithPublisher(publisher))
	if err != nil {
		publisher.Close()
		return nil, err
	}

	if cfg.Backend.InitSchema {
		if err := store.InitSchema(ctx); err != nil {
			store.Close()
			publisher.Close()
			return nil, err
		}
	}
	return &remote{store: store, publisher: publisher, logger: logger}, nil
}

func (r *remote) Close() {
	if err := r.store.Close(); err != nil {
		r.logger.Debug("Backend close failed", "error", err.Error())
	}
	if err := r.publisher.Close(); err != nil {
		r.logger.Debug("Publisher close failed", "error", err.Error())
	}
}

// authService builds the session service over the backend's users.
func (r *remote) authService(cfg *config.Config) (*auth.Service, error) {
	if err := cfg.RequireAuth(); err != nil {
		return nil, err
	}
	return auth.NewService(cfg, r.store)
}

// signedInSession returns the saved session, or the sign-in error when there
// is none or it has expired.
func signedInSession(ctx context.Context, store editor.StateStore) (*types.Session, error) {
	sess, err := editor.LoadAuthSession(ctx, store)
	if err != nil {
		return nil, err
	}
	if !sess.Active(time.Now()) {
		return nil, errors.SignInRequired()
	}
	return sess, nil
}

// newCatalog returns the template catalog: built-in presets, the presets
// file when configured, and the backend table when one is connected.
func newCatalog(cfg *config.Config, source templates.Source, logger *errors.Logger) (*templates.Catalog, error) {
	catalog := templates.NewCatalog(logger)
	if cfg.Templates.PresetsFile != "" {
		if err := catalog.LoadFile(cfg.Templates.PresetsFile); err != nil {
			return nil, err
		}
	}
	if source != nil {
		catalog.SetRemote(source)
	}
	return catalog, nil
}
