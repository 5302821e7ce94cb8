// Package backend is the remote store for profiles, the template catalog and
// the activity log. It talks to PostgreSQL through database/sql so either
// lib/pq or the pgx stdlib driver can be used.
package backend

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"cvforge/internal/config"
	"cvforge/internal/errors"
	"cvforge/internal/types"
	"cvforge/internal/validation"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
)

// MaxActivity bounds a single activity read.
const MaxActivity = 100

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS profiles (
		user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		full_name TEXT NOT NULL,
		headline TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		postal_code TEXT NOT NULL DEFAULT '',
		birth_date TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS templates (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		sections JSONB NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS activity (
		id BIGSERIAL PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		action TEXT NOT NULL,
		detail TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_user_created ON activity (user_id, created_at DESC)`,
}

// ActivityPublisher receives every appended activity entry.
type ActivityPublisher interface {
	PublishActivity(ctx context.Context, a types.Activity) error
}

// Store is the backend repository.
type Store struct {
	db        *sql.DB
	validator *validation.Validator
	publisher ActivityPublisher
	logger    *errors.Logger
	now       func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithPublisher sets where appended activity is published.
func WithPublisher(p ActivityPublisher) Option {
	return func(s *Store) { s.publisher = p }
}

// WithClock overrides the clock used for session expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New wraps an open database handle.
func New(db *sql.DB, logger *errors.Logger, opts ...Option) *Store {
	s := &Store{
		db:        db,
		validator: validation.New(),
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects with the driver named in cfg and verifies the connection.
func Open(ctx context.Context, cfg config.BackendConfig, logger *errors.Logger, opts ...Option) (*Store, error) {
	if !cfg.Enabled || cfg.DSN == "" {
		return nil, errors.NewConfigError(errors.ErrCodeMissingCredentials, "backend is not configured", nil)
	}

	driver := "postgres"
	if cfg.Driver == "pgx" {
		driver = "pgx"
	}

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, errors.NewRemoteError(errors.ErrCodeStorageFailed, "failed to open backend connection", err).
			WithContext("driver", driver)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.NewRemoteError(errors.ErrCodeStorageFailed, "could not reach the backend", err).
			WithContext("driver", driver)
	}

	logger.Info("Connected to backend", "driver", driver)
	return New(db, logger, opts...), nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// InitSchema creates the backend tables if they do not exist.
func (s *Store) InitSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return s.remoteErr("failed to initialize backend schema", err)
		}
	}
	return nil
}

func (s *Store) requireSession(sess *types.Session) error {
	if !sess.Active(s.now()) {
		return errors.SignInRequired()
	}
	return nil
}

func (s *Store) remoteErr(msg string, err error) error {
	return errors.NewRemoteError(errors.ErrCodeStorageFailed, msg, err)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
