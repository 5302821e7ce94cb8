package backend

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"cvforge/internal/errors"
	"cvforge/internal/validation"

	"github.com/google/uuid"
)

// User is a backend account.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// CreateUser inserts an account. Emails are stored lower-cased.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash string) (*User, error) {
	u := &User{ID: uuid.New(), Email: strings.ToLower(strings.TrimSpace(email)), PasswordHash: passwordHash}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (id, email, password_hash) VALUES ($1, $2, $3) RETURNING created_at`,
		u.ID, u.Email, u.PasswordHash,
	).Scan(&u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errors.NewValidationError(errors.ErrCodeConflict, "an account with this email already exists", err).
				WithContext("fields", validation.FieldErrors{"email": "is already registered"})
		}
		return nil, s.remoteErr("failed to create account", err)
	}
	return u, nil
}

// FindUserByEmail looks an account up by email.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	u := &User{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)),
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewValidationError(errors.ErrCodeNotFound, "account not found", nil)
	}
	if err != nil {
		return nil, s.remoteErr("failed to look up account", err)
	}
	return u, nil
}
