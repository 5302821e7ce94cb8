// Package auth signs users in against the backend and turns session tokens
// back into identities.
package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"cvforge/internal/config"
	"cvforge/internal/errors"
	"cvforge/internal/store/backend"
	"cvforge/internal/types"
	"cvforge/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the account storage used for sign-up and sign-in.
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*backend.User, error)
	FindUserByEmail(ctx context.Context, email string) (*backend.User, error)
}

// Claims are the JWT claims of a session token. The subject is the user id.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Service issues and validates session tokens.
type Service struct {
	users      UserStore
	secret     []byte
	expiration time.Duration
	bcryptCost int
	validator  *validation.Validator
	now        func() time.Time
}

// NewService builds a Service. The signing secret must be configured.
func NewService(cfg *config.Config, users UserStore) (*Service, error) {
	if err := cfg.RequireAuth(); err != nil {
		return nil, err
	}
	cost := cfg.Auth.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Service{
		users:      users,
		secret:     []byte(cfg.Auth.JWTSecret),
		expiration: time.Duration(cfg.Auth.ExpirationHours) * time.Hour,
		bcryptCost: cost,
		validator:  validation.New(),
		now:        time.Now,
	}, nil
}

// SignUp creates an account and signs it in.
func (s *Service) SignUp(ctx context.Context, email, password string) (*types.Session, error) {
	creds := credentials{Email: strings.TrimSpace(email), Password: password}
	if err := s.validator.Struct(creds); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), s.bcryptCost)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidCredentials, "failed to hash password", err)
	}

	user, err := s.users.CreateUser(ctx, creds.Email, string(hash))
	if err != nil {
		return nil, err
	}
	return s.issue(user.ID, user.Email)
}

// SignIn checks the password and returns a new session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*types.Session, error) {
	invalid := errors.NewAuthError(errors.ErrCodeInvalidCredentials, "invalid email or password", nil)

	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if appErr, ok := errors.As(err); ok && appErr.Code == errors.ErrCodeNotFound {
			return nil, invalid
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, invalid
	}
	return s.issue(user.ID, user.Email)
}

// ValidateToken parses a session token. Expired, malformed or foreign tokens
// are auth errors.
func (s *Service) ValidateToken(tokenString string) (*types.Session, error) {
	if tokenString == "" {
		return nil, errors.SignInRequired()
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.NewAuthError(errors.ErrCodeInvalidSession, "session expired, please sign in", err)
		}
		return nil, errors.NewAuthError(errors.ErrCodeInvalidSession, errors.ErrSignInRequired, err)
	}
	if !token.Valid {
		return nil, errors.NewAuthError(errors.ErrCodeInvalidSession, errors.ErrSignInRequired, nil)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errors.NewAuthError(errors.ErrCodeInvalidSession, errors.ErrSignInRequired, err)
	}

	return &types.Session{
		UserID:    userID,
		Email:     claims.Email,
		Token:     tokenString,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *Service) issue(userID uuid.UUID, email string) (*types.Session, error) {
	now := s.now()
	expiresAt := now.Add(s.expiration)

	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidSession, "failed to sign session", err)
	}

	return &types.Session{
		UserID:    userID,
		Email:     email,
		Token:     signed,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
