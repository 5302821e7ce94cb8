package auth

import (
	"context"
	"testing"
	"time"

	"cvforge/internal/config"
	"cvforge/internal/errors"
	"cvforge/internal/store/backend"
	"cvforge/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type memoryUsers struct {
	byEmail map[string]*backend.User
}

func (m *memoryUsers) CreateUser(_ context.Context, email, hash string) (*backend.User, error) {
	if _, ok := m.byEmail[email]; ok {
		return nil, errors.NewValidationError(errors.ErrCodeConflict, "an account with this email already exists", nil)
	}
	u := &backend.User{ID: uuid.New(), Email: email, PasswordHash: hash}
	m.byEmail[email] = u
	return u, nil
}

func (m *memoryUsers) FindUserByEmail(_ context.Context, email string) (*backend.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, errors.NewValidationError(errors.ErrCodeNotFound, "account not found", nil)
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	cfg := &config.Config{Auth: config.AuthConfig{
		JWTSecret:       testSecret,
		ExpirationHours: 1,
		BcryptCost:      bcrypt.MinCost,
	}}
	svc, err := NewService(cfg, &memoryUsers{byEmail: map[string]*backend.User{}})
	require.NoError(t, err)
	return svc
}

func TestNewServiceRequiresSecret(t *testing.T) {
	_, err := NewService(&config.Config{Auth: config.AuthConfig{JWTSecret: "short"}}, &memoryUsers{})
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestSignUpSignInAndValidate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.SignUp(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, created.Token)

	sess, err := svc.SignIn(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, created.UserID, sess.UserID)

	validated, err := svc.ValidateToken(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, validated.UserID)
	assert.Equal(t, "ada@example.com", validated.Email)
	assert.True(t, validated.Active(time.Now()))
}

func TestSignUpValidation(t *testing.T) {
	svc := newTestService(t)
	tests := []struct {
		name     string
		email    string
		password string
		field    string
	}{
		{"bad email", "ada-at-example", "long enough", "email"},
		{"short password", "ada@example.com", "short", "password"},
		{"missing email", "", "long enough", "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SignUp(context.Background(), tt.email, tt.password)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
			assert.Contains(t, validation.Fields(err), tt.field)
		})
	}
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.SignUp(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)

	for _, attempt := range [][2]string{{"ada@example.com", "wrong horse"}, {"ghost@example.com", "correct horse"}} {
		_, err := svc.SignIn(ctx, attempt[0], attempt[1])
		appErr, ok := errors.As(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrorTypeAuth, appErr.Type)
		assert.Equal(t, errors.ErrCodeInvalidCredentials, appErr.Code)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	svc := newTestService(t)
	sess, err := svc.SignUp(context.Background(), "ada@example.com", "correct horse")
	require.NoError(t, err)

	other := newTestService(t)
	other.secret = []byte("another-secret-another-secret-123")

	expired := newTestService(t)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: uuid.NewString()}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		svc   *Service
		token string
	}{
		{"empty", svc, ""},
		{"garbage", svc, "not.a.token"},
		{"foreign secret", other, sess.Token},
		{"expired", expired, sess.Token},
		{"unsigned", svc, noneToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.svc.ValidateToken(tt.token)
			assert.True(t, errors.IsType(err, errors.ErrorTypeAuth), "expected auth error, got %v", err)
		})
	}
}
