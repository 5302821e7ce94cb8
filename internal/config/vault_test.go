package config

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"cvforge/internal/errors"

	"github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *errors.Logger {
	logger, _ := errors.New("debug")
	return logger
}

// fakeVault serves sys/health and a fixed set of KVv2 secrets. The returned
// counter tracks secret reads.
func fakeVault(t *testing.T, secrets map[string]map[string]any) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var reads atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/v1/sys/health" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"initialized": true, "sealed": false, "version": "1.15.0", "cluster_name": "test",
			})
			return
		}
		reads.Add(1)
		data, ok := secrets[r.URL.Path[len("/v1/"):]]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"data":     data,
				"metadata": map[string]any{"version": 3},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &reads
}

func TestKVVersion(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "int64", input: int64(42), expected: 42},
		{name: "int", input: 5, expected: 5},
		{name: "float64", input: float64(42.0), expected: 42},
		{name: "string", input: "42", expected: 42},
		{name: "json number", input: json.Number("7"), expected: 7},
		{name: "invalid string", input: "not-a-number", expectError: true},
		{name: "unsupported type", input: []string{"42"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := kvVersion(tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestVaultToken(t *testing.T) {
	dir := t.TempDir()
	tokenFile := filepath.Join(dir, "vault-token")
	require.NoError(t, os.WriteFile(tokenFile, []byte("  file-token  \n"), 0600))
	blankFile := filepath.Join(dir, "blank-token")
	require.NoError(t, os.WriteFile(blankFile, []byte("   \n  \n"), 0600))

	tests := []struct {
		name    string
		config  VaultConfig
		want    string
		wantErr string
	}{
		{name: "inline token", config: VaultConfig{Token: "direct-token", TokenFile: tokenFile}, want: "direct-token"},
		{name: "token file is trimmed", config: VaultConfig{TokenFile: tokenFile}, want: "file-token"},
		{name: "missing token file", config: VaultConfig{TokenFile: "/nonexistent/token/file"}, wantErr: "failed to read vault token file"},
		{name: "no token", config: VaultConfig{}, wantErr: "vault token is required"},
		{name: "blank token file", config: VaultConfig{TokenFile: blankFile}, wantErr: "vault token is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := tt.config.token()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, token)
		})
	}
}

func TestDecodeKV(t *testing.T) {
	tests := []struct {
		name        string
		data        map[string]any
		expected    *KVSecret
		expectError bool
	}{
		{
			name: "valid secret",
			data: map[string]any{
				"data":     map[string]any{"api_key": "k"},
				"metadata": map[string]any{"version": float64(2)},
			},
			expected: &KVSecret{Data: map[string]any{"api_key": "k"}, Version: 2},
		},
		{
			name:        "missing data",
			data:        map[string]any{"metadata": map[string]any{"version": 1}},
			expectError: true,
		},
		{
			name:        "data is not a map",
			data:        map[string]any{"data": "not-a-map", "metadata": map[string]any{"version": 1}},
			expectError: true,
		},
		{
			name:        "missing metadata",
			data:        map[string]any{"data": map[string]any{}},
			expectError: true,
		},
		{
			name:        "missing version",
			data:        map[string]any{"data": map[string]any{}, "metadata": map[string]any{"other": "x"}},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := decodeKV("secret/data/test", &api.Secret{Data: tt.data})
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestKVSecretString(t *testing.T) {
	s := &KVSecret{Data: map[string]any{"dsn": "postgres://db", "port": 5432}}

	v, err := s.String("dsn")
	require.NoError(t, err)
	assert.Equal(t, "postgres://db", v)

	_, err = s.String("port")
	assert.ErrorContains(t, err, "not a string")
	_, err = s.String("user")
	assert.ErrorContains(t, err, "not found")
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "abcd****6789", maskSecret("abcdef0123456789"))
	assert.Equal(t, "****", maskSecret("short"))
	assert.Equal(t, "", maskSecret(""))
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	config := &Config{AI: AIConfig{APIKey: "env-key"}}
	require.NoError(t, ApplyVaultSecrets(config, newTestLogger()))
	assert.Equal(t, "env-key", config.AI.APIKey)
}

func TestApplyVaultSecrets(t *testing.T) {
	srv, reads := fakeVault(t, map[string]map[string]any{
		"secret/data/gemini": {"api_key": "vault-gemini-key"},
		"secret/data/jwt":    {"secret": "vault-session-secret-0123456789abcdef"},
		"secret/data/s3":     {"access_key_id": "AKIA", "secret_access_key": "s3-secret"},
	})

	config := &Config{
		AI: AIConfig{APIKey: "env-key"},
		Vault: VaultConfig{
			Enabled: true,
			Address: srv.URL,
			Token:   "root",
			Secrets: VaultSecrets{
				GeminiKey: "secret/data/gemini",
				JWTSecret: "secret/data/jwt",
				S3:        "secret/data/s3",
			},
		},
	}

	require.NoError(t, ApplyVaultSecrets(config, newTestLogger()))

	assert.Equal(t, "vault-gemini-key", config.AI.APIKey)
	assert.Equal(t, "vault-session-secret-0123456789abcdef", config.Auth.JWTSecret)
	assert.Equal(t, "AKIA", config.Export.S3.AccessKeyID)
	assert.Equal(t, "s3-secret", config.Export.S3.SecretAccessKey)
	assert.Empty(t, config.Backend.DSN)
	assert.Equal(t, int32(3), reads.Load(), "the S3 secret should be read once for both keys")
}

func TestApplyVaultSecretsEmptyValueKeepsExisting(t *testing.T) {
	srv, _ := fakeVault(t, map[string]map[string]any{
		"secret/data/gemini": {"api_key": ""},
	})

	config := &Config{
		AI: AIConfig{APIKey: "env-key"},
		Vault: VaultConfig{
			Enabled: true,
			Address: srv.URL,
			Token:   "root",
			Secrets: VaultSecrets{GeminiKey: "secret/data/gemini"},
		},
	}

	require.NoError(t, ApplyVaultSecrets(config, newTestLogger()))
	assert.Equal(t, "env-key", config.AI.APIKey)
}

func TestApplyVaultSecretsMissingKey(t *testing.T) {
	srv, _ := fakeVault(t, map[string]map[string]any{
		"secret/data/db": {"url": "postgres://wrong-key"},
	})

	config := &Config{
		Vault: VaultConfig{
			Enabled: true,
			Address: srv.URL,
			Token:   "root",
			Secrets: VaultSecrets{Database: "secret/data/db"},
		},
	}

	err := ApplyVaultSecrets(config, newTestLogger())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	assert.Contains(t, err.Error(), "database DSN")
}

func TestReadKV(t *testing.T) {
	srv, _ := fakeVault(t, map[string]map[string]any{
		"secret/data/gemini": {"api_key": "k"},
	})

	client, err := NewVaultClient(VaultConfig{Enabled: true, Address: srv.URL, Token: "root"}, nil)
	require.NoError(t, err)

	secret, err := client.ReadKV("secret/data/gemini")
	require.NoError(t, err)
	assert.Equal(t, int64(3), secret.Version)

	_, err = client.ReadKV("secret/data/absent")
	assert.Error(t, err)
}

func TestNewVaultClientDisabled(t *testing.T) {
	client, err := NewVaultClient(VaultConfig{Enabled: false}, nil)
	assert.NoError(t, err)
	assert.Nil(t, client)
}
