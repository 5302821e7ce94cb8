package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"cvforge/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets names the KVv2 paths holding each credential. The key read
// from each path is noted alongside.
type VaultSecrets struct {
	GeminiKey string `mapstructure:"geminiKey"` // api_key
	JWTSecret string `mapstructure:"jwtSecret"` // secret
	Database  string `mapstructure:"database"`  // dsn
	S3        string `mapstructure:"s3"`        // access_key_id, secret_access_key
}

// token returns the configured token, reading TokenFile when no inline token
// is set.
func (c VaultConfig) token() (string, error) {
	token := c.Token
	if token == "" && c.TokenFile != "" {
		raw, err := os.ReadFile(c.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(raw))
	}
	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}
	return token, nil
}

// VaultClient reads credentials from a KVv2 engine
type VaultClient struct {
	client *api.Client
	logger *errors.Logger
}

// NewVaultClient connects to Vault and checks its health. It returns nil
// without error when Vault is disabled.
func NewVaultClient(cfg VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	token, err := cfg.token()
	if err != nil {
		return nil, err
	}

	apiConfig := api.DefaultConfig()
	if cfg.Address != "" {
		apiConfig.Address = cfg.Address
	}
	client, err := api.NewClient(apiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to vault at %s: %w", cfg.Address, err)
	}
	if logger != nil {
		logger.Info("Connected to Vault",
			"address", cfg.Address,
			"version", health.Version,
			"sealed", health.Sealed)
	}

	return &VaultClient{client: client, logger: logger}, nil
}

// KVSecret is the current version of a KVv2 secret
type KVSecret struct {
	Data    map[string]any
	Version int64
}

// ReadKV reads the secret at path, which must include the engine's data/
// segment, e.g. "secret/data/gemini".
func (vc *VaultClient) ReadKV(path string) (*KVSecret, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}

	secret, err := vc.client.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}
	return decodeKV(path, secret)
}

func decodeKV(path string, secret *api.Secret) (*KVSecret, error) {
	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}
	metadata, ok := secret.Data["metadata"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'metadata' field)", path)
	}
	raw, ok := metadata["version"]
	if !ok {
		return nil, fmt.Errorf("secret metadata at %s is missing 'version' field", path)
	}
	version, err := kvVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("could not parse secret version at %s: %w", path, err)
	}
	return &KVSecret{Data: data, Version: version}, nil
}

// kvVersion accepts the number types the JSON decoder may hand back.
func kvVersion(raw any) (int64, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected type %T", raw)
	}
}

// String returns one string field of a secret
func (s *KVSecret) String(key string) (string, error) {
	value, ok := s.Data[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found", key)
	}
	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("value for key '%s' is not a string", key)
	}
	return str, nil
}

// maskSecret keeps just enough of a credential to tell two apart in logs.
func maskSecret(v string) string {
	switch {
	case len(v) > 8:
		return v[:4] + "****" + v[len(v)-4:]
	case v != "":
		return "****"
	default:
		return ""
	}
}

// vaultField maps one key of one secret onto the config
type vaultField struct {
	name  string
	key   string
	apply func(*Config, string)
}

// vaultFields groups the configured credentials by secret path, so a secret
// holding several keys is read once.
func vaultFields(s VaultSecrets) (paths []string, fields map[string][]vaultField) {
	fields = make(map[string][]vaultField)
	add := func(path string, f vaultField) {
		if path == "" {
			return
		}
		if _, seen := fields[path]; !seen {
			paths = append(paths, path)
		}
		fields[path] = append(fields[path], f)
	}

	add(s.GeminiKey, vaultField{"Gemini API key", "api_key", func(c *Config, v string) { c.AI.APIKey = v }})
	add(s.JWTSecret, vaultField{"session secret", "secret", func(c *Config, v string) { c.Auth.JWTSecret = v }})
	add(s.Database, vaultField{"database DSN", "dsn", func(c *Config, v string) { c.Backend.DSN = v }})
	add(s.S3, vaultField{"S3 access key", "access_key_id", func(c *Config, v string) { c.Export.S3.AccessKeyID = v }})
	add(s.S3, vaultField{"S3 secret key", "secret_access_key", func(c *Config, v string) { c.Export.S3.SecretAccessKey = v }})
	return paths, fields
}

// ApplyVaultSecrets overwrites credentials in cfg with the values stored in
// Vault. Empty secrets leave the existing value alone.
func ApplyVaultSecrets(cfg *Config, logger *errors.Logger) error {
	if !cfg.Vault.Enabled {
		return nil
	}

	client, err := NewVaultClient(cfg.Vault, logger)
	if err != nil {
		return errors.NewConfigError(errors.ErrCodeMissingCredentials, "failed to initialize vault client", err)
	}

	paths, fields := vaultFields(cfg.Vault.Secrets)
	for _, path := range paths {
		secret, err := client.ReadKV(path)
		if err != nil {
			return errors.NewConfigError(errors.ErrCodeMissingCredentials,
				fmt.Sprintf("failed to load %s from vault", fields[path][0].name), err).
				WithContext("path", path)
		}

		for _, f := range fields[path] {
			value, err := secret.String(f.key)
			if err != nil {
				return errors.NewConfigError(errors.ErrCodeMissingCredentials,
					fmt.Sprintf("failed to load %s from vault", f.name), err).
					WithContext("path", path)
			}
			if value == "" {
				if logger != nil {
					logger.Warn("Empty secret found in Vault", "secret", f.name, "path", path)
				}
				continue
			}

			f.apply(cfg, value)
			if logger != nil {
				logger.Debug("Secret loaded from Vault",
					"secret", f.name, "version", secret.Version, "masked_value", maskSecret(value))
			}
		}
	}
	return nil
}
