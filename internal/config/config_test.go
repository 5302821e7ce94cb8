package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"cvforge/internal/errors"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfigFile(t, "app:\n  logLevel: info\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Expected defaults to load, got %v", err)
	}

	if cfg.AI.Model != "gemini-2.0-flash" {
		t.Errorf("Expected default model, got %s", cfg.AI.Model)
	}
	if cfg.Storage.Debounce != time.Second {
		t.Errorf("Expected 1s debounce, got %v", cfg.Storage.Debounce)
	}
	if cfg.Backend.ActivityLimit != 20 {
		t.Errorf("Expected activity limit 20, got %d", cfg.Backend.ActivityLimit)
	}
	if cfg.Events.Exchange != "cvforge.activity" {
		t.Errorf("Expected default exchange, got %s", cfg.Events.Exchange)
	}
	if cfg.Storage.Path == "" {
		t.Error("Expected storage path fallback to be applied")
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := writeConfigFile(t, `
ai:
  model: gemini-2.5-pro
  maxRetries: 4
backend:
  driver: pgx
storage:
  debounce: 250ms
`)
	t.Setenv("CVFORGE_AI_MODEL", "gemini-env-model")
	t.Setenv("CVFORGE_SERVER_PORT", "9090")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Expected config to load, got %v", err)
	}

	if cfg.AI.Model != "gemini-env-model" {
		t.Errorf("Expected env to override file, got %s", cfg.AI.Model)
	}
	if cfg.AI.MaxRetries != 4 {
		t.Errorf("Expected maxRetries 4 from file, got %d", cfg.AI.MaxRetries)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("Expected port from env, got %s", cfg.Server.Port)
	}
	if cfg.Backend.Driver != "pgx" {
		t.Errorf("Expected pgx driver, got %s", cfg.Backend.Driver)
	}
	if cfg.Storage.Debounce != 250*time.Millisecond {
		t.Errorf("Expected 250ms debounce, got %v", cfg.Storage.Debounce)
	}
}

func TestLoadConfigGeminiKeyFallback(t *testing.T) {
	path := writeConfigFile(t, "app:\n  logLevel: info\n")
	t.Setenv("CVFORGE_AI_APIKEY", "")
	t.Setenv("GEMINI_API_KEY", "legacy-key")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Expected config to load, got %v", err)
	}
	if cfg.AI.APIKey != "legacy-key" {
		t.Errorf("Expected GEMINI_API_KEY fallback, got %q", cfg.AI.APIKey)
	}
	if err := cfg.RequireAI(); err != nil {
		t.Errorf("Expected AI to be usable, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App:     AppConfig{DefaultFormat: "json", SupportedFormats: []string{"json", "text"}},
			AI:      AIConfig{Timeout: time.Second},
			Server:  ServerConfig{Port: "8080"},
			Backend: BackendConfig{Driver: "postgres"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"zero timeout", func(c *Config) { c.AI.Timeout = 0 }, true},
		{"negative retries", func(c *Config) { c.AI.MaxRetries = -1 }, true},
		{"missing port", func(c *Config) { c.Server.Port = "" }, true},
		{"unknown format", func(c *Config) { c.App.DefaultFormat = "xml" }, true},
		{"unknown driver", func(c *Config) { c.Backend.Driver = "mysql" }, true},
		{"cert without key", func(c *Config) { c.Server.CertFile = "cert.pem" }, true},
		{"missing api key is allowed", func(c *Config) { c.AI.APIKey = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error=%v, got %v", tt.wantErr, err)
			}
			if err != nil && !errors.IsType(err, errors.ErrorTypeConfig) {
				t.Errorf("Expected config error, got %v", err)
			}
		})
	}
}

func TestRequireChecks(t *testing.T) {
	cfg := &Config{}

	for name, err := range map[string]error{
		"ai":      cfg.RequireAI(),
		"backend": cfg.RequireBackend(),
		"auth":    cfg.RequireAuth(),
	} {
		if !errors.IsType(err, errors.ErrorTypeConfig) {
			t.Errorf("Expected %s check to return config error, got %v", name, err)
		}
	}

	cfg.Backend = BackendConfig{Enabled: true, DSN: "postgres://localhost/cv"}
	cfg.Auth.JWTSecret = "0123456789abcdef0123456789abcdef"
	if err := cfg.RequireBackend(); err != nil {
		t.Errorf("Expected backend to be usable, got %v", err)
	}
	if err := cfg.RequireAuth(); err != nil {
		t.Errorf("Expected auth to be usable, got %v", err)
	}
}
