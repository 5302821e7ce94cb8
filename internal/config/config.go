package config

import (
	"fmt"
	"strings"
	"time"

	"cvforge/internal/errors"

	"github.com/spf13/viper"
)

// Config holds all application configuration
// Secret precedence order:
// 1. Vault (if enabled) - Highest priority
// 2. Config file values
// 3. Environment variables (CVFORGE_AI_APIKEY, etc.)
// 4. Default values - Lowest priority
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	AI            AIConfig            `mapstructure:"ai"`
	Server        ServerConfig        `mapstructure:"server"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Backend       BackendConfig       `mapstructure:"backend"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Export        ExportConfig        `mapstructure:"export"`
	Events        EventsConfig        `mapstructure:"events"`
	Templates     TemplatesConfig     `mapstructure:"templates"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
}

// AIConfig holds the analysis model configuration
type AIConfig struct {
	Provider         string               `mapstructure:"provider"`
	Model            string               `mapstructure:"model"`
	Timeout          time.Duration        `mapstructure:"timeout"`
	APIKey           string               `mapstructure:"apiKey"`
	MaxRetries       int                  `mapstructure:"maxRetries"`
	Temperature      float32              `mapstructure:"temperature"`
	UseSystemPrompts bool                 `mapstructure:"useSystemPrompts"`
	Prompts          PromptConfig         `mapstructure:"prompts"`
	CircuitBreaker   CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// PromptConfig holds the analysis prompts. A file wins over inline text.
type PromptConfig struct {
	System     string `mapstructure:"system"`
	SystemFile string `mapstructure:"systemFile"`
	User       string `mapstructure:"user"`
	UserFile   string `mapstructure:"userFile"`

	// Filled by loadPromptsFromFiles
	LoadedSystem string `mapstructure:"-"`
	LoadedUser   string `mapstructure:"-"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string          `mapstructure:"host"`
	Port         string          `mapstructure:"port"`
	ReadTimeout  time.Duration   `mapstructure:"readTimeout"`
	WriteTimeout time.Duration   `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration   `mapstructure:"idleTimeout"`
	MaxBodyBytes int64           `mapstructure:"maxBodyBytes"`
	CertFile     string          `mapstructure:"certFile"`
	KeyFile      string          `mapstructure:"keyFile"`
	RateLimit    RateLimitConfig `mapstructure:"rateLimit"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`        // Enable/disable rate limiting
	RequestsPerMin int           `mapstructure:"requestsPerMin"` // Requests allowed per minute
	BurstCapacity  int           `mapstructure:"burstCapacity"`  // Burst capacity for token bucket
	ByIP           bool          `mapstructure:"byIP"`           // Enable per-IP rate limiting
	ByUser         bool          `mapstructure:"byUser"`         // Enable per-session rate limiting
	Window         time.Duration `mapstructure:"window"`         // Idle window before a limiter is dropped
	AnalyzeCost    int           `mapstructure:"analyzeCost"`    // Tokens one analysis request spends
}

// StorageConfig holds the local key-value store configuration
type StorageConfig struct {
	Path     string        `mapstructure:"path"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// BackendConfig holds the remote profile/template/activity store
type BackendConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Driver          string        `mapstructure:"driver"` // postgres (lib/pq) or pgx
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
	ActivityLimit   int           `mapstructure:"activityLimit"`
	InitSchema      bool          `mapstructure:"initSchema"`
}

// AuthConfig holds session signing configuration
type AuthConfig struct {
	JWTSecret       string `mapstructure:"jwtSecret"`
	ExpirationHours int    `mapstructure:"expirationHours"`
	BcryptCost      int    `mapstructure:"bcryptCost"`
}

// ExportConfig holds document export configuration
type ExportConfig struct {
	OutputDir   string        `mapstructure:"outputDir"`
	PDFTimeout  time.Duration `mapstructure:"pdfTimeout"`
	ChromePath  string        `mapstructure:"chromePath"`
	PaperFormat string        `mapstructure:"paperFormat"` // a4 or letter
	S3          S3Config      `mapstructure:"s3"`
}

// S3Config holds S3-compatible artifact storage settings
type S3Config struct {
	Enabled         bool   `mapstructure:"enabled"`
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	Prefix          string `mapstructure:"prefix"`
	AccessKeyID     string `mapstructure:"accessKeyId"`
	SecretAccessKey string `mapstructure:"secretAccessKey"`
	UsePathStyle    bool   `mapstructure:"usePathStyle"`
}

// EventsConfig holds activity event publishing configuration
type EventsConfig struct {
	AMQPURL  string `mapstructure:"amqpUrl"`
	Exchange string `mapstructure:"exchange"`
}

// TemplatesConfig holds template preset configuration
type TemplatesConfig struct {
	PresetsFile string        `mapstructure:"presetsFile"`
	Watch       bool          `mapstructure:"watch"`
	Debounce    time.Duration `mapstructure:"debounce"`
}

// LoadConfig loads configuration from defaults, an optional config file and
// the environment. configFile overrides the search path when set.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("CVFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/cvforge/")
		v.AddConfigPath("$HOME/.cvforge")
		v.AddConfigPath(".")
	}

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to read config file", err)
		}
	} else {
		configFileUsed = v.ConfigFileUsed()
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to unmarshal config", err)
	}

	config.applyFallbacks()

	if config.App.LogLevel == "debug" {
		config.logConfigurationSources(configFileUsed)
	}

	if err := config.loadPromptsFromFiles(); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to load prompt files", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks settings every command depends on. Credentials needed only
// by some commands are checked by the Require* methods at the point of use.
func (c *Config) Validate() error {
	invalid := func(msg string) error {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, msg, nil)
	}

	if c.AI.Timeout <= 0 {
		return invalid("AI timeout must be positive")
	}
	if c.AI.MaxRetries < 0 {
		return invalid("AI maxRetries cannot be negative")
	}
	if c.Server.Port == "" {
		return invalid("server port is required")
	}
	if c.Storage.Debounce < 0 {
		return invalid("storage debounce cannot be negative")
	}

	validFormats := make(map[string]bool)
	for _, format := range c.App.SupportedFormats {
		validFormats[format] = true
	}
	if !validFormats[c.App.DefaultFormat] {
		return invalid(fmt.Sprintf("invalid default format: %s", c.App.DefaultFormat))
	}

	switch c.Backend.Driver {
	case "postgres", "pgx":
	default:
		return invalid(fmt.Sprintf("unsupported backend driver: %s", c.Backend.Driver))
	}

	if (c.Server.CertFile == "") != (c.Server.KeyFile == "") {
		return invalid("server certFile and keyFile must be set together")
	}

	return nil
}

// RequireAI reports the setup step missing before an analysis can run.
func (c *Config) RequireAI() error {
	if c.AI.APIKey == "" {
		return errors.NewConfigError(errors.ErrCodeMissingAPIKey,
			"analysis API key is not configured (set CVFORGE_AI_APIKEY or enable Vault)", nil)
	}
	return nil
}

// RequireBackend reports the setup step missing before the backend can be used.
func (c *Config) RequireBackend() error {
	if !c.Backend.Enabled || c.Backend.DSN == "" {
		return errors.NewConfigError(errors.ErrCodeMissingCredentials,
			"backend is not configured (set CVFORGE_BACKEND_ENABLED and CVFORGE_BACKEND_DSN)", nil)
	}
	return nil
}

// RequireAuth reports whether sessions can be signed.
func (c *Config) RequireAuth() error {
	if len(c.Auth.JWTSecret) < 32 {
		return errors.NewConfigError(errors.ErrCodeMissingCredentials,
			"session secret must be at least 32 characters (set CVFORGE_AUTH_JWTSECRET)", nil)
	}
	return nil
}
