package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// applyFallbacks fills values that depend on other values or the host
func (c *Config) applyFallbacks() {
	if c.AI.APIKey == "" {
		// Accept the key name most Gemini tooling uses
		c.AI.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	if c.Storage.Path == "" {
		c.Storage.Path = defaultStoragePath()
	}

	if c.Auth.ExpirationHours <= 0 {
		c.Auth.ExpirationHours = 24
	}

	c.Export.PaperFormat = strings.ToLower(c.Export.PaperFormat)

	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}
}

// defaultStoragePath places the local store under the user's config directory
func defaultStoragePath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "cvforge", "state.db")
	}
	return "cvforge-state.db"
}

// generateServiceInstanceID generates a unique service instance ID
func generateServiceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	envVars := []string{
		"CVFORGE_AI_APIKEY",
		"CVFORGE_AI_MODEL",
		"CVFORGE_SERVER_PORT",
		"CVFORGE_APP_LOGLEVEL",
		"CVFORGE_STORAGE_PATH",
		"CVFORGE_BACKEND_DSN",
		"CVFORGE_AUTH_JWTSECRET",
		"CVFORGE_EVENTS_AMQPURL",
		"CVFORGE_VAULT_ENABLED",
		"GEMINI_API_KEY",
	}

	log.Println("[CONFIG] Environment variables:")
	hasEnvVars := false
	for _, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			if isSensitiveEnv(envVar) {
				log.Printf("[CONFIG]   %s=***MASKED***", envVar)
			} else {
				log.Printf("[CONFIG]   %s=%s", envVar, value)
			}
			hasEnvVars = true
		}
	}
	if !hasEnvVars {
		log.Println("[CONFIG]   None set")
	}

	log.Println("[CONFIG] === Key Configuration Values ===")
	log.Printf("[CONFIG] AI Model: %s", c.AI.Model)
	if c.AI.APIKey != "" {
		log.Println("[CONFIG] AI API Key: ***CONFIGURED***")
	} else {
		log.Println("[CONFIG] AI API Key: ***NOT SET***")
	}
	log.Printf("[CONFIG] Storage Path: %s", c.Storage.Path)
	log.Printf("[CONFIG] Backend Enabled: %t (driver %s)", c.Backend.Enabled, c.Backend.Driver)
	log.Printf("[CONFIG] Events Enabled: %t", c.Events.AMQPURL != "")
	log.Printf("[CONFIG] S3 Upload Enabled: %t", c.Export.S3.Enabled)
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Println("[CONFIG] =====================================")
}

func isSensitiveEnv(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range []string{"key", "secret", "dsn", "url"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
