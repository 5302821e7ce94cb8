package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 5*1024*1024) // 5MB, uploads include PDFs

	// AI Configuration
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.maxRetries", 2)
	v.SetDefault("ai.temperature", 0.2) // Low temperature for consistent scoring
	v.SetDefault("ai.useSystemPrompts", true)
	v.SetDefault("ai.prompts.system", "")
	v.SetDefault("ai.prompts.systemFile", "")
	v.SetDefault("ai.prompts.user", "")
	v.SetDefault("ai.prompts.userFile", "")

	v.SetDefault("ai.circuitBreaker.enabled", true)
	v.SetDefault("ai.circuitBreaker.maxRequests", 3)
	v.SetDefault("ai.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("ai.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("ai.circuitBreaker.minRequests", 3)
	v.SetDefault("ai.circuitBreaker.failureThreshold", 0.6)

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 90*time.Second) // PDF rendering and analysis are slow
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.maxBodyBytes", 6*1024*1024)
	v.SetDefault("server.certFile", "")
	v.SetDefault("server.keyFile", "")
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byUser", false)
	v.SetDefault("server.rateLimit.window", time.Minute)
	v.SetDefault("server.rateLimit.analyzeCost", 5)

	// Local storage
	v.SetDefault("storage.path", "")
	v.SetDefault("storage.debounce", time.Second)

	// Backend
	v.SetDefault("backend.enabled", false)
	v.SetDefault("backend.driver", "postgres")
	v.SetDefault("backend.dsn", "")
	v.SetDefault("backend.maxOpenConns", 10)
	v.SetDefault("backend.connMaxLifetime", 30*time.Minute)
	v.SetDefault("backend.activityLimit", 20)
	v.SetDefault("backend.initSchema", true)

	// Auth
	v.SetDefault("auth.jwtSecret", "")
	v.SetDefault("auth.expirationHours", 24*7)
	v.SetDefault("auth.bcryptCost", 12)

	// Export
	v.SetDefault("export.outputDir", ".")
	v.SetDefault("export.pdfTimeout", 45*time.Second)
	v.SetDefault("export.chromePath", "")
	v.SetDefault("export.paperFormat", "a4")
	v.SetDefault("export.s3.enabled", false)
	v.SetDefault("export.s3.bucket", "")
	v.SetDefault("export.s3.region", "auto")
	v.SetDefault("export.s3.endpoint", "")
	v.SetDefault("export.s3.prefix", "exports/")
	v.SetDefault("export.s3.accessKeyId", "")
	v.SetDefault("export.s3.secretAccessKey", "")
	v.SetDefault("export.s3.usePathStyle", false)

	// Events
	v.SetDefault("events.amqpUrl", "")
	v.SetDefault("events.exchange", "cvforge.activity")

	// Templates
	v.SetDefault("templates.presetsFile", "")
	v.SetDefault("templates.watch", true)
	v.SetDefault("templates.debounce", 500*time.Millisecond)

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.geminiKey", "")
	v.SetDefault("vault.secrets.jwtSecret", "")
	v.SetDefault("vault.secrets.database", "")
	v.SetDefault("vault.secrets.s3", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "cvforge")
	v.SetDefault("observability.serviceVersion", "")  // Will use app version if empty
	v.SetDefault("observability.serviceInstance", "") // Will be auto-generated if empty
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
}
