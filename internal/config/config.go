// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL         string        `env:"DATABASE_URL,required"`
	DatabaseMaxConns    int32         `env:"DATABASE_MAX_CONNS" envDefault:"10"`
	DatabaseMinConns    int32         `env:"DATABASE_MIN_CONNS" envDefault:"2"`
	DatabaseMaxConnLife time.Duration `env:"DATABASE_MAX_CONN_LIFETIME" envDefault:"1h"`

	// Cache (Redis)
	RedisURL          string        `env:"REDIS_URL,required"`
	RedisPoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	RedisMinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	RedisPoolTimeout  time.Duration `env:"REDIS_POOL_TIMEOUT" envDefault:"4s"`

	// Public URL of the API, used in password reset links
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Sessions
	JWTSecret  string        `env:"JWT_SECRET,required"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"720h"`

	// Google sign-in; empty client id disables it
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID" envDefault:""`
	GoogleTokenInfoURL string `env:"GOOGLE_TOKENINFO_URL" envDefault:"https://oauth2.googleapis.com/tokeninfo"`

	// Rate limiting
	RateLimitEnabled       bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitAuthRPS       int  `env:"RATE_LIMIT_AUTH_RPS" envDefault:"5"`
	RateLimitAuthBurst     int  `env:"RATE_LIMIT_AUTH_BURST" envDefault:"10"`
	RateLimitUserPerMin    int  `env:"RATE_LIMIT_USER_PER_MINUTE" envDefault:"120"`
	RateLimitUserBurst     int  `env:"RATE_LIMIT_USER_BURST" envDefault:"30"`
	RateLimitFallbackRPS   int  `env:"RATE_LIMIT_FALLBACK_RPS" envDefault:"20"`
	RateLimitFallbackBurst int  `env:"RATE_LIMIT_FALLBACK_BURST" envDefault:"40"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string        `env:"CORS_ALLOWED_ORIGINS" envDefault:""`
	CORSMaxAge         time.Duration `env:"CORS_MAX_AGE" envDefault:"24h"`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`

	// Image host; empty URL disables uploads
	ImageHostURL     string `env:"IMAGE_HOST_URL" envDefault:""`
	ImageHostAPIKey  string `env:"IMAGE_HOST_API_KEY" envDefault:""`
	ImageMaxHeight   int    `env:"IMAGE_MAX_HEIGHT" envDefault:"500"`
	ImageMaxPixels   int64  `env:"IMAGE_MAX_PIXELS" envDefault:"40000000"`
	ImageMaxFileSize int64  `env:"IMAGE_MAX_FILE_SIZE" envDefault:"10485760"`

	// Reminder delivery worker
	ReminderWorkerEnabled bool          `env:"REMINDER_WORKER_ENABLED" envDefault:"true"`
	ReminderPollInterval  time.Duration `env:"REMINDER_POLL_INTERVAL" envDefault:"15s"`
	ReminderBatchSize     int           `env:"REMINDER_BATCH_SIZE" envDefault:"50"`
	ReminderWebhookURL    string        `env:"REMINDER_WEBHOOK_URL" envDefault:""`
	ReminderWebhookSecret string        `env:"REMINDER_WEBHOOK_SECRET" envDefault:""`

	// Premium renewal and expiry sweep (cron spec, seconds optional)
	PremiumSweepSchedule string `env:"PREMIUM_SWEEP_SCHEDULE" envDefault:"@every 1h"`

	// Recipe events stream and stats worker
	EventsEnabled bool `env:"EVENTS_ENABLED" envDefault:"true"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GoogleSignInEnabled reports whether a Google client id is configured.
func (c *Config) GoogleSignInEnabled() bool {
	return c.GoogleClientID != ""
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	return splitList(c.CORSAllowedOrigins)
}

// Validate checks cross-field constraints env tags cannot express.
func (c *Config) Validate() error {
	if c.IsProduction() && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes in production")
	}
	if c.ReminderWebhookURL != "" && c.ReminderWebhookSecret == "" {
		return fmt.Errorf("REMINDER_WEBHOOK_SECRET is required when REMINDER_WEBHOOK_URL is set")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.DatabaseMaxConns < 1 || c.DatabaseMinConns < 0 || c.DatabaseMinConns > c.DatabaseMaxConns {
		return fmt.Errorf("DATABASE_MIN_CONNS must be between 0 and DATABASE_MAX_CONNS")
	}
	if c.RedisPoolSize < 1 || c.RedisMinIdleConns < 0 || c.RedisMinIdleConns > c.RedisPoolSize {
		return fmt.Errorf("REDIS_MIN_IDLE_CONNS must be between 0 and REDIS_POOL_SIZE")
	}
	return nil
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// CLIConfig is the subset of configuration used by the admin CLI.
type CLIConfig struct {
	DatabaseURL        string `env:"DATABASE_URL,required"`
	FirestoreProjectID string `env:"FIRESTORE_PROJECT_ID" envDefault:""`
	LogLevel           string `env:"LOG_LEVEL" envDefault:"info"`
	// Optional; role changes evict cached sessions when set
	RedisURL string `env:"REDIS_URL" envDefault:""`
}

// LoadCLI parses the admin CLI configuration.
func LoadCLI() (*CLIConfig, error) {
	cfg := &CLIConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))

	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
