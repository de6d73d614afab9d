package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Server ports
	APIPort  int
	SMTPPort int

	// Pub/sub driver: "local" (in-process) or "postgres" (LISTEN/NOTIFY)
	PubSubDriver string

	// Notification coalescing
	CoalesceWindow   time.Duration
	CoalesceMaxDelay time.Duration

	// Push stream
	StreamKeepAlive time.Duration

	// Mailbox path limits
	MaxPathDepth     int
	MaxSegmentLength int

	// Logging
	LogLevel string

	// Security
	APIKey         string
	AllowedOrigins string
	AppEnv         string

	// Rate limiting
	RateLimitRequests float64
	RateLimitBurst    int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}

	// Required: DATABASE_URL
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set")
	}

	var err error
	if cfg.APIPort, err = intEnv("API_PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.SMTPPort, err = intEnv("SMTP_PORT", 2525); err != nil {
		return nil, err
	}

	// PUBSUB_DRIVER (default: local)
	cfg.PubSubDriver = os.Getenv("PUBSUB_DRIVER")
	if cfg.PubSubDriver == "" {
		cfg.PubSubDriver = "local"
	}

	if cfg.CoalesceWindow, err = durationEnv("COALESCE_WINDOW_MS", 100*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.CoalesceMaxDelay, err = durationEnv("COALESCE_MAX_DELAY_MS", time.Second); err != nil {
		return nil, err
	}
	if cfg.StreamKeepAlive, err = durationEnv("STREAM_KEEPALIVE_MS", 90*time.Second); err != nil {
		return nil, err
	}

	if cfg.MaxPathDepth, err = intEnv("MAX_PATH_DEPTH", 16); err != nil {
		return nil, err
	}
	if cfg.MaxSegmentLength, err = intEnv("MAX_SEGMENT_LENGTH", 200); err != nil {
		return nil, err
	}

	// LOG_LEVEL (default: info)
	cfg.LogLevel = os.Getenv("LOG_LEVEL")
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	// Security configuration
	cfg.APIKey = os.Getenv("API_KEY")
	cfg.AllowedOrigins = os.Getenv("ALLOWED_ORIGINS")
	cfg.AppEnv = os.Getenv("APP_ENV")
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}

	// Rate limiting configuration
	if rps := os.Getenv("RATE_LIMIT_REQUESTS"); rps != "" {
		if v, err := strconv.ParseFloat(rps, 64); err == nil {
			cfg.RateLimitRequests = v
		}
	} else {
		cfg.RateLimitRequests = 10.0
	}

	if burst := os.Getenv("RATE_LIMIT_BURST"); burst != "" {
		if v, err := strconv.Atoi(burst); err == nil {
			cfg.RateLimitBurst = v
		}
	} else {
		cfg.RateLimitBurst = 20
	}

	return cfg, nil
}

// LoadWithValidation loads and validates configuration, failing fast on errors
func LoadWithValidation() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProduction(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DatabaseURL cannot be empty")
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("APIPort must be between 1 and 65535")
	}
	if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
		return fmt.Errorf("SMTPPort must be between 1 and 65535")
	}
	if c.PubSubDriver != "local" && c.PubSubDriver != "postgres" {
		return fmt.Errorf("PubSubDriver must be 'local' or 'postgres'")
	}
	if c.CoalesceWindow <= 0 || c.CoalesceMaxDelay < c.CoalesceWindow {
		return fmt.Errorf("coalescing windows must be positive and max delay >= window")
	}
	if c.StreamKeepAlive <= 0 {
		return fmt.Errorf("StreamKeepAlive must be positive")
	}
	if c.MaxPathDepth <= 0 || c.MaxSegmentLength <= 0 {
		return fmt.Errorf("path limits must be positive")
	}
	return nil
}

// ValidateProduction performs additional validation for production environment
func (c *Config) ValidateProduction() error {
	if c.APIKey == "" {
		return fmt.Errorf("API_KEY is required in production")
	}

	if c.AllowedOrigins == "" {
		return fmt.Errorf("ALLOWED_ORIGINS is required in production")
	}

	if strings.Contains(c.AllowedOrigins, "*") {
		return fmt.Errorf("wildcard (*) origins are not allowed in production")
	}

	if strings.Contains(c.DatabaseURL, "sslmode=disable") {
		return fmt.Errorf("sslmode=disable is not allowed in production")
	}

	if c.PubSubDriver != "postgres" {
		return fmt.Errorf("PUBSUB_DRIVER must be 'postgres' in production (local driver cannot fan out across processes)")
	}

	return nil
}

// LogConfig logs configuration values (excluding secrets)
func (c *Config) LogConfig(logger *slog.Logger) {
	logger.Info("configuration loaded",
		slog.Int("api_port", c.APIPort),
		slog.Int("smtp_port", c.SMTPPort),
		slog.String("pubsub_driver", c.PubSubDriver),
		slog.Duration("coalesce_window", c.CoalesceWindow),
		slog.Duration("coalesce_max_delay", c.CoalesceMaxDelay),
		slog.Duration("stream_keepalive", c.StreamKeepAlive),
		slog.Int("max_path_depth", c.MaxPathDepth),
		slog.Int("max_segment_length", c.MaxSegmentLength),
		slog.String("log_level", c.LogLevel),
		slog.String("app_env", c.AppEnv),
		slog.Bool("api_key_set", c.APIKey != ""),
		slog.Bool("allowed_origins_set", c.AllowedOrigins != ""),
		slog.Float64("rate_limit_rps", c.RateLimitRequests),
		slog.Int("rate_limit_burst", c.RateLimitBurst),
	)
}

func intEnv(name string, def int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", name, err)
	}
	return v, nil
}

func durationEnv(name string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	ms, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be milliseconds as an integer: %w", name, err)
	}
	return time.Duration(ms) * time.Millisecond, nil
}
