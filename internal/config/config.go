package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Logging  LoggingConfig
	Triage   TriageConfig
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	FrontendURL     string
	Environment     string
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// For SQLite
	Path string
}

// AuthConfig contains authentication configuration
type AuthConfig struct {
	JWTSecret          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	BCryptCost         int
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json or console
}

// TriageConfig contains triage pipeline configuration
type TriageConfig struct {
	// CorrelationWindow bounds how far back the deduplicator looks for an
	// open alert with the same fingerprint.
	CorrelationWindow time.Duration
	// ClusterWindow bounds the temporal proximity used when grouping alerts
	// that share threat indicators.
	ClusterWindow time.Duration
	// MinResolutionNotes is the minimum analyst note length required to
	// resolve an alert.
	MinResolutionNotes int
	// PollInterval is the default connector polling interval.
	PollInterval time.Duration
	// PollTimeout bounds a single connector poll call.
	PollTimeout time.Duration
	// SweepSchedule is the cron spec for the periodic correlation sweep.
	SweepSchedule string
	// CriticalKeywords optionally overrides the severity tokens treated as
	// critical, per source system (comma separated env vars).
	CriticalKeywords map[string][]string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors as it's optional)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:5173"),
			Environment:     getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "sqlite"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "sentrydesk"),
			User:            getEnv("DB_USER", ""),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			Path:            getEnv("DB_PATH", "./sentrydesk.db"),
		},
		Auth: AuthConfig{
			JWTSecret:          getEnv("JWT_SECRET", ""),
			AccessTokenExpiry:  getEnvAsDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshTokenExpiry: getEnvAsDuration("JWT_REFRESH_EXPIRY", 7*24*time.Hour),
			BCryptCost:         getEnvAsInt("BCRYPT_COST", 12),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Triage: TriageConfig{
			CorrelationWindow:  getEnvAsDuration("TRIAGE_CORRELATION_WINDOW", 24*time.Hour),
			ClusterWindow:      getEnvAsDuration("TRIAGE_CLUSTER_WINDOW", 4*time.Hour),
			MinResolutionNotes: getEnvAsInt("TRIAGE_MIN_RESOLUTION_NOTES", 10),
			PollInterval:       getEnvAsDuration("CONNECTOR_POLL_INTERVAL", 30*time.Second),
			PollTimeout:        getEnvAsDuration("CONNECTOR_POLL_TIMEOUT", 10*time.Second),
			SweepSchedule:      getEnv("TRIAGE_SWEEP_SCHEDULE", "@every 5m"),
			CriticalKeywords:   criticalKeywordsFromEnv(),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if c.Triage.CorrelationWindow <= 0 {
		return fmt.Errorf("correlation window must be positive")
	}

	if c.Triage.MinResolutionNotes < 1 {
		return fmt.Errorf("minimum resolution note length must be positive")
	}

	return nil
}

// criticalKeywordsFromEnv reads per-source severity keyword overrides, e.g.
// TRIAGE_CRITICAL_KEYWORDS_EMAIL="breach,compromise".
func criticalKeywordsFromEnv() map[string][]string {
	out := map[string][]string{}
	for _, source := range []string{"email", "edr", "firewall", "siem"} {
		raw := os.Getenv("TRIAGE_CRITICAL_KEYWORDS_" + strings.ToUpper(source))
		if raw == "" {
			continue
		}
		var words []string
		for _, w := range strings.Split(raw, ",") {
			if w = strings.TrimSpace(w); w != "" {
				words = append(words, w)
			}
		}
		if len(words) > 0 {
			out[source] = words
		}
	}
	return out
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
