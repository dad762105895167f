package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// envPrefix namespaces every environment override
const envPrefix = "SQLQUEST_"

// Load reads ~/.sqlquest/config.yaml, then a .env file in the working
// directory if present, then SQLQUEST_* environment overrides.
func Load() (*LocalConfig, error) {
	cfg, err := LoadLocalConfig()
	if err != nil {
		return nil, err
	}
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", "error", err)
	}
	ApplyEnv(cfg)
	return cfg, cfg.Validate()
}

// ApplyEnv overrides cfg with SQLQUEST_* environment variables
func ApplyEnv(cfg *LocalConfig) {
	cfg.Daemon.Port = getEnvInt("DAEMON_PORT", cfg.Daemon.Port)
	cfg.Daemon.Bind = getEnv("DAEMON_BIND", cfg.Daemon.Bind)
	cfg.Daemon.LogLevel = getEnv("LOG_LEVEL", cfg.Daemon.LogLevel)
	cfg.Engine.QueryTimeout = getEnvDuration("QUERY_TIMEOUT", cfg.Engine.QueryTimeout)
	cfg.Engine.MaxRows = getEnvInt("MAX_ROWS", cfg.Engine.MaxRows)
	cfg.Oracle.MaxConcurrent = getEnvInt("MAX_CONCURRENT", cfg.Oracle.MaxConcurrent)
	cfg.Practice.LearnerID = getEnv("LEARNER_ID", cfg.Practice.LearnerID)
	cfg.Practice.SubmissionsPerMinute = getEnvInt("SUBMISSIONS_PER_MINUTE", cfg.Practice.SubmissionsPerMinute)
	cfg.Storage.Path = getEnv("STORAGE_PATH", cfg.Storage.Path)
	cfg.Storage.HistoryRetention = getEnvDuration("HISTORY_RETENTION", cfg.Storage.HistoryRetention)
}

// Validate rejects settings the services cannot run with
func (c *LocalConfig) Validate() error {
	if c.Daemon.Port <= 0 || c.Daemon.Port > 65535 {
		return fmt.Errorf("daemon.port %d out of range", c.Daemon.Port)
	}
	if _, err := ParseLevel(c.Daemon.LogLevel); err != nil {
		return err
	}
	if c.Engine.QueryTimeout <= 0 {
		return fmt.Errorf("engine.query_timeout must be positive")
	}
	if c.Engine.MaxRows <= 0 {
		return fmt.Errorf("engine.max_rows must be positive")
	}
	if c.Oracle.MaxConcurrent <= 0 {
		return fmt.Errorf("oracle.max_concurrent must be positive")
	}
	if c.Practice.SubmissionsPerMinute <= 0 {
		return fmt.Errorf("practice.submissions_per_minute must be positive")
	}
	if c.Storage.HistoryRetention < 0 {
		return fmt.Errorf("storage.history_retention must not be negative")
	}
	return nil
}

// Addr returns the daemon listen address
func (c *LocalConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Daemon.Bind, c.Daemon.Port)
}

// ParseLevel maps a config log level to slog
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(envPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(envPrefix + key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		slog.Warn("ignoring invalid integer", "key", envPrefix+key, "value", value)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(envPrefix + key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		slog.Warn("ignoring invalid duration", "key", envPrefix+key, "value", value)
	}
	return defaultValue
}
