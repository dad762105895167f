package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// LocalConfig holds configuration for the CLI, daemon and MCP server
type LocalConfig struct {
	Daemon   DaemonConfig   `yaml:"daemon"`
	Engine   EngineConfig   `yaml:"engine"`
	Oracle   OracleConfig   `yaml:"oracle"`
	Practice PracticeConfig `yaml:"practice"`
	Storage  StorageConfig  `yaml:"storage"`
}

// DaemonConfig holds daemon server settings
type DaemonConfig struct {
	Port     int    `yaml:"port"`
	Bind     string `yaml:"bind"`
	LogLevel string `yaml:"log_level"`
}

// EngineConfig bounds learner query execution
type EngineConfig struct {
	QueryTimeout time.Duration `yaml:"query_timeout"`
	MaxRows      int           `yaml:"max_rows"`
}

// OracleConfig bounds concurrent checks
type OracleConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
}

// PracticeConfig holds learner session settings
type PracticeConfig struct {
	LearnerID            string `yaml:"learner_id"`
	SubmissionsPerMinute int    `yaml:"submissions_per_minute"`
}

// StorageConfig locates the progress database. An empty path means
// ~/.sqlquest/progress.db; ":memory:" keeps progress in memory only.
// Submissions older than HistoryRetention are pruned on open; zero keeps
// them forever.
type StorageConfig struct {
	Path             string        `yaml:"path"`
	HistoryRetention time.Duration `yaml:"history_retention"`
}

// Dir returns the path to ~/.sqlquest
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".sqlquest"), nil
}

// EnsureDir creates ~/.sqlquest and its subdirectories if they don't exist
func EnsureDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}

	for _, subdir := range []string{"", "logs"} {
		path := filepath.Join(dir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", fmt.Errorf("create dir %s: %w", path, err)
		}
	}

	return dir, nil
}

// DefaultLocalConfig returns sensible defaults for local mode
func DefaultLocalConfig() *LocalConfig {
	return &LocalConfig{
		Daemon: DaemonConfig{
			Port:     7433,
			Bind:     "127.0.0.1",
			LogLevel: "info",
		},
		Engine: EngineConfig{
			QueryTimeout: 3 * time.Second,
			MaxRows:      10000,
		},
		Oracle: OracleConfig{
			MaxConcurrent: 4,
		},
		Practice: PracticeConfig{
			LearnerID:            "local",
			SubmissionsPerMinute: 30,
		},
		Storage: StorageConfig{
			HistoryRetention: 90 * 24 * time.Hour,
		},
	}
}

// LoadLocalConfig loads ~/.sqlquest/config.yaml over the defaults
func LoadLocalConfig() (*LocalConfig, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return LoadLocalConfigFrom(filepath.Join(dir, "config.yaml"))
}

// LoadLocalConfigFrom loads a config file over the defaults. A missing file
// yields the defaults.
func LoadLocalConfigFrom(path string) (*LocalConfig, error) {
	cfg := DefaultLocalConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SaveLocalConfig saves configuration to ~/.sqlquest/config.yaml
func SaveLocalConfig(cfg *LocalConfig) error {
	dir, err := EnsureDir()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ProgressPath resolves where progress is stored
func (c *LocalConfig) ProgressPath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "progress.db"), nil
}

// LogPath returns the rotating log file location
func LogPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs", "sqlquest.log"), nil
}
