// Package config handles configuration loading and validation for gitsync.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/gitsync/internal/core/task"
)

// Config holds the application configuration.
type Config struct {
	GitPath     string         `yaml:"git_path"`
	Branch      string         `yaml:"branch"`
	Remote      string         `yaml:"remote"`
	Workers     int            `yaml:"workers"`
	WatchConfig *bool          `yaml:"watch_config"` // nil = enabled
	Notify      NotifyConfig   `yaml:"notify"`
	Database    DatabaseConfig `yaml:"database"`
	Tasks       []TaskConfig   `yaml:"tasks"`
	DataDir     string         `yaml:"-"` // set by caller, not from config file
}

// TaskConfig is one task record as written in the config file.
type TaskConfig struct {
	Name              string   `yaml:"name"`
	Path              string   `yaml:"path"`
	Repo              string   `yaml:"repo"`
	Cron              string   `yaml:"cron"`
	Ignore            []string `yaml:"ignore"`
	LFS               []string `yaml:"lfs"`
	NotifyWhenSuccess bool     `yaml:"notify_when_success"`
}

// NotifyConfig controls notification delivery.
type NotifyConfig struct {
	// Command is an optional shell template run for every notification.
	// Available fields: .Title .Message .Task .Level
	Command string `yaml:"command"`
	// Store persists notifications to the database. nil = enabled.
	Store *bool `yaml:"store"`
}

// DatabaseConfig holds SQLite connection settings.
type DatabaseConfig struct {
	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`
	BusyTimeout  int `yaml:"busy_timeout"` // milliseconds
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		GitPath: "git",
		Branch:  "master",
		Remote:  "origin",
		Workers: 4,
		Database: DatabaseConfig{
			MaxOpenConns: 2,
			MaxIdleConns: 2,
			BusyTimeout:  5000,
		},
	}
}

// Load reads configuration from the given path and validates it.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg, err := Read(configPath, dataDir)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Read parses the config file and applies defaults without validating.
func Read(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.GitPath == "" {
		c.GitPath = defaults.GitPath
	}
	if c.Branch == "" {
		c.Branch = defaults.Branch
	}
	if c.Remote == "" {
		c.Remote = defaults.Remote
	}
	if c.Workers == 0 {
		c.Workers = defaults.Workers
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = defaults.Database.BusyTimeout
	}
	for i := range c.Tasks {
		if c.Tasks[i].Path != "" {
			c.Tasks[i].Path = filepath.Clean(c.Tasks[i].Path)
		}
	}
}

// WatchEnabled reports whether the config file should be watched for changes.
func (c *Config) WatchEnabled() bool {
	return c.WatchConfig == nil || *c.WatchConfig
}

// StoreNotifications reports whether notifications are persisted.
func (c *Config) StoreNotifications() bool {
	return c.Notify.Store == nil || *c.Notify.Store
}

// TaskDefinitions returns the task definitions in file order.
func (c *Config) TaskDefinitions() []task.Definition {
	defs := make([]task.Definition, 0, len(c.Tasks))
	for _, t := range c.Tasks {
		defs = append(defs, t.Definition())
	}
	return defs
}

// Task returns the definition for the named task.
func (c *Config) Task(name string) (task.Definition, bool) {
	for _, t := range c.Tasks {
		if t.Name == name {
			return t.Definition(), true
		}
	}
	return task.Definition{}, false
}

// Definition converts the record into a task definition.
func (t TaskConfig) Definition() task.Definition {
	return task.Definition{
		Name:            t.Name,
		LocalPath:       t.Path,
		RemoteURL:       t.Repo,
		Cron:            t.Cron,
		IgnorePatterns:  task.NewPatternSet(t.Ignore...),
		LFSPatterns:     task.NewPatternSet(t.LFS...),
		NotifyOnSuccess: t.NotifyWhenSuccess,
	}
}
