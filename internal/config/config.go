package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

const (
	DefaultMaxEntries     = 10000
	DefaultExportDir      = "./exports"
	DefaultAutoExportStep = 100
	DefaultSyncInterval   = 30 * time.Second
	DefaultServerAddr     = ":8080"
)

type Config struct {
	Recorder   RecorderConfig   `yaml:"recorder"`
	Export     ExportConfig     `yaml:"export"`
	AutoExport AutoExportConfig `yaml:"auto_export"`
	Sync       SyncConfig       `yaml:"sync"`
	Server     ServerConfig     `yaml:"server"`
}

// RecorderConfig holds configuration for the in-memory audit trail.
type RecorderConfig struct {
	// MaxEntries bounds the trail, the oldest entries are evicted first.
	MaxEntries int `yaml:"max_entries"`

	// RecordQueries records every read of the trail as a system entry.
	RecordQueries bool `yaml:"record_queries"`
}

// ExportConfig selects where snapshots of the trail are written to.
type ExportConfig struct {
	Type string `yaml:"type"` // e.g., "file", "jsonl", "redis", "memory", "none"

	// Dir is the target directory of the "file" exporter.
	Dir string `yaml:"dir"`

	// Path is the target file of the "jsonl" exporter.
	Path string `yaml:"path"`

	Redis *RedisExportConfig `yaml:"redis,omitempty"`
}

type RedisExportConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
	MaxLen   int64  `yaml:"max_len"`
}

// AutoExportConfig controls exports triggered by the trail itself.
type AutoExportConfig struct {
	Enabled bool `yaml:"enabled"`

	// Every exports a snapshot after this many appended entries.
	Every int `yaml:"every"`

	// Interval additionally schedules a periodic export task (server only).
	// Zero disables the periodic export.
	Interval time.Duration `yaml:"interval"`
}

// SyncConfig controls the scheduled cipher sync cycles.
type SyncConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`

	// Scenario is an optional path to a scenario file.
	// If empty, the built-in scenario is used.
	Scenario string `yaml:"scenario"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`

	// SigningKey is the HMAC key admin tokens are verified with.
	SigningKey string `yaml:"signing_key"`
}

// Default returns a configuration suitable for local runs.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// Load reads and parses the configuration file at the given path.
// It returns a Config struct or an error if loading/parsing/validation fails.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config file: %w", err)
	}
	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Recorder.MaxEntries == 0 {
		c.Recorder.MaxEntries = DefaultMaxEntries
	}
	if c.Export.Type == "" {
		c.Export.Type = "file"
	}
	if c.Export.Type == "file" && c.Export.Dir == "" {
		c.Export.Dir = DefaultExportDir
	}
	if c.AutoExport.Every == 0 {
		c.AutoExport.Every = DefaultAutoExportStep
	}
	if c.Sync.Interval == 0 {
		c.Sync.Interval = DefaultSyncInterval
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
}

func (c *Config) Validate() error {
	if c.Recorder.MaxEntries < 1 {
		return fmt.Errorf("recorder.max_entries must be at least 1, got %d", c.Recorder.MaxEntries)
	}
	if err := c.Export.Validate(); err != nil {
		return fmt.Errorf("validating export: %w", err)
	}
	if c.AutoExport.Every < 1 {
		return fmt.Errorf("auto_export.every must be at least 1, got %d", c.AutoExport.Every)
	}
	if c.AutoExport.Interval < 0 {
		return fmt.Errorf("auto_export.interval must not be negative")
	}
	if c.Sync.Interval < 0 {
		return fmt.Errorf("sync.interval must not be negative")
	}
	return nil
}

func (e *ExportConfig) Validate() error {
	switch e.Type {
	case "file":
		if e.Dir == "" {
			return fmt.Errorf("dir is required for file exports")
		}
	case "jsonl":
		if e.Path == "" {
			return fmt.Errorf("path is required for jsonl exports")
		}
	case "redis":
		if e.Redis == nil || e.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required for redis exports")
		}
		if e.Redis.MaxLen < 0 {
			return fmt.Errorf("redis.max_len must not be negative")
		}
	case "memory", "none":
	default:
		return fmt.Errorf("unknown export type '%s'", e.Type)
	}
	return nil
}
