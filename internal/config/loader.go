package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tsubute/arcache/internal/model"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".arcache"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the YAML configuration file structure. Everything in it is
// optional; values present override the built-in defaults but are in turn
// overridden by CLI flags.
type File struct {
	// Workers overrides the concurrent job limit.
	Workers int `yaml:"workers,omitempty"`

	// MaxAttempts overrides the fetch retry budget.
	MaxAttempts int `yaml:"max_attempts,omitempty"`

	// AttemptTimeout overrides the per-attempt timeout.
	AttemptTimeout time.Duration `yaml:"attempt_timeout,omitempty"`

	// TTL overrides the default cache entry time-to-live.
	TTL time.Duration `yaml:"ttl,omitempty"`

	// AllowEmptyArchives switches the zero-entry archive policy from
	// fail to warn.
	AllowEmptyArchives bool `yaml:"allow_empty_archives,omitempty"`

	// Store configures the cache store backend.
	Store StoreFile `yaml:"store,omitempty"`

	// Archives is the descriptor list to ingest when none are given on
	// the command line.
	Archives []model.Descriptor `yaml:"archives,omitempty"`
}

// StoreFile is the store section of the configuration file.
type StoreFile struct {
	// Backend is "redis", "sqlite" or "memory".
	Backend string `yaml:"backend,omitempty"`

	// Address is the Redis server address.
	Address string `yaml:"address,omitempty"`

	// Password is the Redis AUTH password.
	Password string `yaml:"password,omitempty"`

	// DB is the Redis logical database number.
	DB int `yaml:"db,omitempty"`

	// Dir is the SQLite database directory.
	Dir string `yaml:"dir,omitempty"`
}

// Load reads a YAML configuration file.
// If the file does not exist, it returns ErrConfigNotFound. Callers decide
// whether that matters based on whether the path was explicitly given.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	return &f, nil
}

// Find searches for the configuration file in the following order:
//  1. If configPath is specified, use it directly
//  2. Look for .arcache in the current directory
//  3. Look for .arcache in the user's home directory
//
// Returns the path if found, or empty string if not found.
func Find(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		p := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		p := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// Apply merges file values into the config. Only fields the file actually
// sets are copied, so flag-provided values survive unless the caller
// applies the file after flags on purpose.
func (f *File) Apply(c *Config) {
	if f.Workers > 0 {
		c.Workers = f.Workers
	}
	if f.MaxAttempts > 0 {
		c.MaxAttempts = f.MaxAttempts
	}
	if f.AttemptTimeout > 0 {
		c.AttemptTimeout = f.AttemptTimeout
	}
	if f.TTL > 0 {
		c.TTL = f.TTL
	}
	if f.AllowEmptyArchives {
		c.AllowEmptyArchives = true
	}
	if f.Store.Backend != "" {
		c.StoreBackend = f.Store.Backend
	}
	if f.Store.Address != "" {
		c.RedisAddress = f.Store.Address
	}
	if f.Store.Password != "" {
		c.RedisPassword = f.Store.Password
	}
	if f.Store.DB != 0 {
		c.RedisDB = f.Store.DB
	}
	if f.Store.Dir != "" {
		c.DBDir = f.Store.Dir
	}
	if len(c.Descriptors) == 0 {
		c.Descriptors = f.Archives
	}
}
