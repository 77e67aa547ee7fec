package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/tsubute/arcache/internal/model"
)

// Default configuration values.
// These are chosen to be polite to remote endpoints while keeping a
// batch of a few hundred archives moving.
const (
	// DefaultWorkers bounds the number of concurrently in-flight jobs.
	// Eight balances throughput against pressure on the remote endpoint
	// and local memory (each job holds one archive in memory).
	DefaultWorkers = 8

	// DefaultMaxAttempts is the fetch retry budget, including the first
	// attempt. Three attempts recover from most transient blips without
	// hammering an endpoint that is genuinely down.
	DefaultMaxAttempts = 3

	// DefaultAttemptTimeout is the per-attempt request timeout.
	// It bounds a single HTTP round trip, not the whole job.
	DefaultAttemptTimeout = 60 * time.Second

	// DefaultTTL is the default cache entry time-to-live.
	// 24 hours suits daily-refresh ingestion; zero would mean never expire.
	DefaultTTL = 24 * time.Hour

	// DefaultMaxBodySize caps the downloaded archive size.
	// 256MB accommodates large data archives while bounding worker memory.
	DefaultMaxBodySize = 256 * 1024 * 1024

	// DefaultMaxEntrySize is the sanity ceiling on a single archive
	// entry's declared uncompressed size. Entries declaring more are
	// rejected before decompression (bomb protection).
	DefaultMaxEntrySize = 64 * 1024 * 1024

	// DefaultUserAgent identifies arcache in HTTP requests so operators
	// can recognize ingestion traffic in their logs.
	DefaultUserAgent = "arcache/1.0 (+https://github.com/tsubute/arcache)"

	// DefaultStoreBackend is the store used when none is configured.
	// SQLite needs no external service, which makes the default usable
	// out of the box.
	DefaultStoreBackend = "sqlite"

	// DefaultRedisAddress is the conventional local Redis address.
	DefaultRedisAddress = "localhost:6379"

	// AppName is the application name used for XDG directory paths.
	AppName = "arcache"
)

// Config holds all configuration options for a batch run.
//
// Design decision: We use a single flat struct instead of nested structs
// for simplicity. The number of options is manageable, and nesting would
// add complexity without significant benefit.
type Config struct {
	// Descriptors is the list of archives to ingest. Populated from
	// positional CLI arguments and/or the config file.
	Descriptors []model.Descriptor

	// Workers is the maximum number of concurrently in-flight jobs.
	Workers int

	// MaxAttempts is the fetch retry budget per job, including the
	// first attempt. Only transient failures consume retries.
	MaxAttempts int

	// AttemptTimeout is the timeout applied to each individual fetch
	// attempt.
	AttemptTimeout time.Duration

	// TTL is the default time-to-live for new cache entries. Individual
	// descriptors may override it. Zero means entries never expire.
	TTL time.Duration

	// MaxBodySize is the maximum archive size to download, in bytes.
	MaxBodySize int64

	// MaxEntrySize is the sanity ceiling on a single entry's declared
	// uncompressed size, in bytes.
	MaxEntrySize int64

	// AllowEmptyArchives treats an archive that yields zero entries as
	// success-with-warning instead of failure. An empty result is
	// suspicious, so the default is to fail the job.
	AllowEmptyArchives bool

	// SweepBefore runs a TTL eviction pass over the store before the
	// batch starts.
	SweepBefore bool

	// StoreBackend selects the cache store: "redis", "sqlite" or "memory".
	StoreBackend string

	// RedisAddress is the Redis server address in "host:port" form.
	RedisAddress string

	// RedisPassword is the Redis AUTH password, if any.
	RedisPassword string

	// RedisDB is the Redis logical database number.
	RedisDB int

	// DBDir is the directory holding the SQLite store file.
	// Defaults to the XDG data directory.
	DBDir string

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// Verbose enables debug-level log output.
	Verbose bool

	// JSONReport selects JSON result output. Mutually exclusive with
	// MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown result output. Mutually exclusive
	// with JSONReport.
	MarkdownReport bool

	// ReportFile writes the result report to a file instead of stdout.
	ReportFile string

	// ConfigFilePath is an explicit config file path. Empty means search
	// the default locations.
	ConfigFilePath string
}

// New creates a Config with default values.
//
// Design decision: We use a constructor instead of relying on zero values
// because most defaults are non-zero. This also documents the defaults.
func New() *Config {
	return &Config{
		Workers:        DefaultWorkers,
		MaxAttempts:    DefaultMaxAttempts,
		AttemptTimeout: DefaultAttemptTimeout,
		TTL:            DefaultTTL,
		MaxBodySize:    DefaultMaxBodySize,
		MaxEntrySize:   DefaultMaxEntrySize,
		StoreBackend:   DefaultStoreBackend,
		RedisAddress:   DefaultRedisAddress,
		UserAgent:      DefaultUserAgent,
		DBDir:          XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for arcache.
// On Linux: ~/.local/share/arcache
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for arcache.
// On Linux: ~/.config/arcache
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks that the configuration is coherent and every descriptor
// is well-formed. It returns the first problem found; fixing one error
// often makes the rest irrelevant.
//
// Any failure here is a ConfigurationError: the batch is aborted before
// any job starts, unlike per-job errors which are isolated.
func (c *Config) Validate() error {
	if len(c.Descriptors) == 0 {
		return ErrNoDescriptors
	}
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.MaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}
	if c.AttemptTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.TTL < 0 {
		return ErrInvalidTTL
	}
	if c.MaxBodySize <= 0 {
		return ErrInvalidMaxBodySize
	}
	if c.MaxEntrySize <= 0 {
		return ErrInvalidMaxEntrySize
	}

	switch c.StoreBackend {
	case "redis", "sqlite", "memory":
	default:
		return ErrUnknownBackend
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	for i, d := range c.Descriptors {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("descriptor %d (%q): %w", i, d.URL, err)
		}
	}

	return nil
}
