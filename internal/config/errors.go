package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoDescriptors is returned when the batch has nothing to fetch.
	// Descriptors come from positional URL arguments or the config file.
	ErrNoDescriptors = errors.New("no descriptors specified: provide archive URLs or configure them in the config file")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	// Zero workers would mean no job is ever dispatched.
	ErrInvalidWorkers = errors.New("invalid worker count: must be positive")

	// ErrInvalidMaxAttempts is returned when the retry budget is not positive.
	// At least one attempt is required for any fetch to happen.
	ErrInvalidMaxAttempts = errors.New("invalid max attempts: must be positive")

	// ErrInvalidTimeout is returned when the per-attempt timeout is not
	// positive. A zero timeout would fail every request immediately.
	ErrInvalidTimeout = errors.New("invalid attempt timeout: must be positive")

	// ErrInvalidTTL is returned when the default TTL is negative.
	// Zero is valid and means entries never expire.
	ErrInvalidTTL = errors.New("invalid TTL: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the response size cap is not
	// positive.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be positive")

	// ErrInvalidMaxEntrySize is returned when the archive entry sanity
	// ceiling is not positive. The ceiling is the decompression-bomb
	// defense and cannot be disabled.
	ErrInvalidMaxEntrySize = errors.New("invalid max entry size: must be positive")

	// ErrUnknownBackend is returned when the store backend name is not
	// one of "redis", "sqlite", or "memory".
	ErrUnknownBackend = errors.New("unknown store backend: must be redis, sqlite, or memory")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
