package model

import (
	"errors"
	"net/url"
	"time"

	"github.com/opencontainers/go-digest"
)

// Descriptor validation errors.
var (
	// ErrEmptyURL is returned when a descriptor has no URL.
	ErrEmptyURL = errors.New("descriptor URL is empty")

	// ErrInvalidURL is returned when a descriptor URL cannot be parsed
	// or uses a scheme other than http or https.
	ErrInvalidURL = errors.New("descriptor URL is not a valid http(s) URL")

	// ErrInvalidDigest is returned when a descriptor's expected digest
	// does not parse as an algorithm-prefixed digest (e.g. "sha256:...").
	ErrInvalidDigest = errors.New("descriptor digest is malformed")
)

// Descriptor identifies a remote archive to fetch. Descriptors are supplied
// by the caller (CLI arguments or the YAML config file) and are read-only
// once created; the pipeline never mutates them.
//
// Design decision: The expected digest is optional because many upstream
// sources don't publish checksums. When present it serves two purposes:
// the Fetcher verifies downloaded bytes against it, and the Orchestrator
// uses it as the expected cache key to skip fetches that are already cached.
type Descriptor struct {
	// URL is the location of the remote archive. Must be http or https.
	URL string `json:"url" yaml:"url"`

	// Digest is the expected content digest in algorithm-prefixed form
	// (e.g. "sha256:abc..."). Empty means no verification is performed
	// and no pre-fetch cache check is possible.
	Digest string `json:"digest,omitempty" yaml:"digest,omitempty"`

	// Version is a logical version tag supplied by the caller.
	// It is carried through to cache entries for downstream consumers.
	Version string `json:"version,omitempty" yaml:"version,omitempty"`

	// TTL overrides the configured default time-to-live for entries
	// produced from this descriptor. Zero means use the default.
	TTL time.Duration `json:"ttl,omitempty" yaml:"ttl,omitempty"`

	// Headers are additional HTTP request headers (e.g. Authorization).
	// Header values are treated as secrets and are redacted from logs.
	Headers map[string]string `json:"-" yaml:"headers,omitempty"`
}

// Validate checks that the descriptor is well-formed.
// It is called for every descriptor before a batch starts; any failure
// here aborts the whole batch (ConfigurationError class).
func (d Descriptor) Validate() error {
	if d.URL == "" {
		return ErrEmptyURL
	}

	u, err := url.Parse(d.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidURL
	}

	if d.Digest != "" {
		if _, err := digest.Parse(d.Digest); err != nil {
			return ErrInvalidDigest
		}
	}

	return nil
}

// ExpectedKey returns the cache key implied by the expected digest,
// or the empty string when no digest is set.
//
// Keys are content-derived, so when the caller already knows the content
// digest, the cache key is known before any bytes are fetched. This is
// what allows the orchestrator to short-circuit already-cached jobs.
func (d Descriptor) ExpectedKey() string {
	return d.Digest
}
