package model

import (
	"time"

	"github.com/opencontainers/go-digest"
)

// ArchiveEntry is a transient in-memory record produced by the extractor:
// one named file pulled out of a fetched archive. It is never persisted
// directly; the store write path converts it into a CacheEntry.
type ArchiveEntry struct {
	// Name is the entry's path inside the archive.
	Name string

	// Length is the uncompressed size in bytes, as verified after extraction.
	Length int64

	// Data is the uncompressed content.
	Data []byte
}

// CacheEntry is the persisted unit: a content-addressed record with
// enough metadata to answer "where did this come from and when does
// it expire" without consulting any other state.
type CacheEntry struct {
	// Key is the content-addressed cache key, derived deterministically
	// from Payload. Two fetches of identical content collapse to one entry.
	Key string `json:"key"`

	// Name is the archive entry name this content was extracted from.
	Name string `json:"name"`

	// Payload is the raw entry content.
	Payload []byte `json:"payload"`

	// Source is the descriptor URL the content was fetched from.
	Source string `json:"source"`

	// Version is the descriptor's logical version tag.
	Version string `json:"version,omitempty"`

	// FetchedAt is when the content was downloaded.
	FetchedAt time.Time `json:"fetched_at"`

	// TTL is the entry's time-to-live. Zero means the entry never expires.
	TTL time.Duration `json:"ttl,omitempty"`
}

// DeriveKey computes the content-addressed cache key for a payload.
// We use go-digest's canonical algorithm (sha256) so keys are stable,
// algorithm-prefixed, and comparable across store backends.
func DeriveKey(payload []byte) string {
	return digest.FromBytes(payload).String()
}

// NewCacheEntry builds a CacheEntry from an extracted archive entry,
// deriving the key from the content.
func NewCacheEntry(ae *ArchiveEntry, d Descriptor, fetchedAt time.Time, ttl time.Duration) *CacheEntry {
	if d.TTL > 0 {
		ttl = d.TTL
	}
	return &CacheEntry{
		Key:       DeriveKey(ae.Data),
		Name:      ae.Name,
		Payload:   ae.Data,
		Source:    d.URL,
		Version:   d.Version,
		FetchedAt: fetchedAt,
		TTL:       ttl,
	}
}

// ExpiresAt returns the entry's expiry time, or the zero time when the
// entry never expires.
func (e *CacheEntry) ExpiresAt() time.Time {
	if e.TTL <= 0 {
		return time.Time{}
	}
	return e.FetchedAt.Add(e.TTL)
}

// Expired reports whether the entry is past its TTL at the given instant.
func (e *CacheEntry) Expired(now time.Time) bool {
	exp := e.ExpiresAt()
	return !exp.IsZero() && !now.Before(exp)
}
