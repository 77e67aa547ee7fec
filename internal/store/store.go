package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/tsubute/arcache/internal/model"
)

// Store is the narrow persistence contract the pipeline depends on.
// Implementations must be safe for concurrent use: Exists and Get are
// called freely from parallel workers, and concurrent Puts of the same
// key must resolve consistently (idempotent success for identical
// content, ErrConflict for divergent content).
type Store interface {
	// Exists reports whether an entry is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// Get returns the entry stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) (*model.CacheEntry, error)

	// Put stores the entry under its content-derived key. It returns
	// true when the entry was newly written, false when byte-identical
	// content was already present (a successful no-op), and ErrConflict
	// when the key maps to different content.
	Put(ctx context.Context, entry *model.CacheEntry) (bool, error)

	// Evict removes the entry under key. Evicting a missing key is not
	// an error.
	Evict(ctx context.Context, key string) error

	// Sweep removes entries whose TTL has expired as of now, returning
	// how many were evicted. Backends with native expiry may return 0.
	Sweep(ctx context.Context, now time.Time) (int, error)

	// Close releases the backend connection or file handle.
	Close() error
}

// compressThreshold is the payload size above which envelopes are
// zstd-compressed. Small payloads aren't worth the CPU or the header.
const compressThreshold = 4 * 1024

// Encoding names for the envelope payload.
const (
	encodingRaw  = "raw"
	encodingZstd = "zstd"
)

// Shared zstd coder instances. EncodeAll/DecodeAll on these are safe for
// concurrent use.
var (
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
)

// envelope is the serialized form of a cache entry, shared by every
// backend so entries written through one backend are readable through
// another pointed at the same data.
type envelope struct {
	Key       string        `json:"key"`
	Name      string        `json:"name"`
	Source    string        `json:"source"`
	Version   string        `json:"version,omitempty"`
	FetchedAt time.Time     `json:"fetched_at"`
	TTL       time.Duration `json:"ttl,omitempty"`
	Encoding  string        `json:"encoding"`
	Payload   []byte        `json:"payload"`
}

// encodeEntry serializes an entry to its envelope bytes, compressing the
// payload when that actually saves space.
func encodeEntry(e *model.CacheEntry) ([]byte, error) {
	env := envelope{
		Key:       e.Key,
		Name:      e.Name,
		Source:    e.Source,
		Version:   e.Version,
		FetchedAt: e.FetchedAt,
		TTL:       e.TTL,
		Encoding:  encodingRaw,
		Payload:   e.Payload,
	}

	if len(e.Payload) > compressThreshold {
		compressed := zstdEncoder.EncodeAll(e.Payload, nil)
		if len(compressed) < len(e.Payload) {
			env.Encoding = encodingZstd
			env.Payload = compressed
		}
	}

	return json.Marshal(env)
}

// decodeEntry deserializes envelope bytes back into a cache entry.
func decodeEntry(data []byte) (*model.CacheEntry, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode cache envelope: %w", err)
	}

	payload := env.Payload
	switch env.Encoding {
	case encodingRaw, "":
	case encodingZstd:
		var err error
		payload, err = zstdDecoder.DecodeAll(env.Payload, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress cache payload: %w", err)
		}
	default:
		return nil, fmt.Errorf("decode cache envelope: unknown encoding %q", env.Encoding)
	}

	return &model.CacheEntry{
		Key:       env.Key,
		Name:      env.Name,
		Payload:   payload,
		Source:    env.Source,
		Version:   env.Version,
		FetchedAt: env.FetchedAt,
		TTL:       env.TTL,
	}, nil
}

// samePayload reports whether an entry's payload is byte-identical to an
// already-stored entry, comparing content digests rather than bytes so
// the comparison cost doesn't depend on payload size twice.
func samePayload(existing *model.CacheEntry, entry *model.CacheEntry) bool {
	return model.DeriveKey(existing.Payload) == model.DeriveKey(entry.Payload)
}
