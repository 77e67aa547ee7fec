package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tsubute/arcache/internal/model"
)

// connectTimeout bounds the connection check at store construction.
const connectTimeout = 5 * time.Second

// keyPrefix namespaces arcache entries inside a possibly-shared Redis.
const keyPrefix = "arcache:entry:"

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// Address is the server address in "host:port" form.
	Address string

	// Password is the AUTH password, empty for none.
	Password string

	// DB is the logical database number.
	DB int
}

// Redis is a Store backed by a Redis server over a persistent connection.
//
// Design decision: Put relies on SET NX for atomic put-if-absent rather
// than a check-then-write sequence. Two workers racing to write the same
// content-derived key is expected; SET NX guarantees exactly one wins and
// the loser then verifies the stored content matches its own.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to Redis and verifies the connection with a ping.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close() //nolint:errcheck // connection failed anyway
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Redis{client: client}, nil
}

// Exists implements Store.
func (r *Redis) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

// Get implements Store.
func (r *Redis) Get(ctx context.Context, key string) (*model.CacheEntry, error) {
	data, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return decodeEntry(data)
}

// Put implements Store. The entry's TTL maps to native Redis expiry;
// a zero TTL stores the entry without expiry.
func (r *Redis) Put(ctx context.Context, entry *model.CacheEntry) (bool, error) {
	data, err := encodeEntry(entry)
	if err != nil {
		return false, err
	}

	created, err := r.client.SetNX(ctx, keyPrefix+entry.Key, data, max(entry.TTL, 0)).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	if created {
		return true, nil
	}

	// Lost the race or the key predates this batch: confirm the stored
	// content is the same before calling it a dedup hit.
	existing, err := r.Get(ctx, entry.Key)
	if errors.Is(err, ErrNotFound) {
		// Expired between SETNX and GET; treat as transient and let the
		// caller's retry take another pass.
		return false, fmt.Errorf("redis put: entry vanished during write: %w", err)
	}
	if err != nil {
		return false, err
	}
	if !samePayload(existing, entry) {
		return false, fmt.Errorf("%w: key %s", ErrConflict, entry.Key)
	}
	return false, nil
}

// Evict implements Store.
func (r *Redis) Evict(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Sweep implements Store. Redis expires entries natively via the TTL set
// at Put time, so there is nothing to do here.
func (r *Redis) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}

// Close implements Store.
func (r *Redis) Close() error {
	return r.client.Close()
}
