// Package store persists content-addressed cache entries.
//
// The Store interface is the narrow contract the pipeline depends on:
// exists/get/put/evict plus an explicit TTL sweep. Three backends
// implement it:
//
//   - Redis: a remote key-value store reached over a persistent
//     connection; SET NX gives atomic put-if-absent and native TTL expiry.
//   - SQLite: an embedded single-file store for running without any
//     external service.
//   - Memory: a map-backed store for tests and dry runs.
//
// Keys are derived from content (sha256 digests), which makes Put
// naturally idempotent: writing byte-identical content under an existing
// key is a successful no-op, while divergent content under the same key
// is a data-integrity conflict and is rejected. Two workers racing to
// write the same derived key is expected, not exceptional, and every
// backend must stay consistent under that race.
//
// Entries are stored as a JSON envelope; payloads above a threshold are
// zstd-compressed inside the envelope. The envelope keeps all backends
// symmetric and debuggable with standard tooling.
package store
