// Package fetch retrieves remote archive bytes with bounded retry,
// exponential backoff, and optional content-digest verification.
//
// Failures are classified into transient (network errors, 5xx responses:
// retried with backoff up to the configured budget) and permanent
// (4xx responses, malformed URLs, digest mismatches: failed immediately).
// A digest mismatch is never retried because re-fetching byte-identical
// content cannot satisfy a stale expectation.
//
// Backoff timing goes through the clock abstraction, so retry schedules
// are tested with a fake clock rather than real sleeps.
package fetch
