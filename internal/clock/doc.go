// Package clock abstracts time for the pipeline: wall-clock reads,
// context-aware sleeping, TTL arithmetic, and retry backoff durations.
//
// Design decision: Retry timing is modeled as a pure duration function
// driven through an injectable Clock rather than recursive retry logic
// with real sleeps. This keeps every timing-dependent code path testable
// without slowing the test suite down or making it flaky.
package clock
