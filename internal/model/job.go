package model

import (
	"time"

	"github.com/google/uuid"
)

// JobState tracks a job through the fetch/extract/store state machine.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons. The String() method provides human-readable
// output for logs and reports.
type JobState int

const (
	// StatePending means the job has been created but not dispatched.
	StatePending JobState = iota

	// StateFetching means a worker is downloading the archive.
	StateFetching

	// StateExtracting means the archive is being parsed.
	StateExtracting

	// StateStoring means extracted entries are being written to the store.
	StateStoring

	// StateDone means every entry was persisted or recognized as
	// already cached. Terminal.
	StateDone

	// StateSkipped means the descriptor's expected key was already in the
	// store, so the job short-circuited without any network work. Terminal.
	StateSkipped

	// StateFailed means the job hit a fatal error or exhausted its
	// retries. Terminal. The failure reason is recorded on the job.
	StateFailed

	// StateCancelled means the batch was cancelled before this job
	// started. Terminal.
	StateCancelled
)

// String returns a human-readable representation of the job state.
func (s JobState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateFetching:
		return "fetching"
	case StateExtracting:
		return "extracting"
	case StateStoring:
		return "storing"
	case StateDone:
		return "done"
	case StateSkipped:
		return "skipped"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is one of the terminal states.
func (s JobState) Terminal() bool {
	switch s {
	case StateDone, StateSkipped, StateFailed, StateCancelled:
		return true
	default:
		return false
	}
}

// FailureKind classifies terminal job failures for observability and
// out-of-band retry decisions. The taxonomy follows the error handling
// design: transient errors are retried and escalate only after the
// retry budget is spent; the rest fail immediately.
type FailureKind string

const (
	// FailTransient means retries were exhausted on a transient error
	// (timeout, connection reset, 5xx, transient store unavailability).
	FailTransient FailureKind = "transient-exhausted"

	// FailPermanentFetch means a non-retryable fetch error (4xx response,
	// malformed URI).
	FailPermanentFetch FailureKind = "permanent-fetch"

	// FailVerification means the downloaded bytes did not match the
	// descriptor's expected digest. Never retried: a byte-identical
	// re-fetch cannot fix a stale expectation.
	FailVerification FailureKind = "digest-mismatch"

	// FailCorruptArchive means the archive structure was invalid,
	// truncated, or declared entry sizes above the sanity ceiling.
	FailCorruptArchive FailureKind = "corrupt-archive"

	// FailEmptyArchive means the archive yielded zero entries and the
	// empty-archive policy treats that as failure.
	FailEmptyArchive FailureKind = "empty-archive"

	// FailStore means the store rejected writes after its own bounded retry.
	FailStore FailureKind = "store"

	// FailStoreConflict means a content-addressed key mapped to divergent
	// content: a data-integrity error, surfaced prominently.
	FailStoreConflict FailureKind = "store-conflict"
)

// Job is one unit of pipeline work wrapping a single descriptor.
// A job is owned exclusively by the orchestrator goroutine processing it
// and is never shared between jobs; no internal locking is needed.
type Job struct {
	// ID uniquely identifies the job within a batch, for log correlation.
	ID string

	// Descriptor is the resource this job fetches. Read-only.
	Descriptor Descriptor

	// State is the job's current position in the state machine.
	State JobState

	// Attempts counts fetch attempts made (including the first).
	Attempts int

	// CreatedAt is when the job was created at batch start.
	CreatedAt time.Time

	// LastAttempt is when the job was last dispatched to a worker.
	LastAttempt time.Time

	// EntriesStored counts entries newly written to the store.
	EntriesStored int

	// EntriesDeduped counts entries recognized as already cached.
	EntriesDeduped int

	// FailKind classifies the failure when State is StateFailed.
	FailKind FailureKind

	// Err holds the error that drove the job to StateFailed.
	Err error
}

// NewJob creates a pending job for the given descriptor.
func NewJob(d Descriptor, now time.Time) *Job {
	return &Job{
		ID:         uuid.NewString(),
		Descriptor: d,
		State:      StatePending,
		CreatedAt:  now,
	}
}

// Fail moves the job to the terminal failed state with a reason.
func (j *Job) Fail(kind FailureKind, err error) {
	j.State = StateFailed
	j.FailKind = kind
	j.Err = err
}
