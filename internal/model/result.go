package model

import "time"

// Failure describes one failed job in a batch with enough detail to
// retry or diagnose out of band.
type Failure struct {
	// URL identifies the descriptor that failed.
	URL string `json:"url"`

	// Kind is the failure classification.
	Kind FailureKind `json:"kind"`

	// Message is the underlying error text.
	Message string `json:"message"`

	// Attempts is how many fetch attempts were made before failing.
	Attempts int `json:"attempts"`
}

// Result is the aggregate outcome of one batch run. It is produced once
// per Run invocation and always completes, barring configuration errors:
// individual job failures are collected here rather than aborting the batch.
type Result struct {
	// Total is the number of descriptors in the batch.
	Total int `json:"total"`

	// Succeeded counts jobs that reached Done.
	Succeeded int `json:"succeeded"`

	// Skipped counts jobs short-circuited because their expected key
	// was already cached.
	Skipped int `json:"skipped"`

	// Failed counts jobs that reached Failed.
	Failed int `json:"failed"`

	// Cancelled counts jobs never started because the batch was cancelled.
	Cancelled int `json:"cancelled"`

	// EntriesStored counts cache entries newly written across all jobs.
	EntriesStored int `json:"entries_stored"`

	// EntriesDeduped counts entries recognized as already cached
	// (identical content under the same key).
	EntriesDeduped int `json:"entries_deduped"`

	// Failures lists every failed job, in descriptor order.
	Failures []Failure `json:"failures,omitempty"`

	// StartedAt is when the batch began.
	StartedAt time.Time `json:"started_at"`

	// Elapsed is the wall-clock batch duration.
	Elapsed time.Duration `json:"elapsed"`
}

// NewResult aggregates a slice of terminal jobs into a Result.
// Jobs are walked in input order, so the aggregation is deterministic
// for a given descriptor set and cache state regardless of how the
// jobs interleaved at run time.
func NewResult(jobs []*Job, startedAt time.Time, elapsed time.Duration) *Result {
	r := &Result{
		Total:     len(jobs),
		StartedAt: startedAt,
		Elapsed:   elapsed,
	}

	for _, j := range jobs {
		r.EntriesStored += j.EntriesStored
		r.EntriesDeduped += j.EntriesDeduped

		switch j.State {
		case StateDone:
			r.Succeeded++
		case StateSkipped:
			r.Skipped++
		case StateCancelled:
			r.Cancelled++
		case StateFailed:
			r.Failed++
			msg := ""
			if j.Err != nil {
				msg = j.Err.Error()
			}
			r.Failures = append(r.Failures, Failure{
				URL:      j.Descriptor.URL,
				Kind:     j.FailKind,
				Message:  msg,
				Attempts: j.Attempts,
			})
		}
	}

	return r
}

// FailureFraction returns the fraction of jobs that failed, in [0, 1].
func (r *Result) FailureFraction() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Failed) / float64(r.Total)
}
