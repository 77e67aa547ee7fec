package model

import (
	"errors"
	"testing"
	"time"
)

// TestNewResult verifies aggregation of terminal jobs into a batch result.
func TestNewResult(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	newTerminalJob := func(url string, state JobState) *Job {
		j := NewJob(Descriptor{URL: url}, now)
		j.State = state
		return j
	}

	t.Run("counts per terminal state", func(t *testing.T) {
		t.Parallel()

		failed := newTerminalJob("https://example.com/b.zip", StateFailed)
		failed.FailKind = FailPermanentFetch
		failed.Err = errors.New("404 not found")
		failed.Attempts = 1

		jobs := []*Job{
			newTerminalJob("https://example.com/a.zip", StateDone),
			failed,
			newTerminalJob("https://example.com/c.zip", StateSkipped),
			newTerminalJob("https://example.com/d.zip", StateCancelled),
			newTerminalJob("https://example.com/e.zip", StateDone),
		}

		r := NewResult(jobs, now, 3*time.Second)

		if r.Total != 5 {
			t.Errorf("expected total 5, got %d", r.Total)
		}
		if r.Succeeded != 2 {
			t.Errorf("expected 2 succeeded, got %d", r.Succeeded)
		}
		if r.Failed != 1 {
			t.Errorf("expected 1 failed, got %d", r.Failed)
		}
		if r.Skipped != 1 {
			t.Errorf("expected 1 skipped, got %d", r.Skipped)
		}
		if r.Cancelled != 1 {
			t.Errorf("expected 1 cancelled, got %d", r.Cancelled)
		}
		if r.Elapsed != 3*time.Second {
			t.Errorf("expected elapsed 3s, got %v", r.Elapsed)
		}
	})

	t.Run("failure detail is carried", func(t *testing.T) {
		t.Parallel()

		failed := newTerminalJob("https://example.com/b.zip", StateFailed)
		failed.FailKind = FailVerification
		failed.Err = errors.New("digest mismatch")
		failed.Attempts = 1

		r := NewResult([]*Job{failed}, now, time.Second)

		if len(r.Failures) != 1 {
			t.Fatalf("expected 1 failure, got %d", len(r.Failures))
		}
		f := r.Failures[0]
		if f.URL != "https://example.com/b.zip" {
			t.Errorf("expected failure URL to be carried, got %q", f.URL)
		}
		if f.Kind != FailVerification {
			t.Errorf("expected FailVerification, got %s", f.Kind)
		}
		if f.Message != "digest mismatch" {
			t.Errorf("expected error message to be carried, got %q", f.Message)
		}
		if f.Attempts != 1 {
			t.Errorf("expected 1 attempt, got %d", f.Attempts)
		}
	})

	t.Run("failures keep input order", func(t *testing.T) {
		t.Parallel()

		first := newTerminalJob("https://example.com/1.zip", StateFailed)
		second := newTerminalJob("https://example.com/2.zip", StateFailed)
		jobs := []*Job{first, newTerminalJob("https://example.com/ok.zip", StateDone), second}

		r := NewResult(jobs, now, time.Second)

		if len(r.Failures) != 2 {
			t.Fatalf("expected 2 failures, got %d", len(r.Failures))
		}
		if r.Failures[0].URL != "https://example.com/1.zip" ||
			r.Failures[1].URL != "https://example.com/2.zip" {
			t.Errorf("expected input order, got %q then %q",
				r.Failures[0].URL, r.Failures[1].URL)
		}
	})

	t.Run("entry counters are summed", func(t *testing.T) {
		t.Parallel()

		a := newTerminalJob("https://example.com/a.zip", StateDone)
		a.EntriesStored = 3
		a.EntriesDeduped = 1
		b := newTerminalJob("https://example.com/b.zip", StateDone)
		b.EntriesStored = 2
		b.EntriesDeduped = 4

		r := NewResult([]*Job{a, b}, now, time.Second)

		if r.EntriesStored != 5 {
			t.Errorf("expected 5 entries stored, got %d", r.EntriesStored)
		}
		if r.EntriesDeduped != 5 {
			t.Errorf("expected 5 entries deduped, got %d", r.EntriesDeduped)
		}
	})
}

// TestFailureFraction verifies the exit-code fraction including the
// empty-batch edge case.
func TestFailureFraction(t *testing.T) {
	t.Parallel()

	t.Run("empty batch is zero", func(t *testing.T) {
		t.Parallel()
		r := &Result{}
		if got := r.FailureFraction(); got != 0 {
			t.Errorf("expected 0, got %f", got)
		}
	})

	t.Run("half failed is 0.5", func(t *testing.T) {
		t.Parallel()
		r := &Result{Total: 4, Failed: 2}
		if got := r.FailureFraction(); got != 0.5 {
			t.Errorf("expected 0.5, got %f", got)
		}
	})

	t.Run("all failed is 1", func(t *testing.T) {
		t.Parallel()
		r := &Result{Total: 3, Failed: 3}
		if got := r.FailureFraction(); got != 1 {
			t.Errorf("expected 1, got %f", got)
		}
	})
}
