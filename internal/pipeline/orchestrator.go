package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tsubute/arcache/internal/archive"
	"github.com/tsubute/arcache/internal/clock"
	"github.com/tsubute/arcache/internal/fetch"
	"github.com/tsubute/arcache/internal/log"
	"github.com/tsubute/arcache/internal/model"
	"github.com/tsubute/arcache/internal/store"
)

// Fetcher is the retrieval dependency of the orchestrator.
// *fetch.Fetcher satisfies it; tests substitute stubs.
type Fetcher interface {
	Fetch(ctx context.Context, d model.Descriptor) ([]byte, error)
}

// Orchestrator runs batches of ingestion jobs.
// The store handle is passed in explicitly and shared across workers:
// Exists/Get are concurrency-safe on every backend, and writes are
// serialized per key by the batch-scoped lock table on top of the
// store's own put-if-absent.
type Orchestrator struct {
	// fetcher downloads archive bytes.
	fetcher Fetcher

	// store persists extracted entries.
	store store.Store

	// clk drives timestamps and store-retry sleeps.
	clk clock.Clock

	// logger records batch and job progress.
	logger *slog.Logger

	// sink receives job state transition events.
	sink log.Sink

	// workers bounds the number of concurrently in-flight jobs.
	workers int

	// defaultTTL applies to entries whose descriptor doesn't override it.
	defaultTTL time.Duration

	// maxEntrySize is the extractor's declared-size ceiling.
	maxEntrySize int64

	// allowEmpty switches the zero-entry archive policy from fail to
	// done-with-warning.
	allowEmpty bool

	// storeAttempts is the bounded retry budget for transient store
	// errors, including the first attempt.
	storeAttempts int

	// storeBackoff computes delays between store retries.
	storeBackoff clock.Backoff

	// sweepBefore runs a TTL eviction pass before dispatching jobs.
	sweepBefore bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithWorkers bounds concurrently in-flight jobs. Default is 8.
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSink sets the progress sink.
func WithSink(s log.Sink) Option {
	return func(o *Orchestrator) {
		if s != nil {
			o.sink = s
		}
	}
}

// WithClock sets the clock. Tests inject a fake.
func WithClock(c clock.Clock) Option {
	return func(o *Orchestrator) {
		if c != nil {
			o.clk = c
		}
	}
}

// WithDefaultTTL sets the TTL applied to new entries.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(o *Orchestrator) {
		if ttl > 0 {
			o.defaultTTL = ttl
		}
	}
}

// WithMaxEntrySize sets the extractor's entry size ceiling.
func WithMaxEntrySize(n int64) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxEntrySize = n
		}
	}
}

// WithAllowEmptyArchives treats zero-entry archives as done-with-warning
// instead of failed.
func WithAllowEmptyArchives(allow bool) Option {
	return func(o *Orchestrator) {
		o.allowEmpty = allow
	}
}

// WithStoreAttempts sets the bounded retry budget for transient store
// errors.
func WithStoreAttempts(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.storeAttempts = n
		}
	}
}

// WithSweepBefore runs a TTL sweep over the store before the batch starts.
func WithSweepBefore(sweep bool) Option {
	return func(o *Orchestrator) {
		o.sweepBefore = sweep
	}
}

// New creates an Orchestrator over the given fetcher and store.
func New(fetcher Fetcher, st store.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher:       fetcher,
		store:         st,
		clk:           clock.Real{},
		sink:          log.NopSink{},
		workers:       8,
		maxEntrySize:  archive.DefaultMaxEntrySize,
		storeAttempts: 3,
		storeBackoff:  clock.Backoff{Initial: 200 * time.Millisecond, Max: 5 * time.Second, Multiplier: 2.0},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// Run processes a batch of descriptors and returns the aggregate result.
// Descriptor validation failures abort the whole batch before any job
// starts; every other failure is isolated to its job. The returned error
// is non-nil only for that configuration class; cancellation still
// produces a complete Result with unstarted jobs marked cancelled.
func (o *Orchestrator) Run(ctx context.Context, descriptors []model.Descriptor) (*model.Result, error) {
	for i, d := range descriptors {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("descriptor %d (%q): %w", i, d.URL, err)
		}
	}

	if o.sweepBefore {
		if n, err := o.Sweep(ctx); err != nil {
			o.logger.Warn("pre-batch sweep failed", "error", err)
		} else if n > 0 {
			o.logger.Info("pre-batch sweep evicted entries", "count", n)
		}
	}

	started := o.clk.Now()
	o.logger.Info("starting batch",
		"descriptors", len(descriptors),
		"workers", o.workers,
	)

	jobs := make([]*model.Job, len(descriptors))
	for i, d := range descriptors {
		jobs[i] = model.NewJob(d, started)
	}

	keys := newKeyedMutex()

	var g errgroup.Group
	g.SetLimit(o.workers)

	for _, job := range jobs {
		g.Go(func() error {
			// A cancelled batch stops pulling new work; jobs that never
			// started are cancelled, not failed.
			select {
			case <-ctx.Done():
				o.setState(job, model.StateCancelled)
				return nil
			default:
			}

			o.process(ctx, job, keys)
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // job outcomes live on the jobs, never in the group

	result := model.NewResult(jobs, started, o.clk.Now().Sub(started))
	o.logger.Info("batch complete",
		"succeeded", result.Succeeded,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"cancelled", result.Cancelled,
		"entries_stored", result.EntriesStored,
		"entries_deduped", result.EntriesDeduped,
		"elapsed", result.Elapsed,
	)
	return result, nil
}

// Sweep runs one TTL eviction pass over the store, returning how many
// entries were evicted. Eviction is never background work: it runs only
// when invoked here or by the CLI.
func (o *Orchestrator) Sweep(ctx context.Context) (int, error) {
	return o.store.Sweep(ctx, o.clk.Now())
}

// process runs one job through fetch → extract → store.
// All outcomes are recorded on the job; nothing escapes to the batch.
func (o *Orchestrator) process(ctx context.Context, job *model.Job, keys *keyedMutex) {
	d := job.Descriptor

	// When the expected key is known up front, a cache hit skips the
	// job entirely: no network, no extraction.
	if key := d.ExpectedKey(); key != "" {
		ok, err := o.store.Exists(ctx, key)
		if err != nil {
			// A failed pre-check costs one redundant fetch at worst;
			// dedup at Put time still holds.
			o.logger.Warn("cache pre-check failed", "url", d.URL, "error", err)
		} else if ok {
			o.logger.Debug("already cached, skipping", "url", d.URL, "key", key)
			o.setState(job, model.StateSkipped)
			return
		}
	}

	o.setState(job, model.StateFetching)
	job.LastAttempt = o.clk.Now()

	body, err := o.fetcher.Fetch(ctx, d)
	if err != nil {
		o.failFetch(job, err)
		return
	}
	fetchedAt := o.clk.Now()

	o.setState(job, model.StateExtracting)

	it, err := archive.New(body, archive.WithMaxEntrySize(o.maxEntrySize))
	if err != nil {
		job.Fail(model.FailCorruptArchive, err)
		o.setState(job, model.StateFailed)
		return
	}
	o.logger.Debug("archive opened", "url", d.URL, "entries", it.Len())

	o.setState(job, model.StateStoring)

	entryFailures := 0
	var firstEntryErr error
	for {
		entry, err := it.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var entryErr *archive.EntryError
			if errors.As(err, &entryErr) {
				// Partial success is possible: record the entry failure
				// and keep pulling the remaining entries.
				entryFailures++
				if firstEntryErr == nil {
					firstEntryErr = err
				}
				o.logger.Warn("entry extraction failed",
					"url", d.URL,
					"entry", entryErr.Name,
					"error", entryErr.Err,
				)
				continue
			}
			job.Fail(model.FailCorruptArchive, err)
			o.setState(job, model.StateFailed)
			return
		}

		cacheEntry := model.NewCacheEntry(entry, d, fetchedAt, o.defaultTTL)
		created, err := o.putEntry(ctx, cacheEntry, keys)
		if err != nil {
			if errors.Is(err, store.ErrConflict) {
				job.Fail(model.FailStoreConflict, err)
			} else {
				job.Fail(model.FailStore, err)
			}
			o.setState(job, model.StateFailed)
			return
		}
		if created {
			job.EntriesStored++
		} else {
			job.EntriesDeduped++
		}
	}

	processed := job.EntriesStored + job.EntriesDeduped

	switch {
	case entryFailures > 0:
		// Entries already persisted stay: put is idempotent, so a rerun
		// after the upstream fixes the archive is cheap.
		job.Fail(model.FailCorruptArchive,
			fmt.Errorf("%d of %d entries failed extraction: %w", entryFailures, processed+entryFailures, firstEntryErr))
		o.setState(job, model.StateFailed)

	case processed == 0 && !o.allowEmpty:
		job.Fail(model.FailEmptyArchive, errEmptyArchive)
		o.setState(job, model.StateFailed)

	default:
		if processed == 0 {
			o.logger.Warn("archive yielded no entries", "url", d.URL)
		}
		o.setState(job, model.StateDone)
	}
}

// errEmptyArchive is the failure recorded when an archive yields zero
// entries and the policy says that's an error.
var errEmptyArchive = errors.New("archive yielded zero entries")

// putEntry writes one entry under per-key mutual exclusion, retrying
// transient store errors within a small bounded budget. Conflicts are
// never retried: divergent content under a content-derived key won't
// converge on its own.
func (o *Orchestrator) putEntry(ctx context.Context, entry *model.CacheEntry, keys *keyedMutex) (bool, error) {
	unlock := keys.Lock(entry.Key)
	defer unlock()

	var lastErr error
	for attempt := 1; attempt <= o.storeAttempts; attempt++ {
		created, err := o.store.Put(ctx, entry)
		if err == nil {
			return created, nil
		}
		if errors.Is(err, store.ErrConflict) || errors.Is(err, store.ErrClosed) {
			return false, err
		}

		lastErr = err
		if attempt < o.storeAttempts {
			if serr := o.clk.Sleep(ctx, o.storeBackoff.Duration(attempt)); serr != nil {
				return false, serr
			}
		}
	}
	return false, fmt.Errorf("store put failed after %d attempts: %w", o.storeAttempts, lastErr)
}

// failFetch maps a fetch error onto the job's failure taxonomy.
func (o *Orchestrator) failFetch(job *model.Job, err error) {
	var ferr *fetch.Error
	if errors.As(err, &ferr) {
		job.Attempts = ferr.Attempts
		switch ferr.Kind {
		case fetch.KindVerification:
			job.Fail(model.FailVerification, err)
		case fetch.KindPermanent:
			job.Fail(model.FailPermanentFetch, err)
		default:
			job.Fail(model.FailTransient, err)
		}
	} else {
		job.Fail(model.FailTransient, err)
	}
	o.setState(job, model.StateFailed)
}

// setState advances the job's state machine and publishes the transition.
func (o *Orchestrator) setState(job *model.Job, state model.JobState) {
	job.State = state
	o.sink.Publish(log.Event{
		Kind:  log.EventJobState,
		URL:   job.Descriptor.URL,
		State: state.String(),
	})
	if state.Terminal() {
		o.logger.Debug("job finished",
			"url", job.Descriptor.URL,
			"state", state.String(),
			"entries_stored", job.EntriesStored,
			"entries_deduped", job.EntriesDeduped,
		)
	}
}
