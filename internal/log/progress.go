package log

import (
	"log/slog"
	"time"
)

// EventKind identifies what a progress event describes.
type EventKind string

const (
	// EventFetchAttempt is emitted once per fetch attempt, before the
	// request is made.
	EventFetchAttempt EventKind = "fetch-attempt"

	// EventFetchRetry is emitted when an attempt failed transiently and
	// a retry is scheduled.
	EventFetchRetry EventKind = "fetch-retry"

	// EventJobState is emitted on every job state transition.
	EventJobState EventKind = "job-state"
)

// Event is one progress update from the pipeline. Events are fire-and-forget:
// sinks must not block and must be safe for concurrent use, since workers
// publish from multiple goroutines.
type Event struct {
	// Kind classifies the event.
	Kind EventKind

	// URL identifies the descriptor the event concerns.
	URL string

	// State is the job state name for EventJobState events.
	State string

	// Attempt is the fetch attempt number for fetch events.
	Attempt int

	// Delay is the scheduled backoff before the next attempt,
	// for EventFetchRetry events.
	Delay time.Duration

	// Err is the error that triggered a retry, if any.
	Err error
}

// Sink accepts progress events. It is the write-only interface consumed
// by the fetcher and the orchestrator.
type Sink interface {
	Publish(e Event)
}

// NopSink discards all events.
type NopSink struct{}

// Publish implements Sink.
func (NopSink) Publish(Event) {}

// SlogSink forwards progress events to a structured logger at debug level
// (info for retries, which operators usually want to see).
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a Sink backed by the given logger.
// A nil logger falls back to slog.Default().
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

// Publish implements Sink.
func (s *SlogSink) Publish(e Event) {
	switch e.Kind {
	case EventFetchAttempt:
		s.logger.Debug("fetch attempt", "url", e.URL, "attempt", e.Attempt)
	case EventFetchRetry:
		s.logger.Info("fetch retry scheduled",
			"url", e.URL,
			"attempt", e.Attempt,
			"delay", e.Delay,
			"error", e.Err,
		)
	case EventJobState:
		s.logger.Debug("job state", "url", e.URL, "state", e.State)
	}
}
