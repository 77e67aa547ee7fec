package log

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// TestNopSink verifies the discard sink accepts events without effect.
func TestNopSink(t *testing.T) {
	t.Parallel()

	var s NopSink
	s.Publish(Event{Kind: EventFetchAttempt, URL: "https://example.com/a.zip"})
}

// TestSlogSink verifies event-to-log translation.
func TestSlogSink(t *testing.T) {
	t.Parallel()

	newSink := func(buf *bytes.Buffer) *SlogSink {
		logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		return NewSlogSink(logger)
	}

	t.Run("fetch attempt logs at debug", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		newSink(&buf).Publish(Event{
			Kind:    EventFetchAttempt,
			URL:     "https://example.com/a.zip",
			Attempt: 2,
		})

		out := buf.String()
		if !strings.Contains(out, "fetch attempt") || !strings.Contains(out, "attempt=2") {
			t.Errorf("unexpected output: %s", out)
		}
	})

	t.Run("retry logs delay and error", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		newSink(&buf).Publish(Event{
			Kind:    EventFetchRetry,
			URL:     "https://example.com/a.zip",
			Attempt: 1,
			Delay:   500 * time.Millisecond,
			Err:     errors.New("status 503"),
		})

		out := buf.String()
		if !strings.Contains(out, "fetch retry scheduled") || !strings.Contains(out, "500ms") {
			t.Errorf("unexpected output: %s", out)
		}
		if !strings.Contains(out, "status 503") {
			t.Errorf("expected error in output: %s", out)
		}
	})

	t.Run("state transition logs state name", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		newSink(&buf).Publish(Event{
			Kind:  EventJobState,
			URL:   "https://example.com/a.zip",
			State: "fetching",
		})

		out := buf.String()
		if !strings.Contains(out, "state=fetching") {
			t.Errorf("unexpected output: %s", out)
		}
	})

	t.Run("nil logger falls back to default", func(t *testing.T) {
		t.Parallel()
		s := NewSlogSink(nil)
		if s == nil {
			t.Fatal("expected sink")
		}
		s.Publish(Event{Kind: EventJobState, State: "done"})
	})
}
