package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/opencontainers/go-digest"

	"github.com/tsubute/arcache/internal/clock"
	"github.com/tsubute/arcache/internal/log"
	"github.com/tsubute/arcache/internal/model"
)

// Fetcher downloads archive bytes for descriptors.
// It is safe for concurrent use: all fields are set at construction and
// the underlying http.Client is concurrency-safe.
type Fetcher struct {
	// client performs the HTTP requests. Transport details (TLS,
	// redirects, proxies) are its concern, not ours.
	client *http.Client

	// maxAttempts is the retry budget including the first attempt.
	maxAttempts int

	// attemptTimeout bounds each individual request.
	attemptTimeout time.Duration

	// maxBodySize caps the downloaded payload.
	maxBodySize int64

	// backoff computes delays between attempts.
	backoff clock.Backoff

	// clk drives timestamps and retry sleeps.
	clk clock.Clock

	// sink receives one progress event per attempt.
	sink log.Sink

	// logger records attempt outcomes.
	logger *slog.Logger

	// userAgent is sent with every request.
	userAgent string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the HTTP client. Defaults to http.DefaultClient.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithMaxAttempts sets the retry budget, including the first attempt.
func WithMaxAttempts(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxAttempts = n
		}
	}
}

// WithAttemptTimeout sets the per-attempt timeout.
func WithAttemptTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.attemptTimeout = d
		}
	}
}

// WithMaxBodySize caps the downloaded payload size.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBodySize = n
		}
	}
}

// WithBackoff sets the retry backoff policy.
func WithBackoff(b clock.Backoff) Option {
	return func(f *Fetcher) {
		f.backoff = b
	}
}

// WithClock sets the clock used for retry sleeps. Tests inject a fake.
func WithClock(c clock.Clock) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.clk = c
		}
	}
}

// WithSink sets the progress sink.
func WithSink(s log.Sink) Option {
	return func(f *Fetcher) {
		if s != nil {
			f.sink = s
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithUserAgent sets the User-Agent request header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// New creates a Fetcher with the given options.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:         http.DefaultClient,
		maxAttempts:    3,
		attemptTimeout: 60 * time.Second,
		maxBodySize:    256 * 1024 * 1024,
		backoff:        clock.DefaultBackoff(),
		clk:            clock.Real{},
		sink:           log.NopSink{},
		userAgent:      "arcache/1.0",
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

// Fetch downloads the descriptor's bytes. Transient failures are retried
// with backoff up to the budget; permanent failures and digest mismatches
// return immediately. On failure the returned error is always a *Error
// carrying the classification and attempt count.
func (f *Fetcher) Fetch(ctx context.Context, d model.Descriptor) ([]byte, error) {
	if _, err := url.ParseRequestURI(d.URL); err != nil {
		return nil, &Error{Kind: KindPermanent, URL: d.URL, Err: err}
	}

	var lastErr error
	var lastStatus int

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, &Error{Kind: KindTransient, URL: d.URL, Attempts: attempt - 1, Err: err}
		}

		f.sink.Publish(log.Event{Kind: log.EventFetchAttempt, URL: d.URL, Attempt: attempt})

		body, status, err := f.attempt(ctx, d)
		lastStatus = status

		switch {
		case err == nil:
			if verr := verify(body, d.Digest); verr != nil {
				// A mismatch is fatal: the remote served consistent
				// bytes, it's the expectation that is wrong.
				return nil, &Error{Kind: KindVerification, URL: d.URL, Status: status, Attempts: attempt, Err: verr}
			}
			f.logger.Debug("fetch succeeded", "url", d.URL, "attempt", attempt, "bytes", len(body))
			return body, nil

		case !retryable(status, err):
			return nil, &Error{Kind: KindPermanent, URL: d.URL, Status: status, Attempts: attempt, Err: err}
		}

		lastErr = err
		f.logger.Debug("fetch attempt failed", "url", d.URL, "attempt", attempt, "status", status, "error", err)

		if attempt < f.maxAttempts {
			delay := f.backoff.Duration(attempt)
			f.sink.Publish(log.Event{Kind: log.EventFetchRetry, URL: d.URL, Attempt: attempt, Delay: delay, Err: err})
			if serr := f.clk.Sleep(ctx, delay); serr != nil {
				return nil, &Error{Kind: KindTransient, URL: d.URL, Status: status, Attempts: attempt, Err: serr}
			}
		}
	}

	return nil, &Error{
		Kind:     KindTransient,
		URL:      d.URL,
		Status:   lastStatus,
		Attempts: f.maxAttempts,
		Err:      fmt.Errorf("%w: %w", ErrRetriesExhausted, lastErr),
	}
}

// attempt performs one GET. It returns the body on success, the HTTP
// status when one was observed, and the failure otherwise.
func (f *Fetcher) attempt(ctx context.Context, d model.Descriptor) ([]byte, int, error) {
	actx, cancel := context.WithTimeout(ctx, f.attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(actx, http.MethodGet, d.URL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	for k, v := range d.Headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close() //nolint:errcheck // nothing useful to do with a close error here

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status)
	}

	// Read one byte past the cap so an oversized body is detected rather
	// than silently truncated.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	if int64(len(body)) > f.maxBodySize {
		return nil, resp.StatusCode, ErrBodyTooLarge
	}

	return body, resp.StatusCode, nil
}

// verify checks content against an expected algorithm-prefixed digest.
// An empty expectation verifies trivially.
func verify(body []byte, expected string) error {
	if expected == "" {
		return nil
	}

	want, err := digest.Parse(expected)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDigestMismatch, err)
	}

	got := want.Algorithm().FromBytes(body)
	if got != want {
		return fmt.Errorf("%w: want %s, got %s", ErrDigestMismatch, want, got)
	}
	return nil
}

// retryable classifies an attempt failure. Status-less errors are network
// failures (timeouts, resets) and are worth retrying; 5xx responses are
// server-side and usually recover; everything else is permanent.
func retryable(status int, err error) bool {
	if err == ErrBodyTooLarge { //nolint:errorlint // sentinel returned directly above
		return false
	}
	if status == 0 {
		return true
	}
	if status >= 500 {
		return true
	}
	// 429 asks us to slow down, which is exactly what backoff does.
	return status == http.StatusTooManyRequests
}
