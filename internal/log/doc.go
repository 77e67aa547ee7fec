// Package log provides structured logging and progress reporting for the
// pipeline, built on top of the standard slog package.
//
// Descriptors may carry credential-bearing HTTP headers (Authorization,
// API keys) that the fetcher attaches to requests. The RedactHandler
// wraps any slog.Handler and masks such values before they reach the
// underlying handler, so even verbose logs never leak credentials.
//
// The Sink interface is the write-only progress surface consumed by the
// fetcher and orchestrator: one event per fetch attempt and per job state
// change. The default sink forwards events to slog; a no-op sink is
// available for tests and library use.
package log
