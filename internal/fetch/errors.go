package fetch

import (
	"errors"
	"fmt"
)

// Fetch errors.
var (
	// ErrDigestMismatch is returned when downloaded bytes do not match
	// the descriptor's expected digest. Permanent: never retried.
	ErrDigestMismatch = errors.New("downloaded content does not match expected digest")

	// ErrBodyTooLarge is returned when the response body exceeds the
	// configured size cap. Permanent: the content won't shrink on retry.
	ErrBodyTooLarge = errors.New("response body exceeds configured size limit")

	// ErrRetriesExhausted wraps the last transient error after the retry
	// budget is spent.
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// ErrorKind classifies a fetch failure for the orchestrator's failure
// taxonomy.
type ErrorKind int

const (
	// KindTransient marks failures worth retrying: network errors,
	// timeouts, 5xx-class responses.
	KindTransient ErrorKind = iota

	// KindPermanent marks failures retrying cannot fix: 4xx-class
	// responses, malformed URLs, oversized bodies.
	KindPermanent

	// KindVerification marks digest mismatches, kept distinct from other
	// permanent failures because they indicate a stale or wrong
	// expectation rather than a broken remote.
	KindVerification
)

// String returns a human-readable representation of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindPermanent:
		return "permanent"
	case KindVerification:
		return "verification"
	default:
		return "unknown"
	}
}

// Error is the failure type returned by Fetcher.Fetch. It carries the
// classification and the attempt count so the orchestrator can record
// both without re-deriving them.
type Error struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// URL is the descriptor URL that failed.
	URL string

	// Status is the last HTTP status code observed, or 0 when the
	// failure happened below the HTTP layer.
	Status int

	// Attempts is how many attempts were made.
	Attempts int

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s (%s, %d attempts): %v", e.URL, e.Kind, e.Attempts, e.Err)
}

// Unwrap returns the underlying error for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}
