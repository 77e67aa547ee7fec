package archive

import (
	"errors"
	"fmt"
)

// Extraction errors.
var (
	// ErrCorruptArchive is returned when the archive's central directory
	// is missing, truncated, or otherwise unparsable. Fatal for the job,
	// never retried.
	ErrCorruptArchive = errors.New("corrupt archive: invalid or truncated central directory")

	// ErrEntryTooLarge is returned when an entry's declared uncompressed
	// size exceeds the sanity ceiling. The entry is rejected before any
	// of its content is decompressed (decompression-bomb defense).
	ErrEntryTooLarge = errors.New("archive entry declares uncompressed size above the configured ceiling")

	// ErrUnsupportedMethod is returned when an entry uses a compression
	// method other than store or deflate. Rejecting is safer than
	// silently skipping: a skipped entry would look like a smaller,
	// valid archive downstream.
	ErrUnsupportedMethod = errors.New("archive entry uses an unsupported compression method")

	// ErrSizeMismatch is returned when an entry's actual decompressed
	// size differs from its declared size. Either the archive is corrupt
	// or the declared size was forged to sneak past the ceiling.
	ErrSizeMismatch = errors.New("archive entry decompressed size does not match declared size")
)

// EntryError wraps an error that occurred while extracting a single entry.
// It carries the entry name so consumers can report per-entry failures and
// continue with the rest of the archive.
type EntryError struct {
	// Name is the failing entry's path inside the archive.
	Name string

	// Err is the underlying extraction error.
	Err error
}

// Error implements the error interface.
func (e *EntryError) Error() string {
	return fmt.Sprintf("entry %q: %v", e.Name, e.Err)
}

// Unwrap returns the underlying error for errors.Is / errors.As.
func (e *EntryError) Unwrap() error {
	return e.Err
}
