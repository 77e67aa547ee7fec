package archive

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zip"

	"github.com/tsubute/arcache/internal/model"
)

// DefaultMaxEntrySize is the entry size ceiling used when the caller
// doesn't configure one. Matches the config package default.
const DefaultMaxEntrySize = 64 * 1024 * 1024

// Iterator pulls entries out of a zip archive one at a time.
// Directories are skipped. Entries come back in archive order.
//
// Design decision: A pull-based iterator rather than returning a slice
// because extraction can fail mid-sequence: the consumer must be able to
// see entries extracted so far, record the per-entry failure, and decide
// whether to keep pulling. It also avoids holding every decompressed
// entry in memory at once.
type Iterator struct {
	// reader is the parsed archive. Parsing the central directory happens
	// once, in New; Next only decompresses.
	reader *zip.Reader

	// next is the index of the next file to consider.
	next int

	// maxEntrySize is the declared-size ceiling.
	maxEntrySize int64
}

// Option configures an Iterator.
type Option func(*Iterator)

// WithMaxEntrySize sets the ceiling on an entry's declared uncompressed
// size. Entries declaring more are rejected before decompression.
func WithMaxEntrySize(n int64) Option {
	return func(it *Iterator) {
		if n > 0 {
			it.maxEntrySize = n
		}
	}
}

// New parses the byte buffer as a zip archive and returns an iterator
// over its entries. A buffer whose central directory cannot be parsed
// is rejected with ErrCorruptArchive.
func New(data []byte, opts ...Option) (*Iterator, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}

	it := &Iterator{
		reader:       zr,
		maxEntrySize: DefaultMaxEntrySize,
	}
	for _, opt := range opts {
		opt(it)
	}
	return it, nil
}

// Len returns the number of file entries (directories excluded) the
// archive declares.
func (it *Iterator) Len() int {
	n := 0
	for _, f := range it.reader.File {
		if !f.FileInfo().IsDir() {
			n++
		}
	}
	return n
}

// Next returns the next entry, io.EOF when the archive is exhausted, or
// an *EntryError when this entry could not be extracted. After an
// *EntryError the iterator has advanced past the bad entry, so the
// consumer may keep calling Next.
func (it *Iterator) Next() (*model.ArchiveEntry, error) {
	for it.next < len(it.reader.File) {
		f := it.reader.File[it.next]
		it.next++

		if f.FileInfo().IsDir() {
			continue
		}

		entry, err := it.extract(f)
		if err != nil {
			return nil, &EntryError{Name: f.Name, Err: err}
		}
		return entry, nil
	}
	return nil, io.EOF
}

// extract decompresses a single file, enforcing the size ceiling before
// decompression and verifying the declared size afterwards.
func (it *Iterator) extract(f *zip.File) (*model.ArchiveEntry, error) {
	declared := int64(f.UncompressedSize64) //nolint:gosec // sizes above MaxInt64 fail the ceiling check below
	if declared < 0 || declared > it.maxEntrySize {
		return nil, fmt.Errorf("%w: %q declares %d bytes (ceiling %d)",
			ErrEntryTooLarge, f.Name, f.UncompressedSize64, it.maxEntrySize)
	}

	if f.Method != zip.Store && f.Method != zip.Deflate {
		return nil, fmt.Errorf("%w: method %d", ErrUnsupportedMethod, f.Method)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}
	defer rc.Close() //nolint:errcheck // read errors are surfaced below

	// Read at most declared+1 bytes: the extra byte detects content that
	// keeps going past the declared size without ever buffering more
	// than the ceiling.
	data, err := io.ReadAll(io.LimitReader(rc, declared+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}
	if int64(len(data)) != declared {
		return nil, fmt.Errorf("%w: declared %d, got %d", ErrSizeMismatch, declared, len(data))
	}

	return &model.ArchiveEntry{
		Name:   f.Name,
		Length: declared,
		Data:   data,
	}, nil
}
