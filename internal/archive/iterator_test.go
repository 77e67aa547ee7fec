package archive

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/klauspost/compress/zip"
)

// buildZip creates an in-memory zip archive from name/content pairs.
// Directory entries are created with a trailing slash and nil content.
func buildZip(t *testing.T, files map[string][]byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("failed to create zip entry %q: %v", name, err)
		}
		if content != nil {
			if _, err := w.Write(content); err != nil {
				t.Fatalf("failed to write zip entry %q: %v", name, err)
			}
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip writer: %v", err)
	}
	return buf.Bytes()
}

// drain pulls all entries from the iterator, separating successes from
// per-entry failures.
func drain(t *testing.T, it *Iterator) (names []string, entryErrs []*EntryError) {
	t.Helper()

	for {
		entry, err := it.Next()
		if errors.Is(err, io.EOF) {
			return names, entryErrs
		}
		var ee *EntryError
		if errors.As(err, &ee) {
			entryErrs = append(entryErrs, ee)
			continue
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		names = append(names, entry.Name)
	}
}

// TestNew verifies archive parsing and corrupt-input rejection.
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("valid archive parses", func(t *testing.T) {
		t.Parallel()
		data := buildZip(t, map[string][]byte{"a.txt": []byte("hello")})
		if _, err := New(data); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("garbage bytes return ErrCorruptArchive", func(t *testing.T) {
		t.Parallel()
		_, err := New([]byte("this is not a zip file"))
		if !errors.Is(err, ErrCorruptArchive) {
			t.Errorf("expected ErrCorruptArchive, got %v", err)
		}
	})

	t.Run("truncated archive returns ErrCorruptArchive", func(t *testing.T) {
		t.Parallel()
		data := buildZip(t, map[string][]byte{"a.txt": []byte("hello world")})
		_, err := New(data[:len(data)/2])
		if !errors.Is(err, ErrCorruptArchive) {
			t.Errorf("expected ErrCorruptArchive, got %v", err)
		}
	})

	t.Run("empty buffer returns ErrCorruptArchive", func(t *testing.T) {
		t.Parallel()
		_, err := New(nil)
		if !errors.Is(err, ErrCorruptArchive) {
			t.Errorf("expected ErrCorruptArchive, got %v", err)
		}
	})
}

// TestIteratorNext verifies entry extraction, ordering, and directory
// skipping.
func TestIteratorNext(t *testing.T) {
	t.Parallel()

	t.Run("yields every file with content", func(t *testing.T) {
		t.Parallel()
		data := buildZip(t, map[string][]byte{
			"a.txt":     []byte("alpha"),
			"sub/b.txt": []byte("beta"),
		})

		it, err := New(data)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got := map[string]string{}
		for {
			entry, err := it.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got[entry.Name] = string(entry.Data)
			if entry.Length != int64(len(entry.Data)) {
				t.Errorf("entry %q: length %d does not match data size %d",
					entry.Name, entry.Length, len(entry.Data))
			}
		}

		if got["a.txt"] != "alpha" || got["sub/b.txt"] != "beta" {
			t.Errorf("unexpected entries: %v", got)
		}
	})

	t.Run("directories are skipped", func(t *testing.T) {
		t.Parallel()
		data := buildZip(t, map[string][]byte{
			"dir/":      nil,
			"dir/a.txt": []byte("alpha"),
		})

		it, err := New(data)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		names, entryErrs := drain(t, it)
		if len(entryErrs) != 0 {
			t.Fatalf("expected no entry errors, got %v", entryErrs)
		}
		if len(names) != 1 || names[0] != "dir/a.txt" {
			t.Errorf("expected only the file entry, got %v", names)
		}
	})

	t.Run("empty archive returns EOF immediately", func(t *testing.T) {
		t.Parallel()
		data := buildZip(t, nil)

		it, err := New(data)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := it.Next(); !errors.Is(err, io.EOF) {
			t.Errorf("expected io.EOF, got %v", err)
		}
	})

	t.Run("zero-byte file is a valid entry", func(t *testing.T) {
		t.Parallel()
		data := buildZip(t, map[string][]byte{"empty.txt": {}})

		it, err := New(data)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		entry, err := it.Next()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if entry.Name != "empty.txt" || entry.Length != 0 {
			t.Errorf("unexpected entry: %+v", entry)
		}
	})
}

// TestIteratorLen verifies the declared file count excludes directories.
func TestIteratorLen(t *testing.T) {
	t.Parallel()

	data := buildZip(t, map[string][]byte{
		"dir/":      nil,
		"dir/a.txt": []byte("alpha"),
		"b.txt":     []byte("beta"),
	})

	it, err := New(data)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := it.Len(); got != 2 {
		t.Errorf("expected 2 file entries, got %d", got)
	}
}

// TestIteratorSizeCeiling verifies the declared-size ceiling rejects
// oversized entries before decompression while later entries remain
// reachable.
func TestIteratorSizeCeiling(t *testing.T) {
	t.Parallel()

	data := buildZip(t, map[string][]byte{
		"big.bin":   bytes.Repeat([]byte("x"), 1024),
		"small.txt": []byte("ok"),
	})

	it, err := New(data, WithMaxEntrySize(128))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	names, entryErrs := drain(t, it)

	if len(entryErrs) != 1 {
		t.Fatalf("expected 1 entry error, got %d", len(entryErrs))
	}
	if entryErrs[0].Name != "big.bin" {
		t.Errorf("expected big.bin to fail, got %q", entryErrs[0].Name)
	}
	if !errors.Is(entryErrs[0], ErrEntryTooLarge) {
		t.Errorf("expected ErrEntryTooLarge, got %v", entryErrs[0].Err)
	}
	if len(names) != 1 || names[0] != "small.txt" {
		t.Errorf("expected small.txt to survive, got %v", names)
	}
}

// TestIteratorUnsupportedMethod verifies rejection of compression methods
// other than store and deflate.
func TestIteratorUnsupportedMethod(t *testing.T) {
	t.Parallel()

	// Write an entry with bzip2 method (12), which we deliberately
	// refuse to decompress.
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(12, func(w io.Writer) (io.WriteCloser, error) {
		return nopWriteCloser{w}, nil
	})
	w, err := zw.CreateHeader(&zip.FileHeader{Name: "weird.bin", Method: 12})
	if err != nil {
		t.Fatalf("failed to create header: %v", err)
	}
	if _, err := w.Write([]byte("payload")); err != nil {
		t.Fatalf("failed to write entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	it, err := New(buf.Bytes())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	_, err = it.Next()
	var ee *EntryError
	if !errors.As(err, &ee) {
		t.Fatalf("expected *EntryError, got %v", err)
	}
	if !errors.Is(ee, ErrUnsupportedMethod) {
		t.Errorf("expected ErrUnsupportedMethod, got %v", ee.Err)
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
