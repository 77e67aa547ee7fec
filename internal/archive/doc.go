// Package archive parses fetched byte buffers as zip archives and yields
// their entries lazily through a pull-based iterator.
//
// The iterator is deliberately defensive: declared entry sizes above a
// sanity ceiling are rejected before any decompression happens, actual
// decompressed sizes are verified against the declared sizes, and
// unsupported compression methods are reported as errors rather than
// silently skipped. A failure on one entry surfaces as a per-entry error
// so the consumer can record it and continue with the remaining entries.
//
// An iterator holds no mutable cursor that survives re-invocation:
// restarting extraction means calling New again with the same bytes.
package archive
