// Package model defines the core data structures used throughout arcache.
//
// This package contains the following main types:
//   - Descriptor: Identifies a remote archive to fetch
//   - Job: One in-flight fetch/extract/store unit of work
//   - CacheEntry: The persisted, content-addressed unit
//   - Result: The aggregate outcome of a batch run
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (fetch, archive, store, pipeline, report)
// need to use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// store persistence.
package model
