// Package pipeline coordinates batch ingestion: it turns a set of
// resource descriptors into verified, deduplicated cache entries by
// running fetch → extract → store jobs under bounded concurrency.
//
// Each job advances through an explicit state machine
// (pending → fetching → extracting → storing → done) with failed,
// skipped, and cancelled as the other terminal states. Job failures are
// isolated: one descriptor failing never aborts the batch, and the
// aggregate Result enumerates every failure with its classification and
// attempt count. The only abort-the-batch error class is configuration
// validation, which runs before any job starts.
//
// Design decision: We use errgroup.SetLimit rather than a hand-rolled
// worker pool because errgroup handles the concurrency bound correctly
// and keeps each job's lifecycle in a single goroutine. Jobs never
// return errors to the group; outcomes live on the jobs themselves so
// the batch always runs to completion.
package pipeline
