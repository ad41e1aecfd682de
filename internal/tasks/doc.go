// Package tasks runs the two pipelines of playlog with real-time progress reporting.
//
// # Ingestion
//
// [Syncer] pulls the full remote table from a [services.Source] and merges it into the local [Store]:
//
//  1. [Syncer.Fetch] : download the remote sheet
//  2. [MergeTables] : concatenate existing-then-fetched rows and drop any row equal to an earlier one
//  3. [Syncer.MergeAndPersist] : read, merge and atomically rewrite the store
//
// [Syncer.RunOnce] performs one cycle and returns a [CycleResult]; [Syncer.Loop] repeats cycles on a fixed
// interval until its context is cancelled. A failed cycle is logged and skipped, never fatal.
//
// # Aggregation
//
// [AnalysisEngine] loads the store once and computes, for one year:
//   - monthly play counts keyed by the first word of the date, sorted lexicographically
//   - top-K performers and tracks (ties keep first-seen order)
//   - performers and tracks played exactly once
//   - a [models.Summary]
//
// # Progress Reporting
//
// Operations accept an optional channel of [ProgressUpdate]. Updates use select with default to prevent blocking.
//
// # Sync History
//
// The optional [RunRecorder] (repositories.SyncRunRepository) persists every cycle.
// Recorder errors are logged and otherwise ignored so that history never disrupts ingestion.
package tasks
