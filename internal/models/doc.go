// Package models defines the domain entities shared by the ingestion and aggregation pipelines.
//
// The package contains two categories of types:
//
// 1. Tabular values: what moves between the remote sheet, the local store and the engines
//   - [Row] and [Table] : an ordered, column-headered tabular dataset (remote sheet or local store)
//   - [PlaybackEvent] : one normalized playback (date, performer, title)
//   - [Counter] : insertion-ordered name counts
//   - [AggregationResult] and [Summary] : yearly statistics
//   - [MergeReport] : outcome of one merge into the local store
//
// 2. Persistent entities: database-backed models with lifecycle timestamps
//   - [SyncRun] : one ingestion cycle recorded in sqlite
//
// Persistent entities implement the [Model] interface. The [Repository] interface defines standard CRUD operations for database access.
package models
