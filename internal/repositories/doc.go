// Package repositories implements persistence for the playback log and its sync history.
//
// Key Implementations:
//   - [EventStore] : the local playback store, a single CSV file replaced atomically on every write
//   - [SyncRunRepository] : SQLite-backed history of ingestion cycles with status tracking
//
// SQLite repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
// Sequence numbers provide stable, human-readable ordering (e.g., sync run #42) independent of UUIDs and timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
