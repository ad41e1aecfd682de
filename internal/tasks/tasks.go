// package tasks implements the ingestion and aggregation pipelines of the playback log.
//
// The core abstractions are [Syncer], which keeps the local store in step with the remote sheet,
// and [AnalysisEngine], which turns the store into yearly statistics.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"github.com/desertthunder/playlog/internal/models"
	"github.com/desertthunder/playlog/internal/repositories"
)

var (
	_ Store       = (*repositories.EventStore)(nil)
	_ RunRecorder = (*repositories.SyncRunRepository)(nil)
)

// Store is the whole-file local playback store.
type Store interface {
	// Path returns the location of the store, used in reports and logs.
	Path() string

	// Read loads the full store. A store that does not exist yet is an empty table.
	Read() (*models.Table, error)

	// Write replaces the full store. Implementations must never leave a partially written store behind.
	Write(table *models.Table) error
}

// RunRecorder persists the sync history.
//
// Create is called when a cycle starts and Update when it finishes.
type RunRecorder interface {
	Create(run *models.SyncRun) error
	Update(run *models.SyncRun) error
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full, skip this update
	}
}
