package tasks

import (
	"fmt"
	"time"

	"github.com/desertthunder/playlog/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchRemote Phase = iota
	ReadStore
	MergeRows
	PersistStore
	CycleDone
	CycleFailed
	WaitInterval
	LoadEvents
	Aggregate
)

func (p Phase) String() string {
	switch p {
	case FetchRemote:
		return "fetch_remote"
	case ReadStore:
		return "read_store"
	case MergeRows:
		return "merge_rows"
	case PersistStore:
		return "persist_store"
	case CycleDone:
		return "cycle_done"
	case CycleFailed:
		return "cycle_failed"
	case WaitInterval:
		return "wait_interval"
	case LoadEvents:
		return "load_events"
	case Aggregate:
		return "aggregate"
	default:
		return ""
	}
}

func fetchRemoteUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchRemote,
		Step:    1,
		Total:   3,
		Message: fmt.Sprintf("Fetching remote playback log (%s)...", name),
	}
}

func readStoreUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReadStore,
		Step:    2,
		Total:   3,
		Message: fmt.Sprintf("Reading local store %s...", path),
	}
}

func mergeRowsUpdate(existing, fetched int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MergeRows,
		Step:    2,
		Total:   3,
		Message: fmt.Sprintf("Merging %d fetched rows into %d stored rows...", fetched, existing),
	}
}

func persistStoreUpdate(report models.MergeReport) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PersistStore,
		Step:    3,
		Total:   3,
		Message: fmt.Sprintf("Writing %d rows to %s...", report.TotalRows, report.StorePath),
		Data:    report,
	}
}

func cycleDoneUpdate(result CycleResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CycleDone,
		Step:    3,
		Total:   3,
		Message: fmt.Sprintf("✓ +%d rows, %d duplicates dropped, %d total", result.Report.AddedRows(), result.Report.DroppedDuplicates, result.Report.TotalRows),
		Data:    result,
	}
}

func cycleFailedUpdate(result CycleResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CycleFailed,
		Message: fmt.Sprintf("✗ sync cycle failed: %v", result.Err),
		Data:    result,
	}
}

func waitIntervalUpdate(interval time.Duration) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WaitInterval,
		Message: fmt.Sprintf("Next sync in %s", interval),
	}
}

func loadEventsUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadEvents,
		Step:    1,
		Total:   2,
		Message: fmt.Sprintf("Loading playback events from %s...", path),
	}
}

func aggregateUpdate(year, events int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Aggregate,
		Step:    2,
		Total:   2,
		Message: fmt.Sprintf("Aggregating %d events for %d...", events, year),
	}
}
