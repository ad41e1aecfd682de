package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// SyncStatus is the outcome of a [SyncRun].
type SyncStatus string

const (
	SyncRunning SyncStatus = "running"
	SyncOK      SyncStatus = "ok"
	SyncFailed  SyncStatus = "failed"
)

// SyncRun records one ingestion cycle: fetch the remote sheet, merge into the local store.
type SyncRun struct {
	id         string
	sequence   int
	sheetURL   string
	storePath  string
	status     SyncStatus
	fetched    int
	dropped    int
	total      int
	errText    string
	duration   time.Duration
	startedAt  time.Time
	finishedAt *time.Time
	createdAt  time.Time
	updatedAt  time.Time
	deletedAt  *time.Time
}

var _ Model = (*SyncRun)(nil)

// NewSyncRun creates a running [SyncRun] started at startedAt.
func NewSyncRun(sequence int, sheetURL, storePath string, startedAt time.Time) *SyncRun {
	now := time.Now()
	return &SyncRun{
		sequence:  sequence,
		sheetURL:  sheetURL,
		storePath: storePath,
		status:    SyncRunning,
		startedAt: startedAt,
		createdAt: now,
		updatedAt: now,
	}
}

func (r *SyncRun) ID() string              { return r.id }
func (r *SyncRun) Sequence() int           { return r.sequence }
func (r *SyncRun) SheetURL() string        { return r.sheetURL }
func (r *SyncRun) StorePath() string       { return r.storePath }
func (r *SyncRun) Status() SyncStatus      { return r.status }
func (r *SyncRun) FetchedRows() int        { return r.fetched }
func (r *SyncRun) DroppedRows() int        { return r.dropped }
func (r *SyncRun) TotalRows() int          { return r.total }
func (r *SyncRun) Error() string           { return r.errText }
func (r *SyncRun) Duration() time.Duration { return r.duration }
func (r *SyncRun) StartedAt() time.Time    { return r.startedAt }
func (r *SyncRun) FinishedAt() *time.Time  { return r.finishedAt }
func (r *SyncRun) CreatedAt() time.Time    { return r.createdAt }
func (r *SyncRun) UpdatedAt() time.Time    { return r.updatedAt }
func (r *SyncRun) DeletedAt() *time.Time   { return r.deletedAt }

func (r *SyncRun) SetID(id string)             { r.id = id }
func (r *SyncRun) SetSequence(seq int)         { r.sequence = seq }
func (r *SyncRun) SetCreatedAt(t time.Time)    { r.createdAt = t }
func (r *SyncRun) SetUpdatedAt(t time.Time)    { r.updatedAt = t }
func (r *SyncRun) SetDeletedAt(t *time.Time)   { r.deletedAt = t }
func (r *SyncRun) SetDuration(d time.Duration) { r.duration = d }
func (r *SyncRun) SetFinishedAt(t *time.Time)  { r.finishedAt = t }
func (r *SyncRun) SetStatus(status SyncStatus) { r.status = status }
func (r *SyncRun) SetCounts(fetched, dropped, total int) {
	r.fetched, r.dropped, r.total = fetched, dropped, total
}
func (r *SyncRun) SetError(msg string) { r.errText = msg }

// Succeed marks the run finished with the merge report's counts.
func (r *SyncRun) Succeed(report MergeReport, finishedAt time.Time) {
	r.status = SyncOK
	r.SetCounts(report.FetchedRows, report.DroppedDuplicates, report.TotalRows)
	r.finish(finishedAt)
}

// Fail marks the run finished with err.
func (r *SyncRun) Fail(err error, finishedAt time.Time) {
	r.status = SyncFailed
	if err != nil {
		r.errText = err.Error()
	}
	r.finish(finishedAt)
}

func (r *SyncRun) finish(at time.Time) {
	r.finishedAt = &at
	r.duration = at.Sub(r.startedAt)
}

// Validate checks required fields and status.
func (r *SyncRun) Validate() error {
	if r.storePath == "" {
		return fmt.Errorf("store path is required")
	}
	switch r.status {
	case SyncRunning, SyncOK, SyncFailed:
	default:
		return fmt.Errorf("invalid status %q", r.status)
	}
	if r.startedAt.IsZero() {
		return fmt.Errorf("start time is required")
	}
	return nil
}

// MarshalJSON exposes the run's fields for API responses.
func (r *SyncRun) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID          string     `json:"id"`
		Sequence    int        `json:"sequence"`
		SheetURL    string     `json:"sheet_url,omitempty"`
		StorePath   string     `json:"store_path"`
		Status      SyncStatus `json:"status"`
		FetchedRows int        `json:"fetched_rows"`
		DroppedRows int        `json:"dropped_rows"`
		TotalRows   int        `json:"total_rows"`
		Error       string     `json:"error,omitempty"`
		DurationMS  int64      `json:"duration_ms"`
		StartedAt   time.Time  `json:"started_at"`
		FinishedAt  *time.Time `json:"finished_at,omitempty"`
	}{
		ID:          r.id,
		Sequence:    r.sequence,
		SheetURL:    r.sheetURL,
		StorePath:   r.storePath,
		Status:      r.status,
		FetchedRows: r.fetched,
		DroppedRows: r.dropped,
		TotalRows:   r.total,
		Error:       r.errText,
		DurationMS:  r.duration.Milliseconds(),
		StartedAt:   r.startedAt,
		FinishedAt:  r.finishedAt,
	})
}
