package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlog/internal/models"
	"github.com/desertthunder/playlog/internal/services"
	"github.com/desertthunder/playlog/internal/shared"
)

// DefaultSyncInterval is the wait between two sync cycles.
const DefaultSyncInterval = time.Hour

// CycleResult is the outcome of one sync cycle: either a merge report or the error that abandoned the cycle.
type CycleResult struct {
	Report    models.MergeReport
	Run       *models.SyncRun // nil without a [RunRecorder]
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

// OK reports whether the cycle completed.
func (r CycleResult) OK() bool { return r.Err == nil }

// SyncerOpts contains the optional dependencies of a [Syncer].
type SyncerOpts struct {
	Recorder RunRecorder
	Logger   *log.Logger
	Progress chan<- ProgressUpdate
	Clock    func() time.Time

	// OnCycle is called by [Syncer.Loop] after every cycle, before the wait.
	OnCycle func(CycleResult)
}

// Syncer keeps the local [Store] up to date with a remote [services.Source].
type Syncer struct {
	source   services.Source
	store    Store
	recorder RunRecorder
	logger   *log.Logger
	progress chan<- ProgressUpdate
	now      func() time.Time
	onCycle  func(CycleResult)
}

// NewSyncer creates a [Syncer] pulling from source into store.
func NewSyncer(source services.Source, store Store, opts SyncerOpts) *Syncer {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Syncer{
		source:   source,
		store:    store,
		recorder: opts.Recorder,
		logger:   logger,
		progress: opts.Progress,
		now:      clock,
		onCycle:  opts.OnCycle,
	}
}

// MergeTables appends fetched to existing and drops every row equal to an earlier one.
//
// Equality is over the union of both headers (existing columns first), with a missing cell equal to "".
// The first occurrence is kept, so pre-existing rows never move relative to each other.
func MergeTables(existing, fetched *models.Table) (*models.Table, models.MergeReport) {
	var existingCols, fetchedCols []string
	if existing != nil {
		existingCols = existing.Columns
	}
	if fetched != nil {
		fetchedCols = fetched.Columns
	}

	merged := models.NewTable(models.UnionColumns(existingCols, fetchedCols)...)
	report := models.MergeReport{ExistingRows: existing.Len(), FetchedRows: fetched.Len()}

	seen := make(map[string]struct{}, report.ExistingRows+report.FetchedRows)
	for _, t := range []*models.Table{existing, fetched} {
		if t == nil {
			continue
		}
		for _, row := range t.Rows {
			key := row.Key(merged.Columns)
			if _, dup := seen[key]; dup {
				report.DroppedDuplicates++
				continue
			}
			seen[key] = struct{}{}
			merged.Rows = append(merged.Rows, row)
		}
	}

	report.TotalRows = merged.Len()
	return merged, report
}

// Fetch downloads the remote table. Errors wrap [shared.ErrFetch].
func (s *Syncer) Fetch(ctx context.Context) (*models.Table, error) {
	if s.source == nil {
		return nil, fmt.Errorf("%w: %w: remote source not configured", shared.ErrFetch, shared.ErrServiceUnavailable)
	}

	sendProgress(s.progress, fetchRemoteUpdate(s.source.Name()))

	table, err := s.source.Fetch(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrFetch) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrFetch, err)
	}
	if table == nil {
		return nil, fmt.Errorf("%w: source returned no table", shared.ErrFetch)
	}
	return table, nil
}

// MergeAndPersist merges fetched into the store and rewrites it.
//
// A store that does not exist yet is treated as empty. Write failures wrap [shared.ErrPersist].
func (s *Syncer) MergeAndPersist(fetched *models.Table) (models.MergeReport, error) {
	sendProgress(s.progress, readStoreUpdate(s.store.Path()))

	existing, err := s.store.Read()
	if err != nil {
		return models.MergeReport{StorePath: s.store.Path()}, fmt.Errorf("%w: %v", shared.ErrPersist, err)
	}

	sendProgress(s.progress, mergeRowsUpdate(existing.Len(), fetched.Len()))
	merged, report := MergeTables(existing, fetched)
	report.StorePath = s.store.Path()

	sendProgress(s.progress, persistStoreUpdate(report))
	if err := s.store.Write(merged); err != nil {
		if errors.Is(err, shared.ErrPersist) {
			return report, err
		}
		return report, fmt.Errorf("%w: %v", shared.ErrPersist, err)
	}

	return report, nil
}

// RunOnce performs a single fetch-then-merge cycle.
//
// Errors are returned inside the [CycleResult] rather than as a second value: a cycle never aborts its caller.
func (s *Syncer) RunOnce(ctx context.Context) CycleResult {
	result := CycleResult{StartedAt: s.now()}
	result.Run = s.startRun(result.StartedAt)

	table, err := s.Fetch(ctx)
	if err == nil {
		result.Report, err = s.MergeAndPersist(table)
	}
	result.Err = err

	finished := s.now()
	result.Duration = finished.Sub(result.StartedAt)
	s.finishRun(result, finished)

	if result.OK() {
		sendProgress(s.progress, cycleDoneUpdate(result))
	} else {
		sendProgress(s.progress, cycleFailedUpdate(result))
	}
	return result
}

// Loop runs cycles until ctx is cancelled, waiting interval after every cycle whether it succeeded or not.
//
// There is no backoff and no retry cap: a failed cycle is logged and the next one happens on schedule.
// Loop returns the context's error once cancelled.
func (s *Syncer) Loop(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}

	logger := shared.WithLogger(s.logger, "store", s.store.Path(), "interval", interval)
	logger.Info("starting sync loop")

	for {
		if err := ctx.Err(); err != nil {
			logger.Info("sync loop stopped")
			return err
		}

		result := s.RunOnce(ctx)
		s.logCycle(logger, result)
		if s.onCycle != nil {
			s.onCycle(result)
		}

		sendProgress(s.progress, waitIntervalUpdate(interval))
		select {
		case <-ctx.Done():
			logger.Info("sync loop stopped")
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

func (s *Syncer) logCycle(logger *log.Logger, result CycleResult) {
	switch {
	case result.OK():
		logger.Info("sync complete",
			"fetched", result.Report.FetchedRows,
			"added", result.Report.AddedRows(),
			"dropped", result.Report.DroppedDuplicates,
			"total", result.Report.TotalRows,
			"duration", result.Duration)
	case errors.Is(result.Err, context.Canceled):
		logger.Debug("sync cycle interrupted", "err", result.Err)
	case errors.Is(result.Err, shared.ErrFetch):
		logger.Error("fetch failed, skipping cycle", "err", result.Err)
	case errors.Is(result.Err, shared.ErrPersist):
		logger.Error("store update failed, skipping cycle", "err", result.Err)
	default:
		logger.Error("sync cycle failed", "err", result.Err)
	}
}

func (s *Syncer) startRun(startedAt time.Time) *models.SyncRun {
	if s.recorder == nil {
		return nil
	}

	sheetURL := ""
	if s.source != nil {
		sheetURL = s.source.URL()
	}

	run := models.NewSyncRun(0, sheetURL, s.store.Path(), startedAt)
	if err := s.recorder.Create(run); err != nil {
		s.logger.Warn("failed to record sync run", "err", err)
		return nil
	}
	return run
}

func (s *Syncer) finishRun(result CycleResult, finishedAt time.Time) {
	if result.Run == nil {
		return
	}

	if result.OK() {
		result.Run.Succeed(result.Report, finishedAt)
	} else {
		result.Run.Fail(result.Err, finishedAt)
	}

	if err := s.recorder.Update(result.Run); err != nil {
		s.logger.Warn("failed to update sync run", "id", result.Run.ID(), "err", err)
	}
}
