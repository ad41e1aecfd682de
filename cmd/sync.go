package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/playlog/internal/models"
	"github.com/desertthunder/playlog/internal/repositories"
	"github.com/desertthunder/playlog/internal/services"
	"github.com/desertthunder/playlog/internal/shared"
	"github.com/urfave/cli/v3"
)

// SyncRun fetches the spreadsheet and merges it into the local store.
//
// Without --once it loops until SIGINT/SIGTERM, waiting the configured interval between cycles.
// A failed cycle is logged and skipped; only --once reports it as an error.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	syncer, closeDB, err := r.newSyncer(cmd.String("url"), r.storePath(cmd, "store"), !cmd.Bool("no-history"), nil)
	if err != nil {
		return err
	}
	defer closeDB()

	if cmd.Bool("once") {
		result := syncer.RunOnce(ctx)
		if result.Err != nil {
			return result.Err
		}
		r.writeMergeReport(result.Report, result.Duration)
		return nil
	}

	interval := cmd.Duration("interval")
	if interval <= 0 {
		interval = r.config.Sync.Interval()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := syncer.Loop(ctx, interval); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// SyncHistory lists the recorded sync cycles.
func (r *Runner) SyncHistory(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer closeDB()

	criteria := map[string]any{"limit": int(cmd.Int("limit"))}
	if status := cmd.String("status"); status != "" {
		s := models.SyncStatus(status)
		if s != models.SyncOK && s != models.SyncFailed && s != models.SyncRunning {
			return fmt.Errorf("%w: status must be ok, failed or running, got %q", shared.ErrInvalidArgument, status)
		}
		criteria["status"] = s
	}

	runs, err := repositories.NewSyncRunRepository(db).List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list sync runs: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(runs, cmd.Bool("pretty"))
	}

	if len(runs) == 0 {
		r.writePlain("No sync runs recorded\n")
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Sync history (%d runs)", len(runs)))
	for _, run := range runs {
		r.writeSyncRun(run)
	}
	return nil
}

// SyncExportURL prints the CSV export URL derived from a spreadsheet edit URL.
func (r *Runner) SyncExportURL(ctx context.Context, cmd *cli.Command) error {
	editURL := cmd.StringArg("url")
	if editURL == "" {
		editURL = r.config.Sheet.URL
	}
	if editURL == "" {
		return fmt.Errorf("%w: url", shared.ErrMissingArgument)
	}

	exportURL, err := services.ExportURL(editURL)
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", exportURL)
}

func (r *Runner) writeMergeReport(report models.MergeReport, elapsed time.Duration) {
	r.writePlain("✓ Store updated: %s\n", report.StorePath)
	r.writePlain("  Existing rows:      %d\n", report.ExistingRows)
	r.writePlain("  Fetched rows:       %d\n", report.FetchedRows)
	r.writePlain("  Duplicates dropped: %d\n", report.DroppedDuplicates)
	r.writePlain("  Rows added:         %d\n", report.AddedRows())
	r.writePlain("  Total rows:         %d\n", report.TotalRows)
	r.writePlain("  Elapsed:            %s\n", elapsed.Round(time.Millisecond))
}

func (r *Runner) writeSyncRun(run *models.SyncRun) {
	mark := "✓"
	if run.Status() == models.SyncFailed {
		mark = "✗"
	}

	r.writePlain("%s #%d %s  (%s)\n", mark, run.Sequence(), run.StartedAt().Format(time.RFC3339), run.Duration().Round(time.Millisecond))
	if run.Status() == models.SyncFailed {
		r.writePlain("    error: %s\n", shared.Truncate(run.Error(), 120))
		return
	}
	r.writePlain("    fetched %d, dropped %d, total %d\n", run.FetchedRows(), run.DroppedRows(), run.TotalRows())
}
