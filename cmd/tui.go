package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/playlog/internal/shared"
	"github.com/desertthunder/playlog/internal/tasks"
	"github.com/desertthunder/playlog/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for browsing statistics.
//
// The sync key is enabled when a spreadsheet URL is configured.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	year, k := r.analysisParams(cmd)
	storePath := r.storePath(cmd, "input")
	opts := ui.Options{StorePath: storePath, Year: year, TopK: k}

	if _, err := r.sheetSource(""); err == nil {
		opts.Sync = func(progress chan<- tasks.ProgressUpdate) ui.SyncRunner {
			syncer, closeDB, err := r.newSyncer("", storePath, true, progress)
			if err != nil {
				return failedSync{err}
			}
			return closingSync{syncer, closeDB}
		}
	} else {
		r.logger.Warn("sync disabled in TUI", "error", err)
	}

	engine := tasks.NewAnalysisEngine(tasks.AnalysisOpts{Logger: r.logger})
	model := ui.NewModel(ctx, engine, opts)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// closingSync releases the sync history database after its cycle.
type closingSync struct {
	syncer *tasks.Syncer
	close  func()
}

func (c closingSync) RunOnce(ctx context.Context) tasks.CycleResult {
	defer c.close()
	return c.syncer.RunOnce(ctx)
}

// failedSync reports a syncer that could not be built as a failed cycle.
type failedSync struct{ err error }

func (f failedSync) RunOnce(ctx context.Context) tasks.CycleResult {
	return tasks.CycleResult{Err: f.err}
}
