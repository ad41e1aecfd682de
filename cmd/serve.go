package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/desertthunder/playlog/internal/repositories"
	"github.com/desertthunder/playlog/internal/server"
	"github.com/desertthunder/playlog/internal/shared"
	"github.com/desertthunder/playlog/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Serve runs the statistics HTTP API until SIGINT/SIGTERM.
//
// Sync history is served when the database opens; the sync trigger when a spreadsheet URL is configured.
// With --watch the sync loop also runs in the background and each cycle is reported by /health.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	host := r.config.Server.Host
	if cmd.IsSet("host") {
		host = cmd.String("host")
	}
	port := r.config.Server.Port
	if cmd.IsSet("port") {
		port = int(cmd.Int("port"))
	}

	storePath := r.storePath(cmd, "input")
	opts := server.APIOpts{
		Stats:     tasks.NewAnalysisEngine(tasks.AnalysisOpts{Logger: r.logger}),
		StorePath: storePath,
		TopK:      r.config.Analysis.TopK,
		Year:      r.config.Analysis.Year,
	}

	syncOpts := tasks.SyncerOpts{Logger: r.logger}
	if !cmd.Bool("no-history") {
		db, closeDB, err := r.openDatabase()
		if err != nil {
			r.logger.Warn("sync history disabled", "error", err)
		} else {
			defer closeDB()
			runs := repositories.NewSyncRunRepository(db)
			opts.Runs = runs
			syncOpts.Recorder = runs
		}
	}

	var api *server.API
	var syncer *tasks.Syncer
	if source, err := r.sheetSource(""); err != nil {
		r.logger.Warn("sync trigger disabled", "error", err)
	} else {
		syncOpts.OnCycle = func(result tasks.CycleResult) { api.RecordCycle(result) }
		syncer = tasks.NewSyncer(source, repositories.NewEventStore(storePath), syncOpts)
		opts.Sync = syncer
	}
	api = server.NewAPI(opts)

	watch := cmd.Bool("watch")
	if watch && syncer == nil {
		return fmt.Errorf("%w: --watch needs a spreadsheet url (sheet.url)", shared.ErrMissingArgument)
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	loopDone := make(chan struct{})
	if watch {
		go func() {
			defer close(loopDone)
			syncer.Loop(ctx, r.config.Sync.Interval())
		}()
	} else {
		close(loopDone)
	}

	router := server.NewRouter(api, r.logger)
	r.logger.Debug("registered routes", "routes", router.Routes())
	err = server.Serve(ctx, ln, router, r.logger)
	stop()
	<-loopDone
	return err
}
