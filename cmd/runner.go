package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlog/internal/repositories"
	"github.com/desertthunder/playlog/internal/services"
	"github.com/desertthunder/playlog/internal/shared"
	"github.com/desertthunder/playlog/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	source     services.Source
	db         *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client // nil builds a client with the configured sheet timeout
	Logger     *log.Logger
	Output     io.Writer
	Source     services.Source // overrides the configured spreadsheet
	DB         *sql.DB         // overrides the configured database; never closed by the Runner
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		source:     opts.Source,
		db:         opts.DB,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, syncCommand, analyzeCommand, tuiCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before applies the global flags: log level and configuration file.
//
// A missing config file is not an error; the embedded defaults are used until `setup config` writes one.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}
	if r.configPath == "" {
		return ctx, nil
	}

	if _, err := os.Stat(r.configPath); err != nil {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
		return ctx, nil
	}

	config, err := shared.LoadConfig(r.configPath)
	if err != nil {
		return ctx, fmt.Errorf("%w: %w", shared.ErrInvalidConfig, err)
	}
	if err := config.Validate(); err != nil {
		return ctx, err
	}
	r.config = config
	r.logger.Debug("loaded config", "path", r.configPath)
	return ctx, nil
}

// SetLogger replaces the logger used by every command.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// sheetSource returns the injected source or a [services.SheetService] for url (falling back to the config).
func (r *Runner) sheetSource(url string) (services.Source, error) {
	if r.source != nil {
		return r.source, nil
	}
	if url == "" {
		url = r.config.Sheet.URL
	}
	if url == "" {
		return nil, fmt.Errorf("%w: sheet url (set sheet.url or pass --url)", shared.ErrMissingArgument)
	}
	if _, err := services.ExportURL(url); err != nil {
		return nil, err
	}

	return services.NewSheetService(url, services.SheetOpts{
		HTTPClient:        r.httpClient,
		Timeout:           r.config.Sheet.Timeout(),
		RequestsPerMinute: r.config.Sheet.RequestsPerMinute,
	}), nil
}

// storePath returns the --input/--store flag value or the configured store path.
func (r *Runner) storePath(cmd *cli.Command, flag string) string {
	if path := cmd.String(flag); path != "" {
		return path
	}
	return r.config.Sync.StorePath
}

// openDatabase returns the sync history database with migrations applied.
//
// The returned func closes a database opened here and is a no-op for an injected one.
func (r *Runner) openDatabase() (*sql.DB, func(), error) {
	if r.db != nil {
		return r.db, func() {}, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, func() { db.Close() }, nil
}

// newSyncer wires a [tasks.Syncer] pulling from url into the store at storePath.
//
// Sync history is recorded when the database opens (and withHistory is set); otherwise the syncer runs without it.
func (r *Runner) newSyncer(url, storePath string, withHistory bool, progress chan<- tasks.ProgressUpdate) (*tasks.Syncer, func(), error) {
	source, err := r.sheetSource(url)
	if err != nil {
		return nil, nil, err
	}

	store := repositories.NewEventStore(storePath)
	opts := tasks.SyncerOpts{Logger: r.logger, Progress: progress}
	closeDB := func() {}

	if withHistory {
		db, closeFn, err := r.openDatabase()
		if err != nil {
			r.logger.Warn("sync history disabled", "error", err)
		} else {
			opts.Recorder = repositories.NewSyncRunRepository(db)
			closeDB = closeFn
		}
	}

	return tasks.NewSyncer(source, store, opts), closeDB, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
