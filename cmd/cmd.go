// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// rootFlags are inherited by every subcommand.
func rootFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug logging",
		},
	}
}

// setupCommand handles setup operations for configuration and the sync history database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write the default configuration file",
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize the sync history database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration",
					},
					&cli.BoolFlag{
						Name:  "status",
						Usage: "Show applied and pending migrations",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// syncCommand handles ingestion from the remote spreadsheet into the local store
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Keep the local playback store in sync with the spreadsheet",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Fetch and merge the spreadsheet on a fixed interval until interrupted",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "url",
						Usage: "Spreadsheet edit URL (default: sheet.url)",
					},
					&cli.StringFlag{
						Name:    "store",
						Aliases: []string{"s"},
						Usage:   "Local store CSV path (default: sync.store_path)",
					},
					&cli.DurationFlag{
						Name:    "interval",
						Aliases: []string{"i"},
						Usage:   "Wait between cycles (default: sync.interval_seconds)",
					},
					&cli.BoolFlag{
						Name:  "once",
						Usage: "Run a single cycle and exit",
					},
					&cli.BoolFlag{
						Name:  "no-history",
						Usage: "Do not record cycles in the sync history database",
					},
				},
				Action: r.SyncRun,
			},
			{
				Name:  "history",
				Usage: "List recorded sync cycles, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to list",
						Value: 20,
					},
					&cli.StringFlag{
						Name:  "status",
						Usage: "Only list runs with this status (ok, failed, running)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.SyncHistory,
			},
			{
				Name:  "export-url",
				Usage: "Print the CSV export URL for a spreadsheet edit URL",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "url",
					},
				},
				Action: r.SyncExportURL,
			},
		},
	}
}

// analyzeCommand computes the yearly statistics from the local store
func analyzeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "analyze",
		Aliases: []string{"stats"},
		Usage:   "Compute monthly plays, top artists and songs for a year",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "year",
				Aliases: []string{"y"},
				Usage:   "Year to analyze (default: analysis.year, 0 = current year)",
			},
			&cli.IntFlag{
				Name:    "top",
				Aliases: []string{"k"},
				Usage:   "Number of ranked artists and songs (default: analysis.top_k)",
			},
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Local store CSV path (default: sync.store_path)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Save the report to --output",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Report format: json, csv, markdown, txt (default: analysis.format)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Report path (default: analysis.output_path)",
			},
		},
		Action: r.Analyze,
	}
}

// tuiCommand returns the top-level TUI command for browsing statistics.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Browse playback statistics interactively",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "year",
				Aliases: []string{"y"},
				Usage:   "Year to analyze (default: analysis.year, 0 = current year)",
			},
			&cli.IntFlag{
				Name:    "top",
				Aliases: []string{"k"},
				Usage:   "Number of ranked artists and songs (default: analysis.top_k)",
			},
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Local store CSV path (default: sync.store_path)",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where logs are written while the TUI runs",
				Value: "./tmp/playlog-tui.log",
			},
		},
		Action: r.TUI,
	}
}

// serveCommand runs the statistics HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve statistics and sync history as JSON over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (default: server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (default: server.port)",
			},
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Local store CSV path (default: sync.store_path)",
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Disable the sync history and sync trigger endpoints",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Also run the sync loop in the background at sync.interval",
			},
		},
		Action: r.Serve,
	}
}
