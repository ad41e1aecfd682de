package main

import (
	"context"
	"os"

	"github.com/desertthunder/playlog/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:     "playlog",
		Usage:    "Sync a spreadsheet playback log and report yearly listening statistics",
		Version:  "0.1.0",
		Flags:    rootFlags(),
		Before:   runner.Before,
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
