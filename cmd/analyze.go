package main

import (
	"context"

	"github.com/desertthunder/playlog/internal/formatter"
	"github.com/desertthunder/playlog/internal/models"
	"github.com/desertthunder/playlog/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Analyze computes the yearly statistics from the local store and prints them.
//
// With --save (or an explicit --output) the report is also written in the configured format.
func (r *Runner) Analyze(ctx context.Context, cmd *cli.Command) error {
	year, k := r.analysisParams(cmd)
	path := r.storePath(cmd, "input")

	engine := tasks.NewAnalysisEngine(tasks.AnalysisOpts{Logger: r.logger})
	result, err := engine.Analyze(path, year, k)
	if err != nil {
		return err
	}

	if cmd.Bool("save") || cmd.IsSet("output") {
		if err := r.saveReport(cmd, result); err != nil {
			return err
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}
	return r.writePlain("%s\n", formatter.RenderReport(result))
}

// analysisParams resolves --year and --top against the [analysis] config section.
func (r *Runner) analysisParams(cmd *cli.Command) (year, k int) {
	year, k = r.config.Analysis.Year, r.config.Analysis.TopK
	if cmd.IsSet("year") {
		year = int(cmd.Int("year"))
	}
	if cmd.IsSet("top") {
		k = int(cmd.Int("top"))
	}
	return year, k
}

func (r *Runner) saveReport(cmd *cli.Command, result *models.AggregationResult) error {
	name := cmd.String("format")
	if name == "" {
		name = r.config.Analysis.Format
	}
	format, err := formatter.ParseFormat(name)
	if err != nil {
		return err
	}

	output := cmd.String("output")
	if output == "" {
		output = r.config.Analysis.OutputPath
	}

	paths, err := formatter.WriteReport(result, format, output)
	if err != nil {
		return err
	}
	for _, p := range paths {
		r.logger.Info("report saved", "format", format, "path", p)
	}
	return nil
}
