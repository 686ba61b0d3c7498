package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nicolascine/embedding-viz/export"
	"github.com/nicolascine/embedding-viz/projection"
)

func newProjectCommand(state *app) *cobra.Command {
	var (
		sources        sourceFlags
		projectionOpts projectionFlags
		output         string
		format         string
	)

	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project vectors to 2D and write the layout",
		Long: `Project vectors to 2D with PCA or t-SNE and write one record per point
(index, label, x, y, metadata). Without --output the layout is printed to stdout.`,
		Example: `  embedding-viz project --synthetic 300 --method tsne -o layout.csv
  embedding-viz project -i vectors.json --format sqlite -o layouts.db
  embedding-viz project --preload --embedder ollama --method tsne`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := projectionOpts.apply(cmd, state.config); err != nil {
				return err
			}
			if !cmd.Flags().Changed("format") {
				format = state.config.Export.Format
				if output != "" {
					format = string(export.FormatFromPath(output))
				}
			}
			outputFormat, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			if outputFormat == export.FormatSQLite && output == "" {
				return fmt.Errorf("the sqlite format needs --output")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return state.runProject(ctx, cmd, &sources, output, outputFormat)
		},
	}

	sources.register(cmd)
	projectionOpts.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json, csv or sqlite (default: from --output extension)")
	return cmd
}

func (state *app) runProject(ctx context.Context, cmd *cobra.Command, sources *sourceFlags, output string, format export.Format) error {
	data, err := state.loadDataset(ctx, sources, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	settings := state.config.ProjectionSettings()
	settings.Linear.Logger = state.logger
	settings.Nonlinear.Logger = state.logger
	settings.Nonlinear.Progress = func(iteration int, cost float64) {
		state.logger.Info("t-SNE progress", "iteration", iteration, "of", settings.Nonlinear.Iterations, "cost", cost)
	}

	started := time.Now()
	points, err := projection.Project(ctx, data.Vectors, settings)
	if err != nil {
		return err
	}
	state.logger.Info("projection finished",
		"method", settings.Method.String(),
		"points", len(points),
		"elapsed", time.Since(started).Round(time.Millisecond))

	records := export.Records(points, data)
	if output == "" {
		if format == export.FormatCSV {
			return export.WriteCSV(cmd.OutOrStdout(), records)
		}
		return export.WriteJSON(cmd.OutOrStdout(), records)
	}

	if err := export.WriteFile(ctx, output, format, settings.Method, records); err != nil {
		return err
	}
	state.logger.Info("layout written", "path", output, "format", string(format))
	return nil
}
