package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nicolascine/embedding-viz/export"
	"github.com/nicolascine/embedding-viz/projection"
)

var errNoLayout = errors.New("no layout stored")

func newLayoutCommand(state *app) *cobra.Command {
	var (
		method string
		format string
	)

	cmd := &cobra.Command{
		Use:   "layout <file.db>",
		Short: "Print a layout stored by project --format sqlite",
		Example: `  embedding-viz layout layouts.db --method tsne
  embedding-viz layout layouts.db --format csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("method") {
				method = state.config.Method
			}
			selected, err := projection.ParseMethod(method)
			if err != nil {
				return err
			}
			outputFormat, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			records, err := export.ReadSQLite(cmd.Context(), args[0], selected)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				return fmt.Errorf("%s in %s: %w", selected, args[0], errNoLayout)
			}

			switch outputFormat {
			case export.FormatCSV:
				return export.WriteCSV(cmd.OutOrStdout(), records)
			case export.FormatJSON:
				return export.WriteJSON(cmd.OutOrStdout(), records)
			default:
				return fmt.Errorf("layout prints json or csv, not %s", outputFormat)
			}
		},
	}

	cmd.Flags().StringVarP(&method, "method", "m", "pca", "Projection method of the stored layout: pca or tsne")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format: json or csv")
	return cmd
}
