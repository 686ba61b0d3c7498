package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/nicolascine/embedding-viz/tui"
)

func newViewCommand(state *app) *cobra.Command {
	var (
		sources        sourceFlags
		projectionOpts projectionFlags
		input          bool
	)

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Explore a projection in an interactive scatter plot",
		Long: `Open the terminal viewer. Tab switches between PCA and t-SNE, +/- adjusts
the t-SNE perplexity, the arrow keys or the mouse select a point and / toggles
its details.

With --input-box and a service embedder (--embedder ollama), press I to embed
new texts; with --qdrant they are also stored in the collection.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := projectionOpts.apply(cmd, state.config); err != nil {
				return err
			}

			data, err := state.loadDataset(cmd.Context(), &sources, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			// Logging to the terminal would corrupt the screen.
			logger := logr.Discard()
			if state.logFile != "" {
				logger = state.logger
			}

			options := tui.Options{
				Dataset:  data,
				Settings: state.config.ProjectionSettings(),
				Version:  version,
				Logger:   logger,
			}
			if input {
				embedder, err := newEmbedder(sources.embedder, state.config)
				if err != nil {
					return err
				}
				if embedder == nil {
					return fmt.Errorf("--input-box needs --embedder ollama or huggingface")
				}
				options.Embedder = embedder
				if sources.qdrant {
					store, err := state.qdrantClient(cmd.Context())
					if err != nil {
						return err
					}
					options.Store = store
				}
			}

			program := tea.NewProgram(tui.NewModel(options), tea.WithAltScreen(), tea.WithMouseAllMotion())
			if _, err := program.Run(); err != nil {
				return fmt.Errorf("running viewer: %w", err)
			}
			return nil
		},
	}

	sources.register(cmd)
	projectionOpts.register(cmd)
	cmd.Flags().BoolVar(&input, "input-box", false, "Allow embedding new texts from the viewer")
	return cmd
}
