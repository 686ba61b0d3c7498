// Package main provides the entry point for embedding-viz, a terminal tool that
// projects high-dimensional embedding vectors to 2D with PCA or t-SNE. Vectors come
// from JSON files, URLs, synthetic clusters, text embedded through Ollama or Hugging
// Face, or a Qdrant collection; projected layouts are explored in an interactive
// scatter plot or exported as JSON, CSV or SQLite.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/spf13/cobra"

	"github.com/nicolascine/embedding-viz/config"
)

// version is set at build time via ldflags, defaults to "dev" for local builds
var version = "dev"

// app carries state shared by every subcommand once the root pre-run has loaded it.
type app struct {
	configPath string
	verbosity  int
	logFile    string

	config  *config.Config
	logger  logr.Logger
	closers []io.Closer
}

func main() {
	state := &app{}
	rootCmd := newRootCommand(state)

	err := rootCmd.Execute()
	for _, closer := range state.closers {
		closer.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}

func newRootCommand(state *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "embedding-viz",
		Short: "Project embedding vectors to 2D and explore them in the terminal",
		Long: `embedding-viz reduces high-dimensional vectors to 2D for visualization.

Methods:
  • pca   power-iteration principal components (fast, linear)
  • tsne  exact t-SNE (slower, preserves local neighborhoods)

Configuration is read from embedviz.yaml (or --config), then EMBEDVIZ_*
environment variables, then command-line flags.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return state.setup()
		},
	}

	rootCmd.PersistentFlags().StringVar(&state.configPath, "config", "", "Config file (default: ./embedviz.yaml when present)")
	rootCmd.PersistentFlags().IntVarP(&state.verbosity, "verbosity", "v", 0, "Log verbosity (0 = info, 1 = projection details)")
	rootCmd.PersistentFlags().StringVar(&state.logFile, "log-file", "", "Write logs to this file instead of stderr")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "embedding-viz %s\n", version)
		},
	})
	rootCmd.AddCommand(newProjectCommand(state))
	rootCmd.AddCommand(newViewCommand(state))
	rootCmd.AddCommand(newEmbedCommand(state))
	rootCmd.AddCommand(newLayoutCommand(state))

	return rootCmd
}

// setup loads and validates the configuration and builds the logger.
func (state *app) setup() error {
	cfg, err := config.LoadFromFile(state.configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	state.config = cfg

	var output io.Writer = os.Stderr
	if state.logFile != "" {
		file, err := os.OpenFile(state.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		state.closers = append(state.closers, file)
		output = file
	}

	stdr.SetVerbosity(state.verbosity)
	state.logger = stdr.New(log.New(output, "", log.LstdFlags))
	state.logger.V(1).Info("configuration loaded", "config", cfg.String())
	return nil
}
