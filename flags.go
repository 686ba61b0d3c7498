package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nicolascine/embedding-viz/config"
)

// projectionFlags override the configured projection parameters when set.
type projectionFlags struct {
	method       string
	perplexity   float64
	learningRate float64
	iterations   int
	seed         int64
}

func (f *projectionFlags) register(cmd *cobra.Command) {
	defaults := config.LoadDefaults()
	flags := cmd.Flags()
	flags.StringVarP(&f.method, "method", "m", defaults.Method, "Projection method: pca or tsne")
	flags.Float64Var(&f.perplexity, "perplexity", defaults.Nonlinear.Perplexity, "t-SNE perplexity (clamped to points/3)")
	flags.Float64Var(&f.learningRate, "learning-rate", defaults.Nonlinear.LearningRate, "t-SNE learning rate")
	flags.IntVar(&f.iterations, "iterations", defaults.Nonlinear.Iterations, "t-SNE iterations")
	flags.Int64Var(&f.seed, "seed", defaults.Seed, "Random seed")
}

// apply copies explicitly set flags onto cfg and re-validates it.
func (f *projectionFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("method") {
		cfg.Method = f.method
	}
	if flags.Changed("perplexity") {
		cfg.Nonlinear.Perplexity = f.perplexity
	}
	if flags.Changed("learning-rate") {
		cfg.Nonlinear.LearningRate = f.learningRate
	}
	if flags.Changed("iterations") {
		cfg.Nonlinear.Iterations = f.iterations
	}
	if flags.Changed("seed") {
		cfg.Seed = f.seed
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}
