package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nicolascine/embedding-viz/qdrant"
	"github.com/nicolascine/embedding-viz/vecmath"
)

const upsertBatchSize = 64

func newEmbedCommand(state *app) *cobra.Command {
	var sources sourceFlags

	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Embed texts and store the vectors in Qdrant",
		Long: `Embed texts with Ollama (default) or Hugging Face and upsert them into the
configured Qdrant collection, ready for "view --qdrant" or "project --qdrant".`,
		Example: `  embedding-viz embed --preload
  embedding-viz embed --texts notes.csv
  embedding-viz embed --hf-dataset imdb --hf-column text --hf-max-rows 200`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("embedder") {
				sources.embedder = "ollama"
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return state.runEmbed(ctx, cmd, &sources)
		},
	}

	sources.registerTextFlags(cmd)
	return cmd
}

func (state *app) runEmbed(ctx context.Context, cmd *cobra.Command, sources *sourceFlags) error {
	switch sources.textSourceCount() {
	case 0:
		return fmt.Errorf("give one of --texts, --preload or --hf-dataset")
	case 1:
	default:
		return errConflictingSources
	}

	embedder, err := newEmbedder(sources.embedder, state.config)
	if err != nil {
		return err
	}
	if embedder == nil {
		return fmt.Errorf("pseudo-embeddings are not stored; use --embedder ollama or huggingface")
	}

	data, err := state.embedTexts(ctx, sources, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	// A new collection takes its vector size from the model that produced the vectors.
	store, err := state.qdrantClientSized(ctx, uint64(data.Dimensions))
	if err != nil {
		return err
	}

	batch := make([]qdrant.Point, 0, upsertBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := store.Upsert(ctx, batch); err != nil {
			return fmt.Errorf("upsert: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	for i, vector := range vecmath.ToFloat32(data.Vectors) {
		batch = append(batch, qdrant.Point{ID: uuid.New().String(), Text: data.Label(i), Vector: vector})
		if len(batch) == upsertBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	state.logger.Info("stored embeddings", "count", data.Len(), "collection", state.config.Qdrant.Collection)
	return nil
}
