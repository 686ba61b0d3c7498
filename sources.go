package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/muesli/reflow/truncate"
	"github.com/spf13/cobra"

	"github.com/nicolascine/embedding-viz/config"
	"github.com/nicolascine/embedding-viz/dataset"
	"github.com/nicolascine/embedding-viz/embedding"
	"github.com/nicolascine/embedding-viz/huggingface"
	"github.com/nicolascine/embedding-viz/ollama"
	"github.com/nicolascine/embedding-viz/preload"
	"github.com/nicolascine/embedding-viz/qdrant"
)

const (
	defaultSyntheticPoints   = 200
	defaultSyntheticDims     = 50
	defaultSyntheticClusters = 5
	httpTimeout              = 60 * time.Second
)

var errConflictingSources = errors.New("choose a single input source")

// sourceFlags select where vectors or texts come from.
type sourceFlags struct {
	input     string
	url       string
	synthetic int
	dims      int
	clusters  int

	texts     string
	preload   bool
	hfDataset string
	hfConfig  string
	hfSplit   string
	hfColumn  string
	hfMaxRows int
	embedder  string

	qdrant bool
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.input, "input", "i", "", "JSON embedding file")
	flags.StringVar(&f.url, "url", "", "URL of a JSON embedding file")
	flags.IntVar(&f.synthetic, "synthetic", 0, "Generate this many clustered synthetic vectors (default source)")
	flags.IntVar(&f.dims, "dims", defaultSyntheticDims, "Dimensions of synthetic vectors")
	flags.IntVar(&f.clusters, "clusters", defaultSyntheticClusters, "Number of synthetic clusters")

	f.registerTextFlags(cmd)

	flags.BoolVar(&f.qdrant, "qdrant", false, "Load vectors stored in the configured Qdrant collection")
}

// registerTextFlags adds only the flags that produce texts to embed.
func (f *sourceFlags) registerTextFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.texts, "texts", "", "CSV or JSON file of texts to embed")
	flags.BoolVar(&f.preload, "preload", false, "Use the built-in demo word list")
	flags.StringVar(&f.hfDataset, "hf-dataset", "", "Hugging Face dataset to read texts from")
	flags.StringVar(&f.hfConfig, "hf-config", "default", "Hugging Face dataset config")
	flags.StringVar(&f.hfSplit, "hf-split", "train", "Hugging Face dataset split")
	flags.StringVar(&f.hfColumn, "hf-column", "text", "Hugging Face dataset text column")
	flags.IntVar(&f.hfMaxRows, "hf-max-rows", 500, "Maximum rows to fetch from Hugging Face (0 = all)")
	flags.StringVar(&f.embedder, "embedder", "pseudo", "Text embedder: pseudo, ollama or huggingface")
}

func (f *sourceFlags) textSourceCount() int {
	count := 0
	for _, set := range []bool{f.texts != "", f.preload, f.hfDataset != ""} {
		if set {
			count++
		}
	}
	return count
}

func (f *sourceFlags) sourceCount() int {
	count := f.textSourceCount()
	for _, set := range []bool{f.input != "", f.url != "", f.synthetic > 0, f.qdrant} {
		if set {
			count++
		}
	}
	return count
}

// loadDataset builds the dataset selected by the flags. Without any source flag it
// generates the default synthetic clusters.
func (state *app) loadDataset(ctx context.Context, f *sourceFlags, progressOutput io.Writer) (*dataset.Dataset, error) {
	if f.sourceCount() > 1 {
		return nil, errConflictingSources
	}

	var (
		data *dataset.Dataset
		err  error
	)
	switch {
	case f.input != "":
		data, err = dataset.LoadFile(f.input)
	case f.url != "":
		data, err = dataset.LoadURL(ctx, &http.Client{Timeout: httpTimeout}, f.url)
	case f.qdrant:
		data, err = state.loadFromQdrant(ctx)
	case f.textSourceCount() == 1:
		data, err = state.embedTexts(ctx, f, progressOutput)
	default:
		n := f.synthetic
		if n == 0 {
			n = defaultSyntheticPoints
		}
		data, err = dataset.GenerateClusters(n, f.dims, f.clusters, rand.New(rand.NewSource(state.config.Seed)))
	}
	if err != nil {
		return nil, err
	}

	if err := data.Validate(); err != nil {
		return nil, err
	}
	state.logger.Info("dataset loaded", "points", data.Len(), "dimensions", data.Dimensions)
	return data, nil
}

func (state *app) loadFromQdrant(ctx context.Context) (*dataset.Dataset, error) {
	client, err := state.qdrantClient(ctx)
	if err != nil {
		return nil, err
	}
	return client.Dataset(ctx)
}

// qdrantClient connects to the configured collection; the connection is closed when
// the program exits.
func (state *app) qdrantClient(ctx context.Context) (*qdrant.Client, error) {
	return state.qdrantClientSized(ctx, state.config.Qdrant.VectorSize)
}

// qdrantClientSized is qdrantClient with the vector size used if the collection has
// to be created.
func (state *app) qdrantClientSized(ctx context.Context, vectorSize uint64) (*qdrant.Client, error) {
	cfg := state.config.Qdrant
	client, err := qdrant.NewClient(ctx, cfg.Address, cfg.Collection, vectorSize)
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant at %s: %w (is it running? docker run -p 6333:6333 -p 6334:6334 qdrant/qdrant)", cfg.Address, err)
	}
	state.closers = append(state.closers, client)
	return client, nil
}

// collectTexts reads the texts named by the text source flags, with per-text
// metadata where the source has any.
func collectTexts(ctx context.Context, f *sourceFlags) ([]string, []map[string]any, error) {
	switch {
	case f.texts != "":
		texts, err := dataset.LoadTexts(f.texts)
		return texts, nil, err
	case f.preload:
		var texts []string
		var metadata []map[string]any
		for _, category := range preload.Categories() {
			for _, word := range category.Words {
				texts = append(texts, word)
				metadata = append(metadata, map[string]any{"category": category.Name})
			}
		}
		return texts, metadata, nil
	case f.hfDataset != "":
		texts, err := huggingface.NewClient().FetchTexts(ctx, f.hfDataset, f.hfConfig, f.hfSplit, f.hfColumn, f.hfMaxRows)
		if err != nil {
			return nil, nil, fmt.Errorf("fetch %s: %w", f.hfDataset, err)
		}
		return texts, nil, nil
	default:
		return nil, nil, fmt.Errorf("no text source given")
	}
}

// newEmbedder returns the service-backed embedder named by name, or nil for "pseudo".
func newEmbedder(name string, cfg *config.Config) (embedding.Embedder, error) {
	switch strings.ToLower(name) {
	case "", "pseudo":
		return nil, nil
	case "ollama":
		return ollama.NewClient(cfg.Ollama.URL, cfg.Ollama.Model), nil
	case "huggingface", "hf":
		return huggingface.NewEmbeddingsClient(cfg.HuggingFace.Model, cfg.HuggingFace.Token), nil
	default:
		return nil, fmt.Errorf("unknown embedder %q (want pseudo, ollama or huggingface)", name)
	}
}

// embedTexts turns the selected texts into a dataset, either with pseudo-embeddings
// or through an embedding service.
func (state *app) embedTexts(ctx context.Context, f *sourceFlags, progressOutput io.Writer) (*dataset.Dataset, error) {
	texts, metadata, err := collectTexts(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("no texts found: %w", dataset.ErrInvalidDataset)
	}

	embedder, err := newEmbedder(f.embedder, state.config)
	if err != nil {
		return nil, err
	}
	if embedder == nil {
		data, err := dataset.FromTexts(texts, dataset.DefaultTextDimensions)
		if err != nil {
			return nil, err
		}
		data.Metadata = metadata
		return data, nil
	}

	fmt.Fprintf(progressOutput, "Embedding %d texts...\n", len(texts))
	vectors, labels, err := embedding.EmbedAll(ctx, embedder, texts, printProgress(progressOutput))
	fmt.Fprintln(progressOutput)
	if err != nil {
		return nil, err
	}

	data := dataset.FromFloat32(vectors, labels)
	if metadata != nil && len(labels) == len(texts) {
		data.Metadata = metadata
	}
	return data, nil
}

// printProgress reports embedding progress on a single line using carriage returns.
func printProgress(w io.Writer) embedding.ProgressFunc {
	return func(done, total int, text string) {
		fmt.Fprintf(w, "\r\033[K[%d/%d] %s", done, total, truncate.StringWithTail(text, 40, "..."))
	}
}
