// Package embedding defines the interface for text embedding providers.
// It allows the application to use different embedding backends (Ollama, Hugging Face, etc.)
// interchangeably when building a dataset from raw text.
package embedding

import (
	"context"
	"fmt"
)

// Embedder is the interface that text embedding providers must implement.
type Embedder interface {
	// Embed converts the provided text into a vector embedding.
	// It returns a slice of float32 values representing the text in embedding space,
	// or an error if the embedding request fails.
	// If the input text is empty, Embed should return nil without error.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ProgressFunc is told how many texts have been embedded so far.
type ProgressFunc func(done, total int, text string)

// EmbedAll embeds every text in order, skipping texts for which the embedder returns
// no vector. The returned labels hold the texts that produced a vector.
func EmbedAll(ctx context.Context, embedder Embedder, texts []string, progress ProgressFunc) ([][]float32, []string, error) {
	vectors := make([][]float32, 0, len(texts))
	labels := make([]string, 0, len(texts))

	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		vector, err := embedder.Embed(ctx, text)
		if err != nil {
			return nil, nil, fmt.Errorf("embed %q: %w", text, err)
		}
		if progress != nil {
			progress(i+1, len(texts), text)
		}
		if vector == nil {
			continue
		}

		vectors = append(vectors, vector)
		labels = append(labels, text)
	}

	return vectors, labels, nil
}
