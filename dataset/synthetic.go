package dataset

import (
	"fmt"
	"math/rand"
	"unicode/utf16"

	"github.com/nicolascine/embedding-viz/vecmath"
)

// clusterNames label the first synthetic clusters; later ones are "cluster-<k>".
var clusterNames = []string{"science", "technology", "nature", "art", "history"}

// DefaultTextDimensions is the size of pseudo-embeddings built by FromTexts.
const DefaultTextDimensions = 64

// GenerateClusters returns n clustered vectors of the given dimensionality. Cluster
// centers are uniform in [-5, 5) on every axis and members add uniform [-1, 1) jitter.
// Point i belongs to cluster i % clusters and is labeled "<cluster>_<i/clusters>".
func GenerateClusters(n, dims, clusters int, rng *rand.Rand) (*Dataset, error) {
	if n < 1 || dims < 1 || clusters < 1 {
		return nil, fmt.Errorf("need positive count, dimensions and clusters, got %d, %d, %d: %w",
			n, dims, clusters, ErrInvalidDataset)
	}

	centers := make([][]float64, clusters)
	for c := range centers {
		centers[c] = make([]float64, dims)
		for j := range centers[c] {
			centers[c][j] = (rng.Float64() - 0.5) * 10
		}
	}

	d := &Dataset{
		Vectors:    make([][]float64, n),
		Labels:     make([]string, n),
		Metadata:   make([]map[string]any, n),
		Dimensions: dims,
	}
	for i := 0; i < n; i++ {
		cluster := i % clusters
		vector := make([]float64, dims)
		for j, c := range centers[cluster] {
			vector[j] = c + (rng.Float64()-0.5)*2
		}

		d.Vectors[i] = vector
		d.Labels[i] = fmt.Sprintf("%s_%d", clusterName(cluster), i/clusters)
		d.Metadata[i] = map[string]any{"cluster": clusterName(cluster)}
	}
	return d, nil
}

func clusterName(cluster int) string {
	if cluster < len(clusterNames) {
		return clusterNames[cluster]
	}
	return fmt.Sprintf("cluster-%d", cluster)
}

// FromTexts builds hash-based bag-of-characters vectors for texts. They are not real
// embeddings, but similar strings land near each other, which is enough for demos.
// The text is read as UTF-16 code units, so characters outside the Basic Multilingual
// Plane count as two surrogate units. Unit c at position i increments bucket
// (c*31 + i*17) % dims; each vector is then scaled to unit length. Labels are the
// first 30 characters.
func FromTexts(texts []string, dims int) (*Dataset, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no texts: %w", ErrInvalidDataset)
	}
	if dims < 1 {
		return nil, fmt.Errorf("dimensions must be positive, got %d: %w", dims, ErrInvalidDataset)
	}

	d := &Dataset{
		Vectors:    make([][]float64, len(texts)),
		Labels:     make([]string, len(texts)),
		Dimensions: dims,
	}
	for t, text := range texts {
		vector := make([]float64, dims)
		for i, unit := range utf16.Encode([]rune(text)) {
			vector[(int(unit)*31+i*17)%dims]++
		}
		vecmath.Normalize(vector)

		d.Vectors[t] = vector
		d.Labels[t] = truncateRunes(text, 30)
	}
	return d, nil
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
