// Package dataset acquires the vectors that get projected: embedding files on disk or
// behind a URL, CSV/JSON text lists, synthetic clustered data and pseudo-embeddings
// derived from raw text.
package dataset

import (
	"errors"
	"fmt"
	"math"

	"github.com/nicolascine/embedding-viz/vecmath"
)

var (
	// ErrUnsupportedFormat is returned for files or payloads whose shape is not recognized.
	ErrUnsupportedFormat = errors.New("dataset: unsupported format")

	// ErrInvalidDataset is returned when vectors are missing or have mismatched lengths.
	ErrInvalidDataset = errors.New("dataset: invalid dataset")
)

// Dataset is an ordered collection of equal-length vectors with optional labels and
// per-point metadata. Row order is the index used to join projected points back.
type Dataset struct {
	Vectors    [][]float64
	Labels     []string
	Metadata   []map[string]any
	Dimensions int
}

// Len returns the number of vectors.
func (d *Dataset) Len() int {
	return len(d.Vectors)
}

// Label returns the label of row i, or "point-i" when none was supplied.
func (d *Dataset) Label(i int) string {
	if i < len(d.Labels) && d.Labels[i] != "" {
		return d.Labels[i]
	}
	return fmt.Sprintf("point-%d", i)
}

// Meta returns the metadata of row i, which may be nil.
func (d *Dataset) Meta(i int) map[string]any {
	if i < len(d.Metadata) {
		return d.Metadata[i]
	}
	return nil
}

// Validate checks that the dataset is non-empty, that all vectors share Dimensions
// and hold finite values, and that labels and metadata do not outnumber vectors.
func (d *Dataset) Validate() error {
	if len(d.Vectors) == 0 {
		return fmt.Errorf("no vectors: %w", ErrInvalidDataset)
	}
	if d.Dimensions == 0 {
		d.Dimensions = len(d.Vectors[0])
	}
	if d.Dimensions == 0 {
		return fmt.Errorf("vectors have no dimensions: %w", ErrInvalidDataset)
	}

	for i, vector := range d.Vectors {
		if len(vector) != d.Dimensions {
			return fmt.Errorf("vector %d has %d dimensions, expected %d: %w", i, len(vector), d.Dimensions, ErrInvalidDataset)
		}
		for _, value := range vector {
			if math.IsNaN(value) || math.IsInf(value, 0) {
				return fmt.Errorf("vector %d contains a non-finite value: %w", i, ErrInvalidDataset)
			}
		}
	}

	if len(d.Labels) > len(d.Vectors) {
		return fmt.Errorf("%d labels for %d vectors: %w", len(d.Labels), len(d.Vectors), ErrInvalidDataset)
	}
	if len(d.Metadata) > len(d.Vectors) {
		return fmt.Errorf("%d metadata entries for %d vectors: %w", len(d.Metadata), len(d.Vectors), ErrInvalidDataset)
	}
	return nil
}

// FromFloat32 builds a dataset from float32 vectors, as returned by embedding services.
func FromFloat32(vectors [][]float32, labels []string) *Dataset {
	converted := vecmath.ToFloat64(vectors)
	d := &Dataset{Vectors: converted, Labels: labels}
	if len(converted) > 0 {
		d.Dimensions = len(converted[0])
	}
	return d
}
