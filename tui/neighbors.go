package tui

import (
	"math"
	"sort"

	"github.com/viterin/vek/vek32"
)

// neighbor is a point ranked by cosine similarity to the selected one.
type neighbor struct {
	index      int
	similarity float64
}

// nearestNeighbors returns up to k points most similar to selected in the original
// high-dimensional space, most similar first.
func (model Model) nearestNeighbors(selected, k int) []neighbor {
	if selected < 0 || selected >= len(model.vectors32) {
		return nil
	}

	target := model.vectors32[selected]
	candidates := make([]neighbor, 0, len(model.vectors32)-1)
	for index, vector := range model.vectors32 {
		if index == selected {
			continue
		}
		candidates = append(candidates, neighbor{index: index, similarity: cosineSimilarity(target, vector)})
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].similarity > candidates[b].similarity
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates
}

// cosineSimilarity returns 0 instead of NaN when either vector is all zeros.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	similarity := float64(vek32.CosineSimilarity(a, b))
	if math.IsNaN(similarity) || math.IsInf(similarity, 0) {
		return 0
	}
	return similarity
}

// vectorStats summarizes one source vector for the metadata panel.
type vectorStats struct {
	min, max, mean, norm float64
}

func computeVectorStats(vector []float32) vectorStats {
	if len(vector) == 0 {
		return vectorStats{}
	}
	return vectorStats{
		min:  float64(vek32.Min(vector)),
		max:  float64(vek32.Max(vector)),
		mean: float64(vek32.Mean(vector)),
		norm: float64(vek32.Norm(vector)),
	}
}
