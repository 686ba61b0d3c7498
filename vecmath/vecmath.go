// Package vecmath holds the small set of vector primitives shared by the
// projection methods: dot products, squared distances, norms and a
// normalization that tolerates the zero vector.
package vecmath

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// nearZero is the norm below which a vector is treated as degenerate.
const nearZero = 1e-12

// Dot returns the dot product of a and b. Both slices must have the same length.
func Dot(a, b []float64) float64 {
	return floats.Dot(a, b)
}

// SquaredDistance returns the squared Euclidean distance between a and b.
func SquaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}

// Norm returns the Euclidean length of v.
func Norm(v []float64) float64 {
	return floats.Norm(v, 2)
}

// SafeDivisor returns norm, or 1 when norm is too small to divide by.
// Dividing by 1 leaves a degenerate vector unchanged instead of producing NaN.
func SafeDivisor(norm float64) float64 {
	if norm < nearZero {
		return 1
	}
	return norm
}

// Normalize scales v in place to unit length and returns the norm it had.
// A zero (or near-zero) vector is left as is.
func Normalize(v []float64) float64 {
	norm := Norm(v)
	floats.Scale(1/SafeDivisor(norm), v)
	return norm
}

// ColumnMeans returns the arithmetic mean of every column of rows.
// All rows must have the same length as rows[0].
func ColumnMeans(rows [][]float64) []float64 {
	if len(rows) == 0 {
		return nil
	}
	dims := len(rows[0])
	means := make([]float64, dims)
	column := make([]float64, len(rows))
	for j := 0; j < dims; j++ {
		for i, row := range rows {
			column[i] = row[j]
		}
		means[j] = stat.Mean(column, nil)
	}
	return means
}

// ToFloat64 converts float32 vectors to float64 for numerical precision.
func ToFloat64(vectors [][]float32) [][]float64 {
	result := make([][]float64, len(vectors))
	for i, v := range vectors {
		result[i] = make([]float64, len(v))
		for j, val := range v {
			result[i][j] = float64(val)
		}
	}
	return result
}

// ToFloat32 converts float64 vectors to float32, the width used by vector stores.
func ToFloat32(vectors [][]float64) [][]float32 {
	result := make([][]float32, len(vectors))
	for i, v := range vectors {
		result[i] = make([]float32, len(v))
		for j, val := range v {
			result[i][j] = float32(val)
		}
	}
	return result
}
