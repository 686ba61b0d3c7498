package vecmath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDot(t *testing.T) {
	assert.Equal(t, 32.0, Dot([]float64{1, 2, 3}, []float64{4, 5, 6}))
	assert.Equal(t, 0.0, Dot([]float64{1, 0}, []float64{0, 1}))
}

func TestSquaredDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2}, []float64{1, 2}, 0},
		{"pythagorean", []float64{0, 0, 0}, []float64{3, 4, 0}, 25},
		{"negative coordinates", []float64{-1, -1}, []float64{1, 1}, 8},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, SquaredDistance(tc.a, tc.b), 1e-12)
		})
	}
}

func TestNormalize(t *testing.T) {
	v := []float64{3, 4}
	norm := Normalize(v)

	assert.InDelta(t, 5.0, norm, 1e-12)
	assert.InDelta(t, 0.6, v[0], 1e-12)
	assert.InDelta(t, 0.8, v[1], 1e-12)
	assert.InDelta(t, 1.0, Norm(v), 1e-12)
}

// The zero vector is divided by 1 rather than by its zero norm, so it stays
// the zero vector instead of turning into NaNs.
func TestNormalize_ZeroVectorIsLeftDegenerate(t *testing.T) {
	v := []float64{0, 0, 0}
	norm := Normalize(v)

	assert.Equal(t, 0.0, norm)
	for i, x := range v {
		assert.False(t, math.IsNaN(x), "component %d is NaN", i)
		assert.Equal(t, 0.0, x)
	}
}

func TestSafeDivisor(t *testing.T) {
	assert.Equal(t, 1.0, SafeDivisor(0))
	assert.Equal(t, 1.0, SafeDivisor(1e-15))
	assert.Equal(t, 2.5, SafeDivisor(2.5))
}

func TestColumnMeans(t *testing.T) {
	rows := [][]float64{
		{1, 10},
		{3, 20},
		{5, 30},
	}
	means := ColumnMeans(rows)

	require.Len(t, means, 2)
	assert.InDelta(t, 3.0, means[0], 1e-12)
	assert.InDelta(t, 20.0, means[1], 1e-12)
	assert.Nil(t, ColumnMeans(nil))
}

func TestToFloat64(t *testing.T) {
	got := ToFloat64([][]float32{{1.5, 2}, {3}})

	require.Len(t, got, 2)
	assert.Equal(t, []float64{1.5, 2}, got[0])
	assert.Equal(t, []float64{3}, got[1])
}

func TestToFloat32(t *testing.T) {
	got := ToFloat32([][]float64{{0.25, -1}})

	require.Len(t, got, 1)
	assert.Equal(t, []float32{0.25, -1}, got[0])
	assert.Empty(t, ToFloat32(nil))
}
