package projection

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicolascine/embedding-viz/vecmath"
)

func TestProjectLinear_InvalidInput(t *testing.T) {
	tests := []struct {
		name       string
		data       [][]float64
		targetDims int
	}{
		{"empty matrix", nil, 2},
		{"zero-length rows", [][]float64{{}, {}}, 2},
		{"ragged rows", [][]float64{{1, 2, 3}, {1, 2}}, 2},
		{"NaN entry", [][]float64{{1, math.NaN()}}, 2},
		{"Inf entry", [][]float64{{1, 2}, {math.Inf(1), 0}}, 2},
		{"zero target dims", [][]float64{{1, 2}}, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			points, err := ProjectLinear(tc.data, tc.targetDims)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput), "expected ErrInvalidInput, got %v", err)
			assert.Nil(t, points)
		})
	}
}

func TestProjectLinear_ZeroIterationsRejected(t *testing.T) {
	config := DefaultLinearConfig()
	config.Iterations = 0

	_, err := ProjectLinearWithConfig([][]float64{{1, 2}, {3, 4}}, config)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestProjectLinear_IndicesFollowInputOrder(t *testing.T) {
	data := clusteredData(rand.New(rand.NewSource(1)), 7, 5, [][]float64{{0, 0, 0, 0, 0}, {4, 4, 4, 4, 4}})

	points, err := ProjectLinear(data, 2)
	require.NoError(t, err)
	require.Len(t, points, len(data))

	for i, p := range points {
		assert.Equal(t, i, p.Index)
	}
}

func TestProjectLinear_SinglePoint(t *testing.T) {
	points, err := ProjectLinear([][]float64{{1, 2, 3}}, 2)
	require.NoError(t, err)
	require.Len(t, points, 1)

	assert.InDelta(t, 0, points[0].X, 1e-12)
	assert.InDelta(t, 0, points[0].Y, 1e-12)
}

// Identical rows center to the zero matrix, so every direction degenerates to the zero
// vector and all points land on the origin without producing NaN.
func TestProjectLinear_IdenticalRowsCollapseToOrigin(t *testing.T) {
	data := [][]float64{
		{1.5, -2, 3},
		{1.5, -2, 3},
		{1.5, -2, 3},
		{1.5, -2, 3},
	}

	points, err := ProjectLinear(data, 2)
	require.NoError(t, err)

	for i, p := range points {
		assert.False(t, math.IsNaN(p.X) || math.IsNaN(p.Y), "point %d has NaN coordinates", i)
		assert.InDelta(t, 0, p.X, 1e-9, "point %d", i)
		assert.InDelta(t, 0, p.Y, 1e-9, "point %d", i)
	}
}

func TestProjectLinear_LineHasNoSecondComponent(t *testing.T) {
	direction := []float64{1, 2, -1, 0.5}
	offset := []float64{3, 3, 3, 3}

	data := make([][]float64, 10)
	for i := range data {
		scale := float64(i) - 4.5
		data[i] = make([]float64, len(direction))
		for j := range direction {
			data[i][j] = offset[j] + scale*direction[j]
		}
	}

	points, err := ProjectLinear(data, 2)
	require.NoError(t, err)

	for i, p := range points {
		assert.InDelta(t, 0, p.Y, 1e-6, "point %d should have no second component", i)
	}

	// The first component carries the whole spread of the line.
	spread := math.Abs(points[9].X - points[0].X)
	lineLength := 9 * math.Sqrt(1+4+1+0.25)
	assert.InDelta(t, lineLength, spread, 1e-6)
}

func TestProjectLinear_OneComponentLeavesYZero(t *testing.T) {
	data := clusteredData(rand.New(rand.NewSource(3)), 5, 4, [][]float64{{0, 0, 0, 0}, {2, -2, 2, -2}})

	points, err := ProjectLinear(data, 1)
	require.NoError(t, err)

	for _, p := range points {
		assert.Equal(t, 0.0, p.Y)
	}
}

func TestProjectLinear_RecoversAxisAlignedVariance(t *testing.T) {
	// Most of the variance is along the first axis, a little along the second.
	rng := rand.New(rand.NewSource(11))
	data := make([][]float64, 200)
	for i := range data {
		data[i] = []float64{rng.NormFloat64() * 10, rng.NormFloat64() * 2, rng.NormFloat64() * 0.1}
	}

	points, err := ProjectLinear(data, 2)
	require.NoError(t, err)

	// |x| tracks the first centered axis and |y| the second, up to sign.
	means := vecmath.ColumnMeans(data)
	var xCorrelation, yCorrelation, xNorm, yNorm, aNorm, bNorm float64
	for i, p := range points {
		a := data[i][0] - means[0]
		b := data[i][1] - means[1]
		xCorrelation += p.X * a
		yCorrelation += p.Y * b
		xNorm += p.X * p.X
		yNorm += p.Y * p.Y
		aNorm += a * a
		bNorm += b * b
	}

	assert.Greater(t, math.Abs(xCorrelation)/math.Sqrt(xNorm*aNorm), 0.99)
	assert.Greater(t, math.Abs(yCorrelation)/math.Sqrt(yNorm*bNorm), 0.95)
}

func TestProjectLinear_ComponentsAreOrthogonal(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	data := clusteredData(rng, 10, 6, [][]float64{
		{0, 0, 0, 0, 0, 0},
		{5, 0, 1, 0, 0, 2},
		{0, 4, 0, -3, 1, 0},
	})

	centered := centerDataMatrix(data, len(data), 6)
	residual := centered
	first, _ := findDominantDirection(residual, 100, rng)
	deflateResidualMatrix(residual, first)
	second, _ := findDominantDirection(residual, 100, rng)

	var dot float64
	for i := range first {
		dot += first[i] * second[i]
	}
	assert.InDelta(t, 0, dot, 1e-6)
}

func TestProjectLinear_DoesNotModifyInput(t *testing.T) {
	data := [][]float64{{1, 2}, {3, 5}, {-1, 0}}
	original := [][]float64{{1, 2}, {3, 5}, {-1, 0}}

	_, err := ProjectLinear(data, 2)
	require.NoError(t, err)
	assert.Equal(t, original, data)
}

func TestProjectLinear_Reproducibility(t *testing.T) {
	data := clusteredData(rand.New(rand.NewSource(2)), 8, 6, [][]float64{{0, 0, 0, 0, 0, 0}, {3, 1, 4, 1, 5, 9}})

	config := DefaultLinearConfig()
	config.RandomSeed = 99

	result1, err := ProjectLinearWithConfig(data, config)
	require.NoError(t, err)
	result2, err := ProjectLinearWithConfig(data, config)
	require.NoError(t, err)

	assert.Equal(t, result1, result2)
}

func TestProjectLinear_InjectedRandomSource(t *testing.T) {
	data := clusteredData(rand.New(rand.NewSource(2)), 8, 6, [][]float64{{0, 0, 0, 0, 0, 0}, {3, 1, 4, 1, 5, 9}})

	run := func() []Point2D {
		config := DefaultLinearConfig()
		config.Rand = rand.New(rand.NewSource(7))
		points, err := ProjectLinearWithConfig(data, config)
		require.NoError(t, err)
		return points
	}

	assert.Equal(t, run(), run())
}

func BenchmarkProjectLinear(b *testing.B) {
	data := clusteredData(rand.New(rand.NewSource(1)), 100, 128, [][]float64{make([]float64, 128)})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ProjectLinear(data, 2); err != nil {
			b.Fatal(err)
		}
	}
}

// clusteredData returns perClusterCount points around each center, with uniform
// jitter in [-0.5, 0.5) on every axis. Points are grouped by cluster.
func clusteredData(rng *rand.Rand, perClusterCount, dims int, centers [][]float64) [][]float64 {
	data := make([][]float64, 0, perClusterCount*len(centers))
	for _, center := range centers {
		for i := 0; i < perClusterCount; i++ {
			row := make([]float64, dims)
			for j := range row {
				row[j] = center[j] + rng.Float64() - 0.5
			}
			data = append(data, row)
		}
	}
	return data
}
