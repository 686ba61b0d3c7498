package projection

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMethod(t *testing.T) {
	tests := []struct {
		input    string
		expected Method
	}{
		{"pca", MethodPCA},
		{"PCA", MethodPCA},
		{" linear ", MethodPCA},
		{"tsne", MethodTSNE},
		{"t-SNE", MethodTSNE},
		{"nonlinear", MethodTSNE},
	}

	for _, tc := range tests {
		method, err := ParseMethod(tc.input)
		require.NoError(t, err, tc.input)
		assert.Equal(t, tc.expected, method, tc.input)
	}

	_, err := ParseMethod("umap")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestMethodNextCycles(t *testing.T) {
	assert.Equal(t, MethodTSNE, MethodPCA.Next())
	assert.Equal(t, MethodPCA, MethodTSNE.Next())
	assert.Equal(t, MethodPCA, Method("bogus").Next())
	assert.Equal(t, "t-SNE", MethodTSNE.String())
}

func TestProjectDispatch(t *testing.T) {
	data := clusteredData(rand.New(rand.NewSource(1)), 4, 3, [][]float64{{0, 0, 0}, {3, 3, 3}})

	for _, method := range Methods() {
		settings := DefaultSettings()
		settings.Method = method
		settings.Nonlinear.Iterations = 20

		points, err := Project(context.Background(), data, settings)
		require.NoError(t, err, method)
		assert.Len(t, points, len(data), method)
	}

	settings := DefaultSettings()
	settings.Method = "umap"
	_, err := Project(context.Background(), data, settings)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
