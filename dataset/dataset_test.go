package dataset

import (
	"context"
	"math"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_RecordArray(t *testing.T) {
	payload := `[
		{"label": "alpha", "vector": [1, 2, 3], "source": "wiki"},
		{"text": "beta text", "vector": [4, 5, 6]},
		{"vector": [7, 8, 9], "score": 0.5}
	]`

	d, err := Decode([]byte(payload))
	require.NoError(t, err)

	assert.Equal(t, 3, d.Len())
	assert.Equal(t, 3, d.Dimensions)
	assert.Equal(t, []string{"alpha", "beta text", "point-2"}, d.Labels)
	assert.Equal(t, []float64{4, 5, 6}, d.Vectors[1])
	assert.Equal(t, map[string]any{"source": "wiki"}, d.Meta(0))
	assert.Equal(t, "beta text", d.Meta(1)["text"])
	assert.Equal(t, 0.5, d.Meta(2)["score"])
}

func TestDecode_Columnar(t *testing.T) {
	payload := `{"vectors": [[1, 0], [0, 1]], "labels": ["x", "y"]}`

	d, err := Decode([]byte(payload))
	require.NoError(t, err)

	assert.Equal(t, 2, d.Len())
	assert.Equal(t, 2, d.Dimensions)
	assert.Equal(t, "y", d.Label(1))
	assert.Nil(t, d.Meta(0))
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		target  error
	}{
		{"unsupported object", `{"points": []}`, ErrUnsupportedFormat},
		{"array of strings", `["a", "b"]`, ErrUnsupportedFormat},
		{"empty array", `[]`, ErrUnsupportedFormat},
		{"ragged vectors", `[{"vector": [1, 2]}, {"vector": [1]}]`, ErrInvalidDataset},
		{"empty columnar", `{"vectors": [], "labels": []}`, ErrInvalidDataset},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.payload))
			assert.ErrorIs(t, err, tc.target)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "embeddings.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"label": "a", "vector": [0.5, 0.25]}]`), 0o600))

	d, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a", d.Label(0))

	_, err = LoadFile(filepath.Join(dir, "embeddings.csv"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data.json" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"vectors": [[1, 2], [3, 4], [5, 6]], "labels": ["a", "b", "c"]}`))
	}))
	defer server.Close()

	d, err := LoadURL(context.Background(), server.Client(), server.URL+"/data.json")
	require.NoError(t, err)
	assert.Equal(t, 3, d.Len())

	_, err = LoadURL(context.Background(), server.Client(), server.URL+"/missing.json")
	assert.ErrorContains(t, err, "unexpected status 404")
}

func TestLoadTexts(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "texts.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("id,Text\n1,hello\n2,\n3,world\n"), 0o600))
	texts, err := LoadTexts(csvPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "world"}, texts)

	jsonPath := filepath.Join(dir, "texts.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"text": "one"}, {"text": "two"}]`), 0o600))
	texts, err = LoadTexts(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, texts)

	_, err = LoadTexts(filepath.Join(dir, "texts.txt"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestGenerateClusters(t *testing.T) {
	d, err := GenerateClusters(12, 8, 6, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.NoError(t, d.Validate())

	assert.Equal(t, 12, d.Len())
	assert.Equal(t, "science_0", d.Labels[0])
	assert.Equal(t, "history_0", d.Labels[4])
	assert.Equal(t, "cluster-5_0", d.Labels[5])
	assert.Equal(t, "science_1", d.Labels[6])
	assert.Equal(t, "technology", d.Meta(1)["cluster"])

	// Members of a cluster stay within the jitter of one another.
	for j := range d.Vectors[0] {
		assert.LessOrEqual(t, math.Abs(d.Vectors[0][j]-d.Vectors[6][j]), 2.0)
	}

	_, err = GenerateClusters(0, 8, 2, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrInvalidDataset)
}

func TestFromTexts(t *testing.T) {
	d, err := FromTexts([]string{"hello", "", "a rather long sentence that will be truncated"}, 16)
	require.NoError(t, err)

	assert.Equal(t, 16, d.Dimensions)
	assert.InDelta(t, 1.0, norm(d.Vectors[0]), 1e-12)

	// An empty text has a zero vector; normalization leaves it at zero.
	assert.Equal(t, 0.0, norm(d.Vectors[1]))

	assert.Equal(t, "a rather long sentence that wi", d.Labels[2])

	// Deterministic for the same text.
	again, err := FromTexts([]string{"hello"}, 16)
	require.NoError(t, err)
	assert.Equal(t, d.Vectors[0], again.Vectors[0])
}

func TestFromTextsCountsSurrogatePairsAsTwoUnits(t *testing.T) {
	d, err := FromTexts([]string{"😀x"}, 64)
	require.NoError(t, err)

	// U+1F600 encodes as 0xD83D 0xDE00, followed by 'x' at position 2.
	want := 1 / math.Sqrt(3)
	for bucket, value := range d.Vectors[0] {
		switch bucket {
		case 35, 17, 42:
			assert.InDelta(t, want, value, 1e-12, "bucket %d", bucket)
		default:
			assert.Equal(t, 0.0, value, "bucket %d", bucket)
		}
	}
}

func TestValidate(t *testing.T) {
	d := &Dataset{Vectors: [][]float64{{1, 2}, {3, math.NaN()}}}
	assert.ErrorIs(t, d.Validate(), ErrInvalidDataset)

	d = &Dataset{Vectors: [][]float64{{1}}, Labels: []string{"a", "b"}}
	assert.ErrorIs(t, d.Validate(), ErrInvalidDataset)

	d = &Dataset{Vectors: [][]float64{{1, 2}}}
	require.NoError(t, d.Validate())
	assert.Equal(t, 2, d.Dimensions)
	assert.Equal(t, "point-0", d.Label(0))
}

func TestFromFloat32(t *testing.T) {
	d := FromFloat32([][]float32{{1, 2}, {3, 4}}, []string{"a", "b"})
	assert.Equal(t, 2, d.Dimensions)
	assert.Equal(t, []float64{3, 4}, d.Vectors[1])
}

func norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
