package huggingface

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFeatures(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected []float32
	}{
		{"pooled vector", `[0.5, 1.5]`, []float32{0.5, 1.5}},
		{"batch of one", `[[0.5, 1.5]]`, []float32{0.5, 1.5}},
		{"token vectors", `[[[1, 2], [3, 6]]]`, []float32{2, 4}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			vector, err := decodeFeatures([]byte(tc.body))
			require.NoError(t, err)
			assert.Equal(t, tc.expected, vector)
		})
	}

	_, err := decodeFeatures([]byte(`[]`))
	assert.Error(t, err)
	_, err = decodeFeatures([]byte(`{"error": "loading"}`))
	assert.Error(t, err)
}

func TestEmbeddingsClientEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pipeline/feature-extraction/test/model", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Write([]byte(`[[0.25, 0.75]]`))
	}))
	defer server.Close()

	client := NewEmbeddingsClient("test/model", "secret")
	client.baseURL = server.URL

	vector, err := client.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, 0.75}, vector)

	empty, err := client.Embed(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, empty)
}
