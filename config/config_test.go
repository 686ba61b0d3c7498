package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicolascine/embedding-viz/projection"
)

func TestLoadDefaults(t *testing.T) {
	config := LoadDefaults()

	require.NoError(t, config.Validate())
	assert.Equal(t, "pca", config.Method)
	assert.Equal(t, 2, config.Linear.TargetDims)
	assert.Equal(t, 100, config.Linear.Iterations)
	assert.Equal(t, 30.0, config.Nonlinear.Perplexity)
	assert.Equal(t, 200.0, config.Nonlinear.LearningRate)
	assert.Equal(t, 500, config.Nonlinear.Iterations)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embedviz.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
method: tsne
seed: 7
nonlinear:
  perplexity: 12
  iterations: 300
qdrant:
  collection: words
`), 0o600))

	config, err := LoadFromFile(path)
	require.NoError(t, err)
	require.NoError(t, config.Validate())

	assert.Equal(t, "tsne", config.Method)
	assert.Equal(t, int64(7), config.Seed)
	assert.Equal(t, 12.0, config.Nonlinear.Perplexity)
	assert.Equal(t, 300, config.Nonlinear.Iterations)
	assert.Equal(t, 200.0, config.Nonlinear.LearningRate, "unset fields keep defaults")
	assert.Equal(t, "words", config.Qdrant.Collection)
	assert.Equal(t, "localhost:6334", config.Qdrant.Address)
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("method: [unclosed"), 0o600))
	_, err = LoadFromFile(path)
	assert.ErrorContains(t, err, "parsing config file")
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embedviz.yaml")
	require.NoError(t, os.WriteFile(path, []byte("method: pca\nnonlinear:\n  perplexity: 12\n"), 0o600))

	t.Setenv("EMBEDVIZ_METHOD", "tsne")
	t.Setenv("EMBEDVIZ_PERPLEXITY", "8.5")
	t.Setenv("EMBEDVIZ_ITERATIONS", "not-a-number")
	t.Setenv("HF_TOKEN", "secret")

	config, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "tsne", config.Method)
	assert.Equal(t, 8.5, config.Nonlinear.Perplexity)
	assert.Equal(t, 500, config.Nonlinear.Iterations, "unparsable values are ignored")
	assert.Equal(t, "secret", config.HuggingFace.Token)
	assert.NotContains(t, config.String(), "secret")
}

func TestLoadFromFileWithoutConfigFileUsesEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("EMBEDVIZ_QDRANT_COLLECTION", "notes")

	config, err := LoadFromFile("")
	require.NoError(t, err)

	assert.Equal(t, "notes", config.Qdrant.Collection)
	assert.Equal(t, LoadFromEnv(), config)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown method", func(c *Config) { c.Method = "umap" }},
		{"zero target dims", func(c *Config) { c.Linear.TargetDims = 0 }},
		{"zero linear iterations", func(c *Config) { c.Linear.Iterations = 0 }},
		{"zero perplexity", func(c *Config) { c.Nonlinear.Perplexity = 0 }},
		{"negative learning rate", func(c *Config) { c.Nonlinear.LearningRate = -1 }},
		{"negative iterations", func(c *Config) { c.Nonlinear.Iterations = -1 }},
		{"unknown export format", func(c *Config) { c.Export.Format = "parquet" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			config := LoadDefaults()
			tc.modify(config)
			assert.ErrorIs(t, config.Validate(), ErrInvalidConfig)
		})
	}
}

func TestProjectionSettings(t *testing.T) {
	config := LoadDefaults()
	config.Method = "t-sne"
	config.Seed = 99
	config.Nonlinear.Perplexity = 5

	settings := config.ProjectionSettings()
	assert.Equal(t, projection.MethodTSNE, settings.Method)
	assert.Equal(t, int64(99), settings.Linear.RandomSeed)
	assert.Equal(t, int64(99), settings.Nonlinear.RandomSeed)
	assert.Equal(t, 5.0, settings.Nonlinear.Perplexity)
}
