// Package config handles embedding-viz configuration via YAML files and environment variables.
//
// Configuration Precedence (highest to lowest):
//  1. Command-line flags (--method, --perplexity, etc.)
//  2. Environment variables (EMBEDVIZ_*)
//  3. Config file (embedviz.yaml)
//  4. Built-in defaults
//
// Environment Variables:
//   - EMBEDVIZ_METHOD="pca" or "tsne"
//   - EMBEDVIZ_PERPLEXITY=30
//   - EMBEDVIZ_LEARNING_RATE=200
//   - EMBEDVIZ_ITERATIONS=500
//   - EMBEDVIZ_SEED=42
//   - EMBEDVIZ_OLLAMA_URL="http://localhost:11434"
//   - EMBEDVIZ_OLLAMA_MODEL="nomic-embed-text"
//   - EMBEDVIZ_QDRANT_ADDRESS="localhost:6334"
//   - EMBEDVIZ_QDRANT_COLLECTION="embeddings"
//   - HF_TOKEN / EMBEDVIZ_HF_TOKEN
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nicolascine/embedding-viz/projection"
)

// DefaultConfigFile is looked up in the working directory when no path is given.
const DefaultConfigFile = "embedviz.yaml"

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the full application configuration.
type Config struct {
	Method string `yaml:"method"`
	Seed   int64  `yaml:"seed"`

	Linear struct {
		TargetDims int `yaml:"target_dims"`
		Iterations int `yaml:"iterations"`
	} `yaml:"linear"`

	Nonlinear struct {
		Perplexity   float64 `yaml:"perplexity"`
		LearningRate float64 `yaml:"learning_rate"`
		Iterations   int     `yaml:"iterations"`
	} `yaml:"nonlinear"`

	Ollama struct {
		URL   string `yaml:"url"`
		Model string `yaml:"model"`
	} `yaml:"ollama"`

	Qdrant struct {
		Address    string `yaml:"address"`
		Collection string `yaml:"collection"`
		// VectorSize is used when view or project create a missing collection.
		// embed sizes new collections from the embeddings it stores.
		VectorSize uint64 `yaml:"vector_size"`
	} `yaml:"qdrant"`

	HuggingFace struct {
		Token string `yaml:"token"`
		Model string `yaml:"model"`
	} `yaml:"huggingface"`

	Export struct {
		Format string `yaml:"format"`
	} `yaml:"export"`
}

// LoadDefaults returns the built-in configuration.
func LoadDefaults() *Config {
	config := &Config{}
	config.Method = string(projection.MethodPCA)
	config.Seed = projection.DefaultRandomSeed

	linear := projection.DefaultLinearConfig()
	config.Linear.TargetDims = linear.TargetDims
	config.Linear.Iterations = linear.Iterations

	nonlinear := projection.DefaultNonlinearConfig()
	config.Nonlinear.Perplexity = nonlinear.Perplexity
	config.Nonlinear.LearningRate = nonlinear.LearningRate
	config.Nonlinear.Iterations = nonlinear.Iterations

	config.Ollama.URL = "http://localhost:11434"
	config.Ollama.Model = "nomic-embed-text"

	config.Qdrant.Address = "localhost:6334"
	config.Qdrant.Collection = "embeddings"
	config.Qdrant.VectorSize = 768

	config.HuggingFace.Model = "sentence-transformers/all-MiniLM-L6-v2"

	config.Export.Format = "json"
	return config
}

// LoadFromFile reads defaults, then the YAML file at path, then environment variables.
// An empty path loads DefaultConfigFile when it exists and defaults otherwise.
func LoadFromFile(path string) (*Config, error) {
	config := LoadDefaults()

	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err != nil {
			return LoadFromEnv(), nil
		}
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	applyEnvVars(config)
	return config, nil
}

// LoadFromEnv returns the defaults overridden by environment variables.
func LoadFromEnv() *Config {
	config := LoadDefaults()
	applyEnvVars(config)
	return config
}

func applyEnvVars(config *Config) {
	if v := os.Getenv("EMBEDVIZ_METHOD"); v != "" {
		config.Method = v
	}
	if v, ok := envInt64("EMBEDVIZ_SEED"); ok {
		config.Seed = v
	}
	if v, ok := envFloat("EMBEDVIZ_PERPLEXITY"); ok {
		config.Nonlinear.Perplexity = v
	}
	if v, ok := envFloat("EMBEDVIZ_LEARNING_RATE"); ok {
		config.Nonlinear.LearningRate = v
	}
	if v, ok := envInt64("EMBEDVIZ_ITERATIONS"); ok {
		config.Nonlinear.Iterations = int(v)
	}
	if v := os.Getenv("EMBEDVIZ_OLLAMA_URL"); v != "" {
		config.Ollama.URL = v
	}
	if v := os.Getenv("EMBEDVIZ_OLLAMA_MODEL"); v != "" {
		config.Ollama.Model = v
	}
	if v := os.Getenv("EMBEDVIZ_QDRANT_ADDRESS"); v != "" {
		config.Qdrant.Address = v
	}
	if v := os.Getenv("EMBEDVIZ_QDRANT_COLLECTION"); v != "" {
		config.Qdrant.Collection = v
	}
	if v := os.Getenv("HF_TOKEN"); v != "" {
		config.HuggingFace.Token = v
	}
	if v := os.Getenv("EMBEDVIZ_HF_TOKEN"); v != "" {
		config.HuggingFace.Token = v
	}
}

func envInt64(key string) (int64, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envFloat(key string) (float64, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Validate checks the projection parameters and the export format.
func (c *Config) Validate() error {
	if _, err := projection.ParseMethod(c.Method); err != nil {
		return fmt.Errorf("method %q: %w", c.Method, ErrInvalidConfig)
	}
	if c.Linear.TargetDims < 1 {
		return fmt.Errorf("linear.target_dims must be at least 1, got %d: %w", c.Linear.TargetDims, ErrInvalidConfig)
	}
	if c.Linear.Iterations < 1 {
		return fmt.Errorf("linear.iterations must be at least 1, got %d: %w", c.Linear.Iterations, ErrInvalidConfig)
	}
	if c.Nonlinear.Perplexity <= 0 {
		return fmt.Errorf("nonlinear.perplexity must be positive, got %v: %w", c.Nonlinear.Perplexity, ErrInvalidConfig)
	}
	if c.Nonlinear.LearningRate <= 0 {
		return fmt.Errorf("nonlinear.learning_rate must be positive, got %v: %w", c.Nonlinear.LearningRate, ErrInvalidConfig)
	}
	if c.Nonlinear.Iterations < 0 {
		return fmt.Errorf("nonlinear.iterations must not be negative, got %d: %w", c.Nonlinear.Iterations, ErrInvalidConfig)
	}
	switch strings.ToLower(c.Export.Format) {
	case "json", "csv", "sqlite":
	default:
		return fmt.Errorf("export.format %q: %w", c.Export.Format, ErrInvalidConfig)
	}
	return nil
}

// ProjectionSettings converts the configuration into projection settings.
// Call Validate first; an unknown method falls back to PCA.
func (c *Config) ProjectionSettings() projection.Settings {
	settings := projection.DefaultSettings()
	if method, err := projection.ParseMethod(c.Method); err == nil {
		settings.Method = method
	}

	settings.Linear.TargetDims = c.Linear.TargetDims
	settings.Linear.Iterations = c.Linear.Iterations
	settings.Linear.RandomSeed = c.Seed

	settings.Nonlinear.Perplexity = c.Nonlinear.Perplexity
	settings.Nonlinear.LearningRate = c.Nonlinear.LearningRate
	settings.Nonlinear.Iterations = c.Nonlinear.Iterations
	settings.Nonlinear.RandomSeed = c.Seed
	return settings
}

// String returns a summary safe for logging; the Hugging Face token is omitted.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Method: %s, Seed: %d, Perplexity: %v, LearningRate: %v, Iterations: %d, Ollama: %s, Qdrant: %s/%s}",
		c.Method, c.Seed,
		c.Nonlinear.Perplexity, c.Nonlinear.LearningRate, c.Nonlinear.Iterations,
		c.Ollama.URL, c.Qdrant.Address, c.Qdrant.Collection,
	)
}
