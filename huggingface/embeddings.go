package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
)

const inferenceAPIBaseURL = "https://api-inference.huggingface.co"

// EmbeddingsClient handles HTTP communication with the Hugging Face Inference API
// for generating text embeddings.
type EmbeddingsClient struct {
	baseURL    string
	modelID    string
	token      string
	httpClient *http.Client
}

// embeddingsRequest represents the JSON payload sent to the HF Inference API.
type embeddingsRequest struct {
	Inputs  string          `json:"inputs"`
	Options map[string]bool `json:"options,omitempty"`
}

// NewEmbeddingsClient creates a new Hugging Face embeddings client.
// If token is empty, it will attempt to read from HF_TOKEN environment variable.
func NewEmbeddingsClient(modelID, token string) *EmbeddingsClient {
	if token == "" {
		token = os.Getenv("HF_TOKEN")
	}
	return &EmbeddingsClient{
		baseURL:    inferenceAPIBaseURL,
		modelID:    modelID,
		token:      token,
		httpClient: &http.Client{},
	}
}

// Embed converts the provided text into a vector embedding using the Hugging Face Inference API.
// It returns a slice of float32 values representing the text in embedding space,
// or an error if the embedding request fails.
func (c *EmbeddingsClient) Embed(ctx context.Context, inputText string) ([]float32, error) {
	if inputText == "" {
		return nil, nil
	}

	requestPayload := embeddingsRequest{
		Inputs:  inputText,
		Options: map[string]bool{"wait_for_model": true},
	}

	jsonBody, err := json.Marshal(requestPayload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/pipeline/feature-extraction/%s", c.baseURL, c.modelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errorBody map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errorBody)
		return nil, fmt.Errorf("API error %d: %v", resp.StatusCode, errorBody)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return decodeFeatures(body)
}

// decodeFeatures accepts the shapes the feature-extraction pipeline returns:
// a pooled sentence vector [f...], a batch of one [[f...]], or per-token vectors
// [[[f...], ...]] which are mean-pooled into a single vector.
func decodeFeatures(body []byte) ([]float32, error) {
	var pooled []float32
	if err := json.Unmarshal(body, &pooled); err == nil && len(pooled) > 0 {
		return pooled, nil
	}

	var batch [][]float32
	if err := json.Unmarshal(body, &batch); err == nil {
		if len(batch) == 0 || len(batch[0]) == 0 {
			return nil, fmt.Errorf("no embeddings returned")
		}
		return batch[0], nil
	}

	var tokens [][][]float32
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(tokens) == 0 || len(tokens[0]) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return meanPool(tokens[0]), nil
}

func meanPool(tokenVectors [][]float32) []float32 {
	pooled := make([]float32, len(tokenVectors[0]))
	for _, vector := range tokenVectors {
		for j := range pooled {
			if j < len(vector) {
				pooled[j] += vector[j]
			}
		}
	}
	for j := range pooled {
		pooled[j] /= float32(len(tokenVectors))
	}
	return pooled
}
