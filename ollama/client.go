// Package ollama provides an HTTP client for interacting with the Ollama API.
// It specifically handles text embedding requests, converting text strings into
// high-dimensional vector representations using Ollama's embedding models.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Client handles HTTP communication with the Ollama embedding API.
// It maintains the connection configuration and reuses an HTTP client
// for efficient request handling.
type Client struct {
	baseURL    string       // The base URL of the Ollama server (e.g., "http://localhost:11434")
	modelName  string       // The name of the embedding model to use (e.g., "nomic-embed-text")
	httpClient *http.Client // Reusable HTTP client for making requests
}

// embeddingRequest represents the JSON payload sent to the Ollama /api/embed endpoint.
// Input is either a single string or a list of strings.
type embeddingRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"`
}

// embeddingResponse represents the JSON response from the Ollama /api/embed endpoint.
// Embeddings are returned in the order of the inputs.
type embeddingResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewClient creates a new Ollama client configured to connect to the specified
// server and use the given embedding model.
func NewClient(baseURL, modelName string) *Client {
	return &Client{
		baseURL:    baseURL,
		modelName:  modelName,
		httpClient: &http.Client{},
	}
}

// Embed converts the provided text into a vector embedding using the Ollama API.
// If the input text is empty, Embed returns nil without making an API request.
func (ollamaClient *Client) Embed(ctx context.Context, inputText string) ([]float32, error) {
	// Skip API call for empty input text
	if inputText == "" {
		return nil, nil
	}

	embeddings, err := ollamaClient.post(ctx, inputText)
	if err != nil {
		return nil, err
	}

	// Return the first embedding vector (we only requested one)
	return embeddings[0], nil
}

// EmbedBatch embeds several texts in a single request. The result is index-aligned
// with inputTexts.
func (ollamaClient *Client) EmbedBatch(ctx context.Context, inputTexts []string) ([][]float32, error) {
	if len(inputTexts) == 0 {
		return nil, nil
	}

	embeddings, err := ollamaClient.post(ctx, inputTexts)
	if err != nil {
		return nil, err
	}
	if len(embeddings) != len(inputTexts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(inputTexts), len(embeddings))
	}
	return embeddings, nil
}

func (ollamaClient *Client) post(ctx context.Context, input any) ([][]float32, error) {
	// Serialize the request payload to JSON
	jsonRequestBody, marshalError := json.Marshal(embeddingRequest{
		Model: ollamaClient.modelName,
		Input: input,
	})
	if marshalError != nil {
		return nil, fmt.Errorf("marshal request: %w", marshalError)
	}

	embeddingEndpointURL := ollamaClient.baseURL + "/api/embed"
	httpRequest, requestError := http.NewRequestWithContext(ctx, http.MethodPost, embeddingEndpointURL, bytes.NewReader(jsonRequestBody))
	if requestError != nil {
		return nil, fmt.Errorf("create request: %w", requestError)
	}
	httpRequest.Header.Set("Content-Type", "application/json")

	httpResponse, postError := ollamaClient.httpClient.Do(httpRequest)
	if postError != nil {
		return nil, fmt.Errorf("post request: %w", postError)
	}
	defer httpResponse.Body.Close()

	// Verify the API returned a successful status code
	if httpResponse.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", httpResponse.StatusCode)
	}

	var parsedResponse embeddingResponse
	if decodeError := json.NewDecoder(httpResponse.Body).Decode(&parsedResponse); decodeError != nil {
		return nil, fmt.Errorf("decode response: %w", decodeError)
	}

	// Validate that the response contains at least one embedding vector
	if len(parsedResponse.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}

	return parsedResponse.Embeddings, nil
}
