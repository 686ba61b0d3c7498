// Package huggingface provides a client for the Hugging Face Dataset Viewer API.
// It fetches dataset rows via REST and extracts text for embedding.
package huggingface

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

const (
	defaultBaseURL = "https://datasets-server.huggingface.co"

	// maxPageSize is the largest page the /rows endpoint serves.
	maxPageSize = 100
)

// Client interacts with the Hugging Face Dataset Viewer API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Hugging Face API client.
func NewClient() *Client {
	return NewClientWithBaseURL(defaultBaseURL)
}

// NewClientWithBaseURL creates a client for a Dataset Viewer compatible server.
func NewClientWithBaseURL(baseURL string) *Client {
	return &Client{baseURL: baseURL, httpClient: &http.Client{}}
}

// SplitsResponse represents the response from the /splits endpoint.
type SplitsResponse struct {
	Splits []Split `json:"splits"`
}

// Split represents a dataset split.
type Split struct {
	Dataset string `json:"dataset"`
	Config  string `json:"config"`
	Split   string `json:"split"`
}

// RowsResponse represents the response from the /rows endpoint.
type RowsResponse struct {
	Rows []RowWrapper `json:"rows"`
}

// RowWrapper wraps an individual row from the dataset.
type RowWrapper struct {
	RowIdx int                    `json:"row_idx"`
	Row    map[string]interface{} `json:"row"`
}

// Texts returns the non-empty string values of column, in row order.
func (r *RowsResponse) Texts(column string) []string {
	var texts []string
	for _, wrapper := range r.Rows {
		if val, ok := wrapper.Row[column]; ok {
			if text, ok := val.(string); ok && text != "" {
				texts = append(texts, text)
			}
		}
	}
	return texts
}

// GetSplits fetches available splits for a dataset.
func (c *Client) GetSplits(ctx context.Context, dataset string) (*SplitsResponse, error) {
	reqURL := fmt.Sprintf("%s/splits?dataset=%s", c.baseURL, url.QueryEscape(dataset))

	var result SplitsResponse
	if err := c.getJSON(ctx, reqURL, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetRows fetches rows from a dataset split.
func (c *Client) GetRows(ctx context.Context, dataset, config, split string, offset, length int) (*RowsResponse, error) {
	reqURL := fmt.Sprintf("%s/rows?dataset=%s&config=%s&split=%s&offset=%s&length=%s",
		c.baseURL,
		url.QueryEscape(dataset),
		url.QueryEscape(config),
		url.QueryEscape(split),
		strconv.Itoa(offset),
		strconv.Itoa(length),
	)

	var result RowsResponse
	if err := c.getJSON(ctx, reqURL, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FetchTexts fetches all text values from a dataset column.
// It paginates through the dataset in chunks of 100 rows (API max).
// A maxRows of 0 fetches the whole split.
func (c *Client) FetchTexts(ctx context.Context, dataset, config, split, column string, maxRows int) ([]string, error) {
	var texts []string
	offset := 0

	for {
		if maxRows > 0 && offset >= maxRows {
			break
		}

		remaining := maxPageSize
		if maxRows > 0 && offset+maxPageSize > maxRows {
			remaining = maxRows - offset
		}

		rows, err := c.GetRows(ctx, dataset, config, split, offset, remaining)
		if err != nil {
			return nil, err
		}

		if len(rows.Rows) == 0 {
			break
		}

		texts = append(texts, rows.Texts(column)...)
		offset += len(rows.Rows)

		if len(rows.Rows) < remaining {
			break
		}
	}

	return texts, nil
}

func (c *Client) getJSON(ctx context.Context, reqURL string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
