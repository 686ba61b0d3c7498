package huggingface

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitsResponseParsing(t *testing.T) {
	jsonData := `{"splits":[{"dataset":"test/dataset","config":"default","split":"train"},{"dataset":"test/dataset","config":"default","split":"test"}]}`

	var resp SplitsResponse
	require.NoError(t, json.Unmarshal([]byte(jsonData), &resp))

	assert.Len(t, resp.Splits, 2)
	assert.Equal(t, "default", resp.Splits[0].Config)
}

func TestRowsResponseTexts(t *testing.T) {
	rows := &RowsResponse{
		Rows: []RowWrapper{
			{RowIdx: 0, Row: map[string]interface{}{"text": "first", "label": 1}},
			{RowIdx: 1, Row: map[string]interface{}{"text": "second", "label": 0}},
			{RowIdx: 2, Row: map[string]interface{}{"text": "", "label": 0}},
			{RowIdx: 3, Row: map[string]interface{}{"other": "value"}},
		},
	}

	assert.Equal(t, []string{"first", "second"}, rows.Texts("text"))
}

func TestNewClient(t *testing.T) {
	client := NewClient()
	require.NotNil(t, client)
	assert.NotNil(t, client.httpClient)
	assert.Equal(t, defaultBaseURL, client.baseURL)
}

func TestFetchTextsPaginates(t *testing.T) {
	const totalRows = 230
	var requests int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "/rows", r.URL.Path)
		assert.Equal(t, "imdb", r.URL.Query().Get("dataset"))

		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		length, _ := strconv.Atoi(r.URL.Query().Get("length"))

		var rows []RowWrapper
		for i := offset; i < offset+length && i < totalRows; i++ {
			rows = append(rows, RowWrapper{RowIdx: i, Row: map[string]interface{}{"text": fmt.Sprintf("row %d", i)}})
		}
		json.NewEncoder(w).Encode(RowsResponse{Rows: rows})
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.URL)

	texts, err := client.FetchTexts(context.Background(), "imdb", "plain_text", "train", "text", 0)
	require.NoError(t, err)
	assert.Len(t, texts, totalRows)
	assert.Equal(t, "row 229", texts[len(texts)-1])
	assert.Equal(t, 3, requests)

	requests = 0
	texts, err = client.FetchTexts(context.Background(), "imdb", "plain_text", "train", "text", 150)
	require.NoError(t, err)
	assert.Len(t, texts, 150)
	assert.Equal(t, 2, requests)
}

func TestGetSplitsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("dataset not found"))
	}))
	defer server.Close()

	_, err := NewClientWithBaseURL(server.URL).GetSplits(context.Background(), "missing")
	assert.ErrorContains(t, err, "API error 404: dataset not found")
}
