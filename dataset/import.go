package dataset

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// LoadTexts reads a list of texts from a CSV file with a "text" column, or from a JSON
// array of strings or of objects with a "text" field.
func LoadTexts(path string) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv":
		return loadCSV(path)
	case ".json":
		return loadJSONTexts(path)
	default:
		return nil, fmt.Errorf("file extension %q: %w", ext, ErrUnsupportedFormat)
	}
}

// LoadFile reads an embedding dataset from a JSON file. See Decode for the accepted shapes.
func LoadFile(path string) (*Dataset, error) {
	if strings.ToLower(filepath.Ext(path)) != ".json" {
		return nil, fmt.Errorf("embedding files must be JSON, got %s: %w", filepath.Base(path), ErrUnsupportedFormat)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return Decode(data)
}

// LoadURL fetches an embedding dataset over HTTP. A nil client uses http.DefaultClient.
func LoadURL(ctx context.Context, client *http.Client, url string) (*Dataset, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return Decode(data)
}

// vectorsAndLabels is the columnar JSON shape: {"vectors": [[...]], "labels": [...]}.
type vectorsAndLabels struct {
	Vectors [][]float64 `json:"vectors"`
	Labels  []string    `json:"labels"`
}

// Decode parses an embedding dataset from JSON. Two shapes are accepted:
//
//   - an array of objects with a "vector" field; the label comes from "label", then
//     "text", then "point-<i>", and every other field becomes metadata
//   - an object {"vectors": [[...]], "labels": [...]}
//
// The result is validated before it is returned.
func Decode(data []byte) (*Dataset, error) {
	var records []map[string]json.RawMessage
	if err := json.Unmarshal(data, &records); err == nil && len(records) > 0 {
		if _, ok := records[0]["vector"]; ok {
			return decodeRecords(records)
		}
	}

	var columnar vectorsAndLabels
	if err := json.Unmarshal(data, &columnar); err == nil && columnar.Vectors != nil && columnar.Labels != nil {
		d := &Dataset{Vectors: columnar.Vectors, Labels: columnar.Labels}
		if err := d.Validate(); err != nil {
			return nil, err
		}
		return d, nil
	}

	return nil, fmt.Errorf("expected [{vector, label, ...}] or {vectors, labels}: %w", ErrUnsupportedFormat)
}

func decodeRecords(records []map[string]json.RawMessage) (*Dataset, error) {
	d := &Dataset{
		Vectors:  make([][]float64, 0, len(records)),
		Labels:   make([]string, 0, len(records)),
		Metadata: make([]map[string]any, 0, len(records)),
	}

	for i, record := range records {
		rawVector, ok := record["vector"]
		if !ok {
			return nil, fmt.Errorf("entry %d missing vector field: %w", i, ErrInvalidDataset)
		}
		var vector []float64
		if err := json.Unmarshal(rawVector, &vector); err != nil {
			return nil, fmt.Errorf("entry %d vector: %w", i, err)
		}

		label := stringField(record, "label")
		if label == "" {
			label = stringField(record, "text")
		}
		if label == "" {
			label = fmt.Sprintf("point-%d", i)
		}

		metadata := make(map[string]any)
		for key, raw := range record {
			if key == "vector" || key == "label" {
				continue
			}
			var value any
			if err := json.Unmarshal(raw, &value); err != nil {
				return nil, fmt.Errorf("entry %d field %q: %w", i, key, err)
			}
			metadata[key] = value
		}

		d.Vectors = append(d.Vectors, vector)
		d.Labels = append(d.Labels, label)
		d.Metadata = append(d.Metadata, metadata)
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func stringField(record map[string]json.RawMessage, key string) string {
	raw, ok := record[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func loadCSV(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	textCol := -1
	for i, header := range records[0] {
		if strings.EqualFold(strings.TrimSpace(header), "text") {
			textCol = i
			break
		}
	}

	if textCol == -1 {
		return nil, fmt.Errorf("CSV missing 'text' column header")
	}

	texts := make([]string, 0, len(records)-1)
	for _, row := range records[1:] {
		if textCol < len(row) && row[textCol] != "" {
			texts = append(texts, row[textCol])
		}
	}

	return texts, nil
}

type jsonTextObject struct {
	Text string `json:"text"`
}

func loadJSONTexts(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading JSON file: %w", err)
	}

	var stringArray []string
	if err := json.Unmarshal(data, &stringArray); err == nil {
		return stringArray, nil
	}

	var objectArray []jsonTextObject
	if err := json.Unmarshal(data, &objectArray); err != nil {
		return nil, fmt.Errorf("parsing JSON: expected array of strings or objects with 'text' field: %w", err)
	}

	texts := make([]string, 0, len(objectArray))
	for i, obj := range objectArray {
		if obj.Text == "" {
			return nil, fmt.Errorf("entry %d missing text field", i)
		}
		texts = append(texts, obj.Text)
	}

	return texts, nil
}
