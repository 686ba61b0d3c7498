// Package export persists projected points together with the labels and metadata
// of the dataset they came from.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/nicolascine/embedding-viz/dataset"
	"github.com/nicolascine/embedding-viz/projection"
)

// ErrUnsupportedFormat is returned for unknown output formats.
var ErrUnsupportedFormat = errors.New("export: unsupported format")

// Format names an output encoding.
type Format string

const (
	FormatJSON   Format = "json"
	FormatCSV    Format = "csv"
	FormatSQLite Format = "sqlite"
)

// ParseFormat maps a format name to a Format, ignoring case.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatSQLite, "sqlite3", "db":
		return FormatSQLite, nil
	default:
		return "", fmt.Errorf("%q: %w", name, ErrUnsupportedFormat)
	}
}

// FormatFromPath guesses the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".csv"):
		return FormatCSV
	case strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"), strings.HasSuffix(lower, ".sqlite3"):
		return FormatSQLite
	default:
		return FormatJSON
	}
}

// Record is one projected point joined back with its label and metadata.
type Record struct {
	Index    int            `json:"index"`
	Label    string         `json:"label"`
	X        float64        `json:"x"`
	Y        float64        `json:"y"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Records joins points with the dataset rows they were projected from.
// data may be nil, in which case labels fall back to "point-<index>".
func Records(points []projection.Point2D, data *dataset.Dataset) []Record {
	records := make([]Record, len(points))
	for i, point := range points {
		record := Record{Index: point.Index, X: point.X, Y: point.Y}
		if data != nil {
			record.Label = data.Label(point.Index)
			record.Metadata = data.Meta(point.Index)
		} else {
			record.Label = fmt.Sprintf("point-%d", point.Index)
		}
		records[i] = record
	}
	return records
}

// WriteJSON writes records as an indented JSON array.
func WriteJSON(w io.Writer, records []Record) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(records); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// WriteCSV writes a header row followed by one row per record. Metadata keys
// become extra columns, sorted by name; missing values are left empty.
func WriteCSV(w io.Writer, records []Record) error {
	metadataKeys := collectMetadataKeys(records)

	writer := csv.NewWriter(w)
	header := append([]string{"index", "label", "x", "y"}, metadataKeys...)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, record := range records {
		row := []string{
			strconv.Itoa(record.Index),
			record.Label,
			strconv.FormatFloat(record.X, 'g', -1, 64),
			strconv.FormatFloat(record.Y, 'g', -1, 64),
		}
		for _, key := range metadataKeys {
			row = append(row, metadataValue(record.Metadata, key))
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", record.Index, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func collectMetadataKeys(records []Record) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, record := range records {
		for key := range record.Metadata {
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

func metadataValue(metadata map[string]any, key string) string {
	value, ok := metadata[key]
	if !ok || value == nil {
		return ""
	}
	if text, ok := value.(string); ok {
		return text
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return string(encoded)
}

// WriteFile writes records to path in the given format. method is stored
// alongside the points by the SQLite writer and ignored otherwise.
func WriteFile(ctx context.Context, path string, format Format, method projection.Method, records []Record) error {
	switch format {
	case FormatJSON, FormatCSV:
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		if format == FormatJSON {
			err = WriteJSON(file, records)
		} else {
			err = WriteCSV(file, records)
		}
		if closeErr := file.Close(); err == nil {
			err = closeErr
		}
		return err
	case FormatSQLite:
		return WriteSQLite(ctx, path, method, records)
	default:
		return fmt.Errorf("%q: %w", format, ErrUnsupportedFormat)
	}
}
