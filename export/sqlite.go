package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver

	"github.com/nicolascine/embedding-viz/projection"
)

const createPointsTable = `CREATE TABLE IF NOT EXISTS points (
	idx      INTEGER NOT NULL,
	method   TEXT    NOT NULL,
	label    TEXT    NOT NULL,
	x        REAL    NOT NULL,
	y        REAL    NOT NULL,
	metadata TEXT,
	PRIMARY KEY (method, idx)
)`

// WriteSQLite stores records in the points table of the database at path, keyed
// by method and index. Re-exporting the same method replaces its rows, so one
// file can hold a PCA and a t-SNE layout side by side.
func WriteSQLite(ctx context.Context, path string, method projection.Method, records []Record) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", path, err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, createPointsTable); err != nil {
		return fmt.Errorf("create points table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM points WHERE method = ?`, string(method)); err != nil {
		return fmt.Errorf("clear previous %s layout: %w", method, err)
	}

	statement, err := tx.PrepareContext(ctx,
		`INSERT INTO points (idx, method, label, x, y, metadata) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer statement.Close()

	for _, record := range records {
		var metadata sql.NullString
		if len(record.Metadata) > 0 {
			encoded, err := json.Marshal(record.Metadata)
			if err != nil {
				return fmt.Errorf("encode metadata of point %d: %w", record.Index, err)
			}
			metadata = sql.NullString{String: string(encoded), Valid: true}
		}
		if _, err := statement.ExecContext(ctx, record.Index, string(method), record.Label, record.X, record.Y, metadata); err != nil {
			return fmt.Errorf("insert point %d: %w", record.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ReadSQLite loads the records stored for method, ordered by index.
func ReadSQLite(ctx context.Context, path string, method projection.Method) ([]Record, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx,
		`SELECT idx, label, x, y, metadata FROM points WHERE method = ? ORDER BY idx`, string(method))
	if err != nil {
		return nil, fmt.Errorf("query points: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var record Record
		var metadata sql.NullString
		if err := rows.Scan(&record.Index, &record.Label, &record.X, &record.Y, &metadata); err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		if metadata.Valid {
			if err := json.Unmarshal([]byte(metadata.String), &record.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata of point %d: %w", record.Index, err)
			}
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
