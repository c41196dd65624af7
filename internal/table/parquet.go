package table

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/yourorg/bda-pipeline/internal/storage"
)

// ArtifactURI is the deterministic location of a job's normalized table.
func ArtifactURI(bucket, projectName, invocationID string) string {
	return fmt.Sprintf("s3://%s/output/%s/%s/normalized_rows.parquet", bucket, projectName, invocationID)
}

// WriteParquet serializes the table to Parquet at uri, overwriting any
// previous artifact. Every column is an optional string; non-string cells
// are JSON-encoded, absent cells become nulls.
func WriteParquet(ctx context.Context, store storage.ObjectStore, t Table, uri string) error {
	// A column-less table cannot form a parquet schema; the writer's Close
	// panics on an empty field set. Nothing to serialize, nothing to upload.
	if len(t.Columns) == 0 {
		return nil
	}
	group := parquet.Group{}
	for _, c := range t.Columns {
		group[c] = parquet.Optional(parquet.String())
	}
	schema := parquet.NewSchema("normalized_rows", group)

	var buf bytes.Buffer
	w := parquet.NewGenericWriter[map[string]any](&buf, schema)
	rows := make([]map[string]any, 0, len(t.Rows))
	for _, r := range t.Rows {
		row := make(map[string]any, len(t.Columns))
		for _, c := range t.Columns {
			if cell, ok := encodeCell(r[c]); ok {
				row[c] = cell
			}
		}
		rows = append(rows, row)
	}
	if _, err := w.Write(rows); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}

	if _, err := store.Put(ctx, uri, bytes.NewReader(buf.Bytes())); err != nil {
		return fmt.Errorf("upload %s: %w", uri, err)
	}
	return nil
}

// encodeCell renders a cell as a string value; the second return is false
// for nulls (absent marker or JSON null).
func encodeCell(v any) (string, bool) {
	switch x := v.(type) {
	case nil, absentMarker:
		return "", false
	case string:
		return x, true
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x), true
		}
		return string(b), true
	}
}
