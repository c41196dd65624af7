package table

import (
	"bytes"
	"context"
	"testing"

	"github.com/parquet-go/parquet-go"

	"github.com/yourorg/bda-pipeline/internal/storage"
)

func TestWriteParquet(t *testing.T) {
	ms := storage.NewMemStore()
	tbl := Build([]Record{
		{"summary": "a video", "extractedTranscript": "hello", "polls": 3.0},
		{"summary": "an image"},
	})
	uri := "s3://results/output/p/inv/normalized_rows.parquet"

	if err := WriteParquet(context.Background(), ms, tbl, uri); err != nil {
		t.Fatalf("WriteParquet: %v", err)
	}

	body, ok := ms.Objects[uri]
	if !ok {
		t.Fatal("artifact not written to the store")
	}

	f, err := parquet.OpenFile(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if f.NumRows() != 2 {
		t.Fatalf("NumRows=%d; want 2", f.NumRows())
	}

	fields := f.Schema().Fields()
	if len(fields) != len(tbl.Columns) {
		t.Fatalf("schema has %d fields; want %d", len(fields), len(tbl.Columns))
	}
	names := make(map[string]bool, len(fields))
	for _, fld := range fields {
		if !fld.Optional() {
			t.Errorf("field %s not optional", fld.Name())
		}
		names[fld.Name()] = true
	}
	for _, c := range tbl.Columns {
		if !names[c] {
			t.Errorf("column %s missing from schema", c)
		}
	}
}

func TestWriteParquetEmptyTable(t *testing.T) {
	ms := storage.NewMemStore()
	uri := "s3://results/output/p/inv/normalized_rows.parquet"

	if err := WriteParquet(context.Background(), ms, Build(nil), uri); err != nil {
		t.Fatalf("WriteParquet on empty table: %v", err)
	}
	if _, ok := ms.Objects[uri]; ok {
		t.Fatal("empty table must not produce an artifact")
	}
}
