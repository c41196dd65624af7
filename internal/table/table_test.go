package table

import (
	"reflect"
	"testing"
)

func TestBuildAlignsColumns(t *testing.T) {
	records := []Record{
		{"b": "1", "a": "2"},
		{"c": "3", "a": "override"},
	}
	tbl := Build(records)

	// First record's keys come first (sorted within the record), then the
	// second record's fresh keys.
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(tbl.Columns, want) {
		t.Fatalf("Columns=%v; want %v", tbl.Columns, want)
	}

	if len(tbl.Rows) != 2 {
		t.Fatalf("rows=%d; want 2", len(tbl.Rows))
	}
	if !IsAbsent(tbl.Rows[0]["c"]) {
		t.Errorf("rows[0][c]=%v; want Absent", tbl.Rows[0]["c"])
	}
	if !IsAbsent(tbl.Rows[1]["b"]) {
		t.Errorf("rows[1][b]=%v; want Absent", tbl.Rows[1]["b"])
	}
	if tbl.Rows[1]["a"] != "override" {
		t.Errorf("rows[1][a]=%v", tbl.Rows[1]["a"])
	}
}

func TestBuildColumnOrderStable(t *testing.T) {
	records := []Record{
		{"z": "1", "m": "2", "a": "3"},
		{"q": "4", "b": "5"},
	}
	first := Build(records).Columns
	for i := 0; i < 20; i++ {
		if got := Build(records).Columns; !reflect.DeepEqual(got, first) {
			t.Fatalf("column order changed between builds: %v vs %v", got, first)
		}
	}
}

func TestBuildEmpty(t *testing.T) {
	tbl := Build(nil)
	if len(tbl.Columns) != 0 || len(tbl.Rows) != 0 {
		t.Fatalf("empty build produced %v", tbl)
	}
}

func TestEncodeCell(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   string
		wantOK bool
	}{
		{"string", "hello", "hello", true},
		{"absent", Absent, "", false},
		{"nil", nil, "", false},
		{"number", 3.5, "3.5", true},
		{"list", []any{"a", "b"}, `["a","b"]`, true},
		{"object", map[string]any{"k": "v"}, `{"k":"v"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := encodeCell(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Fatalf("encodeCell(%v)=(%q, %v); want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestArtifactURI(t *testing.T) {
	got := ArtifactURI("results", "AdProject", "inv-1")
	want := "s3://results/output/AdProject/inv-1/normalized_rows.parquet"
	if got != want {
		t.Fatalf("ArtifactURI=%q; want %q", got, want)
	}
}
