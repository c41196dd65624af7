// Package table holds the flat row-aligned output of reconciliation and its
// columnar serialization.
package table

import "sort"

// Record is one normalized output row. Column sets differ between rows of
// different output kinds; Table aligns them.
type Record map[string]any

// absentMarker is the explicit "no value" cell filler, distinct from an
// empty string or JSON null that a detail document actually contained.
type absentMarker struct{}

func (absentMarker) String() string { return "<absent>" }

// Absent fills cells for columns a row does not carry.
var Absent = absentMarker{}

// IsAbsent reports whether v is the absent marker.
func IsAbsent(v any) bool {
	_, ok := v.(absentMarker)
	return ok
}

// Table is a row-aligned collection with one stable column set: the union of
// all record columns in first-seen order.
type Table struct {
	Columns []string
	Rows    []Record
}

// Build assembles a Table from records. Every row is padded to the full
// column set with the Absent marker so the table serializes with a single
// stable shape.
func Build(records []Record) Table {
	cols := stableColumns(records)

	rows := make([]Record, 0, len(records))
	for _, r := range records {
		row := make(Record, len(cols))
		for _, c := range cols {
			if v, ok := r[c]; ok {
				row[c] = v
			} else {
				row[c] = Absent
			}
		}
		rows = append(rows, row)
	}
	return Table{Columns: cols, Rows: rows}
}

// stableColumns unions record keys in first-record-first order, sorting the
// keys contributed by each record so repeated builds agree.
func stableColumns(records []Record) []string {
	var cols []string
	seen := make(map[string]bool)
	for _, r := range records {
		fresh := make([]string, 0, len(r))
		for k := range r {
			if !seen[k] {
				seen[k] = true
				fresh = append(fresh, k)
			}
		}
		sort.Strings(fresh)
		cols = append(cols, fresh...)
	}
	return cols
}
