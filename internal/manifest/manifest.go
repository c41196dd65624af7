// Package manifest loads the job-metadata document a completed extraction
// job leaves at its output location and expands it into one record per
// extracted segment.
package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yourorg/bda-pipeline/internal/metrics"
	"github.com/yourorg/bda-pipeline/internal/storage"
)

// ErrManifestUnreadable indicates the top-level manifest is absent or malformed.
var ErrManifestUnreadable = errors.New("manifest unreadable")

// Column names carried by every segment record.
const (
	ColModality     = "semantic_modality"
	ColStandardPath = "standard_output_path"
	ColCustomPath   = "custom_output_path"
	ColCustomStatus = "custom_output_status"
)

// Segment is one post-expansion manifest row: the parent asset entry's
// columns merged with one segment's metadata, flattened one level.
type Segment struct {
	Modality     string
	StandardPath string
	CustomPath   string // empty when no custom schema matched
	Columns      map[string]any
}

// Stats reports load-time losses. Dropped rows are recorded, not fatal.
type Stats struct {
	AssetRows int
	Segments  int
	Dropped   int
}

type document struct {
	OutputMetadata []json.RawMessage `json:"output_metadata"`
}

// Load reads the manifest at uri and returns one Segment per entry of each
// asset row's segment list. An asset row with N segment entries yields N
// records, each retaining the parent row's other columns.
func Load(ctx context.Context, store storage.ObjectStore, uri string) ([]Segment, Stats, error) {
	var doc document
	if err := storage.ReadJSON(ctx, store, uri, &doc); err != nil {
		return nil, Stats{}, fmt.Errorf("%w: %s: %v", ErrManifestUnreadable, uri, err)
	}
	if doc.OutputMetadata == nil {
		return nil, Stats{}, fmt.Errorf("%w: %s: no output_metadata", ErrManifestUnreadable, uri)
	}

	var (
		segments []Segment
		stats    Stats
	)
	for _, raw := range doc.OutputMetadata {
		var row map[string]any
		if err := json.Unmarshal(raw, &row); err != nil {
			stats.Dropped++
			metrics.ManifestRowsDropped.Inc()
			continue
		}
		stats.AssetRows++

		segList, _ := row["segment_metadata"].([]any)
		if len(segList) == 0 {
			// The row contributes nothing; count it so the loss is visible.
			stats.Dropped++
			metrics.ManifestRowsDropped.Inc()
			continue
		}
		base := Flatten(row, "segment_metadata")
		base["source_manifest"] = uri

		for _, entry := range segList {
			segMap, ok := entry.(map[string]any)
			if !ok {
				stats.Dropped++
				metrics.ManifestRowsDropped.Inc()
				continue
			}
			cols := make(map[string]any, len(base)+len(segMap))
			for k, v := range base {
				cols[k] = v
			}
			for k, v := range Flatten(segMap) {
				cols[k] = v
			}
			seg := Segment{
				Modality:     str(cols[ColModality]),
				StandardPath: str(cols[ColStandardPath]),
				CustomPath:   str(cols[ColCustomPath]),
				Columns:      cols,
			}
			segments = append(segments, seg)
			stats.Segments++
			metrics.SegmentsLoaded.Inc()
		}
	}
	return segments, stats, nil
}

// Flatten promotes one level of nested objects to dotted top-level keys,
// skipping the listed keys. Deeper nesting stays as values.
func Flatten(m map[string]any, skip ...string) map[string]any {
	skipped := make(map[string]bool, len(skip))
	for _, k := range skip {
		skipped[k] = true
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if skipped[k] {
			continue
		}
		if sub, ok := v.(map[string]any); ok {
			for sk, sv := range sub {
				out[k+"."+sk] = sv
			}
			continue
		}
		out[k] = v
	}
	return out
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
