// Package reconcile turns expanded manifest segments into one row-aligned
// table. Each segment contributes a STANDARD row and, when a custom schema
// matched, a CUSTOM row; the two kinds are unioned, never joined, so every
// row stays traceable to exactly one (segment, output kind) pair.
package reconcile

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	"github.com/yourorg/bda-pipeline/internal/manifest"
	"github.com/yourorg/bda-pipeline/internal/metrics"
	"github.com/yourorg/bda-pipeline/internal/storage"
	"github.com/yourorg/bda-pipeline/internal/table"
)

// Output-kind tags and the columns added during reconciliation.
const (
	KindStandard = "STANDARD"
	KindCustom   = "CUSTOM"

	ColOutputKind        = "output_kind"
	ColSourceFile        = "source_file"
	ColMatchedSchemaName = "matchedSchemaName"
)

// Config wires a Reconciler.
type Config struct {
	Store storage.ObjectStore
	Cache DetailCache // nil means no caching
	// Workers bounds concurrent detail-document fetches; defaults to 4.
	Workers int
	// BlueprintSchema, when non-empty, is the JSON schema custom-output
	// documents are validated against. Validation failures are counted and
	// logged; the row is still emitted.
	BlueprintSchema string
	// OnFetch, when set, is invoked after each detail-document fetch settles
	// (activity heartbeats).
	OnFetch func(done, total int)
	Logger  *zap.Logger
}

// Result reports per-run reconciliation observability counters.
type Result struct {
	Records            int
	Skipped            []string // detail locations whose fetch failed
	ValidationFailures int
	Unrecognized       int
}

type Reconciler struct {
	store   storage.ObjectStore
	cache   DetailCache
	workers int
	schema  *jsonschema.Schema
	onFetch func(done, total int)
	logger  *zap.Logger
}

func New(cfg Config) (*Reconciler, error) {
	r := &Reconciler{
		store:   cfg.Store,
		cache:   cfg.Cache,
		workers: cfg.Workers,
		onFetch: cfg.OnFetch,
		logger:  cfg.Logger,
	}
	if r.cache == nil {
		r.cache = NopCache{}
	}
	if r.workers <= 0 {
		r.workers = 4
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if cfg.BlueprintSchema != "" {
		s, err := jsonschema.CompileString("blueprint.json", cfg.BlueprintSchema)
		if err != nil {
			return nil, err
		}
		r.schema = s
	}
	return r, nil
}

// Reconcile fetches every distinct detail location once, then assembles the
// unioned table. Fetch failures only cost that location's enrichment; the
// affected rows are still emitted.
func (r *Reconciler) Reconcile(ctx context.Context, segments []manifest.Segment) (table.Table, Result, error) {
	docs, skipped := r.fetchAll(ctx, detailLocations(segments))

	var res Result
	res.Skipped = skipped

	var custom, standard []table.Record
	for _, seg := range segments {
		mod := ParseModality(seg.Modality)
		if mod == ModalityUnrecognized {
			res.Unrecognized++
			metrics.UnrecognizedModalities.Inc()
			r.logger.Warn("unrecognized modality, passing row through",
				zap.String("modality", seg.Modality),
				zap.String("standard_output_path", seg.StandardPath))
		}

		if seg.CustomPath != "" {
			doc := docs[seg.CustomPath]
			if doc != nil && !r.validateCustom(seg.CustomPath, doc) {
				res.ValidationFailures++
			}
			custom = append(custom, r.customRecord(seg, doc))
		}
		standard = append(standard, r.standardRecord(seg, mod, docs[seg.StandardPath]))
	}

	records := append(custom, standard...)
	res.Records = len(records)
	metrics.RowsEmitted.Add(float64(len(records)))
	return table.Build(records), res, nil
}

// customRecord merges the custom detail document into the segment's manifest
// columns and flattens the matched blueprint name to a top-level column. A
// nil doc (failed fetch) leaves the row with manifest columns only.
func (r *Reconciler) customRecord(seg manifest.Segment, doc map[string]any) table.Record {
	rec := baseRecord(seg, KindCustom, seg.CustomPath)
	if doc == nil {
		return rec
	}
	for k, v := range manifest.Flatten(doc, "matched_blueprint") {
		rec[k] = v
	}
	if name, ok := dig(doc, "matched_blueprint", "name"); ok {
		rec[ColMatchedSchemaName] = name
	}
	return rec
}

// standardRecord applies the modality-specific extraction to the standard
// detail document. DOCUMENT, AUDIO and unrecognized modalities pass through
// with manifest columns only.
func (r *Reconciler) standardRecord(seg manifest.Segment, mod Modality, doc map[string]any) table.Record {
	rec := baseRecord(seg, KindStandard, seg.StandardPath)
	if doc == nil {
		return rec
	}
	if extract := extractors[mod]; extract != nil {
		for k, v := range extract(doc) {
			rec[k] = v
		}
	}
	return rec
}

func baseRecord(seg manifest.Segment, kind, source string) table.Record {
	rec := make(table.Record, len(seg.Columns)+2)
	for k, v := range seg.Columns {
		rec[k] = v
	}
	rec[ColOutputKind] = kind
	rec[ColSourceFile] = source
	return rec
}

// validateCustom reports whether doc satisfies the blueprint schema. With no
// schema configured every document passes.
func (r *Reconciler) validateCustom(location string, doc map[string]any) bool {
	if r.schema == nil {
		return true
	}
	// Blueprint schemas describe the inference result, not the envelope.
	target := any(doc)
	if inner, ok := doc["inference_result"]; ok {
		target = inner
	}
	if err := r.schema.Validate(target); err != nil {
		metrics.CustomValidationFailures.Inc()
		r.logger.Warn("custom output failed blueprint schema validation",
			zap.String("location", location), zap.Error(err))
		return false
	}
	return true
}

// detailLocations returns the distinct detail-document URIs, sorted for a
// deterministic fetch order.
func detailLocations(segments []manifest.Segment) []string {
	seen := make(map[string]bool)
	var locs []string
	for _, seg := range segments {
		for _, loc := range []string{seg.StandardPath, seg.CustomPath} {
			if loc != "" && !seen[loc] {
				seen[loc] = true
				locs = append(locs, loc)
			}
		}
	}
	sort.Strings(locs)
	return locs
}

// fetchAll loads each location once through a bounded worker pool, consulting
// the cache first. Assembly waits on the pool, so every fetch has finished
// before the union is built.
func (r *Reconciler) fetchAll(ctx context.Context, locs []string) (map[string]map[string]any, []string) {
	docs := make(map[string]map[string]any, len(locs))
	var skipped []string
	done := 0
	var mu sync.Mutex

	work := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for loc := range work {
				doc, err := r.fetchOne(ctx, loc)
				mu.Lock()
				if err == nil {
					docs[loc] = doc
				} else {
					skipped = append(skipped, loc)
				}
				done++
				n := done
				mu.Unlock()
				if err != nil {
					metrics.DetailFetchFailures.Inc()
					r.logger.Warn("detail fetch failed, skipping location",
						zap.String("location", loc), zap.Error(err))
				}
				if r.onFetch != nil {
					r.onFetch(n, len(locs))
				}
			}
		}()
	}
	for _, loc := range locs {
		work <- loc
	}
	close(work)
	wg.Wait()

	sort.Strings(skipped)
	return docs, skipped
}

func (r *Reconciler) fetchOne(ctx context.Context, loc string) (map[string]any, error) {
	body, ok := r.cache.Get(loc)
	if !ok {
		var err error
		body, err = storage.ReadAll(ctx, r.store, loc)
		if err != nil {
			return nil, err
		}
		r.cache.Put(loc, body)
	}
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
