package metrics

import (
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	JobsSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bda_pipeline",
		Name:      "jobs_submitted_total",
		Help:      "Total extraction jobs submitted to the service.",
	})
	StatusPolls = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bda_pipeline",
		Name:      "status_polls_total",
		Help:      "Total status polls issued while awaiting job completion.",
	})
	SegmentsLoaded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bda_pipeline",
		Name:      "segments_loaded_total",
		Help:      "Total segments produced by manifest expansion.",
	})
	ManifestRowsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bda_pipeline",
		Name:      "manifest_rows_dropped_total",
		Help:      "Manifest rows dropped because they failed to decode.",
	})
	DetailFetchFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bda_pipeline",
		Name:      "detail_fetch_failures_total",
		Help:      "Detail-document fetches that failed and were skipped.",
	})
	CustomValidationFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bda_pipeline",
		Name:      "custom_validation_failures_total",
		Help:      "Custom-output documents that failed blueprint schema validation.",
	})
	UnrecognizedModalities = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bda_pipeline",
		Name:      "unrecognized_modalities_total",
		Help:      "Segments whose modality tag was outside the known set.",
	})
	RowsEmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "bda_pipeline",
		Name:      "rows_emitted_total",
		Help:      "Normalized rows emitted into the final table.",
	})
)

// Init registers collectors; call once from main.
func Init() {
	prometheus.MustRegister(
		JobsSubmitted, StatusPolls, SegmentsLoaded, ManifestRowsDropped,
		DetailFetchFailures, CustomValidationFailures, UnrecognizedModalities, RowsEmitted,
	)
}

// Serve starts a /metrics server on the given addr (e.g., ":9090"). Non-blocking when run in goroutine.
func Serve(addr string) error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, nil)
}

// AddrFromEnv returns listen address from METRICS_ADDR or default ":9090".
func AddrFromEnv() string {
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		return v
	}
	return ":9090"
}
