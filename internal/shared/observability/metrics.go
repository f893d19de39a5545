package observability

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	TokenizeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "xref_tokenize_seconds",
		Help:    "Time spent decoding and tokenizing a source file.",
		Buckets: prometheus.DefBuckets,
	})

	EmitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "xref_emit_seconds",
		Help:    "Time spent rendering and writing one cross-reference document.",
		Buckets: prometheus.DefBuckets,
	})

	PhaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "xref_phase_seconds",
		Help:    "Time spent in each phase of a run.",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})

	FilesEmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "xref_files_emitted_total",
		Help: "Total number of source documents written.",
	})

	FileFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xref_file_failures_total",
		Help: "Total number of files that failed, by stage.",
	}, []string{"stage"})

	SymbolTableTypes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "xref_symbol_table_types",
		Help: "Number of types in the most recently built symbol table.",
	})

	AmbiguousReferencesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "xref_ambiguous_references_total",
		Help: "Total number of identifiers left unlinked because several wildcard imports matched.",
	})

	DuplicateTypesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "xref_duplicate_types_total",
		Help: "Total number of type declarations ignored because the qualified name was taken.",
	})

	ContentCacheEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "xref_content_cache_evictions_total",
		Help: "Total number of tokenized sources evicted from the content cache.",
	})

	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "xref_runs_total",
		Help: "Total number of generation runs, by outcome.",
	}, []string{"outcome"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "xref_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)

// WriteTextfile dumps the default registry in the text exposition format
// for the node exporter's textfile collector.
func WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create metrics directory %q: %w", dir, err)
		}
	}
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile %q: %w", path, err)
	}
	return nil
}
