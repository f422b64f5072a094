package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "selfie"

	ResultHit      = "hit"
	ResultMiss     = "miss"
	ResultMismatch = "mismatch"
	ResultWritten  = "written"
)

// Metrics groups engine counters, each engine registers its own set
type Metrics struct {
	// reads counts disk snapshot reads.
	// Labels: result (hit, miss)
	reads *prometheus.CounterVec

	// writes counts disk snapshot writes
	writes prometheus.Counter

	// literals counts inline literal checks.
	// Labels: result (hit, mismatch, written)
	literals *prometheus.CounterVec

	// staleKeys counts keys pruned by garbage collection
	staleKeys prometheus.Counter

	// prunedFiles counts snapshot files deleted as a whole
	prunedFiles prometheus.Counter

	// rewrittenFiles counts source files flushed with inline edits
	rewrittenFiles prometheus.Counter

	// errors counts failures surfaced to tests.
	// Labels: error_type
	errors *prometheus.CounterVec
}

// New creates metrics registered with reg, nil reg uses a private registry
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Metrics{
		reads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "disk",
			Name:      "reads_total",
			Help:      "Total disk snapshot reads by result",
		}, []string{"result"}),
		writes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "disk",
			Name:      "writes_total",
			Help:      "Total disk snapshot writes",
		}),
		literals: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inline",
			Name:      "checks_total",
			Help:      "Total inline literal checks by result",
		}, []string{"result"}),
		staleKeys: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gc",
			Name:      "stale_keys_total",
			Help:      "Total snapshot keys pruned as stale",
		}),
		prunedFiles: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gc",
			Name:      "pruned_files_total",
			Help:      "Total snapshot files pruned as unused",
		}),
		rewrittenFiles: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inline",
			Name:      "rewritten_files_total",
			Help:      "Total source files rewritten",
		}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total errors surfaced to tests by type",
		}, []string{"error_type"}),
	}
}

// RecordRead records a disk read, hit is false when no snapshot was found
func (m *Metrics) RecordRead(hit bool) {
	if m == nil {
		return
	}
	result := ResultMiss
	if hit {
		result = ResultHit
	}
	m.reads.WithLabelValues(result).Inc()
}

// RecordWrite records a disk write
func (m *Metrics) RecordWrite() {
	if m == nil {
		return
	}
	m.writes.Inc()
}

// RecordLiteral records inline literal check result
func (m *Metrics) RecordLiteral(result string) {
	if m == nil {
		return
	}
	m.literals.WithLabelValues(result).Inc()
}

// RecordStaleKeys records pruned keys
func (m *Metrics) RecordStaleKeys(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.staleKeys.Add(float64(count))
}

// RecordPrunedFile records a snapshot file deleted as unused
func (m *Metrics) RecordPrunedFile() {
	if m == nil {
		return
	}
	m.prunedFiles.Inc()
}

// RecordRewrittenFiles records flushed source files
func (m *Metrics) RecordRewrittenFiles(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.rewrittenFiles.Add(float64(count))
}

// RecordError records an error surfaced to a test
func (m *Metrics) RecordError(errorType string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(errorType).Inc()
}
