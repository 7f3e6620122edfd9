package prometheus

import (
	"strconv"
	"time"

	"github.com/turtacn/phreeqprep/pkg/errors"
)

// SpeciationMetrics holds every metric phreeqprep exports.  It satisfies
// phreeqc.Observer and speciation.Recorder.
type SpeciationMetrics struct {
	// Database layer
	DatabaseLoadsTotal   CounterVec
	DatabaseLoadDuration HistogramVec
	DatabaseLines        GaugeVec
	QueriesTotal         CounterVec
	QueryResults         HistogramVec

	// Speciation layer
	NormalizationsTotal CounterVec
	SubstitutionsTotal  CounterVec
	RemovalsTotal       CounterVec
	BlocksTotal         CounterVec
	CacheHitsTotal      CounterVec
	CacheMissesTotal    CounterVec
	JobsTotal           CounterVec

	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec
}

// Buckets.
var (
	DefaultHTTPDurationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultLoadDurationBuckets = []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5}
	DefaultResultCountBuckets  = []float64{0, 1, 5, 10, 25, 50, 100, 250, 500}
)

// NewSpeciationMetrics registers all metrics on collector.
func NewSpeciationMetrics(collector MetricsCollector) *SpeciationMetrics {
	m := &SpeciationMetrics{}

	m.DatabaseLoadsTotal = collector.RegisterCounter("database_loads_total", "Database loads", "database", "status")
	m.DatabaseLoadDuration = collector.RegisterHistogram("database_load_duration_seconds", "Database load duration", DefaultLoadDurationBuckets, "database")
	m.DatabaseLines = collector.RegisterGauge("database_lines", "Retained lines of a loaded database", "database")
	m.QueriesTotal = collector.RegisterCounter("database_queries_total", "Database queries", "database", "query")
	m.QueryResults = collector.RegisterHistogram("database_query_results", "Entries returned by a database query", DefaultResultCountBuckets, "database", "query")

	m.NormalizationsTotal = collector.RegisterCounter("normalizations_total", "Composition tables checked", "database")
	m.SubstitutionsTotal = collector.RegisterCounter("column_substitutions_total", "Columns renamed to element keys", "database")
	m.RemovalsTotal = collector.RegisterCounter("column_removals_total", "Columns removed as untranslatable", "database")
	m.BlocksTotal = collector.RegisterCounter("blocks_generated_total", "Solver input blocks generated", "kind")
	m.CacheHitsTotal = collector.RegisterCounter("output_cache_hits_total", "Selected output cache hits")
	m.CacheMissesTotal = collector.RegisterCounter("output_cache_misses_total", "Selected output cache misses")
	m.JobsTotal = collector.RegisterCounter("solver_jobs_total", "Solver jobs submitted", "database", "status")

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method")

	return m
}

func status(err error) string {
	if err == nil {
		return "success"
	}
	return string(errors.GetCode(err))
}

// ObserveLoad records a database load.
func (m *SpeciationMetrics) ObserveLoad(database string, lines int, elapsed time.Duration, err error) {
	m.DatabaseLoadsTotal.WithLabelValues(database, status(err)).Inc()
	m.DatabaseLoadDuration.WithLabelValues(database).Observe(elapsed.Seconds())
	if err == nil {
		m.DatabaseLines.WithLabelValues(database).Set(float64(lines))
	}
}

// ObserveQuery records a species, phase or master-species query.
func (m *SpeciationMetrics) ObserveQuery(database, query string, results int) {
	m.QueriesTotal.WithLabelValues(database, query).Inc()
	m.QueryResults.WithLabelValues(database, query).Observe(float64(results))
}

// RecordNormalization records one CheckInputs pass.
func (m *SpeciationMetrics) RecordNormalization(database string, substitutions, removals int) {
	m.NormalizationsTotal.WithLabelValues(database).Inc()
	m.SubstitutionsTotal.WithLabelValues(database).Add(float64(substitutions))
	m.RemovalsTotal.WithLabelValues(database).Add(float64(removals))
}

// RecordBlock records a generated block.
func (m *SpeciationMetrics) RecordBlock(kind string) {
	m.BlocksTotal.WithLabelValues(kind).Inc()
}

// RecordCache records an output cache lookup.
func (m *SpeciationMetrics) RecordCache(hit bool) {
	if hit {
		m.CacheHitsTotal.WithLabelValues().Inc()
	} else {
		m.CacheMissesTotal.WithLabelValues().Inc()
	}
}

// RecordJob records a solver job submission.
func (m *SpeciationMetrics) RecordJob(database string, err error) {
	m.JobsTotal.WithLabelValues(database, status(err)).Inc()
}

// RecordHTTPRequest records a served request.
func (m *SpeciationMetrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

//Personal.AI order the ending
