// Package metrics exposes the pipeline counters on the default prometheus
// registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rss_lens"

var (
	EntriesFetched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "entries_fetched_total",
		Help:      "Feed entries fetched and normalized, by outlet.",
	}, []string{"outlet"})

	EndpointFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "endpoint_failures_total",
		Help:      "Feed endpoints that could not be fetched or parsed, by outlet.",
	}, []string{"outlet"})

	RecordsStored = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_stored_total",
		Help:      "New raw records appended, by outlet.",
	}, []string{"outlet"})

	DuplicatesDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "duplicates_dropped_total",
		Help:      "Records dropped because their content hash was already seen, by outlet.",
	}, []string{"outlet"})

	Classifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "classifications_total",
		Help:      "Classification attempts by result (success, service, parse).",
	}, []string{"result"})

	ClassifyDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "classify_duration_seconds",
		Help:      "Latency of a single classification call.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30},
	})

	AnalysisRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "analysis_runs_total",
		Help:      "Analysis runs by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(
		EntriesFetched,
		EndpointFailures,
		RecordsStored,
		DuplicatesDropped,
		Classifications,
		ClassifyDuration,
		AnalysisRuns,
	)
}
