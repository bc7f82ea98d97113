package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "county_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for a pipeline run.
type Metrics struct {
	RowsRead     *prometheus.CounterVec // labels: source
	RowsExcluded *prometheus.CounterVec // labels: source, reason
	RowsWritten  *prometheus.CounterVec // labels: table
	RowsMerged   prometheus.Gauge
	Flagged      prometheus.Gauge

	RunDuration     prometheus.Histogram
	RunFailures     prometheus.Counter
	LastSuccess     prometheus.Gauge
	PipelineRunning prometheus.Gauge

	// Census API metrics.
	CensusRequests    *prometheus.CounterVec // labels: outcome={success,error}
	CensusAPIDuration prometheus.Histogram

	registry *prometheus.Registry
}

func newMetrics() *Metrics {
	return &Metrics{
		RowsRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_read_total",
			Help:      "Raw rows read per source.",
		}, []string{"source"}),
		RowsExcluded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_excluded_total",
			Help:      "Rows dropped during cleaning by source and reason.",
		}, []string{"source", "reason"}),
		RowsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "Rows written per output table.",
		}, []string{"table"}),
		RowsMerged: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "merged_counties",
			Help:      "Counties that survived the housing/income/population join in the last run.",
		}),
		Flagged: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "flagged_counties",
			Help:      "Counties with the housing-poverty indicator set in the last run.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-clean-merge-load run.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		RunFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_failures_total",
			Help:      "Runs that aborted with an error.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
		CensusRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "census_requests_total",
			Help:      "Census SAIPE API requests by outcome.",
		}, []string{"outcome"}),
		CensusAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "census_api_duration_seconds",
			Help:      "Census SAIPE API request duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RowsRead,
		m.RowsExcluded,
		m.RowsWritten,
		m.RowsMerged,
		m.Flagged,
		m.RunDuration,
		m.RunFailures,
		m.LastSuccess,
		m.PipelineRunning,
		m.CensusRequests,
		m.CensusAPIDuration,
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(m.collectors()...)
	return m
}

// Push sends the run metrics to a Prometheus Pushgateway under the given job.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	pusher := push.New(url, job)
	if m.registry != nil {
		pusher = pusher.Gatherer(m.registry)
	} else {
		for _, c := range m.collectors() {
			pusher = pusher.Collector(c)
		}
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
