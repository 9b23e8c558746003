// Package metrics counts upstream requests and job outcomes for one run.
// The process is short lived, so the collectors are pushed to a Prometheus
// Pushgateway at the end of the run instead of being scraped.
package metrics

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"topo/ingest/internal/dispatch"
)

const (
	namespace = "topo_ingest"
	pushJob   = "topo_ingest"
)

type Metrics struct {
	registry      *prometheus.Registry
	fetchRequests *prometheus.CounterVec
	fetchRetries  prometheus.Counter
	jobRuns       *prometheus.CounterVec
	jobDuration   *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		fetchRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_responses_total",
			Help:      "Upstream HTTP responses by status code",
		}, []string{"code"}),
		fetchRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_retries_total",
			Help:      "Requests retried after a server error",
		}),
		jobRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Finished ingestion jobs by outcome",
		}, []string{"job", "status"}),
		jobDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Wall time of one ingestion job",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		}, []string{"job"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveResponse implements fetch.Observer.
func (m *Metrics) ObserveResponse(code int) {
	m.fetchRequests.WithLabelValues(strconv.Itoa(code)).Inc()
}

// ObserveRetry implements fetch.Observer.
func (m *Metrics) ObserveRetry() {
	m.fetchRetries.Inc()
}

// Report implements report.Reporter.
func (m *Metrics) Report(_ context.Context, _ string, results dispatch.Results) error {
	for _, r := range results {
		m.jobRuns.WithLabelValues(r.Job, string(r.Status())).Inc()
		m.jobDuration.WithLabelValues(r.Job).Observe(r.Duration.Seconds())
	}
	return nil
}

// Push sends every collector to the Pushgateway at url, grouped by run.
func (m *Metrics) Push(ctx context.Context, url, runID string) error {
	return push.New(url, pushJob).
		Gatherer(m.registry).
		Grouping("run_id", runID).
		PushContext(ctx)
}
