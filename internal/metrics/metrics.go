// Package metrics exposes refresh and provider counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aristath/fintrack/internal/refresh"
)

const namespace = "fintrack"

// Registry owns the fintrack collectors. Each instance has its own
// prometheus.Registry so tests never collide on the global one.
type Registry struct {
	reg *prometheus.Registry

	runs          *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	records       *prometheus.CounterVec
	providerCalls *prometheus.CounterVec
	lastRun       *prometheus.GaugeVec
}

// New creates a registry with the Go runtime and process collectors attached.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "refresh_runs_total",
				Help:      "Completed refresh runs by kind and result",
			},
			[]string{"kind", "result"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "refresh_run_duration_seconds",
				Help:      "Wall time of refresh runs",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~4m
			},
			[]string{"kind"},
		),
		records: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "refresh_records_total",
				Help:      "Records visited by refresh runs by outcome",
			},
			[]string{"kind", "outcome"},
		),
		providerCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_calls_total",
				Help:      "Price provider invocations by outcome",
			},
			[]string{"provider", "outcome"},
		),
		lastRun: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "refresh_last_run_timestamp_seconds",
				Help:      "Finish time of the latest run per kind",
			},
			[]string{"kind"},
		),
	}

	r.reg.MustRegister(
		r.runs, r.runDuration, r.records, r.providerCalls, r.lastRun,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveRun records a completed refresh run. Joined runs are skipped since
// the leader already counted them.
func (r *Registry) ObserveRun(report refresh.RunReport) {
	if report.Shared {
		return
	}
	kind := string(report.Kind)

	result := "ok"
	if report.Failed() {
		result = "aborted"
	}
	r.runs.WithLabelValues(kind, result).Inc()
	r.runDuration.WithLabelValues(kind).Observe(report.Duration().Seconds())
	r.lastRun.WithLabelValues(kind).Set(float64(report.FinishedAt.Unix()))

	t := report.Tally
	r.records.WithLabelValues(kind, "updated").Add(float64(t.Updated))
	r.records.WithLabelValues(kind, "failed").Add(float64(t.Failed))
	r.records.WithLabelValues(kind, "skipped").Add(float64(t.Skipped))
	r.records.WithLabelValues(kind, "config_error").Add(float64(t.ConfigErrors))
}

// ObserveProviderCall counts one provider invocation.
func (r *Registry) ObserveProviderCall(provider, outcome string) {
	r.providerCalls.WithLabelValues(provider, outcome).Inc()
}

// Gatherer exposes the underlying registry for tests and custom exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
