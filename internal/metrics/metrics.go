// Package metrics provides Prometheus metrics for route geometry runs and the
// HTTP server.
package metrics

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Turnaround outcomes recorded by TurnaroundsTotal.
const (
	OutcomeSplit        = "split"
	OutcomeNoSplit      = "no_split"
	OutcomeInsufficient = "insufficient_data"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Registry is the Prometheus registry for this metrics instance
	Registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	RateLimitedTotal    prometheus.Counter

	// Pipeline metrics
	StopsIndexed        prometheus.Gauge
	RecordsOmittedTotal *prometheus.CounterVec
	DuplicateStopsTotal prometheus.Counter
	LinesBuiltTotal     prometheus.Counter
	MissingStopsTotal   prometheus.Counter
	TurnaroundsTotal    *prometheus.CounterVec
	RunDuration         prometheus.Histogram
	LastRunTimestamp    prometheus.Gauge

	// logger for error reporting
	logger *slog.Logger
}

// New creates and registers all application metrics with a new registry.
func New() *Metrics {
	return NewWithLogger(nil)
}

// NewWithLogger creates metrics with a logger for error reporting.
func NewWithLogger(logger *slog.Logger) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "routegeom_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "routegeom_http_request_duration_seconds",
				Help:    "HTTP request latency distribution",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		RateLimitedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "routegeom_http_rate_limited_total",
			Help: "Requests rejected by the per-key rate limiter",
		}),
		StopsIndexed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "routegeom_stops_indexed",
			Help: "Stops in the index of the last run",
		}),
		RecordsOmittedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "routegeom_records_omitted_total",
				Help: "Input records left out of the stop index",
			},
			[]string{"reason"},
		),
		DuplicateStopsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "routegeom_duplicate_stops_total",
			Help: "Stop ids seen more than once while indexing",
		}),
		LinesBuiltTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "routegeom_lines_built_total",
			Help: "Route lines written to the collection",
		}),
		MissingStopsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "routegeom_missing_stops_total",
			Help: "Requested stop ids absent from the index",
		}),
		TurnaroundsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "routegeom_turnarounds_total",
				Help: "Turnaround detection attempts by outcome",
			},
			[]string{"outcome"},
		),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "routegeom_run_duration_seconds",
			Help:    "Wall time of a pipeline run",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "routegeom_last_run_timestamp_seconds",
			Help: "Unix time at which the last pipeline run finished",
		}),
		logger: logger,
	}

	// Register all metrics with the custom registry
	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.RateLimitedTotal,
		m.StopsIndexed,
		m.RecordsOmittedTotal,
		m.DuplicateStopsTotal,
		m.LinesBuiltTotal,
		m.MissingStopsTotal,
		m.TurnaroundsTotal,
		m.RunDuration,
		m.LastRunTimestamp,
	)

	return m
}

// ObserveRun records the duration and completion time of a pipeline run.
func (m *Metrics) ObserveRun(d time.Duration, finished time.Time) {
	if m == nil {
		return
	}
	m.RunDuration.Observe(d.Seconds())
	m.LastRunTimestamp.Set(float64(finished.Unix()))
}

// WriteTextfile writes the registry in the text exposition format, for the
// node exporter textfile collector. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		if m.logger != nil {
			m.logger.Error("failed to write metrics textfile", "path", path, "error", err)
		}
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
