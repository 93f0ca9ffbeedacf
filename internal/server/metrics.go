package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the server's own instrumentation. Workspace counters exist
// to catch temp-dir leaks: opens and releases must converge.
type metrics struct {
	requestsTotal      *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	requestsInFlight   prometheus.Gauge
	workspaceOpens     prometheus.Counter
	workspaceFailures  prometheus.Counter
	workspaceReleases  prometheus.Counter
	workspaceLifetimes prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "modelplane_http_requests_total",
			Help: "HTTP requests served, by handler, method and status code.",
		}, []string{"handler", "method", "code"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "modelplane_http_request_duration_seconds",
			Help:    "HTTP request latency, by handler.",
			Buckets: prometheus.DefBuckets,
		}, []string{"handler"}),
		requestsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "modelplane_http_requests_in_flight",
			Help: "HTTP requests currently being served.",
		}),
		workspaceOpens: factory.NewCounter(prometheus.CounterOpts{
			Name: "modelplane_workspace_opens_total",
			Help: "Repository workspaces successfully cloned.",
		}),
		workspaceFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "modelplane_workspace_clone_failures_total",
			Help: "Repository clone attempts that failed.",
		}),
		workspaceReleases: factory.NewCounter(prometheus.CounterOpts{
			Name: "modelplane_workspace_releases_total",
			Help: "Repository workspaces released and removed from disk.",
		}),
		workspaceLifetimes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "modelplane_workspace_lifetime_seconds",
			Help:    "Time from workspace clone to release.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}
}
