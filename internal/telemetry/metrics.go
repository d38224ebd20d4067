/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "smartplaylist"

var (
	// APIRequestDuration tracks HTTP request latency by route.
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})

	// APIRequestsTotal counts HTTP requests by route and status.
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_requests_total",
		Help:      "HTTP requests served.",
	}, []string{"method", "endpoint", "status"})

	// APIActiveConnections is the number of in-flight requests.
	APIActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "api_active_connections",
		Help:      "In-flight HTTP requests.",
	})

	// CompileTotal counts playlist compilations by outcome: ok, error or cached.
	CompileTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "compile_total",
		Help:      "Smart playlist compilations.",
	}, []string{"result"})

	// CompileDuration tracks compile latency, excluding cache hits.
	CompileDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "compile_duration_seconds",
		Help:      "Smart playlist compile latency.",
		Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
	})

	// CompiledRules observes the rule count of compiled playlists.
	CompiledRules = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "compiled_rules",
		Help:      "Rules per compiled smart playlist.",
		Buckets:   prometheus.LinearBuckets(0, 2, 10),
	})

	// TracksReturned observes how many tracks a playlist query yields.
	TracksReturned = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "tracks_returned",
		Help:      "Tracks returned by smart playlist queries.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	})

	// DatabaseQueryDuration tracks gorm operation latency by table.
	DatabaseQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "database_query_duration_seconds",
		Help:      "Database operation latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// DatabaseErrorsTotal counts failed database operations.
	DatabaseErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "database_errors_total",
		Help:      "Failed database operations.",
	}, []string{"operation", "error_type"})

	// DatabaseConnectionsActive is the number of open database connections.
	DatabaseConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "database_connections_active",
		Help:      "Open database connections.",
	})

	// SkippedRules counts persisted rules that could not be reified on load.
	SkippedRules = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "skipped_rules_total",
		Help:      "Stored rules dropped because their field or matcher id is unknown.",
	})
)

// Handler exposes metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
