package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Loads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wbdash_loads_total",
			Help: "Dataset loads by outcome (network, cache, failed)",
		},
		[]string{"outcome"},
	)

	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wbdash_fetch_duration_seconds",
			Help:    "Duration of sheet fetches, successful or not",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	FetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wbdash_fetch_errors_total",
			Help: "Failed sheet fetches by error kind",
		},
		[]string{"kind"},
	)

	SnapshotWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wbdash_snapshot_writes_total",
			Help: "Snapshot cache writes by result",
		},
		[]string{"result"},
	)

	Records = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wbdash_records",
			Help: "Records held in memory (set=all|filtered)",
		},
		[]string{"set"},
	)

	// BreakerState: 0 closed, 1 half-open, 2 open.
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wbdash_breaker_state",
			Help: "Circuit breaker state of the sheet fetcher",
		},
		[]string{"name"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wbdash_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wbdash_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	LiveClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wbdash_live_clients",
			Help: "Connected websocket clients",
		},
	)
)
