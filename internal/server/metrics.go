package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nonmax_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nonmax_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Suppression metrics
	suppressRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nonmax_suppress_requests_total",
			Help: "Total number of suppression requests",
		},
		[]string{"transport", "status"}, // transport: http, websocket
	)

	suppressDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nonmax_suppress_duration_seconds",
			Help:    "Suppression processing duration in seconds",
			Buckets: []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"transport"},
	)

	boxesInput = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nonmax_boxes_input",
			Help:    "Number of candidate boxes per request",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
	)

	boxesKept = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nonmax_boxes_kept",
			Help:    "Number of boxes surviving suppression per request",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nonmax_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nonmax_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // direction: received, sent
	)
)
