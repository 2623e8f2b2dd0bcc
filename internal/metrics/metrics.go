// Package metrics provides Prometheus collectors and HTTP middleware for
// monitoring the questline server.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// RequestsTotal counts HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "questline_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "questline_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// AuthFailuresTotal counts rejected credentials by error code.
	AuthFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "questline_auth_failures_total",
			Help: "Authentication failures",
		},
		[]string{"code"},
	)

	// ChatConnections tracks open realtime connections.
	ChatConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "questline_chat_connections_active",
			Help: "Active chat connections",
		},
	)

	// ChatEventsTotal counts inbound chat events by name and outcome
	// (routed, rejected, dropped).
	ChatEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "questline_chat_events_total",
			Help: "Inbound chat events",
		},
		[]string{"event", "outcome"},
	)

	// ChatDeliveriesDropped counts outbound frames discarded because the
	// recipient's queue was full.
	ChatDeliveriesDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "questline_chat_deliveries_dropped_total",
			Help: "Outbound chat frames dropped for slow consumers",
		},
	)

	// RateLimitRejectedTotal counts requests rejected by a rate limiter.
	RateLimitRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "questline_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
		[]string{"scope"},
	)
)

// Chat event outcomes
const (
	OutcomeRouted   = "routed"
	OutcomeRejected = "rejected"
	OutcomeDropped  = "dropped"
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		AuthFailuresTotal,
		ChatConnections,
		ChatEventsTotal,
		ChatDeliveriesDropped,
		RateLimitRejectedTotal,
	)
}
