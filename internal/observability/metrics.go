package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MatchesTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "roadside_dispatch", Name: "matches_total", Help: "Requests assigned to a provider"})
	MatchesEmpty = promauto.NewCounter(prometheus.CounterOpts{Namespace: "roadside_dispatch", Name: "matches_empty_total", Help: "Requests with no eligible provider in radius"})
	ClaimsLost   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "roadside_dispatch", Name: "provider_claims_lost_total", Help: "Provider claims lost to a concurrent assignment"})

	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "roadside_dispatch", Name: "lifecycle_transitions_total", Help: "Request lifecycle transitions applied"},
		[]string{"to"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "roadside_dispatch", Name: "notifications_sent_total", Help: "Best-effort notifications dispatched"},
		[]string{"channel", "outcome"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "roadside_dispatch", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "roadside_dispatch",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
