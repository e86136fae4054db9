package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barbershop_http_requests_total",
		Help: "Total HTTP requests by method, route and status.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "barbershop_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	VisitsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "barbershop_visits_recorded_total",
		Help: "Visits committed to the ledger.",
	})

	// Redemptions is labelled by outcome: redeemed, ineligible, limit_exceeded, expired, conflict, invalid.
	Redemptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barbershop_redemptions_total",
		Help: "Redemption attempts by outcome.",
	}, []string{"result"})

	VisitConflictRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "barbershop_visit_conflict_retries_total",
		Help: "Visit transactions retried after losing an optimistic concurrency race.",
	})

	RewardCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barbershop_reward_cache_lookups_total",
		Help: "Active reward catalog lookups by cache result.",
	}, []string{"result"})
)
