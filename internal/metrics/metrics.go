// Package metrics holds the Prometheus instrumentation of the match service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InteractionsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_interactions_recorded_total",
			Help: "Total number of recorded swipe interactions by action",
		},
		[]string{"action"},
	)

	MatchesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_matches_created_total",
			Help: "Total number of match records created by title type",
		},
		[]string{"title_type"},
	)

	MatchDuplicatesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "match_duplicates_skipped_total",
			Help: "Match checks that found an existing record for the pair and title",
		},
	)

	FriendLookupFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "match_friend_lookup_failures_total",
			Help: "Friend watchlist lookups that failed and were skipped",
		},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_store_errors_total",
			Help: "Persistence failures surfaced to callers by operation",
		},
		[]string{"operation"},
	)

	CatalogRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "match_catalog_request_duration_seconds",
			Help:    "Duration of catalog API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "status"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "match_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_cache_results_total",
			Help: "Cache lookups by cache name and result",
		},
		[]string{"cache", "result"},
	)
)

// RecordCatalogRequest observes one catalog call.
func RecordCatalogRequest(endpoint string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	CatalogRequestDuration.WithLabelValues(endpoint, status).Observe(time.Since(start).Seconds())
}

// RecordCache counts a cache hit or miss.
func RecordCache(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheResults.WithLabelValues(cache, result).Inc()
}
