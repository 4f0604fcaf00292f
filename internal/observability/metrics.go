package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "buddy_service",
		Subsystem: "persistence",
		Name:      "last_request_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent buddy request persisted to Postgres.",
	})
	matchCreatedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "buddy_service",
		Subsystem: "persistence",
		Name:      "last_match_created_timestamp_seconds",
		Help:      "Unix timestamp of the most recent activity match created.",
	})
	matchesCreatedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "buddy_service",
		Subsystem: "persistence",
		Name:      "matches_created_total",
		Help:      "Number of activity matches created from accepted requests.",
	})
	searchResultsHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "buddy_service",
		Subsystem: "matching",
		Name:      "search_results",
		Help:      "Number of ranked matches returned per find-buddies call.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})
)

func init() {
	prometheus.MustRegister(requestPersistGauge, matchCreatedGauge, matchesCreatedCounter, searchResultsHistogram)
}

// RecordRequestPersisted updates the request persistence watermark gauge.
func RecordRequestPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	requestPersistGauge.Set(float64(ts.Unix()))
}

// RecordMatchCreated updates the match watermark gauge and counter.
func RecordMatchCreated(ts time.Time) {
	if ts.IsZero() {
		return
	}
	matchCreatedGauge.Set(float64(ts.Unix()))
	matchesCreatedCounter.Inc()
}

// RecordSearchResults observes the result size of one find-buddies call.
func RecordSearchResults(count int) {
	searchResultsHistogram.Observe(float64(count))
}
