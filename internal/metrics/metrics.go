// Package metrics exposes Prometheus collectors for the payload caches and
// builds.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts memoized lookups served without loading.
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "occmap_cache_hits_total",
			Help: "Memoized lookups served from cache",
		},
		[]string{"cache"},
	)

	// CacheMisses counts lookups that had to load.
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "occmap_cache_misses_total",
			Help: "Memoized lookups that triggered a load",
		},
		[]string{"cache"},
	)

	// BuildDuration tracks how long each source load or payload build took.
	BuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "occmap_build_duration_seconds",
			Help:    "Duration of source loads and payload builds",
			Buckets: []float64{.01, .05, .1, .5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"cache"},
	)

	// BuildErrors counts failed loads.
	BuildErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "occmap_build_errors_total",
			Help: "Failed source loads and payload builds",
		},
		[]string{"cache"},
	)

	// PayloadFeatures is the feature count of the cached choropleth payload.
	PayloadFeatures = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "occmap_payload_features",
			Help: "Features in the cached choropleth payload",
		},
	)
)

// RecordCacheHit increments the hit counter for cache.
func RecordCacheHit(cache string) {
	CacheHits.WithLabelValues(cache).Inc()
}

// RecordCacheMiss increments the miss counter for cache.
func RecordCacheMiss(cache string) {
	CacheMisses.WithLabelValues(cache).Inc()
}

// RecordBuild observes a load duration and counts it as failed when err is set.
func RecordBuild(cache string, duration time.Duration, err error) {
	BuildDuration.WithLabelValues(cache).Observe(duration.Seconds())
	if err != nil {
		BuildErrors.WithLabelValues(cache).Inc()
	}
}
