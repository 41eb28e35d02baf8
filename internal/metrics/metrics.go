// Package metrics exposes Prometheus collectors for store round trips
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lineup",
		Name:      "query_duration_seconds",
		Help:      "Duration of store queries by operation.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	queryFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lineup",
		Name:      "query_failures_total",
		Help:      "Failed store queries by operation.",
	}, []string{"operation"})

	computedStats = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lineup",
		Name:      "computed_statistics_total",
		Help:      "Statistics requested by aggregate kind and outcome.",
	}, []string{"kind", "outcome"})
)

// ObserveQuery records one store round trip
func ObserveQuery(operation string, started time.Time, err error) {
	queryDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
	if err != nil {
		queryFailures.WithLabelValues(operation).Inc()
	}
}

// CountStat records one requested statistic
func CountStat(kind string, supported bool) {
	outcome := "computed"
	if !supported {
		outcome = "unsupported"
	}
	computedStats.WithLabelValues(kind, outcome).Inc()
}
