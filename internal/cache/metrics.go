package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var invalidationTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cache_invalidation_total",
		Help: "Total number of cache invalidation operations by outcome.",
	},
	[]string{"operation", "result"},
)

func recordInvalidation(operation string, ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	invalidationTotal.WithLabelValues(operation, result).Inc()
}
