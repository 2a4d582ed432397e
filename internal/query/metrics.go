package query

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adminctl_query_cache_hits_total",
			Help: "Queries answered from fresh cached data",
		},
		[]string{"resource"},
	)

	cacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adminctl_query_cache_misses_total",
			Help: "Queries that had to fetch",
		},
		[]string{"resource"},
	)

	fetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adminctl_query_cache_fetch_errors_total",
			Help: "Fetches that failed after all retries",
		},
		[]string{"resource"},
	)
)
