// ABOUTME: Prometheus counters for API requests, list pages and loaded records
// ABOUTME: Registered on the default registry and exposed by the web UI at /metrics
package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pipedrive_client",
			Name:      "requests_total",
			Help:      "HTTP requests sent to the Pipedrive API by method and status.",
		},
		[]string{"method", "status"},
	)

	pagesFetchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pipedrive_client",
			Name:      "pages_fetched_total",
			Help:      "List pages fetched by the pagination driver.",
		},
		[]string{"kind"},
	)

	recordsLoadedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pipedrive_client",
			Name:      "records_loaded_total",
			Help:      "Records refreshed or constructed from API responses.",
		},
		[]string{"kind"},
	)
)
