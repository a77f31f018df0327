// Package metrics declares the Prometheus collectors shared by the bridge
// components. Collectors register on the default registry at init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PrintJobs counts dispatched print jobs by transport and result.
	PrintJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "posbridge_print_jobs_total",
		Help: "Print jobs dispatched, by transport and result.",
	}, []string{"transport", "result"})

	// PrintDuration observes the time spent writing a job to the device.
	PrintDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "posbridge_print_duration_seconds",
		Help:    "Time to open the transport and write a print job.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"transport"})

	StatusQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "posbridge_status_queries_total",
		Help: "Printer status queries, by decoded status.",
	}, []string{"status"})

	// AssetCache counts branding asset lookups served from disk (hit) or refetched (miss).
	AssetCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "posbridge_asset_cache_total",
		Help: "Branding asset cache lookups, by result.",
	}, []string{"result"})

	Downloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "posbridge_downloads_total",
		Help: "Remote image downloads, by cache and result.",
	}, []string{"cache", "result"})

	DiscoveredPorts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "posbridge_discovered_ports_total",
		Help: "Ports reported by discovery, by technique.",
	}, []string{"technique"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "posbridge_http_requests_total",
		Help: "Local API requests, by method, route and status.",
	}, []string{"method", "route", "status"})
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultHit     = "hit"
	ResultMiss    = "miss"
)

// Result maps an error to the success/failure label.
func Result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
