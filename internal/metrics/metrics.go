package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the Prometheus collectors of the resolution pipeline.
type Metrics struct {
	ResolveTotal          *prometheus.CounterVec
	RemoteRequests        *prometheus.CounterVec
	RemoteRequestDuration prometheus.Histogram
	RemoteBreakerState    prometheus.Gauge
	CacheLookups          *prometheus.CounterVec
	ClusterSizes          prometheus.Histogram
}

// New registers the collectors against reg, defaulting to the global registry when nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		ResolveTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "venue_resolve_total",
			Help: "Location resolutions by the tier that produced the result, or none.",
		}, []string{"tier"}),
		RemoteRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "venue_remote_requests_total",
			Help: "Place-search API calls by outcome.",
		}, []string{"outcome"}), // "hit", "empty", "out_of_bounds", "error", "rejected"
		RemoteRequestDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "venue_remote_request_duration_seconds",
			Help:    "Latency of place-search API calls in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),
		RemoteBreakerState: f.NewGauge(prometheus.GaugeOpts{
			Name: "venue_remote_breaker_state",
			Help: "Place-search circuit breaker state (0=closed, 1=half-open, 2=open).",
		}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "venue_cache_lookups_total",
			Help: "Position cache lookups by result.",
		}, []string{"result"}), // "hit", "miss", "error"
		ClusterSizes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "venue_cluster_size",
			Help:    "Number of events per venue cluster.",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		}),
	}
}

// NewNop returns collectors bound to a private registry that is never scraped.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
