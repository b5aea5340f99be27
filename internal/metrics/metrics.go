package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP Metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec
	RateLimitRejections *prometheus.CounterVec

	// Provider Metrics
	GeoLookupsTotal   *prometheus.CounterVec
	GeoLookupDuration *prometheus.HistogramVec

	// Screen Metrics
	PhaseTransitions *prometheus.CounterVec
	LookupsInFlight  prometheus.Gauge
	MapMounts        prometheus.Counter
	MapRecenters     prometheus.Counter
}

// New creates all metrics and registers them with the default registry
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates all metrics on the given registerer.
// Tests pass a fresh prometheus.NewRegistry() so repeated construction does
// not collide on metric names.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),

		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 7),
			},
			[]string{"method", "route", "status"},
		),

		RateLimitRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_limit_rejections_total",
				Help: "Requests rejected by the rate limiter",
			},
			[]string{"route"},
		),

		GeoLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geo_lookups_total",
				Help: "Total number of geolocation provider lookups",
			},
			[]string{"kind", "result"},
		),

		GeoLookupDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "geo_lookup_duration_seconds",
				Help:    "Geolocation provider round trip in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),

		PhaseTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lookup_phase_transitions_total",
				Help: "Controller phase transitions by target phase",
			},
			[]string{"phase"},
		),

		LookupsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "lookups_in_flight",
				Help: "Lookups started by the controller and not yet completed",
			},
		),

		MapMounts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "map_mounts_total",
				Help: "Times a map widget was mounted",
			},
		),

		MapRecenters: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "map_recenters_total",
				Help: "Times a mounted map widget was re-centered on new coordinates",
			},
		),
	}
}
