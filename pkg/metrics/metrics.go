// Package metrics wires github.com/prometheus/client_golang into real
// counters and gauges for the cache engine, including the number of
// transfers in flight against the configured concurrency bound.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collectors groups every metric the cache engine updates. Build it with
// New or NewNoop; a zero-value Collectors holds nil metrics.
type Collectors struct {
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	FetchSuccess    prometheus.Counter
	FetchNotMod     prometheus.Counter
	FetchFailed     prometheus.Counter
	BlobsEvicted    prometheus.Counter
	InFlightFetches prometheus.Gauge
}

// New creates and registers a fresh set of collectors against registry.
func New(registry *prometheus.Registry) *Collectors {
	c := &Collectors{
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "imgcache", Name: "cache_hits_total",
			Help: "Disk-hit fast-path deliveries.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "imgcache", Name: "cache_misses_total",
			Help: "Disk-hit fast-path reads that found no blob to deliver.",
		}),
		FetchSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "imgcache", Name: "fetch_success_total",
			Help: "Origin transfers that returned a fresh body.",
		}),
		FetchNotMod: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "imgcache", Name: "fetch_not_modified_total",
			Help: "Origin transfers that returned 304 Not Modified.",
		}),
		FetchFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "imgcache", Name: "fetch_failed_total",
			Help: "Origin transfers that failed at the transport or HTTP-status layer.",
		}),
		BlobsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "imgcache", Name: "blobs_evicted_total",
			Help: "Blob files removed by scanAndEvict or by Remove.",
		}),
		InFlightFetches: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "imgcache", Name: "inflight_fetches",
			Help: "HTTP transfers currently in flight; must never exceed maxRequests.",
		}),
	}

	registry.MustRegister(
		c.CacheHits, c.CacheMisses, c.FetchSuccess, c.FetchNotMod,
		c.FetchFailed, c.BlobsEvicted, c.InFlightFetches,
	)
	return c
}

// NewNoop returns collectors registered only with a fresh private
// registry that nothing exposes, so updates are safe but never served.
func NewNoop() *Collectors {
	return New(prometheus.NewRegistry())
}
