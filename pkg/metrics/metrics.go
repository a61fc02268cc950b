// Package metrics provides Prometheus collectors for field resolution.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Cache lookup results.
const (
	ResultHit  = "hit"
	ResultMiss = "miss"
)

// Collector holds the counters updated by processors.
// A nil *Collector is valid and records nothing.
type Collector struct {
	CacheLookups   *prometheus.CounterVec
	DiscoveryCalls *prometheus.CounterVec
	BackendErrors  *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
// Passing a nil registerer skips registration.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fieldkit_cache_lookups_total",
				Help: "Total number of persistent cache lookups by processor and result",
			},
			[]string{"field_type", "result"},
		),
		DiscoveryCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fieldkit_discovery_calls_total",
				Help: "Total number of field discovery queries sent to backing stores",
			},
			[]string{"field_type"},
		),
		BackendErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fieldkit_backend_errors_total",
				Help: "Total number of backing store errors degraded to empty results",
			},
			[]string{"field_type", "operation"},
		),
	}

	if reg != nil {
		reg.MustRegister(c.CacheLookups, c.DiscoveryCalls, c.BackendErrors)
	}
	return c
}

// CacheLookup records a persistent cache hit or miss.
func (c *Collector) CacheLookup(fieldType string, hit bool) {
	if c == nil {
		return
	}
	result := ResultMiss
	if hit {
		result = ResultHit
	}
	c.CacheLookups.WithLabelValues(fieldType, result).Inc()
}

// Discovery records one discovery query.
func (c *Collector) Discovery(fieldType string) {
	if c == nil {
		return
	}
	c.DiscoveryCalls.WithLabelValues(fieldType).Inc()
}

// BackendError records a degraded backend failure.
func (c *Collector) BackendError(fieldType, operation string) {
	if c == nil {
		return
	}
	c.BackendErrors.WithLabelValues(fieldType, operation).Inc()
}
