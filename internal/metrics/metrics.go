// Package metrics records Tower request counts and latencies in Prometheus
// form.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so several collectors can coexist in
// tests. It implements transport.Observer.
type Collector struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New registers the request metrics. withRuntime adds the Go and process
// collectors, which the server wants and tests do not.
func New(withRuntime bool) (*Collector, error) {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tower_client",
			Name:      "requests_total",
			Help:      "Requests sent to Tower, by method and HTTP status (0 when no response arrived).",
		},
		[]string{"method", "code"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tower_client",
			Name:      "request_duration_seconds",
			Help:      "Latency of requests sent to Tower.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method"},
	)

	cs := []prometheus.Collector{requests, duration}
	if withRuntime {
		cs = append(cs,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	for _, c := range cs {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("registering metric: %w", err)
		}
	}
	return &Collector{registry: registry, requests: requests, duration: duration}, nil
}

// ObserveRequest records one completed request.
func (c *Collector) ObserveRequest(method string, status int, elapsed time.Duration) {
	c.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
