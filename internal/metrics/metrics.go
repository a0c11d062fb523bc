// Package metrics exposes the service's prometheus collectors.
package metrics

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// register adds c to registerer, or returns the collector already registered
// under the same descriptor so repeated construction in tests is harmless.
func register[T prometheus.Collector](registerer prometheus.Registerer, c T, name string) T {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	err := registerer.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		existing, ok := are.ExistingCollector.(T)
		if !ok {
			panic(fmt.Sprintf("collector %q already registered with unexpected type", name))
		}
		return existing
	}
	panic(fmt.Sprintf("register %q: %v", name, err))
}

// HTTPMetrics counts and times HTTP requests by route template.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics registers the HTTP collectors with registerer.
func NewHTTPMetrics(registerer prometheus.Registerer) *HTTPMetrics {
	return &HTTPMetrics{
		requests: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_http_requests_total",
			Help: "HTTP requests handled, by method, route and status code",
		}, []string{"method", "route", "status"}), "catalog_http_requests_total"),
		duration: register(registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "catalog_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}), "catalog_http_request_duration_seconds"),
	}
}

// Observe records one finished request. route should be the matched template
// (e.g. /orders/:user_id) to keep label cardinality bounded.
func (m *HTTPMetrics) Observe(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// EnrichmentMetrics counts how order lines resolve against the catalog.
// It satisfies orders.Recorder.
type EnrichmentMetrics struct {
	resolved prometheus.Counter
	dangling prometheus.Counter
	orders   prometheus.Counter
}

func NewEnrichmentMetrics(registerer prometheus.Registerer) *EnrichmentMetrics {
	return &EnrichmentMetrics{
		resolved: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_order_items_resolved_total",
			Help: "Order items joined with an existing product",
		}), "catalog_order_items_resolved_total"),
		dangling: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_order_items_dangling_total",
			Help: "Order items whose product no longer exists",
		}), "catalog_order_items_dangling_total"),
		orders: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_orders_enriched_total",
			Help: "Orders joined against the catalog",
		}), "catalog_orders_enriched_total"),
	}
}

func (m *EnrichmentMetrics) ObserveResolution(resolved, dangling int) {
	m.orders.Inc()
	m.resolved.Add(float64(resolved))
	m.dangling.Add(float64(dangling))
}
