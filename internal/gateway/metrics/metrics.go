// Package metrics exposes the gateway's Prometheus series.
//
// Series:
//   - owsgate_proxy_requests_total{service,outcome}
//   - owsgate_proxy_upstream_duration_seconds{service,mode}
//   - owsgate_tokens_issued_total{kind}
//   - owsgate_token_validations_total{kind,result}
//
// A nil *Collector is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "owsgate"

// Proxy outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeNotFound  = "not_found"
	OutcomeForbidden = "forbidden"
	OutcomeFailed    = "failed"
	OutcomeError     = "error"
)

// Forwarding modes.
const (
	ModeBuffered = "buffered"
	ModeStreamed = "streamed"
)

// Collector owns the registry and every series the gateway records.
type Collector struct {
	registry *prometheus.Registry

	proxyRequests    *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	tokensIssued     *prometheus.CounterVec
	tokenValidations *prometheus.CounterVec
}

// New creates a collector on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(registry)
}

// NewWithRegistry registers the gateway series on registry.
func NewWithRegistry(registry *prometheus.Registry) *Collector {
	c := &Collector{
		registry: registry,

		proxyRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "proxy",
				Name:      "requests_total",
				Help:      "Proxied requests by service and outcome",
			},
			[]string{"service", "outcome"},
		),

		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "proxy",
				Name:      "upstream_duration_seconds",
				Help:      "Time until the upstream response was available",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"service", "mode"},
		),

		tokensIssued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tokens_issued_total",
				Help:      "Access tokens issued by strategy kind",
			},
			[]string{"kind"},
		),

		tokenValidations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "token_validations_total",
				Help:      "Token validations by strategy kind and result",
			},
			[]string{"kind", "result"},
		),
	}

	registry.MustRegister(
		c.proxyRequests,
		c.upstreamDuration,
		c.tokensIssued,
		c.tokenValidations,
	)
	return c
}

// ProxyRequest counts one proxied request.
func (c *Collector) ProxyRequest(service, outcome string) {
	if c == nil {
		return
	}
	c.proxyRequests.WithLabelValues(service, outcome).Inc()
}

// UpstreamDuration observes how long the backend took to answer.
func (c *Collector) UpstreamDuration(service, mode string, d time.Duration) {
	if c == nil {
		return
	}
	c.upstreamDuration.WithLabelValues(service, mode).Observe(d.Seconds())
}

// TokenIssued counts one issued token.
func (c *Collector) TokenIssued(kind string) {
	if c == nil {
		return
	}
	c.tokensIssued.WithLabelValues(kind).Inc()
}

// TokenValidated counts one validation and its result.
func (c *Collector) TokenValidated(kind string, ok bool) {
	if c == nil {
		return
	}
	result := "invalid"
	if ok {
		result = "valid"
	}
	c.tokenValidations.WithLabelValues(kind, result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
