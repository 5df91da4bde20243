// Package metrics holds the prometheus collectors exported on /metrics.
//
// All recording methods are safe on a nil *Metrics so packages can take
// one as an optional dependency.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "wgfold"

// Metrics groups the collectors of one process.
type Metrics struct {
	Registry *prometheus.Registry

	Operations       *prometheus.CounterVec
	OperationSeconds *prometheus.HistogramVec
	Commands         *prometheus.CounterVec
	CommandSeconds   *prometheus.HistogramVec
	HTTPRequests     *prometheus.CounterVec
	HTTPSeconds      *prometheus.HistogramVec
	Peers            *prometheus.GaugeVec
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Reconciliation operations by interface, operation and status",
			},
			[]string{"interface", "operation", "status"},
		),
		OperationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of reconciliation operations including lock wait",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		Commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "External command invocations by command and outcome",
			},
			[]string{"command", "status"},
		),
		CommandSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "command_duration_seconds",
				Help:      "Duration of external command invocations",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
			},
			[]string{"command"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "code"},
		),
		HTTPSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		Peers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "peers",
				Help:      "Peers in the canonical config after the last sync",
			},
			[]string{"interface"},
		),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Operations,
		m.OperationSeconds,
		m.Commands,
		m.CommandSeconds,
		m.HTTPRequests,
		m.HTTPSeconds,
		m.Peers,
	)
	return m
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveOperation records one reconciliation operation.
func (m *Metrics) ObserveOperation(iface, operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(iface, operation, status(err)).Inc()
	m.OperationSeconds.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// ObserveCommand records one external command invocation.
func (m *Metrics) ObserveCommand(command string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.Commands.WithLabelValues(command, status(err)).Inc()
	m.CommandSeconds.WithLabelValues(command).Observe(time.Since(started).Seconds())
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, code).Inc()
	m.HTTPSeconds.WithLabelValues(route).Observe(elapsed.Seconds())
}

// SetPeers records the peer count of an interface.
func (m *Metrics) SetPeers(iface string, n int) {
	if m == nil {
		return
	}
	m.Peers.WithLabelValues(iface).Set(float64(n))
}
