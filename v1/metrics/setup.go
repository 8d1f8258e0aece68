package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SizeBuckets are the payload size buckets in bytes.
var SizeBuckets = prometheus.ExponentialBuckets(64, 4, 8)

// Metrics holds the Prometheus registry, the operation metrics and the HTTP
// server exposing them on /metrics.
type Metrics struct {
	// Server defines the HTTP server used to expose the /metrics endpoint.
	Server *http.Server

	// Registry is the Prometheus registry where all metrics are registered.
	Registry *prometheus.Registry

	// registerer adds the service label
	registerer prometheus.Registerer

	operationsTotal   *prometheus.CounterVec
	errorsTotal       *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	payloadSize       *prometheus.HistogramVec
}

// NewMetrics creates a dedicated registry whose metrics all carry a constant
// service label, registers the operation metrics and, if enabled, the
// default Go and process collectors.
//
// Example:
//
//	m := metrics.NewMetrics(metrics.Config{
//		Address:     ":9090",
//		ServiceName: "orders-consumer",
//	})
//	session = session.WithObserver(m)
//	go m.Server.ListenAndServe()
func NewMetrics(cfg Config) *Metrics {
	if cfg.Address == "" {
		cfg.Address = DefaultAddress
	}
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}

	registry := prometheus.NewRegistry()
	wrapped := prometheus.WrapRegistererWith(
		prometheus.Labels{"service": cfg.ServiceName},
		registry,
	)

	m := &Metrics{
		Registry:   registry,
		registerer: wrapped,
	}

	labels := []string{"component", "operation", "resource"}
	m.operationsTotal = createCounterVec(cfg.Namespace+"_operations_total",
		"Total number of envelope and transport operations", append(labels, "status"))
	m.errorsTotal = createCounterVec(cfg.Namespace+"_operation_errors_total",
		"Total number of failed operations by error kind", append(labels, "kind"))
	m.operationDuration = createHistogramVec(cfg.Namespace+"_operation_duration_seconds",
		"Duration of operations in seconds", labels, prometheus.DefBuckets)
	m.payloadSize = createHistogramVec(cfg.Namespace+"_payload_size_bytes",
		"Size of framed and unframed payloads in bytes", labels, SizeBuckets)

	wrapped.MustRegister(
		m.operationsTotal,
		m.errorsTotal,
		m.operationDuration,
		m.payloadSize,
	)

	if cfg.EnableDefaultCollectors {
		wrapped.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	m.Server = &http.Server{
		Addr:    cfg.Address,
		Handler: mux,
	}
	return m
}
