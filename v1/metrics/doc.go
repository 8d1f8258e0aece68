// Package metrics exposes Prometheus metrics for envelope sessions and the
// kafka and rabbit transports.
//
// *Metrics implements observability.Observer. Attach it with WithObserver and
// every write, read, resolve, produce and consume operation is counted,
// timed and, when it carries a payload, sized:
//
//	serde_operations_total{component,operation,resource,status}
//	serde_operation_errors_total{component,operation,resource,kind}
//	serde_operation_duration_seconds{component,operation,resource}
//	serde_payload_size_bytes{component,operation,resource}
//
// The kind label classifies envelope errors (malformed, truncated,
// missing_header, out_of_range, unresolved_reference, resolution_failed,
// configuration) so a dashboard can tell producer misconfiguration from
// foreign traffic on a topic.
//
// # Direct Usage (Without FX)
//
//	m := metrics.NewMetrics(metrics.Config{
//		Address:                 ":9090",
//		ServiceName:             "orders-consumer",
//		EnableDefaultCollectors: true,
//	})
//	go m.Server.ListenAndServe()
//
//	session = session.WithObserver(m)
//	client = client.WithObserver(m)
//
// Additional metrics can be registered with CreateCounter, CreateHistogram
// and CreateGauge; they carry the same service label.
//
// # FX Module Integration
//
//	app := fx.New(
//		metrics.FXModule, // provides *Metrics, MetricsCollector and observability.Observer
//		envelope.FXModule,
//		fx.Provide(func() metrics.Config {
//			return metrics.Config{Address: ":9090", ServiceName: "orders-consumer"}
//		}),
//	)
//
// The server is started in the background on OnStart and shut down on OnStop.
//
// # Configuration
//
//	METRICS_ADDRESS=:9090
//	METRICS_SERVICE_NAME=orders-consumer
//	METRICS_NAMESPACE=serde
//	METRICS_ENABLE_DEFAULT_COLLECTORS=true
package metrics
