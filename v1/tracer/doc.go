// Package tracer provides distributed tracing built on OpenTelemetry.
//
// A Tracer creates spans and moves W3C trace context in and out of string
// header maps. It satisfies the Propagator interfaces of the kafka and rabbit
// clients, which send the trace context next to the envelope headers and
// restore it on Message.Context. It also implements observability.Observer,
// turning every envelope or transport operation into a span.
//
// Basic Usage:
//
//	tr, err := tracer.NewClient(tracer.Config{
//		ServiceName:  "orders-producer",
//		AppEnv:       "production",
//		EnableExport: true,
//		Endpoint:     "otel-collector:4318",
//	}, log)
//	if err != nil {
//		return err
//	}
//	defer tr.Shutdown(context.Background())
//
//	ctx, span := tr.StartSpan(ctx, "publish-order")
//	defer span.End()
//
//	tr.SetAttributes(span, map[string]interface{}{
//		"order.id": orderID,
//	})
//	if err := producer.Publish(ctx, rec); err != nil {
//		tr.RecordErrorOnSpan(span, err)
//	}
//
// Propagation through a transport:
//
//	producer = producer.WithPropagator(tr)
//	consumer = consumer.WithPropagator(tr)
//
//	for msg := range consumer.Consume(ctx, wg) {
//		ctx, span := tr.StartSpan(msg.Context(), "handle-order")
//		// ...
//		span.End()
//	}
//
// Operation spans:
//
//	session = session.WithObserver(observability.Observers(metricsClient, tr))
//
// FX Module Integration:
//
//	app := fx.New(
//		tracer.FXModule,
//		fx.Provide(func() tracer.Config { return tracer.Config{ServiceName: "orders"} }),
//	)
//
// The provider is shut down, flushing pending spans, when the application stops.
package tracer
