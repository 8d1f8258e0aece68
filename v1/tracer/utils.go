package tracer

import (
	"context"
	"fmt"
	"time"

	"github.com/Aleph-Alpha/serde/v1/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	traceSpan "go.opentelemetry.io/otel/trace"
)

// RecordErrorOnSpan records err on span and marks the span as failed.
func (t *Tracer) RecordErrorOnSpan(span traceSpan.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// StartSpan starts a span named name as a child of the span in ctx, if any.
//
// Example:
//
//	ctx, span := tr.StartSpan(ctx, "resolve-schema")
//	defer span.End()
func (t *Tracer) StartSpan(ctx context.Context, name string) (context.Context, traceSpan.Span) {
	return t.tracer.Tracer(instrumentationName).Start(ctx, name)
}

// SetAttributes sets attrs on span. Values that are not string, int, int64,
// float64 or bool are formatted with fmt.Sprint.
func (t *Tracer) SetAttributes(span traceSpan.Span, attrs map[string]interface{}) {
	if len(attrs) == 0 {
		return
	}
	span.SetAttributes(toAttributes(attrs)...)
}

func toAttributes(attrs map[string]interface{}) []attribute.KeyValue {
	attributes := make([]attribute.KeyValue, 0, len(attrs))
	for k, v := range attrs {
		switch val := v.(type) {
		case string:
			attributes = append(attributes, attribute.String(k, val))
		case int:
			attributes = append(attributes, attribute.Int(k, val))
		case int64:
			attributes = append(attributes, attribute.Int64(k, val))
		case float64:
			attributes = append(attributes, attribute.Float64(k, val))
		case bool:
			attributes = append(attributes, attribute.Bool(k, val))
		default:
			attributes = append(attributes, attribute.String(k, fmt.Sprint(val)))
		}
	}
	return attributes
}

// GetCarrier returns the trace context of ctx as string headers, for
// Record.Headers or as the Propagator of a transport client.
func (t *Tracer) GetCarrier(ctx context.Context) map[string]string {
	carrier := propagation.MapCarrier{}
	t.propagator.Inject(ctx, carrier)
	return carrier
}

// SetCarrierOnContext returns ctx with the trace context found in carrier.
func (t *Tracer) SetCarrierOnContext(ctx context.Context, carrier map[string]string) context.Context {
	return t.propagator.Extract(ctx, propagation.MapCarrier(carrier))
}

// ObserveOperation records a finished operation as a span named
// "<component>.<operation>" covering its duration. Combine it with other
// observers through observability.Observers.
func (t *Tracer) ObserveOperation(op observability.OperationContext) {
	end := time.Now()
	_, span := t.tracer.Tracer(instrumentationName).Start(context.Background(),
		op.Component+"."+op.Operation,
		traceSpan.WithTimestamp(end.Add(-op.Duration)),
		traceSpan.WithSpanKind(traceSpan.SpanKindInternal),
	)

	attrs := map[string]interface{}{
		"serde.resource": op.Resource,
	}
	if op.SubResource != "" {
		attrs["serde.sub_resource"] = op.SubResource
	}
	if op.Size > 0 {
		attrs["serde.payload_size"] = op.Size
	}
	for k, v := range op.Metadata {
		attrs["serde."+k] = v
	}
	t.SetAttributes(span, attrs)

	if op.Error != nil {
		t.RecordErrorOnSpan(span, op.Error)
	}
	span.End(traceSpan.WithTimestamp(end))
}
