package metrics

import (
	"context"
	"errors"

	"github.com/Aleph-Alpha/serde/v1/envelope"
	"github.com/Aleph-Alpha/serde/v1/observability"
)

// Error kinds used as the "kind" label of the errors counter.
const (
	KindMalformed     = "malformed"
	KindTruncated     = "truncated"
	KindMissingHeader = "missing_header"
	KindOutOfRange    = "out_of_range"
	KindUnresolved    = "unresolved_reference"
	KindResolution    = "resolution_failed"
	KindConfiguration = "configuration"
	KindCanceled      = "canceled"
	KindOther         = "other"
)

// ObserveOperation records one operation. It makes *Metrics usable as the
// observer of envelope sessions, kafka and rabbit clients.
func (m *Metrics) ObserveOperation(op observability.OperationContext) {
	status := "success"
	if op.Error != nil {
		status = "error"
		m.errorsTotal.WithLabelValues(op.Component, op.Operation, op.Resource, ErrorKind(op.Error)).Inc()
	}

	m.operationsTotal.WithLabelValues(op.Component, op.Operation, op.Resource, status).Inc()
	m.operationDuration.WithLabelValues(op.Component, op.Operation, op.Resource).Observe(op.Duration.Seconds())
	if op.Size > 0 {
		m.payloadSize.WithLabelValues(op.Component, op.Operation, op.Resource).Observe(float64(op.Size))
	}
}

// ErrorKind classifies err for the errors counter.
func ErrorKind(err error) string {
	switch {
	case envelope.IsMalformedEnvelope(err):
		return KindMalformed
	case envelope.IsTruncatedEnvelope(err):
		return KindTruncated
	case envelope.IsMissingEnvelopeHeader(err):
		return KindMissingHeader
	case errors.Is(err, envelope.ErrValueOutOfRange):
		return KindOutOfRange
	case errors.Is(err, envelope.ErrUnresolvedReference):
		return KindUnresolved
	case envelope.IsResolutionFailed(err):
		return KindResolution
	case errors.Is(err, envelope.ErrMissingConfiguration), errors.Is(err, envelope.ErrUnknownIDHandler):
		return KindConfiguration
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindOther
	}
}
