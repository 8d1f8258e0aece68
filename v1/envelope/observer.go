package envelope

import (
	"time"

	"github.com/Aleph-Alpha/serde/v1/observability"
)

// observeOperation notifies the observer about a write or read if one is configured.
//
// Notes:
//   - resource: the header key in header mode, "inline" otherwise
//   - subResource: "key" or "value" channel
func (s *Session) observeOperation(operation string, size int64, duration time.Duration, err error) {
	if s == nil || s.observer == nil {
		return
	}

	resource := s.cfg.Mode().String()
	if s.cfg.Mode() == ModeHeaders {
		resource = s.reader.keys.GlobalID
	}

	s.observer.ObserveOperation(observability.OperationContext{
		Component:   "envelope",
		Operation:   operation,
		Resource:    resource,
		SubResource: channelName(s.cfg.IsKey),
		Duration:    duration,
		Error:       err,
		Size:        size,
		Metadata: map[string]interface{}{
			"id_width": s.handler.Width(),
		},
	})
}

func (s *Session) observeResolve(ref ArtifactReference, duration time.Duration, err error) {
	if s == nil || s.observer == nil {
		return
	}

	s.observer.ObserveOperation(observability.OperationContext{
		Component:   "envelope",
		Operation:   "resolve",
		Resource:    ref.ArtifactID,
		SubResource: channelName(s.cfg.IsKey),
		Duration:    duration,
		Error:       err,
		Metadata: map[string]interface{}{
			"version": ref.Version,
		},
	})
}

func channelName(isKey bool) string {
	if isKey {
		return "key"
	}
	return "value"
}
