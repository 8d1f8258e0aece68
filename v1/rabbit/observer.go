package rabbit

import (
	"time"

	"github.com/Aleph-Alpha/serde/v1/observability"
)

// observeOperation notifies the observer about a publish or consume.
// resource is the exchange or queue, subResource the routing key.
func (rb *RabbitClient) observeOperation(operation, resource, subResource string, duration time.Duration, err error, size int64) {
	if rb == nil || rb.observer == nil {
		return
	}
	rb.observer.ObserveOperation(observability.OperationContext{
		Component:   "rabbit",
		Operation:   operation,
		Resource:    resource,
		SubResource: subResource,
		Duration:    duration,
		Error:       err,
		Size:        size,
	})
}
