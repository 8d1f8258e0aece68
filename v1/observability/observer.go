package observability

import "time"

// Observer receives a notification after every tracked operation of a
// component. Implementations must be safe for concurrent use and must not
// block, since they are called inline on the hot path.
type Observer interface {
	ObserveOperation(ctx OperationContext)
}

// OperationContext describes one completed operation.
type OperationContext struct {
	// Component is the package that performed the operation, e.g. "envelope" or "kafka".
	Component string

	// Operation is the verb, e.g. "write", "read", "resolve", "produce".
	Operation string

	// Resource is the primary object operated on (topic, artifact id, header key).
	Resource string

	// SubResource carries additional context such as the envelope mode.
	SubResource string

	// Duration is the wall time the operation took.
	Duration time.Duration

	// Error is the error returned by the operation, or nil on success.
	Error error

	// Size is the number of payload bytes involved, when meaningful.
	Size int64

	// Metadata holds free-form extra fields.
	Metadata map[string]interface{}
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(ctx OperationContext)

// ObserveOperation calls f(ctx).
func (f ObserverFunc) ObserveOperation(ctx OperationContext) {
	f(ctx)
}

// Observers fans every operation out to each non-nil observer in order.
func Observers(observers ...Observer) Observer {
	list := make([]Observer, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			list = append(list, o)
		}
	}
	return multiObserver(list)
}

type multiObserver []Observer

func (m multiObserver) ObserveOperation(ctx OperationContext) {
	for _, o := range m {
		o.ObserveOperation(ctx)
	}
}
