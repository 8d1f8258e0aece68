// Package observability defines the hook used by the envelope, kafka and
// rabbit packages to report completed operations.
//
// Components never depend on a concrete metrics or tracing backend. Instead
// they accept an Observer through a WithObserver builder and call it after
// each operation with an OperationContext. The metrics package ships an
// Observer backed by Prometheus.
//
// Example:
//
//	session = session.WithObserver(observability.ObserverFunc(func(op observability.OperationContext) {
//		log.Printf("%s.%s took %s", op.Component, op.Operation, op.Duration)
//	}))
package observability
