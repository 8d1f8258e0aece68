package tracer

import (
	"context"

	"go.uber.org/fx"
)

// FXModule provides the *Tracer and flushes it when the application stops.
//
// Usage:
//
//	app := fx.New(
//	    tracer.FXModule,
//	    kafka.FXModule, // picks the tracer up as its Propagator when annotated
//	    fx.Provide(func() tracer.Config { return tracer.Config{ServiceName: "orders"} }),
//	)
var FXModule = fx.Module("tracer",
	fx.Provide(
		NewClientWithDI,
	),
	fx.Invoke(RegisterTracerLifecycle),
)

// TracerParams groups the dependencies needed to create a Tracer
type TracerParams struct {
	fx.In

	Config Config
	Logger Logger `optional:"true"`
}

// NewClientWithDI creates a Tracer using dependency injection.
func NewClientWithDI(params TracerParams) (*Tracer, error) {
	return NewClient(params.Config, params.Logger)
}

// RegisterTracerLifecycle shuts the tracer provider down on stop, flushing
// pending spans to the exporter.
func RegisterTracerLifecycle(lc fx.Lifecycle, tracer *Tracer) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if tracer.logger != nil {
				tracer.logger.Info("shutting down tracer", nil, nil)
			}
			return tracer.Shutdown(ctx)
		},
	})
}
