package kafka

import (
	"context"

	"github.com/Aleph-Alpha/serde/v1/envelope"
	"github.com/Aleph-Alpha/serde/v1/observability"
	"go.uber.org/fx"
)

// FXModule provides a *KafkaClient whose value channel uses the *envelope.Session
// from the container, and shuts it down when the application stops.
//
//	app := fx.New(
//		logger.FXModule,
//		envelope.FXModule,
//		kafka.FXModule,
//		fx.Provide(func() kafka.Config { ... }, func() envelope.Config { ... }),
//	)
var FXModule = fx.Module("kafka",
	fx.Provide(
		NewClientWithDI,
	),
	fx.Invoke(RegisterKafkaLifecycle),
)

// KafkaParams groups the dependencies needed to create a Kafka client
type KafkaParams struct {
	fx.In

	Config       Config
	ValueSession *envelope.Session
	Logger       Logger                 `optional:"true"`
	Observer     observability.Observer `optional:"true"`
	Propagator   Propagator             `optional:"true"`
}

// NewClientWithDI creates a Kafka client using dependency injection.
func NewClientWithDI(params KafkaParams) (*KafkaClient, error) {
	cfg := params.Config
	if cfg.Logger == nil && params.Logger != nil {
		cfg.Logger = params.Logger
	}

	client, err := NewClient(cfg, Sessions{Value: params.ValueSession})
	if err != nil {
		return nil, err
	}
	if params.Observer != nil {
		client = client.WithObserver(params.Observer)
	}
	if params.Propagator != nil {
		client = client.WithPropagator(params.Propagator)
	}
	return client, nil
}

// RegisterKafkaLifecycle shuts the client down when the application stops.
func RegisterKafkaLifecycle(lc fx.Lifecycle, client *KafkaClient) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.GracefulShutdown()
		},
	})
}
