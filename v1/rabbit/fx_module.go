package rabbit

import (
	"context"
	"sync"

	"github.com/Aleph-Alpha/serde/v1/envelope"
	"github.com/Aleph-Alpha/serde/v1/observability"
	"go.uber.org/fx"
)

// FXModule is an fx.Module that provides and configures the RabbitMQ client.
//
// The module provides:
// 1. *RabbitClient (concrete type) for direct use
// 2. Client interface for dependency injection
// 3. Lifecycle management: the reconnect loop runs while the app is started
//
// Usage:
//
//	app := fx.New(
//	    envelope.FXModule,
//	    rabbit.FXModule,
//	    // other modules...
//	)
var FXModule = fx.Module("rabbit",
	fx.Provide(
		NewClientWithDI,
		fx.Annotate(
			func(r *RabbitClient) Client { return r },
			fx.As(new(Client)),
		),
	),
	fx.Invoke(RegisterRabbitLifecycle),
)

// RabbitParams groups the dependencies needed to create a Rabbit client
type RabbitParams struct {
	fx.In

	Config     Config
	Session    *envelope.Session
	Logger     Logger                 `optional:"true"`
	Observer   observability.Observer `optional:"true"`
	Propagator Propagator             `optional:"true"`
}

// NewClientWithDI creates a new RabbitMQ client using dependency injection.
// The optional logger, observer and propagator are attached when present.
func NewClientWithDI(params RabbitParams) (*RabbitClient, error) {
	client, err := NewClient(params.Config, params.Session)
	if err != nil {
		return nil, err
	}

	if params.Logger != nil {
		client.WithLogger(params.Logger)
	}
	if params.Observer != nil {
		client.WithObserver(params.Observer)
	}
	if params.Propagator != nil {
		client.WithPropagator(params.Propagator)
	}

	return client, nil
}

// RabbitLifecycleParams groups the dependencies needed for RabbitMQ lifecycle management
type RabbitLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Client    *RabbitClient
	Config    Config
}

// RegisterRabbitLifecycle starts RetryConnection on start and shuts the client
// down on stop, waiting for the reconnect loop to exit.
func RegisterRabbitLifecycle(params RabbitLifecycleParams) {
	wg := &sync.WaitGroup{}

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			wg.Add(1)
			go func(cfg Config) {
				defer wg.Done()
				params.Client.RetryConnection(cfg)
			}(params.Config)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			params.Client.GracefulShutdown()
			wg.Wait()
			return nil
		},
	})
}
