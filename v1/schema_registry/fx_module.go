package schema_registry

import (
	"context"

	"github.com/Aleph-Alpha/serde/v1/observability"
	"go.uber.org/fx"
)

// Logger is the subset of the logger package used for lifecycle events.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
}

// FXModule is an fx.Module that provides and configures the registry client.
//
// Usage:
//
//	app := fx.New(
//	    schema_registry.FXModule,
//	    fx.Provide(
//	        func() schema_registry.Config {
//	            return schema_registry.Config{
//	                URL: "http://localhost:8080/api",
//	            }
//	        },
//	    ),
//	)
var FXModule = fx.Module("schema_registry",
	fx.Provide(
		NewClientWithDI,
	),
	fx.Invoke(RegisterSchemaRegistryLifecycle),
)

// SchemaRegistryParams groups the dependencies needed to create a registry client
type SchemaRegistryParams struct {
	fx.In

	Config   Config
	Observer observability.Observer `optional:"true"`
}

// NewClientWithDI creates a new registry client using dependency injection.
func NewClientWithDI(params SchemaRegistryParams) (Registry, error) {
	client, err := NewClient(params.Config)
	if err != nil {
		return nil, err
	}
	if params.Observer != nil {
		client.WithObserver(params.Observer)
	}
	return client, nil
}

// SchemaRegistryLifecycleParams groups the dependencies needed for registry lifecycle management
type SchemaRegistryLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Registry  Registry
	Logger    Logger `optional:"true"`
}

// RegisterSchemaRegistryLifecycle closes the registry client when the application stops.
func RegisterSchemaRegistryLifecycle(params SchemaRegistryLifecycleParams) {
	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if params.Logger != nil {
				params.Logger.Info("schema registry client initialized", nil, nil)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			err := params.Registry.Close()
			if err != nil && params.Logger != nil {
				params.Logger.Warn("schema registry client close failed", err, nil)
			}
			return err
		},
	})
}
