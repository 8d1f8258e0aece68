package envelope

import (
	"context"

	"github.com/Aleph-Alpha/serde/v1/observability"
	"go.uber.org/fx"
)

// FXModule provides a *Session built from an envelope.Config and closes it on stop.
// A Registry, Logger or observability.Observer found in the container is used
// when present.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    envelope.FXModule,
//	    fx.Provide(func() envelope.Config {
//	        return envelope.Config{
//	            Registry:   schema_registry.Config{URL: "http://localhost:8080/api"},
//	            UseHeaders: true,
//	        }
//	    }),
//	)
var FXModule = fx.Module("envelope",
	fx.Provide(
		NewSessionWithDI,
	),
	fx.Invoke(RegisterSessionLifecycle),
)

// SessionParams groups the dependencies needed to create a Session
type SessionParams struct {
	fx.In

	Config   Config
	Registry Registry               `optional:"true"`
	Logger   Logger                 `optional:"true"`
	Observer observability.Observer `optional:"true"`
}

// NewSessionWithDI creates a Session using dependency injection.
func NewSessionWithDI(params SessionParams) (*Session, error) {
	var opts []Option
	if params.Registry != nil {
		opts = append(opts, WithRegistry(params.Registry))
	}
	if params.Logger != nil {
		opts = append(opts, WithLogger(params.Logger))
	}

	session, err := NewSession(params.Config, opts...)
	if err != nil {
		return nil, err
	}
	if params.Observer != nil {
		session = session.WithObserver(params.Observer)
	}
	return session, nil
}

// RegisterSessionLifecycle closes the session, and with it the registry, when the application stops.
func RegisterSessionLifecycle(lc fx.Lifecycle, session *Session) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return session.Close()
		},
	})
}
