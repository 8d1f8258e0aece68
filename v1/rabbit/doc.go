// Package rabbit publishes and consumes schema-tagged messages on RabbitMQ.
//
// A RabbitClient pairs an amqp091-go connection with an envelope.Session.
// Publish frames the payload with its schema global id, or puts the id in an
// apicurio.{key|value}.globalId header in header mode. Consumers receive the
// payload with the envelope removed and the id on Message.GlobalID.
//
// # Architecture
//
//   - Client interface: Defines the contract for RabbitMQ operations
//   - RabbitClient struct: Concrete implementation of the Client interface
//   - Message interface: Defines the contract for consumed messages
//   - FX module: Provides both *RabbitClient and Client interface for dependency injection
//
// # Direct Usage (Without FX)
//
//	session, err := envelope.NewSession(envelope.Config{
//		Registry: schema_registry.Config{URL: "http://registry:8080/api"},
//	})
//	if err != nil {
//		return err
//	}
//	defer session.Close()
//
//	client, err := rabbit.NewClient(rabbit.Config{
//		Connection: rabbit.Connection{
//			Host:     "localhost",
//			Port:     5672,
//			User:     "guest",
//			Password: "guest",
//		},
//		Channel: rabbit.Channel{
//			ExchangeName: "events",
//			ExchangeType: "topic",
//			RoutingKey:   "order.created",
//			QueueName:    "order-events",
//			IsConsumer:   true,
//		},
//	}, session)
//	if err != nil {
//		return err
//	}
//	defer client.GracefulShutdown()
//
//	client = client.
//		WithLogger(myLogger).
//		WithObserver(myObserver)
//
//	err = client.Publish(ctx, rabbit.Record{Value: payload, ID: globalID})
//
//	wg := &sync.WaitGroup{}
//	for msg := range client.Consume(ctx, wg) {
//		// decode msg.Body() with the schema of msg.GlobalID()
//		_ = msg.AckMsg()
//	}
//
// Deliveries whose envelope cannot be read are nacked without requeue, so
// they end up in the dead-letter queue when one is configured.
//
// # Error Handling
//
// TranslateError maps AMQP reply codes and network failures onto the
// package's sentinel errors; IsRetryableError and IsConnectionError classify
// them.
//
// # FX Module Integration
//
//	app := fx.New(
//		logger.FXModule,
//		envelope.FXModule,
//		rabbit.FXModule,
//		fx.Provide(func() rabbit.Config { return loadRabbitConfig() }),
//	)
//
// RetryConnection runs in the background between OnStart and OnStop.
package rabbit
