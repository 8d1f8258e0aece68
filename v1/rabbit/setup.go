package rabbit

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Aleph-Alpha/serde/v1/envelope"
	"github.com/Aleph-Alpha/serde/v1/observability"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitClient publishes and consumes schema-tagged messages. Payloads are
// framed and unframed by its envelope session; the connection is re-established
// by RetryConnection.
type RabbitClient struct {
	// cfg stores the configuration for this RabbitMQ client
	cfg Config

	// session frames outgoing and unframes incoming payloads
	session *envelope.Session

	// Channel is the main AMQP channel used for publishing and consuming messages.
	// It's exposed publicly to allow direct operations when needed.
	Channel *amqp.Channel

	// conn is the underlying AMQP connection to the RabbitMQ server
	conn *amqp.Connection

	logger     Logger
	observer   observability.Observer
	propagator Propagator

	// mu protects concurrent access to connection and channel
	mu sync.RWMutex

	// shutdownSignal is closed when the client is being shut down
	shutdownSignal chan struct{}

	closeShutdownOnce sync.Once
}

// NewClient connects to RabbitMQ and, for consumers, declares the exchange,
// queue, bindings and dead-letter topology.
//
// Example:
//
//	client, err := rabbit.NewClient(config, session)
//	if err != nil {
//		return err
//	}
//	defer client.GracefulShutdown()
func NewClient(config Config, session *envelope.Session) (*RabbitClient, error) {
	if session == nil {
		return nil, ErrSessionRequired
	}
	config = applyDefaults(config)

	con, err := newConnection(config)
	if err != nil {
		return nil, err
	}

	ch, err := connectToChannel(con, config)
	if err != nil {
		_ = con.Close()
		return nil, err
	}

	return &RabbitClient{
		cfg:            config,
		session:        session,
		conn:           con,
		Channel:        ch,
		shutdownSignal: make(chan struct{}),
	}, nil
}

// WithLogger attaches a logger to the client.
func (rb *RabbitClient) WithLogger(logger Logger) *RabbitClient {
	rb.logger = logger
	return rb
}

// WithObserver attaches an observer that receives produce and consume operations.
func (rb *RabbitClient) WithObserver(observer observability.Observer) *RabbitClient {
	rb.observer = observer
	return rb
}

// WithPropagator attaches a trace propagator. Its carrier is sent with every
// published message and extracted into Message.Context on consume.
func (rb *RabbitClient) WithPropagator(p Propagator) *RabbitClient {
	rb.propagator = p
	return rb
}

// connectToChannel creates a channel with publisher confirms and declares
// the consumer topology.
func connectToChannel(rb *amqp.Connection, cfg Config) (*amqp.Channel, error) {
	ch, err := rb.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", TranslateError(err))
	}

	if err = ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", TranslateError(err))
	}

	if !cfg.Channel.IsConsumer {
		return ch, nil
	}

	err = ch.ExchangeDeclare(
		cfg.Channel.ExchangeName,
		cfg.Channel.ExchangeType,
		true,  // Durable
		false, // AutoDelete
		false, // Internal
		false, // NoWait
		nil,   // Arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare exchange: %w", TranslateError(err))
	}

	queueArgs, err := declareDeadLetter(ch, cfg.DeadLetter)
	if err != nil {
		return nil, err
	}

	_, err = ch.QueueDeclare(
		cfg.Channel.QueueName,
		true,  // Durable
		false, // AutoDelete
		false, // Exclusive
		false, // NoWait
		queueArgs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", TranslateError(err))
	}

	err = ch.QueueBind(
		cfg.Channel.QueueName,
		cfg.Channel.RoutingKey,
		cfg.Channel.ExchangeName,
		false, // NoWait
		nil,   // Arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to bind queue: %w", TranslateError(err))
	}

	if cfg.Channel.PrefetchCount > 0 {
		if err = ch.Qos(cfg.Channel.PrefetchCount, 0, false); err != nil {
			return nil, fmt.Errorf("failed to set QoS: %w", TranslateError(err))
		}
	}

	return ch, nil
}

// declareDeadLetter declares the dead-letter exchange and queue and returns
// the arguments for the main queue.
func declareDeadLetter(ch *amqp.Channel, dl DeadLetter) (amqp.Table, error) {
	if dl.ExchangeName == "" {
		return nil, nil
	}

	err := ch.ExchangeDeclare(dl.ExchangeName, "direct", true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to declare dead letter exchange: %w", TranslateError(err))
	}
	if _, err = ch.QueueDeclare(dl.QueueName, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare dead letter queue: %w", TranslateError(err))
	}
	if err = ch.QueueBind(dl.QueueName, dl.RoutingKey, dl.ExchangeName, false, nil); err != nil {
		return nil, fmt.Errorf("failed to bind dead letter queue: %w", TranslateError(err))
	}
	return deadLetterArgs(dl), nil
}

// deadLetterArgs returns the x-dead-letter arguments of the main queue.
func deadLetterArgs(dl DeadLetter) amqp.Table {
	if dl.ExchangeName == "" {
		return nil
	}
	args := amqp.Table{
		"x-dead-letter-exchange":    dl.ExchangeName,
		"x-dead-letter-routing-key": dl.RoutingKey,
	}
	if dl.Ttl > 0 {
		args["x-message-ttl"] = int64(dl.Ttl) * 1000
	}
	return args
}

// RetryConnection monitors the connection and re-establishes it and its
// channel after a failure, until GracefulShutdown is called. This method is
// typically run in a goroutine.
func (rb *RabbitClient) RetryConnection(cfg Config) {
	cfg = applyDefaults(cfg)
	ctx := context.Background()
	delay := time.Duration(cfg.Channel.DelayToReconnect) * time.Millisecond

outerLoop:
	for {
		errChan := make(chan *amqp.Error, 1)
		rb.mu.RLock()
		rb.conn.NotifyClose(errChan)
		rb.mu.RUnlock()

		select {
		case <-rb.shutdownSignal:
			rb.logInfo(ctx, "Stopping RetryConnection loop due to shutdown signal", nil)
			return

		case amqpErr, ok := <-errChan:
			if !ok {
				select {
				case <-rb.shutdownSignal:
					return
				default:
				}
			}
			var closeErr error
			if amqpErr != nil {
				closeErr = amqpErr
			}
			rb.logWarn(ctx, "RabbitMQ connection closed, retrying", closeErr, nil)
			for {
				select {
				case <-rb.shutdownSignal:
					rb.logInfo(ctx, "Stopping RetryConnection loop due to shutdown signal", nil)
					return
				default:
				}

				newConn, err := newConnection(cfg)
				if err != nil {
					rb.logError(ctx, "RabbitMQ reconnection failed", err, nil)
					time.Sleep(delay)
					continue
				}

				ch, err := connectToChannel(newConn, cfg)
				if err != nil {
					_ = newConn.Close()
					rb.logError(ctx, "Failed to re-establish RabbitMQ channel", err, nil)
					time.Sleep(delay)
					continue
				}

				rb.mu.Lock()
				if rb.Channel != nil {
					_ = rb.Channel.Close()
				}
				rb.conn = newConn
				rb.Channel = ch
				rb.mu.Unlock()

				rb.logInfo(ctx, "Successfully reconnected to RabbitMQ", nil)
				continue outerLoop
			}
		}
	}
}

// newConnection dials RabbitMQ with a 2 second heartbeat, over TLS when
// IsSSLEnabled is set.
func newConnection(cfg Config) (*amqp.Connection, error) {
	amqpCfg := amqp.Config{
		Heartbeat: DefaultHeartbeatSeconds * time.Second,
		Vhost:     cfg.Connection.VirtualHost,
	}
	if cfg.Connection.IsSSLEnabled {
		tlsConfig, err := createTLSConfig(cfg.Connection)
		if err != nil {
			return nil, err
		}
		amqpCfg.TLSClientConfig = tlsConfig
	}

	conn, err := amqp.DialConfig(connectionURL(cfg.Connection), amqpCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return conn, nil
}

// connectionURL builds the amqp or amqps URL of the server.
func connectionURL(c Connection) string {
	uri := amqp.URI{
		Scheme:   "amqp",
		Host:     c.Host,
		Port:     int(c.Port),
		Username: c.User,
		Password: c.Password,
		Vhost:    c.VirtualHost,
	}
	if c.IsSSLEnabled {
		uri.Scheme = "amqps"
	}
	if uri.Vhost == "" {
		uri.Vhost = "/"
	}
	return uri.String()
}

// createTLSConfig loads the CA and, with UseCert, the client key pair.
func createTLSConfig(c Connection) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		ServerName: c.ServerName,
	}

	if c.CACertPath != "" {
		caCert, err := os.ReadFile(c.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA cert: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("%w: failed to parse CA cert", ErrTLSError)
		}
		tlsConfig.RootCAs = pool
	}

	if c.UseCert {
		cert, err := tls.LoadX509KeyPair(c.ClientCertPath, c.ClientKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load client cert: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

// GracefulShutdown stops consumers and the reconnect loop, then closes the
// channel and the connection. Errors are logged, not returned.
func (rb *RabbitClient) GracefulShutdown() {
	rb.closeShutdownOnce.Do(func() {
		close(rb.shutdownSignal)
	})

	rb.mu.Lock()
	defer rb.mu.Unlock()

	ctx := context.Background()
	rb.logInfo(ctx, "Shutting down RabbitMQ client", nil)

	if rb.Channel != nil {
		if err := rb.Channel.Close(); err != nil {
			rb.logWarn(ctx, "Failed to close rabbit channel", err, nil)
		}
		rb.Channel = nil
	}
	if rb.conn != nil && !rb.conn.IsClosed() {
		if err := rb.conn.Close(); err != nil {
			rb.logWarn(ctx, "Failed to close rabbit connection", err, nil)
		}
	}
}

// GetChannel returns the underlying AMQP channel for direct operations when needed.
func (rb *RabbitClient) GetChannel() *amqp.Channel {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.Channel
}

func (rb *RabbitClient) logInfo(ctx context.Context, msg string, fields map[string]interface{}) {
	if rb.logger != nil {
		rb.logger.InfoWithContext(ctx, msg, nil, fields)
	}
}

func (rb *RabbitClient) logWarn(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if rb.logger != nil {
		rb.logger.WarnWithContext(ctx, msg, err, fields)
	}
}

func (rb *RabbitClient) logError(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if rb.logger != nil {
		rb.logger.ErrorWithContext(ctx, msg, err, fields)
	}
}
