package rabbit

import "context"

// Default values applied by NewClient for zero-valued Config fields.
const (
	DefaultPort             = 5672
	DefaultExchangeType     = "direct"
	DefaultContentType      = "application/octet-stream"
	DefaultDelayToReconnect = 1000
	DefaultHeartbeatSeconds = 2
)

// Config defines the top-level configuration structure for the RabbitMQ client.
type Config struct {
	// Connection contains the settings needed to establish a connection to the RabbitMQ server
	Connection Connection `yaml:"connection"`

	// Channel contains configuration for exchanges, queues, and message routing
	Channel Channel `yaml:"channel"`

	// DeadLetter receives deliveries whose envelope cannot be read, and
	// messages nacked without requeue.
	DeadLetter DeadLetter `yaml:"dead_letter"`
}

// Connection contains the parameters needed to reach a RabbitMQ server.
type Connection struct {
	Host        string `yaml:"host" envconfig:"RABBITMQ_HOST"`
	Port        uint   `yaml:"port" envconfig:"RABBITMQ_PORT"`
	User        string `yaml:"user" envconfig:"RABBITMQ_USER"`
	Password    string `yaml:"password" envconfig:"RABBITMQ_PASSWORD"`
	VirtualHost string `yaml:"virtual_host" envconfig:"RABBITMQ_VHOST"`

	// IsSSLEnabled switches to amqps
	IsSSLEnabled bool `yaml:"is_ssl_enabled" envconfig:"RABBITMQ_SSL_ENABLED"`

	// UseCert sends ClientCertPath/ClientKeyPath for mutual TLS
	UseCert        bool   `yaml:"use_cert" envconfig:"RABBITMQ_USE_CERT"`
	CACertPath     string `yaml:"ca_cert_path" envconfig:"RABBITMQ_CA_CERT_PATH"`
	ClientCertPath string `yaml:"client_cert_path" envconfig:"RABBITMQ_CLIENT_CERT_PATH"`
	ClientKeyPath  string `yaml:"client_key_path" envconfig:"RABBITMQ_CLIENT_KEY_PATH"`

	// ServerName must match a CN or SAN in the server's certificate
	ServerName string `yaml:"server_name" envconfig:"RABBITMQ_SERVER_NAME"`
}

// Channel contains configuration for exchanges, queues, and bindings.
type Channel struct {
	ExchangeName string `yaml:"exchange_name" envconfig:"RABBITMQ_EXCHANGE_NAME"`

	// ExchangeType is one of direct, fanout, topic or headers
	ExchangeType string `yaml:"exchange_type" envconfig:"RABBITMQ_EXCHANGE_TYPE"`

	RoutingKey string `yaml:"routing_key" envconfig:"RABBITMQ_ROUTING_KEY"`
	QueueName  string `yaml:"queue_name" envconfig:"RABBITMQ_QUEUE_NAME"`

	// DelayToReconnect is the wait in milliseconds between reconnection attempts
	DelayToReconnect int `yaml:"delay_to_reconnect" envconfig:"RABBITMQ_DELAY_TO_RECONNECT"`

	// PrefetchCount limits unacknowledged deliveries per consumer; 0 means no limit
	PrefetchCount int `yaml:"prefetch_count" envconfig:"RABBITMQ_PREFETCH_COUNT"`

	// IsConsumer declares the exchange, queue and bindings on connect
	IsConsumer bool `yaml:"is_consumer" envconfig:"RABBITMQ_IS_CONSUMER"`

	ContentType string `yaml:"content_type" envconfig:"RABBITMQ_CONTENT_TYPE"`
}

// DeadLetter configures the dead-letter exchange and queue. Dead lettering is
// enabled when ExchangeName is set.
type DeadLetter struct {
	ExchangeName string `yaml:"exchange_name" envconfig:"RABBITMQ_DLX_EXCHANGE_NAME"`
	QueueName    string `yaml:"queue_name" envconfig:"RABBITMQ_DLX_QUEUE_NAME"`
	RoutingKey   string `yaml:"routing_key" envconfig:"RABBITMQ_DLX_ROUTING_KEY"`

	// Ttl is the time-to-live of messages in the main queue in seconds; 0 disables it
	Ttl int `yaml:"ttl" envconfig:"RABBITMQ_DLX_TTL"`
}

func applyDefaults(cfg Config) Config {
	if cfg.Connection.Port == 0 {
		cfg.Connection.Port = DefaultPort
	}
	if cfg.Channel.ExchangeType == "" {
		cfg.Channel.ExchangeType = DefaultExchangeType
	}
	if cfg.Channel.ContentType == "" {
		cfg.Channel.ContentType = DefaultContentType
	}
	if cfg.Channel.DelayToReconnect <= 0 {
		cfg.Channel.DelayToReconnect = DefaultDelayToReconnect
	}
	return cfg
}

// Logger is an interface that matches the serde/v1/logger.Logger interface.
// It provides context-aware structured logging with optional error and field parameters.
//
//go:generate mockgen -source=configs.go -destination=mock_logger.go -package=rabbit
type Logger interface {
	// InfoWithContext logs an informational message with trace context.
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})

	// WarnWithContext logs a warning message with trace context.
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})

	// ErrorWithContext logs an error message with trace context.
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}

// Propagator injects and extracts trace context as string headers.
// *tracer.Tracer satisfies it.
type Propagator interface {
	GetCarrier(ctx context.Context) map[string]string
	SetCarrierOnContext(ctx context.Context, carrier map[string]string) context.Context
}
