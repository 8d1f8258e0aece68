package rabbit

import (
	"context"
	"sync"

	"github.com/Aleph-Alpha/serde/v1/envelope"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Client provides a high-level interface for publishing and consuming
// schema-tagged messages on RabbitMQ.
//
// This interface is implemented by the concrete *RabbitClient type.
type Client interface {
	// Publish frames rec with the client's envelope session and sends it
	// using the configured exchange and routing key.
	Publish(ctx context.Context, rec Record) error

	// Consume starts consuming messages from the main queue.
	Consume(ctx context.Context, wg *sync.WaitGroup) <-chan Message

	// ConsumeDLQ starts consuming messages from the dead-letter queue.
	ConsumeDLQ(ctx context.Context, wg *sync.WaitGroup) <-chan Message

	// RetryConnection monitors the connection and reconnects on failure.
	// This method should be run in a goroutine.
	RetryConnection(cfg Config)

	// GracefulShutdown closes all RabbitMQ connections and channels cleanly.
	GracefulShutdown()

	// GetChannel returns the underlying AMQP channel for direct operations when needed.
	GetChannel() *amqp.Channel
}

// Message represents a consumed message with its envelope removed.
type Message interface {
	// AckMsg acknowledges the message, removing it from the queue.
	AckMsg() error

	// NackMsg negatively acknowledges the message.
	// If requeue is true, the message is requeued; otherwise it goes to the DLQ.
	NackMsg(requeue bool) error

	// Body returns the payload without the envelope.
	Body() []byte

	// GlobalID returns the schema global id the payload was tagged with.
	GlobalID() envelope.GlobalID

	// Header returns the message headers minus the envelope headers.
	Header() map[string]interface{}

	// Context carries the trace context extracted from the headers.
	Context() context.Context
}
