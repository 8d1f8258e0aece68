package rabbit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Aleph-Alpha/serde/v1/envelope"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ConsumerMessage implements Message on top of an AMQP delivery.
type ConsumerMessage struct {
	body     []byte
	globalID envelope.GlobalID
	headers  map[string]interface{}
	ctx      context.Context
	delivery *amqp.Delivery
}

// AckMsg acknowledges the message.
func (m *ConsumerMessage) AckMsg() error {
	return m.delivery.Ack(false)
}

// NackMsg rejects the message. Without requeue it is dead-lettered when a
// dead-letter exchange is configured.
func (m *ConsumerMessage) NackMsg(requeue bool) error {
	return m.delivery.Nack(false, requeue)
}

// Body returns the payload without the envelope.
func (m *ConsumerMessage) Body() []byte {
	return m.body
}

// GlobalID returns the schema global id of the payload.
func (m *ConsumerMessage) GlobalID() envelope.GlobalID {
	return m.globalID
}

// Header returns the plain headers.
func (m *ConsumerMessage) Header() map[string]interface{} {
	return m.headers
}

// Context returns the context carrying the producer's trace context.
func (m *ConsumerMessage) Context() context.Context {
	return m.ctx
}

// Consume starts consuming messages from the configured queue.
//
// Example:
//
//	wg := &sync.WaitGroup{}
//	for msg := range client.Consume(ctx, wg) {
//		schema := msg.GlobalID()
//		// decode msg.Body() with schema
//		_ = msg.AckMsg()
//	}
func (rb *RabbitClient) Consume(ctx context.Context, wg *sync.WaitGroup) <-chan Message {
	return rb.consumeQueue(ctx, wg, rb.cfg.Channel.QueueName)
}

// ConsumeDLQ starts consuming messages from the dead-letter queue.
func (rb *RabbitClient) ConsumeDLQ(ctx context.Context, wg *sync.WaitGroup) <-chan Message {
	return rb.consumeQueue(ctx, wg, rb.cfg.DeadLetter.QueueName)
}

// consumeQueue delivers the messages of queueName on the returned channel
// until ctx is done or the client shuts down. It re-subscribes when the
// channel is replaced by RetryConnection. Deliveries whose envelope cannot be
// read are logged and nacked without requeue.
func (rb *RabbitClient) consumeQueue(ctx context.Context, wg *sync.WaitGroup, queueName string) <-chan Message {
	outChan := make(chan Message, 100)
	delay := time.Duration(rb.cfg.Channel.DelayToReconnect) * time.Millisecond

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(outChan)
	outerLoop:
		for {
			select {
			case <-rb.shutdownSignal:
				rb.logInfo(ctx, "Stopping consumer due to shutdown signal", map[string]interface{}{
					"queue": queueName,
				})
				return
			case <-ctx.Done():
				rb.logInfo(ctx, "Stopping consumer due to context cancellation", map[string]interface{}{
					"queue": queueName,
				})
				return
			default:
			}

			rb.mu.RLock()
			ch := rb.Channel
			rb.mu.RUnlock()

			var msgs <-chan amqp.Delivery
			err := ErrNotConnected
			if ch != nil {
				msgs, err = ch.ConsumeWithContext(ctx,
					queueName,
					"",    // consumer
					false, // autoAck
					false, // exclusive
					false, // noLocal
					false, // noWait
					nil,   // args
				)
			}
			if err != nil {
				rb.logError(ctx, "Failed to establish consumer", err, map[string]interface{}{
					"queue": queueName,
				})
				select {
				case <-ctx.Done():
					return
				case <-rb.shutdownSignal:
					return
				case <-time.After(delay):
				}
				continue
			}

			for {
				select {
				case <-ctx.Done():
					return
				case <-rb.shutdownSignal:
					return
				case d, ok := <-msgs:
					if !ok {
						continue outerLoop
					}

					start := time.Now()
					msg, err := rb.unframe(ctx, d)
					rb.observeOperation("consume", queueName, "", time.Since(start), err, int64(len(d.Body)))
					if err != nil {
						rb.logError(ctx, "failed to read message envelope", err, map[string]interface{}{
							"queue":        queueName,
							"delivery_tag": d.DeliveryTag,
						})
						_ = d.Nack(false, false)
						continue
					}

					select {
					case outChan <- msg:
					case <-ctx.Done():
						return
					case <-rb.shutdownSignal:
						return
					}
				}
			}
		}
	}()
	return outChan
}

// unframe strips the envelope of d and builds the delivered message.
func (rb *RabbitClient) unframe(ctx context.Context, d amqp.Delivery) (*ConsumerMessage, error) {
	headers, plain, err := fromTable(d.Headers, rb.session.HeaderKeys())
	if err != nil {
		return nil, fmt.Errorf("failed to read headers: %w", err)
	}

	id, body, err := rb.session.ReadReference(ctx, d.Body, headers)
	if err != nil {
		return nil, fmt.Errorf("failed to unframe message: %w", err)
	}

	msgCtx := ctx
	if rb.propagator != nil {
		msgCtx = rb.propagator.SetCarrierOnContext(ctx, carrier(plain))
	}

	return &ConsumerMessage{
		body:     body,
		globalID: id,
		headers:  plain,
		ctx:      msgCtx,
		delivery: &d,
	}, nil
}
