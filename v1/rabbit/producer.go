package rabbit

import (
	"context"
	"fmt"
	"time"

	"github.com/Aleph-Alpha/serde/v1/envelope"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Record is one message to publish.
type Record struct {
	// Value is framed with ID by the client's envelope session
	Value []byte
	ID    envelope.GlobalID

	// Ref is sent next to the id in header mode
	Ref envelope.ArtifactReference

	// Headers are sent alongside the envelope headers
	Headers map[string]interface{}
}

// Publish frames rec and sends it to the configured exchange with the
// configured routing key. It is safe for concurrent use.
//
// Example:
//
//	err := client.Publish(ctx, rabbit.Record{
//		Value: payload,
//		ID:    globalID,
//	})
func (rb *RabbitClient) Publish(ctx context.Context, rec Record) error {
	start := time.Now()
	var publishErr error
	var size int64

	defer func() {
		rb.observeOperation("produce", rb.cfg.Channel.ExchangeName, rb.cfg.Channel.RoutingKey, time.Since(start), publishErr, size)
	}()

	msg, err := rb.publishing(ctx, rec)
	if err != nil {
		publishErr = err
		return err
	}
	size = int64(len(msg.Body))

	rb.mu.RLock()
	defer rb.mu.RUnlock()
	if rb.Channel == nil {
		publishErr = ErrNotConnected
		return publishErr
	}

	err = rb.Channel.PublishWithContext(ctx,
		rb.cfg.Channel.ExchangeName,
		rb.cfg.Channel.RoutingKey,
		false, // mandatory
		false, // immediate
		msg,
	)
	if err != nil {
		publishErr = fmt.Errorf("failed to publish message: %w", TranslateError(err))
		rb.logError(ctx, "failed to publish message to rabbit", err, map[string]interface{}{
			"exchange": rb.cfg.Channel.ExchangeName,
		})
		return publishErr
	}
	return nil
}

// publishing builds the AMQP message for rec without sending it.
func (rb *RabbitClient) publishing(ctx context.Context, rec Record) (amqp.Publishing, error) {
	body, envelopeHeaders, err := rb.session.WriteReference(rec.Value, rec.ID, rec.Ref)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to frame message: %w", err)
	}

	extra := rec.Headers
	if rb.propagator != nil {
		extra = make(map[string]interface{}, len(rec.Headers))
		for k, v := range rec.Headers {
			extra[k] = v
		}
		for k, v := range rb.propagator.GetCarrier(ctx) {
			extra[k] = v
		}
	}

	return amqp.Publishing{
		Headers:      toTable(envelopeHeaders, extra),
		ContentType:  rb.cfg.Channel.ContentType,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}, nil
}
