package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Aleph-Alpha/serde/v1/envelope"
	"github.com/segmentio/kafka-go"
)

// ErrNotProducer is returned by Publish on a consumer client.
var ErrNotProducer = errors.New("kafka: client was not created as a producer")

// Record is one message to publish. Value is framed with ValueID by the value
// session. Key is framed with KeyID only when a key session was configured;
// otherwise it is sent as is.
type Record struct {
	Key     []byte
	KeyID   envelope.GlobalID
	Value   []byte
	ValueID envelope.GlobalID

	// KeyRef and ValueRef are recorded next to the ids in header mode.
	KeyRef   envelope.ArtifactReference
	ValueRef envelope.ArtifactReference

	// Headers are sent alongside the envelope headers
	Headers map[string]string
}

// Publish frames rec and writes it to the configured topic.
func (k *KafkaClient) Publish(ctx context.Context, rec Record) error {
	start := time.Now()

	msg, err := k.frame(ctx, rec)
	if err != nil {
		k.observeOperation("produce", k.cfg.Topic, "", time.Since(start), err, int64(len(rec.Value)), nil)
		return err
	}

	k.mu.RLock()
	writer := k.writer
	k.mu.RUnlock()

	if writer == nil {
		return ErrNotProducer
	}

	err = writer.WriteMessages(ctx, msg)
	k.observeOperation("produce", k.cfg.Topic, "", time.Since(start), err, int64(len(msg.Value)), nil)
	if err != nil {
		if k.logger != nil {
			k.logger.Error("failed to publish message to kafka", err, map[string]interface{}{
				"topic": k.cfg.Topic,
			})
		}
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// frame builds the kafka message for rec without sending it.
func (k *KafkaClient) frame(ctx context.Context, rec Record) (kafka.Message, error) {
	value, valueHeaders, err := k.sessions.Value.WriteReference(rec.Value, rec.ValueID, rec.ValueRef)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to frame value: %w", err)
	}

	envelopeHeaders := envelope.Headers{}
	for h, v := range valueHeaders {
		envelopeHeaders[h] = v
	}

	key := rec.Key
	if k.sessions.Key != nil && rec.Key != nil {
		var keyHeaders envelope.Headers
		key, keyHeaders, err = k.sessions.Key.WriteReference(rec.Key, rec.KeyID, rec.KeyRef)
		if err != nil {
			return kafka.Message{}, fmt.Errorf("failed to frame key: %w", err)
		}
		for h, v := range keyHeaders {
			envelopeHeaders[h] = v
		}
	}

	extra := rec.Headers
	if k.propagator != nil {
		extra = make(map[string]string, len(rec.Headers))
		for h, v := range rec.Headers {
			extra[h] = v
		}
		for h, v := range k.propagator.GetCarrier(ctx) {
			extra[h] = v
		}
	}

	return kafka.Message{
		Key:     key,
		Value:   value,
		Headers: toKafkaHeaders(envelopeHeaders, extra),
	}, nil
}
