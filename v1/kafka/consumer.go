package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Aleph-Alpha/serde/v1/envelope"
	"github.com/segmentio/kafka-go"
)

// Message is a consumed and unframed Kafka message.
type Message interface {
	// Key returns the unframed key
	Key() []byte

	// Body returns the unframed value
	Body() []byte

	// GlobalID returns the schema id of the value
	GlobalID() envelope.GlobalID

	// KeyGlobalID returns the schema id of the key, or 0 without a key session
	KeyGlobalID() envelope.GlobalID

	// Header returns the non-envelope headers, e.g. trace context
	Header() map[string]string

	// Context carries trace context extracted from the headers when a
	// propagator is configured
	Context() context.Context

	// CommitMsg commits the offset of this message
	CommitMsg() error
}

// ConsumerMessage implements Message.
type ConsumerMessage struct {
	key      []byte
	body     []byte
	globalID envelope.GlobalID
	keyID    envelope.GlobalID
	headers  map[string]string
	ctx      context.Context
	raw      kafka.Message
	commit   func(context.Context, kafka.Message) error
}

func (m *ConsumerMessage) Key() []byte                    { return m.key }
func (m *ConsumerMessage) Body() []byte                   { return m.body }
func (m *ConsumerMessage) GlobalID() envelope.GlobalID    { return m.globalID }
func (m *ConsumerMessage) KeyGlobalID() envelope.GlobalID { return m.keyID }
func (m *ConsumerMessage) Header() map[string]string      { return m.headers }
func (m *ConsumerMessage) Context() context.Context       { return m.ctx }

// CommitMsg commits the message offset. It is a no-op without a consumer group.
func (m *ConsumerMessage) CommitMsg() error {
	if m.commit == nil {
		return nil
	}
	return m.commit(context.Background(), m.raw)
}

// ErrNotConsumer is returned when consuming from a producer client.
var ErrNotConsumer = errors.New("kafka: client was not created as a consumer")

// Consume starts a goroutine that fetches, unframes and delivers messages
// until ctx is cancelled or the client shuts down. Messages that fail to
// unframe are logged and committed so a malformed record cannot block the
// partition.
func (k *KafkaClient) Consume(ctx context.Context, wg *sync.WaitGroup) <-chan Message {
	outChan := make(chan Message, 100)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(outChan)

		for {
			select {
			case <-ctx.Done():
				return
			case <-k.shutdownSignal:
				return
			default:
			}

			k.mu.RLock()
			reader := k.reader
			k.mu.RUnlock()
			if reader == nil {
				if k.logger != nil {
					k.logger.Error("kafka consumer stopped", ErrNotConsumer, nil)
				}
				return
			}

			start := time.Now()
			raw, err := reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, context.Canceled) {
					return
				}
				k.observeOperation("consume", k.cfg.Topic, "", time.Since(start), err, 0, nil)
				if k.logger != nil {
					k.logger.Error("failed to fetch message from kafka", err, map[string]interface{}{
						"topic": k.cfg.Topic,
					})
				}
				select {
				case <-ctx.Done():
					return
				case <-k.shutdownSignal:
					return
				case <-time.After(100 * time.Millisecond):
				}
				continue
			}

			msg, err := k.unframe(ctx, raw, reader)
			k.observeOperation("consume", k.cfg.Topic, fmt.Sprint(raw.Partition), time.Since(start), err, int64(len(raw.Value)), map[string]interface{}{
				"offset": raw.Offset,
			})
			if err != nil {
				if k.logger != nil {
					k.logger.Error("failed to unframe kafka message", err, map[string]interface{}{
						"topic":     k.cfg.Topic,
						"partition": raw.Partition,
						"offset":    raw.Offset,
					})
				}
				k.commitSkipped(ctx, reader, raw)
				continue
			}

			select {
			case outChan <- msg:
			case <-ctx.Done():
				return
			case <-k.shutdownSignal:
				return
			}
		}
	}()

	return outChan
}

// committer is the part of *kafka.Reader that acknowledges offsets.
type committer interface {
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// commitSkipped commits a record that is not delivered so the group moves past it.
func (k *KafkaClient) commitSkipped(ctx context.Context, c committer, raw kafka.Message) {
	if k.cfg.GroupID == "" || c == nil {
		return
	}
	if err := c.CommitMessages(ctx, raw); err != nil && k.logger != nil {
		k.logger.Error("failed to commit skipped kafka message", err, map[string]interface{}{
			"topic":     k.cfg.Topic,
			"partition": raw.Partition,
			"offset":    raw.Offset,
		})
	}
}

// unframe strips the envelopes of raw and builds the delivered message.
// CommitMsg on the result commits through c.
func (k *KafkaClient) unframe(ctx context.Context, raw kafka.Message, c committer) (*ConsumerMessage, error) {
	headers := fromKafkaHeaders(raw.Headers)

	valueID, body, err := k.sessions.Value.ReadReference(ctx, raw.Value, headers)
	if err != nil {
		return nil, fmt.Errorf("failed to unframe value: %w", err)
	}

	key := raw.Key
	var keyID envelope.GlobalID
	if k.sessions.Key != nil && raw.Key != nil {
		keyID, key, err = k.sessions.Key.ReadReference(ctx, raw.Key, headers)
		if err != nil {
			return nil, fmt.Errorf("failed to unframe key: %w", err)
		}
	}

	plain := plainHeaders(headers, k.sessions)
	msgCtx := ctx
	if k.propagator != nil {
		msgCtx = k.propagator.SetCarrierOnContext(ctx, plain)
	}

	msg := &ConsumerMessage{
		key:      key,
		body:     body,
		globalID: valueID,
		keyID:    keyID,
		headers:  plain,
		ctx:      msgCtx,
		raw:      raw,
	}
	if k.cfg.GroupID != "" && c != nil {
		msg.commit = func(ctx context.Context, m kafka.Message) error {
			return c.CommitMessages(ctx, m)
		}
	}
	return msg, nil
}
