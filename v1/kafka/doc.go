// Package kafka publishes and consumes schema-tagged messages on Apache Kafka.
//
// A KafkaClient wraps a segmentio/kafka-go writer or reader and an
// envelope.Session per channel. On publish the value (and the key, when a key
// session is given) is framed with its schema global id; in header mode the id
// travels as an apicurio.{key|value}.globalId record header instead. On
// consume the envelopes are stripped again and the ids are exposed on the
// delivered Message.
//
// Basic Usage:
//
//	import (
//		"context"
//		"sync"
//
//		"github.com/Aleph-Alpha/serde/v1/envelope"
//		"github.com/Aleph-Alpha/serde/v1/kafka"
//		"github.com/Aleph-Alpha/serde/v1/schema_registry"
//	)
//
//	value, err := envelope.NewSession(envelope.Config{
//		Registry:   schema_registry.Config{URL: "http://registry:8080/api"},
//		UseHeaders: true,
//	})
//	if err != nil {
//		return err
//	}
//	defer value.Close()
//
//	producer, err := kafka.NewClient(kafka.Config{
//		Brokers: []string{"localhost:9092"},
//		Topic:   "orders",
//	}, kafka.Sessions{Value: value})
//	if err != nil {
//		return err
//	}
//	defer producer.GracefulShutdown()
//
//	err = producer.Publish(ctx, kafka.Record{
//		Value:   payload,
//		ValueID: id,
//	})
//
// Consuming:
//
//	consumer, _ := kafka.NewClient(kafka.Config{
//		Brokers:    []string{"localhost:9092"},
//		Topic:      "orders",
//		GroupID:    "billing",
//		IsConsumer: true,
//	}, kafka.Sessions{Value: value})
//
//	wg := &sync.WaitGroup{}
//	for msg := range consumer.Consume(ctx, wg) {
//		schema := msg.GlobalID()
//		// decode msg.Body() with schema
//		_ = msg.CommitMsg()
//	}
//
// Messages whose envelope cannot be read are logged, committed when a
// consumer group is used, and skipped.
//
// Security:
//
// TLS (CA, client certificate) and SASL (PLAIN, SCRAM-SHA-256,
// SCRAM-SHA-512) are configured through Config.TLS and Config.SASL.
//
// FX Module Integration:
//
// FXModule provides a *KafkaClient from a Config and an *envelope.Session in
// the container. An observability.Observer and a Propagator (v1/tracer) are
// picked up when provided.
package kafka
