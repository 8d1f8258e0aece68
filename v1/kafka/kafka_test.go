package kafka

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Aleph-Alpha/serde/v1/envelope"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type ctxKey struct{}

// stubPropagator stores the carrier as-is, standing in for the tracer.
type stubPropagator struct {
	carrier map[string]string
}

func (s stubPropagator) GetCarrier(context.Context) map[string]string {
	return s.carrier
}

func (s stubPropagator) SetCarrierOnContext(ctx context.Context, carrier map[string]string) context.Context {
	return context.WithValue(ctx, ctxKey{}, carrier["traceparent"])
}

func newSession(t *testing.T, cfg envelope.Config) *envelope.Session {
	t.Helper()
	ctrl := gomock.NewController(t)
	s, err := envelope.NewSession(cfg, envelope.WithRegistry(envelope.NewMockRegistry(ctrl)))
	require.NoError(t, err)
	return s
}

func TestNewClient_RequiresValueSession(t *testing.T) {
	_, err := NewClient(Config{Brokers: []string{"localhost:9092"}, Topic: "orders"}, Sessions{})
	assert.ErrorIs(t, err, ErrValueSessionRequired)
}

func TestNewClient_ProducerAndConsumer(t *testing.T) {
	sessions := Sessions{Value: newSession(t, envelope.Config{})}

	producer, err := NewClient(Config{Brokers: []string{"localhost:9092"}, Topic: "orders"}, sessions)
	require.NoError(t, err)
	assert.NotNil(t, producer.writer)
	assert.Nil(t, producer.reader)
	assert.Equal(t, DefaultMaxAttempts, producer.cfg.MaxAttempts)
	require.NoError(t, producer.GracefulShutdown())
	require.NoError(t, producer.GracefulShutdown())

	consumer, err := NewClient(Config{Brokers: []string{"localhost:9092"}, Topic: "orders", IsConsumer: true}, sessions)
	require.NoError(t, err)
	assert.Nil(t, consumer.writer)
	assert.NotNil(t, consumer.reader)
	require.NoError(t, consumer.GracefulShutdown())

	err = consumer.Publish(context.Background(), Record{Value: []byte("x")})
	assert.ErrorIs(t, err, ErrNotProducer)
}

func TestApplyDefaults(t *testing.T) {
	cfg := applyDefaults(Config{MaxAttempts: 3})
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, DefaultMinBytes, cfg.MinBytes)
	assert.Equal(t, int(DefaultMaxBytes), cfg.MaxBytes)
	assert.Equal(t, DefaultMaxWait, cfg.MaxWait)
	assert.Equal(t, int64(DefaultStartOffset), cfg.StartOffset)
	assert.Equal(t, DefaultRequiredAcks, cfg.RequiredAcks)
	assert.Equal(t, DefaultWriteTimeout, cfg.WriteTimeout)
}

func TestCreateSASLMechanism(t *testing.T) {
	for _, name := range []string{"PLAIN", "SCRAM-SHA-256", "SCRAM-SHA-512"} {
		m, err := createSASLMechanism(SASLConfig{Mechanism: name, Username: "u", Password: "p"})
		require.NoError(t, err, name)
		assert.Equal(t, name, m.Name())
	}

	_, err := createSASLMechanism(SASLConfig{Mechanism: "GSSAPI"})
	assert.Error(t, err)
}

func TestCreateTLSConfig(t *testing.T) {
	cfg, err := createTLSConfig(TLSConfig{InsecureSkipVerify: true})
	require.NoError(t, err)
	assert.True(t, cfg.InsecureSkipVerify)

	bad := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0o600))
	_, err = createTLSConfig(TLSConfig{CACertPath: bad})
	assert.Error(t, err)

	_, err = createTLSConfig(TLSConfig{CACertPath: filepath.Join(t.TempDir(), "missing.pem")})
	assert.Error(t, err)
}

func TestHeaderConversion(t *testing.T) {
	headers := toKafkaHeaders(
		envelope.Headers{envelope.ValueGlobalIDHeader: {0, 0, 0, 1}},
		map[string]string{"traceparent": "00-abc", envelope.ValueGlobalIDHeader: "spoofed"},
	)
	require.Len(t, headers, 2)
	assert.Equal(t, envelope.ValueGlobalIDHeader, headers[0].Key)
	assert.Equal(t, []byte{0, 0, 0, 1}, headers[0].Value)
	assert.Equal(t, "traceparent", headers[1].Key)

	assert.Nil(t, toKafkaHeaders(nil, nil))

	back := fromKafkaHeaders([]kafka.Header{
		{Key: "a", Value: []byte("1")},
		{Key: "a", Value: []byte("2")},
	})
	assert.Equal(t, envelope.Headers{"a": []byte("2")}, back)
}

func TestFrameUnframeInline(t *testing.T) {
	sessions := Sessions{
		Key:   newSession(t, envelope.Config{IsKey: true, AsConfluent: true}),
		Value: newSession(t, envelope.Config{}),
	}
	k := &KafkaClient{sessions: sessions}

	msg, err := k.frame(context.Background(), Record{
		Key:     []byte("order-1"),
		KeyID:   3,
		Value:   []byte(`{"total":10}`),
		ValueID: 42,
		Headers: map[string]string{"source": "test"},
	})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0, 0, 0, 3, 'o', 'r', 'd', 'e', 'r', '-', '1'}, msg.Key)
	assert.Equal(t, byte(0x00), msg.Value[0])
	assert.Len(t, msg.Value, 1+8+len(`{"total":10}`))
	assert.Equal(t, []kafka.Header{{Key: "source", Value: []byte("test")}}, msg.Headers)

	got, err := k.unframe(context.Background(), msg, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("order-1"), got.Key())
	assert.Equal(t, []byte(`{"total":10}`), got.Body())
	assert.Equal(t, envelope.GlobalID(42), got.GlobalID())
	assert.Equal(t, envelope.GlobalID(3), got.KeyGlobalID())
	assert.Equal(t, map[string]string{"source": "test"}, got.Header())
	assert.NoError(t, got.CommitMsg())
}

func TestFrameUnframeHeaders(t *testing.T) {
	sessions := Sessions{
		Key:   newSession(t, envelope.Config{IsKey: true, UseHeaders: true}),
		Value: newSession(t, envelope.Config{UseHeaders: true}),
	}
	k := (&KafkaClient{sessions: sessions}).WithPropagator(stubPropagator{
		carrier: map[string]string{"traceparent": "00-trace-span-01"},
	})

	msg, err := k.frame(context.Background(), Record{
		Key:      []byte("order-1"),
		KeyID:    3,
		Value:    []byte("v"),
		ValueID:  42,
		ValueRef: envelope.ArtifactReference{ArtifactID: "orders-value", Version: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("order-1"), msg.Key)
	assert.Equal(t, []byte("v"), msg.Value)

	names := make([]string, 0, len(msg.Headers))
	for _, h := range msg.Headers {
		names = append(names, h.Key)
	}
	assert.ElementsMatch(t, []string{
		envelope.KeyGlobalIDHeader,
		envelope.ValueGlobalIDHeader,
		envelope.ValueArtifactIDHeader,
		envelope.ValueVersionHeader,
		"traceparent",
	}, names)

	got, err := k.unframe(context.Background(), msg, nil)
	require.NoError(t, err)
	assert.Equal(t, envelope.GlobalID(42), got.GlobalID())
	assert.Equal(t, envelope.GlobalID(3), got.KeyGlobalID())
	assert.Equal(t, map[string]string{"traceparent": "00-trace-span-01"}, got.Header())
	assert.Equal(t, "00-trace-span-01", got.Context().Value(ctxKey{}))
}

func TestUnframe_Malformed(t *testing.T) {
	k := &KafkaClient{sessions: Sessions{Value: newSession(t, envelope.Config{})}}

	_, err := k.unframe(context.Background(), kafka.Message{Value: []byte(`{"not":"framed"}`)}, nil)
	assert.True(t, envelope.IsMalformedEnvelope(err))
}

func TestFrame_LegacyOutOfRange(t *testing.T) {
	k := &KafkaClient{sessions: Sessions{Value: newSession(t, envelope.Config{AsConfluent: true})}}

	_, err := k.frame(context.Background(), Record{Value: []byte("v"), ValueID: 1 << 33})
	assert.ErrorIs(t, err, envelope.ErrValueOutOfRange)
}

type recordingCommitter struct {
	err       error
	committed []kafka.Message
}

func (c *recordingCommitter) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	c.committed = append(c.committed, msgs...)
	return c.err
}

func TestUnframe_CommitsThroughGivenReader(t *testing.T) {
	k := &KafkaClient{
		cfg:      Config{Topic: "orders", GroupID: "billing"},
		sessions: Sessions{Value: newSession(t, envelope.Config{})},
	}
	framed, err := k.frame(context.Background(), Record{Value: []byte("v"), ValueID: 1})
	require.NoError(t, err)
	framed.Offset = 17

	c := &recordingCommitter{}
	got, err := k.unframe(context.Background(), framed, c)
	require.NoError(t, err)
	require.NoError(t, got.CommitMsg())
	require.Len(t, c.committed, 1)
	assert.Equal(t, int64(17), c.committed[0].Offset)
}

func TestCommitSkipped(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := NewMockLogger(ctrl)
	commitErr := errors.New("coordinator not available")
	log.EXPECT().Error("failed to commit skipped kafka message", commitErr, map[string]interface{}{
		"topic":     "orders",
		"partition": 2,
		"offset":    int64(9),
	}).Times(1)

	k := &KafkaClient{cfg: Config{Topic: "orders", GroupID: "billing"}, logger: log}
	raw := kafka.Message{Partition: 2, Offset: 9}

	c := &recordingCommitter{err: commitErr}
	k.commitSkipped(context.Background(), c, raw)
	assert.Len(t, c.committed, 1)

	// without a group there are no offsets to commit
	k.cfg.GroupID = ""
	noGroup := &recordingCommitter{}
	k.commitSkipped(context.Background(), noGroup, raw)
	assert.Empty(t, noGroup.committed)
}
