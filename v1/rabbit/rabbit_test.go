package rabbit

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/Aleph-Alpha/serde/v1/envelope"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type ctxKey struct{}

func newSession(t *testing.T, cfg envelope.Config) *envelope.Session {
	t.Helper()
	ctrl := gomock.NewController(t)
	s, err := envelope.NewSession(cfg, envelope.WithRegistry(envelope.NewMockRegistry(ctrl)))
	require.NoError(t, err)
	return s
}

func TestNewClient_RequiresSession(t *testing.T) {
	_, err := NewClient(Config{}, nil)
	assert.ErrorIs(t, err, ErrSessionRequired)
}

func TestApplyDefaults(t *testing.T) {
	cfg := applyDefaults(Config{Channel: Channel{ExchangeType: "topic"}})
	assert.Equal(t, uint(DefaultPort), cfg.Connection.Port)
	assert.Equal(t, "topic", cfg.Channel.ExchangeType)
	assert.Equal(t, DefaultContentType, cfg.Channel.ContentType)
	assert.Equal(t, DefaultDelayToReconnect, cfg.Channel.DelayToReconnect)
}

func TestConnectionURL(t *testing.T) {
	raw := connectionURL(Connection{Host: "rabbit", Port: 5671, User: "svc", Password: "s3cret", IsSSLEnabled: true, VirtualHost: "orders"})
	uri, err := amqp.ParseURI(raw)
	require.NoError(t, err)
	assert.Equal(t, "amqps", uri.Scheme)
	assert.Equal(t, "rabbit", uri.Host)
	assert.Equal(t, 5671, uri.Port)
	assert.Equal(t, "svc", uri.Username)
	assert.Equal(t, "s3cret", uri.Password)
	assert.Equal(t, "orders", uri.Vhost)

	uri, err = amqp.ParseURI(connectionURL(Connection{Host: "localhost", Port: 5672, User: "guest", Password: "guest"}))
	require.NoError(t, err)
	assert.Equal(t, "amqp", uri.Scheme)
	assert.Equal(t, "/", uri.Vhost)
}

func TestCreateTLSConfig(t *testing.T) {
	cfg, err := createTLSConfig(Connection{ServerName: "rabbit.internal"})
	require.NoError(t, err)
	assert.Equal(t, "rabbit.internal", cfg.ServerName)

	bad := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(bad, []byte("not a cert"), 0o600))
	_, err = createTLSConfig(Connection{CACertPath: bad})
	assert.ErrorIs(t, err, ErrTLSError)

	_, err = createTLSConfig(Connection{UseCert: true, ClientCertPath: "missing.pem", ClientKeyPath: "missing.key"})
	assert.Error(t, err)
}

func TestDeadLetterArgs(t *testing.T) {
	assert.Nil(t, deadLetterArgs(DeadLetter{}))

	args := deadLetterArgs(DeadLetter{ExchangeName: "dlx", RoutingKey: "dead", Ttl: 30})
	assert.Equal(t, "dlx", args["x-dead-letter-exchange"])
	assert.Equal(t, "dead", args["x-dead-letter-routing-key"])
	assert.Equal(t, int64(30000), args["x-message-ttl"])
	assert.NoError(t, args.Validate())

	args = deadLetterArgs(DeadLetter{ExchangeName: "dlx"})
	assert.NotContains(t, args, "x-message-ttl")
}

func TestTableConversion(t *testing.T) {
	keys := envelope.HeaderKeysFor(false)
	table := toTable(
		envelope.Headers{keys.GlobalID: {0, 0, 0, 0, 0, 0, 0, 9}},
		map[string]interface{}{"traceparent": "00-1", keys.GlobalID: "spoofed"},
	)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 9}, table[keys.GlobalID])
	assert.NoError(t, table.Validate())
	assert.Nil(t, toTable(nil, nil))

	headers, plain, err := fromTable(amqp.Table{
		keys.GlobalID:   []byte{0, 0, 0, 0, 0, 0, 0, 9},
		keys.ArtifactID: "orders-value",
		"retries":       int32(2),
	}, keys)
	require.NoError(t, err)
	assert.Equal(t, []byte("orders-value"), headers[keys.ArtifactID])
	assert.Equal(t, map[string]interface{}{"retries": int32(2)}, plain)

	_, _, err = fromTable(amqp.Table{keys.GlobalID: int64(9)}, keys)
	assert.True(t, envelope.IsMalformedEnvelope(err))

	assert.Equal(t, map[string]string{"a": "1"}, carrier(map[string]interface{}{"a": "1", "b": 2}))
}

func TestPublishingAndUnframe_Inline(t *testing.T) {
	client := &RabbitClient{
		cfg:     applyDefaults(Config{}),
		session: newSession(t, envelope.Config{}),
	}

	pub, err := client.publishing(context.Background(), Record{
		Value:   []byte(`{"id":1}`),
		ID:      0x0102,
		Headers: map[string]interface{}{"source": "billing"},
	})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0, 0, 0, 0, 0, 0, 0x01, 0x02, '{', '"', 'i', 'd', '"', ':', '1', '}'}, pub.Body)
	assert.Equal(t, amqp.Table{"source": "billing"}, pub.Headers)
	assert.Equal(t, DefaultContentType, pub.ContentType)
	assert.Equal(t, amqp.Persistent, pub.DeliveryMode)

	msg, err := client.unframe(context.Background(), amqp.Delivery{Body: pub.Body, Headers: pub.Headers})
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"id":1}`), msg.Body())
	assert.Equal(t, envelope.GlobalID(0x0102), msg.GlobalID())
	assert.Equal(t, map[string]interface{}{"source": "billing"}, msg.Header())
}

func TestPublishingAndUnframe_HeadersWithPropagator(t *testing.T) {
	ctrl := gomock.NewController(t)
	prop := NewMockPropagator(ctrl)
	ctx := context.Background()

	prop.EXPECT().GetCarrier(ctx).Return(map[string]string{"traceparent": "00-abc"})
	prop.EXPECT().
		SetCarrierOnContext(ctx, map[string]string{"traceparent": "00-abc"}).
		Return(context.WithValue(ctx, ctxKey{}, "traced"))

	client := (&RabbitClient{
		cfg:     applyDefaults(Config{}),
		session: newSession(t, envelope.Config{UseHeaders: true, AsConfluent: true}),
	}).WithPropagator(prop)

	pub, err := client.publishing(ctx, Record{
		Value: []byte("payload"),
		ID:    7,
		Ref:   envelope.ArtifactReference{ArtifactID: "orders-value", Version: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), pub.Body)
	assert.Equal(t, []byte{0, 0, 0, 7}, pub.Headers[envelope.ValueGlobalIDHeader])
	assert.Equal(t, []byte("orders-value"), pub.Headers[envelope.ValueArtifactIDHeader])
	assert.Equal(t, "00-abc", pub.Headers["traceparent"])

	msg, err := client.unframe(ctx, amqp.Delivery{Body: pub.Body, Headers: pub.Headers})
	require.NoError(t, err)
	assert.Equal(t, envelope.GlobalID(7), msg.GlobalID())
	assert.Equal(t, []byte("payload"), msg.Body())
	assert.Equal(t, map[string]interface{}{"traceparent": "00-abc"}, msg.Header())
	assert.Equal(t, "traced", msg.Context().Value(ctxKey{}))
}

func TestUnframe_MissingHeader(t *testing.T) {
	client := &RabbitClient{session: newSession(t, envelope.Config{UseHeaders: true})}

	_, err := client.unframe(context.Background(), amqp.Delivery{Body: []byte("payload")})
	assert.True(t, envelope.IsMissingEnvelopeHeader(err))
}

func TestTranslateError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"access refused", &amqp.Error{Code: amqp.AccessRefused, Reason: "ACCESS_REFUSED"}, ErrAccessDenied},
		{"login refused", &amqp.Error{Code: amqp.AccessRefused, Reason: "ACCESS_REFUSED - Login was refused"}, ErrAuthenticationFailed},
		{"queue not found", &amqp.Error{Code: amqp.NotFound, Reason: "NOT_FOUND - no queue 'orders'"}, ErrQueueNotFound},
		{"exchange not found", &amqp.Error{Code: amqp.NotFound, Reason: "NOT_FOUND - no exchange 'orders'"}, ErrExchangeNotFound},
		{"precondition", &amqp.Error{Code: amqp.PreconditionFailed}, ErrPreconditionFailed},
		{"too large", &amqp.Error{Code: amqp.ContentTooLarge}, ErrMessageTooLarge},
		{"closed", fmt.Errorf("publish: %w", amqp.ErrClosed), ErrChannelClosed},
		{"canceled", context.Canceled, ErrCancelled},
		{"refused", &net.OpError{Op: "dial", Err: &os.SyscallError{Syscall: "connect", Err: syscall.ECONNREFUSED}}, ErrConnectionFailed},
		{"tls", errors.New("tls: handshake failure"), ErrTLSError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, TranslateError(tc.err))
		})
	}

	other := errors.New("something else")
	assert.Equal(t, other, TranslateError(other))

	assert.True(t, IsRetryableError(syscall.ECONNRESET))
	assert.False(t, IsRetryableError(&amqp.Error{Code: amqp.AccessRefused}))
}

func TestGracefulShutdown_WithoutConnection(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := NewMockLogger(ctrl)
	log.EXPECT().InfoWithContext(gomock.Any(), "Shutting down RabbitMQ client", nil, gomock.Any()).Times(2)

	client := (&RabbitClient{shutdownSignal: make(chan struct{})}).WithLogger(log)

	client.GracefulShutdown()
	client.GracefulShutdown()

	select {
	case <-client.shutdownSignal:
	default:
		t.Fatal("shutdown signal was not closed")
	}
	assert.Nil(t, client.GetChannel())
}

func TestConsume_ReconnectWaitStopsOnShutdown(t *testing.T) {
	for _, stop := range []string{"shutdown", "cancel"} {
		t.Run(stop, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			log := NewMockLogger(ctrl)
			failed := make(chan struct{}, 1)
			log.EXPECT().ErrorWithContext(gomock.Any(), "Failed to establish consumer", ErrNotConnected, gomock.Any()).
				Do(func(context.Context, string, error, ...map[string]interface{}) {
					select {
					case failed <- struct{}{}:
					default:
					}
				}).MinTimes(1)
			log.EXPECT().InfoWithContext(gomock.Any(), gomock.Any(), nil, gomock.Any()).AnyTimes()

			client := (&RabbitClient{
				cfg:            Config{Channel: Channel{QueueName: "orders", DelayToReconnect: int(time.Hour / time.Millisecond)}},
				session:        newSession(t, envelope.Config{}),
				shutdownSignal: make(chan struct{}),
			}).WithLogger(log)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			var wg sync.WaitGroup
			msgs := client.Consume(ctx, &wg)
			<-failed

			if stop == "shutdown" {
				client.GracefulShutdown()
			} else {
				cancel()
			}

			done := make(chan struct{})
			go func() {
				wg.Wait()
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("consumer kept waiting for the reconnect delay")
			}
			_, open := <-msgs
			assert.False(t, open)
		})
	}
}
