package envelope

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Aleph-Alpha/serde/v1/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// TestObserver is a mock observer for testing.
type TestObserver struct {
	mu         sync.Mutex
	operations []observability.OperationContext
}

func (t *TestObserver) ObserveOperation(ctx observability.OperationContext) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.operations = append(t.operations, ctx)
}

func (t *TestObserver) GetOperations() []observability.OperationContext {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]observability.OperationContext, len(t.operations))
	copy(out, t.operations)
	return out
}

func TestObserveOperationNilObserverNoPanic(t *testing.T) {
	s := &Session{handler: DefaultIDHandler{}}

	// Should not panic.
	s.observeOperation("write", 10, time.Millisecond, nil)
	s.observeResolve(ArtifactReference{ArtifactID: "a"}, time.Millisecond, nil)

	var nilSession *Session
	nilSession.observeOperation("read", 0, 0, nil)
}

func TestObserverRecordsWriteAndRead(t *testing.T) {
	obs := &TestObserver{}
	s, err := NewSession(Config{Registry: testRegistryConfig(), UseHeaders: true})
	require.NoError(t, err)
	require.Same(t, s, s.WithObserver(obs))

	out, headers, err := s.Write([]byte("abc"), 1)
	require.NoError(t, err)
	_, _, err = s.Read(out, headers)
	require.NoError(t, err)
	_, _, err = s.Read(out, Headers{})
	require.Error(t, err)

	ops := obs.GetOperations()
	require.Len(t, ops, 3)

	assert.Equal(t, "envelope", ops[0].Component)
	assert.Equal(t, "write", ops[0].Operation)
	assert.Equal(t, ValueGlobalIDHeader, ops[0].Resource)
	assert.Equal(t, "value", ops[0].SubResource)
	assert.Equal(t, int64(3), ops[0].Size)
	assert.Equal(t, DefaultIDWidth, ops[0].Metadata["id_width"])

	assert.Equal(t, "read", ops[1].Operation)
	assert.NoError(t, ops[1].Error)

	assert.Equal(t, "read", ops[2].Operation)
	assert.True(t, IsMissingEnvelopeHeader(ops[2].Error))
}

func TestObserverRecordsResolve(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry := NewMockRegistry(ctrl)
	cause := errors.New("timeout")
	registry.EXPECT().GetArtifactMetadata(gomock.Any(), "orders-key").Return(nil, cause)

	obs := &TestObserver{}
	s, err := NewSession(Config{IsKey: true}, WithRegistry(registry))
	require.NoError(t, err)
	s = s.WithObserver(obs)

	_, err = s.Resolve(context.Background(), ArtifactReference{ArtifactID: "orders-key"})
	require.Error(t, err)

	ops := obs.GetOperations()
	require.Len(t, ops, 1)
	assert.Equal(t, "resolve", ops[0].Operation)
	assert.Equal(t, "orders-key", ops[0].Resource)
	assert.Equal(t, "key", ops[0].SubResource)
	assert.ErrorIs(t, ops[0].Error, cause)
}
