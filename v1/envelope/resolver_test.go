package envelope

import (
	"context"
	"errors"
	"testing"

	"github.com/Aleph-Alpha/serde/v1/schema_registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestResolve_Latest(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry := NewMockRegistry(ctrl)
	registry.EXPECT().GetArtifactMetadata(gomock.Any(), "orders-value").
		Return(&schema_registry.ArtifactMetadata{ID: "orders-value", Version: 4, GlobalID: 101}, nil)

	id, err := NewResolver(registry).Resolve(context.Background(), ArtifactReference{ArtifactID: "orders-value"})
	require.NoError(t, err)
	assert.Equal(t, GlobalID(101), id)
}

func TestResolve_Version(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry := NewMockRegistry(ctrl)
	registry.EXPECT().GetArtifactVersionMetadata(gomock.Any(), 2, "orders-value").
		Return(&schema_registry.VersionMetadata{Version: 2, GlobalID: 77}, nil)

	id, err := NewResolver(registry).Resolve(context.Background(), ArtifactReference{ArtifactID: "orders-value", Version: 2})
	require.NoError(t, err)
	assert.Equal(t, GlobalID(77), id)
}

func TestResolve_MissingArtifactIDMakesNoCall(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry := NewMockRegistry(ctrl) // no expectations: any call fails the test

	for _, ref := range []ArtifactReference{{}, {Version: 3}} {
		_, err := NewResolver(registry).Resolve(context.Background(), ref)
		assert.ErrorIs(t, err, ErrUnresolvedReference)
	}
}

func TestResolve_NegativeVersion(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry := NewMockRegistry(ctrl)

	_, err := NewResolver(registry).Resolve(context.Background(), ArtifactReference{ArtifactID: "a", Version: -1})
	assert.ErrorIs(t, err, ErrUnresolvedReference)
}

func TestResolve_WrapsRegistryError(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry := NewMockRegistry(ctrl)
	cause := &schema_registry.StatusError{StatusCode: 404, Body: "no artifact"}
	registry.EXPECT().GetArtifactMetadata(gomock.Any(), "missing").Return(nil, cause).Times(1)

	_, err := NewResolver(registry).Resolve(context.Background(), ArtifactReference{ArtifactID: "missing"})
	require.Error(t, err)
	assert.True(t, IsResolutionFailed(err))
	assert.True(t, schema_registry.IsNotFoundError(err))

	var statusErr *schema_registry.StatusError
	assert.True(t, errors.As(err, &statusErr))
}

func TestResolve_WrapsVersionError(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry := NewMockRegistry(ctrl)
	cause := errors.New("connection refused")
	registry.EXPECT().GetArtifactVersionMetadata(gomock.Any(), 1, "a").Return(nil, cause).Times(1)

	_, err := NewResolver(registry).Resolve(context.Background(), ArtifactReference{ArtifactID: "a", Version: 1})
	assert.ErrorIs(t, err, ErrResolutionFailed)
	assert.ErrorIs(t, err, cause)
}
