package envelope

import (
	"context"
	"fmt"
)

// ArtifactReference names an artifact and, optionally, one of its versions.
// A zero Version means "latest".
type ArtifactReference struct {
	ArtifactID string
	Version    int
}

// Resolver turns artifact references into global ids using a Registry.
// It keeps no cache; callers that resolve the same reference repeatedly
// should hold on to the result.
type Resolver struct {
	registry Registry
}

// NewResolver returns a Resolver backed by registry.
func NewResolver(registry Registry) *Resolver {
	return &Resolver{registry: registry}
}

// Resolve looks up the global id of ref. A missing artifact id or a negative
// version fails with ErrUnresolvedReference before any registry call. Registry
// errors are returned wrapped in ErrResolutionFailed and are not retried.
func (r *Resolver) Resolve(ctx context.Context, ref ArtifactReference) (GlobalID, error) {
	if ref.ArtifactID == "" {
		return 0, fmt.Errorf("%w: artifact id is required", ErrUnresolvedReference)
	}
	if ref.Version < 0 {
		return 0, fmt.Errorf("%w: invalid version %d for %s", ErrUnresolvedReference, ref.Version, ref.ArtifactID)
	}

	if ref.Version == 0 {
		md, err := r.registry.GetArtifactMetadata(ctx, ref.ArtifactID)
		if err != nil {
			return 0, fmt.Errorf("%w: artifact %s: %w", ErrResolutionFailed, ref.ArtifactID, err)
		}
		return GlobalID(md.GlobalID), nil
	}

	md, err := r.registry.GetArtifactVersionMetadata(ctx, ref.Version, ref.ArtifactID)
	if err != nil {
		return 0, fmt.Errorf("%w: artifact %s version %d: %w", ErrResolutionFailed, ref.ArtifactID, ref.Version, err)
	}
	return GlobalID(md.GlobalID), nil
}
