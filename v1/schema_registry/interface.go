package schema_registry

import "context"

// Registry provides an interface for interacting with an Apicurio-compatible
// artifact registry. It covers the lookups the envelope layer needs to turn an
// (artifact id, version) pair into a global id, plus schema retrieval and
// registration for serializers.
type Registry interface {
	// GetArtifactMetadata retrieves metadata of the latest version of an artifact
	GetArtifactMetadata(ctx context.Context, artifactID string) (*ArtifactMetadata, error)

	// GetArtifactVersionMetadata retrieves metadata of one specific artifact version
	GetArtifactVersionMetadata(ctx context.Context, version int, artifactID string) (*VersionMetadata, error)

	// GetSchemaByGlobalID retrieves the raw artifact content stored under a global id
	GetSchemaByGlobalID(ctx context.Context, globalID int64) (string, error)

	// CreateArtifact registers a new artifact (or a new version of it) and returns its metadata
	CreateArtifact(ctx context.Context, artifactID, artifactType, content string) (*ArtifactMetadata, error)

	// Reset drops every cached lookup result
	Reset()

	// Close releases idle connections; the client must not be used afterwards
	Close() error
}

// ArtifactMetadata describes the latest version of an artifact.
type ArtifactMetadata struct {
	ID          string            `json:"id"`
	Name        string            `json:"name,omitempty"`
	Description string            `json:"description,omitempty"`
	CreatedOn   int64             `json:"createdOn,omitempty"`
	ModifiedOn  int64             `json:"modifiedOn,omitempty"`
	Version     int               `json:"version"`
	Type        string            `json:"type,omitempty"`
	GlobalID    int64             `json:"globalId"`
	State       string            `json:"state,omitempty"`
	Labels      []string          `json:"labels,omitempty"`
	Properties  map[string]string `json:"properties,omitempty"`
}

// VersionMetadata describes one version of an artifact.
type VersionMetadata struct {
	Version     int    `json:"version"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	CreatedOn   int64  `json:"createdOn,omitempty"`
	Type        string `json:"type,omitempty"`
	GlobalID    int64  `json:"globalId"`
	State       string `json:"state,omitempty"`
}
