package envelope

import (
	"context"

	"github.com/Aleph-Alpha/serde/v1/schema_registry"
)

// Registry is the part of the registry client a Session depends on.
// *schema_registry.Client satisfies it.
//
//go:generate mockgen -source=interface.go -destination=mock_interface.go -package=envelope
type Registry interface {
	GetArtifactMetadata(ctx context.Context, artifactID string) (*schema_registry.ArtifactMetadata, error)
	GetArtifactVersionMetadata(ctx context.Context, version int, artifactID string) (*schema_registry.VersionMetadata, error)
	Reset()
	Close() error
}

// Logger defines the logging methods used by the envelope package.
// *logger.Logger satisfies it.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
}
