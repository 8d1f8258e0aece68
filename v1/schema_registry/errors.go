package schema_registry

import (
	"errors"
	"fmt"
)

var (
	// ErrURLRequired is returned by NewClient when no base URL is configured.
	ErrURLRequired = errors.New("schema registry: URL is required")

	// ErrNotFound is returned when the registry answers 404.
	ErrNotFound = errors.New("schema registry: not found")

	// ErrClientClosed is returned for calls made after Close.
	ErrClientClosed = errors.New("schema registry: client is closed")

	// ErrUnsupportedStoreType is returned for store types other than PEM, PKCS12 and JKS.
	ErrUnsupportedStoreType = errors.New("schema registry: unsupported store type")
)

// StatusError carries a non-2xx registry response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("schema registry returned status %d: %s", e.StatusCode, e.Body)
}

// Is lets errors.Is(err, ErrNotFound) match a 404 response.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == 404
}

// IsNotFoundError checks if the registry reported the artifact or id as missing.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClosedError checks if the error is a "client is closed" error.
func IsClosedError(err error) bool {
	return errors.Is(err, ErrClientClosed)
}
