package envelope

import "errors"

// Envelope errors. Every error returned by this package wraps one of these,
// so callers can branch with errors.Is or the Is* helpers below.
var (
	// ErrMalformedEnvelope is returned when the leading byte of an inline
	// envelope is not MagicByte.
	ErrMalformedEnvelope = errors.New("envelope: malformed envelope")

	// ErrTruncatedEnvelope is returned when fewer bytes remain than the
	// framing requires, or an encoded id is not exactly the handler width.
	ErrTruncatedEnvelope = errors.New("envelope: truncated envelope")

	// ErrMissingEnvelopeHeader is returned in header mode when the reserved
	// global id header is absent.
	ErrMissingEnvelopeHeader = errors.New("envelope: missing envelope header")

	// ErrValueOutOfRange is returned when an id does not fit the handler width.
	ErrValueOutOfRange = errors.New("envelope: global id out of range")

	// ErrUnresolvedReference is returned when an artifact reference cannot be
	// resolved because the artifact id is missing or the version is invalid.
	ErrUnresolvedReference = errors.New("envelope: unresolved artifact reference")

	// ErrResolutionFailed wraps any error returned by the registry.
	ErrResolutionFailed = errors.New("envelope: resolution failed")

	// ErrMissingConfiguration is returned when no registry was supplied and
	// no registry URL is configured.
	ErrMissingConfiguration = errors.New("envelope: missing registry url")

	// ErrUnknownIDHandler is returned for an id handler name with no
	// registered constructor.
	ErrUnknownIDHandler = errors.New("envelope: unknown id handler")

	// ErrSessionClosed is returned by registry-backed operations after Close.
	ErrSessionClosed = errors.New("envelope: session is closed")
)

// IsMalformedEnvelope checks if the error is a bad magic byte error.
func IsMalformedEnvelope(err error) bool {
	return errors.Is(err, ErrMalformedEnvelope)
}

// IsTruncatedEnvelope checks if the error is a short input error.
func IsTruncatedEnvelope(err error) bool {
	return errors.Is(err, ErrTruncatedEnvelope)
}

// IsMissingEnvelopeHeader checks if the error is a missing header error.
func IsMissingEnvelopeHeader(err error) bool {
	return errors.Is(err, ErrMissingEnvelopeHeader)
}

// IsResolutionFailed checks if the error came from the registry.
func IsResolutionFailed(err error) bool {
	return errors.Is(err, ErrResolutionFailed)
}
