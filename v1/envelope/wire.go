package envelope

import (
	"encoding/binary"
	"fmt"
	"math"
)

// MagicByte opens every inline envelope.
const MagicByte byte = 0x0

// Reserved side-channel header names.
const (
	KeyGlobalIDHeader   = "apicurio.key.globalId"
	ValueGlobalIDHeader = "apicurio.value.globalId"

	KeyArtifactIDHeader   = "apicurio.key.artifactId"
	ValueArtifactIDHeader = "apicurio.value.artifactId"

	KeyVersionHeader   = "apicurio.key.version"
	ValueVersionHeader = "apicurio.value.version"
)

// Mode selects where the global id travels.
type Mode int

const (
	// ModeInline prefixes the payload with MagicByte and the encoded id.
	ModeInline Mode = iota

	// ModeHeaders leaves the payload untouched and puts the encoded id in a header.
	ModeHeaders
)

func (m Mode) String() string {
	switch m {
	case ModeInline:
		return "inline"
	case ModeHeaders:
		return "headers"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Headers is the transport-neutral view of message headers.
type Headers map[string][]byte

// HeaderKeys holds the header names of one channel.
type HeaderKeys struct {
	GlobalID   string
	ArtifactID string
	Version    string
}

// HeaderKeysFor returns the reserved header names for the key or value channel.
func HeaderKeysFor(isKey bool) HeaderKeys {
	if isKey {
		return HeaderKeys{GlobalID: KeyGlobalIDHeader, ArtifactID: KeyArtifactIDHeader, Version: KeyVersionHeader}
	}
	return HeaderKeys{GlobalID: ValueGlobalIDHeader, ArtifactID: ValueArtifactIDHeader, Version: ValueVersionHeader}
}

// Writer frames payloads for one channel.
type Writer struct {
	handler IDHandler
	mode    Mode
	keys    HeaderKeys
}

// NewWriter returns a Writer using handler in the given mode. isKey picks the
// header names used in ModeHeaders.
func NewWriter(handler IDHandler, mode Mode, isKey bool) Writer {
	return Writer{handler: handler, mode: mode, keys: HeaderKeysFor(isKey)}
}

// Write frames payload with id. In ModeInline the returned bytes are a new
// buffer and headers is empty; in ModeHeaders payload is returned as is.
func (w Writer) Write(payload []byte, id GlobalID) ([]byte, Headers, error) {
	encoded, err := w.handler.Encode(id)
	if err != nil {
		return nil, nil, err
	}

	if w.mode == ModeHeaders {
		return payload, Headers{w.keys.GlobalID: encoded}, nil
	}

	out := make([]byte, 0, 1+len(encoded)+len(payload))
	out = append(out, MagicByte)
	out = append(out, encoded...)
	out = append(out, payload...)
	return out, Headers{}, nil
}

// WriteReference behaves like Write and, in ModeHeaders, also records the
// artifact reference so a reader can resolve the id itself.
func (w Writer) WriteReference(payload []byte, id GlobalID, ref ArtifactReference) ([]byte, Headers, error) {
	out, headers, err := w.Write(payload, id)
	if err != nil || w.mode != ModeHeaders {
		return out, headers, err
	}
	if ref.ArtifactID != "" {
		headers[w.keys.ArtifactID] = []byte(ref.ArtifactID)
	}
	if ref.Version > math.MaxInt32 {
		return nil, nil, fmt.Errorf("%w: version %d does not fit in 4 bytes", ErrValueOutOfRange, ref.Version)
	}
	if ref.Version > 0 {
		headers[w.keys.Version] = encodeVersion(ref.Version)
	}
	return out, headers, nil
}

// Reader unframes payloads for one channel. It must be built with the same
// handler, mode and channel as the producing Writer.
type Reader struct {
	handler IDHandler
	mode    Mode
	keys    HeaderKeys
}

// NewReader returns a Reader matching NewWriter(handler, mode, isKey).
func NewReader(handler IDHandler, mode Mode, isKey bool) Reader {
	return Reader{handler: handler, mode: mode, keys: HeaderKeysFor(isKey)}
}

// Read extracts the global id. The returned payload aliases data.
func (r Reader) Read(data []byte, headers Headers) (GlobalID, []byte, error) {
	if r.mode == ModeHeaders {
		raw, ok := headers[r.keys.GlobalID]
		if !ok {
			return 0, nil, fmt.Errorf("%w: %s", ErrMissingEnvelopeHeader, r.keys.GlobalID)
		}
		id, err := r.handler.Decode(raw)
		if err != nil {
			return 0, nil, err
		}
		return id, data, nil
	}

	rest, err := SplitInline(data)
	if err != nil {
		return 0, nil, err
	}
	width := r.handler.Width()
	if len(rest) < width {
		return 0, nil, fmt.Errorf("%w: need %d id bytes, got %d", ErrTruncatedEnvelope, width, len(rest))
	}
	id, err := r.handler.Decode(rest[:width])
	if err != nil {
		return 0, nil, err
	}
	return id, rest[width:], nil
}

// ReadReference returns whatever the headers carry about the artifact: the
// encoded global id when present, and the artifact id and version when the
// producer recorded them. It only applies to ModeHeaders.
func (r Reader) ReadReference(headers Headers) (id GlobalID, hasID bool, ref ArtifactReference, err error) {
	if raw, ok := headers[r.keys.GlobalID]; ok {
		id, err = r.handler.Decode(raw)
		if err != nil {
			return 0, false, ArtifactReference{}, err
		}
		hasID = true
	}
	if raw, ok := headers[r.keys.ArtifactID]; ok {
		ref.ArtifactID = string(raw)
	}
	if raw, ok := headers[r.keys.Version]; ok {
		ref.Version, err = decodeVersion(raw)
		if err != nil {
			return 0, false, ArtifactReference{}, err
		}
	}
	return id, hasID, ref, nil
}

// SplitInline checks the magic byte and returns everything after it.
func SplitInline(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrTruncatedEnvelope)
	}
	if data[0] != MagicByte {
		return nil, fmt.Errorf("%w: unknown magic byte 0x%02x", ErrMalformedEnvelope, data[0])
	}
	return data[1:], nil
}

func encodeVersion(version int) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(version))
	return b
}

func decodeVersion(b []byte) (int, error) {
	if err := checkWidth(b, 4); err != nil {
		return 0, err
	}
	return int(int32(binary.BigEndian.Uint32(b))), nil
}
