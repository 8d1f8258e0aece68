package envelope

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"sync"
)

// GlobalID identifies one artifact version in the registry.
type GlobalID int64

const (
	// DefaultIDWidth is the encoded width of DefaultIDHandler.
	DefaultIDWidth = 8

	// LegacyIDWidth is the encoded width of Legacy4ByteIDHandler.
	LegacyIDWidth = 4
)

// Built-in id handler names accepted by Config.IDHandler.
const (
	IDHandlerDefault   = "default"
	IDHandlerLegacy    = "legacy"
	IDHandlerConfluent = "confluent"
)

// Class names accepted as aliases so existing Apicurio property files keep working.
const (
	IDHandlerDefaultClass = "io.apicurio.registry.utils.serde.strategy.DefaultIdHandler"
	IDHandlerLegacyClass  = "io.apicurio.registry.utils.serde.strategy.Legacy4ByteIdHandler"
)

// IDHandler converts a GlobalID to and from a fixed-width byte sequence.
type IDHandler interface {
	// Width is the number of bytes Encode produces and Decode consumes.
	Width() int

	// Encode returns the big-endian form of id.
	Encode(id GlobalID) ([]byte, error)

	// Decode parses exactly Width() bytes.
	Decode(b []byte) (GlobalID, error)
}

// DefaultIDHandler stores the full 64-bit id in 8 bytes.
type DefaultIDHandler struct{}

func (DefaultIDHandler) Width() int { return DefaultIDWidth }

func (DefaultIDHandler) Encode(id GlobalID) ([]byte, error) {
	b := make([]byte, DefaultIDWidth)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b, nil
}

func (DefaultIDHandler) Decode(b []byte) (GlobalID, error) {
	if err := checkWidth(b, DefaultIDWidth); err != nil {
		return 0, err
	}
	return GlobalID(binary.BigEndian.Uint64(b)), nil
}

// Legacy4ByteIDHandler stores ids in 4 bytes, the layout used by
// Confluent-compatible serializers. Ids above math.MaxUint32 cannot be encoded.
type Legacy4ByteIDHandler struct{}

func (Legacy4ByteIDHandler) Width() int { return LegacyIDWidth }

func (Legacy4ByteIDHandler) Encode(id GlobalID) ([]byte, error) {
	if id < 0 || uint64(id) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d does not fit in %d bytes", ErrValueOutOfRange, id, LegacyIDWidth)
	}
	b := make([]byte, LegacyIDWidth)
	binary.BigEndian.PutUint32(b, uint32(id))
	return b, nil
}

func (Legacy4ByteIDHandler) Decode(b []byte) (GlobalID, error) {
	if err := checkWidth(b, LegacyIDWidth); err != nil {
		return 0, err
	}
	return GlobalID(binary.BigEndian.Uint32(b)), nil
}

func checkWidth(b []byte, width int) error {
	if len(b) != width {
		return fmt.Errorf("%w: need exactly %d id bytes, got %d", ErrTruncatedEnvelope, width, len(b))
	}
	return nil
}

var (
	idHandlersMu sync.RWMutex
	idHandlers   = map[string]func() IDHandler{
		IDHandlerDefault:   func() IDHandler { return DefaultIDHandler{} },
		IDHandlerLegacy:    func() IDHandler { return Legacy4ByteIDHandler{} },
		IDHandlerConfluent: func() IDHandler { return Legacy4ByteIDHandler{} },

		IDHandlerDefaultClass: func() IDHandler { return DefaultIDHandler{} },
		IDHandlerLegacyClass:  func() IDHandler { return Legacy4ByteIDHandler{} },
	}
)

// RegisterIDHandler makes a custom handler selectable by name through
// Config.IDHandler. Registering an existing name replaces it.
func RegisterIDHandler(name string, ctor func() IDHandler) {
	if name == "" || ctor == nil {
		panic("envelope: RegisterIDHandler requires a name and a constructor")
	}
	idHandlersMu.Lock()
	defer idHandlersMu.Unlock()
	idHandlers[name] = ctor
}

// NewIDHandler instantiates the handler registered under name.
func NewIDHandler(name string) (IDHandler, error) {
	idHandlersMu.RLock()
	ctor, ok := idHandlers[name]
	idHandlersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownIDHandler, name, IDHandlerNames())
	}
	return ctor(), nil
}

// IDHandlerNames lists the registered handler names in sorted order.
func IDHandlerNames() []string {
	idHandlersMu.RLock()
	defer idHandlersMu.RUnlock()
	names := make([]string, 0, len(idHandlers))
	for name := range idHandlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
