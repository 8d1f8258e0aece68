package envelope

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIDHandler_RoundTrip(t *testing.T) {
	h := DefaultIDHandler{}
	require.Equal(t, 8, h.Width())

	for _, id := range []GlobalID{0, 1, 42, math.MaxUint32, math.MaxUint32 + 1, math.MaxInt64, math.MinInt64, -1} {
		b, err := h.Encode(id)
		require.NoError(t, err)
		require.Len(t, b, 8)

		got, err := h.Decode(b)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestDefaultIDHandler_BigEndian(t *testing.T) {
	b, err := DefaultIDHandler{}.Encode(0x0102030405060708)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}, b)
}

func TestDefaultIDHandler_DecodeIsInverseOfEncode(t *testing.T) {
	raw := []byte{0xff, 0x00, 0x10, 0x20, 0x30, 0x40, 0x50, 0x60}
	id, err := DefaultIDHandler{}.Decode(raw)
	require.NoError(t, err)

	back, err := DefaultIDHandler{}.Encode(id)
	require.NoError(t, err)
	assert.Equal(t, raw, back)
}

func TestLegacyIDHandler_RoundTrip(t *testing.T) {
	h := Legacy4ByteIDHandler{}
	require.Equal(t, 4, h.Width())

	for _, id := range []GlobalID{0, 1, 42, math.MaxInt32, math.MaxUint32} {
		b, err := h.Encode(id)
		require.NoError(t, err)
		require.Len(t, b, 4)

		got, err := h.Decode(b)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestLegacyIDHandler_OutOfRange(t *testing.T) {
	for _, id := range []GlobalID{math.MaxUint32 + 1, math.MaxInt64, -1} {
		_, err := Legacy4ByteIDHandler{}.Encode(id)
		assert.ErrorIs(t, err, ErrValueOutOfRange, "id %d", id)
	}
}

func TestDecode_WrongWidth(t *testing.T) {
	_, err := Legacy4ByteIDHandler{}.Decode([]byte{0, 0, 1})
	assert.ErrorIs(t, err, ErrTruncatedEnvelope)

	_, err = Legacy4ByteIDHandler{}.Decode([]byte{0, 0, 0, 0, 1})
	assert.ErrorIs(t, err, ErrTruncatedEnvelope)
	assert.False(t, IsMalformedEnvelope(err))

	_, err = DefaultIDHandler{}.Decode(nil)
	assert.ErrorIs(t, err, ErrTruncatedEnvelope)
}

type sixByteHandler struct{ DefaultIDHandler }

func (sixByteHandler) Width() int { return 6 }

func TestNewIDHandler(t *testing.T) {
	h, err := NewIDHandler(IDHandlerDefault)
	require.NoError(t, err)
	assert.IsType(t, DefaultIDHandler{}, h)

	h, err = NewIDHandler(IDHandlerLegacy)
	require.NoError(t, err)
	assert.IsType(t, Legacy4ByteIDHandler{}, h)

	h, err = NewIDHandler(IDHandlerConfluent)
	require.NoError(t, err)
	assert.Equal(t, LegacyIDWidth, h.Width())

	h, err = NewIDHandler(IDHandlerDefaultClass)
	require.NoError(t, err)
	assert.IsType(t, DefaultIDHandler{}, h)

	h, err = NewIDHandler(IDHandlerLegacyClass)
	require.NoError(t, err)
	assert.IsType(t, Legacy4ByteIDHandler{}, h)

	_, err = NewIDHandler("com.example.Missing")
	assert.ErrorIs(t, err, ErrUnknownIDHandler)
}

func TestRegisterIDHandler(t *testing.T) {
	RegisterIDHandler("test-six", func() IDHandler { return sixByteHandler{} })

	h, err := NewIDHandler("test-six")
	require.NoError(t, err)
	assert.Equal(t, 6, h.Width())
	assert.Contains(t, IDHandlerNames(), "test-six")

	assert.Panics(t, func() { RegisterIDHandler("", nil) })
}
