package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tormund/fragvault/catalog"
	"github.com/tormund/fragvault/codec"
)

func TestEncodeDecodeFrame_RoundTrip(t *testing.T) {
	var h1, h2 catalog.Hash
	h1[0], h2[0] = 1, 2
	entries := []Entry{
		{Hash: h1, Body: []byte("fragment one body")},
		{Hash: h2, Body: []byte("fragment two")},
	}

	frame, layout, err := EncodeFrame(entries, codec.CompressZSTD, codec.WrapPNG)
	require.NoError(t, err)
	require.Len(t, layout, 2)

	compressor, wrapper, decoded, err := DecodeFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, codec.CompressZSTD, compressor)
	assert.Equal(t, codec.WrapPNG, wrapper)
	require.Len(t, decoded, 2)
	assert.Equal(t, entries[0].Body, decoded[0].Body)
	assert.Equal(t, entries[1].Body, decoded[1].Body)
	assert.Equal(t, entries[0].Hash, decoded[0].Hash)
}

func TestDecodeFrame_BadMagic(t *testing.T) {
	_, _, _, err := DecodeFrame([]byte("not a frame at all"))
	assert.ErrorIs(t, err, ErrResourceCorrupt)
}

func TestDecodeFrame_TruncatedFragmentBody(t *testing.T) {
	var h catalog.Hash
	h[0] = 7
	frame, _, err := EncodeFrame([]Entry{{Hash: h, Body: []byte("0123456789")}}, codec.CompressNone, codec.WrapIdentity)
	require.NoError(t, err)

	_, _, _, err = DecodeFrame(frame[:len(frame)-5])
	assert.ErrorIs(t, err, ErrResourceCorrupt)
}

func TestEncodeFrame_UnknownCodecIdentifiers(t *testing.T) {
	_, _, err := EncodeFrame(nil, codec.Compressor("bogus"), codec.WrapIdentity)
	assert.ErrorIs(t, err, ErrUnknownCompressorByte)

	_, _, err = EncodeFrame(nil, codec.CompressNone, codec.Wrapper("bogus"))
	assert.ErrorIs(t, err, ErrUnknownWrapperByte)
}
