package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapUnwrap_RoundTrip(t *testing.T) {
	payloads := [][]byte{
		nil,
		[]byte("x"),
		[]byte("hello, fragvault"),
		bytes.Repeat([]byte{0xAB, 0xCD, 0xEF, 0x01}, 257),
	}

	for _, w := range []Wrapper{WrapIdentity, WrapPNG, WrapSVG} {
		for _, p := range payloads {
			wrapped, err := Wrap(w, p)
			require.NoError(t, err)

			out, err := Unwrap(w, wrapped)
			require.NoError(t, err)
			assert.Equal(t, p, out, "wrapper %s", w)
		}
	}
}

func TestWrapPNG_ProducesValidPNGSignature(t *testing.T) {
	wrapped, err := Wrap(WrapPNG, []byte("payload"))
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(wrapped, []byte("\x89PNG\r\n\x1a\n")))
}

func TestUnwrapPNG_TruncatedImage(t *testing.T) {
	wrapped, err := Wrap(WrapPNG, []byte("payload"))
	require.NoError(t, err)

	_, err = unwrapPNG(wrapped[:2])
	assert.Error(t, err)
}

func TestUnwrapSVG_MissingEnvelope(t *testing.T) {
	_, err := Unwrap(WrapSVG, []byte("not an svg document"))
	assert.ErrorIs(t, err, ErrCorruptResource)
}

func TestUnwrapSVG_InvalidHex(t *testing.T) {
	bad := svgPre + "zz" + svgPost
	_, err := Unwrap(WrapSVG, []byte(bad))
	assert.ErrorIs(t, err, ErrCorruptResource)
}

func TestWrap_UnsupportedScheme(t *testing.T) {
	_, err := Wrap(Wrapper("bogus"), []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedWrapper)

	_, err = Unwrap(Wrapper("bogus"), []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedWrapper)
}
