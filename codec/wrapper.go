package codec

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"image"
	"image/draw"
	"image/png"
	"math"
	"strings"
)

// Wrapper identifies a reversible container format that a compressed body is
// embedded into before being handed to a backend. The set is closed.
type Wrapper string

const (
	WrapPNG      Wrapper = "png"
	WrapSVG      Wrapper = "svg"
	WrapIdentity Wrapper = "identity"
)

// Wrap embeds data into the named container.
func Wrap(w Wrapper, data []byte) ([]byte, error) {
	switch w {
	case WrapIdentity, "":
		return data, nil
	case WrapPNG:
		return wrapPNG(data)
	case WrapSVG:
		return wrapSVG(data), nil
	default:
		return nil, ErrUnsupportedWrapper
	}
}

// Unwrap reverses Wrap.
func Unwrap(w Wrapper, data []byte) ([]byte, error) {
	switch w {
	case WrapIdentity, "":
		return data, nil
	case WrapPNG:
		return unwrapPNG(data)
	case WrapSVG:
		return unwrapSVG(data)
	default:
		return nil, ErrUnsupportedWrapper
	}
}

// --- PNG wrapper -----------------------------------------------------------
//
// Stores the payload as-is as the raw raster of a square RGBA PNG: a 4-byte
// big-endian length header, the payload, zero padding out to a multiple of
// 4 bytes, then further zero padding (in whole RGBA pixels) out to a perfect
// square pixel count. This is not steganography: the payload is the image
// data, not hidden inside it. The pixel layout is frozen: changing it would
// strand every resource already wrapped with it.

func pngAddPaddings(data []byte) []byte {
	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, uint32(len(data)))

	sized := make([]byte, 0, 4+len(data)+4)
	sized = append(sized, header...)
	sized = append(sized, data...)
	tailPad := (4 - (len(sized) % 4)) % 4
	sized = append(sized, make([]byte, tailPad)...)

	vectors := len(sized) / 4
	side := int(math.Ceil(math.Sqrt(float64(vectors))))
	padded := vectors
	if vectors != 1 && side*side != vectors {
		padded = side * side
	}
	missingVectors := padded - vectors
	sized = append(sized, make([]byte, missingVectors*4)...)
	return sized
}

func wrapPNG(data []byte) ([]byte, error) {
	padded := pngAddPaddings(data)
	vectors := len(padded) / 4
	side := int(math.Ceil(math.Sqrt(float64(vectors))))
	if side == 0 {
		side = 1
	}

	img := image.NewNRGBA(image.Rect(0, 0, side, side))
	copy(img.Pix, padded)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func unwrapPNG(data []byte) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	nrgba := image.NewNRGBA(b)
	draw.Draw(nrgba, b, img, b.Min, draw.Src)

	flat := nrgba.Pix
	if nrgba.Stride != b.Dx()*4 {
		flat = make([]byte, 0, b.Dx()*b.Dy()*4)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := nrgba.Pix[(y-b.Min.Y)*nrgba.Stride : (y-b.Min.Y)*nrgba.Stride+b.Dx()*4]
			flat = append(flat, row...)
		}
	}

	if len(flat) < 4 {
		return nil, ErrCorruptResource
	}
	size := binary.BigEndian.Uint32(flat[:4])
	if uint64(size) > uint64(len(flat)-4) {
		return nil, ErrCorruptResource
	}
	if size == 0 {
		return nil, nil
	}
	return flat[4 : 4+size], nil
}

// --- SVG wrapper -------------------------------------------------------------
//
// Hex-encodes the payload into the tspan body of a fixed SVG document shell
// that renders as a speech-bubble graphic in any viewer. The shell text is
// part of the wire format; unwrapping matches it byte-for-byte.

const svgPre = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<!DOCTYPE svg PUBLIC "-//W3C//DTD SVG 1.0//EN" "http://www.w3.org/TR/2001/PR-SVG-20010719/DTD/svg10.dtd">
<svg width="5cm" height="2cm" viewBox="125 134 83 39" xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink">
  <g>
    <rect style="fill: #ffffff" x="126" y="135" width="80" height="36" rx="10" ry="10"/>
    <rect style="fill: none; fill-opacity:0; stroke-width: 2; stroke: #000000" x="126" y="135" width="80" height="36" rx="10" ry="10"/>
    <text font-size="12.7998" style="fill: #000000;text-anchor:middle;font-family:sans-serif;font-style:normal;font-weight:normal" x="166" y="156.9">
      <tspan x="166" y="156.9">`

const svgPost = `</tspan>
    </text>
  </g>
</svg>`

func wrapSVG(data []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(svgPre)
	buf.WriteString(hex.EncodeToString(data))
	buf.WriteString(svgPost)
	return buf.Bytes()
}

func unwrapSVG(data []byte) ([]byte, error) {
	s := string(data)
	if !strings.HasPrefix(s, svgPre) || !strings.HasSuffix(s, svgPost) {
		return nil, ErrCorruptResource
	}
	s = strings.TrimPrefix(s, svgPre)
	s = strings.TrimSuffix(s, svgPost)
	out, err := hex.DecodeString(s)
	if err != nil {
		return nil, ErrCorruptResource
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}
