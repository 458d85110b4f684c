// Package codec implements the two reversible encapsulation layers applied
// to fragment and resource bodies: compression and container wrapping.
// Encapsulation is always compress-then-wrap, so the wrapper always sees
// already-dense bytes (resource.Builder enforces the ordering; this
// package only supplies the two halves).
package codec

import (
	"bytes"
	"compress/gzip"
	"compress/lzw"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Compressor identifies a reversible lossless compression scheme. The set
// is closed; add a new scheme by extending this enum and the two switches
// below, per the "no runtime plugin loading" design note.
type Compressor string

const (
	CompressNone Compressor = "none"
	CompressGZIP Compressor = "gzip"
	CompressLZW  Compressor = "lzw"
	CompressZSTD Compressor = "zstd"
)

// MaxDecompressedSize bounds Decompress's output to guard against
// decompression bombs from a tampered backend blob.
const MaxDecompressedSize = 1 << 30 // 1 GiB

// Compress compresses data with the named scheme.
func Compress(c Compressor, data []byte) ([]byte, error) {
	switch c {
	case CompressNone, "":
		return data, nil
	case CompressGZIP:
		return compressGZIP(data)
	case CompressLZW:
		return compressLZW(data)
	case CompressZSTD:
		return compressZSTD(data)
	default:
		return nil, ErrUnsupportedCompressor
	}
}

// Decompress reverses Compress.
func Decompress(c Compressor, data []byte) ([]byte, error) {
	switch c {
	case CompressNone, "":
		return data, nil
	case CompressGZIP:
		return decompressGZIP(data)
	case CompressLZW:
		return decompressLZW(data)
	case CompressZSTD:
		return decompressZSTD(data)
	default:
		return nil, ErrUnsupportedCompressor
	}
}

func compressGZIP(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressGZIP(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return readAllBounded(r)
}

func compressLZW(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lzw.NewWriter(&buf, lzw.LSB, 8)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressLZW(data []byte) ([]byte, error) {
	r := lzw.NewReader(bytes.NewReader(data), lzw.LSB, 8)
	defer r.Close()
	return readAllBounded(r)
}

func compressZSTD(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

func decompressZSTD(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, err
	}
	if len(out) > MaxDecompressedSize {
		return nil, ErrDecompressedTooLarge
	}
	return out, nil
}

func readAllBounded(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxDecompressedSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxDecompressedSize {
		return nil, ErrDecompressedTooLarge
	}
	return data, nil
}
