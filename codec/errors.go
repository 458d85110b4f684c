package codec

import "errors"

var (
	// ErrUnsupportedCompressor indicates an unrecognized compressor identifier.
	ErrUnsupportedCompressor = errors.New("codec: unsupported compressor")

	// ErrUnsupportedWrapper indicates an unrecognized wrapper identifier.
	ErrUnsupportedWrapper = errors.New("codec: unsupported wrapper")

	// ErrCorruptResource indicates a wrapper's declared payload length does
	// not match the actual decoded length.
	ErrCorruptResource = errors.New("codec: corrupt resource")

	// ErrDecompressedTooLarge indicates decompressed data exceeded the
	// safety limit, guarding against decompression-bomb payloads from a
	// tampered or hostile backend.
	ErrDecompressedTooLarge = errors.New("codec: decompressed data exceeds maximum size")
)
