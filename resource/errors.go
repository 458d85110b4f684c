package resource

import "errors"

var (
	// ErrEmptyBuilder indicates Seal was called on a Builder constructed
	// with no fragments.
	ErrEmptyBuilder = errors.New("resource: builder has no fragments to seal")

	// ErrResourceCorrupt indicates a resource's inner frame failed to
	// decode or its declared fragment lengths do not match its bytes.
	ErrResourceCorrupt = errors.New("resource: corrupt")

	// ErrUnknownCompressorByte indicates a frame header names a compressor
	// identifier this binary does not recognize.
	ErrUnknownCompressorByte = errors.New("resource: unknown compressor identifier in frame header")

	// ErrUnknownWrapperByte indicates a frame header names a wrapper
	// identifier this binary does not recognize.
	ErrUnknownWrapperByte = errors.New("resource: unknown wrapper identifier in frame header")
)
